package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsbrief/internal/collect"
	"newsbrief/internal/config"
	"newsbrief/internal/logging"
	"newsbrief/internal/period"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/store"
	"newsbrief/internal/web"
)

var version = "dev"

var (
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsbrief",
	Short:   "Daily news briefings",
	Long:    "Newsbrief collects, triages, clusters, and narrates news into daily briefings.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init and version must work without a config file
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolvePath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = logging.New(level)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(prioritiesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsbrief", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newsbrief/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.Dir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.Dir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, API keys, and model providers.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.AggregateStats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		anchor, err := st.LastRunAnchor()
		if err != nil {
			return fmt.Errorf("reading last run: %w", err)
		}

		today := period.Today()
		fmt.Printf("Today: %s\n", today)
		if anchor == "" {
			fmt.Println("Last run: never")
		} else {
			fmt.Printf("Last run: %s\n", anchor)
		}

		fmt.Println("\nArticles:")
		fmt.Printf("  Total collected: %d\n", stats.Articles)
		fmt.Printf("  Triaged: %d\n", stats.Triaged)
		fmt.Printf("  Relevant: %d\n", stats.Relevant)
		fmt.Println("\nOutput:")
		fmt.Printf("  Storylines: %d\n", stats.Storylines)
		fmt.Printf("  Briefings: %d\n", stats.Briefings)
		fmt.Printf("  Periods with data: %d\n", stats.Periods)
		fmt.Println("\nResearch Priorities:")
		fmt.Printf("  Total: %d\n", stats.Priorities)
		fmt.Printf("  Active: %d\n", stats.ActivePriorities)

		if ts, err := st.TriageStatsForPeriod(today); err == nil && ts.Total > 0 {
			fmt.Println("\nToday's triage:")
			fmt.Printf("  Assessed: %d\n", ts.Total)
			fmt.Printf("  Relevant: %d\n", ts.Relevant)
			fmt.Printf("  Skipped: %d\n", ts.Skipped)
		}
		return nil
	},
}

// --- collect command ---

var collectDaysBack int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect articles from configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		days := collectDaysBack
		if days < 1 {
			days = 1
		}
		periodID := period.Today()
		fmt.Println("Collecting articles from sources...")

		collector := collect.New(cfg, st, logger)
		result, err := collector.Collect(context.Background(), periodID, days)
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New articles: %d\n", result.NewArticles)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nArticles by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool {
				if sorted[i].val != sorted[j].val {
					return sorted[i].val > sorted[j].val
				}
				return sorted[i].key < sorted[j].key
			})
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var (
	dryRun      bool
	daysBack    int
	autoConfirm bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> fetch -> triage -> cluster -> narrate -> compose",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		anchor, err := st.LastRunAnchor()
		if err != nil {
			return fmt.Errorf("reading last run: %w", err)
		}
		res, err := period.Resolve(time.Now(), anchor, daysBack)
		if err != nil {
			return err
		}
		announceRun(res, anchor)

		if res.NeedsConfirmation && !autoConfirm {
			fmt.Printf("Catch up %d days (%s)? This will use more API calls [y/N]: ", res.Lookback, res.PeriodID)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer != "y" && answer != "yes" {
				return fmt.Errorf("aborted")
			}
		}

		pipe := pipeline.New(cfg, st, logger)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(res.PeriodID)
		} else {
			result = pipe.Run(context.Background(), res.PeriodID, res.Lookback)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'newsbrief serve' to view the briefing.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
	runCmd.Flags().BoolVarP(&autoConfirm, "yes", "y", false, "Skip catch-up confirmation prompts")

	collectCmd.Flags().IntVar(&collectDaysBack, "days-back", 1, "How many days of history to request from sources")
}

func announceRun(res period.Resolution, anchor string) {
	switch res.Reason {
	case period.ReasonOverride:
		fmt.Printf("Collecting %d day(s) of articles (%s).\n", res.Lookback, res.PeriodID)
	case period.ReasonFirstRun:
		fmt.Println("First run detected, collecting today's articles.")
	case period.ReasonSameDay:
		fmt.Printf("Already ran today (%s). Re-running pipeline.\n", res.PeriodID)
	case period.ReasonDaily:
		fmt.Printf("Daily run for %s.\n", res.PeriodID)
	case period.ReasonCatchUp:
		fmt.Printf("Last run was %d days ago (%s).\n", res.Lookback, anchor)
		if !res.NeedsConfirmation {
			fmt.Printf("Catching up %d days (%s).\n", res.Lookback, res.PeriodID)
		}
	}
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return web.Serve(st, port, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		spec := cfg.Schedule.Cron
		c := cron.New()
		_, err = c.AddFunc(spec, func() {
			anchor, err := st.LastRunAnchor()
			if err != nil {
				logger.Error("reading last run", zap.Error(err))
				return
			}
			res, err := period.Resolve(time.Now(), anchor, 0)
			if err != nil {
				logger.Error("resolving period", zap.Error(err))
				return
			}
			if res.NeedsConfirmation {
				// Unattended runs never catch up a large gap silently.
				logger.Warn("skipping scheduled run, catch-up needs confirmation",
					zap.String("period", res.PeriodID),
					zap.Int("days", res.Lookback))
				return
			}

			logger.Info("scheduled run starting", zap.String("period", res.PeriodID))
			result := pipeline.New(cfg, st, logger).Run(context.Background(), res.PeriodID, res.Lookback)
			for _, step := range result.Steps {
				if step.Err != nil {
					logger.Error("pipeline step failed",
						zap.String("step", step.Name), zap.Error(step.Err))
				}
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", spec, err)
		}

		fmt.Printf("Scheduler running (%s). Press Ctrl+C to stop.\n", spec)
		c.Run()
		return nil
	},
}

// --- priorities command ---

var prioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "Manage research priorities",
}

var prioritiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all research priorities",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := st.AllPriorities()
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No priorities defined. Add one with: newsbrief priorities add")
			return nil
		}

		fmt.Println("Research Priorities:")
		fmt.Println()
		for _, p := range items {
			icon := " "
			if p.IsActive {
				icon = "*"
			}
			fmt.Printf("  [%d] %s %s\n", p.ID, icon, p.Title)
			if p.Description != "" {
				desc := p.Description
				if len(desc) > 60 {
					desc = desc[:60] + "..."
				}
				fmt.Printf("        %s\n", desc)
			}
		}
		return nil
	},
}

var prioritiesAddCmd = &cobra.Command{
	Use:   "add [title] [description]",
	Short: "Add a new research priority",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		title := args[0]
		description := ""
		if len(args) > 1 {
			description = args[1]
		}

		id, err := st.AddPriority(title, description, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Added priority [%d]: %s\n", id, title)
		return nil
	},
}

var prioritiesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a research priority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid priority ID: %s", args[0])
		}

		priority, err := st.PriorityByID(id)
		if err != nil {
			return err
		}
		if priority == nil {
			return fmt.Errorf("priority %d not found", id)
		}

		if err := st.DeletePriority(id); err != nil {
			return err
		}
		fmt.Printf("Removed priority [%d]: %s\n", id, priority.Title)
		return nil
	},
}

var prioritiesToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Toggle a priority's active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid priority ID: %s", args[0])
		}

		priority, err := st.PriorityByID(id)
		if err != nil {
			return err
		}
		if priority == nil {
			return fmt.Errorf("priority %d not found", id)
		}

		if err := st.TogglePriority(id); err != nil {
			return err
		}
		newState := "disabled"
		if !priority.IsActive {
			newState = "enabled"
		}
		fmt.Printf("Priority [%d] %s: %s\n", id, priority.Title, newState)
		return nil
	},
}

func init() {
	prioritiesCmd.AddCommand(prioritiesListCmd)
	prioritiesCmd.AddCommand(prioritiesAddCmd)
	prioritiesCmd.AddCommand(prioritiesRemoveCmd)
	prioritiesCmd.AddCommand(prioritiesToggleCmd)
}

func openStore() (*store.Store, error) {
	if err := os.MkdirAll(cfg.EffectiveDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.Open(cfg.StorePath())
}
