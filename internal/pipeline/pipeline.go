// Package pipeline runs the six briefing stages in order: collect,
// fetch, triage, cluster, narrate, compose.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsbrief/internal/ai"
	"newsbrief/internal/brief"
	"newsbrief/internal/cluster"
	"newsbrief/internal/collect"
	"newsbrief/internal/config"
	"newsbrief/internal/fetch"
	"newsbrief/internal/narrate"
	"newsbrief/internal/store"
	"newsbrief/internal/triage"
)

// StepResult is the outcome of one stage.
type StepResult struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Err     error  `json:"-"`
}

// Result is the outcome of a full run.
type Result struct {
	PeriodID string       `json:"period_id"`
	Steps    []StepResult `json:"steps"`
}

// Pipeline wires the stages over shared backends.
type Pipeline struct {
	cfg      *config.Config
	store    *store.Store
	gen      ai.Generator
	embedder ai.Embedder
	log      *zap.Logger
}

// New creates a Pipeline, resolving the AI backends from config.
func New(cfg *config.Config, st *store.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		gen:      ai.NewGenerator(cfg.AI, cfg.Secrets, log),
		embedder: ai.NewEmbedder(cfg.AI, cfg.Secrets, log),
		log:      log,
	}
}

// Run executes all six stages for the period. Collection and clustering
// failures stop the run; the remaining stages record their errors and
// let later stages work with what exists.
func (p *Pipeline) Run(ctx context.Context, periodID string, daysBack int) *Result {
	runsCounter.Inc()
	r := &Result{PeriodID: periodID}

	step := p.runCollect(ctx, periodID, daysBack)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runFetch(ctx, periodID))
	r.Steps = append(r.Steps, p.runTriage(ctx, periodID))

	step = p.runCluster(ctx, periodID)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runNarrate(ctx, periodID))
	r.Steps = append(r.Steps, p.runCompose(ctx, periodID))
	return r
}

// DryRun reports what each stage would do without side effects.
func (p *Pipeline) DryRun(periodID string) *Result {
	r := &Result{PeriodID: periodID}

	articles, _ := p.store.ArticlesForPeriod(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d articles already stored for %s", len(articles), periodID),
	})

	needing, _ := p.store.ArticlesNeedingFetch(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] %d articles need content fetching", len(needing)),
	})

	untriaged, _ := p.store.UntriagedArticles(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Triage",
		Summary: fmt.Sprintf("[dry-run] %d articles need triage", len(untriaged)),
	})

	relevant, _ := p.store.RelevantArticles(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Cluster",
		Summary: fmt.Sprintf("[dry-run] %d relevant articles to cluster", len(relevant)),
	})

	storylines, _ := p.store.StorylinesForPeriod(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Narrate",
		Summary: fmt.Sprintf("[dry-run] %d storylines need narratives", len(storylines)),
	})

	existing, _ := p.store.BriefingFor(periodID)
	summary := fmt.Sprintf("[dry-run] Would compose briefing for %s", periodID)
	if existing != nil {
		summary = fmt.Sprintf("[dry-run] Briefing already exists for %s and would be overwritten", periodID)
	}
	r.Steps = append(r.Steps, StepResult{Name: "Compose", Summary: summary})

	return r
}

func (p *Pipeline) runCollect(ctx context.Context, periodID string, daysBack int) StepResult {
	p.log.Info("stage 1/6: collect")
	result, err := collect.New(p.cfg, p.store, p.log).Collect(ctx, periodID, daysBack)
	if err != nil {
		stageErrorsByStage.WithLabelValues("collect").Inc()
		return StepResult{Name: "Collect", Err: err}
	}
	articlesCollected.Add(float64(result.NewArticles))
	return StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Found %d new articles (%d total, %d duplicates)", result.NewArticles, result.TotalFound, result.Duplicates),
	}
}

func (p *Pipeline) runFetch(ctx context.Context, periodID string) StepResult {
	p.log.Info("stage 2/6: fetch content")
	result, err := fetch.New(p.store, 15*time.Second, p.log).FetchMissing(ctx, periodID)
	if err != nil {
		stageErrorsByStage.WithLabelValues("fetch").Inc()
		return StepResult{Name: "Fetch", Err: err}
	}
	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d articles, %d failed", result.Fetched, result.Failed),
	}
}

func (p *Pipeline) runTriage(ctx context.Context, periodID string) StepResult {
	p.log.Info("stage 3/6: triage")
	result, err := triage.New(p.store, p.gen, p.log).Run(ctx, periodID)
	if err != nil {
		stageErrorsByStage.WithLabelValues("triage").Inc()
		return StepResult{Name: "Triage", Err: err}
	}
	articlesTriaged.Add(float64(result.Processed))
	return StepResult{
		Name:    "Triage",
		Summary: fmt.Sprintf("Triaged %d articles: %d relevant, %d skipped", result.Processed, result.Relevant, result.Skipped),
	}
}

func (p *Pipeline) runCluster(ctx context.Context, periodID string) StepResult {
	p.log.Info("stage 4/6: cluster")
	engine := cluster.New(p.store, p.embedder, p.cfg.Clustering.DistanceThreshold, p.log)
	result, err := engine.Run(ctx, periodID)
	if err != nil {
		stageErrorsByStage.WithLabelValues("cluster").Inc()
		return StepResult{Name: "Cluster", Err: err}
	}
	storylinesCreated.Add(float64(result.StorylineCount))
	return StepResult{
		Name:    "Cluster",
		Summary: fmt.Sprintf("Created %d storylines from %d articles", result.StorylineCount, result.ArticleCount),
	}
}

func (p *Pipeline) runNarrate(ctx context.Context, periodID string) StepResult {
	p.log.Info("stage 5/6: narrate")
	result, err := narrate.New(p.store, p.gen, p.log).Run(ctx, periodID)
	if err != nil {
		stageErrorsByStage.WithLabelValues("narrate").Inc()
		return StepResult{Name: "Narrate", Err: err}
	}
	narrativesCreated.Add(float64(result.Created))
	return StepResult{
		Name:    "Narrate",
		Summary: fmt.Sprintf("Narrated %d storylines, %d errors", result.Created, result.Errors),
	}
}

func (p *Pipeline) runCompose(ctx context.Context, periodID string) StepResult {
	p.log.Info("stage 6/6: compose")
	briefing, err := brief.New(p.store, p.gen, p.log).Compose(ctx, periodID)
	if err != nil {
		stageErrorsByStage.WithLabelValues("compose").Inc()
		return StepResult{Name: "Compose", Err: err}
	}
	briefingsComposed.Inc()
	return StepResult{
		Name:    "Compose",
		Summary: fmt.Sprintf("Briefing composed: %d storylines, %d articles", briefing.StorylineCount, briefing.ArticleCount),
	}
}
