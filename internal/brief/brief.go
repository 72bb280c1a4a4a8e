// Package brief composes the final briefing document for a period from
// its storyline narratives.
package brief

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsbrief/internal/ai"
	"newsbrief/internal/cluster"
	"newsbrief/internal/store"
)

const tldrPrompt = `You are writing the TL;DR for a daily AI news briefing aimed at software practitioners.

Here are today's storylines and their narratives:

%s

Write a TL;DR section (3-5 bullet points) that captures the most important takeaways from ALL storylines. Each bullet should be one sentence that tells the reader what happened and why it matters.

Respond with ONLY this JSON:
{
    "tldr_bullets": [
        "First key takeaway",
        "Second key takeaway",
        "Third key takeaway"
    ]
}`

// Composer assembles briefings.
type Composer struct {
	store *store.Store
	gen   ai.Generator
	log   *zap.Logger
}

// New creates a Composer. A nil generator still produces briefings,
// with title-bullet TL;DRs.
func New(st *store.Store, gen ai.Generator, log *zap.Logger) *Composer {
	return &Composer{store: st, gen: gen, log: log}
}

// Compose builds and saves the briefing for a period, plus the run
// report that anchors catch-up resolution. Composing the same period
// again overwrites the prior briefing.
func (c *Composer) Compose(ctx context.Context, periodID string) (*store.Briefing, error) {
	narratives, err := c.store.NarrativesForPeriod(periodID)
	if err != nil {
		return nil, err
	}
	storylines, err := c.store.StorylinesForPeriod(periodID)
	if err != nil {
		return nil, err
	}

	if len(narratives) == 0 {
		c.log.Info("no narratives for period, writing empty briefing", zap.String("period", periodID))
		return c.saveEmpty(periodID)
	}

	var articleCount int
	for _, s := range storylines {
		articleCount += s.ArticleCount
	}

	b := store.Briefing{
		PeriodID:       periodID,
		TLDR:           c.tldr(ctx, narratives),
		BodyMarkdown:   assembleBody(narratives),
		StorylineCount: len(storylines),
		ArticleCount:   articleCount,
	}
	if err := c.store.SaveBriefing(b); err != nil {
		return nil, err
	}
	if err := c.store.SaveRunReport(periodID, articleCount, len(storylines)); err != nil {
		return nil, err
	}

	c.log.Info("briefing composed",
		zap.String("period", periodID),
		zap.Int("storylines", len(storylines)),
		zap.Int("articles", articleCount))
	return c.store.BriefingFor(periodID)
}

// tldr asks the generator for takeaway bullets over the non-catch-all
// narratives, falling back to section titles when the model is
// unavailable or fails.
func (c *Composer) tldr(ctx context.Context, narratives []store.Narrative) string {
	if c.gen == nil {
		return fallbackTLDR(narratives)
	}

	var parts []string
	for _, n := range narratives {
		if n.Title != cluster.CatchAllLabel {
			parts = append(parts, fmt.Sprintf("## %s\n%s", n.Title, n.Text))
		}
	}
	if len(parts) == 0 {
		return fallbackTLDR(narratives)
	}

	reply, err := c.gen.Generate(ctx, fmt.Sprintf(tldrPrompt, strings.Join(parts, "\n\n")), 512)
	if err != nil || reply == "" {
		return fallbackTLDR(narratives)
	}

	if parsed := ai.ParseJSON(reply); parsed != nil {
		if bullets := ai.GetStrings(parsed, "tldr_bullets"); len(bullets) > 0 {
			lines := make([]string, len(bullets))
			for i, b := range bullets {
				lines[i] = "- " + b
			}
			return strings.Join(lines, "\n")
		}
	}

	return strings.TrimSpace(reply)
}

func fallbackTLDR(narratives []store.Narrative) string {
	var bullets []string
	for _, n := range narratives {
		if n.Title != cluster.CatchAllLabel {
			bullets = append(bullets, "- "+n.Title)
		}
	}
	if len(bullets) == 0 {
		return "- No significant storylines today."
	}
	return strings.Join(bullets, "\n")
}

// assembleBody renders every narrative as a markdown section, regular
// storylines first and the catch-all last.
func assembleBody(narratives []store.Narrative) string {
	var main, catchAll []store.Narrative
	for _, n := range narratives {
		if n.Title == cluster.CatchAllLabel {
			catchAll = append(catchAll, n)
		} else {
			main = append(main, n)
		}
	}

	var sections []string
	for _, n := range main {
		section := fmt.Sprintf("## %s\n\n%s", n.Title, n.Text)
		if len(n.SourceRefs) > 0 {
			var refs []string
			for _, ref := range n.SourceRefs {
				line := fmt.Sprintf("- [%s](%s)", ref.Title, ref.URL)
				if ref.Contribution != "" {
					line += ": " + ref.Contribution
				}
				refs = append(refs, line)
			}
			section += "\n\n**Sources:**\n" + strings.Join(refs, "\n")
		}
		sections = append(sections, section)
	}

	for _, n := range catchAll {
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", n.Title, n.Text))
	}

	return strings.Join(sections, "\n\n---\n\n")
}

func (c *Composer) saveEmpty(periodID string) (*store.Briefing, error) {
	b := store.Briefing{
		PeriodID:     periodID,
		TLDR:         "- No articles collected today.",
		BodyMarkdown: "No briefing content available for this period.",
	}
	if err := c.store.SaveBriefing(b); err != nil {
		return nil, err
	}
	if err := c.store.SaveRunReport(periodID, 0, 0); err != nil {
		return nil, err
	}
	return c.store.BriefingFor(periodID)
}
