// Package narrate writes the prose for each storyline in a period.
package narrate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsbrief/internal/ai"
	"newsbrief/internal/cluster"
	"newsbrief/internal/store"
)

const prompt = `You are writing one section of a daily AI news briefing for software practitioners.

This section covers a storyline about: %s

Write a cohesive 2-3 paragraph narrative that weaves these articles together. Write as if you're a well-informed colleague explaining what happened recently. Be specific about tools, techniques, and outcomes. Avoid marketing language.

Articles in this storyline:
%s

Respond with ONLY this JSON:
{
    "title": "A compelling 5-8 word section title",
    "narrative": "Your 2-3 paragraph narrative here. Use markdown for emphasis.",
    "source_references": [
        {"title": "Article Title", "url": "https://...", "contribution": "What this article added to the story"}
    ]
}`

// Result summarizes one narration run.
type Result struct {
	Created int `json:"created"`
	Errors  int `json:"errors"`
}

// Narrator generates one narrative per storyline.
type Narrator struct {
	store *store.Store
	gen   ai.Generator
	log   *zap.Logger
}

// New creates a Narrator.
func New(st *store.Store, gen ai.Generator, log *zap.Logger) *Narrator {
	return &Narrator{store: st, gen: gen, log: log}
}

// Run narrates every storyline in the period that does not already have
// a narrative, so an interrupted run resumes where it stopped. The
// catch-all storyline is rendered as bullets without the LLM.
func (n *Narrator) Run(ctx context.Context, periodID string) (*Result, error) {
	storylines, err := n.store.StorylinesForPeriod(periodID)
	if err != nil {
		return nil, err
	}
	if len(storylines) == 0 {
		n.log.Info("no storylines to narrate", zap.String("period", periodID))
		return &Result{}, nil
	}

	r := &Result{}
	for _, line := range storylines {
		existing, err := n.store.NarrativeForStoryline(line.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			r.Created++
			continue
		}

		articles, err := n.store.StorylineArticles(line.ID)
		if err != nil {
			return nil, err
		}
		if len(articles) == 0 {
			continue
		}

		if line.Label == cluster.CatchAllLabel {
			err = n.narrateCatchAll(line, articles)
		} else {
			err = n.narrateStoryline(ctx, line, articles)
		}
		if err != nil {
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			n.log.Warn("narration failed", zap.Int64("storyline", line.ID), zap.Error(err))
			r.Errors++
			continue
		}
		r.Created++
	}

	n.log.Info("narration complete",
		zap.Int("created", r.Created),
		zap.Int("errors", r.Errors))
	return r, nil
}

func (n *Narrator) narrateStoryline(ctx context.Context, line store.Storyline, articles []store.Article) error {
	if n.gen == nil {
		return fmt.Errorf("no generator available for narration")
	}

	reply, err := n.gen.Generate(ctx, fmt.Sprintf(prompt, line.Label, n.formatArticles(articles)), 1024)
	if err != nil {
		return err
	}

	narrative := store.Narrative{
		StorylineID: line.ID,
		PeriodID:    line.PeriodID,
	}

	parsed := ai.ParseJSON(reply)
	if parsed != nil {
		narrative.Title = ai.GetString(parsed, "title", line.Label)
		narrative.Text = ai.GetString(parsed, "narrative", "")
		narrative.SourceRefs = parseRefs(parsed)
	} else {
		// Keep the raw reply rather than losing the section.
		narrative.Title = line.Label
		narrative.Text = strings.TrimSpace(reply)
		for _, a := range articles {
			narrative.SourceRefs = append(narrative.SourceRefs, store.SourceRef{Title: a.Title, URL: a.URL})
		}
	}

	_, err = n.store.SaveNarrative(narrative)
	return err
}

// narrateCatchAll renders the pooled singletons as one bullet per
// article. Output is deterministic; no LLM call is made.
func (n *Narrator) narrateCatchAll(line store.Storyline, articles []store.Article) error {
	var bullets []string
	var refs []store.SourceRef

	for _, a := range articles {
		point := a.Title
		if tr, err := n.store.TriageFor(a.ID); err == nil && tr != nil && len(tr.KeyPoints) > 0 {
			point = tr.KeyPoints[0]
		}

		source := a.Source
		if source == "" {
			source = "Unknown"
		}
		bullets = append(bullets, fmt.Sprintf("- **%s** (%s): %s", a.Title, source, point))
		refs = append(refs, store.SourceRef{Title: a.Title, URL: a.URL})
	}

	_, err := n.store.SaveNarrative(store.Narrative{
		StorylineID: line.ID,
		PeriodID:    line.PeriodID,
		Title:       cluster.CatchAllLabel,
		Text:        strings.Join(bullets, "\n"),
		SourceRefs:  refs,
	})
	return err
}

func (n *Narrator) formatArticles(articles []store.Article) string {
	var parts []string
	for i, a := range articles {
		var keyPoints string
		if tr, err := n.store.TriageFor(a.ID); err == nil && tr != nil && len(tr.KeyPoints) > 0 {
			keyPoints = "\n  Key points: " + strings.Join(tr.KeyPoints, "; ")
		}

		var preview string
		if a.Content != "" {
			content := a.Content
			if len(content) > 300 {
				content = content[:300]
			}
			preview = fmt.Sprintf("\n  Content: %s...", content)
		}

		source := a.Source
		if source == "" {
			source = "Unknown"
		}

		parts = append(parts, fmt.Sprintf("[%d] %s\n  Source: %s\n  URL: %s%s%s",
			i+1, a.Title, source, a.URL, keyPoints, preview))
	}
	return strings.Join(parts, "\n\n")
}

func parseRefs(m map[string]any) []store.SourceRef {
	arr, ok := m["source_references"].([]any)
	if !ok {
		return nil
	}

	var refs []store.SourceRef
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		refs = append(refs, store.SourceRef{
			Title:        ai.GetString(obj, "title", ""),
			URL:          ai.GetString(obj, "url", ""),
			Contribution: ai.GetString(obj, "contribution", ""),
		})
	}
	return refs
}
