// Package triage scores collected articles for relevance with an LLM.
package triage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsbrief/internal/ai"
	"newsbrief/internal/store"
)

const prompt = `You are triaging AI news articles for a daily briefing aimed at people who build software.

Decide whether this article is RELEVANT or should be SKIPPED.

RELEVANT means: practical AI developments, experience reports from using AI tools, new techniques you can try, architecture patterns, tool releases, significant model updates, or insightful commentary on AI's impact on software development.

SKIP means: pure academic research papers, funding/investment announcements, marketing fluff, product launches with no technical substance, celebrity AI opinions, or AI doom/hype pieces with no practical content.

Research priorities to give extra weight:
%s

Reader feedback from past briefings:
%s

Article Title: %s
Source: %s
Content:
%s

Respond with ONLY this JSON:
{
    "verdict": "relevant" or "skip",
    "article_type": "experience_report" | "tool_release" | "technique" | "architecture" | "model_update" | "commentary" | "tutorial" | "announcement" | "other",
    "key_points": ["point 1", "point 2", "point 3"],
    "relevance_reason": "One sentence explaining your verdict",
    "practical_score": 1-5
}

practical_score: 5 = immediately actionable, 1 = tangentially related. Skip articles get 0.`

const (
	maxContentLen = 4000
	maxKeyPoints  = 5
)

// Result summarizes one triage run.
type Result struct {
	Processed int `json:"processed"`
	Relevant  int `json:"relevant"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Triager assesses untriaged articles one at a time.
type Triager struct {
	store *store.Store
	gen   ai.Generator
	log   *zap.Logger
}

// New creates a Triager.
func New(st *store.Store, gen ai.Generator, log *zap.Logger) *Triager {
	return &Triager{store: st, gen: gen, log: log}
}

// Run triages every untriaged article in the period. A failed
// generation counts as an error and leaves the article untriaged, so a
// rerun picks it up again.
func (t *Triager) Run(ctx context.Context, periodID string) (*Result, error) {
	if t.gen == nil {
		return nil, fmt.Errorf("no generator available for triage")
	}

	articles, err := t.store.UntriagedArticles(periodID)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		t.log.Info("no articles pending triage")
		return &Result{}, nil
	}

	priorities, err := t.store.ActivePriorities()
	if err != nil {
		return nil, err
	}
	prioritiesText := formatPriorities(priorities)

	feedback, err := t.store.FeedbackTotals()
	if err != nil {
		return nil, err
	}
	feedbackText := formatFeedback(feedback)

	r := &Result{}
	for _, article := range articles {
		verdict, err := t.assess(ctx, article, prioritiesText, feedbackText)
		if err != nil {
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			t.log.Warn("triage failed", zap.Int64("article", article.ID), zap.Error(err))
			r.Errors++
			continue
		}

		if err := t.store.SaveTriage(*verdict); err != nil {
			t.log.Warn("saving triage failed", zap.Int64("article", article.ID), zap.Error(err))
			r.Errors++
			continue
		}

		r.Processed++
		if verdict.Verdict == store.VerdictRelevant {
			r.Relevant++
		} else {
			r.Skipped++
		}
		t.log.Debug("article triaged",
			zap.String("verdict", verdict.Verdict),
			zap.String("title", article.Title))
	}

	t.log.Info("triage complete",
		zap.Int("processed", r.Processed),
		zap.Int("relevant", r.Relevant),
		zap.Int("skipped", r.Skipped),
		zap.Int("errors", r.Errors))
	return r, nil
}

func (t *Triager) assess(ctx context.Context, article store.Article, prioritiesText, feedbackText string) (*store.Triage, error) {
	content := article.Content
	if content == "" {
		content = article.Title
	}
	if len(content) > maxContentLen {
		content = content[:maxContentLen] + "..."
	}

	source := article.Source
	if source == "" {
		source = "Unknown"
	}

	reply, err := t.gen.Generate(ctx, fmt.Sprintf(prompt, prioritiesText, feedbackText, article.Title, source, content), 512)
	if err != nil {
		return nil, err
	}

	parsed := ai.ParseJSON(reply)
	if parsed == nil {
		// Unparseable replies default to relevant so nothing practical
		// is silently dropped.
		return &store.Triage{
			ArticleID:       article.ID,
			Verdict:         store.VerdictRelevant,
			ArticleType:     "other",
			RelevanceReason: "model reply could not be parsed",
			PracticalScore:  2,
		}, nil
	}

	verdict := strings.ToLower(ai.GetString(parsed, "verdict", store.VerdictRelevant))
	if verdict != store.VerdictRelevant && verdict != store.VerdictSkip {
		verdict = store.VerdictRelevant
	}

	keyPoints := ai.GetStrings(parsed, "key_points")
	if len(keyPoints) > maxKeyPoints {
		keyPoints = keyPoints[:maxKeyPoints]
	}

	score := ai.GetInt(parsed, "practical_score", 2)
	switch {
	case verdict == store.VerdictSkip:
		score = 0
	case score < 1:
		score = 1
	case score > 5:
		score = 5
	}

	return &store.Triage{
		ArticleID:       article.ID,
		Verdict:         verdict,
		ArticleType:     ai.GetString(parsed, "article_type", "other"),
		KeyPoints:       keyPoints,
		RelevanceReason: ai.GetString(parsed, "relevance_reason", ""),
		PracticalScore:  score,
	}, nil
}

// formatFeedback condenses reader thumbs into guidance lines. A source
// or article type counts as preferred when its positives outnumber
// negatives, and vice versa.
func formatFeedback(f *store.FeedbackSummary) string {
	var preferredSources, downratedSources []string
	for _, s := range f.Sources {
		switch {
		case s.Positive > s.Negative:
			preferredSources = append(preferredSources, s.Source)
		case s.Negative > s.Positive:
			downratedSources = append(downratedSources, s.Source)
		}
	}

	var preferredTypes, downratedTypes []string
	for _, ty := range f.Types {
		switch {
		case ty.Positive > ty.Negative:
			preferredTypes = append(preferredTypes, ty.ArticleType)
		case ty.Negative > ty.Positive:
			downratedTypes = append(downratedTypes, ty.ArticleType)
		}
	}

	var lines []string
	if len(preferredSources) > 0 {
		lines = append(lines, "- Preferred sources: "+strings.Join(preferredSources, ", "))
	}
	if len(downratedSources) > 0 {
		lines = append(lines, "- Downrated sources: "+strings.Join(downratedSources, ", "))
	}
	if len(preferredTypes) > 0 {
		lines = append(lines, "- Preferred article types: "+strings.Join(preferredTypes, ", "))
	}
	if len(downratedTypes) > 0 {
		lines = append(lines, "- Downrated article types: "+strings.Join(downratedTypes, ", "))
	}
	if len(lines) == 0 {
		return "None yet"
	}
	return strings.Join(lines, "\n")
}

func formatPriorities(priorities []store.Priority) string {
	if len(priorities) == 0 {
		return "None defined"
	}
	var lines []string
	for _, p := range priorities {
		line := "- " + p.Title
		if p.Description != "" {
			desc := p.Description
			if len(desc) > 100 {
				desc = desc[:100]
			}
			line += ": " + desc
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
