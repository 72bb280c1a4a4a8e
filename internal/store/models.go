package store

// Verdict values recorded by triage.
const (
	VerdictRelevant = "relevant"
	VerdictSkip     = "skip"
)

// Article is one collected news item. URL is the natural key; collecting a
// known URL again is a duplicate, never an update.
type Article struct {
	ID             int64  `json:"id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Source         string `json:"source,omitempty"`
	PublishedDate  string `json:"published_date,omitempty"`
	Content        string `json:"content,omitempty"`
	ContentFetched bool   `json:"content_fetched"`
	PeriodID       string `json:"period_id"`
	CollectedAt    string `json:"collected_at"`
}

// Triage is the relevance verdict for one article (at most one per article).
type Triage struct {
	ArticleID       int64    `json:"article_id"`
	Verdict         string   `json:"verdict"`
	ArticleType     string   `json:"article_type,omitempty"`
	KeyPoints       []string `json:"key_points,omitempty"`
	RelevanceReason string   `json:"relevance_reason,omitempty"`
	PracticalScore  int      `json:"practical_score"`
	TriagedAt       string   `json:"triaged_at"`
}

// Storyline is one cluster of related articles within a period.
type Storyline struct {
	ID           int64  `json:"id"`
	PeriodID     string `json:"period_id"`
	Label        string `json:"label"`
	ArticleCount int    `json:"article_count"`
	CreatedAt    string `json:"created_at"`
}

// SourceRef points a narrative back at one contributing article.
type SourceRef struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Contribution string `json:"contribution,omitempty"`
}

// Narrative is the generated prose for one storyline.
type Narrative struct {
	ID          int64       `json:"id"`
	StorylineID int64       `json:"storyline_id"`
	PeriodID    string      `json:"period_id"`
	Title       string      `json:"title"`
	Text        string      `json:"text"`
	SourceRefs  []SourceRef `json:"source_refs,omitempty"`
	GeneratedAt string      `json:"generated_at"`
}

// Briefing is the composed document for one period.
type Briefing struct {
	ID             int64  `json:"id"`
	PeriodID       string `json:"period_id"`
	TLDR           string `json:"tldr"`
	BodyMarkdown   string `json:"body_markdown"`
	StorylineCount int    `json:"storyline_count"`
	ArticleCount   int    `json:"article_count"`
	GeneratedAt    string `json:"generated_at"`
}

// Priority is a user-defined topic used to bias collection and triage.
type Priority struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	IsActive    bool     `json:"is_active"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// RunReport records the outcome of a full pipeline run for a period. The
// most recent report's period end date anchors catch-up resolution.
type RunReport struct {
	ID             int64  `json:"id"`
	PeriodID       string `json:"period_id"`
	ArticleCount   int    `json:"article_count"`
	StorylineCount int    `json:"storyline_count"`
	GeneratedAt    string `json:"generated_at"`
}

// Stats aggregates store-wide totals for the status surface.
type Stats struct {
	Articles         int `json:"articles"`
	Triaged          int `json:"triaged"`
	Relevant         int `json:"relevant"`
	Periods          int `json:"periods"`
	Storylines       int `json:"storylines"`
	Briefings        int `json:"briefings"`
	Priorities       int `json:"priorities"`
	ActivePriorities int `json:"active_priorities"`
}

// TriageStats summarizes verdicts within one period.
type TriageStats struct {
	Total    int `json:"total"`
	Relevant int `json:"relevant"`
	Skipped  int `json:"skipped"`
}

// SourceFeedback aggregates article thumbs per source.
type SourceFeedback struct {
	Source   string `json:"source"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
}

// TypeFeedback aggregates article thumbs per triage article type.
type TypeFeedback struct {
	ArticleType string `json:"article_type"`
	Positive    int    `json:"positive"`
	Negative    int    `json:"negative"`
}

// FeedbackSummary is the aggregate view injected into triage weighting.
type FeedbackSummary struct {
	Sources []SourceFeedback `json:"sources"`
	Types   []TypeFeedback   `json:"types"`
}
