package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	runsCounter          prometheus.Counter
	articlesCollected    prometheus.Counter
	articlesTriaged      prometheus.Counter
	storylinesCreated    prometheus.Counter
	narrativesCreated    prometheus.Counter
	briefingsComposed    prometheus.Counter
	stageErrorsByStage   *prometheus.CounterVec
)

func init() {
	runsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsbrief_pipeline_runs_total",
		Help: "Total number of pipeline runs started.",
	})
	articlesCollected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsbrief_articles_collected_total",
		Help: "Total number of new articles collected.",
	})
	articlesTriaged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsbrief_articles_triaged_total",
		Help: "Total number of articles triaged.",
	})
	storylinesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsbrief_storylines_created_total",
		Help: "Total number of storylines created by clustering.",
	})
	narrativesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsbrief_narratives_created_total",
		Help: "Total number of storyline narratives created.",
	})
	briefingsComposed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "newsbrief_briefings_composed_total",
		Help: "Total number of briefings composed.",
	})
	stageErrorsByStage = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newsbrief_stage_errors_total",
		Help: "Total number of pipeline stage failures.",
	}, []string{"stage"})

	prometheus.MustRegister(
		runsCounter,
		articlesCollected,
		articlesTriaged,
		storylinesCreated,
		narrativesCreated,
		briefingsComposed,
		stageErrorsByStage,
	)
}
