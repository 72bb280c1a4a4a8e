// Package web serves the local dashboard and JSON API over the store.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"newsbrief/internal/period"
	"newsbrief/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

// Server is the dashboard HTTP server.
type Server struct {
	store  *store.Store
	router *gin.Engine
	log    *zap.Logger
}

// New creates the Server and its routes.
func New(st *store.Store, log *zap.Logger) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":      renderMarkdown,
		"displayPeriod": period.Display,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	s := &Server{store: st, router: router, log: log}
	s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/", s.index)
	s.router.GET("/briefing/:period", s.briefing)
	s.router.GET("/priorities", s.priorities)
	s.router.POST("/priorities/add", s.addPriority)
	s.router.POST("/priorities/:id/:action", s.priorityAction)
	s.router.POST("/feedback/storyline/:id", s.rateStoryline)
	s.router.POST("/feedback/article/:id", s.rateArticle)

	api := s.router.Group("/api")
	{
		api.GET("/briefings", s.apiBriefings)
		api.GET("/briefings/:period", s.apiBriefing)
		api.GET("/status", s.apiStatus)
		api.GET("/feedback", s.apiFeedback)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) index(c *gin.Context) {
	briefings, err := s.store.AllBriefings()
	if err != nil {
		s.fail(c, err)
		return
	}
	stats, err := s.store.AggregateStats()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "index", gin.H{
		"Briefings": briefings,
		"Stats":     stats,
	})
}

func (s *Server) briefing(c *gin.Context) {
	periodID := c.Param("period")

	b, err := s.store.BriefingFor(periodID)
	if err != nil {
		s.fail(c, err)
		return
	}

	narratives, err := s.store.NarrativesForPeriod(periodID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ratings, err := s.store.StorylineRatings(periodID)
	if err != nil {
		s.fail(c, err)
		return
	}

	type section struct {
		StorylineID int64
		Title       string
		Text        string
		Rating      string
	}
	sections := make([]section, 0, len(narratives))
	for _, n := range narratives {
		sections = append(sections, section{
			StorylineID: n.StorylineID,
			Title:       n.Title,
			Text:        n.Text,
			Rating:      ratings[n.StorylineID],
		})
	}

	c.HTML(http.StatusOK, "briefing", gin.H{
		"Briefing": b,
		"PeriodID": periodID,
		"Sections": sections,
	})
}

func (s *Server) priorities(c *gin.Context) {
	priorities, err := s.store.AllPriorities()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "priorities", gin.H{"Priorities": priorities})
}

func (s *Server) addPriority(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title != "" {
		if _, err := s.store.AddPriority(title, description, nil); err != nil {
			s.fail(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, "/priorities")
}

func (s *Server) priorityAction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/priorities")
		return
	}

	switch c.Param("action") {
	case "toggle":
		err = s.store.TogglePriority(id)
	case "delete":
		err = s.store.DeletePriority(id)
	case "edit":
		title := strings.TrimSpace(c.PostForm("title"))
		description := strings.TrimSpace(c.PostForm("description"))
		if title != "" {
			err = s.store.UpdatePriority(id, title, description, nil)
		}
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/priorities")
}

// rateStoryline records a thumbs rating; an empty rating clears it.
func (s *Server) rateStoryline(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad storyline id"})
		return
	}

	rating := c.PostForm("rating")
	switch rating {
	case "":
		err = s.store.UnrateStoryline(id)
	case "useful", "not_useful":
		err = s.store.RateStoryline(id, c.PostForm("period_id"), rating)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be useful or not_useful"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) rateArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad article id"})
		return
	}

	rating := c.PostForm("rating")
	switch rating {
	case "":
		err = s.store.UnrateArticle(id)
	case "positive", "negative":
		err = s.store.RateArticle(id, rating)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be positive or negative"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) apiBriefings(c *gin.Context) {
	briefings, err := s.store.AllBriefings()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, briefings)
}

func (s *Server) apiBriefing(c *gin.Context) {
	periodID := c.Param("period")
	b, err := s.store.BriefingFor(periodID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no briefing for period"})
		return
	}

	narratives, err := s.store.NarrativesForPeriod(periodID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"briefing":   b,
		"narratives": narratives,
	})
}

func (s *Server) apiStatus(c *gin.Context) {
	stats, err := s.store.AggregateStats()
	if err != nil {
		s.fail(c, err)
		return
	}
	anchor, err := s.store.LastRunAnchor()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":        stats,
		"last_run_day": anchor,
	})
}

func (s *Server) apiFeedback(c *gin.Context) {
	summary, err := s.store.FeedbackTotals()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) fail(c *gin.Context, err error) {
	s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint:gosec
}

// Serve runs the dashboard on localhost only.
func Serve(st *store.Store, port int, log *zap.Logger) error {
	s, err := New(st, log)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Info("dashboard listening", zap.String("addr", "http://"+addr))
	return http.ListenAndServe(addr, s.Handler())
}
