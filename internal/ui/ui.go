// Package ui serves the HTML form that queries the recommendation API.
package ui

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	DefaultPort = 7860

	msgEmptyInput   = "Please provide either a job description text or a URL."
	msgNoResults    = "No relevant assessments found. Please try a more detailed job description."
	msgEmptyCatalog = "No assessments are available yet."
	headingAll      = "All Available SHL Assessments"
)

var pageTemplate = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{"yesNo": yesNo}).
		ParseFS(templateFS, "templates/index.html"),
)

// API is the subset of the recommendation API the form needs.
type API interface {
	Recommend(ctx context.Context, text, url string) ([]catalog.Assessment, error)
	Assessments(ctx context.Context) ([]catalog.Assessment, error)
}

type Handler struct {
	api    API
	base   string
	logger *zap.Logger
}

type pageData struct {
	Base        string
	Text        string
	URL         string
	Message     string
	Error       string
	Heading     string
	Recommended bool
	Assessments []catalog.Assessment
}

// NewHandler builds the form handlers. base is the path prefix they are mounted under.
func NewHandler(api API, base string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		api:    api,
		base:   strings.TrimSuffix(base, "/"),
		logger: logger,
	}
}

// Register mounts the form routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.index)
	r.POST("/", h.submit)
	r.GET("/all", h.all)
}

// NewEngine returns a standalone router serving only the form.
func NewEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), func(c *gin.Context) {
		c.Next()
		h.logger.Debug("ui request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	})
	h.Register(engine)
	return engine
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{})
}

func (h *Handler) submit(c *gin.Context) {
	data := pageData{
		Text: strings.TrimSpace(c.PostForm("text")),
		URL:  strings.TrimSpace(c.PostForm("url")),
	}

	if data.Text == "" && data.URL == "" {
		h.logger.Warn("request with no text or url provided")
		data.Message = msgEmptyInput
		h.render(c, http.StatusOK, data)
		return
	}

	h.logger.Info("processing recommendation request",
		zap.Int("text_length", len(data.Text)),
		zap.String("url", data.URL),
	)

	items, err := h.api.Recommend(c.Request.Context(), data.Text, data.URL)
	if err != nil {
		h.logger.Error("requesting recommendations", zap.Error(err))
		data.Error = err.Error()
		h.render(c, http.StatusOK, data)
		return
	}

	if len(items) == 0 {
		h.logger.Warn("no recommendations received")
		data.Message = msgNoResults
		h.render(c, http.StatusOK, data)
		return
	}

	h.logger.Info("received recommendations", zap.Int("count", len(items)))
	data.Assessments = items
	data.Recommended = true
	h.render(c, http.StatusOK, data)
}

func (h *Handler) all(c *gin.Context) {
	h.logger.Info("requesting all assessments")

	var data pageData
	items, err := h.api.Assessments(c.Request.Context())
	switch {
	case err != nil:
		h.logger.Error("requesting assessments", zap.Error(err))
		data.Error = err.Error()
	case len(items) == 0:
		data.Message = msgEmptyCatalog
	default:
		h.logger.Info("received assessments", zap.Int("count", len(items)))
		data.Heading = headingAll
		data.Assessments = items
	}

	h.render(c, http.StatusOK, data)
}

func (h *Handler) render(c *gin.Context, status int, data pageData) {
	data.Base = h.base
	c.Render(status, render.HTML{Template: pageTemplate, Name: "index.html", Data: data})
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
