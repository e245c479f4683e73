// Package server exposes the HTTP surface: inbound SMS/WhatsApp webhooks and
// the administrative API for direct broadcasts, preferences and outbreak
// stats. Webhook handlers translate provider payloads into (sender, text)
// and delegate to the shared bot entry point; no command logic lives here.
package server

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"arogyabot/internal/alert"
	"arogyabot/internal/bot"
	"arogyabot/internal/dispatch"
	"arogyabot/internal/storage"
	"arogyabot/pkg/logx"
)

type Config struct {
	Addr string
}

type Server struct {
	cfg         Config
	bot         *bot.Service
	broadcaster *dispatch.Broadcaster
	store       storage.Store
	log         logx.Logger

	engine *gin.Engine
	http   *http.Server
}

func New(cfg Config, b *bot.Service, d *dispatch.Broadcaster, st storage.Store, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{cfg: cfg, bot: b, broadcaster: d, store: st, log: log, engine: gin.New()}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.POST("/webhook/sms", s.handleInboundWebhook)
	s.engine.POST("/webhook/whatsapp", s.handleInboundWebhook)

	api := s.engine.Group("/api")
	api.POST("/broadcast", s.handleBroadcast)
	api.POST("/preferences", s.handleUpsertPreference)
	api.GET("/outbreaks", s.handleOutbreaks)

	s.engine.GET("/healthz", s.handleHealthz)
}

// Engine exposes the router for tests.
func (s *Server) Engine() http.Handler { return s.engine }

func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("http server listening", logx.String("addr", s.cfg.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// twiml is the minimal messaging response both Twilio SMS and WhatsApp
// webhooks accept.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func (s *Server) handleInboundWebhook(c *gin.Context) {
	from := strings.TrimSpace(c.PostForm("From"))
	body := c.PostForm("Body")
	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing From"})
		return
	}

	reply := s.bot.HandleInbound(c.Request.Context(), from, body)
	c.XML(http.StatusOK, twiml{Message: reply})
}

type broadcastRequest struct {
	Disease  string `json:"disease" binding:"required"`
	Location string `json:"location" binding:"required"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func (s *Server) handleBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := alert.NewEvent(req.Disease, req.Location, alert.ParseSeverity(req.Severity), req.Message)
	out, err := s.broadcaster.Broadcast(c.Request.Context(), ev)
	if err != nil {
		// Audit write failed; the alert is NOT on record.
		s.log.Error("broadcast fatal", logx.Err(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert could not be logged"})
		return
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	c.JSON(http.StatusOK, out)
}

type preferenceRequest struct {
	Region   string `json:"region" binding:"required"`
	Language string `json:"language"`
	Contact  string `json:"contact"`
	Enabled  *bool  `json:"enabled"`
	Method   string `json:"method"`
}

func (s *Server) handleUpsertPreference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	p := storage.Preference{
		Region:   req.Region,
		Language: req.Language,
		Contact:  req.Contact,
		Enabled:  enabled,
		Method:   storage.ContactMethod(strings.ToLower(req.Method)),
	}
	if err := s.store.UpsertPreference(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleOutbreaks(c *gin.Context) {
	outbreaks, err := s.store.RecentOutbreaks(c.Request.Context(), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	type entry struct {
		Disease  string `json:"disease"`
		Location string `json:"location"`
		Cases    int    `json:"cases"`
		Date     string `json:"date"`
		Severity string `json:"severity"`
	}
	out := make([]entry, 0, len(outbreaks))
	for _, o := range outbreaks {
		out = append(out, entry{
			Disease:  o.Disease,
			Location: o.Location,
			Cases:    o.Cases,
			Date:     o.Date.Format("2006-01-02"),
			Severity: o.Severity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"outbreaks": out})
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
