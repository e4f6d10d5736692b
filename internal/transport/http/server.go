package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// FeedSource builds the relay history feed.
type FeedSource interface {
	GenerateFeed(baseURL string) (*feeds.Feed, error)
}

// TaskCounter reports in-flight relay jobs.
type TaskCounter interface {
	Len() int
}

// Server exposes the relay history feed and a health check
type Server struct {
	cfg    *config.Config
	feed   FeedSource
	tasks  TaskCounter
	logger *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, feed FeedSource, tasks TaskCounter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		feed:   feed,
		tasks:  tasks,
		logger: logger,
	}
}

// Handler returns the routed handler wrapped in the logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /feed", s.handleFeed(rssFormat))
	mux.HandleFunc("GET /feed.atom", s.handleFeed(atomFormat))
	mux.HandleFunc("GET /feed.json", s.handleFeed(jsonFormat))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	handler := sloghttp.Recovery(mux)
	return sloghttp.New(s.logger)(handler)
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

type feedFormat struct {
	contentType string
	render      func(*feeds.Feed) (string, error)
}

var (
	rssFormat  = feedFormat{"application/rss+xml; charset=utf-8", (*feeds.Feed).ToRss}
	atomFormat = feedFormat{"application/atom+xml; charset=utf-8", (*feeds.Feed).ToAtom}
	jsonFormat = feedFormat{"application/feed+json; charset=utf-8", (*feeds.Feed).ToJSON}
)

func (s *Server) handleFeed(format feedFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.cfg.BaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("%s://%s", getScheme(r), r.Host)
		}

		feed, err := s.feed.GenerateFeed(baseURL)
		if err != nil {
			s.logger.Error("Error generating feed", "error", err)
			http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
			return
		}

		body, err := format.render(feed)
		if err != nil {
			s.logger.Error("Error rendering feed", "error", err)
			http.Error(w, "Failed to render feed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", format.contentType)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"tasks":  s.tasks.Len(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Telegram Media Relay</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>Telegram Media Relay</h1>
    <div class="info">
        <p>Recently relayed posts are published as a feed.</p>
        <p>RSS: <code>/feed</code>, Atom: <code>/feed.atom</code>, JSON Feed: <code>/feed.json</code></p>
    </div>
    <p><a href="/health">Health Check</a></p>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
