package server

import (
	"net/http"
	"time"

	"github.com/yangbongclub/marketdesk/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Market data
	mux.HandleFunc("/api/market/all", s.handleMarketAll)
	mux.HandleFunc("/api/market", s.handleMarket)

	// News
	mux.HandleFunc("/api/news/hot", s.handleNewsHot)
	mux.HandleFunc("/api/news/search", s.handleNewsSearch)
	mux.HandleFunc("/api/news/", s.handleNewsDetail)
	mux.HandleFunc("/api/news", s.handleNewsList)
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":       cfg.Environment,
		"cache_path":        cfg.Storage.Cache.Path,
		"news_path":         cfg.Storage.News.Path,
		"cache_ttl":         cfg.Segments.GetCacheTTL().String(),
		"news_refresh_ttl":  cfg.News.GetRefreshTTL().String(),
		"scheduler_enabled": cfg.Scheduler.Enabled,
		"segment_priority":  cfg.Segments.Priority,
		"logging_level":     cfg.Logging.Level,
		"kis_configured":    cfg.Clients.KIS.AppKey != "" && cfg.Clients.KIS.AppSecret != "",
	})
}
