// Package server exposes the planner over HTTP and streams live suggestions
// over a websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stellarlinkco/packmate/internal/planner"
	"github.com/stellarlinkco/packmate/internal/speech"
	"github.com/stellarlinkco/packmate/internal/suggest"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Planner  *planner.Planner
	Parser   *speech.Parser
	Suggest  *suggest.Service
	Debounce time.Duration
	Logger   zerolog.Logger
}

type Server struct {
	planner  *planner.Planner
	parser   *speech.Parser
	suggest  *suggest.Service
	debounce time.Duration
	logger   zerolog.Logger
	router   *gin.Engine
}

func New(d Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		planner:  d.Planner,
		parser:   d.Parser,
		suggest:  d.Suggest,
		debounce: d.Debounce,
		logger:   d.Logger.With().Str("component", "server").Logger(),
		router:   router,
	}
	router.Use(gin.Recovery(), s.requestLogger())

	api := router.Group("/api")
	{
		api.GET("/events", s.handleListEvents)
		api.POST("/events", s.handleCreateEvent)
		api.GET("/events/:id", s.handleGetEvent)
		api.PUT("/events/:id", s.handleUpdateEvent)
		api.DELETE("/events/:id", s.handleDeleteEvent)
		api.POST("/events/:id/complete", s.handleCompleteEvent)
		api.GET("/events/:id/status", s.handleEventStatus)
		api.GET("/stats", s.handleStats)

		api.GET("/inventory", s.handleListInventory)
		api.POST("/inventory", s.handleAddInventory)
		api.DELETE("/inventory", s.handleClearInventory)
		api.DELETE("/inventory/:item", s.handleRemoveInventory)

		api.GET("/lists", s.handleListLists)
		api.POST("/lists", s.handleCreateList)
		api.GET("/lists/:id", s.handleGetList)
		api.DELETE("/lists/:id", s.handleDeleteList)
		api.POST("/lists/:id/check", s.handleCheckItem)
		api.POST("/lists/:id/uncheck", s.handleUncheckItem)
		api.POST("/lists/:id/complete", s.handleCompleteList)

		api.POST("/parse", s.handleParse)
		api.GET("/suggestions", s.handleSuggestions)
		api.GET("/calendar.ics", s.handleExportCalendar)
		api.POST("/calendar/import", s.handleImportCalendar)
	}
	router.GET("/ws/suggest", s.handleSuggestWS)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen %s: %w", addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("shutdown error")
	}
	s.logger.Info().Msg("stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := s.logger.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = s.logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
