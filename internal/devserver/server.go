// Package devserver is a local stand-in for the scoring and adaptation
// service. It keeps results in memory and applies the same word-position
// accuracy and screening rules as the hosted backend.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/pool"
)

// DefaultWPMSeconds is assumed when a speech submission omits time_taken.
const DefaultWPMSeconds = 60

// Difficulty steps applied by /api/update-difficulty.
const (
	raiseAtOrAbove = 0.8
	lowerBelow     = 0.5
	difficultyStep = 0.25
)

type testResult struct {
	kind     string
	score    float64
	accuracy float64
	wpm      *float64
	at       time.Time
}

type gameResult struct {
	kind      string
	score     int
	level     int
	timeTaken *float64
	at        time.Time
}

type user struct {
	difficulty activity.Difficulty
	tests      []testResult
	games      []gameResult
}

// Server serves the scoring API from memory.
type Server struct {
	echo    *echo.Echo
	content pool.Content
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	users map[int]*user
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New builds a server that serves adaptive content from content.
func New(content pool.Content, opts ...Option) *Server {
	s := &Server{
		content: content,
		logger:  slog.Default(),
		now:     time.Now,
		users:   make(map[int]*user),
	}
	for _, o := range opts {
		o(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request", "method", v.Method, "path", v.URIPath, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	api := e.Group("/api")
	api.POST("/speech-test", s.SpeechTest)
	api.POST("/listening-test", s.ListeningTest)
	api.POST("/save-game-score", s.SaveGameScore)
	api.POST("/update-difficulty", s.UpdateDifficulty)
	api.POST("/predict-dyslexia", s.PredictDyslexia)
	api.GET("/get-adaptive-content/:type", s.AdaptiveContent)
	api.GET("/progress/:user_id", s.Progress)
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	s.echo = e
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devserver listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
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
	return s.echo.Shutdown(shutdownCtx)
}

// userLocked returns the record for id, creating it. Callers hold s.mu.
func (s *Server) userLocked(id int) *user {
	u, ok := s.users[id]
	if !ok {
		u = &user{difficulty: activity.DefaultDifficulty}
		s.users[id] = u
	}
	return u
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

// WordAccuracy is the fraction of original words matched at the same
// position, compared case-insensitively.
func WordAccuracy(original, answer string) float64 {
	want := strings.Fields(strings.ToLower(original))
	got := strings.Fields(strings.ToLower(answer))
	if len(want) == 0 {
		return 0
	}
	n := 0
	for i, w := range got {
		if i < len(want) && w == want[i] {
			n++
		}
	}
	return float64(n) / float64(len(want))
}

// NextDifficulty moves d one step toward the child's level for a session
// scoring mean.
func NextDifficulty(d activity.Difficulty, mean float64) activity.Difficulty {
	switch {
	case mean >= raiseAtOrAbove:
		d += difficultyStep
	case mean < lowerBelow:
		d -= difficultyStep
	}
	return d.Clamp()
}

// RiskProbability applies the rule-based screening estimate.
func RiskProbability(speech, listening, wpm float64) float64 {
	p := 0.0
	for _, acc := range []float64{speech, listening} {
		switch {
		case acc < 0.5:
			p += 0.4
		case acc < 0.7:
			p += 0.2
		}
	}
	switch {
	case wpm < 20:
		p += 0.2
	case wpm < 30:
		p += 0.1
	}
	return min(p, 1.0)
}
