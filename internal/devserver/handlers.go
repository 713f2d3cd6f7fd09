package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/pool"
)

type speechTestRequest struct {
	UserID       int      `json:"user_id"`
	SpokenText   string   `json:"spoken_text"`
	OriginalText string   `json:"original_text"`
	TimeTaken    *float64 `json:"time_taken"`
}

type listeningTestRequest struct {
	UserID       int    `json:"user_id"`
	TypedText    string `json:"typed_text"`
	OriginalText string `json:"original_text"`
}

type gameScoreRequest struct {
	UserID    int      `json:"user_id"`
	GameType  string   `json:"game_type"`
	Score     *int     `json:"score"`
	Level     *int     `json:"level"`
	TimeTaken *float64 `json:"time_taken"`
}

type userRequest struct {
	UserID int      `json:"user_id"`
	Score  *float64 `json:"score"`
}

// SpeechTest scores a read-aloud transcript.
// POST /api/speech-test
func (s *Server) SpeechTest(c echo.Context) error {
	var req speechTestRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID <= 0 {
		return badRequest(c, "user_id is required")
	}

	acc := WordAccuracy(req.OriginalText, req.SpokenText)
	secs := float64(DefaultWPMSeconds)
	if req.TimeTaken != nil && *req.TimeTaken > 0 {
		secs = *req.TimeTaken
	}
	wpm := float64(len(strings.Fields(req.SpokenText))) / (secs / 60)

	s.mu.Lock()
	u := s.userLocked(req.UserID)
	u.tests = append(u.tests, testResult{kind: "speech", score: acc * 100, accuracy: acc, wpm: &wpm, at: s.now()})
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"accuracy":         acc,
		"words_per_minute": wpm,
		"score":            acc * 100,
	})
}

// ListeningTest scores a typed dictation answer.
// POST /api/listening-test
func (s *Server) ListeningTest(c echo.Context) error {
	var req listeningTestRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID <= 0 {
		return badRequest(c, "user_id is required")
	}

	acc := WordAccuracy(req.OriginalText, req.TypedText)

	s.mu.Lock()
	u := s.userLocked(req.UserID)
	u.tests = append(u.tests, testResult{kind: "listening", score: acc * 100, accuracy: acc, at: s.now()})
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"accuracy": acc,
		"score":    acc * 100,
	})
}

// SaveGameScore stores a finished game.
// POST /api/save-game-score
func (s *Server) SaveGameScore(c echo.Context) error {
	var req gameScoreRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID <= 0 {
		return badRequest(c, "user_id is required")
	}
	sub, err := activity.ParseSubKind(req.GameType)
	if err != nil || sub.Kind() != activity.KindGame {
		return badRequest(c, "unknown game_type")
	}
	if req.Score == nil || req.Level == nil {
		return badRequest(c, "score and level are required")
	}

	s.mu.Lock()
	u := s.userLocked(req.UserID)
	u.games = append(u.games, gameResult{kind: string(sub), score: *req.Score, level: *req.Level, timeTaken: req.TimeTaken, at: s.now()})
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{"message": "Score saved successfully"})
}

// UpdateDifficulty adjusts the user's difficulty from a session mean.
// POST /api/update-difficulty
func (s *Server) UpdateDifficulty(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID <= 0 {
		return badRequest(c, "user_id is required")
	}
	if req.Score == nil || *req.Score < 0 || *req.Score > 1 {
		return badRequest(c, "score must be between 0 and 1")
	}

	s.mu.Lock()
	u := s.userLocked(req.UserID)
	u.difficulty = NextDifficulty(u.difficulty, *req.Score)
	d := u.difficulty
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]float64{"new_difficulty": float64(d)})
}

// PredictDyslexia screens the user's stored test results.
// POST /api/predict-dyslexia
func (s *Server) PredictDyslexia(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	s.mu.Lock()
	var tests []testResult
	if u, ok := s.users[req.UserID]; ok {
		tests = append(tests, u.tests...)
	}
	s.mu.Unlock()

	if len(tests) < 2 {
		return badRequest(c, "Insufficient test data")
	}

	var speech, listening, wpm []float64
	for _, t := range tests {
		switch t.kind {
		case "speech":
			speech = append(speech, t.accuracy)
			if t.wpm != nil && *t.wpm > 0 {
				wpm = append(wpm, *t.wpm)
			}
		case "listening":
			listening = append(listening, t.accuracy)
		}
	}
	avgSpeech := mean(speech, 0)
	avgListening := mean(listening, 0)
	avgWPM := mean(wpm, 30)
	p := RiskProbability(avgSpeech, avgListening, avgWPM)

	return c.JSON(http.StatusOK, map[string]any{
		"dyslexia_probability": p,
		"is_at_risk":           p > 0.7,
		"speech_score":         avgSpeech,
		"listening_score":      avgListening,
		"words_per_minute":     avgWPM,
	})
}

// AdaptiveContent returns a test prompt set for the user's level.
// GET /api/get-adaptive-content/:type?user_id=&difficulty=
func (s *Server) AdaptiveContent(c echo.Context) error {
	sub, err := activity.ParseSubKind(c.Param("type"))
	if err != nil || sub.Kind() != activity.KindTest {
		return badRequest(c, "unknown content type")
	}

	s.mu.Lock()
	d := activity.DefaultDifficulty
	if id, err := strconv.Atoi(c.QueryParam("user_id")); err == nil {
		d = s.userLocked(id).difficulty
	}
	s.mu.Unlock()
	if q := c.QueryParam("difficulty"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			return badRequest(c, "difficulty must be a number")
		}
		d = activity.Difficulty(v).Clamp()
	}

	list := s.content.Speech
	if sub == activity.ListeningTest {
		list = s.content.Listening
	}
	// Rotate so harder levels start further into the list.
	out := make([]string, 0, pool.TestItems)
	if len(list) > 0 {
		start := int(d.Fraction() * float64(len(list)-1))
		for i := 0; i < len(list) && len(out) < pool.TestItems; i++ {
			out = append(out, list[(start+i)%len(list)])
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"content":          out,
		"difficulty_level": float64(d),
	})
}

// Progress lists the user's stored results, oldest first.
// GET /api/progress/:user_id
func (s *Server) Progress(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		return badRequest(c, "user_id must be an integer")
	}

	tests := []map[string]any{}
	games := []map[string]any{}

	s.mu.Lock()
	if u, ok := s.users[id]; ok {
		for _, t := range u.tests {
			tests = append(tests, map[string]any{
				"test_type": t.kind,
				"score":     t.score,
				"date":      t.at.Format(time.RFC3339),
			})
		}
		for _, g := range u.games {
			games = append(games, map[string]any{
				"game_type": g.kind,
				"score":     g.score,
				"level":     g.level,
				"date":      g.at.Format(time.RFC3339),
			})
		}
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"test_results": tests,
		"game_scores":  games,
	})
}

func mean(xs []float64, empty float64) float64 {
	if len(xs) == 0 {
		return empty
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
