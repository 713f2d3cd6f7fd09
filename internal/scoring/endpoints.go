package scoring

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lexiquest/lexiquest/internal/activity"
)

// Item is one finished test trial ready for scoring.
type Item struct {
	Prompt    string
	Candidate string
	TimeTaken time.Duration
}

// TrialResult is the service's verdict on one submission.
type TrialResult struct {
	Accuracy       float64  `json:"accuracy"`
	Score          float64  `json:"score"`
	WordsPerMinute *float64 `json:"words_per_minute,omitempty"`
	NewDifficulty  *float64 `json:"new_difficulty,omitempty"`
}

type speechRequest struct {
	UserID       int      `json:"user_id"`
	SpokenText   string   `json:"spoken_text"`
	OriginalText string   `json:"original_text"`
	TimeTaken    *float64 `json:"time_taken,omitempty"`
}

type listeningRequest struct {
	UserID       int    `json:"user_id"`
	TypedText    string `json:"typed_text"`
	OriginalText string `json:"original_text"`
}

// GameScore is a finished game's aggregate.
type GameScore struct {
	UserID    int      `json:"user_id"`
	GameType  string   `json:"game_type"`
	Score     int      `json:"score"`
	Level     int      `json:"level"`
	TimeTaken *float64 `json:"time_taken,omitempty"`
}

type difficultyRequest struct {
	UserID int     `json:"user_id"`
	Score  float64 `json:"score"`
}

type difficultyResponse struct {
	NewDifficulty float64 `json:"new_difficulty"`
}

type contentResponse struct {
	Content         []string `json:"content"`
	DifficultyLevel float64  `json:"difficulty_level"`
}

// RiskAssessment is the service's rule-based screening result.
type RiskAssessment struct {
	DyslexiaProbability float64 `json:"dyslexia_probability"`
	IsAtRisk            bool    `json:"is_at_risk"`
	SpeechScore         float64 `json:"speech_score"`
	ListeningScore      float64 `json:"listening_score"`
	WordsPerMinute      float64 `json:"words_per_minute"`
}

// TestRecord is one stored test result.
type TestRecord struct {
	TestType string  `json:"test_type"`
	Score    float64 `json:"score"`
	Date     string  `json:"date"`
}

// GameRecord is one stored game score.
type GameRecord struct {
	GameType string `json:"game_type"`
	Score    int    `json:"score"`
	Level    int    `json:"level"`
	Date     string `json:"date"`
}

// Progress lists a user's stored results.
type Progress struct {
	TestResults []TestRecord `json:"test_results"`
	GameScores  []GameRecord `json:"game_scores"`
}

func seconds(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	s := d.Seconds()
	return &s
}

func testPath(sub activity.SubKind) (string, error) {
	switch sub {
	case activity.SpeechTest:
		return "/api/speech-test", nil
	case activity.ListeningTest:
		return "/api/listening-test", nil
	}
	return "", fmt.Errorf("%s is not a test", sub)
}

// SubmitTrial scores one test item.
func (c *Client) SubmitTrial(ctx context.Context, sub activity.SubKind, userID int, it Item) (*TrialResult, error) {
	path, err := testPath(sub)
	if err != nil {
		return nil, err
	}

	var in any
	if sub == activity.SpeechTest {
		in = speechRequest{UserID: userID, SpokenText: it.Candidate, OriginalText: it.Prompt, TimeTaken: seconds(it.TimeTaken)}
	} else {
		in = listeningRequest{UserID: userID, TypedText: it.Candidate, OriginalText: it.Prompt}
	}

	var out TrialResult
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitItems scores a whole test according to the client's policy. PerItem
// returns one result per item; Batch returns a single result for the joined
// text. Any failure discards results already received.
func (c *Client) SubmitItems(ctx context.Context, sub activity.SubKind, userID int, items []Item) ([]TrialResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no items to submit")
	}

	if c.policy == Batch {
		joined := Item{}
		prompts := make([]string, len(items))
		candidates := make([]string, len(items))
		for i, it := range items {
			prompts[i] = it.Prompt
			candidates[i] = it.Candidate
			joined.TimeTaken += it.TimeTaken
		}
		joined.Prompt = strings.Join(prompts, " ")
		joined.Candidate = strings.Join(candidates, " ")
		res, err := c.SubmitTrial(ctx, sub, userID, joined)
		if err != nil {
			return nil, err
		}
		return []TrialResult{*res}, nil
	}

	results := make([]TrialResult, 0, len(items))
	for i, it := range items {
		res, err := c.SubmitTrial(ctx, sub, userID, it)
		if err != nil {
			c.logger.Warn("test submission failed", "activity", sub, "item", i, "err", err)
			return nil, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// MeanAccuracy averages the accuracies of results.
func MeanAccuracy(results []TrialResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Accuracy
	}
	return sum / float64(len(results))
}

// SubmitGameScore saves a finished game.
func (c *Client) SubmitGameScore(ctx context.Context, gs GameScore) error {
	return c.do(ctx, http.MethodPost, "/api/save-game-score", gs, nil)
}

// UpdateDifficulty reports a test session's mean accuracy and returns the
// user's new difficulty.
func (c *Client) UpdateDifficulty(ctx context.Context, userID int, meanAccuracy float64) (activity.Difficulty, error) {
	var out difficultyResponse
	if err := c.do(ctx, http.MethodPost, "/api/update-difficulty", difficultyRequest{UserID: userID, Score: meanAccuracy}, &out); err != nil {
		return 0, err
	}
	return activity.Difficulty(out.NewDifficulty), nil
}

// FetchContent asks for adaptive prompts for a test.
func (c *Client) FetchContent(ctx context.Context, sub activity.SubKind, userID int, d activity.Difficulty) ([]string, activity.Difficulty, error) {
	if sub.Kind() != activity.KindTest {
		return nil, 0, fmt.Errorf("%s has no adaptive content", sub)
	}
	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))
	q.Set("difficulty", strconv.FormatFloat(float64(d), 'f', -1, 64))

	var out contentResponse
	path := "/api/get-adaptive-content/" + string(sub) + "?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Content, activity.Difficulty(out.DifficultyLevel), nil
}

// PredictRisk asks for a screening estimate from the user's stored tests.
func (c *Client) PredictRisk(ctx context.Context, userID int) (*RiskAssessment, error) {
	var out RiskAssessment
	if err := c.do(ctx, http.MethodPost, "/api/predict-dyslexia", map[string]int{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Progress returns the user's stored test and game results.
func (c *Client) Progress(ctx context.Context, userID int) (*Progress, error) {
	var out Progress
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/progress/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
