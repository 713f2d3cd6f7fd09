package home

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/pool"
	"github.com/lexiquest/lexiquest/internal/profile"
	"github.com/lexiquest/lexiquest/internal/router"
	"github.com/lexiquest/lexiquest/internal/screens/history"
	"github.com/lexiquest/lexiquest/internal/screens/play"
	"github.com/lexiquest/lexiquest/internal/session"
	"github.com/lexiquest/lexiquest/internal/store"
)

func newProfile(t *testing.T) *profile.Profile {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "home.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return profile.New(st.SessionRepo(), st.SnapshotRepo(), 1, activity.DefaultDifficulty)
}

func controllers(t *testing.T) func(activity.SubKind) (*session.Controller, error) {
	return func(sub activity.SubKind) (*session.Controller, error) {
		c, err := session.New(session.Config{
			Activity: sub,
			Pool:     pool.New(pool.Builtin(), pool.WithRand(rand.New(rand.NewPCG(1, 1)))),
		})
		if err == nil {
			t.Cleanup(c.Abandon)
		}
		return c, err
	}
}

func TestMenuLabels(t *testing.T) {
	h := New(Deps{})
	assert.Equal(t, []string{
		"WORD JUMBLE", "MEMORY MATCH", "SPELLING BEE", "SPEECH TEST", "LISTENING TEST", "HISTORY", "EXIT",
	}, h.menu.Labels())
	assert.True(t, h.menu.DisabledSet()[5], "history needs a profile")
}

func TestStartActivityPushesPlayScreen(t *testing.T) {
	h := New(Deps{NewController: controllers(t)})

	_, cmd := h.Update(tea.KeyPressMsg{Code: '2', Text: "2"})
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	p, ok := push.Screen.(*play.Screen)
	require.True(t, ok)
	assert.Equal(t, "Memory Match", p.Title())
}

func TestStartFailureShowsNotice(t *testing.T) {
	h := New(Deps{NewController: func(activity.SubKind) (*session.Controller, error) {
		return nil, errors.New("no content")
	}})
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, h.notice, "no content")
	assert.Contains(t, h.View(120, 40), "no content")
}

func TestHistoryOpensWithProfile(t *testing.T) {
	h := New(Deps{Profile: newProfile(t)})
	h.menu.Selected = 5
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	_, ok = push.Screen.(*history.HistoryScreen)
	assert.True(t, ok)
}

func TestInitLoadsStats(t *testing.T) {
	p := newProfile(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d := 2.0
	mean := 0.9
	require.NoError(t, p.RecordSession(ctx, store.SessionRecord{
		ID: "s1", Activity: "speech_test", Kind: "test", TurnLimit: 5,
		MeanAccuracy: &mean, NewDifficulty: &d,
		StartedAt: at, CompletedAt: at, SubmittedAt: at,
	}))

	h := New(Deps{Profile: p})
	h.now = func() time.Time { return at.Add(time.Hour) }
	h.Update(h.Init()())

	assert.Equal(t, activity.Difficulty(2.0), h.difficulty)
	assert.Equal(t, 1, h.played)
	assert.Equal(t, MascotCelebrating, h.mascot())
	assert.Contains(t, h.View(120, 40), "1 PLAYED")
}

func TestOfflineBanner(t *testing.T) {
	h := New(Deps{Offline: true})
	assert.Equal(t, MascotAlert, h.mascot())
	assert.True(t, strings.Contains(h.View(120, 40), "No scoring service"))
}
