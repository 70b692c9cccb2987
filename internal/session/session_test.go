package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/datetree"
	"github.com/starford/daybook/internal/outline"
	"github.com/starford/daybook/internal/router"
)

var reg = router.Registry{{Name: "J", Path: "/a"}, {Name: "D", Path: "/b"}}

func TestActiveFile(t *testing.T) {
	s := New(reg, "/default.org")
	assert.Equal(t, "/a", s.ActiveFile())
	s.SetActiveFile("/b")
	assert.Equal(t, "/b", s.ActiveFile())

	assert.Equal(t, "/d", New(nil, "/d").ActiveFile())
}

func TestWithOverride_RestoresOnEveryExit(t *testing.T) {
	s := New(reg, "")
	s.SetActiveFile("/b")

	err := s.WithOverride("/tmp/x.org", func() error {
		assert.Equal(t, "/tmp/x.org", s.ActiveFile())
		return s.WithOverride("/tmp/y.org", func() error {
			assert.Equal(t, "/tmp/y.org", s.ActiveFile())
			return errors.New("boom")
		})
	})
	require.Error(t, err)
	assert.Equal(t, "/b", s.ActiveFile())

	func() {
		defer func() { _ = recover() }()
		_ = s.WithOverride("/tmp/z.org", func() error { panic("bad") })
	}()
	assert.Equal(t, "/b", s.ActiveFile())
}

func TestGotoDay_SetsViewCursorAndRunsAction(t *testing.T) {
	doc := outline.Parse("", nil)
	s := New(nil, "/j.org")
	key := calendar.DayKey(2025, 7, 29)

	ran := 0
	var cursorAtRun *outline.Node
	v, err := s.GotoDay(doc, key, func() {
		ran++
		cursorAtRun = s.Cursor()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	require.NotNil(t, cursorAtRun)
	assert.Equal(t, key, cursorAtRun.Key)
	assert.Equal(t, v, s.View())
	assert.True(t, datetree.IsFocusedOn(s.View(), key))
}

func TestGotoDay_QueuedActionConsumedOnce(t *testing.T) {
	doc := outline.Parse("", nil)
	s := New(nil, "/j.org")
	ran := 0
	s.SetQuickAction(func() { ran++ })

	_, err := s.GotoDay(doc, calendar.DayKey(2025, 7, 29), nil)
	require.NoError(t, err)
	_, err = s.GotoDay(doc, calendar.DayKey(2025, 7, 30), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ran)

	s.SetQuickAction(func() { ran++ })
	_, err = s.GotoDay(doc, calendar.DayKey(2025, 2, 30), nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidDateFormat)
	_, err = s.GotoDay(doc, calendar.DayKey(2025, 7, 31), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ran, "failed navigation still clears the queued action")
}

func TestMutate_RestoresViewAndCursorOnFailure(t *testing.T) {
	doc := outline.Parse("", nil)
	s := New(nil, "/j.org")
	key := calendar.DayKey(2025, 7, 29)
	v, err := s.GotoDay(doc, key, nil)
	require.NoError(t, err)
	cursor := s.Cursor()

	err = s.Mutate(doc, func() error {
		assert.True(t, s.View().IsZero(), "view is widened during mutation")
		if _, err := datetree.LocateOrCreate(doc, calendar.DayKey(2025, 7, 1)); err != nil {
			return err
		}
		s.SetView(datetree.View{})
		s.SetCursor(nil)
		return errors.New("later failure")
	})
	require.Error(t, err)
	assert.Same(t, cursor, s.Cursor())
	assert.Equal(t, v.Kind, s.View().Kind)
	assert.Equal(t, v.Start+1, s.View().Start, "restored view follows the inserted line")
}

func TestMutate_RestoresOnPanic(t *testing.T) {
	doc := outline.Parse("", nil)
	s := New(nil, "/j.org")
	v, err := s.GotoDay(doc, calendar.DayKey(2025, 7, 29), nil)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = s.Mutate(doc, func() error {
			s.SetView(datetree.View{})
			panic("bad")
		})
	})
	assert.Equal(t, v, s.View())
}

func TestMutate_ClearsDetachedCursor(t *testing.T) {
	doc := outline.Parse("* Inbox\n** task\n", nil)
	s := New(nil, "/j.org")
	task := doc.Roots[0].Children[0]
	s.SetCursor(task)

	e := datetree.NewEngine(nil)
	err := s.Mutate(doc, func() error {
		return e.RefileOne(doc, task, calendar.DayKey(2025, 1, 1), false)
	})
	require.NoError(t, err)
	assert.Nil(t, s.Cursor())
}
