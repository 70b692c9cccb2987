// Package session carries the per-caller state date-tree operations run
// under: the file registry, the active file, a scoped file override, the
// cursor, the current view and a pending quick action. Nothing here is
// global; every scoped change is undone on every exit path.
package session

import (
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/datetree"
	"github.com/starford/daybook/internal/outline"
	"github.com/starford/daybook/internal/router"
)

// QuickAction runs with the cursor on a freshly focused day.
type QuickAction func()

// Session is one caller's navigation state. It is not safe for concurrent
// use.
type Session struct {
	registry    router.Registry
	defaultPath string
	activeFile  string
	override    string

	cursor  *outline.Node
	view    datetree.View
	pending QuickAction

	viewSet   bool
	cursorSet bool
}

// New creates a session over registry. defaultPath is used in single-file
// mode.
func New(registry router.Registry, defaultPath string) *Session {
	return &Session{registry: registry, defaultPath: defaultPath}
}

// Registry returns the file registry.
func (s *Session) Registry() router.Registry { return s.registry }

// SetActiveFile records the file the caller is currently visiting.
func (s *Session) SetActiveFile(path string) { s.activeFile = path }

// ActiveFile resolves the document operations should target.
func (s *Session) ActiveFile() string {
	return router.ResolveActiveFile(s.registry, s.activeFile, s.override, s.defaultPath)
}

// WithOverride makes path the active file for the duration of fn. The
// previous override is restored however fn exits.
func (s *Session) WithOverride(path string, fn func() error) error {
	prev := s.override
	s.override = path
	defer func() { s.override = prev }()
	return fn()
}

// View returns the current view bounds.
func (s *Session) View() datetree.View { return s.view }

// SetView replaces the current view. Inside Mutate the new view survives a
// successful exit.
func (s *Session) SetView(v datetree.View) {
	s.view = v
	s.viewSet = true
}

// Cursor returns the node the cursor is on, or nil.
func (s *Session) Cursor() *outline.Node { return s.cursor }

// SetCursor moves the cursor. Inside Mutate the new cursor survives a
// successful exit.
func (s *Session) SetCursor(n *outline.Node) {
	s.cursor = n
	s.cursorSet = true
}

// SetQuickAction queues fn to run after the next GotoDay.
func (s *Session) SetQuickAction(fn QuickAction) { s.pending = fn }

// Mutate widens the view to the whole document while fn runs. On every exit
// path the previous view (rebounded against the mutated document) and cursor
// come back, unless fn succeeded and set new ones itself. A cursor whose
// node left the document is cleared.
func (s *Session) Mutate(doc *outline.Document, fn func() error) (err error) {
	prevView, prevCursor := s.view, s.cursor
	prevViewSet, prevCursorSet := s.viewSet, s.cursorSet
	s.view = datetree.View{}
	s.viewSet, s.cursorSet = false, false

	completed := false
	defer func() {
		ok := completed && err == nil
		if !ok || !s.viewSet {
			s.view = prevView
			if v, found := datetree.Rebound(doc, prevView); found {
				s.view = v
			}
		}
		if !ok || !s.cursorSet {
			s.cursor = prevCursor
		}
		if s.cursor != nil {
			if _, in := doc.Span(s.cursor); !in {
				s.cursor = nil
			}
		}
		s.viewSet, s.cursorSet = prevViewSet, prevCursorSet
	}()

	err = fn()
	completed = true
	return err
}

// GotoDay focuses the day for key, moves the cursor to it and then runs
// action, or the queued quick action when action is nil. The queued action is
// consumed whether or not navigation succeeds.
func (s *Session) GotoDay(doc *outline.Document, key calendar.Key, action QuickAction) (datetree.View, error) {
	if action == nil {
		action = s.pending
	}
	defer func() { s.pending = nil }()

	var v datetree.View
	err := s.Mutate(doc, func() error {
		var err error
		if v, err = datetree.FocusOnDay(doc, key); err != nil {
			return err
		}
		s.SetView(v)
		s.SetCursor(datetree.Find(doc, key))
		return nil
	})
	if err != nil {
		return datetree.View{}, err
	}
	if action != nil {
		action()
	}
	return v, nil
}
