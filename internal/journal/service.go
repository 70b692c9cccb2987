// Package journal runs date-tree operations against journal documents kept
// in a storage.Provider. Every operation gets a fresh session, serializes on
// the target document, saves only real changes and keeps the day index and
// event subscribers in step.
package journal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/datetree"
	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/outline"
	"github.com/starford/daybook/internal/router"
	"github.com/starford/daybook/internal/session"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/storage"
)

// Publisher receives journal events.
type Publisher interface {
	Publish(event sse.Event)
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry sets the registered journal documents.
func WithRegistry(r router.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithDefaultFile sets the document used in single-file mode.
func WithDefaultFile(path string) Option {
	return func(s *Service) { s.defaultFile = path }
}

// WithWeekStart sets the first day of the week for week views.
func WithWeekStart(d time.Weekday) Option {
	return func(s *Service) { s.weekStart = d }
}

// WithGrammar sets the heading grammar.
func WithGrammar(g *outline.Grammar) Option {
	return func(s *Service) { s.grammar = g }
}

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service coordinates storage, the date-tree core, the day index and event
// publishing.
type Service struct {
	store    storage.Provider
	db       index.DayIndex
	pub      Publisher
	engine   *datetree.Engine
	grammar  *outline.Grammar
	logger   *slog.Logger
	now      func() time.Time
	registry router.Registry

	defaultFile string
	weekStart   time.Weekday

	mu    sync.Mutex
	locks map[string]*docLock
}

// docLock is a per-document mutex. refs counts holders and waiters so the
// entry can be dropped once nobody needs it.
type docLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a journal service. db may be nil to run without an
// index.
func NewService(store storage.Provider, db index.DayIndex, opts ...Option) *Service {
	s := &Service{
		store:     store,
		db:        db,
		now:       time.Now,
		weekStart: time.Monday,
		locks:     make(map[string]*docLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.grammar == nil {
		s.grammar = outline.NewGrammar(nil)
	}
	s.engine = datetree.NewEngine(s.logger)
	return s
}

// Engine exposes the refile engine so callers can register placement hooks.
func (s *Service) Engine() *datetree.Engine { return s.engine }

// Grammar returns the heading grammar documents are parsed with.
func (s *Service) Grammar() *outline.Grammar { return s.grammar }

// NewSession returns a session over the service's registry.
func (s *Service) NewSession() *session.Session {
	return session.New(s.registry, s.defaultFile)
}

// lock serializes mutations of one document. path must already be
// normalised by cleanPath.
func (s *Service) lock(path string) func() {
	s.mu.Lock()
	l, ok := s.locks[path]
	if !ok {
		l = &docLock{}
		s.locks[path] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, path)
		}
		s.mu.Unlock()
	}
}

// cleanPath gives every spelling of a journal path one slash-separated form.
func cleanPath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// documentPath maps a registered name to its path and normalises anything
// else as a path override.
func (s *Service) documentPath(file string) string {
	if e, ok := s.registry.Lookup(file); ok && file != "" {
		return cleanPath(e.Path)
	}
	return cleanPath(file)
}

// resolve maps a caller-supplied file (registered name or path, or empty)
// to the document path under the session's routing rules.
func (s *Service) resolve(sess *session.Session, file string, fn func(path string) error) error {
	run := func() error {
		path := cleanPath(sess.ActiveFile())
		if path == "" {
			return fmt.Errorf("journal: no journal file configured: %w", apperr.ErrNotFound)
		}
		return fn(path)
	}
	if file == "" {
		return run()
	}
	return sess.WithOverride(s.documentPath(file), run)
}

// opState is one loaded document and what an operation did to it.
type opState struct {
	path     string
	doc      *outline.Document
	checksum string
	days     map[calendar.Key]struct{}
	created  []calendar.Key
	placed   []placement
}

type placement struct {
	key   calendar.Key
	title string
}

// edit loads the document for file, runs fn on it and persists the outcome.
// ifMatch, when set, must equal the checksum of the stored document.
func (s *Service) edit(ctx context.Context, file, ifMatch string, fn func(sess *session.Session, st *opState) error) (*opState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess := s.NewSession()
	var out *opState
	err := s.resolve(sess, file, func(path string) error {
		unlock := s.lock(path)
		defer unlock()

		st, err := s.load(path)
		if err != nil {
			return err
		}
		if !checksum.Matches(ifMatch, st.checksum) {
			return fmt.Errorf("journal: %s changed since %s: %w", path, ifMatch, apperr.ErrConflict)
		}
		sess.SetActiveFile(path)
		opErr := fn(sess, st)
		// Series refiles are not rolled back, so partial work is still saved.
		if err := s.save(st); err != nil {
			return err
		}
		out = st
		return opErr
	})
	return out, err
}

func (s *Service) load(path string) (*opState, error) {
	data, err := s.store.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("journal: load %s: %w", path, err)
	}
	doc := outline.Parse(string(data), s.grammar)
	st := &opState{
		path:     path,
		doc:      doc,
		checksum: checksum.Sum(data),
		days:     make(map[calendar.Key]struct{}),
	}
	for _, n := range doc.Days() {
		st.days[n.Key] = struct{}{}
	}
	return st, nil
}

func (s *Service) save(st *opState) error {
	if !st.doc.Changed() {
		return nil
	}
	data := []byte(st.doc.String())
	if err := s.store.Write(st.path, data); err != nil {
		return fmt.Errorf("journal: save %s: %w", st.path, err)
	}
	st.doc.MarkClean()
	st.checksum = checksum.Sum(data)
	s.logger.Info("journal: saved", slog.String("path", st.path), slog.String("checksum", st.checksum))

	if s.db != nil {
		if err := index.IndexFile(s.db, s.grammar, st.path, data); err != nil {
			s.logger.Warn("journal: reindex failed", slog.String("path", st.path), slog.String("error", err.Error()))
		}
	}

	var titles []string
	for _, n := range st.doc.Days() {
		if _, ok := st.days[n.Key]; ok {
			continue
		}
		st.days[n.Key] = struct{}{}
		st.created = append(st.created, n.Key)
		titles = append(titles, n.Heading.Title)
	}
	if s.pub == nil {
		return nil
	}
	for i, k := range st.created {
		s.pub.Publish(sse.Event{Type: sse.TypeDayCreated, Data: sse.DayData{Path: st.path, Date: k.String(), Title: titles[i]}})
	}
	for _, p := range st.placed {
		s.pub.Publish(sse.Event{Type: sse.TypeEntryPlaced, Data: sse.DayData{Path: st.path, Date: p.key.String(), Title: p.title}})
	}
	return nil
}
