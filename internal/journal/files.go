package journal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/index"
)

// FileItem is one journal document known to the service.
type FileItem struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	Active    bool      `json:"active"`
	Checksum  string    `json:"checksum,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// FilesResult lists the registry and the document operations default to.
type FilesResult struct {
	Active string     `json:"active"`
	Files  []FileItem `json:"files"`
}

// Files lists registered documents, or the default document in single-file
// mode.
func (s *Service) Files(ctx context.Context) (*FilesResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	active := cleanPath(s.NewSession().ActiveFile())
	res := &FilesResult{Active: active, Files: []FileItem{}}
	var statErr error
	add := func(name, path string) {
		path = cleanPath(path)
		item := FileItem{Name: name, Path: path, Active: path == active}
		m, err := s.store.Stat(path)
		switch {
		case err == nil:
			item.Exists = true
			item.Checksum = m.Checksum
			item.UpdatedAt = m.UpdatedAt
		case !errors.Is(err, fs.ErrNotExist) && statErr == nil:
			statErr = err
		}
		res.Files = append(res.Files, item)
	}
	if len(s.registry) == 0 {
		if s.defaultFile != "" {
			add("default", s.defaultFile)
		}
	}
	for _, e := range s.registry {
		add(e.Name, e.Path)
	}
	if statErr != nil {
		return nil, fmt.Errorf("journal: files: %w", statErr)
	}
	return res, nil
}

// DaysQuery filters indexed days. File accepts a registered name or a path.
type DaysQuery struct {
	File string
	From string
	To   string
}

// Days returns indexed day nodes.
func (s *Service) Days(ctx context.Context, q DaysQuery) ([]index.DayRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, fmt.Errorf("journal: days: no index: %w", apperr.ErrNotFound)
	}
	var from, to calendar.Key
	var err error
	if q.From != "" {
		if from, err = calendar.Parse(q.From); err != nil {
			return nil, fmt.Errorf("journal: days: %w", err)
		}
	}
	if q.To != "" {
		if to, err = calendar.Parse(q.To); err != nil {
			return nil, fmt.Errorf("journal: days: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, fmt.Errorf("journal: days %s..%s: %w", from, to, apperr.ErrRangeOrder)
	}
	rows, err := s.db.Days(index.DayQuery{Path: s.documentPath(q.File), From: q.From, To: q.To})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []index.DayRow{}
	}
	return rows, nil
}

// Reindex brings the day index up to date with the journal directory.
func (s *Service) Reindex(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db == nil {
		return nil
	}
	return index.Sync(s.db, s.store, s.grammar, s.logger)
}
