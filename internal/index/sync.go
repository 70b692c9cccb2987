package index

import (
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/outline"
	"github.com/starford/daybook/internal/storage"
)

// Sync walks the journal and brings the index up to date: new and changed
// files are parsed and upserted, files removed from disk are dropped.
func Sync(db DayIndex, store storage.Provider, grammar *outline.Grammar, logger *slog.Logger) error {
	s := &syncer{db: db, store: store, grammar: grammar, logger: logger, notify: func(string, string) {}}
	return s.reconcile()
}

// IndexFile parses data and upserts its day nodes.
func IndexFile(db DayIndex, grammar *outline.Grammar, path string, data []byte) error {
	doc := outline.Parse(string(data), grammar)
	row := FileRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now().UTC(),
	}
	return db.UpsertFile(row, DayRows(doc, path))
}

// DayRows lists the day nodes of doc as index rows.
func DayRows(doc *outline.Document, path string) []DayRow {
	days := doc.Days()
	out := make([]DayRow, 0, len(days))
	for _, n := range days {
		span, _ := doc.Span(n)
		out = append(out, DayRow{
			Path:    path,
			Date:    n.Key.String(),
			Title:   n.Heading.Title,
			Line:    span.Start + 1,
			Entries: len(n.Children),
		})
	}
	return out
}
