// Package printer renders journal results for the terminal.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/outline"
)

// Printer writes results as coloured text, or as JSON when JSON is set.
type Printer struct {
	Out  io.Writer
	JSON bool
}

// New returns a printer on color.Output.
func New(asJSON bool) *Printer {
	return &Printer{Out: color.Output, JSON: asJSON}
}

var (
	title   = color.New(color.Bold, color.Underline)
	faint   = color.New(color.Faint)
	lineNo  = color.New(color.FgHiYellow, color.Faint)
	levels  = []*color.Color{color.New(color.Bold, color.FgHiBlue), color.New(color.Bold, color.FgBlue), color.New(color.Bold, color.FgCyan)}
	created = color.New(color.FgGreen)
)

func (p *Printer) json(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Out, string(b))
	return err
}

// HandleError prints err as JSON in JSON mode and swallows it; otherwise it
// returns err unchanged.
func (p *Printer) HandleError(err error) error {
	if p.JSON && err != nil {
		return p.json(map[string]string{"error": err.Error()})
	}
	return err
}

// View prints a view with line numbers. Calendar headings are coloured by
// level.
func (p *Printer) View(res *journal.ViewResult) error {
	if p.JSON {
		return p.json(res)
	}
	head := res.From
	if res.To != res.From {
		head += " .. " + res.To
	}
	_, _ = title.Fprintf(p.Out, "%s %s", res.File, head)
	_, _ = faint.Fprintf(p.Out, " (%s)\n", res.Kind)

	width := len(fmt.Sprint(res.End))
	for i, line := range strings.Split(res.Content, "\n") {
		_, _ = lineNo.Fprintf(p.Out, "%*d ", width, res.Start+i)
		if lvl := outline.HeadingLevel(line); lvl >= 1 && lvl <= len(levels) {
			_, _ = levels[lvl-1].Fprintln(p.Out, line)
			continue
		}
		_, _ = fmt.Fprintln(p.Out, line)
	}
	if len(res.Created) > 0 {
		_, _ = created.Fprintf(p.Out, "created %s\n", strings.Join(res.Created, ", "))
	}
	return nil
}

// Refile prints where a subtree went.
func (p *Printer) Refile(res *journal.RefileResult) error {
	if p.JSON {
		return p.json(res)
	}
	verb := "copied"
	if res.Removed {
		verb = "moved"
	}
	_, _ = title.Fprintln(p.Out, res.File)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, d := range res.Placed {
		tbl.AddRow(verb, d)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
	if len(res.Placed) == 0 {
		_, _ = faint.Fprintln(p.Out, "nothing placed")
	}
	return nil
}

// Files prints the journal registry.
func (p *Printer) Files(res *journal.FilesResult) error {
	if p.JSON {
		return p.json(res)
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("", "NAME", "PATH", "UPDATED")
	for _, f := range res.Files {
		mark := " "
		if f.Active {
			mark = "*"
		}
		updated := "missing"
		if f.Exists {
			updated = f.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		tbl.AddRow(mark, f.Name, f.Path, updated)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
	return nil
}

// Days prints indexed day headings.
func (p *Printer) Days(rows []index.DayRow) error {
	if p.JSON {
		return p.json(rows)
	}
	if len(rows) == 0 {
		_, _ = faint.Fprintln(p.Out, "no days")
		return nil
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("DATE", "ENTRIES", "FILE", "LINE", "HEADING")
	for _, d := range rows {
		tbl.AddRow(d.Date, d.Entries, d.Path, d.Line, d.Title)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
	return nil
}
