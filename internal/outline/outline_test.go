package outline

import (
	"strings"
	"testing"

	"github.com/starford/daybook/internal/calendar"
)

const sample = `#+TITLE: Journal
intro line
* 2025 :journal:
** 2025-07 July
*** 2025-07-28 Monday
morning notes
**** TODO [#A] call bank :errand:
details
*** 2025-07-30 Wednesday
** 2025-08 August
* Inbox
** 2025-07 not a month
*** idea
`

func TestParse_RoundTrip(t *testing.T) {
	for _, in := range []string{sample, "", "no headings\nat all", "* a\n** b\n*** c", "*bold* text\n* h\n"} {
		d := Parse(in, nil)
		if got := d.String(); got != in {
			t.Errorf("round trip mismatch:\n got %q\nwant %q", got, in)
		}
	}
}

func TestParse_Structure(t *testing.T) {
	d := Parse(sample, nil)
	if len(d.Preamble) != 2 {
		t.Fatalf("preamble = %v", d.Preamble)
	}
	if len(d.Roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(d.Roots))
	}
	year := d.Roots[0]
	if year.Kind != KindYear || year.Key != calendar.YearKey(2025) {
		t.Errorf("year kind=%v key=%v", year.Kind, year.Key)
	}
	if len(year.Heading.Tags) != 1 || year.Heading.Tags[0] != "journal" {
		t.Errorf("year tags = %v", year.Heading.Tags)
	}
	july := year.Children[0]
	if july.Kind != KindMonth || july.Key != calendar.MonthKey(2025, 7) {
		t.Errorf("month kind=%v key=%v", july.Kind, july.Key)
	}
	if len(july.Children) != 2 {
		t.Fatalf("days = %d, want 2", len(july.Children))
	}
	day := july.Children[0]
	if day.Kind != KindDay || day.Key.String() != "2025-07-28" {
		t.Errorf("day kind=%v key=%v", day.Kind, day.Key)
	}
	if len(day.Body) != 1 || day.Body[0] != "morning notes" {
		t.Errorf("day body = %v", day.Body)
	}
	task := day.Children[0]
	if task.Kind != KindContent {
		t.Errorf("task kind = %v", task.Kind)
	}
	if task.Heading.Keyword != "TODO" || task.Heading.Priority != "A" || task.Heading.Title != "call bank" {
		t.Errorf("task heading = %+v", task.Heading)
	}
	if task.EnclosingDay() != day {
		t.Error("task should be enclosed by its day")
	}

	inbox := d.Roots[1]
	if inbox.Kind != KindContent || inbox.Children[0].Kind != KindContent {
		t.Error("headings under a non-year root must be content")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		want []Kind
	}{
		{"* 2025\n", []Kind{KindYear}},
		{"* TODO 2025\n", []Kind{KindYear}},
		{"* 2025 Journal\n", []Kind{KindContent}},
		{"* 2025\n** 2025-07\n", []Kind{KindYear, KindMonth}},
		{"* 2025\n** 2024-07 July\n", []Kind{KindYear, KindContent}},
		{"* 2025\n** 2025-07-01\n", []Kind{KindYear, KindContent}},
		{"* 2025\n*** 2025-07-01\n", []Kind{KindYear, KindContent}},
		{"* 2025\n** 2025-07 July\n*** 2025-07-01 Tuesday\n", []Kind{KindYear, KindMonth, KindDay}},
		{"* 2025\n** 2025-07 July\n*** 2025-08-01 Friday\n", []Kind{KindYear, KindMonth, KindContent}},
		{"* 2025\n** 2025-02 February\n*** 2025-02-30\n", []Kind{KindYear, KindMonth, KindContent}},
		{"* 2025\n** 2025-07 July\n*** [#B] 2025-07-01 :x:\n", []Kind{KindYear, KindMonth, KindDay}},
	}
	for _, c := range cases {
		d := Parse(c.text, nil)
		var got []Kind
		d.Walk(func(n *Node) bool {
			got = append(got, n.Kind)
			return true
		})
		if len(got) != len(c.want) {
			t.Errorf("%q: kinds = %v, want %v", c.text, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("%q: kinds = %v, want %v", c.text, got, c.want)
				break
			}
		}
	}
}

func TestParseHeading_CustomKeywords(t *testing.T) {
	g := NewGrammar([]string{"LATER"})
	h, ok := g.ParseHeading("** LATER TODO thing")
	if !ok {
		t.Fatal("expected heading")
	}
	if h.Keyword != "LATER" || h.Title != "TODO thing" {
		t.Errorf("heading = %+v", h)
	}
	if _, ok := g.ParseHeading("**not a heading"); ok {
		t.Error("stars without a space are not a heading")
	}
}

func TestSpanAndNodeAt(t *testing.T) {
	d := Parse(sample, nil)
	lines := d.Lines()
	july := d.Roots[0].Children[0]
	first := july.Children[0]

	s, ok := d.Span(first)
	if !ok {
		t.Fatal("span not found")
	}
	if lines[s.Start] != "*** 2025-07-28 Monday" {
		t.Errorf("span start line = %q", lines[s.Start])
	}
	if lines[s.End] != "*** 2025-07-30 Wednesday" {
		t.Errorf("span end line = %q", lines[s.End])
	}
	if s.Len() != 4 {
		t.Errorf("span len = %d, want 4", s.Len())
	}

	if n := d.NodeAt(0); n != nil {
		t.Errorf("preamble line resolved to %q", n.Line)
	}
	if n := d.NodeAt(s.Start + 3); n == nil || n.Heading.Title != "call bank" {
		t.Errorf("NodeAt body line = %v", n)
	}
	if n := d.NodeAt(len(lines)); n != nil {
		t.Error("out of range line should resolve to nil")
	}
}

func TestCloneRelevelDetach(t *testing.T) {
	d := Parse(sample, nil)
	inbox := d.Roots[1]

	c := inbox.Clone()
	c.Relevel(4)
	want := "**** Inbox\n***** 2025-07 not a month\n****** idea\n"
	if got := c.Text(); got != want {
		t.Errorf("relevelled clone:\n got %q\nwant %q", got, want)
	}
	if inbox.Line != "* Inbox" {
		t.Error("clone must not alias the original")
	}

	if err := d.Detach(inbox); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if len(d.Roots) != 1 || !d.Changed() {
		t.Error("detach should remove the root and mark the document changed")
	}
	if err := d.Detach(inbox); err == nil {
		t.Error("detaching twice should fail")
	}
	if strings.Contains(d.String(), "Inbox") {
		t.Error("rendered document still contains detached node")
	}
}

func TestInsertReclassifies(t *testing.T) {
	d := Parse("* 2025\n", nil)
	month := d.NewNode(2, "2025-03 March")
	d.Append(d.Roots[0], month)
	if month.Kind != KindMonth {
		t.Errorf("inserted month kind = %v", month.Kind)
	}
	if got := d.String(); got != "* 2025\n** 2025-03 March\n" {
		t.Errorf("document = %q", got)
	}
}

func TestRevealAndFold(t *testing.T) {
	d := Parse(sample, nil)
	year := d.Roots[0]
	year.Fold()
	day := year.Children[0].Children[0]
	day.Reveal()
	day.UnfoldAncestors()
	if year.Folded || year.Children[0].Folded || day.Folded || day.Children[0].Folded {
		t.Error("reveal should unfold the day, its subtree and its ancestors")
	}
	if !year.Children[0].Children[1].Folded {
		t.Error("sibling day should stay folded")
	}
}
