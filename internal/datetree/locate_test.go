package datetree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/outline"
)

func day(t *testing.T, s string) calendar.Key {
	t.Helper()
	k, err := calendar.Parse(s)
	require.NoError(t, err)
	return k
}

func countNodes(doc *outline.Document) int {
	n := 0
	doc.Walk(func(*outline.Node) bool {
		n++
		return true
	})
	return n
}

func TestLocateOrCreate_EmptyDocument(t *testing.T) {
	doc := outline.Parse("", nil)
	n, err := LocateOrCreate(doc, day(t, "2025-07-29"))
	require.NoError(t, err)

	assert.Equal(t, 3, countNodes(doc))
	assert.Equal(t, outline.KindDay, n.Kind)
	assert.Equal(t, outline.KindMonth, n.Parent().Kind)
	assert.Equal(t, outline.KindYear, n.Parent().Parent().Kind)
	assert.Equal(t, "* 2025\n** 2025-07 July\n*** 2025-07-29 Tuesday\n", doc.String())
}

func TestLocateOrCreate_Idempotent(t *testing.T) {
	doc := outline.Parse("", nil)
	k := day(t, "2025-07-29")
	first, err := LocateOrCreate(doc, k)
	require.NoError(t, err)
	before := doc.String()

	second, created, err := Locate(doc, k)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.False(t, created)
	assert.Equal(t, before, doc.String())
	assert.Equal(t, 3, countNodes(doc))
}

func TestLocateOrCreate_InsertsInOrder(t *testing.T) {
	doc := outline.Parse(`* 2025
** 2025-07 July
*** 2025-07-01 Tuesday
*** 2025-07-20 Sunday
** 2025-09 September
`, nil)
	_, err := LocateOrCreate(doc, day(t, "2025-07-10"))
	require.NoError(t, err)
	_, err = LocateOrCreate(doc, day(t, "2025-08-05"))
	require.NoError(t, err)
	_, err = LocateOrCreate(doc, day(t, "2025-07-31"))
	require.NoError(t, err)
	_, err = LocateOrCreate(doc, day(t, "2024-12-31"))
	require.NoError(t, err)

	assert.Equal(t, `* 2024
** 2024-12 December
*** 2024-12-31 Tuesday
* 2025
** 2025-07 July
*** 2025-07-01 Tuesday
*** 2025-07-10 Thursday
*** 2025-07-20 Sunday
*** 2025-07-31 Thursday
** 2025-08 August
*** 2025-08-05 Tuesday
** 2025-09 September
`, doc.String())
}

func TestLocateOrCreate_KeepsContentSiblings(t *testing.T) {
	doc := outline.Parse(`#+TITLE: log
* Inbox
* 2026
`, nil)
	_, err := LocateOrCreate(doc, day(t, "2025-01-02"))
	require.NoError(t, err)
	_, err = LocateOrCreate(doc, day(t, "2027-01-02"))
	require.NoError(t, err)

	var roots []string
	for _, r := range doc.Roots {
		roots = append(roots, r.Line)
	}
	assert.Equal(t, []string{"* Inbox", "* 2025", "* 2026", "* 2027"}, roots)
}

func TestLocateOrCreate_OrderingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	doc := outline.Parse("", nil)
	start := day(t, "2024-11-15")
	for i := 0; i < 300; i++ {
		k := calendar.AddDays(start, rng.Intn(120))
		_, err := LocateOrCreate(doc, k)
		require.NoError(t, err)
	}

	var check func(nodes []*outline.Node)
	check = func(nodes []*outline.Node) {
		var prev *outline.Node
		for _, n := range nodes {
			require.True(t, n.IsCalendar())
			if prev != nil {
				assert.True(t, prev.Key.Before(n.Key), "%s should sort before %s", prev.Key, n.Key)
			}
			prev = n
			check(n.Children)
		}
	}
	check(doc.Roots)
}

func TestLocate_InvalidKey(t *testing.T) {
	doc := outline.Parse("", nil)
	_, err := LocateOrCreate(doc, calendar.DayKey(2025, 2, 30))
	assert.ErrorIs(t, err, apperr.ErrInvalidDateFormat)
	assert.Empty(t, doc.Roots)
}

func TestLocate_MonthAndYearKeys(t *testing.T) {
	doc := outline.Parse("", nil)
	m, err := LocateOrCreate(doc, calendar.MonthKey(2025, 2))
	require.NoError(t, err)
	assert.Equal(t, "** 2025-02 February", m.Line)
	y, err := LocateOrCreate(doc, calendar.YearKey(2025))
	require.NoError(t, err)
	assert.Same(t, y, m.Parent())
}
