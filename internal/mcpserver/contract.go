package mcpserver

// FormatContract describes how daybook lays out the date tree inside a
// journal document. Tools that take a line number count from 1.
const FormatContract = `# Daybook Journal Format

A journal is an outline document. Headings start with one or more ` + "`*`" + `
followed by a space; the number of stars is the level. Text before the first
heading is the preamble and is never touched.

## Date tree

` + "```" + `org
* 2025
** 2025-07 July
*** 2025-07-29 Tuesday
**** TODO call the bank                :finance:
     body text of the entry
*** 2025-07-30 Wednesday
` + "```" + `

1. **Year** headings are level 1 and their title is exactly the 4-digit year.
2. **Month** headings are level 2, directly under their year, and start with ` + "`YYYY-MM`" + `.
3. **Day** headings are level 3, directly under their month, and start with a real
   ` + "`YYYY-MM-DD`" + ` date in that month. Anything after the date is free text.
4. Calendar siblings are kept in ascending order. New ones are inserted in place;
   other headings between them are left where they are.
5. Entries live at level 4 and deeper under a day. Refiled entries are appended
   after the day's existing children and re-levelled to fit.
6. Optional heading tokens are a TODO keyword (` + "`TODO NEXT WAITING DONE CANCELLED`" + `
   by default), a priority cookie such as ` + "`[#A]`" + ` and trailing tags ` + "`:a:b:`" + `.

## Refiling

- Calendar headings (year, month, day) can never be refiled.
- ` + "`period`" + ` is ` + "`[+-]N`" + ` followed by ` + "`d`" + ` (days), ` + "`w`" + ` (weeks), ` + "`m`" + ` (months) or ` + "`y`" + ` (years).
  Month and year steps roll over: 2025-01-31 plus one month is 2025-03-03.
- A series ends at ` + "`until`" + ` (inclusive) or after ` + "`count`" + ` placements. If the first date
  is the day that already holds the entry, the series starts one period later.
- Placements are not rolled back when a later one fails.

## Dates

All dates are ISO ` + "`YYYY-MM-DD`" + ` and must exist on the calendar (2025-02-30 is rejected).
`
