package analytics

import (
	"errors"
	"fmt"
	"sort"

	"bodycomp/internal/measurement"
)

// NotFoundError is returned when a selection names a record that is not in
// the set.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("measurement %q not found", e.ID)
}

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Selection is the (current, previous) pair the summary cards compare.
// Previous is nil when Current is the oldest record; Current is nil only for
// an empty record set.
type Selection struct {
	Current  *measurement.Record
	Previous *measurement.Record
	// Index of Current in descending order, -1 when Current is nil.
	Index int
}

type datedRecord struct {
	rec    measurement.Record
	at     int64
	parsed bool
}

// SortDescending orders records most recent first. Records whose exam date
// cannot be parsed keep their relative order after all dated records.
func SortDescending(records []measurement.Record) []measurement.Record {
	dated := make([]datedRecord, len(records))
	for i, rec := range records {
		t, ok := rec.ExamTime()
		dated[i] = datedRecord{rec: rec, parsed: ok}
		if ok {
			dated[i].at = t.UnixNano()
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		a, b := dated[i], dated[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if !a.parsed {
			return false
		}
		return a.at > b.at
	})
	out := make([]measurement.Record, len(dated))
	for i, d := range dated {
		out[i] = d.rec
	}
	return out
}

// SortAscending is the exact reverse of SortDescending, oldest first.
func SortAscending(records []measurement.Record) []measurement.Record {
	out := SortDescending(records)
	reverse(out)
	return out
}

func reverse(records []measurement.Record) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}

// SelectCurrentAndPrevious resolves the selected record and its predecessor.
// An empty selectedID picks the most recent record.
func SelectCurrentAndPrevious(records []measurement.Record, selectedID string) (Selection, error) {
	sorted := SortDescending(records)
	idx := -1
	switch {
	case selectedID == "":
		if len(sorted) > 0 {
			idx = 0
		}
	default:
		for i := range sorted {
			if sorted[i].ID == selectedID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Selection{Index: -1}, &NotFoundError{ID: selectedID}
		}
	}
	if idx < 0 {
		return Selection{Index: -1}, nil
	}
	sel := Selection{Current: &sorted[idx], Index: idx}
	if idx+1 < len(sorted) {
		sel.Previous = &sorted[idx+1]
	}
	return sel, nil
}
