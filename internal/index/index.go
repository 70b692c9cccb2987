package index

// DayIndex defines the interface for day index operations. Consumers should
// depend on this interface rather than the concrete *DB type.
type DayIndex interface {
	UpsertFile(f FileRow, days []DayRow) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	Days(q DayQuery) ([]DayRow, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DayIndex at compile time.
var _ DayIndex = (*DB)(nil)
