package archive

// Store defines the export archive operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Store interface {
	Record(r Record) (int64, error)
	Get(id int64) (*Record, error)
	ByVersion(version string) ([]Record, error)
	List(limit, offset int) ([]Record, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
