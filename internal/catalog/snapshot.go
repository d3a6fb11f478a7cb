package catalog

import "github.com/seslikitap/seslikitap-server/internal/domain"

// Snapshot is an immutable view of the merged catalog. Consumers hold the
// pointer they were given; a new merge produces a new snapshot with a higher
// version, never a mutation of an old one.
type Snapshot struct {
	version int64
	books   []domain.Book
	index   map[string]int
}

func newSnapshot(version int64, books []domain.Book) *Snapshot {
	index := make(map[string]int, len(books))
	for i, b := range books {
		index[b.ID] = i
	}
	return &Snapshot{version: version, books: books, index: index}
}

// Version is the monotonically increasing merge counter.
func (s *Snapshot) Version() int64 {
	return s.version
}

// Len returns the number of books in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.books)
}

// Books returns a copy of the catalog in merge order.
func (s *Snapshot) Books() []domain.Book {
	out := make([]domain.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Get looks a book up by id.
func (s *Snapshot) Get(id string) (domain.Book, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Book{}, false
	}
	return s.books[i], true
}
