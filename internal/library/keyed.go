package library

import "github.com/mrlokans/bookshelf/internal/entities"

// keyedSet is an insertion-ordered map from identity key to record. A key keeps
// the position of its first insertion when its record is replaced.
type keyedSet struct {
	order   []string
	records map[string]entities.BookRecord
}

func newKeyedSet(capacity int) *keyedSet {
	return &keyedSet{
		order:   make([]string, 0, capacity),
		records: make(map[string]entities.BookRecord, capacity),
	}
}

func (s *keyedSet) get(key string) (entities.BookRecord, bool) {
	r, ok := s.records[key]
	return r, ok
}

func (s *keyedSet) put(key string, r entities.BookRecord) {
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = r
}

func (s *keyedSet) len() int {
	return len(s.order)
}

// values returns the records in insertion order.
func (s *keyedSet) values() []entities.BookRecord {
	out := make([]entities.BookRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key])
	}
	return out
}
