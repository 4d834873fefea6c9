// Package answers holds a learner's in-progress answers for one attempt.
package answers

import (
	"github.com/google/uuid"
)

// Store maps question ids to the learner's current answer. Values are not
// validated against the question's group type.
type Store struct {
	values map[uuid.UUID]string
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[uuid.UUID]string)}
}

// FromMap builds a store from raw string keys, as held in the attempt's Redis
// hash. Keys that are not question uuids are skipped.
func FromMap(raw map[string]string) *Store {
	s := New()
	for k, v := range raw {
		id, err := uuid.Parse(k)
		if err != nil {
			continue
		}
		s.values[id] = v
	}
	return s
}

// Set overwrites or inserts the answer for a question.
func (s *Store) Set(questionID uuid.UUID, value string) {
	s.values[questionID] = value
}

// Get returns the answer for a question and whether one was ever set.
func (s *Store) Get(questionID uuid.UUID) (string, bool) {
	v, ok := s.values[questionID]
	return v, ok
}

// CountAnswered returns how many questions have a non-empty answer.
func (s *Store) CountAnswered() int {
	n := 0
	for _, v := range s.values {
		if v != "" {
			n++
		}
	}
	return n
}

// Len returns the number of questions that have a value, empty or not.
func (s *Store) Len() int {
	return len(s.values)
}

// Snapshot returns a copy of the captured answers.
func (s *Store) Snapshot() map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Restrict drops answers for questions not in ids, returning how many were dropped.
func (s *Store) Restrict(ids []uuid.UUID) int {
	keep := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	dropped := 0
	for k := range s.values {
		if _, ok := keep[k]; !ok {
			delete(s.values, k)
			dropped++
		}
	}
	return dropped
}
