// Package notes assembles notes from decoded tracks and merges
// time-ordered note streams.
package notes

import (
	"errors"
	"io"
)

// Timed is anything with a start tick
type Timed interface {
	Start() uint64
}

// Iterator yields values until it returns io.EOF
type Iterator[N any] interface {
	Next() (N, error)
}

// Note is a key held from Time for Length ticks
type Note struct {
	Time     uint64 `json:"time"`
	Length   uint64 `json:"length"`
	Track    int    `json:"track"`
	Channel  uint8  `json:"channel"`
	Key      uint8  `json:"key"`
	Velocity uint8  `json:"velocity"`
}

// Start returns the absolute start tick
func (n Note) Start() uint64 { return n.Time }

// End returns the absolute tick the note is released at
func (n Note) End() uint64 { return n.Time + n.Length }

// SliceIterator iterates over an in-memory slice
type SliceIterator[N any] struct {
	items []N
}

// FromSlice wraps items in an Iterator
func FromSlice[N any](items []N) *SliceIterator[N] {
	return &SliceIterator[N]{items: items}
}

func (s *SliceIterator[N]) Next() (N, error) {
	var zero N
	if len(s.items) == 0 {
		return zero, io.EOF
	}
	n := s.items[0]
	s.items = s.items[1:]
	return n, nil
}

// Collect drains it. limit <= 0 means no limit. The values read before an
// error are returned with it.
func Collect[N any](it Iterator[N], limit int) ([]N, error) {
	var out []N
	for limit <= 0 || len(out) < limit {
		n, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, n)
	}
	return out, nil
}
