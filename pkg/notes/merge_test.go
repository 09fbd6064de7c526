package notes

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"testing"
)

type item struct {
	t      uint64
	stream int
	idx    int
}

func (i item) Start() uint64 { return i.t }

func (i item) String() string { return fmt.Sprintf("s%d@%d", i.stream, i.t) }

// stream yields the given times then err (io.EOF when nil), counting pulls
type stream struct {
	id    int
	times []uint64
	err   error
	pos   int
	pulls int
}

func newStream(id int, times ...uint64) *stream {
	return &stream{id: id, times: times}
}

func (s *stream) Next() (item, error) {
	s.pulls++
	if s.pos < len(s.times) {
		it := item{t: s.times[s.pos], stream: s.id, idx: s.pos}
		s.pos++
		return it, nil
	}
	if s.err != nil {
		return item{}, s.err
	}
	return item{}, io.EOF
}

func mergeStreams(t *testing.T, streams ...*stream) []item {
	t.Helper()
	its := make([]Iterator[item], len(streams))
	for i, s := range streams {
		its[i] = s
	}
	out, err := Collect[item](Merge(its...), 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return out
}

func order(items []item) string {
	s := ""
	for i, it := range items {
		if i > 0 {
			s += " "
		}
		s += it.String()
	}
	return s
}

func TestMergeOrder(t *testing.T) {
	tests := []struct {
		name    string
		streams [][]uint64
		want    string
	}{
		{
			name:    "three streams",
			streams: [][]uint64{{0, 5}, {0, 3}, {2}},
			want:    "s0@0 s1@0 s2@2 s1@3 s0@5",
		},
		{
			name:    "run drained before rescan",
			streams: [][]uint64{{1, 1, 1, 4}, {1, 2}},
			want:    "s0@1 s0@1 s0@1 s1@1 s1@2 s0@4",
		},
		{
			name:    "ties across three streams",
			streams: [][]uint64{{0, 2, 2}, {2, 2}, {2}},
			want:    "s0@0 s0@2 s0@2 s1@2 s1@2 s2@2",
		},
		{
			name:    "later stream reaches a tie first",
			streams: [][]uint64{{3}, {1, 3, 3}},
			want:    "s1@1 s0@3 s1@3 s1@3",
		},
		{
			name:    "empty streams skipped",
			streams: [][]uint64{{}, {4}, {}, {1, 9}},
			want:    "s3@1 s1@4 s3@9",
		},
		{
			name:    "single stream",
			streams: [][]uint64{{1, 1, 2, 3}},
			want:    "s0@1 s0@1 s0@2 s0@3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var streams []*stream
			for i, times := range tt.streams {
				streams = append(streams, newStream(i, times...))
			}
			if got := order(mergeStreams(t, streams...)); got != tt.want {
				t.Errorf("merge order = %s\nwant          %s", got, tt.want)
			}
		})
	}
}

func TestMergeEmpty(t *testing.T) {
	m := Merge[item]()
	if _, err := m.Next(); err != io.EOF {
		t.Errorf("Next() on no streams = %v, want io.EOF", err)
	}

	m = Merge[item](newStream(0), newStream(1))
	if _, err := m.Next(); err != io.EOF {
		t.Errorf("Next() on empty streams = %v, want io.EOF", err)
	}
	if _, err := m.Next(); err != io.EOF {
		t.Errorf("second Next() = %v, want io.EOF", err)
	}
}

func TestMergeErrorMidStream(t *testing.T) {
	boom := errors.New("boom")
	a := newStream(0, 0)
	a.err = boom
	b := newStream(1, 1, 2)
	m := Merge[item](a, b)

	first, err := m.Next()
	if err != nil || first.stream != 0 {
		t.Fatalf("first Next() = %v, %v", first, err)
	}
	if _, err := m.Next(); !errors.Is(err, boom) {
		t.Fatalf("second Next() error = %v, want boom", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := m.Next(); err != io.EOF {
			t.Errorf("Next() after error = %v, want io.EOF", err)
		}
	}
	if b.pulls != 1 {
		t.Errorf("stream b pulled %d times, want 1", b.pulls)
	}
}

func TestMergeErrorOnFirstPull(t *testing.T) {
	boom := errors.New("boom")
	a := newStream(0, 3)
	b := newStream(1)
	b.err = boom
	c := newStream(2, 1)

	m := Merge[item](a, b, c)
	if _, err := m.Next(); !errors.Is(err, boom) {
		t.Fatalf("Next() error = %v, want boom", err)
	}
	if c.pulls != 0 {
		t.Errorf("stream after the failing one pulled %d times, want 0", c.pulls)
	}
	if _, err := m.Next(); err != io.EOF {
		t.Errorf("Next() after error = %v, want io.EOF", err)
	}
}

func TestMergeIsLazy(t *testing.T) {
	a := newStream(0, 0, 1, 2, 3, 4, 5)
	b := newStream(1, 0, 10, 20)
	m := Merge[item](a, b)

	if a.pulls != 0 || b.pulls != 0 {
		t.Fatal("Merge() should not read before Next()")
	}
	if m.Live() != 2 {
		t.Errorf("Live() = %d, want 2", m.Live())
	}
	if _, err := m.Next(); err != nil {
		t.Fatal(err)
	}
	// one value held per stream plus the advance of the emitting stream
	if a.pulls != 2 || b.pulls != 1 {
		t.Errorf("pulls after one value: a=%d b=%d, want 2 and 1", a.pulls, b.pulls)
	}
}

func TestMergeRandomStreams(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		k := rng.Intn(6)
		var streams []*stream
		var all []item
		for i := 0; i < k; i++ {
			n := rng.Intn(8)
			times := make([]uint64, n)
			for j := range times {
				times[j] = uint64(rng.Intn(10))
			}
			sort.Slice(times, func(a, b int) bool { return times[a] < times[b] })
			for j, tm := range times {
				all = append(all, item{t: tm, stream: i, idx: j})
			}
			streams = append(streams, newStream(i, times...))
		}

		got := mergeStreams(t, streams...)
		if len(got) != len(all) {
			t.Fatalf("round %d: merged %d values, want %d", round, len(got), len(all))
		}
		seen := make(map[item]bool)
		for i, it := range got {
			if i > 0 && it.t < got[i-1].t {
				t.Fatalf("round %d: output not sorted: %s", round, order(got))
			}
			seen[it] = true
		}
		for _, it := range all {
			if !seen[it] {
				t.Fatalf("round %d: value %v missing from output", round, it)
			}
		}
		// values of one stream keep their relative order
		last := map[int]int{}
		for _, it := range got {
			if prev, ok := last[it.stream]; ok && it.idx < prev {
				t.Fatalf("round %d: stream %d reordered", round, it.stream)
			}
			last[it.stream] = it.idx
		}
	}
}
