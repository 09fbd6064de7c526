package notes

import "io"

type cursor[N Timed] struct {
	stream Iterator[N]
	next   N
	time   uint64
}

// Merger lazily merges streams that are each sorted by start time into one
// stream sorted by start time. It holds one pending value per stream.
//
// The stream with the earliest pending value is picked, lowest index first
// on ties. Once picked, a stream keeps emitting for as long as its values
// share the picked time, so a run of equal times from one stream is never
// interleaved with another stream.
type Merger[N Timed] struct {
	streams []Iterator[N]
	cursors []cursor[N]
	started bool

	current     int // cursor being drained, -1 when a scan is needed
	currentTime uint64

	pending error // error pulled while advancing, reported on the next call
	done    bool
}

// Merge creates a Merger. Nothing is read until the first call to Next.
func Merge[N Timed](streams ...Iterator[N]) *Merger[N] {
	return &Merger[N]{streams: streams, current: -1}
}

func (m *Merger[N]) start() error {
	m.started = true
	m.cursors = make([]cursor[N], 0, len(m.streams))
	for _, s := range m.streams {
		first, err := s.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return err
		}
		m.cursors = append(m.cursors, cursor[N]{stream: s, next: first, time: first.Start()})
	}
	m.streams = nil
	return nil
}

func (m *Merger[N]) fail(err error) (N, error) {
	var zero N
	m.done = true
	m.cursors = nil
	return zero, err
}

// Next returns the next value in start order, io.EOF when every stream is
// exhausted, or the first error any stream produced. After an error Next
// returns io.EOF.
func (m *Merger[N]) Next() (N, error) {
	var zero N
	if m.done {
		return zero, io.EOF
	}
	if m.pending != nil {
		err := m.pending
		m.pending = nil
		return m.fail(err)
	}
	if !m.started {
		if err := m.start(); err != nil {
			return m.fail(err)
		}
	}

	if m.current < 0 {
		if len(m.cursors) == 0 {
			m.done = true
			return zero, io.EOF
		}
		m.current = 0
		m.currentTime = m.cursors[0].time
		for i := 1; i < len(m.cursors); i++ {
			if m.cursors[i].time < m.currentTime {
				m.current = i
				m.currentTime = m.cursors[i].time
			}
		}
	}

	c := &m.cursors[m.current]
	out := c.next
	next, err := c.stream.Next()
	switch {
	case err == io.EOF:
		m.cursors = append(m.cursors[:m.current], m.cursors[m.current+1:]...)
		m.current = -1
	case err != nil:
		m.pending = err
	default:
		c.next = next
		c.time = next.Start()
		if c.time != m.currentTime {
			m.current = -1
		}
	}
	return out, nil
}

// Live returns the number of streams still holding values
func (m *Merger[N]) Live() int {
	if !m.started {
		return len(m.streams)
	}
	return len(m.cursors)
}
