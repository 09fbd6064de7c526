package notes

import (
	"io"

	"github.com/james-see/midistream/pkg/events"
)

// EventSource is satisfied by *parser.Parser
type EventSource = Iterator[events.Delta]

type pendingNote struct {
	note   Note
	closed bool
}

// Assembler pairs NoteOn and NoteOff events of one track into notes and
// yields them in start order. Overlapping notes on the same channel and
// key are released first in, first out. A note is held back until every
// note that started before it has been released, so memory grows with
// the number of overlapping notes, not with the track.
type Assembler struct {
	src   EventSource
	track int
	now   uint64

	queue []*pendingNote
	open  map[uint16][]*pendingNote

	srcDone bool
	done    bool
}

// Assemble creates an Assembler reading events from src
func Assemble(track int, src EventSource) *Assembler {
	return &Assembler{
		src:   src,
		track: track,
		open:  make(map[uint16][]*pendingNote),
	}
}

// Next returns the next note, io.EOF at the end of the track, or the first
// error from the event source. Notes still held when the track ends are
// released at the last event's tick.
func (a *Assembler) Next() (Note, error) {
	for {
		if a.done {
			return Note{}, io.EOF
		}
		if len(a.queue) > 0 && a.queue[0].closed {
			n := a.queue[0].note
			a.queue[0] = nil
			a.queue = a.queue[1:]
			return n, nil
		}
		if a.srcDone {
			if len(a.queue) == 0 {
				a.done = true
				continue
			}
			for _, p := range a.queue {
				if !p.closed {
					p.note.Length = a.now - p.note.Time
					p.closed = true
				}
			}
			clear(a.open)
			continue
		}

		ev, err := a.src.Next()
		if err == io.EOF {
			a.srcDone = true
			continue
		}
		if err != nil {
			a.done = true
			a.queue = nil
			return Note{}, err
		}
		a.now += ev.Ticks

		switch e := ev.Event.(type) {
		case events.NoteOn:
			p := &pendingNote{note: Note{
				Time:     a.now,
				Track:    a.track,
				Channel:  e.Channel,
				Key:      e.Key,
				Velocity: e.Velocity,
			}}
			k := noteKey(e.Channel, e.Key)
			a.queue = append(a.queue, p)
			a.open[k] = append(a.open[k], p)
		case events.NoteOff:
			k := noteKey(e.Channel, e.Key)
			held := a.open[k]
			if len(held) == 0 {
				continue
			}
			p := held[0]
			if len(held) == 1 {
				delete(a.open, k)
			} else {
				a.open[k] = held[1:]
			}
			p.note.Length = a.now - p.note.Time
			p.closed = true
		}
	}
}

// Now returns the absolute tick of the last event read
func (a *Assembler) Now() uint64 {
	return a.now
}

func noteKey(channel, key uint8) uint16 {
	return uint16(channel)<<8 | uint16(key)
}
