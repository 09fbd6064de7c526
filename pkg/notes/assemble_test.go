package notes

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/james-see/midistream/pkg/events"
)

type eventList struct {
	evs []events.Delta
	err error
}

func (e *eventList) Next() (events.Delta, error) {
	if len(e.evs) == 0 {
		if e.err != nil {
			return events.Delta{}, e.err
		}
		return events.Delta{}, io.EOF
	}
	ev := e.evs[0]
	e.evs = e.evs[1:]
	return ev, nil
}

func on(delta uint64, key, vel uint8) events.Delta {
	return events.Delta{Ticks: delta, Event: events.NoteOn{Channel: 0, Key: key, Velocity: vel}}
}

func off(delta uint64, key uint8) events.Delta {
	return events.Delta{Ticks: delta, Event: events.NoteOff{Channel: 0, Key: key}}
}

func TestAssemble(t *testing.T) {
	src := &eventList{evs: []events.Delta{
		{Ticks: 0, Event: events.Tempo{MicrosecondsPerQuarter: 500000}},
		on(0, 60, 100),
		on(10, 64, 90),
		off(5, 64),
		off(5, 60),
		{Ticks: 3, Event: events.ControlChange{Controller: 64, Value: 127}},
		on(2, 67, 80),
		off(10, 67),
	}}

	got, err := Collect[Note](Assemble(2, src), 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []Note{
		{Time: 0, Length: 20, Track: 2, Key: 60, Velocity: 100},
		{Time: 10, Length: 5, Track: 2, Key: 64, Velocity: 90},
		{Time: 25, Length: 10, Track: 2, Key: 67, Velocity: 80},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("notes = %+v\nwant %+v", got, want)
	}
}

func TestAssembleOverlappingSameKey(t *testing.T) {
	src := &eventList{evs: []events.Delta{
		on(0, 60, 10),
		on(4, 60, 20),
		off(4, 60), // releases the first note
		off(4, 60),
	}}

	got, err := Collect[Note](Assemble(0, src), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d notes, want 2", len(got))
	}
	if got[0].Velocity != 10 || got[0].Length != 8 {
		t.Errorf("first note = %+v, want velocity 10 length 8", got[0])
	}
	if got[1].Velocity != 20 || got[1].Time != 4 || got[1].Length != 8 {
		t.Errorf("second note = %+v, want velocity 20 at 4 length 8", got[1])
	}
}

func TestAssembleChannelsAreSeparate(t *testing.T) {
	src := &eventList{evs: []events.Delta{
		{Ticks: 0, Event: events.NoteOn{Channel: 1, Key: 60, Velocity: 1}},
		{Ticks: 0, Event: events.NoteOn{Channel: 2, Key: 60, Velocity: 2}},
		{Ticks: 6, Event: events.NoteOff{Channel: 2, Key: 60}},
		{Ticks: 6, Event: events.NoteOff{Channel: 1, Key: 60}},
	}}

	got, err := Collect[Note](Assemble(0, src), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Channel != 1 || got[0].Length != 12 || got[1].Channel != 2 || got[1].Length != 6 {
		t.Errorf("notes = %+v", got)
	}
}

func TestAssembleUnterminatedNotes(t *testing.T) {
	src := &eventList{evs: []events.Delta{
		on(0, 60, 100),
		on(5, 62, 100),
		off(5, 62),
		off(3, 70), // no matching note on
		{Ticks: 7, Event: events.Text{TextKind: events.TextMarker, Bytes: []byte("end")}},
	}}

	got, err := Collect[Note](Assemble(0, src), 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []Note{
		{Time: 0, Length: 20, Key: 60, Velocity: 100},
		{Time: 5, Length: 5, Key: 62, Velocity: 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("notes = %+v\nwant %+v", got, want)
	}
}

func TestAssembleSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := &eventList{evs: []events.Delta{on(0, 60, 1), off(1, 60), on(1, 61, 1)}, err: boom}
	a := Assemble(0, src)

	n, err := a.Next()
	if err != nil || n.Key != 60 {
		t.Fatalf("first Next() = %+v, %v", n, err)
	}
	if _, err := a.Next(); !errors.Is(err, boom) {
		t.Fatalf("Next() error = %v, want boom", err)
	}
	if _, err := a.Next(); err != io.EOF {
		t.Errorf("Next() after error = %v, want io.EOF", err)
	}
}

func TestAssembleFeedsMerge(t *testing.T) {
	a := Assemble(0, &eventList{evs: []events.Delta{on(0, 60, 1), off(10, 60), on(0, 62, 1), off(10, 62)}})
	b := Assemble(1, &eventList{evs: []events.Delta{on(5, 48, 1), off(10, 48)}})

	got, err := Collect[Note](Merge[Note](a, b), 0)
	if err != nil {
		t.Fatal(err)
	}
	var starts []uint64
	var tracks []int
	for _, n := range got {
		starts = append(starts, n.Start())
		tracks = append(tracks, n.Track)
	}
	if !reflect.DeepEqual(starts, []uint64{0, 5, 10}) || !reflect.DeepEqual(tracks, []int{0, 1, 0}) {
		t.Errorf("merged starts %v tracks %v", starts, tracks)
	}
	if got[2].End() != 20 {
		t.Errorf("End() = %d, want 20", got[2].End())
	}
}

func TestCollectLimit(t *testing.T) {
	got, err := Collect[int](FromSlice([]int{1, 2, 3, 4}), 3)
	if err != nil || !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Collect(limit 3) = %v, %v", got, err)
	}
}
