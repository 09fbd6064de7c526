// Package decode drives the track parser over whole files
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/remeh/sizedwaitgroup"

	"github.com/james-see/midistream/pkg/events"
	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/parser"
)

// TrackResult holds the events of one track. Err is the error that ended
// decoding, if any; Events then holds what was decoded before it.
type TrackResult struct {
	Index  int
	Events []events.Delta
	Err    error
}

// Name returns the first track name meta event, if any
func (t TrackResult) Name() string {
	for _, ev := range t.Events {
		if txt, ok := ev.Event.(events.Text); ok && txt.TextKind == events.TextTrackName {
			return txt.String()
		}
	}
	return ""
}

// NoteCount counts NoteOn events
func (t TrackResult) NoteCount() int {
	n := 0
	for _, ev := range t.Events {
		if ev.Event.Kind() == events.KindNoteOn {
			n++
		}
	}
	return n
}

// Length returns the absolute tick of the last event
func (t TrackResult) Length() uint64 {
	var ticks uint64
	for _, ev := range t.Events {
		ticks += ev.Ticks
	}
	return ticks
}

// Tracks decodes every track of f, running at most workers parsers at a
// time (runtime.NumCPU() when workers <= 0). Each track gets its own
// parser and reader.
func Tracks(ctx context.Context, f *midifile.File, workers int) ([]TrackResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]TrackResult, f.NumTracks())

	wg := sizedwaitgroup.New(workers)
	for i := range results {
		if err := wg.AddWithContext(ctx); err != nil {
			break
		}
		go func(i int) {
			defer wg.Done()
			results[i] = decodeTrack(ctx, f, i)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func decodeTrack(ctx context.Context, f *midifile.File, i int) TrackResult {
	res := TrackResult{Index: i}
	r, err := f.Track(i)
	if err != nil {
		res.Err = err
		return res
	}

	p := parser.New(r)
	for {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		ev, err := p.Next()
		if errors.Is(err, io.EOF) {
			return res
		}
		if err != nil {
			log.Printf("track %d: decode stopped after %d events: %v", i, len(res.Events), err)
			res.Err = fmt.Errorf("track %d: %w", i, err)
			return res
		}
		res.Events = append(res.Events, ev)
	}
}
