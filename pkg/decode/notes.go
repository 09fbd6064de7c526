package decode

import (
	"fmt"
	"io"

	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/notes"
	"github.com/james-see/midistream/pkg/parser"
)

// trackNotes tags errors with the track they came from
type trackNotes struct {
	track int
	it    notes.Iterator[notes.Note]
}

func (t trackNotes) Next() (notes.Note, error) {
	n, err := t.it.Next()
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("track %d: %w", t.track, err)
	}
	return n, err
}

// Notes returns every note of the file in start order. Tracks are decoded
// lazily and side by side; only one pending note per track plus the notes
// still sounding are held in memory.
func Notes(f *midifile.File) (*notes.Merger[notes.Note], error) {
	streams := make([]notes.Iterator[notes.Note], 0, f.NumTracks())
	for i := 0; i < f.NumTracks(); i++ {
		r, err := f.Track(i)
		if err != nil {
			return nil, err
		}
		streams = append(streams, trackNotes{track: i, it: notes.Assemble(i, parser.New(r))})
	}
	return notes.Merge(streams...), nil
}
