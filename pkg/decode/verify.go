package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/midistream/pkg/events"
	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/parser"
)

// NoteMark is a note start or end at an absolute tick
type NoteMark struct {
	Tick    uint64 `json:"tick"`
	Channel uint8  `json:"channel"`
	Key     uint8  `json:"key"`
	On      bool   `json:"on"`
}

// Mismatch describes where the two readers disagree on a track
type Mismatch struct {
	Track  int    `json:"track"`
	Index  int    `json:"index"`
	Detail string `json:"detail"`
}

// Report is the outcome of Verify
type Report struct {
	Tracks     int        `json:"tracks"`
	Marks      int        `json:"marks"`
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether both readers agreed on every track
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Verify decodes data with both this package's parser and the gomidi SMF
// reader and compares the note starts and ends of every track.
func Verify(data []byte) (*Report, error) {
	ref, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reference reader failed: %w", err)
	}
	f, err := midifile.Parse(data)
	if err != nil {
		return nil, err
	}

	rep := &Report{Tracks: f.NumTracks()}
	if len(ref.Tracks) != f.NumTracks() {
		rep.Mismatches = append(rep.Mismatches, Mismatch{
			Track:  -1,
			Detail: fmt.Sprintf("track count %d, reference has %d", f.NumTracks(), len(ref.Tracks)),
		})
	}

	for i := 0; i < f.NumTracks() && i < len(ref.Tracks); i++ {
		theirs := referenceMarks(ref.Tracks[i])
		ours, err := trackMarks(f, i)
		if err != nil {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Track: i, Index: len(ours), Detail: err.Error()})
			continue
		}
		rep.Marks += len(ours)
		if m, ok := compareMarks(i, ours, theirs); !ok {
			rep.Mismatches = append(rep.Mismatches, m)
		}
	}
	return rep, nil
}

func referenceMarks(track smf.Track) []NoteMark {
	var marks []NoteMark
	var abs uint64
	for _, ev := range track {
		abs += uint64(ev.Delta)
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteStart(&ch, &key, &vel):
			marks = append(marks, NoteMark{Tick: abs, Channel: ch, Key: key, On: true})
		case ev.Message.GetNoteEnd(&ch, &key):
			marks = append(marks, NoteMark{Tick: abs, Channel: ch, Key: key})
		}
	}
	return marks
}

func trackMarks(f *midifile.File, i int) ([]NoteMark, error) {
	r, err := f.Track(i)
	if err != nil {
		return nil, err
	}
	p := parser.New(r)
	var marks []NoteMark
	var abs uint64
	for {
		ev, err := p.Next()
		if errors.Is(err, io.EOF) {
			return marks, nil
		}
		if err != nil {
			return marks, err
		}
		abs += ev.Ticks
		switch e := ev.Event.(type) {
		case events.NoteOn:
			marks = append(marks, NoteMark{Tick: abs, Channel: e.Channel, Key: e.Key, On: true})
		case events.NoteOff:
			marks = append(marks, NoteMark{Tick: abs, Channel: e.Channel, Key: e.Key})
		}
	}
}

func compareMarks(track int, ours, theirs []NoteMark) (Mismatch, bool) {
	for i := 0; i < len(ours) && i < len(theirs); i++ {
		if ours[i] != theirs[i] {
			return Mismatch{
				Track:  track,
				Index:  i,
				Detail: fmt.Sprintf("decoded %+v, reference %+v", ours[i], theirs[i]),
			}, false
		}
	}
	if len(ours) != len(theirs) {
		n := min(len(ours), len(theirs))
		return Mismatch{
			Track:  track,
			Index:  n,
			Detail: fmt.Sprintf("decoded %d note marks, reference %d", len(ours), len(theirs)),
		}, false
	}
	return Mismatch{}, true
}
