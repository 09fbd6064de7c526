package decode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/james-see/midistream/pkg/events"
	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/parser"
)

// ErrBadCursor is returned for cursors that do not decode or do not
// belong to the requested track.
var ErrBadCursor = errors.New("invalid cursor")

// BatchResult is one slice of a track. Next resumes after the last event
// and is empty once the track is exhausted.
type BatchResult struct {
	Track  int
	Events []events.Delta
	Next   string
	Err    error
}

// EncodeCursor turns a checkpoint into an opaque URL-safe string
func EncodeCursor(cp parser.Checkpoint) string {
	data, _ := cp.MarshalBinary()
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor reverses EncodeCursor
func DecodeCursor(s string) (parser.Checkpoint, error) {
	var cp parser.Checkpoint
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cp, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	if err := cp.UnmarshalBinary(data); err != nil {
		return cp, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	return cp, nil
}

// Batch decodes up to limit events of a track starting at cursor (the
// start of the track when empty). limit <= 0 decodes the rest of the
// track. A decode error is reported in the result's Err together with the
// events before it.
func Batch(f *midifile.File, track int, cursor string, limit int) (*BatchResult, error) {
	var p *parser.Parser
	if cursor == "" {
		r, err := f.Track(track)
		if err != nil {
			return nil, err
		}
		p = parser.New(r)
	} else {
		cp, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		r, err := f.TrackAt(track, cp.Pos())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
		}
		p = parser.FromCheckpoint(r, cp)
	}

	res := &BatchResult{Track: track}
	for limit <= 0 || len(res.Events) < limit {
		ev, err := p.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			res.Err = fmt.Errorf("track %d: %w", track, err)
			return res, nil
		}
		res.Events = append(res.Events, ev)
	}

	cp := p.Checkpoint()
	chunk := f.Tracks[track]
	if !cp.Terminated() && cp.Pos() < chunk.Offset+chunk.Length {
		res.Next = EncodeCursor(cp)
	}
	return res, nil
}
