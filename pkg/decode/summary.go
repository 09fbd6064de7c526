package decode

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/james-see/midistream/pkg/midifile"
)

// Summary totals the results of Tracks
type Summary struct {
	Format   uint16 `json:"format"`
	Division string `json:"division"`
	Tracks   int    `json:"tracks"`
	Events   int    `json:"events"`
	Notes    int    `json:"notes"`
	Failed   int    `json:"failed"`
	Bytes    int64  `json:"bytes"`
}

// Summarize totals results decoded from f
func Summarize(f *midifile.File, results []TrackResult) Summary {
	s := Summary{
		Format:   f.Header.Format,
		Division: f.Header.Division.String(),
		Tracks:   len(results),
		Bytes:    f.Size,
	}
	for _, r := range results {
		s.Events += len(r.Events)
		s.Notes += r.NoteCount()
		if r.Err != nil {
			s.Failed++
		}
	}
	return s
}

func (s Summary) String() string {
	out := fmt.Sprintf("format %d, %d tracks, %s events, %s notes (%s, %s)",
		s.Format, s.Tracks, humanize.Comma(int64(s.Events)), humanize.Comma(int64(s.Notes)),
		humanize.Bytes(uint64(s.Bytes)), s.Division)
	if s.Failed > 0 {
		out += fmt.Sprintf(", %d tracks failed", s.Failed)
	}
	return out
}
