package decode

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/notes"
	"github.com/james-see/midistream/pkg/parser"
)

func TestNotesMergedOrder(t *testing.T) {
	f, _ := loadExample(t)

	it, err := Notes(f)
	if err != nil {
		t.Fatalf("Notes() error = %v", err)
	}
	got, err := notes.Collect[notes.Note](it, 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	want := []notes.Note{
		{Time: 0, Length: 384, Track: 3, Channel: 2, Key: 48, Velocity: 96},
		{Time: 0, Length: 384, Track: 3, Channel: 2, Key: 60, Velocity: 96},
		{Time: 96, Length: 288, Track: 2, Channel: 1, Key: 67, Velocity: 64},
		{Time: 192, Length: 192, Track: 1, Channel: 0, Key: 76, Velocity: 32},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("notes = %+v\nwant %+v", got, want)
	}
}

func TestNotesLimit(t *testing.T) {
	f, _ := loadExample(t)
	it, err := Notes(f)
	if err != nil {
		t.Fatal(err)
	}
	got, err := notes.Collect[notes.Note](it, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2].Track != 2 {
		t.Errorf("first three notes = %+v", got)
	}
}

func TestNotesTrackError(t *testing.T) {
	data := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 1, 0, 2, 0, 0x60,
		'M', 'T', 'r', 'k', 0, 0, 0, 8,
		0, 0x90, 60, 100,
		0x10, 0x80, 60, 0,
		// key signature with a wrong length byte
		'M', 'T', 'r', 'k', 0, 0, 0, 5,
		0x20, 0xFF, 0x59, 1, 0,
	}
	f, err := midifile.Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	it, err := Notes(f)
	if err != nil {
		t.Fatal(err)
	}
	got, err := notes.Collect[notes.Note](it, 0)
	if !errors.Is(err, parser.ErrCorruptEvent) {
		t.Fatalf("Collect() error = %v, want corrupt event", err)
	}
	if !strings.HasPrefix(err.Error(), "track 1:") {
		t.Errorf("error %q does not name the track", err)
	}
	if len(got) != 0 {
		t.Errorf("notes before the error = %+v", got)
	}
	if _, err := it.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after error = %v, want EOF", err)
	}
}
