package decode

import (
	"bytes"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// writeReference renders a two track file with the gomidi writer
func writeReference(t *testing.T) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var lead smf.Track
	lead.Add(0, smf.Message([]byte{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}))
	lead.Add(0, midi.ProgramChange(0, 33))
	for i, key := range []uint8{60, 62, 64, 65, 67} {
		lead.Add(0, midi.NoteOn(0, key, uint8(80+i)))
		lead.Add(240, midi.NoteOff(0, key))
	}
	lead.Close(0)

	var drums smf.Track
	drums.Add(0, midi.ControlChange(9, 7, 100))
	for bar := 0; bar < 4; bar++ {
		drums.Add(0, midi.NoteOn(9, 36, 120))
		drums.Add(0, midi.NoteOn(9, 42, 90))
		drums.Add(120, midi.NoteOff(9, 42))
		drums.Add(0, midi.NoteOn(9, 42, 0))
		drums.Add(360, midi.NoteOff(9, 36))
	}
	drums.Close(0)

	for _, tr := range []smf.Track{lead, drums} {
		if err := s.Add(tr); err != nil {
			t.Fatalf("failed to add track: %v", err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("failed to write MIDI: %v", err)
	}
	return buf.Bytes()
}

func TestVerifyAgreesWithReferenceWriter(t *testing.T) {
	rep, err := Verify(writeReference(t))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !rep.OK() {
		t.Fatalf("mismatches: %+v", rep.Mismatches)
	}
	if rep.Tracks != 2 {
		t.Errorf("Tracks = %d, want 2", rep.Tracks)
	}
	// 5 lead notes, then 2 starts and 3 ends per drum bar
	if rep.Marks != 30 {
		t.Errorf("Marks = %d, want 30", rep.Marks)
	}
}

func TestVerifyExample(t *testing.T) {
	_, data := loadExample(t)
	rep, err := Verify(data)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !rep.OK() || rep.Marks != 8 {
		t.Errorf("report = %+v", rep)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := Verify([]byte("not a midi file at all")); err == nil {
		t.Error("expected error")
	}
}

func TestCompareMarks(t *testing.T) {
	a := []NoteMark{{Tick: 0, Key: 60, On: true}, {Tick: 10, Key: 60}}

	tests := []struct {
		name   string
		theirs []NoteMark
		ok     bool
		index  int
	}{
		{"equal", a, true, 0},
		{"different tick", []NoteMark{a[0], {Tick: 11, Key: 60}}, false, 1},
		{"missing mark", a[:1], false, 1},
		{"extra mark", append(append([]NoteMark{}, a...), NoteMark{Tick: 20, Key: 61, On: true}), false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := compareMarks(4, a, tt.theirs)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok && (m.Track != 4 || m.Index != tt.index) {
				t.Errorf("mismatch = %+v, want index %d", m, tt.index)
			}
		})
	}
}
