package decode

import (
	"os"
	"testing"

	"github.com/james-see/midistream/pkg/midifile"
)

func loadExample(t *testing.T) (*midifile.File, []byte) {
	t.Helper()
	data, err := os.ReadFile("testdata/example.mid")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	f, err := midifile.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return f, data
}
