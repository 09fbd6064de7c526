package midifile

import (
	"path/filepath"
	"strings"
)

// Extensions lists the file name extensions treated as MIDI files
var Extensions = []string{".mid", ".midi", ".smf", ".kar"}

// HasMIDIExtension checks the file name extension
func HasMIDIExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Sniff reports whether data starts with the MThd signature
func Sniff(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "MThd"
}
