package events

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// TextKind is the meta sub-type of a text event. Values outside the named
// set are kept as the raw sub-type byte.
type TextKind uint8

const (
	TextGeneric        TextKind = 0x01
	TextCopyright      TextKind = 0x02
	TextTrackName      TextKind = 0x03
	TextInstrumentName TextKind = 0x04
	TextLyric          TextKind = 0x05
	TextMarker         TextKind = 0x06
	TextCuePoint       TextKind = 0x07
)

func (k TextKind) String() string {
	switch k {
	case TextGeneric:
		return "text"
	case TextCopyright:
		return "copyright"
	case TextTrackName:
		return "track_name"
	case TextInstrumentName:
		return "instrument_name"
	case TextLyric:
		return "lyric"
	case TextMarker:
		return "marker"
	case TextCuePoint:
		return "cue_point"
	default:
		return fmt.Sprintf("text_%02x", uint8(k))
	}
}

// Text is a free-form text meta event
type Text struct {
	TextKind TextKind
	Bytes    []byte
}

// String decodes the payload. Files predating UTF-8 usually store
// ISO-8859-1, which is used when the bytes are not valid UTF-8.
func (t Text) String() string {
	if utf8.Valid(t.Bytes) {
		return string(t.Bytes)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(t.Bytes)
	if err != nil {
		return string(t.Bytes)
	}
	return string(s)
}

// MarshalJSON renders the decoded string alongside the raw sub-type
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type uint8  `json:"type"`
		Kind string `json:"text_kind"`
		Text string `json:"text"`
	}{uint8(t.TextKind), t.TextKind.String(), t.String()})
}
