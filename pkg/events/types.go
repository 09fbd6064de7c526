// Package events defines the events produced by the track parser
package events

// Kind identifies an event variant
type Kind uint8

const (
	KindNoteOff Kind = iota
	KindNoteOn
	KindPolyphonicKeyPressure
	KindControlChange
	KindProgramChange
	KindChannelPressure
	KindPitchWheelChange
	KindSystemExclusive
	KindSongPositionPointer
	KindSongSelect
	KindTuneRequest
	KindEndOfExclusive
	KindTrackStart
	KindText
	KindChannelPrefix
	KindMIDIPort
	KindTempo
	KindSMPTEOffset
	KindTimeSignature
	KindKeySignature
	KindUnknownMeta
	KindUndefined
)

var kindNames = [...]string{
	KindNoteOff:               "note_off",
	KindNoteOn:                "note_on",
	KindPolyphonicKeyPressure: "polyphonic_key_pressure",
	KindControlChange:         "control_change",
	KindProgramChange:         "program_change",
	KindChannelPressure:       "channel_pressure",
	KindPitchWheelChange:      "pitch_wheel_change",
	KindSystemExclusive:       "system_exclusive",
	KindSongPositionPointer:   "song_position_pointer",
	KindSongSelect:            "song_select",
	KindTuneRequest:           "tune_request",
	KindEndOfExclusive:        "end_of_exclusive",
	KindTrackStart:            "track_start",
	KindText:                  "text",
	KindChannelPrefix:         "channel_prefix",
	KindMIDIPort:              "midi_port",
	KindTempo:                 "tempo",
	KindSMPTEOffset:           "smpte_offset",
	KindTimeSignature:         "time_signature",
	KindKeySignature:          "key_signature",
	KindUnknownMeta:           "unknown_meta",
	KindUndefined:             "undefined",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Kinds returns every event kind in declaration order
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Event is a single decoded track event
type Event interface {
	Kind() Kind
}

// Delta pairs an event with the ticks elapsed since the previous event
// of the same track.
type Delta struct {
	Ticks uint64
	Event Event
}

// NoteOff releases a key. A NoteOn with velocity 0 is decoded as NoteOff.
type NoteOff struct {
	Channel uint8 `json:"channel"`
	Key     uint8 `json:"key"`
}

// NoteOn strikes a key with a non-zero velocity
type NoteOn struct {
	Channel  uint8 `json:"channel"`
	Key      uint8 `json:"key"`
	Velocity uint8 `json:"velocity"`
}

// PolyphonicKeyPressure is per-key aftertouch
type PolyphonicKeyPressure struct {
	Channel  uint8 `json:"channel"`
	Key      uint8 `json:"key"`
	Velocity uint8 `json:"velocity"`
}

// ControlChange sets a controller value
type ControlChange struct {
	Channel    uint8 `json:"channel"`
	Controller uint8 `json:"controller"`
	Value      uint8 `json:"value"`
}

// ProgramChange selects a patch
type ProgramChange struct {
	Channel uint8 `json:"channel"`
	Program uint8 `json:"program"`
}

// ChannelPressure is channel-wide aftertouch
type ChannelPressure struct {
	Channel  uint8 `json:"channel"`
	Pressure uint8 `json:"pressure"`
}

// PitchWheelChange carries a pitch bend centered at 0 (-8192..8191)
type PitchWheelChange struct {
	Channel uint8 `json:"channel"`
	Pitch   int16 `json:"pitch"`
}

// SystemExclusive carries an opaque sysex payload as stored in the file
type SystemExclusive struct {
	Data []byte `json:"data"`
}

// SongPositionPointer is a 14-bit position in MIDI beats
type SongPositionPointer struct {
	Position uint16 `json:"position"`
}

// SongSelect picks a song
type SongSelect struct {
	Song uint8 `json:"song"`
}

type TuneRequest struct{}

type EndOfExclusive struct{}

// TrackStart is the sequence number meta event; its payload is discarded.
type TrackStart struct{}

// ChannelPrefix associates following meta events with a channel
type ChannelPrefix struct {
	Channel uint8 `json:"channel"`
}

// MIDIPort selects the output port for the track
type MIDIPort struct {
	Port uint8 `json:"port"`
}

// Tempo is expressed in microseconds per quarter note (24 bits)
type Tempo struct {
	MicrosecondsPerQuarter uint32 `json:"microseconds_per_quarter"`
}

// BPM returns the tempo in quarter notes per minute
func (t Tempo) BPM() float64 {
	if t.MicrosecondsPerQuarter == 0 {
		return 0
	}
	return 60000000.0 / float64(t.MicrosecondsPerQuarter)
}

// SMPTEOffset is the SMPTE time at which the track starts
type SMPTEOffset struct {
	Hours            uint8 `json:"hours"`
	Minutes          uint8 `json:"minutes"`
	Seconds          uint8 `json:"seconds"`
	Frames           uint8 `json:"frames"`
	FractionalFrames uint8 `json:"fractional_frames"`
}

// TimeSignature stores the denominator as a power of two
type TimeSignature struct {
	Numerator               uint8 `json:"numerator"`
	Denominator             uint8 `json:"denominator"`
	ClocksPerClick          uint8 `json:"clocks_per_click"`
	ThirtySecondsPerQuarter uint8 `json:"thirty_seconds_per_quarter"`
}

// KeySignature has negative SharpsFlats for flats
type KeySignature struct {
	SharpsFlats int8 `json:"sharps_flats"`
	Minor       bool `json:"minor"`
}

// UnknownMeta is a meta event with an unrecognized sub-type
type UnknownMeta struct {
	Type uint8  `json:"type"`
	Data []byte `json:"data"`
}

// Undefined carries a status byte the parser does not recognize
type Undefined struct {
	Status uint8 `json:"status"`
}

func (NoteOff) Kind() Kind               { return KindNoteOff }
func (NoteOn) Kind() Kind                { return KindNoteOn }
func (PolyphonicKeyPressure) Kind() Kind { return KindPolyphonicKeyPressure }
func (ControlChange) Kind() Kind         { return KindControlChange }
func (ProgramChange) Kind() Kind         { return KindProgramChange }
func (ChannelPressure) Kind() Kind       { return KindChannelPressure }
func (PitchWheelChange) Kind() Kind      { return KindPitchWheelChange }
func (SystemExclusive) Kind() Kind       { return KindSystemExclusive }
func (SongPositionPointer) Kind() Kind   { return KindSongPositionPointer }
func (SongSelect) Kind() Kind            { return KindSongSelect }
func (TuneRequest) Kind() Kind           { return KindTuneRequest }
func (EndOfExclusive) Kind() Kind        { return KindEndOfExclusive }
func (TrackStart) Kind() Kind            { return KindTrackStart }
func (Text) Kind() Kind                  { return KindText }
func (ChannelPrefix) Kind() Kind         { return KindChannelPrefix }
func (MIDIPort) Kind() Kind              { return KindMIDIPort }
func (Tempo) Kind() Kind                 { return KindTempo }
func (SMPTEOffset) Kind() Kind           { return KindSMPTEOffset }
func (TimeSignature) Kind() Kind         { return KindTimeSignature }
func (KeySignature) Kind() Kind          { return KindKeySignature }
func (UnknownMeta) Kind() Kind           { return KindUnknownMeta }
func (Undefined) Kind() Kind             { return KindUndefined }
