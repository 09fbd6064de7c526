// Package parser decodes the event stream of a single MIDI track
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/james-see/midistream/pkg/events"
	"github.com/james-see/midistream/pkg/trackio"
)

// ErrCorruptEvent matches every *CorruptEventError
var ErrCorruptEvent = errors.New("corrupt event")

// CorruptEventError reports a fixed-size meta event whose declared length
// does not match its known size.
type CorruptEventError struct {
	Track    int
	Position uint64
}

func (e *CorruptEventError) Error() string {
	return fmt.Sprintf("corrupt event in track %d at byte %d", e.Track, e.Position)
}

// Is lets errors.Is match ErrCorruptEvent
func (e *CorruptEventError) Is(target error) bool {
	return target == ErrCorruptEvent
}

// Parser turns the bytes of one track into delta-timed events. It is not
// safe for concurrent use; decode tracks in parallel with one Parser each.
type Parser struct {
	reader      trackio.TrackReader
	pushback    byte
	hasPushback bool
	prevCommand uint8
	terminated  bool
}

// New creates a parser starting at the reader's current position
func New(reader trackio.TrackReader) *Parser {
	return &Parser{reader: reader}
}

// read consumes the pushback byte before touching the reader
func (p *Parser) read() (byte, error) {
	if p.hasPushback {
		p.hasPushback = false
		return p.pushback, nil
	}
	return p.reader.ReadByte()
}

// readFast bypasses the pushback slot; used for data bytes that can never
// have been pushed back.
func (p *Parser) readFast() (byte, error) {
	return p.reader.ReadByte()
}

type byteFunc func() (byte, error)

func (f byteFunc) ReadByte() (byte, error) { return f() }

// ReadVarLen decodes a big-endian base-128 integer as used for delta-times
// and payload lengths. Each byte contributes its low seven bits; a clear
// high bit ends the number. There is no length limit.
func ReadVarLen(r io.ByteReader) (uint64, error) {
	var n uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		n = (n << 7) | uint64(b&0x7F)
		if b&0x80 == 0 {
			return n, nil
		}
	}
}

func (p *Parser) readVarLen() (uint64, error) {
	return ReadVarLen(byteFunc(p.read))
}

func (p *Parser) readPayload() ([]byte, error) {
	size, err := p.readVarLen()
	if err != nil {
		return nil, err
	}
	var data []byte
	for i := uint64(0); i < size; i++ {
		b, err := p.readFast()
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}
	return data, nil
}

func (p *Parser) expectLen(size byte) error {
	b, err := p.readFast()
	if err != nil {
		return err
	}
	if b != size {
		return &CorruptEventError{
			Track:    p.reader.TrackNumber(),
			Position: p.reader.Pos(),
		}
	}
	return nil
}

// readData reads n fixed data bytes with readFast
func (p *Parser) readData(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		b, err := p.readFast()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// Next returns the next event. It returns io.EOF once the track is
// exhausted. A decode error is returned exactly once; after it every call
// returns io.EOF without reading.
func (p *Parser) Next() (events.Delta, error) {
	for {
		if p.terminated || p.reader.IsAtEnd() {
			return events.Delta{}, io.EOF
		}

		ev, ok, err := p.parseEvent()
		if err != nil {
			p.terminated = true
			return events.Delta{}, err
		}
		if ok {
			return ev, nil
		}
		// end of track markers are skipped
	}
}

// parseEvent decodes one event. ok is false for events that produce no
// item.
func (p *Parser) parseEvent() (ev events.Delta, ok bool, err error) {
	delta, err := p.readVarLen()
	if err != nil {
		return ev, false, err
	}
	command, err := p.read()
	if err != nil {
		return ev, false, err
	}
	if command < 0x80 {
		// running status: the byte is data, reuse the previous status
		p.pushback, p.hasPushback = command, true
		command = p.prevCommand
	} else {
		p.prevCommand = command
	}

	var event events.Event
	if command < 0xF0 {
		event, err = p.parseChannelEvent(command)
	} else {
		event, err = p.parseSystemEvent(command)
	}
	if err != nil || event == nil {
		return ev, false, err
	}
	return events.Delta{Ticks: delta, Event: event}, true, nil
}

func (p *Parser) parseChannelEvent(command byte) (events.Event, error) {
	channel := command & 0x0F
	switch command & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		first, err := p.read()
		if err != nil {
			return nil, err
		}
		second, err := p.readFast()
		if err != nil {
			return nil, err
		}
		switch command & 0xF0 {
		case 0x80:
			return events.NoteOff{Channel: channel, Key: first}, nil
		case 0x90:
			if second == 0 {
				return events.NoteOff{Channel: channel, Key: first}, nil
			}
			return events.NoteOn{Channel: channel, Key: first, Velocity: second}, nil
		case 0xA0:
			return events.PolyphonicKeyPressure{Channel: channel, Key: first, Velocity: second}, nil
		case 0xB0:
			return events.ControlChange{Channel: channel, Controller: first, Value: second}, nil
		default:
			pitch := (int16(second)<<7 | int16(first)) - 8192
			return events.PitchWheelChange{Channel: channel, Pitch: pitch}, nil
		}
	case 0xC0:
		program, err := p.read()
		if err != nil {
			return nil, err
		}
		return events.ProgramChange{Channel: channel, Program: program}, nil
	case 0xD0:
		pressure, err := p.read()
		if err != nil {
			return nil, err
		}
		return events.ChannelPressure{Channel: channel, Pressure: pressure}, nil
	default:
		// only reachable through a zero running status
		return events.Undefined{Status: command}, nil
	}
}

func (p *Parser) parseSystemEvent(command byte) (events.Event, error) {
	switch command {
	case 0xF0:
		data, err := p.readPayload()
		if err != nil {
			return nil, err
		}
		return events.SystemExclusive{Data: data}, nil
	case 0xF2:
		lsb, err := p.read()
		if err != nil {
			return nil, err
		}
		msb, err := p.readFast()
		if err != nil {
			return nil, err
		}
		return events.SongPositionPointer{Position: uint16(msb)<<7 | uint16(lsb)}, nil
	case 0xF3:
		song, err := p.read()
		if err != nil {
			return nil, err
		}
		return events.SongSelect{Song: song}, nil
	case 0xF6:
		return events.TuneRequest{}, nil
	case 0xF7, 0xF8:
		return events.EndOfExclusive{}, nil
	case 0xFF:
		return p.parseMetaEvent()
	default:
		return events.Undefined{Status: command}, nil
	}
}

func (p *Parser) parseMetaEvent() (events.Event, error) {
	typ, err := p.read()
	if err != nil {
		return nil, err
	}

	switch {
	case typ >= 0x01 && typ <= 0x0A, typ == 0xF7:
		data, err := p.readPayload()
		if err != nil {
			return nil, err
		}
		return events.Text{TextKind: events.TextKind(typ), Bytes: data}, nil
	}

	var size byte
	switch typ {
	case 0x00:
		size = 2
	case 0x20, 0x21:
		size = 1
	case 0x2F:
		size = 0
	case 0x51:
		size = 3
	case 0x54:
		size = 5
	case 0x58:
		size = 4
	case 0x59:
		size = 2
	default:
		data, err := p.readPayload()
		if err != nil {
			return nil, err
		}
		return events.UnknownMeta{Type: typ, Data: data}, nil
	}

	if err := p.expectLen(size); err != nil {
		return nil, err
	}

	if typ == 0x2F {
		return nil, nil
	}

	d, err := p.readData(int(size))
	if err != nil {
		return nil, err
	}
	switch typ {
	case 0x00:
		return events.TrackStart{}, nil
	case 0x20:
		return events.ChannelPrefix{Channel: d[0]}, nil
	case 0x21:
		return events.MIDIPort{Port: d[0]}, nil
	case 0x51:
		return events.Tempo{MicrosecondsPerQuarter: uint32(d[0])<<16 | uint32(d[1])<<8 | uint32(d[2])}, nil
	case 0x54:
		return events.SMPTEOffset{Hours: d[0], Minutes: d[1], Seconds: d[2], Frames: d[3], FractionalFrames: d[4]}, nil
	case 0x58:
		return events.TimeSignature{Numerator: d[0], Denominator: d[1], ClocksPerClick: d[2], ThirtySecondsPerQuarter: d[3]}, nil
	default:
		return events.KeySignature{SharpsFlats: int8(d[0]), Minor: d[1] != 0}, nil
	}
}
