package events

import "errors"

// SysEx framing bytes
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7
)

// Universal sysex IDs
const (
	UniversalNonRealTime = 0x7E
	UniversalRealTime    = 0x7F
)

// Manufacturer extracts the manufacturer ID from the payload. The payload
// follows the F0 status byte, so the ID is its first byte, or the first
// three bytes when the first is zero (extended ID).
func (s SystemExclusive) Manufacturer() ([]byte, error) {
	if len(s.Data) < 1 {
		return nil, errors.New("sysex payload too short for manufacturer ID")
	}
	if s.Data[0] == 0x00 {
		if len(s.Data) < 3 {
			return nil, errors.New("sysex payload too short for extended manufacturer ID")
		}
		return s.Data[0:3], nil
	}
	return s.Data[0:1], nil
}

// Terminated reports whether the payload ends with the F7 end byte.
// Split sysex messages leave it off and continue in an F7 escape.
func (s SystemExclusive) Terminated() bool {
	return len(s.Data) > 0 && s.Data[len(s.Data)-1] == SysExEnd
}

// Universal reports whether the message uses a universal (non-)real-time ID
// instead of a manufacturer ID.
func (s SystemExclusive) Universal() bool {
	return len(s.Data) > 0 && (s.Data[0] == UniversalNonRealTime || s.Data[0] == UniversalRealTime)
}
