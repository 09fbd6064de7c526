// Package midifile locates the track chunks of a Standard MIDI File and
// hands out one byte source per track.
package midifile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/james-see/midistream/pkg/trackio"
)

var (
	ErrNotMIDI   = errors.New("not a standard MIDI file")
	ErrTruncated = errors.New("truncated chunk")
)

const chunkHeaderSize = 8

// Division is the time division field of the header chunk
type Division uint16

// TicksPerQuarter returns 0 for SMPTE based divisions
func (d Division) TicksPerQuarter() uint16 {
	if d&0x8000 != 0 {
		return 0
	}
	return uint16(d)
}

// SMPTE returns frames per second and ticks per frame, or 0, 0 for
// metrical divisions.
func (d Division) SMPTE() (fps uint8, ticksPerFrame uint8) {
	if d&0x8000 == 0 {
		return 0, 0
	}
	return uint8(-int8(d >> 8)), uint8(d & 0xFF)
}

func (d Division) String() string {
	if tpq := d.TicksPerQuarter(); tpq != 0 {
		return fmt.Sprintf("%d ticks per quarter note", tpq)
	}
	fps, tpf := d.SMPTE()
	return fmt.Sprintf("%d fps, %d ticks per frame", fps, tpf)
}

// Header holds the fields of the MThd chunk
type Header struct {
	Format     uint16   `json:"format"`
	TrackCount uint16   `json:"track_count"`
	Division   Division `json:"division"`
}

// Chunk locates the body of one MTrk chunk
type Chunk struct {
	Index  int    `json:"index"`
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

// File is a scanned MIDI file. Track bodies are read on demand.
type File struct {
	Header Header
	Tracks []Chunk
	Size   int64

	r io.ReaderAt
}

// Parse scans an in-memory file
func Parse(data []byte) (*File, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

// Open scans the chunk headers of the file in r. Chunks other than MTrk
// are skipped.
func Open(r io.ReaderAt, size int64) (*File, error) {
	var hdr [chunkHeaderSize]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotMIDI
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(hdr[:4]) != "MThd" {
		return nil, ErrNotMIDI
	}
	hlen := uint64(binary.BigEndian.Uint32(hdr[4:]))
	if hlen < 6 || chunkHeaderSize+hlen > uint64(size) {
		return nil, fmt.Errorf("%w: header chunk of %d bytes", ErrTruncated, hlen)
	}
	var body [6]byte
	if _, err := r.ReadAt(body[:], chunkHeaderSize); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	f := &File{
		Header: Header{
			Format:     binary.BigEndian.Uint16(body[0:]),
			TrackCount: binary.BigEndian.Uint16(body[2:]),
			Division:   Division(binary.BigEndian.Uint16(body[4:])),
		},
		Size: size,
		r:    r,
	}

	off := chunkHeaderSize + hlen
	for off+chunkHeaderSize <= uint64(size) {
		if _, err := r.ReadAt(hdr[:], int64(off)); err != nil {
			return nil, fmt.Errorf("failed to read chunk at %d: %w", off, err)
		}
		length := uint64(binary.BigEndian.Uint32(hdr[4:]))
		bodyOff := off + chunkHeaderSize
		if bodyOff+length > uint64(size) {
			return nil, fmt.Errorf("%w: %q at %d declares %d bytes, %d available",
				ErrTruncated, hdr[:4], off, length, uint64(size)-bodyOff)
		}
		if string(hdr[:4]) == "MTrk" {
			f.Tracks = append(f.Tracks, Chunk{Index: len(f.Tracks), Offset: bodyOff, Length: length})
		}
		off = bodyOff + length
	}
	return f, nil
}

// NumTracks returns the number of MTrk chunks found
func (f *File) NumTracks() int {
	return len(f.Tracks)
}

// Track returns an independent reader over the i-th track body. Readers
// of different tracks can be used from different goroutines.
func (f *File) Track(i int) (trackio.TrackReader, error) {
	if i < 0 || i >= len(f.Tracks) {
		return nil, fmt.Errorf("track %d out of range (file has %d)", i, len(f.Tracks))
	}
	return f.TrackAt(i, f.Tracks[i].Offset)
}

// TrackAt returns a reader over the i-th track starting at the absolute
// offset pos, as needed to restore a parser checkpoint.
func (f *File) TrackAt(i int, pos uint64) (trackio.TrackReader, error) {
	if i < 0 || i >= len(f.Tracks) {
		return nil, fmt.Errorf("track %d out of range (file has %d)", i, len(f.Tracks))
	}
	c := f.Tracks[i]
	if pos < c.Offset || pos > c.Offset+c.Length {
		return nil, fmt.Errorf("position %d outside track %d [%d, %d]", pos, i, c.Offset, c.Offset+c.Length)
	}
	remaining := c.Offset + c.Length - pos
	section := io.NewSectionReader(f.r, int64(pos), int64(remaining))
	return trackio.NewStreamReader(i, section, pos, remaining), nil
}
