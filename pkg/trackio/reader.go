// Package trackio provides the byte sources consumed by the track parser.
package trackio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrUnexpectedEnd is returned when a read runs past the end of the track data.
var ErrUnexpectedEnd = errors.New("unexpected end of track data")

// TrackReader supplies the raw bytes of a single track and tracks the
// absolute position of the next byte.
type TrackReader interface {
	ReadByte() (byte, error)
	Pos() uint64
	IsAtEnd() bool
	TrackNumber() int
}

// SliceReader reads a track held in memory.
type SliceReader struct {
	data  []byte
	base  uint64
	off   int
	track int
}

// NewSliceReader creates a reader over data whose first byte sits at the
// absolute offset base.
func NewSliceReader(track int, data []byte, base uint64) *SliceReader {
	return &SliceReader{data: data, base: base, track: track}
}

// ReadByte returns the next byte
func (r *SliceReader) ReadByte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, ErrUnexpectedEnd
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

// Pos returns the absolute offset of the next byte
func (r *SliceReader) Pos() uint64 {
	return r.base + uint64(r.off)
}

// IsAtEnd reports whether every byte has been consumed
func (r *SliceReader) IsAtEnd() bool {
	return r.off >= len(r.data)
}

// TrackNumber returns the track index used in error reports
func (r *SliceReader) TrackNumber() int {
	return r.track
}

// Seek moves the reader to the absolute offset pos. It exists for restoring
// parser checkpoints and is not used while decoding.
func (r *SliceReader) Seek(pos uint64) error {
	if pos < r.base || pos > r.base+uint64(len(r.data)) {
		return fmt.Errorf("seek to %d outside track %d [%d, %d]", pos, r.track, r.base, r.base+uint64(len(r.data)))
	}
	r.off = int(pos - r.base)
	return nil
}

// StreamReader reads a track of known length from an io.Reader.
type StreamReader struct {
	r     *bufio.Reader
	pos   uint64
	end   uint64
	track int
	err   error
}

// NewStreamReader creates a reader for length bytes of r. base is the
// absolute offset of the first byte r yields.
func NewStreamReader(track int, r io.Reader, base, length uint64) *StreamReader {
	return &StreamReader{
		r:     bufio.NewReader(r),
		pos:   base,
		end:   base + length,
		track: track,
	}
}

// ReadByte returns the next byte
func (s *StreamReader) ReadByte() (byte, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.pos >= s.end {
		return 0, ErrUnexpectedEnd
	}
	b, err := s.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.err = ErrUnexpectedEnd
		} else {
			s.err = fmt.Errorf("track %d read at %d: %w", s.track, s.pos, err)
		}
		return 0, s.err
	}
	s.pos++
	return b, nil
}

// Pos returns the absolute offset of the next byte
func (s *StreamReader) Pos() uint64 {
	return s.pos
}

// IsAtEnd reports whether the declared length has been consumed
func (s *StreamReader) IsAtEnd() bool {
	return s.pos >= s.end
}

// TrackNumber returns the track index used in error reports
func (s *StreamReader) TrackNumber() int {
	return s.track
}
