package parser

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/james-see/midistream/pkg/trackio"
)

const (
	checkpointVersion = 1
	checkpointSize    = 13

	flagPushback   = 0x01
	flagTerminated = 0x02
)

// Checkpoint is a snapshot of parser state taken between events. A parser
// restored from it, given a reader positioned at Pos(), continues exactly
// where the snapshotted parser left off.
type Checkpoint struct {
	pushback    byte
	hasPushback bool
	prevCommand uint8
	pos         uint64
	terminated  bool
}

// Pos returns the absolute reader position the checkpoint was taken at
func (c Checkpoint) Pos() uint64 {
	return c.pos
}

// Terminated reports whether the parser had already stopped
func (c Checkpoint) Terminated() bool {
	return c.terminated
}

// Checkpoint captures the current state. Call it only between events.
func (p *Parser) Checkpoint() Checkpoint {
	return Checkpoint{
		pushback:    p.pushback,
		hasPushback: p.hasPushback,
		prevCommand: p.prevCommand,
		pos:         p.reader.Pos(),
		terminated:  p.terminated,
	}
}

// FromCheckpoint restores a parser. It panics if the reader is not at the
// checkpoint's position.
func FromCheckpoint(reader trackio.TrackReader, cp Checkpoint) *Parser {
	if reader.Pos() != cp.pos {
		panic(fmt.Sprintf("parser: checkpoint position %d does not match reader position %d", cp.pos, reader.Pos()))
	}
	return &Parser{
		reader:      reader,
		pushback:    cp.pushback,
		hasPushback: cp.hasPushback,
		prevCommand: cp.prevCommand,
		terminated:  cp.terminated,
	}
}

// MarshalBinary encodes the checkpoint so it can be handed to another
// process.
func (c Checkpoint) MarshalBinary() ([]byte, error) {
	buf := make([]byte, checkpointSize)
	buf[0] = checkpointVersion
	if c.hasPushback {
		buf[1] |= flagPushback
		buf[2] = c.pushback
	}
	if c.terminated {
		buf[1] |= flagTerminated
	}
	buf[3] = c.prevCommand
	binary.BigEndian.PutUint64(buf[5:], c.pos)
	return buf, nil
}

// UnmarshalBinary decodes a checkpoint produced by MarshalBinary
func (c *Checkpoint) UnmarshalBinary(data []byte) error {
	if len(data) != checkpointSize {
		return fmt.Errorf("checkpoint: expected %d bytes, got %d", checkpointSize, len(data))
	}
	if data[0] != checkpointVersion {
		return fmt.Errorf("checkpoint: unsupported version %d", data[0])
	}
	if data[1]&^(flagPushback|flagTerminated) != 0 || data[4] != 0 {
		return errors.New("checkpoint: malformed header")
	}
	c.hasPushback = data[1]&flagPushback != 0
	c.pushback = 0
	if c.hasPushback {
		c.pushback = data[2]
	}
	c.terminated = data[1]&flagTerminated != 0
	c.prevCommand = data[3]
	c.pos = binary.BigEndian.Uint64(data[5:])
	return nil
}
