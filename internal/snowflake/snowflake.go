// Package snowflake decodes Discord's 64-bit IDs.
//
// See also: https://discord.com/developers/docs/reference#snowflakes
package snowflake

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	bw "github.com/bwmarrin/snowflake"
)

// DiscordEpoch is the first millisecond of 2015 in Unix milliseconds.
const DiscordEpoch = 1420070400000

var ErrInvalid = errors.New("invalid snowflake")

var null = []byte("null")

// ID is a Discord snowflake.
type ID uint64

// Parse returns the ID represented by a decimal string.
// Valid IDs are in the range of a signed 64-bit integer, which is what Discord uses.
func Parse(s string) (ID, error) {
	x, err := bw.ParseString(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s, ErrInvalid)
	}
	if x.Int64() < 0 {
		return 0, fmt.Errorf("%s: negative: %w", s, ErrInvalid)
	}
	return ID(x.Int64()), nil
}

// Timestamp returns the creation time encoded in the upper 42 bits.
func (id ID) Timestamp() time.Time {
	ms := (uint64(id) >> 22) + DiscordEpoch
	return time.UnixMilli(int64(ms)).UTC()
}

// InternalWorkerID returns the 5 bit worker ID.
func (id ID) InternalWorkerID() uint8 {
	return uint8((id & 0x3E0000) >> 17)
}

// InternalProcessID returns the 5 bit process ID.
func (id ID) InternalProcessID() uint8 {
	return uint8((id & 0x1F000) >> 12)
}

// Increment returns the 12 bit increment.
func (id ID) Increment() uint16 {
	return uint16(id & 0xFFF)
}

func (id ID) IsZero() bool {
	return id == 0
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Dump returns all decoded fields in a human readable form.
func (id ID) Dump() string {
	return fmt.Sprintf(
		"Timestamp: %s\nInternalWorkerId: %d\nInternalProcessId: %d\nIncrement: %d",
		id.Timestamp().Format(time.RFC3339Nano),
		id.InternalWorkerID(),
		id.InternalProcessID(),
		id.Increment(),
	)
}

// MarshalJSON encodes the ID as quoted string, which is how Discord transmits IDs.
func (id ID) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 22)
	buf = append(buf, '"')
	buf = strconv.AppendUint(buf, uint64(id), 10)
	buf = append(buf, '"')
	return buf, nil
}

// UnmarshalJSON accepts quoted and bare numbers. null is decoded as zero.
func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*id = 0
		return nil
	}
	s := string(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	x, err := Parse(s)
	if err != nil {
		return fmt.Errorf("unmarshal snowflake: %w", err)
	}
	*id = x
	return nil
}
