package uuid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	googleuuid "github.com/google/uuid"
)

// New generates a UUIDv7 for the current time. Transaction ids use it so
// that lexical order follows creation order.
func New() string {
	return NewAt(time.Now())
}

// NewAt generates a UUIDv7 whose 48-bit timestamp prefix is t in Unix
// milliseconds. The remaining 74 bits are random.
func NewAt(t time.Time) string {
	var id [16]byte

	binary.BigEndian.PutUint64(id[0:8], uint64(t.UnixMilli())<<16)

	if _, err := rand.Read(id[6:]); err != nil {
		// Fallback to a random v4 if the entropy source fails
		return googleuuid.New().String()
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	return format(id)
}

// Time extracts the millisecond timestamp embedded in a UUIDv7 string.
func Time(s string) (time.Time, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	if parsed.Version() != 7 {
		return time.Time{}, fmt.Errorf("uuid %s is version %d, not 7", s, parsed.Version())
	}
	var buf [8]byte
	copy(buf[2:], parsed[0:6])
	return time.UnixMilli(int64(binary.BigEndian.Uint64(buf[:]))), nil
}

func format(id [16]byte) string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		binary.BigEndian.Uint32(id[0:4]),
		binary.BigEndian.Uint16(id[4:6]),
		binary.BigEndian.Uint16(id[6:8]),
		binary.BigEndian.Uint16(id[8:10]),
		id[10:16],
	)
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
