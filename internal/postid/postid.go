// Package postid implements the 48-bit post identifier and its canonical
// 8-character URL-safe base64 representation.
package postid

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// PostID is a signed 48-bit identifier, held in an int64. The database stores
// the integer form; clients only ever see the string form.
type PostID int64

const (
	// EncodedLength is the exact length of the external form: 6 bytes of id
	// encode to 8 unpadded base64 characters.
	EncodedLength = 8

	// MinValue and MaxValue bound the signed 48-bit range.
	MinValue = -(1 << 47)
	MaxValue = 1<<47 - 1
)

var (
	ErrBadLength = errors.New("post id must be exactly 8 characters")
	ErrBadValue  = errors.New("post id out of 48-bit range")
)

// New draws six uniformly-random bytes and interprets them as a big-endian
// two's-complement integer. Collision handling belongs to the caller.
func New() (PostID, error) {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("draw post id: %w", err)
	}
	return fromBytes(buf), nil
}

// FromInt validates that n fits the 48-bit range.
func FromInt(n int64) (PostID, error) {
	if n < MinValue || n > MaxValue {
		return 0, ErrBadValue
	}
	return PostID(n), nil
}

// Parse decodes the external 8-character form. Any other length is rejected.
func Parse(s string) (PostID, error) {
	if len(s) != EncodedLength {
		return 0, ErrBadLength
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(raw) != 6 {
		return 0, ErrBadLength
	}
	var buf [6]byte
	copy(buf[:], raw)
	return fromBytes(buf), nil
}

// Int returns the database form.
func (p PostID) Int() int64 { return int64(p) }

// String returns the canonical external form.
func (p PostID) String() string {
	var buf [6]byte
	n := uint64(p)
	for i := 5; i >= 0; i-- {
		buf[i] = byte(n)
		n >>= 8
	}
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// fromBytes sign-extends the big-endian 48-bit value into an int64.
func fromBytes(buf [6]byte) PostID {
	var n uint64
	for _, b := range buf {
		n = n<<8 | uint64(b)
	}
	if n&(1<<47) != 0 {
		mask := ^uint64(0)
		mask <<= 48
		n |= mask
	}
	return PostID(int64(n))
}
