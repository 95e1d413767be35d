package native

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// NulError reports a terminator byte inside text bound for the host.
type NulError struct {
	Offset int
}

func (e *NulError) Error() string {
	return "nul byte found in provided data at position " + strconv.Itoa(e.Offset)
}

// CString returns s as a nul-terminated byte sequence.
func CString(s string) ([]byte, error) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return nil, &NulError{Offset: i}
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b, nil
}

// OptionalCString encodes s when non-nil; nil stays nil.
func OptionalCString(s *string) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return CString(*s)
}

// GoString reads a nul-terminated byte sequence. Bytes after the first
// terminator are ignored; a missing terminator takes the whole slice.
func GoString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Buffer returns nil for an empty buffer, matching the host's convention of a
// null pointer with zero length.
func Buffer(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

// CheckInt32 reports whether v fits the host's signed int width.
func CheckInt32(v uint32) (int32, bool) {
	if v > math.MaxInt32 {
		return 0, false
	}
	return int32(v), true
}

// CheckUint32 reports whether n fits the host's unsigned int width.
func CheckUint32(n int) (uint32, bool) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}
