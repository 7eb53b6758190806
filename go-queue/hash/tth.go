package hash

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
)

const (
	// TTH_BYTES is the digest size of a Tiger tree root
	TTH_BYTES = 24
	TTH_BITS  = TTH_BYTES * 8
)

var ErrInvalidTTH = errors.New("invalid tth")

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TTHValue identifies file content independent of its path. Values are
// compared by content and can be used as map keys.
type TTHValue [TTH_BYTES]byte

func ParseTTH(s string) (TTHValue, error) {
	var tth TTHValue
	data, err := encoding.DecodeString(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return tth, fmt.Errorf("%w: %q: %v", ErrInvalidTTH, s, err)
	}
	if len(data) != TTH_BYTES {
		return tth, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidTTH, s, len(data))
	}
	copy(tth[:], data)
	return tth, nil
}

// MustParseTTH is ParseTTH for constants and tests.
func MustParseTTH(s string) TTHValue {
	tth, err := ParseTTH(s)
	if err != nil {
		panic(err)
	}
	return tth
}

func (t TTHValue) String() string {
	return encoding.EncodeToString(t[:])
}

func (t TTHValue) IsZero() bool {
	return t == TTHValue{}
}
