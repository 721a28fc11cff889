package formats

import (
	"bytes"
	"errors"
	"fmt"
)

// XBT container layout.
const (
	xbtMagic      = "TBX\x00"
	xbtHeaderSize = 32
	ddsMagic      = "DDS "
)

// XBT format errors.
var (
	ErrInvalidXBTMagic = errors.New("invalid XBT magic: expected 'TBX\\0'")
	ErrInvalidXBT      = errors.New("invalid XBT payload: expected DDS data")
)

// UnwrapXBT strips the 32-byte XBT header and returns the DDS payload.
func UnwrapXBT(data []byte) ([]byte, error) {
	if len(data) < 4 || string(data[:4]) != xbtMagic {
		return nil, ErrInvalidXBTMagic
	}
	if len(data) < xbtHeaderSize+len(ddsMagic) {
		return nil, fmt.Errorf("%w: have %d bytes", ErrInvalidXBT, len(data))
	}

	payload := data[xbtHeaderSize:]
	if !bytes.HasPrefix(payload, []byte(ddsMagic)) {
		return nil, ErrInvalidXBT
	}
	return payload, nil
}
