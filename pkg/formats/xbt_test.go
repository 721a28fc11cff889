package formats

import (
	"bytes"
	"errors"
	"testing"
)

func createTestXBT(payload []byte) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("TBX\x00")
	buf.Write(make([]byte, xbtHeaderSize-4))
	buf.Write(payload)
	return buf.Bytes()
}

func TestUnwrapXBT(t *testing.T) {
	payload := append([]byte("DDS "), 1, 2, 3, 4)
	got, err := UnwrapXBT(createTestXBT(payload))
	if err != nil {
		t.Fatalf("UnwrapXBT failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("expected payload %v, got %v", payload, got)
	}
}

func TestUnwrapXBT_InvalidMagic(t *testing.T) {
	_, err := UnwrapXBT([]byte("XXXX"))
	if !errors.Is(err, ErrInvalidXBTMagic) {
		t.Errorf("expected ErrInvalidXBTMagic, got %v", err)
	}
}

func TestUnwrapXBT_NotDDS(t *testing.T) {
	_, err := UnwrapXBT(createTestXBT([]byte("PNG?")))
	if !errors.Is(err, ErrInvalidXBT) {
		t.Errorf("expected ErrInvalidXBT, got %v", err)
	}

	_, err = UnwrapXBT([]byte("TBX\x00short"))
	if !errors.Is(err, ErrInvalidXBT) {
		t.Errorf("expected ErrInvalidXBT for short data, got %v", err)
	}
}
