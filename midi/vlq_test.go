package midi

import (
	"bytes"
	"errors"
	"testing"
)

func TestVLQKnownValues(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{370, []byte{0x82, 0x72}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x1FFFFF, []byte{0xFF, 0xFF, 0x7F}},
		{0x200000, []byte{0x81, 0x80, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		got := EncodeVLQ(tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeVLQ(%#x): got % X, want % X", tt.v, got, tt.want)
		}
	}
}

func TestVLQRoundTrip(t *testing.T) {
	check := func(v uint32) {
		enc := EncodeVLQ(v)
		if (len(enc) == 1) != (v < 128) {
			t.Errorf("%d: encoded in %d bytes", v, len(enc))
		}
		got, n, err := DecodeVLQ(enc)
		if err != nil {
			t.Fatalf("%d: decode: %v", v, err)
		}
		if got != v || n != len(enc) {
			t.Errorf("%d: got %d (%d bytes), want %d (%d bytes)", v, got, n, v, len(enc))
		}
	}

	for v := uint32(0); v < 1<<16; v++ {
		check(v)
	}
	for v := uint64(1 << 16); v <= 1<<28; v += 4099 {
		check(uint32(v))
	}
	for shift := 0; shift <= 31; shift++ {
		v := uint32(1) << shift
		check(v - 1)
		check(v)
	}
	check(1 << 28)
	check(^uint32(0))
}

func TestDecodeVLQStopsAtTerminator(t *testing.T) {
	v, n, err := DecodeVLQ([]byte{0x81, 0x00, 0x99, 0x24})
	if err != nil || v != 128 || n != 2 {
		t.Errorf("got %d, %d, %v; want 128, 2, nil", v, n, err)
	}
}

func TestDecodeVLQMalformed(t *testing.T) {
	for _, b := range [][]byte{nil, {0x81}, {0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}} {
		if _, _, err := DecodeVLQ(b); !errors.Is(err, ErrVLQ) {
			t.Errorf("% X: got %v, want ErrVLQ", b, err)
		}
	}
}
