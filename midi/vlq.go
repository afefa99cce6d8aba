package midi

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// maxVLQBytes covers the full uint32 range
const maxVLQBytes = 5

// AppendVLQ appends v as a variable-length quantity: 7-bit groups,
// most significant first, high bit set on every group but the last.
func AppendVLQ(dst []byte, v uint32) []byte {
	var tmp [maxVLQBytes]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
	}
	return append(dst, tmp[i:]...)
}

// EncodeVLQ returns the variable-length encoding of v
func EncodeVLQ(v uint32) []byte {
	return AppendVLQ(nil, v)
}

// DecodeVLQ reads one variable-length quantity from the front of b and
// returns the value and the number of bytes consumed.
func DecodeVLQ(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < len(b) && i < maxVLQBytes; i++ {
		v = v<<7 | uint32(b[i]&0x7f)
		if b[i]&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fault.Wrap(ErrVLQ,
		fmsg.With("unterminated quantity"),
		ftag.With(ftag.InvalidArgument),
	)
}
