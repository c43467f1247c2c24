package events

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// bcsWriter builds payloads for the decoder tests.
type bcsWriter struct {
	buf []byte
}

func (w *bcsWriter) str(s string) *bcsWriter {
	n := len(s)
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			w.buf = append(w.buf, b|0x80)
			continue
		}
		w.buf = append(w.buf, b)
		break
	}
	w.buf = append(w.buf, s...)
	return w
}

func (w *bcsWriter) addr(a string) *bcsWriter {
	raw, err := hex.DecodeString(strings.TrimPrefix(a, "0x"))
	if err != nil || len(raw) != addressLength {
		panic("bad test address " + a)
	}
	w.buf = append(w.buf, raw...)
	return w
}

func (w *bcsWriter) u64(v uint64) *bcsWriter {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

func (w *bcsWriter) bytes() []byte {
	return w.buf
}

func testAddr(b byte) string {
	return "0x" + strings.Repeat(hex.EncodeToString([]byte{b}), addressLength)
}
