package polyseed

// The 150 secret bits are read most significant first: eight bits from
// each of the first 18 bytes, then the low six bits of the last byte.

func bitPos(p int) (byteIdx int, shift uint) {
	byteIdx = p / 8
	width := 8
	if byteIdx == SecretSize-1 {
		width = SecretBits - 8*(SecretSize-1)
	}
	return byteIdx, uint(width - 1 - p%8)
}

type bitReader struct {
	buf []byte
	pos int
}

func (r *bitReader) read(n int) uint16 {
	var v uint16
	for i := 0; i < n; i++ {
		b, s := bitPos(r.pos)
		v = v<<1 | uint16(r.buf[b]>>s)&1
		r.pos++
	}
	return v
}

type bitWriter struct {
	buf []byte
	pos int
}

func (w *bitWriter) write(v uint16, n int) {
	for i := n - 1; i >= 0; i-- {
		b, s := bitPos(w.pos)
		w.buf[b] |= byte(v>>uint(i)&1) << s
		w.pos++
	}
}
