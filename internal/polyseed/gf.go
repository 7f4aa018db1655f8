package polyseed

// Polynomial code over GF(2048) with generator x^11 + x^2 + 1. Every
// phrase is a polynomial whose coefficients are the word indices; the
// checksum word makes the polynomial evaluate to zero at x = 2.

const gfReduce = 0x805

type poly [NumWords]uint16

func mul2(x uint16) uint16 {
	if x&0x400 != 0 {
		return (x << 1) ^ gfReduce
	}
	return x << 1
}

func (p *poly) eval() uint16 {
	r := p[NumWords-1]
	for i := NumWords - 2; i >= 0; i-- {
		r = mul2(r) ^ p[i]
	}
	return r
}

func (p *poly) encode() {
	p[0] = 0
	p[0] = p.eval()
}

func (p *poly) check() bool {
	return p.eval() == 0
}
