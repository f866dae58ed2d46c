package subaudible

import (
	"fmt"
	"strings"

	"github.com/multich/subtx/audio"
)

// CodewordBits is the length of the repeating CDCSS pattern: 12 data
// bits (9 code bits + 3 parity checks) followed by 11 Golay parity bits.
const CodewordBits = 23

// Systematic Golay(23,12) parity rows used by the CDCSS construction.
// Row i is folded into the parity block when data bit i is set.
var golayParityRows = [12]uint16{
	0b11110000101,
	0b01111000011,
	0b00111100011,
	0b10011110001,
	0b11001111000,
	0b11100111100,
	0b01110011110,
	0b00111001111,
	0b10001100111,
	0b11000110011,
	0b11100011001,
	0b11110001100,
}

// ParseCode normalizes a user provided DCS code string.
//
// Accepts the textual forms common in radio programming guides: an
// optional leading "D", one to three octal digits, and an optional
// trailing "N" (normal) or "I" (inverted) polarity suffix. Returns the
// zero-padded three-digit octal code and whether the inverted form was
// requested.
func ParseCode(code string) (string, bool, error) {
	text := strings.ToUpper(strings.TrimSpace(code))
	text = strings.TrimPrefix(text, "D")

	invert := false
	if strings.HasSuffix(text, "N") || strings.HasSuffix(text, "I") {
		invert = strings.HasSuffix(text, "I")
		text = text[:len(text)-1]
	}

	if text == "" {
		return "", false, fmt.Errorf("%w: %q has no octal digits", audio.ErrInvalidCode, code)
	}
	if len(text) > 3 {
		return "", false, fmt.Errorf("%w: %q has more than three octal digits", audio.ErrInvalidCode, code)
	}
	for _, ch := range text {
		if ch < '0' || ch > '7' {
			return "", false, fmt.Errorf("%w: %q is not octal", audio.ErrInvalidCode, code)
		}
	}

	return strings.Repeat("0", 3-len(text)) + text, invert, nil
}

// Codeword is the immutable 23-bit repeating CDCSS pattern for one code.
// It is computed once at channel construction.
type Codeword struct {
	code     string
	inverted bool
	bits     [CodewordBits]byte
}

// NewCodeword parses code and builds its pattern.
//
// The three octal digits expand MSB-first into nine data bits A..I. Three
// parity checks (A^D^E^G, B^E^F^H, C^F^G^I) complete the 12-bit data
// word, and the Golay parity rows of every set data bit XOR-fold into an
// 11-bit block appended LSB-first. An inverted code complements every bit.
func NewCodeword(code string) (Codeword, error) {
	normalized, invert, err := ParseCode(code)
	if err != nil {
		return Codeword{}, err
	}

	cw := Codeword{code: normalized, inverted: invert}

	k := 0
	for _, digit := range normalized {
		d := byte(digit - '0')
		cw.bits[k] = d >> 2 & 1
		cw.bits[k+1] = d >> 1 & 1
		cw.bits[k+2] = d & 1
		k += 3
	}

	a, b, c := cw.bits[0], cw.bits[1], cw.bits[2]
	d, e, f := cw.bits[3], cw.bits[4], cw.bits[5]
	g, h, i := cw.bits[6], cw.bits[7], cw.bits[8]
	cw.bits[9] = a ^ d ^ e ^ g
	cw.bits[10] = b ^ e ^ f ^ h
	cw.bits[11] = c ^ f ^ g ^ i

	var parity uint16
	for bit, row := range golayParityRows {
		if cw.bits[bit] == 1 {
			parity ^= row
		}
	}
	for idx := 0; idx < 11; idx++ {
		cw.bits[12+idx] = byte(parity >> idx & 1)
	}

	if invert {
		for idx := range cw.bits {
			cw.bits[idx] ^= 1
		}
	}

	return cw, nil
}

// Code returns the normalized three-digit octal code.
func (c Codeword) Code() string { return c.code }

// Inverted reports whether the pattern is the complemented form.
func (c Codeword) Inverted() bool { return c.inverted }

// Bit returns pattern bit i in transmission order.
func (c Codeword) Bit(i int) byte { return c.bits[i] }

// Bits returns a copy of the full 23-bit pattern.
func (c Codeword) Bits() []byte {
	out := make([]byte, CodewordBits)
	copy(out, c.bits[:])
	return out
}
