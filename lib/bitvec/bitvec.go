// Package bitvec converts between arbitrary width bit vectors and the 32-bit word
// arrays exchanged on the wire. Word 0 holds the least significant 32 bits.
package bitvec

import (
	"fmt"
	"math/big"
	"strings"
)

// WordBits is the number of bits in one wire word
const WordBits = 32

// WordCount returns the number of 32-bit words needed for width bits (ceil(width/32))
func WordCount(width int) int {
	if width <= 0 {
		return 0
	}
	return (width + WordBits - 1) / WordBits
}

// ByteCount returns the number of wire bytes needed for width bits
func ByteCount(width int) int {
	return WordCount(width) * 4
}

// Mask clears all bits above width in the last word of words
func Mask(words []uint32, width int) {
	n := WordCount(width)
	if n == 0 || len(words) < n {
		return
	}
	if rem := width % WordBits; rem != 0 {
		words[n-1] &= (1 << rem) - 1
	}
	for i := n; i < len(words); i++ {
		words[i] = 0
	}
}

// FromBig packs the lowest width bits of v into words, least significant word first.
// Negative values are packed in two's complement.
func FromBig(v *big.Int, width int) []uint32 {
	words := make([]uint32, WordCount(width))
	x := new(big.Int).Set(v)
	if x.Sign() < 0 {
		// two's complement over width bits
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
		x.Add(x, mod)
	}
	mask := big.NewInt(0xffffffff)
	tmp := new(big.Int)
	for i := range words {
		words[i] = uint32(tmp.And(x, mask).Uint64())
		x.Rsh(x, WordBits)
	}
	Mask(words, width)
	return words
}

// ToBig unpacks the lowest width bits of words into an unsigned integer
func ToBig(words []uint32, width int) *big.Int {
	n := WordCount(width)
	if n > len(words) {
		n = len(words)
	}
	v := new(big.Int)
	for i := n - 1; i >= 0; i-- {
		v.Lsh(v, WordBits)
		v.Or(v, big.NewInt(int64(words[i])))
	}
	if width > 0 {
		mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(width)), big.NewInt(1))
		v.And(v, mask)
	}
	return v
}

// ParseHex parses a hexadecimal value (with or without 0x prefix) into width bits.
// Values that do not fit into width bits are rejected.
func ParseHex(s string, width int) ([]uint32, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid width %d", width)
	}
	clean := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	clean = strings.ReplaceAll(clean, "_", "")
	v, ok := new(big.Int).SetString(clean, 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex value %q", s)
	}
	if v.BitLen() > width {
		return nil, fmt.Errorf("value %q does not fit into %d bits", s, width)
	}
	return FromBig(v, width), nil
}

// FormatHex formats the lowest width bits of words as 0x prefixed hexadecimal
func FormatHex(words []uint32, width int) string {
	return "0x" + ToBig(words, width).Text(16)
}
