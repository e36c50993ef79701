package seg7

import (
	"sort"
	"unicode"
)

// chars maps every displayable symbol to its segment pattern, one bit per
// segment plus the decimal point. '@' lights everything.
var chars = map[rune]byte{
	'0': 0b11011011,
	'1': 0b10000010,
	'2': 0b00011111,
	'3': 0b01011101,
	'4': 0b11010100,
	'5': 0b11001101,
	'6': 0b11001111,
	'7': 0b01011000,
	'8': 0b11011111,
	'9': 0b11011100,
	'a': 0b11011110,
	'b': 0b11000111,
	'c': 0b00000111,
	'd': 0b01010111,
	'e': 0b10001111,
	'f': 0b10001110,
	' ': 0b00000000,
	'.': 0b00100000,
	'@': 0b11111111,
}

// Pattern looks c up case-insensitively.
func Pattern(c rune) (byte, bool) {
	p, ok := chars[unicode.ToLower(c)]
	return p, ok
}

// Symbols lists every displayable symbol in ascending order.
func Symbols() []rune {
	out := make([]rune, 0, len(chars))
	for c := range chars {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
