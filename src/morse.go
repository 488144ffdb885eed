package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:   	Compact Morse code table.
 *
 * Description:	Each representable character is one byte, laid out as
 *
 *			xxyz zzzz
 *
 *		xxy is the number of elements.  The longest character
 *		has 6 elements, so when xx is 0b11 the count is 6 and
 *		y is borrowed as a sixth pattern bit.
 *
 *		The pattern is read starting from the right.
 *		0 is a dit and 1 is a dah, e.g. A (.-) is 10.
 *
 *		The table is in ASCII order: letters first, then the
 *		contiguous run '+' thru ';', then the few stragglers.
 *
 *---------------------------------------------------------------*/

import (
	"strings"
)

// Symbol is one packed Morse character.
type Symbol byte

// Silence is what every unrepresentable character maps to.
const Silence Symbol = 0

const (
	sixElementMark = 0xC0
	countMask      = 0xE0
	countShift     = 5
)

const (
	letterBase = 0  // 'A'
	bandBase   = 26 // '+'
	bandFirst  = '+'
	bandLast   = ';'
)

var MORSE = [...]Symbol{
	0b01000010, // A .-
	0b10000001, // B -...
	0b10000101, // C -.-.
	0b01100001, // D -..
	0b00100000, // E .
	0b10000100, // F ..-.
	0b01100011, // G --.
	0b10000000, // H ....
	0b01000000, // I ..
	0b10001110, // J .---
	0b01100101, // K -.-
	0b10000010, // L .-..
	0b01000011, // M --
	0b01000001, // N -.
	0b01100111, // O ---
	0b10000110, // P .--.
	0b10001011, // Q --.-
	0b01100010, // R .-.
	0b01100000, // S ...
	0b00100001, // T -
	0b01100100, // U ..-
	0b10001000, // V ...-
	0b01100110, // W .--
	0b10001001, // X -..-
	0b10001101, // Y -.--
	0b10000011, // Z --..
	0b10101010, // + .-.-.
	0b11110011, // , --..--
	0b11100001, // - -....-
	0b11101010, // . .-.-.-
	0b10101001, // / -..-.
	0b10111111, // 0 -----
	0b10111110, // 1 .----
	0b10111100, // 2 ..---
	0b10111000, // 3 ...--
	0b10110000, // 4 ....-
	0b10100000, // 5 .....
	0b10100001, // 6 -....
	0b10100011, // 7 --...
	0b10100111, // 8 ---..
	0b10101111, // 9 ----.
	0b11000111, // : ---...
	0b11010101, // ; -.-.-.
	0b10110001, // = -...-
	0b11001100, // ? ..--..
	0b11110101, // ! -.-.--
}

// Characters outside the contiguous band, each with its own slot.
var stragglers = map[byte]int{
	'=': 43,
	'?': 44,
	'!': 45,
}

// Elements returns the number of dits and dahs, 0 for Silence.
func (s Symbol) Elements() int {
	if s&sixElementMark == sixElementMark {
		return 6
	}

	return int(s&countMask) >> countShift
}

// Pattern returns the element bits, first element in bit 0.
func (s Symbol) Pattern() uint8 {
	if s.Elements() == 6 {
		return uint8(s) &^ sixElementMark
	}

	return uint8(s) &^ countMask
}

func (s Symbol) String() string {
	var sb strings.Builder

	var reg = s.Pattern()
	for range s.Elements() {
		if reg&1 != 0 {
			sb.WriteByte('-')
		} else {
			sb.WriteByte('.')
		}
		reg >>= 1
	}

	return sb.String()
}

/*-------------------------------------------------------------------
 *
 * Name:        Lookup
 *
 * Purpose:    	Given a character, find its packed symbol.
 *
 * Inputs:	ch
 *
 * Returns:	Packed symbol or Silence if not found.
 *		Notice that space is not in the table.
 *		Any unusual character ends up being treated like space.
 *
 *--------------------------------------------------------------------*/

func Lookup(ch byte) Symbol {
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}

	switch {
	case ch >= 'A' && ch <= 'Z':
		return MORSE[letterBase+int(ch-'A')]
	case ch >= bandFirst && ch <= bandLast:
		return MORSE[bandBase+int(ch-bandFirst)]
	}

	if i, ok := stragglers[ch]; ok {
		return MORSE[i]
	}

	return Silence
}

// LookupRune is Lookup for anything that came from a Go string.
func LookupRune(r rune) Symbol {
	if r < 0 || r > 0x7f {
		return Silence
	}

	return Lookup(byte(r))
}

/*-------------------------------------------------------------------
 *
 * Name:        Units
 *
 * Purpose:    	Find number of time units for a character.
 *
 * Returns:	1 for E (.)
 *		3 for T (-)
 *		3 for I (..)
 *		etc.
 *
 *		0 for Silence.  The gap that follows is not included.
 *
 *--------------------------------------------------------------------*/

func Units(s Symbol) int {
	var n = s.Elements()
	if n == 0 {
		return 0
	}

	var units = n - 1
	var reg = s.Pattern()

	for range n {
		if reg&1 != 0 {
			units += 3
		} else {
			units++
		}
		reg >>= 1
	}

	return units
}

/*-------------------------------------------------------------------
 *
 * Name:        MessageUnits
 *
 * Purpose:    	Find number of time units the engine spends keying
 *		a message, gaps included.
 *
 * Returns:	4 for E		(1 + 3)
 *		8 for EE	(1 + 3 + 1 + 3)
 *		15 for E E	(1 + 3 + 7 + 1 + 3)
 *
 *--------------------------------------------------------------------*/

func MessageUnits(text string) int {
	var units = 0

	for _, r := range text {
		var s = LookupRune(r)
		if s == Silence {
			units += 7
		} else {
			units += Units(s) + 3
		}
	}

	return units
}
