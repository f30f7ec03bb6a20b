package clnbrd

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

const zeroWidthJoiner = '\u200D'

// emojiScalars covers pictographs and the BMP symbols that render as emoji.
// ASCII keycap bases are deliberately absent.
var emojiScalars = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00A9, Hi: 0x00A9, Stride: 1},
		{Lo: 0x00AE, Hi: 0x00AE, Stride: 1},
		{Lo: 0x203C, Hi: 0x203C, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x2199, Stride: 1},
		{Lo: 0x21A9, Hi: 0x21AA, Stride: 1},
		{Lo: 0x231A, Hi: 0x231B, Stride: 1},
		{Lo: 0x2328, Hi: 0x2328, Stride: 1},
		{Lo: 0x23CF, Hi: 0x23CF, Stride: 1},
		{Lo: 0x23E9, Hi: 0x23F3, Stride: 1},
		{Lo: 0x23F8, Hi: 0x23FA, Stride: 1},
		{Lo: 0x24C2, Hi: 0x24C2, Stride: 1},
		{Lo: 0x25AA, Hi: 0x25AB, Stride: 1},
		{Lo: 0x25B6, Hi: 0x25B6, Stride: 1},
		{Lo: 0x25C0, Hi: 0x25C0, Stride: 1},
		{Lo: 0x25FB, Hi: 0x25FE, Stride: 1},
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2B05, Hi: 0x2B07, Stride: 1},
		{Lo: 0x2B1B, Hi: 0x2B1C, Stride: 1},
		{Lo: 0x2B50, Hi: 0x2B50, Stride: 1},
		{Lo: 0x2B55, Hi: 0x2B55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303D, Hi: 0x303D, Stride: 1},
		{Lo: 0x3297, Hi: 0x3297, Stride: 1},
		{Lo: 0x3299, Hi: 0x3299, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F000, Hi: 0x1FAFF, Stride: 1},
	},
	LatinOffset: 2,
}

// isEmojiGlue reports scalars that only exist to shape an emoji sequence.
func isEmojiGlue(r rune) bool {
	return r == '\uFE0F' || r == '\u20E3' || (r >= 0xE0020 && r <= 0xE007F)
}

// IsEmoji reports whether r is a scalar the emoji pass removes on its own.
func IsEmoji(r rune) bool {
	return unicode.Is(emojiScalars, r) || isEmojiGlue(r)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// stripEmoji removes emoji graphemes. Whole clusters known to gomoji go first so
// ZWJ, skin tone and flag sequences leave nothing behind; stray scalars are then
// filtered one by one. Bytes that are not valid UTF-8 are copied through.
func stripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	dropped := false
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)

		if !isASCII(cluster) && gomoji.ContainsEmoji(cluster) {
			dropped = true
			continue
		}

		for i := 0; i < len(cluster); {
			r, size := utf8.DecodeRuneInString(cluster[i:])
			switch {
			case r == utf8.RuneError && size == 1:
				b.WriteByte(cluster[i])
				dropped = false
			case isEmojiGlue(r):
				// dropped unconditionally, does not end a sequence
			case r == zeroWidthJoiner:
				if !dropped {
					b.WriteRune(r)
				}
			case unicode.Is(emojiScalars, r):
				dropped = true
			default:
				b.WriteString(cluster[i : i+size])
				dropped = false
			}
			i += size
		}
	}
	return b.String()
}
