package clipboard

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// rtfSkipDestinations are groups whose content is never visible text.
var rtfSkipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "header": true, "headerl": true, "headerr": true, "headerf": true,
	"footer": true, "footerl": true, "footerr": true, "footerf": true,
	"listtable": true, "listoverridetable": true, "rsidtbl": true, "generator": true,
	"xmlnstbl": true, "themedata": true, "colorschememapping": true, "datastore": true,
	"latentstyles": true, "pgdsctbl": true, "object": true, "fldinst": true,
	"bkmkstart": true, "bkmkend": true, "annotation": true, "expandedcolortbl": true,
}

// rtfSymbols maps control words to the text they stand for.
var rtfSymbols = map[string]string{
	"par":       "\n",
	"line":      "\n",
	"sect":      "\n",
	"page":      "\n",
	"row":       "\n",
	"cell":      "\t",
	"tab":       "\t",
	"emdash":    "\u2014",
	"endash":    "\u2013",
	"emspace":   " ",
	"enspace":   " ",
	"qmspace":   " ",
	"bullet":    "\u2022",
	"lquote":    "\u2018",
	"rquote":    "\u2019",
	"ldblquote": "\u201C",
	"rdblquote": "\u201D",
}

type rtfGroup struct {
	skip bool
	uc   int
}

// RTFToText extracts the visible text of an RTF document. It understands
// groups, ignorable destinations, \uN escapes with their fallback characters
// and \'hh bytes in the Windows-1252 code page. Malformed input never fails;
// whatever text can be recovered is returned.
func RTFToText(data []byte) string {
	var b strings.Builder
	stack := []rtfGroup{{uc: 1}}
	top := func() *rtfGroup { return &stack[len(stack)-1] }

	fallback := 0 // characters still to skip after a \uN escape
	var high rune // pending UTF-16 high surrogate
	flushHigh := func() {
		if high != 0 {
			b.WriteRune(utf8.RuneError)
			high = 0
		}
	}
	emit := func(s string) {
		if top().skip {
			return
		}
		if fallback > 0 {
			fallback--
			return
		}
		flushHigh()
		b.WriteString(s)
	}
	emitRune := func(r rune) {
		switch {
		case utf16.IsSurrogate(r) && r < 0xDC00:
			flushHigh()
			high = r
		case utf16.IsSurrogate(r) && high != 0:
			b.WriteRune(utf16.DecodeRune(high, r))
			high = 0
		default:
			flushHigh()
			b.WriteRune(r)
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '{':
			stack = append(stack, *top())
		case '}':
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			fallback = 0
		case '\r', '\n':
			// raw line breaks are not content
		case '\\':
			if i+1 >= len(data) {
				continue
			}
			next := data[i+1]
			switch {
			case next == '\\' || next == '{' || next == '}':
				emit(string(next))
				i++
			case next == '\'':
				if i+3 < len(data) {
					if v, ok := hexByte(data[i+2], data[i+3]); ok {
						emit(string(charmap.Windows1252.DecodeByte(v)))
					}
					i += 3
				} else {
					i = len(data)
				}
			case next == '*':
				top().skip = true
				i++
			case next == '~':
				emit("\u00A0")
				i++
			case next == '_':
				emit("-")
				i++
			case next == '-':
				i++
			case next == '\r' || next == '\n':
				emit("\n")
				i++
			case isASCIILetter(next):
				j := i + 1
				for j < len(data) && isASCIILetter(data[j]) {
					j++
				}
				word := string(data[i+1 : j])
				param, hasParam := 0, false
				neg := false
				if j < len(data) && data[j] == '-' {
					neg = true
					j++
				}
				for j < len(data) && data[j] >= '0' && data[j] <= '9' {
					param = param*10 + int(data[j]-'0')
					hasParam = true
					j++
				}
				if neg {
					param = -param
				}
				if j < len(data) && data[j] == ' ' {
					j++
				}
				i = j - 1

				switch {
				case rtfSkipDestinations[word]:
					top().skip = true
				case word == "uc" && hasParam:
					top().uc = param
				case word == "u" && hasParam:
					if param < 0 {
						param += 65536
					}
					if !top().skip {
						emitRune(rune(param))
						fallback = top().uc
					}
				default:
					if s, ok := rtfSymbols[word]; ok {
						emit(s)
					}
				}
			default:
				i++
			}
		default:
			if c >= 0x80 {
				emit(string(charmap.Windows1252.DecodeByte(c)))
			} else {
				emit(string(c))
			}
		}
	}
	flushHigh()
	return b.String()
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexVal(hi)
	l, ok2 := hexVal(lo)
	return h<<4 | l, ok1 && ok2
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
