package ember

import "regexp"

// Render wraps text with the ANSI escape sequences described by style, per
// spec §6's wire format: foreground "ESC[38;5;Nm", background
// "ESC[48;5;Nm", intensity "ESC[1m"/"ESC[2m", styles "ESC[4m" (underline),
// "ESC[3m" (italic), "ESC[9m" (strike), reset "ESC[0m".
//
// This is the pure-function ANSI renderer from spec §4, modeled on the
// teacher's ansiPrinter.emitEscape (prose.go), generalized from a single SGR
// parameter per call to the full LevelStyle tuple.
func Render(text string, style LevelStyle) []byte {
	b := newBuffer()
	defer b.Release()

	writeSGR(b, style)
	b.WriteString(text)
	writeReset(b)

	out := make([]byte, len(*b))
	copy(out, *b)
	return out
}

func writeSGR(b *buffer, style LevelStyle) {
	writeEscape(b, "38;5;", style.Foreground)
	if style.HasBg {
		writeEscape(b, "48;5;", style.Background)
	}
	switch style.Intensity {
	case IntensityBold:
		b.WriteString("\x1b[1m")
	case IntensityDim:
		b.WriteString("\x1b[2m")
	}
	if style.hasStyle(StyleUnderline) {
		b.WriteString("\x1b[4m")
	}
	if style.hasStyle(StyleItalic) {
		b.WriteString("\x1b[3m")
	}
	if style.hasStyle(StyleStrike) {
		b.WriteString("\x1b[9m")
	}
}

func writeEscape(b *buffer, prefix string, code uint8) {
	b.WriteString("\x1b[")
	b.WriteString(prefix)
	*b = appendUint(*b, uint64(code))
	b.WriteByte('m')
}

func writeReset(b *buffer) {
	b.WriteString("\x1b[0m")
}

func appendUint(b []byte, v uint64) []byte {
	if v == 0 {
		return append(b, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(b, tmp[i:]...)
}

// Dim returns a dimmed variant of style, used by the formatter when
// color_all_fields is set (spec §4.2 step 6).
func Dim(style LevelStyle) LevelStyle {
	out := style
	out.Intensity = IntensityDim
	return out
}

// ansiMatcher is a conservative matcher for "ESC [ ... <letter>" CSI
// sequences, per spec §6's strip contract.
var ansiMatcher = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

// Strip removes ANSI CSI sequences from b. strip(strip(x)) == strip(x) and
// strip(plain ASCII) == the input unchanged, per spec §8 invariant 6.
func Strip(b []byte) []byte {
	return ansiMatcher.ReplaceAll(b, nil)
}

// StripString is the string convenience form of Strip.
func StripString(s string) string {
	return string(Strip([]byte(s)))
}

// Escape renders text as a literal, un-styled run (no escape codes); it
// exists so formatters can treat "no style" and "styled" uniformly.
func Escape(text string) []byte {
	return []byte(text)
}
