package match

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Template returns a Transform that expands a sed-style replacement
// template against each match: \1 through \9 expand to capture groups,
// & to the full match, \& to a literal ampersand, \\ to a backslash,
// and \n, \t to newline and tab. Unmatched groups expand to "".
func Template(tmpl string) Transform {
	return func(m Result) string {
		var b strings.Builder
		b.Grow(len(tmpl))
		for i := 0; i < len(tmpl); i++ {
			ch := tmpl[i]
			switch ch {
			case '\\':
				if i+1 >= len(tmpl) {
					b.WriteByte('\\')
					break
				}
				next := tmpl[i+1]
				switch {
				case next >= '1' && next <= '9':
					b.WriteString(m.Capture(int(next - '0')))
				case next == 'n':
					b.WriteByte('\n')
				case next == 't':
					b.WriteByte('\t')
				default:
					b.WriteByte(next)
				}
				i++
			case '&':
				b.WriteString(m.FullMatch)
			default:
				b.WriteByte(ch)
			}
		}
		return b.String()
	}
}

// Transliterate maps every rune of buf that appears in from to the rune at
// the same position in to, after expanding a-z style ranges in both. When
// to is shorter than from its last rune pads the tail; an empty to deletes
// the mapped runes. Returns the rewritten buffer and the number of runes
// changed or deleted.
func Transliterate(buf, from, to string) (string, int, error) {
	fromRunes, err := expandRanges(from)
	if err != nil {
		return buf, 0, errors.Errorf("expanding source set: %w", err)
	}
	toRunes, err := expandRanges(to)
	if err != nil {
		return buf, 0, errors.Errorf("expanding replacement set: %w", err)
	}

	const deleted = rune(-1)
	mapping := make(map[rune]rune, len(fromRunes))
	for i, fr := range fromRunes {
		switch {
		case i < len(toRunes):
			mapping[fr] = toRunes[i]
		case len(toRunes) > 0:
			mapping[fr] = toRunes[len(toRunes)-1]
		default:
			mapping[fr] = deleted
		}
	}

	var b strings.Builder
	b.Grow(len(buf))
	n := 0
	for _, r := range buf {
		rep, ok := mapping[r]
		if !ok || rep == r {
			b.WriteRune(r)
			continue
		}
		n++
		if rep != deleted {
			b.WriteRune(rep)
		}
	}
	return b.String(), n, nil
}

// expandRanges turns "a-cx" into ['a','b','c','x']. A leading or trailing
// '-' is literal. Reversed ranges are rejected.
func expandRanges(set string) ([]rune, error) {
	runes := []rune(set)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		if runes[i] == '-' && i > 0 && i+1 < len(runes) {
			lo, hi := out[len(out)-1], runes[i+1]
			if hi < lo {
				return nil, errors.Errorf("reversed range %c-%c", lo, hi)
			}
			for r := lo + 1; r <= hi; r++ {
				out = append(out, r)
			}
			i++
			continue
		}
		out = append(out, runes[i])
	}
	return out, nil
}
