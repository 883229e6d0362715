// Package match implements the substitution engine: find the first or all
// (optionally bounded) occurrences of a pattern in a buffer and hand each
// match, with its capture groups and surrounding text, to a caller-supplied
// transform.
package match

import (
	"regexp"
	"strings"
)

// Result describes a single match. PreMatch and PostMatch are relative to
// the buffer as it was when the operation started, so after a bounded
// ReplaceAll the final Result's PostMatch is everything that followed the
// last substituted span in the original text.
type Result struct {
	FullMatch string
	Captures  []string // group 1 at index 0; unmatched groups are ""
	PreMatch  string
	PostMatch string
}

// Capture returns capture group n, 1-based. Capture(0) returns the full
// match. Out-of-range groups return "".
func (r Result) Capture(n int) string {
	if n == 0 {
		return r.FullMatch
	}
	if n < 1 || n > len(r.Captures) {
		return ""
	}
	return r.Captures[n-1]
}

// Transform produces the replacement text for one match. Returning "" is
// valid and deletes the matched span.
type Transform func(Result) string

// resultAt builds a Result from submatch indices relative to buf.
func resultAt(buf string, loc []int) Result {
	r := Result{
		FullMatch: buf[loc[0]:loc[1]],
		PreMatch:  buf[:loc[0]],
		PostMatch: buf[loc[1]:],
	}
	groups := len(loc)/2 - 1
	if groups > 0 {
		r.Captures = make([]string, groups)
		for i := 1; i <= groups; i++ {
			if loc[2*i] >= 0 {
				r.Captures[i-1] = buf[loc[2*i]:loc[2*i+1]]
			}
		}
	}
	return r
}

// FindFirst reports the first match of re in buf, without modifying
// anything. The second return is false when there is no match.
func FindFirst(buf string, re *regexp.Regexp) (Result, bool) {
	loc := re.FindStringSubmatchIndex(buf)
	if loc == nil {
		return Result{}, false
	}
	return resultAt(buf, loc), true
}

// ReplaceFirst replaces the first match of re in buf with fn's result.
// On no match the buffer is returned unchanged and the bool is false;
// callers must check it rather than compare buffers.
func ReplaceFirst(buf string, re *regexp.Regexp, fn Transform) (string, Result, bool) {
	loc := re.FindStringSubmatchIndex(buf)
	if loc == nil {
		return buf, Result{}, false
	}
	m := resultAt(buf, loc)
	return buf[:loc[0]] + fn(m) + buf[loc[1]:], m, true
}

// ReplaceAll replaces up to max left-to-right, non-overlapping matches of
// re in buf (unbounded when max <= 0) and returns the new buffer, the
// Result of the last substitution, and the number of substitutions made.
// A count of zero means no match; the buffer is then returned unchanged.
// Match spans come from one FindAllStringSubmatchIndex pass over the whole
// buffer, so anchors, word boundaries, and empty-match adjacency agree
// with (*regexp.Regexp).ReplaceAllString.
func ReplaceAll(buf string, re *regexp.Regexp, fn Transform, max int) (string, Result, int) {
	lim := -1
	if max > 0 {
		lim = max
	}
	locs := re.FindAllStringSubmatchIndex(buf, lim)
	if len(locs) == 0 {
		return buf, Result{}, 0
	}

	var b strings.Builder
	b.Grow(len(buf))
	var last Result
	pos := 0
	for _, loc := range locs {
		m := resultAt(buf, loc)
		b.WriteString(buf[pos:loc[0]])
		b.WriteString(fn(m))
		last = m
		pos = loc[1]
	}
	b.WriteString(buf[pos:])
	return b.String(), last, len(locs)
}
