// Copyright 2026 Masa Sakano
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package backup decides where the original file is preserved when a
// commit rewrites its target. Resolution is pure; existence and clobber
// checks belong to commit time.
package backup

import (
	"time"
)

// timestampLayout gives the default suffix its one-second resolution.
// Two resolutions within the same second produce the same path.
const (
	timestampLayout = "20060102150405"
	defaultTail     = ".bak"
)

type suffixKind int

const (
	suffixDisabled suffixKind = iota
	suffixTimestamped
	suffixLiteral
)

// SuffixSpec selects how a backup suffix is derived. The zero value is
// disabled (no backup).
type SuffixSpec struct {
	kind    suffixKind
	literal string
}

// Timestamped returns the default suffix spec: ".YYYYMMDDHHMMSS.bak"
// stamped from the resolution instant.
func Timestamped() SuffixSpec {
	return SuffixSpec{kind: suffixTimestamped}
}

// Literal returns a spec appending the given suffix verbatim. An empty
// suffix disables backups.
func Literal(suffix string) SuffixSpec {
	if suffix == "" {
		return SuffixSpec{}
	}
	return SuffixSpec{kind: suffixLiteral, literal: suffix}
}

// None returns the disabled spec.
func None() SuffixSpec {
	return SuffixSpec{}
}

// Enabled reports whether this spec produces a backup path.
func (s SuffixSpec) Enabled() bool {
	return s.kind != suffixDisabled
}

// Apply derives the backup path for target at instant now. Disabled
// specs return "".
func (s SuffixSpec) Apply(target string, now time.Time) string {
	switch s.kind {
	case suffixTimestamped:
		return target + "." + now.Format(timestampLayout) + defaultTail
	case suffixLiteral:
		return target + s.literal
	default:
		return ""
	}
}

// String describes the suffix choice for log output.
func (s SuffixSpec) String() string {
	switch s.kind {
	case suffixTimestamped:
		return ".YYYYMMDDHHMMSS" + defaultTail
	case suffixLiteral:
		return s.literal
	default:
		return "none"
	}
}

// Policy is the session-level backup configuration: an explicit path
// wins over a suffix; a disabled suffix and no path means no backup.
type Policy struct {
	Path   string
	Suffix SuffixSpec
}

// Enabled reports whether the policy produces a backup path at all.
func (p Policy) Enabled() bool {
	return p.Path != "" || p.Suffix.Enabled()
}

// Resolve computes the backup path for target at instant now.
// Precedence: the override argument, then the policy path, then the
// suffix. An empty result means no backup.
func (p Policy) Resolve(target, override string, now time.Time) string {
	if override != "" {
		return override
	}
	if p.Path != "" {
		return p.Path
	}
	return p.Suffix.Apply(target, now)
}

// Preview reports the path a hypothetical suffix would produce for
// target at instant now, touching nothing.
func Preview(target string, spec SuffixSpec, now time.Time) string {
	return spec.Apply(target, now)
}
