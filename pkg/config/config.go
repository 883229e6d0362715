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

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"fortio.org/safecast"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/masasakano/file-overwrite/pkg/backup"
	"github.com/masasakano/file-overwrite/pkg/match"
	"github.com/masasakano/file-overwrite/pkg/textenc"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔄 Rule describes one substitution to run against a target file.
// Pattern is a regexp, or plain text when Literal; Template is its
// replacement, sed-style for regexp rules and verbatim for literal
// ones. All selects replace-all over replace-first, bounded by Max
// (<= 0 means unbounded). Files holds doublestar globs scoping the
// rule to matching targets; empty applies everywhere.
type Rule struct {
	Name     string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	Pattern  string   `json:"pattern" yaml:"pattern" toml:"pattern"`
	Literal  bool     `json:"literal,omitempty" yaml:"literal,omitempty" toml:"literal"`
	Template string   `json:"template" yaml:"template" toml:"template"`
	All      bool     `json:"all,omitempty" yaml:"all,omitempty" toml:"all"`
	Max      int64    `json:"max,omitempty" yaml:"max,omitempty" toml:"max"`
	Files    []string `json:"files,omitempty" yaml:"files,omitempty" toml:"files"`
}

// 💾 BackupArgs configures what happens to the displaced original: an
// explicit path, a literal suffix, a timestamped suffix, or nothing.
type BackupArgs struct {
	Path      string `json:"path,omitempty" yaml:"path,omitempty" toml:"path"`
	Suffix    string `json:"suffix,omitempty" yaml:"suffix,omitempty" toml:"suffix"`
	Timestamp bool   `json:"timestamp,omitempty" yaml:"timestamp,omitempty" toml:"timestamp"`
	Disabled  bool   `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled"`
}

// 🔤 EncodingArgs names the charsets for reading and writing targets
type EncodingArgs struct {
	Input    string `json:"input,omitempty" yaml:"input,omitempty" toml:"input"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty" toml:"output"`
	Transfer string `json:"transfer,omitempty" yaml:"transfer,omitempty" toml:"transfer"`
}

// 📚 Config represents the complete rule-file configuration
type Config struct {
	Rules          []Rule        `json:"rules" yaml:"rules" toml:"rules"`
	Backup         *BackupArgs   `json:"backup,omitempty" yaml:"backup,omitempty" toml:"backup"`
	Encoding       *EncodingArgs `json:"encoding,omitempty" yaml:"encoding,omitempty" toml:"encoding"`
	AllowClobber   bool          `json:"allow_clobber,omitempty" yaml:"allow_clobber,omitempty" toml:"allow_clobber"`
	ForceTimestamp bool          `json:"force_timestamp,omitempty" yaml:"force_timestamp,omitempty" toml:"force_timestamp"`
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if len(cfg.Rules) == 0 {
		return errors.Errorf("config defines no rules")
	}

	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		if r.Pattern == "" {
			return errors.Errorf("rule %s: pattern is required", r.DisplayName())
		}
		if _, err := r.Compile(); err != nil {
			return err
		}
		for _, glob := range r.Files {
			if !doublestar.ValidatePattern(glob) {
				return errors.Errorf("rule %s: invalid file glob %q", r.DisplayName(), glob)
			}
		}
	}

	if b := cfg.Backup; b != nil {
		if b.Disabled && (b.Path != "" || b.Suffix != "" || b.Timestamp) {
			return errors.Errorf("backup.disabled contradicts the other backup settings")
		}
		if b.Suffix != "" && b.Timestamp {
			return errors.Errorf("backup.suffix and backup.timestamp are mutually exclusive")
		}
	}

	logger.Debug().Int("rules", len(cfg.Rules)).Msg("configuration validated")
	return nil
}

// 🎯 RulesFor returns the rules that apply to the given target path. A
// rule with no file globs applies everywhere; otherwise any glob may
// match the full path or its base name.
func (cfg *Config) RulesFor(path string) ([]Rule, error) {
	slash := filepath.ToSlash(path)
	base := filepath.Base(path)

	var out []Rule
	for _, r := range cfg.Rules {
		if len(r.Files) == 0 {
			out = append(out, r)
			continue
		}
		for _, glob := range r.Files {
			matched, err := doublestar.Match(glob, slash)
			if err != nil {
				return nil, errors.Errorf("rule %s: matching %q: %w", r.DisplayName(), glob, err)
			}
			if !matched {
				matched, err = doublestar.Match(glob, base)
				if err != nil {
					return nil, errors.Errorf("rule %s: matching %q: %w", r.DisplayName(), glob, err)
				}
			}
			if matched {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

// 💾 BackupPolicy bridges the config to a backup.Policy
func (cfg *Config) BackupPolicy() backup.Policy {
	if cfg.Backup == nil {
		return backup.Policy{}
	}
	return cfg.Backup.Policy()
}

// Policy converts the raw arguments to a backup.Policy. Disabled wins;
// an explicit path wins over any suffix.
func (b *BackupArgs) Policy() backup.Policy {
	if b.Disabled {
		return backup.Policy{Suffix: backup.None()}
	}
	p := backup.Policy{Path: b.Path}
	switch {
	case b.Timestamp:
		p.Suffix = backup.Timestamped()
	case b.Suffix != "":
		p.Suffix = backup.Literal(b.Suffix)
	}
	return p
}

// 🔤 Codec bridges the config to a textenc.Codec
func (cfg *Config) Codec() textenc.Codec {
	if cfg.Encoding == nil {
		return textenc.Codec{}
	}
	return textenc.Codec{
		Input:    cfg.Encoding.Input,
		Output:   cfg.Encoding.Output,
		Transfer: cfg.Encoding.Transfer,
	}
}

// DisplayName returns the rule's label for reports and errors: the name
// when set, the pattern otherwise.
func (r *Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Pattern
}

// Compile returns the rule's pattern as a regexp. Literal rules are
// quoted so metacharacters match themselves.
func (r *Rule) Compile() (*regexp.Regexp, error) {
	pattern := r.Pattern
	if r.Literal {
		pattern = regexp.QuoteMeta(pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("rule %s: compiling pattern: %w", r.DisplayName(), err)
	}
	return re, nil
}

// Transform returns the replacement function for the rule. Literal
// rules insert the template verbatim; regexp rules expand sed-style
// backreferences through match.Template.
func (r *Rule) Transform() match.Transform {
	if r.Literal {
		text := r.Template
		return func(match.Result) string { return text }
	}
	return match.Template(r.Template)
}

// MaxCount narrows the configured bound to an int for the session API.
// Non-positive means unbounded, reported as zero.
func (r *Rule) MaxCount() (int, error) {
	if r.Max <= 0 {
		return 0, nil
	}
	n, err := safecast.Conv[int](r.Max)
	if err != nil {
		return 0, errors.Errorf("rule %s: max %d out of range: %w", r.DisplayName(), r.Max, err)
	}
	return n, nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	names := make([]string, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		names = append(names, r.DisplayName())
	}
	return fmt.Sprintf("%d rule(s): %s", len(cfg.Rules), strings.Join(names, ", "))
}
