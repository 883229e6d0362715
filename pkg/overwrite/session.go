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

package overwrite

import (
	"context"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/masasakano/file-overwrite/pkg/backup"
	"github.com/masasakano/file-overwrite/pkg/match"
	"github.com/masasakano/file-overwrite/pkg/textenc"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🚦 Mode identifies which staging variant a session currently holds.
type Mode int

const (
	// ModeFresh is the initial state: nothing staged yet.
	ModeFresh Mode = iota
	// ModeStreaming means the temp file already holds finalized stream
	// output. Not chainable.
	ModeStreaming
	// ModeBuffer means pending content is an in-memory string. Chainable.
	ModeBuffer
	// ModeLines means pending content is an ordered line slice. Chainable.
	ModeLines
	// ModeCompleted is terminal: the session is frozen.
	ModeCompleted
)

// String returns a string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeFresh:
		return "fresh"
	case ModeStreaming:
		return "streaming"
	case ModeBuffer:
		return "buffer"
	case ModeLines:
		return "lines"
	case ModeCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// 🔧 Options is the session configuration snapshot. It is fixed for the
// session lifetime; the encodings survive Reset, unlike staged content.
type Options struct {
	DryRun         bool          // decide and report, but leave the filesystem alone
	Verbose        bool          // log commit decisions and compute sizes
	AllowClobber   bool          // permit overwriting an existing backup file
	ForceTimestamp bool          // touch the target mtime on identical-content commits
	ReportSizes    bool          // record a SizeReport on replacing commits
	Codec          textenc.Codec // input/output/transfer charsets
}

// 📏 SizeReport carries the byte counts of a replacing commit.
type SizeReport struct {
	OldBytes int64
	NewBytes int64
}

// 🌊 StreamFunc transforms the decoded original content read from r into
// replacement content written to w. Whatever lands in w is encoded into
// the temp file; returning an error aborts and resets the session.
type StreamFunc func(r io.Reader, w io.Writer) error

// 📝 BufferFunc maps the pending text to its replacement.
type BufferFunc func(text string) (string, error)

// 📜 LineFunc maps the pending lines to a LineResult: Lines to stay in
// line mode, Text to collapse to buffer mode.
type LineFunc func(lines []string) (LineResult, error)

// lineKind tags LineResult. The zero value marks a result built neither
// by Lines nor by Text.
type lineKind int

const (
	lineKindInvalid lineKind = iota
	lineKindLines
	lineKindText
)

// 🏷️ LineResult is the tagged result of a LineFunc. Build one with Lines
// or Text; the zero value is rejected with ErrInvalidTransform.
type LineResult struct {
	kind  lineKind
	lines []string
	text  string
}

// Lines keeps the session in line mode with the given lines.
func Lines(lines []string) LineResult {
	return LineResult{kind: lineKindLines, lines: lines}
}

// Text collapses the session to buffer mode with the given text.
func Text(text string) LineResult {
	return LineResult{kind: lineKindText, text: text}
}

// 🎮 Session stages replacement content for one target file and commits
// it atomically. It is a sequential state machine and is not safe for
// concurrent use. Once completed, every mutating method returns
// ErrCompleted; Go cannot revoke a receiver at compile time, so the
// frozen state is enforced by that runtime guard.
type Session struct {
	target string
	mode   Mode

	buffer string   // pending text in ModeBuffer
	lines  []string // pending lines in ModeLines, terminators kept

	backup backup.Policy
	opts   Options

	last    match.Result
	hasLast bool

	sizes    SizeReport
	hasSizes bool
}

// 🏭 New creates a session bound to target. The target must exist and be
// a regular file: commit reads it unconditionally, so failing here beats
// failing later.
func New(ctx context.Context, target string, opts Options) (*Session, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, errors.Errorf("inspecting target: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Errorf("target %s is not a regular file", target)
	}

	zerolog.Ctx(ctx).Debug().
		Str("target", target).
		Bool("dry_run", opts.DryRun).
		Msg("session created")

	return &Session{target: target, mode: ModeFresh, opts: opts}, nil
}

// Target returns the path of the file this session replaces.
func (s *Session) Target() string {
	return s.target
}

// Mode reports the current staging state.
func (s *Session) Mode() Mode {
	return s.mode
}

// Backup returns the active backup policy.
func (s *Session) Backup() backup.Policy {
	return s.backup
}

// SetBackup replaces the backup policy. Valid until the session
// completes.
func (s *Session) SetBackup(p backup.Policy) error {
	if s.mode == ModeCompleted {
		return ErrCompleted
	}
	s.backup = p
	return nil
}

// PreviewBackup reports the backup path the given suffix would produce
// right now, touching neither the session nor the filesystem.
func (s *Session) PreviewBackup(spec backup.SuffixSpec) string {
	return backup.Preview(s.target, spec, time.Now())
}

// LastMatch returns the match recorded by the most recent substitution
// call. The bool is false when that call found nothing, or when no
// substitution ran since the last Reset.
func (s *Session) LastMatch() (match.Result, bool) {
	return s.last, s.hasLast
}

// Sizes returns the byte counts of the replacing commit, when one
// happened and sizes were requested.
func (s *Session) Sizes() (SizeReport, bool) {
	return s.sizes, s.hasSizes
}

// 🌊 Stream stages replacement content through a reader/writer pair: fn
// reads the decoded original from r and writes the replacement to w,
// which lands encoded in the temp file. Stream is not chainable; calling
// it again re-reads the original file, never pending edits, and warns
// about the discarded data.
func (s *Session) Stream(ctx context.Context, fn StreamFunc) error {
	if s.mode == ModeCompleted {
		return ErrCompleted
	}
	if fn == nil {
		return ErrMissingTransform
	}
	if err := s.discardPending(ctx, ModeStreaming); err != nil {
		return err
	}
	if s.opts.Codec.Transfer != "" {
		zerolog.Ctx(ctx).Warn().
			Str("target", s.target).
			Str("transfer", s.opts.Codec.Transfer).
			Msg("transfer encoding does not apply to stream staging; ignored")
	}

	src, err := os.Open(s.target)
	if err != nil {
		return errors.Errorf("opening %s: %w", s.target, err)
	}
	defer src.Close()

	reader, err := s.opts.Codec.DecodeReader(src)
	if err != nil {
		return errors.Errorf("decoding %s: %w", s.target, err)
	}

	tmp, err := os.OpenFile(s.tempPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.targetPerm())
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	writer, err := s.opts.Codec.EncodeWriter(tmp)
	if err != nil {
		tmp.Close()
		os.Remove(s.tempPath())
		return errors.Errorf("encoding temp file: %w", err)
	}

	if err := fn(reader, writer); err != nil {
		tmp.Close()
		s.resetState()
		return errors.Errorf("stream transform: %w", err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		s.resetState()
		return errors.Errorf("flushing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.resetState()
		return errors.Errorf("closing temp file: %w", err)
	}

	s.mode = ModeStreaming
	return nil
}

// 📝 Edit stages buffer mode: the first call hands fn the decoded
// original text, later calls compose on the pending text. Entering from
// stream or line mode discards that pending data with a warning and
// restarts from the original file.
func (s *Session) Edit(ctx context.Context, fn BufferFunc) error {
	if s.mode == ModeCompleted {
		return ErrCompleted
	}
	if fn == nil {
		return ErrMissingTransform
	}
	if err := s.enterBuffer(ctx); err != nil {
		return err
	}

	out, err := fn(s.buffer)
	if err != nil {
		s.resetState()
		return errors.Errorf("buffer transform: %w", err)
	}
	s.buffer = out
	return nil
}

// 📜 EditLines stages line mode: fn receives the pending lines, each
// keeping its own terminator. Returning Lines stays in line mode
// (chainable); returning Text collapses the stage to buffer mode, after
// which line-mode calls restart staging until Reset.
func (s *Session) EditLines(ctx context.Context, fn LineFunc) error {
	if s.mode == ModeCompleted {
		return ErrCompleted
	}
	if fn == nil {
		return ErrMissingTransform
	}
	if err := s.enterLines(ctx); err != nil {
		return err
	}

	res, err := fn(s.lines)
	if err != nil {
		s.resetState()
		return errors.Errorf("line transform: %w", err)
	}
	switch res.kind {
	case lineKindLines:
		s.lines = res.lines
	case lineKindText:
		s.buffer = res.text
		s.lines = nil
		s.mode = ModeBuffer
		zerolog.Ctx(ctx).Debug().
			Str("target", s.target).
			Msg("line transform returned text; stage collapsed to buffer mode")
	default:
		// stage is left as it was; only the failing call aborts
		return ErrInvalidTransform
	}
	return nil
}

// 🔍 ReplaceFirst rewrites the first occurrence of re in the pending
// buffer with fn's result, staging buffer mode first when needed. It
// reports whether a match was found; the match is kept for LastMatch.
func (s *Session) ReplaceFirst(ctx context.Context, re *regexp.Regexp, fn match.Transform) (bool, error) {
	if s.mode == ModeCompleted {
		return false, ErrCompleted
	}
	if fn == nil {
		return false, ErrMissingTransform
	}
	if err := s.enterBuffer(ctx); err != nil {
		return false, err
	}

	out, m, ok := match.ReplaceFirst(s.buffer, re, fn)
	s.buffer = out
	s.last, s.hasLast = m, ok
	return ok, nil
}

// 🔁 ReplaceAll rewrites up to max left-to-right occurrences of re in
// the pending buffer (unbounded when max <= 0) and returns the number of
// substitutions. The last match is kept for LastMatch; a zero count
// means the buffer is unchanged.
func (s *Session) ReplaceAll(ctx context.Context, re *regexp.Regexp, fn match.Transform, max int) (int, error) {
	if s.mode == ModeCompleted {
		return 0, ErrCompleted
	}
	if fn == nil {
		return 0, ErrMissingTransform
	}
	if err := s.enterBuffer(ctx); err != nil {
		return 0, err
	}

	out, m, n := match.ReplaceAll(s.buffer, re, fn, max)
	s.buffer = out
	s.last, s.hasLast = m, n > 0
	return n, nil
}

// 🔀 Transliterate maps runes of the pending buffer from one character
// set to another, with a-z style range expansion, and returns the number
// of runes changed or deleted. It is not a pattern operation and leaves
// LastMatch alone.
func (s *Session) Transliterate(ctx context.Context, from, to string) (int, error) {
	if s.mode == ModeCompleted {
		return 0, ErrCompleted
	}
	if err := s.enterBuffer(ctx); err != nil {
		return 0, err
	}

	out, n, err := match.Transliterate(s.buffer, from, to)
	if err != nil {
		return 0, err
	}
	s.buffer = out
	return n, nil
}

// 👀 Peek reports the content a commit would write, without changing
// state: the decoded original when nothing is staged, the pending text
// in buffer or line mode, the decoded temp file in stream mode.
func (s *Session) Peek(ctx context.Context) (string, error) {
	switch s.mode {
	case ModeCompleted:
		return "", ErrCompleted
	case ModeFresh:
		return s.readOriginal(ctx)
	case ModeBuffer:
		return s.buffer, nil
	case ModeLines:
		return joinLines(s.lines), nil
	case ModeStreaming:
		raw, err := os.ReadFile(s.tempPath())
		if err != nil {
			return "", errors.Errorf("reading temp file: %w", err)
		}
		out := textenc.Codec{Input: s.opts.Codec.EffectiveOutput()}
		text, err := out.DecodeInput(raw)
		if err != nil {
			return "", errors.Errorf("decoding temp file: %w", err)
		}
		return text, nil
	default:
		return "", errors.Errorf("unexpected mode %s", s.mode)
	}
}

// 🔄 Reset discards pending content, removes the temp file, clears the
// last match, and returns the session to Fresh. The options, encodings,
// and backup policy are sticky and survive.
func (s *Session) Reset(ctx context.Context) error {
	if s.mode == ModeCompleted {
		return ErrCompleted
	}
	zerolog.Ctx(ctx).Debug().
		Str("target", s.target).
		Str("mode", s.mode.String()).
		Msg("session reset")
	s.resetState()
	return nil
}

// Close releases the temp file and freezes the session. It is idempotent
// and safe under defer; after a successful Commit it does nothing. The
// one temp file Close never sees is the staged content preserved by a
// failed replace (ReplaceError), because that failure already froze the
// session.
func (s *Session) Close() error {
	if s.mode == ModeCompleted {
		return nil
	}
	s.resetState()
	s.mode = ModeCompleted
	return nil
}

// resetState drops staged content and the temp file. Removal of an
// already-missing temp file is fine.
func (s *Session) resetState() {
	_ = os.Remove(s.tempPath())
	s.buffer = ""
	s.lines = nil
	s.last = match.Result{}
	s.hasLast = false
	s.mode = ModeFresh
}
