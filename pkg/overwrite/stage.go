package overwrite

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// tempTag names the deterministic staging file next to the target,
	// keeping the final rename on one filesystem.
	tempTag = ".ovw.tmp"
	// holdingTag names the disposable location the original moves to
	// when no backup is requested.
	holdingTag = ".ovw.old"
)

func (s *Session) tempPath() string {
	return s.target + tempTag
}

func (s *Session) holdingPath() string {
	return s.target + holdingTag
}

// targetPerm mirrors the target's permission bits onto the files that
// may replace it.
func (s *Session) targetPerm() os.FileMode {
	info, err := os.Stat(s.target)
	if err != nil {
		return 0644
	}
	return info.Mode().Perm()
}

// readOriginal loads the target, decodes it with the input charset, and
// applies the transfer representability check.
func (s *Session) readOriginal(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(s.target)
	if err != nil {
		return "", errors.Errorf("reading %s: %w", s.target, err)
	}
	text, err := s.opts.Codec.DecodeInput(raw)
	if err != nil {
		return "", errors.Errorf("decoding %s: %w", s.target, err)
	}
	text, err = s.opts.Codec.Normalize(text)
	if err != nil {
		return "", errors.Errorf("normalizing %s: %w", s.target, err)
	}
	return text, nil
}

// discardPending warns about and drops pending content before a mode
// switch. Entering from Fresh is silent.
func (s *Session) discardPending(ctx context.Context, next Mode) error {
	if s.mode == ModeFresh {
		return nil
	}

	zerolog.Ctx(ctx).Warn().
		Str("target", s.target).
		Str("pending", s.mode.String()).
		Str("next", next.String()).
		Msg("switching staging mode discards pending content")

	if s.mode == ModeStreaming {
		if err := os.Remove(s.tempPath()); err != nil && !os.IsNotExist(err) {
			return errors.Errorf("removing temp file: %w", err)
		}
	}
	s.buffer = ""
	s.lines = nil
	s.mode = ModeFresh
	return nil
}

// enterBuffer makes ModeBuffer the active stage: composing when already
// in buffer mode, reading the original file on first entry, discarding
// pending content from any other mode first.
func (s *Session) enterBuffer(ctx context.Context) error {
	if s.mode == ModeBuffer {
		return nil
	}
	if err := s.discardPending(ctx, ModeBuffer); err != nil {
		return err
	}
	text, err := s.readOriginal(ctx)
	if err != nil {
		return err
	}
	s.buffer = text
	s.mode = ModeBuffer
	return nil
}

// enterLines mirrors enterBuffer for line mode.
func (s *Session) enterLines(ctx context.Context) error {
	if s.mode == ModeLines {
		return nil
	}
	if err := s.discardPending(ctx, ModeLines); err != nil {
		return err
	}
	text, err := s.readOriginal(ctx)
	if err != nil {
		return err
	}
	s.lines = splitLines(text)
	s.mode = ModeLines
	return nil
}

// splitLines cuts text after every newline and drops the phantom empty
// tail, so joining with no separator round-trips the exact bytes.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinLines is the inverse of splitLines.
func joinLines(lines []string) string {
	return strings.Join(lines, "")
}

// stageText is the pending content of a buffer or line stage.
func (s *Session) stageText() string {
	if s.mode == ModeLines {
		return joinLines(s.lines)
	}
	return s.buffer
}
