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
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// compareChunk is the read size for the byte comparison in Commit.
const compareChunk = 64 * 1024

// 🏁 CommitStatus distinguishes the three documented commit results.
type CommitStatus int

const (
	// StatusUntouched reports that staging was never entered: commit
	// performed no I/O and the session stays usable.
	StatusUntouched CommitStatus = iota
	// StatusIdentical reports staged output byte-identical to the
	// target: no backup written, optional timestamp touch.
	StatusIdentical
	// StatusReplaced reports that the target was swapped for the staged
	// content.
	StatusReplaced
)

// String returns a string representation of the commit status
func (c CommitStatus) String() string {
	switch c {
	case StatusUntouched:
		return "untouched"
	case StatusIdentical:
		return "identical"
	case StatusReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// 📦 Outcome is the result of a commit.
type Outcome struct {
	Status     CommitStatus
	BackupPath string      // resolved backup location, "" when none
	Sizes      *SizeReport // set on replacing commits when requested
}

// Commit materializes the staged content into the temp file, compares it
// against the target, and performs the backup-then-rename swap. With
// nothing staged it performs no I/O and reports StatusUntouched, leaving
// the session usable; otherwise the session is sealed whatever the
// result. Dry-run walks the same decisions and reports the same paths
// and sizes but suppresses every mutation.
func (s *Session) Commit(ctx context.Context) (Outcome, error) {
	return s.commit(ctx, "")
}

// CommitWithBackup is Commit with a one-off backup path that wins over
// the session policy for this commit only.
func (s *Session) CommitWithBackup(ctx context.Context, backupOverride string) (Outcome, error) {
	return s.commit(ctx, backupOverride)
}

func (s *Session) commit(ctx context.Context, backupOverride string) (Outcome, error) {
	logger := zerolog.Ctx(ctx)

	switch s.mode {
	case ModeCompleted:
		return Outcome{}, ErrCompleted
	case ModeFresh:
		logger.Debug().Str("target", s.target).Msg("nothing staged; target untouched")
		return Outcome{Status: StatusUntouched}, nil
	}

	// Materialize the stage. A streaming stage already wrote the temp
	// file; buffer and line stages encode and write it now.
	tempPath := s.tempPath()
	if s.mode != ModeStreaming {
		raw, err := s.opts.Codec.EncodeOutput(s.stageText())
		if err != nil {
			return Outcome{}, errors.Errorf("encoding staged content: %w", err)
		}
		if err := os.WriteFile(tempPath, raw, s.targetPerm()); err != nil {
			s.cleanupTemp(tempPath)
			return Outcome{}, errors.Errorf("writing temp file: %w", err)
		}
	}

	oldInfo, err := os.Stat(s.target)
	if err != nil {
		s.cleanupTemp(tempPath)
		return Outcome{}, errors.Errorf("inspecting target: %w", err)
	}
	newInfo, err := os.Stat(tempPath)
	if err != nil {
		s.cleanupTemp(tempPath)
		return Outcome{}, errors.Errorf("inspecting temp file: %w", err)
	}

	if newInfo.Size() == 0 && oldInfo.Size() > 0 {
		logger.Warn().
			Str("target", s.target).
			Msg("staged content is empty; committing truncates the file")
	}

	var sizes *SizeReport
	if s.opts.ReportSizes || s.opts.Verbose {
		sizes = &SizeReport{OldBytes: oldInfo.Size(), NewBytes: newInfo.Size()}
	}

	// Size fast-path, then chunked compare.
	same := oldInfo.Size() == newInfo.Size()
	if same {
		same, err = equalFileContent(s.target, tempPath)
		if err != nil {
			s.cleanupTemp(tempPath)
			return Outcome{}, err
		}
	}

	if same {
		if err := os.Remove(tempPath); err != nil {
			return Outcome{}, errors.Errorf("removing temp file: %w", err)
		}
		if s.opts.ForceTimestamp {
			if s.opts.DryRun {
				logger.Info().Str("target", s.target).Msg("dry-run: would update modification time")
			} else {
				now := time.Now()
				if err := os.Chtimes(s.target, now, now); err != nil {
					return Outcome{}, errors.Errorf("updating modification time: %w", err)
				}
			}
		}
		s.freeze()
		logger.Info().
			Str("target", s.target).
			Bool("dry_run", s.opts.DryRun).
			Bool("touched", s.opts.ForceTimestamp).
			Msg("content identical; target kept")
		return Outcome{Status: StatusIdentical}, nil
	}

	// Content differs: decide where the original goes before touching
	// anything.
	backupPath := s.backup.Resolve(s.target, backupOverride, time.Now())
	if backupPath == "" && s.opts.AllowClobber {
		logger.Warn().
			Str("target", s.target).
			Msg("clobber permission is ignored when backups are disabled")
	}

	if backupPath != "" {
		if _, err := os.Lstat(backupPath); err == nil {
			if !s.opts.AllowClobber {
				s.cleanupTemp(tempPath)
				return Outcome{}, errors.Errorf("backup %s: %w", backupPath, ErrBackupExists)
			}
			logger.Debug().Str("backup", backupPath).Msg("replacing existing backup")
		} else if !os.IsNotExist(err) {
			s.cleanupTemp(tempPath)
			return Outcome{}, errors.Errorf("inspecting backup path: %w", err)
		}
	}

	if s.opts.DryRun {
		if err := os.Remove(tempPath); err != nil {
			return Outcome{}, errors.Errorf("removing temp file: %w", err)
		}
		s.recordSizes(sizes)
		s.freeze()
		logger.Info().
			Str("target", s.target).
			Str("backup", backupPath).
			Msg("dry-run: would replace file")
		return Outcome{Status: StatusReplaced, BackupPath: backupPath, Sizes: sizes}, nil
	}

	// Move the original out of the way: to its backup, or to the
	// disposable holding path when no backup is requested.
	movedTo := backupPath
	if backupPath != "" {
		if err := os.Rename(s.target, backupPath); err != nil {
			s.cleanupTemp(tempPath)
			return Outcome{}, errors.Errorf("moving original to backup: %w", err)
		}
	} else {
		movedTo = s.holdingPath()
		if err := os.Rename(s.target, movedTo); err != nil {
			s.cleanupTemp(tempPath)
			return Outcome{}, errors.Errorf("moving original aside: %w", err)
		}
	}

	// The atomic replacement point. On failure nothing is rolled back:
	// the original is safe at movedTo and the temp file holds the only
	// copy of the new content, so both are preserved for manual
	// recovery.
	if err := os.Rename(tempPath, s.target); err != nil {
		s.freeze()
		return Outcome{}, &ReplaceError{
			TempPath:    tempPath,
			TargetPath:  s.target,
			HoldingPath: movedTo,
			Err:         err,
		}
	}

	if backupPath == "" {
		if err := os.Remove(movedTo); err != nil {
			logger.Warn().
				Str("holding", movedTo).
				Err(err).
				Msg("could not remove holding copy of the original")
		}
	}

	s.recordSizes(sizes)
	s.freeze()

	evt := logger.Info().Str("target", s.target)
	if backupPath != "" {
		evt = evt.Str("backup", backupPath)
	}
	if sizes != nil {
		evt = evt.Int64("old_bytes", sizes.OldBytes).Int64("new_bytes", sizes.NewBytes)
	}
	evt.Msg("file replaced")

	return Outcome{Status: StatusReplaced, BackupPath: backupPath, Sizes: sizes}, nil
}

// recordSizes keeps the size report of a replacing commit on the session.
func (s *Session) recordSizes(sizes *SizeReport) {
	if sizes == nil {
		return
	}
	s.sizes = *sizes
	s.hasSizes = true
}

// freeze seals the session; every later mutating call sees ModeCompleted.
func (s *Session) freeze() {
	s.buffer = ""
	s.lines = nil
	s.mode = ModeCompleted
}

// cleanupTemp undoes a commit-written temp file after a recoverable
// failure. A streaming stage IS the temp file, so it survives for a
// retried commit or an explicit Reset.
func (s *Session) cleanupTemp(tempPath string) {
	if s.mode == ModeStreaming {
		return
	}
	_ = os.Remove(tempPath)
}

// equalFileContent compares two files chunk by chunk. Differing lengths
// report false even though callers check sizes first.
func equalFileContent(pathA, pathB string) (bool, error) {
	fa, err := os.Open(pathA)
	if err != nil {
		return false, errors.Errorf("opening %s: %w", pathA, err)
	}
	defer fa.Close()
	fb, err := os.Open(pathB)
	if err != nil {
		return false, errors.Errorf("opening %s: %w", pathB, err)
	}
	defer fb.Close()

	bufA := make([]byte, compareChunk)
	bufB := make([]byte, compareChunk)
	for {
		na, errA := fa.Read(bufA)
		if na > 0 {
			if _, err := io.ReadFull(fb, bufB[:na]); err != nil {
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					return false, nil
				}
				return false, errors.Errorf("reading %s: %w", pathB, err)
			}
			if !bytes.Equal(bufA[:na], bufB[:na]) {
				return false, nil
			}
		}
		if errA == io.EOF {
			if _, err := fb.Read(bufB[:1]); err == io.EOF {
				return true, nil
			} else if err != nil {
				return false, errors.Errorf("reading %s: %w", pathB, err)
			}
			return false, nil
		}
		if errA != nil {
			return false, errors.Errorf("reading %s: %w", pathA, errA)
		}
	}
}
