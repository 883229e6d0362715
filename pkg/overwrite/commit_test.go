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
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/masasakano/file-overwrite/pkg/backup"
	"github.com/masasakano/file-overwrite/pkg/match"
	"github.com/masasakano/file-overwrite/pkg/textenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestCommit_Untouched(t *testing.T) {
	ctx := testContext(t)
	target := writeTarget(t, []byte(threeLines))
	sess, err := New(ctx, target, Options{})
	require.NoError(t, err)
	defer sess.Close()

	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusUntouched, out.Status)
	assert.Empty(t, out.BackupPath)
	assert.Nil(t, out.Sizes)
	assert.Equal(t, threeLines, readTarget(t, target))
	assert.Equal(t, ModeFresh, sess.Mode(), "untouched commit must not seal the session")

	// the session is still usable for a real pass
	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "second pass\n", nil
	}))
	out, err = sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Equal(t, "second pass\n", readTarget(t, target))
}

func TestCommit_Identical(t *testing.T) {
	past := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name        string
		opts        Options
		wantTouched bool
	}{
		{
			name: "content_match_skips_everything",
			opts: Options{},
		},
		{
			name:        "force_timestamp_touches_mtime",
			opts:        Options{ForceTimestamp: true},
			wantTouched: true,
		},
		{
			name: "dry_run_never_touches_mtime",
			opts: Options{ForceTimestamp: true, DryRun: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			dir := t.TempDir()
			target := filepath.Join(dir, "target.txt")
			require.NoError(t, os.WriteFile(target, []byte(threeLines), 0644))
			require.NoError(t, os.Chtimes(target, past, past))

			sess, err := New(ctx, target, Options{
				DryRun:         tt.opts.DryRun,
				ForceTimestamp: tt.opts.ForceTimestamp,
			})
			require.NoError(t, err)
			defer sess.Close()
			require.NoError(t, sess.SetBackup(backup.Policy{Suffix: backup.Timestamped()}))

			require.NoError(t, sess.Edit(ctx, func(text string) (string, error) {
				return text, nil
			}))

			out, err := sess.Commit(ctx)
			require.NoError(t, err)
			assert.Equal(t, StatusIdentical, out.Status)
			assert.Empty(t, out.BackupPath, "identical commits never write a backup")
			assert.Nil(t, out.Sizes)

			assert.Equal(t, []string{"target.txt"}, dirNames(t, dir),
				"no backup or temp file may be left behind")
			assert.Equal(t, threeLines, readTarget(t, target))

			info, err := os.Stat(target)
			require.NoError(t, err)
			if tt.wantTouched {
				assert.True(t, info.ModTime().After(past), "mtime should have been refreshed")
			} else {
				assert.True(t, info.ModTime().Equal(past), "mtime must be preserved")
			}

			assert.Equal(t, ModeCompleted, sess.Mode())
		})
	}
}

func TestCommit_Replaced_WithBackup(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte(threeLines), 0644))

	sess, err := New(ctx, target, Options{})
	require.NoError(t, err)
	defer sess.Close()
	require.NoError(t, sess.SetBackup(backup.Policy{Suffix: backup.Literal(".bak")}))

	_, err = sess.ReplaceAll(ctx, regexp.MustCompile(`line`), func(match.Result) string {
		return "row"
	}, 0)
	require.NoError(t, err)

	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Equal(t, target+".bak", out.BackupPath)

	assert.Equal(t, "1 row A\n2 row B\n3 row C\n", readTarget(t, target))
	assert.Equal(t, threeLines, readTarget(t, target+".bak"), "backup must hold the original bytes")
	assert.ElementsMatch(t, []string{"target.txt", "target.txt.bak"}, dirNames(t, dir),
		"temp and holding files must be cleaned up")

	// the session is sealed for good
	assert.Equal(t, ModeCompleted, sess.Mode())
	require.ErrorIs(t, sess.Edit(ctx, func(text string) (string, error) { return text, nil }), ErrCompleted)
	require.ErrorIs(t, sess.EditLines(ctx, func(l []string) (LineResult, error) { return Lines(l), nil }), ErrCompleted)
	require.ErrorIs(t, sess.Stream(ctx, func(r io.Reader, w io.Writer) error { return nil }), ErrCompleted)
	_, err = sess.Transliterate(ctx, "a", "b")
	require.ErrorIs(t, err, ErrCompleted)
	_, err = sess.Peek(ctx)
	require.ErrorIs(t, err, ErrCompleted)
	_, err = sess.Commit(ctx)
	require.ErrorIs(t, err, ErrCompleted)
}

func TestCommit_Replaced_NoBackup(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("old\n"), 0644))

	sess, err := New(ctx, target, Options{})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "new\n", nil
	}))

	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Empty(t, out.BackupPath)
	assert.Equal(t, "new\n", readTarget(t, target))
	assert.Equal(t, []string{"target.txt"}, dirNames(t, dir),
		"the holding copy of the original must be removed")
}

func TestCommit_SizeReport(t *testing.T) {
	ctx := testContext(t)

	t.Run("requested", func(t *testing.T) {
		target := writeTarget(t, []byte(threeLines))
		sess, err := New(ctx, target, Options{ReportSizes: true})
		require.NoError(t, err)
		defer sess.Close()

		require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
			return "short\n", nil
		}))
		out, err := sess.Commit(ctx)
		require.NoError(t, err)
		require.NotNil(t, out.Sizes)
		assert.Equal(t, int64(len(threeLines)), out.Sizes.OldBytes)
		assert.Equal(t, int64(len("short\n")), out.Sizes.NewBytes)

		got, ok := sess.Sizes()
		require.True(t, ok)
		assert.Equal(t, *out.Sizes, got)
	})

	t.Run("not_requested", func(t *testing.T) {
		target := writeTarget(t, []byte(threeLines))
		sess, err := New(ctx, target, Options{})
		require.NoError(t, err)
		defer sess.Close()

		require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
			return "short\n", nil
		}))
		out, err := sess.Commit(ctx)
		require.NoError(t, err)
		assert.Nil(t, out.Sizes)
		_, ok := sess.Sizes()
		assert.False(t, ok)
	})
}

func TestCommit_BackupExists(t *testing.T) {
	tests := []struct {
		name         string
		allowClobber bool
		dryRun       bool
		wantError    bool
	}{
		{
			name:      "refused_without_permission",
			wantError: true,
		},
		{
			name:      "refused_even_in_dry_run",
			dryRun:    true,
			wantError: true,
		},
		{
			name:         "clobber_overwrites",
			allowClobber: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			dir := t.TempDir()
			target := filepath.Join(dir, "target.txt")
			require.NoError(t, os.WriteFile(target, []byte("current\n"), 0644))
			require.NoError(t, os.WriteFile(target+".bak", []byte("stale backup\n"), 0644))

			sess, err := New(ctx, target, Options{
				AllowClobber: tt.allowClobber,
				DryRun:       tt.dryRun,
			})
			require.NoError(t, err)
			defer sess.Close()
			require.NoError(t, sess.SetBackup(backup.Policy{Suffix: backup.Literal(".bak")}))

			require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
				return "replacement\n", nil
			}))

			out, err := sess.Commit(ctx)
			if tt.wantError {
				require.ErrorIs(t, err, ErrBackupExists)
				assert.Equal(t, "current\n", readTarget(t, target), "target must be untouched")
				assert.Equal(t, "stale backup\n", readTarget(t, target+".bak"), "stale backup must be untouched")
				assert.ElementsMatch(t, []string{"target.txt", "target.txt.bak"}, dirNames(t, dir),
					"a refused commit must leave no temp file")
				assert.Equal(t, ModeBuffer, sess.Mode(), "a refused commit must not seal the session")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, StatusReplaced, out.Status)
			assert.Equal(t, "replacement\n", readTarget(t, target))
			assert.Equal(t, "current\n", readTarget(t, target+".bak"),
				"clobber replaces the stale backup with the displaced original")
		})
	}
}

func TestCommit_RetryAfterBackupCollision(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("current\n"), 0644))
	require.NoError(t, os.WriteFile(target+".bak", []byte("stale backup\n"), 0644))

	sess, err := New(ctx, target, Options{})
	require.NoError(t, err)
	defer sess.Close()
	require.NoError(t, sess.SetBackup(backup.Policy{Suffix: backup.Literal(".bak")}))

	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "replacement\n", nil
	}))

	_, err = sess.Commit(ctx)
	require.ErrorIs(t, err, ErrBackupExists)

	// pending content survives the refusal; pointing the policy at a
	// free path lets the same stage commit
	require.NoError(t, sess.SetBackup(backup.Policy{Suffix: backup.Literal(".orig")}))
	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Equal(t, target+".orig", out.BackupPath)
	assert.Equal(t, "replacement\n", readTarget(t, target))
	assert.Equal(t, "current\n", readTarget(t, target+".orig"))
	assert.Equal(t, "stale backup\n", readTarget(t, target+".bak"))
}

func TestCommit_DryRun(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte(threeLines), 0644))

	sess, err := New(ctx, target, Options{DryRun: true, ReportSizes: true})
	require.NoError(t, err)
	defer sess.Close()
	require.NoError(t, sess.SetBackup(backup.Policy{Suffix: backup.Timestamped()}))

	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "would be written\n", nil
	}))

	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status, "dry-run reports the decision it would take")
	assert.NotEmpty(t, out.BackupPath, "dry-run reports the backup path it would use")
	require.NotNil(t, out.Sizes)
	assert.Equal(t, int64(len(threeLines)), out.Sizes.OldBytes)
	assert.Equal(t, int64(len("would be written\n")), out.Sizes.NewBytes)

	assert.Equal(t, threeLines, readTarget(t, target), "dry-run must not modify the target")
	assert.Equal(t, []string{"target.txt"}, dirNames(t, dir),
		"dry-run must not leave backup or temp files")
	assert.Equal(t, ModeCompleted, sess.Mode(), "dry-run still completes the session")
}

func TestCommit_LineRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		original string
		appended string
		want     string
	}{
		{
			name:     "trailing_newline_preserved",
			original: "a\nb\nc\n",
			appended: "d\n",
			want:     "a\nb\nc\nd\n",
		},
		{
			name:     "missing_final_newline_preserved",
			original: "a\nb\nc",
			appended: "tail",
			want:     "a\nb\nctail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			target := writeTarget(t, []byte(tt.original))
			sess, err := New(ctx, target, Options{})
			require.NoError(t, err)
			defer sess.Close()

			err = sess.EditLines(ctx, func(lines []string) (LineResult, error) {
				return Lines(append(lines, tt.appended)), nil
			})
			require.NoError(t, err)

			out, err := sess.Commit(ctx)
			require.NoError(t, err)
			assert.Equal(t, StatusReplaced, out.Status)
			assert.Equal(t, tt.want, readTarget(t, target))
		})
	}
}

func TestCommit_Stream(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello world\n"), 0644))

	sess, err := New(ctx, target, Options{})
	require.NoError(t, err)
	defer sess.Close()

	err = sess.Stream(ctx, func(r io.Reader, w io.Writer) error {
		raw, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, strings.ToUpper(string(raw)))
		return err
	})
	require.NoError(t, err)

	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Equal(t, "HELLO WORLD\n", readTarget(t, target))
	assert.Equal(t, []string{"target.txt"}, dirNames(t, dir))
}

func TestCommit_Latin1(t *testing.T) {
	// "café\n" in Latin-1: é is the single byte 0xE9
	latin1 := []byte{'c', 'a', 'f', 0xE9, '\n'}

	t.Run("identity_round_trips_bytes", func(t *testing.T) {
		ctx := testContext(t)
		target := writeTarget(t, latin1)
		sess, err := New(ctx, target, Options{Codec: textenc.Codec{Input: "ISO-8859-1"}})
		require.NoError(t, err)
		defer sess.Close()

		require.NoError(t, sess.Edit(ctx, func(text string) (string, error) {
			return text, nil
		}))
		out, err := sess.Commit(ctx)
		require.NoError(t, err)
		assert.Equal(t, StatusIdentical, out.Status,
			"decode plus re-encode of an untouched stage must be byte-identical")

		raw, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, latin1, raw)
	})

	t.Run("substitution_writes_input_charset", func(t *testing.T) {
		ctx := testContext(t)
		target := writeTarget(t, latin1)
		sess, err := New(ctx, target, Options{Codec: textenc.Codec{Input: "ISO-8859-1"}})
		require.NoError(t, err)
		defer sess.Close()

		n, err := sess.ReplaceAll(ctx, regexp.MustCompile(`é`), func(match.Result) string {
			return "e"
		}, 0)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		out, err := sess.Commit(ctx)
		require.NoError(t, err)
		assert.Equal(t, StatusReplaced, out.Status)

		raw, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, []byte("cafe\n"), raw, "output must stay in the input charset")
	})
}

func TestCommit_EncodeErrorIsRecoverable(t *testing.T) {
	ctx := testContext(t)
	target := writeTarget(t, []byte("ascii\n"))
	sess, err := New(ctx, target, Options{Codec: textenc.Codec{Output: "ISO-8859-1"}})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "日本\n", nil
	}))

	_, err = sess.Commit(ctx)
	require.Error(t, err)
	var convErr *textenc.ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "encode", convErr.Op)

	assert.Equal(t, "ascii\n", readTarget(t, target), "failed commit must leave the target alone")
	assert.Equal(t, ModeBuffer, sess.Mode(), "encode failure must not seal the session")

	// restage something encodable and the same session commits fine
	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "plain\n", nil
	}))
	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Equal(t, "plain\n", readTarget(t, target))
}

func TestCommitWithBackup_Override(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("old\n"), 0644))
	override := filepath.Join(dir, "explicit.orig")

	sess, err := New(ctx, target, Options{})
	require.NoError(t, err)
	defer sess.Close()
	require.NoError(t, sess.SetBackup(backup.Policy{Suffix: backup.Literal(".bak")}))

	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "new\n", nil
	}))

	out, err := sess.CommitWithBackup(ctx, override)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Equal(t, override, out.BackupPath)
	assert.Equal(t, "old\n", readTarget(t, override))
	assert.ElementsMatch(t, []string{"target.txt", "explicit.orig"}, dirNames(t, dir),
		"the policy suffix must not fire when an override is given")
}

func TestCommit_TruncatesToEmpty(t *testing.T) {
	ctx := testContext(t)
	target := writeTarget(t, []byte("soon gone\n"))
	sess, err := New(ctx, target, Options{})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Edit(ctx, func(string) (string, error) {
		return "", nil
	}))

	out, err := sess.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, out.Status)
	assert.Equal(t, "", readTarget(t, target))
}
