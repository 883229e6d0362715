/*
Package overwrite safely replaces the contents of an existing file in
place, keeping an optional backup and guaranteeing the target is never
left partially written.

	            +-------------+
	            |   Session   |
	            | (State/API) |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+-----+ +----+-----+
	|  Stream   | |  Buffer  | |  Lines   |
	|  (Pipe)   | |  (Text)  | | (Slice)  |
	+-----------+ +----------+ +----------+
	                   |
	            +------+------+
	            |   Commit    |
	            | (Swap/Bak)  |
	            +-------------+

🎯 Purpose:
- Stages replacement content in one of three modes
- Detects no-op commits by byte comparison
- Performs the backup-then-rename swap atomically
- Freezes the session once the target is decided

🔄 Flow:
1. New binds a session to one existing target file
2. Staging calls build pending content (stream, buffer, or lines)
3. Substitution helpers rewrite the pending buffer via pkg/match
4. Commit materializes a temp file next to the target, compares, swaps

⚡ Key Responsibilities:
- Mode transitions and their data-loss warnings
- Temp file lifecycle (released on every exit path)
- Backup resolution and clobber protection
- The atomic rename as the single replacement point

🤝 Interfaces:
- backup.Policy: where the original file is preserved
- textenc.Codec: input/output/transfer charsets
- match: find/replace engine with capture groups

📝 Design Philosophy:
A Session is a sequential state machine over exactly one file. All
staging happens in memory or in a deterministic temp file inside the
target's directory, so the final rename is a same-filesystem atomic
operation: the target is either its old self or fully the new content,
never anything in between. The one deliberate exception to temp file
cleanup is a failed replace after the original was already moved aside,
where the temp file holds the only copy of the new content and is kept
for manual recovery.

🔍 Example:

	sess, err := overwrite.New(ctx, "notes.txt", overwrite.Options{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.SetBackup(backup.Policy{Suffix: backup.Timestamped()}); err != nil {
		return err
	}
	n, err := sess.ReplaceAll(ctx, regexp.MustCompile(`TODO`), match.Template("DONE"), 0)
	if err != nil {
		return err
	}
	outcome, err := sess.Commit(ctx)
*/
package overwrite
