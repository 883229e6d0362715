/*
Package status renders commit outcomes for people.

	            +--------------+
	            | CommitReport |
	            | (primitives) |
	            +------+-------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+------+          +-----+-----+
	| Formatter  |          | UserLogger|
	| (aligned)  |          | (pterm +  |
	|            |          |  zerolog) |
	+------------+          +-----------+

🎯 Purpose:
- Formats commit outcomes as aligned one-liners
- Dual-logs user feedback (pterm) and structured events (zerolog)
- Keeps presentation out of the session and CLI packages

🔄 Flow:
1. The CLI flattens a commit outcome into a CommitReport
2. FileFormatter renders it for plain output
3. UserLogger prints it with pterm and mirrors it to zerolog

⚡ Key Responsibilities:
- Column alignment (terminal cells, not bytes)
- Status coloring and symbols
- Per-rule replacement counts
- Validation and error feedback

🤝 Interfaces:
- FileFormatter: customizable one-line rendering
- UserLogger: leveled, emoji-prefixed user feedback

📝 Design Philosophy:
The status package is presentation only. CommitReport carries plain
strings and numbers, so this package never imports the session types
and stays replaceable: swap the formatter for JSON output without
touching commit logic.

🔍 Example:

	formatter := status.NewDefaultFileFormatter()
	fmt.Println(formatter.FormatCommit(status.CommitReport{
		Path:   "notes/draft.txt",
		Status: "replaced",
	}))

	logger := status.NewUserLogger(ctx)
	logger.LogRule("version", 3)
*/
package status
