package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 12 // Width for status text
)

// 📋 CommitReport is the presentation-level summary of one commit. All
// fields are primitives so the package stays free of the session types.
type CommitReport struct {
	Path       string
	Status     string // "untouched", "identical", "replaced"
	BackupPath string
	DryRun     bool
	OldBytes   int64
	NewBytes   int64
	HasSizes   bool
	Err        error
}

// FileFormatter defines how commit outcomes should be formatted
type FileFormatter interface {
	// FormatCommit formats a one-line commit summary
	FormatCommit(report CommitReport) string

	// FormatRule formats a per-rule replacement count
	FormatRule(name string, n int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatCommit formats a one-line, column-aligned commit summary
func (f *DefaultFileFormatter) FormatCommit(report CommitReport) string {
	// Determine prefix symbol
	var prefix string
	switch {
	case report.Err != nil:
		prefix = color.RedString("✗")
	case report.DryRun:
		prefix = color.YellowString("⟳")
	case report.Status == "replaced":
		prefix = color.GreenString("✓")
	default:
		prefix = color.HiBlackString("-")
	}

	// Format parts with padding
	namePart := padName(report.Path)
	statusPart := fmt.Sprintf("%-*s", statusWidth, report.Status)

	// Collect trailing details
	var details []string
	if report.DryRun {
		details = append(details, "dry-run")
	}
	if report.BackupPath != "" {
		details = append(details, fmt.Sprintf("backup: %s", report.BackupPath))
	}
	if report.HasSizes {
		details = append(details, fmt.Sprintf("size: %d => %d bytes", report.OldBytes, report.NewBytes))
	}
	if report.Err != nil {
		details = append(details, report.Err.Error())
	}

	// Build final string with indentation
	out := fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		statusPart,
	)
	if len(details) > 0 {
		out += " " + strings.Join(details, ", ")
	}
	return strings.TrimRight(out, " ")
}

// FormatRule formats a per-rule replacement count
func (f *DefaultFileFormatter) FormatRule(name string, n int) string {
	if n == 0 {
		return fmt.Sprintf("%s%s rule %s: no matches",
			strings.Repeat(" ", fileIndent), color.HiBlackString("-"), name)
	}
	return fmt.Sprintf("%s%s rule %s: %d replacement(s)",
		strings.Repeat(" ", fileIndent), color.CyanString("•"), name, n)
}

// FormatError formats an error message
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s %v", color.RedString("✗"), err)
}

// padName fits a path into the name column: longer names are truncated
// with an ellipsis, shorter ones padded. Width is measured in terminal
// cells, so wide runes stay aligned.
func padName(name string) string {
	return runewidth.FillRight(runewidth.Truncate(name, nameWidth, "..."), nameWidth)
}
