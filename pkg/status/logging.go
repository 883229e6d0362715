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

package status

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger provides user-friendly feedback about commit outcomes
type UserLogger struct {
	log zerolog.Logger // for debug/error logging
}

// 🎯 NewUserLogger creates a new user logger
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// 📝 LogCommit logs one commit outcome with appropriate emoji and level
func (u *UserLogger) LogCommit(report CommitReport) {
	// Get relative path for cleaner output
	relPath := filepath.Base(report.Path)

	var action string
	var printer *pterm.PrefixPrinter
	switch {
	case report.Err != nil:
		action = "Failed"
		printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
	case report.DryRun && report.Status == "replaced":
		action = "Would replace"
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔍"})
	case report.Status == "replaced":
		action = "Replaced"
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"})
	case report.Status == "identical":
		action = "Unchanged"
		printer = pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏭️"})
	default:
		action = "Untouched"
		printer = pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏭️"})
	}

	msg := fmt.Sprintf("%s %s", action, relPath)
	var details []string
	if report.BackupPath != "" {
		details = append(details, fmt.Sprintf("backup: %s", report.BackupPath))
	}
	if report.HasSizes {
		details = append(details, fmt.Sprintf("size: %d => %d bytes", report.OldBytes, report.NewBytes))
	}
	if len(details) > 0 {
		msg += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
	}

	if report.Err != nil {
		printer.Println(msg)
		pterm.Error.Println(report.Err)
		u.log.Error().Err(report.Err).Msg(msg) // Also log to zerolog for debugging
	} else {
		printer.Println(msg)
		u.log.Info().Msg(msg) // Also log to zerolog for debugging
	}
}

// 🔁 LogRule logs how many replacements one rule made
func (u *UserLogger) LogRule(name string, n int) {
	if n == 0 {
		msg := fmt.Sprintf("Rule %s matched nothing", name)
		pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏭️"}).Println(msg)
		u.log.Debug().Msg(msg)
		return
	}
	msg := fmt.Sprintf("Rule %s made %d replacement(s)", name, n)
	pterm.Info.WithPrefix(pterm.Prefix{Text: "🔁"}).Println(msg)
	u.log.Info().Msg(msg)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		u.log.Info().Msg(description)
	} else {
		if err != nil {
			pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
			pterm.Error.Println(err)
			u.log.Error().Err(err).Msg(description)
		} else {
			pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
			u.log.Warn().Msg(description)
		}
	}
}
