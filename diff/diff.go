// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package diff renders readable differences between two files.
//
// When git is available its diff is preferred since the word level coloring
// is much easier to read, otherwise a builtin unified diff is produced. The
// builtin differ can collapse whitespace so that formatting only changes do
// not drown out real ones.
package diff

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pmezard/go-difflib/difflib"
)

// Options controls how Print renders differences
type Options struct {
	// IgnoreWhitespace collapses whitespace runs before comparing
	IgnoreWhitespace bool
	// NoGit skips the external git differ and always uses the builtin one
	NoGit bool
}

// runGitDiff executes git with the given arguments, sending output to w and
// reporting the exit code, replaced in tests
var runGitDiff = func(w io.Writer, args []string) (int, error) {
	cmd := exec.Command("git", args...)
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, err
}

// Print writes a colored diff of fromFile and toFile to w.
//
// Unless opts.NoGit is set it first tries "git diff --no-index --color-words"
// and falls back to the builtin differ when git cannot be run or exits with
// anything other than 0 or 1.
func Print(w io.Writer, fromFile string, toFile string, opts Options) error {
	if !opts.NoGit {
		args := []string{"--no-pager", "diff", "--no-index", "--color-words"}
		if opts.IgnoreWhitespace {
			args = append(args, "--ignore-all-space")
		}
		args = append(args, "--", fromFile, toFile)

		rc, err := runGitDiff(w, args)
		if err == nil && (rc == 0 || rc == 1) {
			return nil
		}
	}

	fromLines, err := readLines(fromFile, opts.IgnoreWhitespace)
	if err != nil {
		return err
	}

	toLines, err := readLines(toFile, opts.IgnoreWhitespace)
	if err != nil {
		return err
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	})
	if err != nil {
		return err
	}

	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		fmt.Fprintln(w, colorLine(line))
	}

	return nil
}

func colorLine(line string) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return text.Colors{text.Bold}.Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return text.Colors{text.FgCyan}.Sprint(line)
	case strings.HasPrefix(line, "-"):
		return text.Colors{text.FgRed}.Sprint(line)
	case strings.HasPrefix(line, "+"):
		return text.Colors{text.FgGreen}.Sprint(line)
	default:
		return line
	}
}

// readLines loads a file as newline terminated lines suitable for difflib
func readLines(path string, collapse bool) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if collapse {
		lines = collapseWhitespace(lines)
	}

	terminated := make([]string, len(lines))
	for i, l := range lines {
		terminated[i] = l + "\n"
	}

	return terminated, nil
}

// collapseWhitespace reduces runs of blank lines to a single empty line and
// squeezes interior whitespace runs to single spaces
func collapseWhitespace(lines []string) []string {
	var out []string

	wasBlank := false
	for _, line := range lines {
		isBlank := strings.TrimSpace(line) == ""
		if isBlank {
			if !wasBlank {
				out = append(out, "")
			}
		} else {
			out = append(out, strings.Join(strings.Fields(line), " "))
		}

		wasBlank = isBlank
	}

	return out
}
