// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package makefile extracts recipes from Makefiles so they can be checked as
// standalone shell scripts.
//
// Only Makefiles using ".ONESHELL:" with "SHELL = /bin/bash" can be checked
// this way since each recipe must be a single coherent bash script.
package makefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/choria-io/stencil/dollarsub"
)

// Recipe is one Makefile target and its recipe lines
type Recipe struct {
	Target string
	Lines  []string
}

// File is the result of scanning a Makefile
type File struct {
	// Shell indicates a "SHELL = /bin/bash" assignment was seen
	Shell bool
	// OneShell indicates the ".ONESHELL:" directive was seen
	OneShell bool
	// Recipes are the targets with at least one recipe line
	Recipes []Recipe
}

var (
	shellRe    = regexp.MustCompile(`^\s*SHELL\s*=\s*/bin/bash\s*$`)
	oneShellRe = regexp.MustCompile(`^\s*\.ONESHELL:(?:\s+#.*)?\s*$`)
	targetRe   = regexp.MustCompile(`^([-\w]+):`)
)

// Parse scans a Makefile for targets, recipe lines and the directives needed
// to treat recipes as bash scripts. A SHELL assignment to anything other than
// /bin/bash is an error.
func Parse(r io.Reader) (*File, error) {
	f := &File{}

	var (
		target string
		lines  []string
	)

	done := func() {
		if len(lines) == 0 {
			return
		}

		// make strips the echo suppression prefix before running the line
		lines[0] = strings.TrimPrefix(lines[0], "@")
		f.Recipes = append(f.Recipes, Recipe{Target: target, Lines: lines})
		lines = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(strings.TrimLeft(line, " \t"), "SHELL"):
			if !shellRe.MatchString(line) {
				return nil, fmt.Errorf("SHELL must be /bin/bash, got %q", strings.TrimSpace(line))
			}
			f.Shell = true

		case oneShellRe.MatchString(line):
			f.OneShell = true

		case target != "" && strings.HasPrefix(line, "\t"):
			lines = append(lines, strings.TrimPrefix(line, "\t"))

		default:
			if m := targetRe.FindStringSubmatch(line); m != nil {
				done()
				target = m[1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	done()

	return f, nil
}

// Script renders the recipe as a standalone bash script with make variable
// references expanded from vars
func (r *Recipe) Script(vars map[string]string) (string, error) {
	script := strings.Builder{}
	script.WriteString("#!/bin/bash\n")
	for _, line := range r.Lines {
		script.WriteString(line)
		script.WriteString("\n")
	}

	expanded, err := dollarsub.Replace(script.String(), vars)
	if err != nil {
		return "", fmt.Errorf("expanding recipe for %s: %w", r.Target, err)
	}

	return expanded, nil
}

// Shellcheck writes every recipe to its own script and runs shellcheck over
// them all, the tool output is included in the returned error on failure
func (f *File) Shellcheck(vars map[string]string) error {
	path, err := exec.LookPath("shellcheck")
	if err != nil {
		return fmt.Errorf("shellcheck is not available: %w", err)
	}

	if len(f.Recipes) == 0 {
		return fmt.Errorf("no recipes found")
	}

	td, err := os.MkdirTemp("", "stencil-recipes-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(td)

	var scripts []string
	for _, recipe := range f.Recipes {
		script, err := recipe.Script(vars)
		if err != nil {
			return err
		}

		out := filepath.Join(td, recipe.Target+".sh")
		err = os.WriteFile(out, []byte(script), 0700)
		if err != nil {
			return err
		}

		scripts = append(scripts, out)
	}

	out, err := exec.Command(path, scripts...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("shellcheck failed: %w\n%s", err, out)
	}

	return nil
}
