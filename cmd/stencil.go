// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/choria-io/fisk"
	"github.com/choria-io/stencil"
	"github.com/choria-io/stencil/makefile"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	source         string
	target         string
	manifest       string
	engineString   string
	leftDelimiter  string
	rightDelimiter string
	ignoreSpace    bool
	noGitDiff      bool
	interactive    bool
	dryRun         bool
	optional       bool
	summary        bool
	stringData     map[string]string
	makefilePath   string
	recipeVars     map[string]string
	version        string
)

func main() {
	stringData = map[string]string{}
	recipeVars = map[string]string{}

	app := fisk.New("stencil", "Applies project template files to a directory")
	app.Version(version)

	app.Help = `
Compares the files of a project template against a target directory, shows
what is identical, different or missing and optionally copies updates.

Templates can declare optional files, alternative file names to search for
and files that should be rendered through a template engine before applying.
`

	apply := app.Command("apply", "Applies a template to a target directory").Action(applyAction)
	apply.HelpLong(`
Every file the template manifest tracks is located in the target, by exact path or by searching for alternative names, then classified as identical, different or missing.

Differences are shown using git diff when available, falling back to a builtin differ. Without --interactive missing files are copied and different files are left alone, with it each change is confirmed first.

Applying to an empty directory copies everything including optional files.
`)
	apply.Arg("template", "The directory holding the template files").Required().ExistingDirVar(&source)
	apply.Arg("target", "The directory to apply the template to").Required().ExistingDirVar(&target)
	apply.Arg("data", "Data to pass to rendered files").StringMapVar(&stringData)
	apply.Flag("ignore-space", "Ignore all whitespace in diffs").Short('w').BoolVar(&ignoreSpace)
	apply.Flag("no-git-diff", "Use the builtin differ instead of git diff").Short('G').BoolVar(&noGitDiff)
	apply.Flag("interactive", "Prompt before making changes").Short('i').BoolVar(&interactive)
	apply.Flag("dry-run", "Do not copy any files").Short('n').BoolVar(&dryRun)
	apply.Flag("optional", "Treat optional files as required").Short('o').BoolVar(&optional)
	apply.Flag("manifest", "Path to the template manifest").PlaceHolder("FILE").ExistingFileVar(&manifest)
	apply.Flag("engine", "The template engine for rendered files (jet, go)").Default("go").EnumVar(&engineString, "jet", "go")
	apply.Flag("left", "Left template delimiter").Default("{{").StringVar(&leftDelimiter)
	apply.Flag("right", "Right template delimiter").Default("}}").StringVar(&rightDelimiter)
	apply.Flag("summary", "Show a summary table after applying").Default("true").BoolVar(&summary)

	recipes := app.Command("recipes", "Checks Makefile recipes using shellcheck").Action(recipesAction)
	recipes.HelpLong(`
Extracts the recipe of every target in a Makefile, expands make variables from the supplied values and runs shellcheck over the resulting scripts.

The Makefile must use ".ONESHELL:" and set SHELL to /bin/bash so that each recipe is a single bash script.
`)
	recipes.Arg("makefile", "The Makefile to check").Required().ExistingFileVar(&makefilePath)
	recipes.Arg("vars", "Make variables to expand in recipes").StringMapVar(&recipeVars)

	app.MustParseWithUsage(os.Args[1:])
}

func applyAction(_ *fisk.ParseContext) error {
	data := map[string]any{}
	for k, v := range stringData {
		data[k] = v
	}

	s, err := stencil.New(stencil.Config{
		SourceDirectory:      source,
		TargetDirectory:      target,
		ManifestPath:         manifest,
		IgnoreWhitespace:     ignoreSpace,
		NoGitDiff:            noGitDiff,
		Interactive:          interactive,
		DryRun:               dryRun,
		IncludeOptional:      optional,
		Engine:               engineString,
		CustomLeftDelimiter:  leftDelimiter,
		CustomRightDelimiter: rightDelimiter,
		Data:                 data,
	})
	if err != nil {
		return err
	}

	results, err := s.Apply()
	if err != nil {
		return err
	}

	if !summary {
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "State", "Action"})

	for _, r := range results {
		action := ""
		switch {
		case r.Copied:
			action = "copied"
		case r.Created:
			action = "created"
		}
		tw.AppendRow(table.Row{r.Path, string(r.State), action})
	}

	tw.Render()

	return nil
}

func recipesAction(_ *fisk.ParseContext) error {
	mf, err := os.Open(makefilePath)
	if err != nil {
		return err
	}
	defer mf.Close()

	parsed, err := makefile.Parse(mf)
	if err != nil {
		return err
	}

	if !parsed.Shell {
		return fmt.Errorf(`"SHELL = /bin/bash" not seen in %s`, makefilePath)
	}
	if !parsed.OneShell {
		return fmt.Errorf(`".ONESHELL:" directive not seen in %s`, makefilePath)
	}

	err = parsed.Shellcheck(recipeVars)
	if err != nil {
		return err
	}

	fmt.Printf("%d recipes checked\n", len(parsed.Recipes))

	return nil
}
