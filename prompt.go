// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package stencil

import (
	"os"

	"github.com/AlecAivazis/survey/v2"
	terminal "golang.org/x/term"
)

// prompter abstracts interactive confirmations for testability
type prompter interface {
	Confirm(msg string) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Confirm(msg string) (bool, error) {
	ans := false

	err := survey.AskOne(&survey.Confirm{
		Message: msg,
		Default: false,
	}, &ans)

	return ans, err
}

func isTerminal() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd())) && terminal.IsTerminal(int(os.Stdout.Fd()))
}
