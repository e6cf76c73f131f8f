// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package dollarsub expands "$$" escapes and "$(name)" variable references in
// a string the way make treats them in recipe lines.
//
// Expansion is a pure string transformation, inputs are never read from disk
// and no commands are run. Only constructs that are not nested inside another
// "$(...)" group are resolved, the raw text of nested constructs becomes part
// of the enclosing group's lookup key.
package dollarsub

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSyntax indicates a $ followed by anything other than $ or (
	ErrSyntax = errors.New("invalid dollar sequence")
	// ErrUnbalanced indicates an unclosed ( or a ) with nothing open
	ErrUnbalanced = errors.New("unbalanced parenthesis")
	// ErrUnknownKey indicates a $(name) reference without a table entry
	ErrUnknownKey = errors.New("unknown variable")
)

// frame is one open parenthesis group, dollar groups record the offset of
// their $ so the full construct can be replaced when the group closes
type frame struct {
	dollar bool
	start  int
}

// span is a pending replacement over [start, end) of the input
type span struct {
	start       int
	end         int
	replacement string
}

// Replace substitutes every "$$" escape and "$(name)" reference in input that
// is not nested inside another "$(...)" group. The text strictly between "$("
// and its matching ")" is trimmed of surrounding whitespace and looked up in
// table, escapes collapse to a literal "$".
//
// Errors wrap ErrSyntax, ErrUnbalanced or ErrUnknownKey and are matchable
// with errors.Is.
func Replace(input string, table map[string]string) (string, error) {
	var (
		spans     []span
		stack     []frame
		wasDollar bool
	)

	inDollarGroup := func() bool {
		for _, f := range stack {
			if f.dollar {
				return true
			}
		}

		return false
	}

	for i := 0; i < len(input); i++ {
		c := input[i]

		if wasDollar {
			switch c {
			case '$':
				// escapes nested inside a $() group are left for the
				// enclosing group's lookup key
				if !inDollarGroup() {
					spans = append(spans, span{start: i - 1, end: i})
				}
			case '(':
				stack = append(stack, frame{dollar: true, start: i - 1})
			default:
				return "", fmt.Errorf("%w: %q at offset %d", ErrSyntax, input[i-1:i+1], i-1)
			}

			wasDollar = false

			continue
		}

		switch c {
		case '$':
			wasDollar = true

		case '(':
			stack = append(stack, frame{})

		case ')':
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: unmatched ) at offset %d", ErrUnbalanced, i)
			}

			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			// plain groups resolve to nothing, dollar groups still inside
			// another dollar group are consumed by the enclosing key
			if !top.dollar || inDollarGroup() {
				continue
			}

			key := strings.TrimSpace(input[top.start+2 : i])
			replacement, ok := table[key]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
			}

			spans = append(spans, span{start: top.start, end: i + 1, replacement: replacement})
		}
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("%w: %d group(s) left open", ErrUnbalanced, len(stack))
	}

	// splice from the right so earlier spans keep their offsets, spans can
	// never overlap since only outermost groups are recorded
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].end > spans[i-1].start {
			return "", fmt.Errorf("internal scanner error: overlapping spans")
		}
	}

	out := input
	for _, s := range spans {
		out = out[:s.start] + s.replacement + out[s.end:]
	}

	return out, nil
}
