// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package sprig exposes the sprig template functions with hardened
// implementations of the random helpers
package sprig

import (
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// FuncMap returns the sprig text template functions with secure overrides
func FuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["randBytes"] = randBytes
	funcs["uuidv4"] = uuidv4

	return funcs
}

// TxtFuncMap is an alias for FuncMap matching the sprig naming
func TxtFuncMap() template.FuncMap {
	return FuncMap()
}
