// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package stencil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/CloudyKit/jet/v6"
	"github.com/choria-io/stencil/internal/sprig"
)

type engineType int

const (
	engineGoTemplate engineType = iota
	engineJet
)

// RenderString renders a string using the same engine, functions and
// delimiters that rendered manifest entries use
func (s *Stencil) RenderString(str string, data any) (string, error) {
	res, err := s.renderTemplateBytes("string", []byte(str), data)
	if err != nil {
		return "", err
	}

	return string(res), nil
}

func (s *Stencil) renderTemplateFile(path string, data any) ([]byte, error) {
	td, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return s.renderTemplateBytes(filepath.Base(path), td, data)
}

func (s *Stencil) renderTemplateBytes(name string, tmpl []byte, data any) ([]byte, error) {
	switch s.engine {
	case engineJet:
		return s.renderTemplateBytesJet(name, tmpl, data)
	default:
		return s.renderTemplateBytesGoTempl(name, tmpl, data)
	}
}

func (s *Stencil) renderTemplateBytesGoTempl(name string, tmpl []byte, data any) ([]byte, error) {
	templ := template.New(name).Funcs(sprig.FuncMap())

	if s.cfg.CustomLeftDelimiter != "" && s.cfg.CustomRightDelimiter != "" {
		templ.Delims(s.cfg.CustomLeftDelimiter, s.cfg.CustomRightDelimiter)
	}

	templ, err := templ.Parse(string(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parsing template %v failed: %w", name, err)
	}

	buf := bytes.NewBuffer([]byte{})
	err = templ.Execute(buf, data)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *Stencil) renderTemplateBytesJet(name string, tmpl []byte, data any) ([]byte, error) {
	loader := jet.NewInMemLoader()
	loader.Set(name, string(tmpl))

	opts := []jet.Option{jet.WithSafeWriter(nil)}
	if s.cfg.CustomLeftDelimiter != "" && s.cfg.CustomRightDelimiter != "" {
		opts = append(opts, jet.WithDelims(s.cfg.CustomLeftDelimiter, s.cfg.CustomRightDelimiter))
	}

	set := jet.NewSet(loader, opts...)

	t, err := set.GetTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("parsing template %v failed: %w", name, err)
	}

	buf := bytes.NewBuffer([]byte{})
	err = t.Execute(buf, nil, data)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
