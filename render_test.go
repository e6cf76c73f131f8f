// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package stencil

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RenderString", func() {
	var (
		sourceDir string
		targetDir string
	)

	newWithConfig := func(cfg Config) *Stencil {
		cfg.SourceDirectory = sourceDir
		cfg.TargetDirectory = targetDir

		s, err := New(cfg)
		Expect(err).ToNot(HaveOccurred())

		return s
	}

	BeforeEach(func() {
		sourceDir = GinkgoT().TempDir()
		targetDir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(sourceDir, "f.txt"), []byte("f"), 0644)).To(Succeed())
	})

	It("Should render with the go engine and sprig functions", func() {
		s := newWithConfig(Config{})

		out, err := s.RenderString(`{{ .name | upper }}`, map[string]any{"name": "demo"})
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("DEMO"))
	})

	It("Should render with the jet engine", func() {
		s := newWithConfig(Config{Engine: "jet"})

		out, err := s.RenderString(`Hello {{ .name }}`, map[string]any{"name": "demo"})
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("Hello demo"))
	})

	It("Should honor custom delimiters", func() {
		s := newWithConfig(Config{CustomLeftDelimiter: "[[", CustomRightDelimiter: "]]"})

		out, err := s.RenderString(`[[ .name ]] {{ .name }}`, map[string]any{"name": "demo"})
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal("demo {{ .name }}"))
	})

	It("Should error on unparsable templates", func() {
		s := newWithConfig(Config{})

		_, err := s.RenderString(`{{ .name`, nil)
		Expect(err).To(MatchError(ContainSubstring("parsing template")))
	})
})
