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

var _ = Describe("Manifest", func() {
	var td string

	write := func(name string, content string) string {
		path := filepath.Join(td, filepath.FromSlash(name))
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		td = GinkgoT().TempDir()
	})

	Describe("LoadManifest", func() {
		It("Should parse all entry fields", func() {
			path := write("manifest.yaml", `files:
  - path: dev/requirements.txt
    search: true
    alt_names:
      - requirements-dev.txt
    optional: true
    render: true
    when: target_empty
ensure:
  - requirements.txt
post:
  - "*.sh": "chmod +x"
`)

			manifest, err := LoadManifest(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(manifest.Files).To(Equal([]FileEntry{{
				Path:     "dev/requirements.txt",
				AltNames: []string{"requirements-dev.txt"},
				Search:   true,
				Optional: true,
				Render:   true,
				When:     "target_empty",
			}}))
			Expect(manifest.Ensure).To(Equal([]string{"requirements.txt"}))
			Expect(manifest.Post).To(Equal([]map[string]string{{"*.sh": "chmod +x"}}))
		})

		DescribeTable("Validation errors",
			func(yaml string, errMatch string) {
				path := write("manifest.yaml", yaml)
				_, err := LoadManifest(path)
				Expect(err).To(MatchError(ContainSubstring(errMatch)))
			},
			Entry("not yaml",
				"files: {x\n", "invalid manifest"),
			Entry("entry without path",
				"files:\n  - optional: true\n", "manifest entry without a path"),
			Entry("path traversal in files",
				"files:\n  - path: ../escape\n", "invalid file name"),
			Entry("path traversal in ensure",
				"ensure:\n  - ../escape\n", "invalid file name"),
		)

		It("Should error for missing files", func() {
			_, err := LoadManifest(filepath.Join(td, "nonexisting.yaml"))
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Describe("resolveManifest", func() {
		It("Should prefer an explicit manifest path", func() {
			explicit := write("elsewhere.yaml", "files:\n  - path: a.txt\n")
			write(ManifestFileName, "files:\n  - path: b.txt\n")

			manifest, err := resolveManifest(&Config{SourceDirectory: td, ManifestPath: explicit})
			Expect(err).ToNot(HaveOccurred())
			Expect(manifest.Files).To(HaveLen(1))
			Expect(manifest.Files[0].Path).To(Equal("a.txt"))
		})

		It("Should find the default manifest in the source directory", func() {
			write(ManifestFileName, "files:\n  - path: b.txt\n")

			manifest, err := resolveManifest(&Config{SourceDirectory: td})
			Expect(err).ToNot(HaveOccurred())
			Expect(manifest.Files[0].Path).To(Equal("b.txt"))
		})

		It("Should derive a manifest from the source tree otherwise", func() {
			write("Makefile", "all:\n")
			write("dev/requirements.txt", "pytest\n")
			write("_partials/skipped.txt", "no\n")

			manifest, err := resolveManifest(&Config{SourceDirectory: td})
			Expect(err).ToNot(HaveOccurred())
			Expect(manifest.Files).To(Equal([]FileEntry{
				{Path: "Makefile"},
				{Path: "dev/requirements.txt"},
			}))
		})
	})
})
