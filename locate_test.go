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

var _ = Describe("locateAlternative", func() {
	var root string

	write := func(name string) string {
		path := filepath.Join(root, filepath.FromSlash(name))
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("x"), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		root = GinkgoT().TempDir()
	})

	It("Should return nothing when no candidate exists", func() {
		write("unrelated.txt")

		found, err := locateAlternative(root, "requirements.txt", []string{"requirements-dev.txt"})
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeEmpty())
	})

	It("Should find a file by its base name anywhere in the tree", func() {
		expected := write("deep/nested/requirements.txt")

		found, err := locateAlternative(root, "requirements.txt", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(Equal(expected))
	})

	It("Should find a file by an alternative name", func() {
		expected := write("requirements-dev.txt")

		found, err := locateAlternative(root, "requirements.txt", []string{"requirements-dev.txt"})
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(Equal(expected))
	})

	It("Should error when multiple candidates exist", func() {
		write("requirements.txt")
		write("dev/requirements-dev.txt")

		_, err := locateAlternative(root, "requirements.txt", []string{"requirements-dev.txt"})
		Expect(err).To(MatchError(ContainSubstring("more than one alternative")))
	})

	It("Should not match directories", func() {
		Expect(os.MkdirAll(filepath.Join(root, "requirements.txt"), 0755)).To(Succeed())

		found, err := locateAlternative(root, "requirements.txt", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeEmpty())
	})
})
