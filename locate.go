// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package stencil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// locateAlternative searches root recursively for a file whose base name is
// name or one of altNames. A single match is returned, none yields an empty
// string and more than one is an error since the caller cannot know which
// file the template should track.
func locateAlternative(root string, name string, altNames []string) (string, error) {
	names := map[string]struct{}{name: {}}
	for _, alt := range altNames {
		names[alt] = struct{}{}
	}

	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if _, ok := names[d.Name()]; ok {
			found = append(found, path)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("found more than one alternative for %s: %s", name, strings.Join(found, ", "))
	}
}
