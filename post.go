// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package stencil

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

// postFile runs the manifest's post-processing commands against a freshly
// copied file, globs match the file's base name and a {} placeholder in the
// command arguments is replaced with the full path
func (s *Stencil) postFile(f string) error {
	for _, p := range s.manifest.Post {
		for g, v := range p {
			matched, err := filepath.Match(g, filepath.Base(f))
			if err != nil {
				return err
			}

			if !matched {
				continue
			}

			parts, err := shellquote.Split(v)
			if err != nil {
				return err
			}

			cmd := parts[0]
			var args []string
			hasPlaceholder := false
			for _, p := range parts[1:] {
				if strings.Contains(p, "{}") {
					args = append(args, strings.ReplaceAll(p, "{}", f))
					hasPlaceholder = true
				} else {
					args = append(args, p)
				}
			}

			if !hasPlaceholder {
				args = append(args, f)
			}

			if s.log != nil {
				s.log.Infof("Post processing using: %s %s", cmd, strings.Join(args, " "))
			}

			out, err := exec.Command(cmd, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("failed to post process %s\nerror: %w\noutput: %q", f, err, out)
			}
		}
	}

	return nil
}
