// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package stencil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is looked up in the source directory when no explicit
// manifest path is configured
const ManifestFileName = ".stencil.yaml"

// FileEntry is one file tracked by a template
type FileEntry struct {
	// Path is the slash separated path relative to source and target
	Path string `yaml:"path"`
	// AltNames are alternative base names the file may have in the target
	AltNames []string `yaml:"alt_names"`
	// Search enables a recursive target search for the base name and
	// AltNames when the exact path does not exist
	Search bool `yaml:"search"`
	// Optional files are only copied into empty targets unless requested
	Optional bool `yaml:"optional"`
	// Render passes the file through the template engine before comparing
	Render bool `yaml:"render"`
	// When is an expression deciding if the entry applies, it can access
	// target, target_empty, optional and data
	When string `yaml:"when"`
}

// Manifest lists the files a template applies along with its hooks
type Manifest struct {
	// Files are the entries applied in order
	Files []FileEntry `yaml:"files"`
	// Ensure files are created empty when applying to an empty target
	Ensure []string `yaml:"ensure"`
	// Post configures post-processing of copied files using filepath globs
	Post []map[string]string `yaml:"post"`
}

// LoadManifest reads and validates a manifest file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{}
	err = yaml.Unmarshal(data, manifest)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	for _, entry := range manifest.Files {
		if entry.Path == "" {
			return nil, fmt.Errorf("manifest entry without a path in %s", path)
		}
		if strings.Contains(entry.Path, "..") {
			return nil, fmt.Errorf("invalid file name %v", entry.Path)
		}
	}

	for _, name := range manifest.Ensure {
		if strings.Contains(name, "..") {
			return nil, fmt.Errorf("invalid file name %v", name)
		}
	}

	return manifest, nil
}

// resolveManifest loads the configured manifest, the default manifest from
// the source directory, or derives one from the source contents
func resolveManifest(cfg *Config) (*Manifest, error) {
	if cfg.ManifestPath != "" {
		return LoadManifest(cfg.ManifestPath)
	}

	path := filepath.Join(cfg.SourceDirectory, ManifestFileName)
	_, err := os.Stat(path)
	if err == nil {
		return LoadManifest(path)
	}

	return manifestFromSource(cfg.SourceDirectory)
}

// manifestFromSource derives a manifest by walking the source tree, every
// regular file becomes a required entry
func manifestFromSource(dir string) (*Manifest, error) {
	manifest := &Manifest{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == dir {
			return nil
		}

		if d.IsDir() {
			if d.Name() == "_partials" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return fmt.Errorf("invalid file in source: %v", d.Name())
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		manifest.Files = append(manifest.Files, FileEntry{Path: filepath.ToSlash(rel)})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return manifest, nil
}

// entryEnabled evaluates the entry's when expression, entries without one
// are always enabled
func (s *Stencil) entryEnabled(entry FileEntry, targetEmpty bool) (bool, error) {
	if entry.When == "" {
		return true, nil
	}

	env := map[string]any{
		"target":       s.cfg.TargetDirectory,
		"target_empty": targetEmpty,
		"optional":     s.cfg.IncludeOptional,
		"data":         s.cfg.Data,
	}

	prog, err := expr.Compile(entry.When, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("invalid condition for %s: %w", entry.Path, err)
	}

	res, err := expr.Run(prog, env)
	if err != nil {
		return false, fmt.Errorf("evaluating condition for %s: %w", entry.Path, err)
	}

	return res.(bool), nil
}
