// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package stencil applies a set of project template files into a target
// directory. Each file tracked by the template manifest is classified as
// identical, different or missing in the target, differences are shown as
// diffs and updates are copied either unconditionally or after interactive
// confirmation.
package stencil

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/choria-io/stencil/diff"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Config configures an apply operation
type Config struct {
	// SourceDirectory holds the template files being applied
	SourceDirectory string `yaml:"source"`
	// TargetDirectory is the project the template is applied to, must exist
	TargetDirectory string `yaml:"target"`
	// ManifestPath overrides the default manifest in the source directory
	ManifestPath string `yaml:"manifest"`
	// IgnoreWhitespace ignores all whitespace when diffing files
	IgnoreWhitespace bool `yaml:"ignore_whitespace"`
	// NoGitDiff always uses the builtin differ instead of git diff
	NoGitDiff bool `yaml:"no_git_diff"`
	// Interactive prompts before copying or overwriting files
	Interactive bool `yaml:"interactive"`
	// DryRun reports what would be done without writing to the target
	DryRun bool `yaml:"dry_run"`
	// IncludeOptional treats optional files as required, it is forced on
	// when the target directory is empty
	IncludeOptional bool `yaml:"optional"`
	// Engine selects the template engine for rendered entries (go, jet)
	Engine string `yaml:"engine"`
	// Sets a custom template delimiter, useful for templating templates
	CustomLeftDelimiter string `yaml:"left_delimiter"`
	// Sets a custom template delimiter, useful for templating templates
	CustomRightDelimiter string `yaml:"right_delimiter"`
	// Data is passed to rendered entries and "when" expressions
	Data map[string]any `yaml:"data"`
}

type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
}

// FileState classifies a manifest entry against the target directory
type FileState string

const (
	StateIdentical FileState = "identical"
	StateDifferent FileState = "different"
	StateMissing   FileState = "missing"
	StateSkipped   FileState = "skipped"
)

// Result records what was found and done for one manifest entry
type Result struct {
	// Path is the entry path relative to the source directory
	Path string
	// Dest is the located absolute destination path
	Dest string
	// State classifies the destination before any copy was made
	State FileState
	// Optional indicates the entry was marked optional in the manifest
	Optional bool
	// Copied indicates the source was copied over the destination
	Copied bool
	// Created indicates an ensure file was created empty
	Created bool
}

type Stencil struct {
	cfg      *Config
	manifest *Manifest
	engine   engineType
	log      Logger

	out        io.Writer
	prompt     prompter
	isTerminal func() bool
}

type applyOption func(*Stencil)

// withOutput directs report messages to w instead of standard output
func withOutput(w io.Writer) applyOption {
	return func(s *Stencil) {
		s.out = w
	}
}

// withPrompter replaces the interactive confirmation prompter
func withPrompter(p prompter) applyOption {
	return func(s *Stencil) {
		s.prompt = p
	}
}

// withIsTerminal replaces terminal detection
func withIsTerminal(f func() bool) applyOption {
	return func(s *Stencil) {
		s.isTerminal = f
	}
}

// New creates a new stencil instance, loading the manifest from the source
// directory or deriving one from its contents when no manifest file exists
func New(cfg Config, opts ...applyOption) (*Stencil, error) {
	err := validateConfig(&cfg)
	if err != nil {
		return nil, err
	}

	s := &Stencil{
		cfg:        &cfg,
		out:        os.Stdout,
		prompt:     surveyPrompter{},
		isTerminal: isTerminal,
	}

	if cfg.Engine == "jet" {
		s.engine = engineJet
	}

	for _, opt := range opts {
		opt(s)
	}

	if cfg.Interactive && !s.isTerminal() {
		return nil, fmt.Errorf("interactive mode requires a terminal")
	}

	s.manifest, err = resolveManifest(&cfg)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func validateConfig(cfg *Config) error {
	if cfg.SourceDirectory == "" {
		return fmt.Errorf("source is required")
	}

	if cfg.TargetDirectory == "" {
		return fmt.Errorf("target is required")
	}

	var err error
	cfg.SourceDirectory, err = filepath.Abs(cfg.SourceDirectory)
	if err != nil {
		return fmt.Errorf("invalid source %s: %v", cfg.SourceDirectory, err)
	}

	cfg.TargetDirectory, err = filepath.Abs(cfg.TargetDirectory)
	if err != nil {
		return fmt.Errorf("invalid target %s: %v", cfg.TargetDirectory, err)
	}

	stat, err := os.Stat(cfg.SourceDirectory)
	if err != nil {
		return fmt.Errorf("cannot read source directory: %w", err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("source is not a directory: %s", cfg.SourceDirectory)
	}

	stat, err = os.Stat(cfg.TargetDirectory)
	if err != nil {
		return fmt.Errorf("cannot read target directory: %w", err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("target is not a directory: %s", cfg.TargetDirectory)
	}

	switch cfg.Engine {
	case "", "go", "jet":
	default:
		return fmt.Errorf("invalid engine %q", cfg.Engine)
	}

	return nil
}

// Logger configures a logger to use, no logging is done without this
func (s *Stencil) Logger(log Logger) {
	s.log = log
}

// Apply processes every manifest entry against the target directory and
// returns what was found and done per entry.
//
// An empty target, or one holding only a .git directory, is being
// initialized: optional entries are treated as required and the manifest's
// ensure files are created empty.
func (s *Stencil) Apply() ([]Result, error) {
	empty, err := targetIsEmpty(s.cfg.TargetDirectory)
	if err != nil {
		return nil, err
	}

	if empty {
		s.cfg.IncludeOptional = true
	}

	var results []Result

	for _, entry := range s.manifest.Files {
		enabled, err := s.entryEnabled(entry, empty)
		if err != nil {
			return nil, err
		}

		if !enabled {
			if s.log != nil {
				s.log.Debugf("Skipping %s, condition %q is false", entry.Path, entry.When)
			}
			results = append(results, Result{Path: entry.Path, State: StateSkipped, Optional: entry.Optional})
			continue
		}

		result, err := s.applyEntry(entry)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	if empty {
		created, err := s.ensureFiles()
		if err != nil {
			return nil, err
		}
		results = append(results, created...)
	}

	return results, nil
}

func (s *Stencil) applyEntry(entry FileEntry) (Result, error) {
	source := filepath.Join(s.cfg.SourceDirectory, filepath.FromSlash(entry.Path))

	stat, err := os.Stat(source)
	if err != nil {
		return Result{}, fmt.Errorf("cannot read template file %s: %w", entry.Path, err)
	}
	if !stat.Mode().IsRegular() {
		return Result{}, fmt.Errorf("not a file: %s", source)
	}

	// rendered entries are compared and copied using their rendered bytes
	var content []byte
	if entry.Render {
		content, err = s.renderTemplateFile(source, s.cfg.Data)
		if err != nil {
			return Result{}, err
		}
	}

	dest, err := s.locateDest(entry)
	if err != nil {
		return Result{}, err
	}

	result := Result{Path: entry.Path, Dest: dest, Optional: entry.Optional}

	optnl := ""
	if entry.Optional {
		optnl = " (optional)"
	}

	stat, err = os.Stat(dest)
	switch {
	case err == nil:
		if !stat.Mode().IsRegular() {
			return Result{}, fmt.Errorf("not a file: %s", dest)
		}

		same, err := s.sameContent(content, source, dest)
		if err != nil {
			return Result{}, err
		}

		if same {
			result.State = StateIdentical
			s.reportf(text.FgGreen, "Identical%s: %s", optnl, entry.Path)
			return result, nil
		}

		result.State = StateDifferent
		s.reportf(text.FgMagenta, "Different%s: %s", optnl, entry.Path)

		err = s.showDiff(content, source, dest)
		if err != nil {
			return Result{}, err
		}

		if s.cfg.Interactive {
			overwrite, err := s.prompt.Confirm("Overwrite?")
			if err != nil {
				return Result{}, err
			}
			if overwrite {
				err = s.copyFile(entry, content, source, dest)
				if err != nil {
					return Result{}, err
				}
				result.Copied = !s.cfg.DryRun
			}
		}

	case entry.Optional && !s.cfg.IncludeOptional:
		result.State = StateMissing

		if !s.cfg.Interactive {
			s.reportf(text.FgCyan, "Not copying optional %s", entry.Path)
			return result, nil
		}

		s.reportf(text.FgCyan, "Optional %s", entry.Path)
		copyIt, err := s.prompt.Confirm("Copy?")
		if err != nil {
			return Result{}, err
		}
		if copyIt {
			err = s.copyFile(entry, content, source, dest)
			if err != nil {
				return Result{}, err
			}
			result.Copied = !s.cfg.DryRun
		}

	default:
		result.State = StateMissing

		if s.cfg.Interactive {
			s.reportf(text.FgRed, "Missing%s %s", optnl, entry.Path)
			copyIt, err := s.prompt.Confirm("Copy?")
			if err != nil {
				return Result{}, err
			}
			if !copyIt {
				return result, nil
			}
		}

		err = s.copyFile(entry, content, source, dest)
		if err != nil {
			return Result{}, err
		}
		result.Copied = !s.cfg.DryRun
	}

	return result, nil
}

// locateDest resolves where the entry lives in the target, entries with
// Search set are looked up recursively by base name and alternative names
// when the exact path does not exist
func (s *Stencil) locateDest(entry FileEntry) (string, error) {
	dest := filepath.Join(s.cfg.TargetDirectory, filepath.FromSlash(entry.Path))

	_, err := os.Stat(dest)
	if err == nil || !entry.Search {
		return dest, nil
	}

	found, err := locateAlternative(s.cfg.TargetDirectory, filepath.Base(dest), entry.AltNames)
	if err != nil {
		return "", err
	}

	if found != "" {
		if s.log != nil {
			s.log.Debugf("Located %s at %s", entry.Path, found)
		}
		return found, nil
	}

	return dest, nil
}

func (s *Stencil) sameContent(content []byte, source string, dest string) (bool, error) {
	destSum, err := sha256File(dest)
	if err != nil {
		return false, err
	}

	if content != nil {
		return fmt.Sprintf("%x", sha256.Sum256(content)) == destSum, nil
	}

	sourceSum, err := sha256File(source)
	if err != nil {
		return false, err
	}

	return sourceSum == destSum, nil
}

func (s *Stencil) showDiff(content []byte, source string, dest string) error {
	from := source

	// rendered entries diff against their rendered bytes
	if content != nil {
		tf, err := os.CreateTemp("", "stencil-render-")
		if err != nil {
			return err
		}
		defer os.Remove(tf.Name())

		_, err = tf.Write(content)
		if err != nil {
			tf.Close()
			return err
		}
		err = tf.Close()
		if err != nil {
			return err
		}

		from = tf.Name()
	}

	return diff.Print(s.out, from, dest, diff.Options{
		IgnoreWhitespace: s.cfg.IgnoreWhitespace,
		NoGit:            s.cfg.NoGitDiff,
	})
}

func (s *Stencil) copyFile(entry FileEntry, content []byte, source string, dest string) error {
	s.reportf(text.FgYellow, "%sCopying %s to %s", s.dryRunPrefix(), entry.Path, dest)

	if s.cfg.DryRun {
		return nil
	}

	if content == nil {
		var err error
		content, err = os.ReadFile(source)
		if err != nil {
			return err
		}
	}

	mode := fs.FileMode(0644)
	if stat, err := os.Stat(source); err == nil {
		mode = stat.Mode().Perm()
	}

	err := os.MkdirAll(filepath.Dir(dest), 0755)
	if err != nil {
		return err
	}

	err = os.WriteFile(dest, content, mode)
	if err != nil {
		return err
	}

	if s.log != nil {
		s.log.Infof("Copied %s to %s", entry.Path, dest)
	}

	return s.postFile(dest)
}

// ensureFiles creates the manifest's ensure entries empty, called only when
// the target directory started out empty
func (s *Stencil) ensureFiles() ([]Result, error) {
	var results []Result

	for _, name := range s.manifest.Ensure {
		path := filepath.Join(s.cfg.TargetDirectory, filepath.FromSlash(name))

		_, err := os.Stat(path)
		if err == nil {
			continue
		}

		if s.cfg.Interactive {
			s.reportf(text.FgRed, "Missing %s", name)
			create, err := s.prompt.Confirm("Create empty?")
			if err != nil {
				return nil, err
			}
			if !create {
				continue
			}
		}

		s.reportf(text.FgYellow, "%sCreating empty %s", s.dryRunPrefix(), name)

		if s.cfg.DryRun {
			continue
		}

		err = os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, err
		}

		err = os.WriteFile(path, nil, 0644)
		if err != nil {
			return nil, err
		}

		results = append(results, Result{Path: name, State: StateMissing, Created: true})
	}

	return results, nil
}

func (s *Stencil) dryRunPrefix() string {
	if s.cfg.DryRun {
		return "[DRY RUN] "
	}

	return ""
}

// reportf prints a banner style progress message
func (s *Stencil) reportf(color text.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(s.out, text.Colors{text.Bold, color}.Sprintf("##### %s #####", msg))
}

// targetIsEmpty reports whether dir has no children, a directory holding
// only a .git directory counts as empty
func targetIsEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	if len(entries) == 0 {
		return true, nil
	}

	return len(entries) == 1 && entries[0].IsDir() && entries[0].Name() == ".git", nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
