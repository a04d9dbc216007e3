package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
)

// Source says where a config value came from. Name is set for builtin and
// default values, File/Line/Column for values read from YAML.
type Source struct {
	Kind   SourceKind
	Name   string
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config       *Config
	Sources      map[string]Source // dotted key -> file position of the winning value
	ProfileBases map[string]string // profile name -> builtin it patches
	Files        []string          // every file read, includes before includers
}

const configDirName = "spotlight-dimmer"

// DefaultConfigPath returns $XDG_CONFIG_HOME/spotlight-dimmer/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, configDirName, "config.yaml"), nil
}

// LoadWithSources loads the config at DefaultConfigPath.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the
// defaults; Save on the result creates it.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &loader{
		visited: make(map[string]bool),
		sources: make(map[string]Source),
	}
	if _, err := os.Stat(path); err == nil {
		if err := l.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	cfg, bases, err := BuildEffectiveConfig(l.raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, l.locate(err)
	}
	cfg.path = path

	return &LoadResult{
		Config:       cfg,
		Sources:      l.sources,
		ProfileBases: bases,
		Files:        l.files,
	}, nil
}

// loader walks a config file and its includes depth first. Each file is
// merged after everything it includes, so the includer wins. A file reached
// twice through different includes is merged once; reaching a file that is
// still being loaded is a cycle.
type loader struct {
	visited map[string]bool
	chain   []string

	raw     RawConfig
	sources map[string]Source
	files   []string
}

type includeRef struct {
	path string
	at   Source
}

func (l *loader) load(path string) error {
	file := canonicalPath(path)
	if slices.Contains(l.chain, file) {
		return fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.chain, " -> "), file)
	}
	if l.visited[file] {
		return nil
	}
	l.visited[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var raw RawConfig
	if err := decodeStrictYAML(data, &raw); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	l.chain = append(l.chain, file)
	for _, ref := range includeRefs(root, file) {
		targets, err := expandInclude(file, ref.path)
		if err != nil {
			return fmt.Errorf("%s:%d:%d: include %q: %w", ref.at.File, ref.at.Line, ref.at.Column, ref.path, err)
		}
		for _, target := range targets {
			if err := l.load(target); err != nil {
				return err
			}
		}
	}
	l.chain = l.chain[:len(l.chain)-1]

	l.raw = l.raw.merge(raw)
	recordSources(root, file, "", l.sources)
	l.files = append(l.files, file)
	return nil
}

// locate fills in the file position of a validation error's key.
func (l *loader) locate(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Path != "" {
		if src, ok := l.sources[verr.Path]; ok {
			verr.Source = src
		}
	}
	return err
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// canonicalPath resolves symlinks when it can so cycles are detected
// regardless of how a file is named.
func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// expandInclude turns one include entry into files. A directory contributes
// its *.yaml and *.yml files in name order.
func expandInclude(includer, entry string) ([]string, error) {
	if entry == "" {
		return nil, errors.New("path is empty")
	}
	target, err := expandHome(entry)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(includer), target)
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(target, ent.Name()))
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

func nodeSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// recordSources stores the position of every mapping value under its dotted
// key, e.g. "profiles.work.mode".
func recordSources(n *yaml.Node, file, prefix string, out map[string]Source) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		out[key] = nodeSource(file, val)
		recordSources(val, file, key, out)
	}
}

func includeRefs(root *yaml.Node, file string) []includeRef {
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		items := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			items = val.Content
		}
		var refs []includeRef
		for _, item := range items {
			if item.Kind == yaml.ScalarNode {
				refs = append(refs, includeRef{path: item.Value, at: nodeSource(file, item)})
			}
		}
		return refs
	}
	return nil
}
