package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/masmgr/jjlog-go/internal/git"
)

//go:embed defaults.toml
var defaultsTOML []byte

// Source identifies the layer a value came from.
type Source int

const (
	SourceDefault Source = iota
	SourceEnv
	SourceUser
	SourceRepo
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceEnv:
		return "env"
	case SourceUser:
		return "user"
	case SourceRepo:
		return "repo"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Layer is one parsed configuration source.
type Layer struct {
	Source Source
	File   string // empty for the default and env layers
	Data   map[string]any
}

// AnnotatedValue is a leaf value together with where it came from.
type AnnotatedValue struct {
	Path       []string
	Value      any
	Source     Source
	File       string
	Overridden bool
}

// Key returns the dotted key path, quoting segments that are not bare keys.
func (v AnnotatedValue) Key() string {
	return KeyString(v.Path)
}

// Rendered returns the value in canonical inline TOML form.
func (v AnnotatedValue) Rendered() string {
	return RenderValue(v.Value)
}

// Settings is the effective configuration of one workspace. It is never
// modified after Resolve returns.
type Settings struct {
	log      *slog.Logger
	root     string
	layers   []Layer
	merged   map[string]any
	defaults map[string]any
	values   []AnnotatedValue
}

// Options overrides the locations Resolve reads.
type Options struct {
	// ConfigDir replaces os.UserConfigDir.
	ConfigDir string
	// HomeDir replaces os.UserHomeDir.
	HomeDir string
	// SkipUser disables the user layer.
	SkipUser bool
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Resolve builds the effective settings for the workspace containing path.
func Resolve(path string) (*Settings, error) {
	return ResolveWithOptions(path, Options{})
}

// ResolveWithOptions folds the default, env, user and repo layers in that
// order. A path outside any workspace has no repo layer.
func ResolveWithOptions(path string, opts Options) (*Settings, error) {
	log := opts.logger().With("component", "config")

	def, err := DefaultLayer()
	if err != nil {
		return nil, err
	}
	layers := []Layer{def}
	env, err := newEnvironment()
	if err != nil {
		return nil, err
	}
	layers = append(layers, env.layer())

	var root, repoFile string
	if path != "" {
		ws, err := git.FindWorkspace(path)
		switch {
		case err == nil:
			root = ws.Root
			repoFile = ws.ConfigPath()
		case errors.Is(err, git.ErrNoWorkspace):
			log.Debug("no workspace, skipping repo config", "path", path)
		default:
			return nil, err
		}
	}

	if !opts.SkipUser {
		files, err := userConfigFiles(env, opts)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			fileLayers, err := loadFile(SourceUser, file, root)
			if err != nil {
				return nil, err
			}
			log.Debug("loaded user config", "file", file, "layers", len(fileLayers))
			layers = append(layers, fileLayers...)
		}
	}

	if repoFile != "" {
		if _, err := os.Stat(repoFile); err == nil {
			fileLayers, err := loadFile(SourceRepo, repoFile, root)
			if err != nil {
				return nil, err
			}
			log.Debug("loaded repo config", "file", repoFile, "layers", len(fileLayers))
			layers = append(layers, fileLayers...)
		}
	}

	s, err := NewSettings(layers...)
	if err != nil {
		return nil, err
	}
	s.root = root
	s.log = log
	return s, nil
}

// DefaultLayer returns the built-in configuration.
func DefaultLayer() (Layer, error) {
	data, err := parseTOML(defaultsTOML, "defaults.toml")
	if err != nil {
		return Layer{}, err
	}
	return Layer{Source: SourceDefault, Data: data}, nil
}

// NewSettings folds layers left to right. The first layer with
// SourceDefault provides the values ListNonDefault compares against.
func NewSettings(layers ...Layer) (*Settings, error) {
	s := &Settings{log: slog.New(slog.DiscardHandler), merged: map[string]any{}, defaults: map[string]any{}}
	for _, l := range layers {
		if err := fold(s.merged, l.Data, nil, l.File); err != nil {
			return nil, err
		}
		if l.Source == SourceDefault {
			if err := fold(s.defaults, l.Data, nil, l.File); err != nil {
				return nil, err
			}
		}
		s.layers = append(s.layers, l)
	}
	s.values = annotate(s.layers)
	return s, nil
}

// WorkspaceRoot returns the root of the workspace the settings were
// resolved for, or "".
func (s *Settings) WorkspaceRoot() string {
	return s.root
}

// Layers returns the layers in fold order.
func (s *Settings) Layers() []Layer {
	return append([]Layer(nil), s.layers...)
}

// Get looks up a dotted key path such as "revsets.log".
func (s *Settings) Get(key string) (any, bool) {
	return lookup(s.merged, SplitKey(key))
}

// AllAnnotated returns every leaf of every layer in fold order, including
// overridden and default values.
func AllAnnotated(s *Settings) []AnnotatedValue {
	return append([]AnnotatedValue(nil), s.values...)
}

// ListNonDefault returns, sorted by key, the effective values that came from
// a non-default layer and differ from the built-in default.
func ListNonDefault(s *Settings) []AnnotatedValue {
	var out []AnnotatedValue
	for _, v := range s.values {
		if v.Overridden || v.Source == SourceDefault {
			continue
		}
		if def, ok := lookup(s.defaults, v.Path); ok && RenderValue(def) == RenderValue(v.Value) {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// fold merges src into dst. Tables merge key by key; everything else
// replaces what was there.
func fold(dst, src map[string]any, prefix []string, file string) error {
	for _, k := range sortedKeys(src) {
		path := append(append([]string(nil), prefix...), k)
		next := src[k]
		prev, exists := dst[k]
		if !exists {
			dst[k] = clone(next)
			continue
		}
		if kindOf(prev) != kindOf(next) {
			return &ConfigError{
				Stage: StageMerge,
				Key:   KeyString(path),
				File:  file,
				Err:   fmt.Errorf("cannot replace %s with %s", kindOf(prev), kindOf(next)),
			}
		}
		if table, ok := next.(map[string]any); ok {
			if err := fold(prev.(map[string]any), table, path, file); err != nil {
				return err
			}
			continue
		}
		dst[k] = clone(next)
	}
	return nil
}

// annotate lists the leaves of every layer and marks those a later layer
// sets again.
func annotate(layers []Layer) []AnnotatedValue {
	var out []AnnotatedValue
	last := map[string]int{}
	for _, l := range layers {
		walkLeaves(l.Data, nil, func(path []string, v any) {
			key := KeyString(path)
			if i, ok := last[key]; ok {
				out[i].Overridden = true
			}
			last[key] = len(out)
			out = append(out, AnnotatedValue{Path: path, Value: v, Source: l.Source, File: l.File})
		})
	}
	return out
}

func walkLeaves(m map[string]any, prefix []string, fn func([]string, any)) {
	for _, k := range sortedKeys(m) {
		path := append(append([]string(nil), prefix...), k)
		if table, ok := m[k].(map[string]any); ok {
			walkLeaves(table, path, fn)
			continue
		}
		fn(path, m[k])
	}
}

type valueKind int

const (
	kindScalar valueKind = iota
	kindArray
	kindTable
)

func (k valueKind) String() string {
	switch k {
	case kindArray:
		return "array"
	case kindTable:
		return "table"
	}
	return "scalar"
}

func kindOf(v any) valueKind {
	switch v.(type) {
	case map[string]any:
		return kindTable
	case []any:
		return kindArray
	}
	return kindScalar
}

func clone(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = clone(e)
		}
		return out
	}
	return v
}

func lookup(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, seg := range path {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = table[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseTOML decodes a configuration file into a generic tree.
func parseTOML(data []byte, file string) (map[string]any, error) {
	out := map[string]any{}
	if err := toml.Unmarshal(data, &out); err != nil {
		cerr := &ConfigError{Stage: StageParse, File: file, Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			cerr.Line, cerr.Column = de.Position()
			cerr.Key = KeyString(de.Key())
		}
		return nil, cerr
	}
	return out, nil
}

// loadFile parses one file into its top-level layer followed by the
// [[--scope]] layers whose conditions match root.
func loadFile(source Source, file, root string) ([]Layer, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}
	tree, err := parseTOML(data, file)
	if err != nil {
		return nil, err
	}

	scopes, err := takeScopes(tree, file)
	if err != nil {
		return nil, err
	}
	layers := []Layer{{Source: source, File: file, Data: tree}}
	for _, sc := range scopes {
		if sc.applies(root) {
			layers = append(layers, Layer{Source: source, File: file, Data: sc.data})
		}
	}
	return layers, nil
}

const (
	scopeKey = "--scope"
	whenKey  = "--when"
)

type scope struct {
	repositories []string // nil when unconditional
	data         map[string]any
}

func takeScopes(tree map[string]any, file string) ([]scope, error) {
	raw, ok := tree[scopeKey]
	if !ok {
		return nil, nil
	}
	delete(tree, scopeKey)

	tables, ok := raw.([]any)
	if !ok {
		return nil, &ConfigError{Stage: StageParse, Key: scopeKey, File: file, Err: errors.New("expected array of tables")}
	}
	var out []scope
	for _, t := range tables {
		data, ok := t.(map[string]any)
		if !ok {
			return nil, &ConfigError{Stage: StageParse, Key: scopeKey, File: file, Err: errors.New("expected table")}
		}
		sc := scope{data: data}
		if when, ok := data[whenKey].(map[string]any); ok {
			delete(data, whenKey)
			if repos, ok := when["repositories"].([]any); ok {
				sc.repositories = []string{}
				for _, r := range repos {
					if s, ok := r.(string); ok {
						sc.repositories = append(sc.repositories, s)
					}
				}
			}
		}
		delete(data, scopeKey)
		out = append(out, sc)
	}
	return out, nil
}

func (sc scope) applies(root string) bool {
	if sc.repositories == nil {
		return true
	}
	if root == "" {
		return false
	}
	for _, repo := range sc.repositories {
		prefix := filepath.Clean(expandHome(repo))
		if root == prefix || strings.HasPrefix(root, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// userConfigFiles lists the user layer files in load order.
func userConfigFiles(env *environment, opts Options) ([]string, error) {
	if paths := env.configPaths(); len(paths) > 0 {
		var files []string
		for _, p := range paths {
			found, err := tomlFiles(p)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
		return files, nil
	}

	home := opts.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	configDir := opts.ConfigDir
	if configDir == "" {
		configDir, _ = os.UserConfigDir()
	}

	var candidates []string
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ".jjconfig.toml"))
	}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, "jj", "config.toml"))
	}

	var files []string
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			files = append(files, c)
		}
	}
	if configDir != "" {
		found, err := tomlFiles(filepath.Join(configDir, "jj", "conf.d"))
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// tomlFiles returns path itself, or the *.toml files of a directory sorted
// by name. A missing path yields nothing.
func tomlFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*.toml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
