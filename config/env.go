package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envBindings maps configuration keys to the variables that set them, in
// order of precedence.
var envBindings = []struct {
	key  string
	vars []string
}{
	{"user.name", []string{"JJ_USER"}},
	{"user.email", []string{"JJ_EMAIL"}},
	{"ui.editor", []string{"VISUAL", "EDITOR"}},
	{"ui.pager", []string{"PAGER"}},
}

// environment reads the process environment through viper.
type environment struct {
	v *viper.Viper
}

func newEnvironment() (*environment, error) {
	v := viper.New()
	bindings := [][]string{{"no-color", "NO_COLOR"}, {"config-path", "JJ_CONFIG"}}
	for _, b := range envBindings {
		bindings = append(bindings, append([]string{b.key}, b.vars...))
	}
	if err := bindEnv(v, bindings); err != nil {
		return nil, err
	}
	return &environment{v: v}, nil
}

// bindEnv binds each key, given first, to the variables after it.
func bindEnv(v *viper.Viper, bindings [][]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("bind environment %q: %w", b, err)
		}
	}
	return nil
}

// layer returns the values the environment sets.
func (e *environment) layer() Layer {
	data := map[string]any{}
	for _, b := range envBindings {
		if e.v.IsSet(b.key) {
			setPath(data, SplitKey(b.key), e.v.GetString(b.key))
		}
	}
	if e.v.GetString("no-color") != "" {
		setPath(data, []string{"ui", "color"}, "never")
	}
	return Layer{Source: SourceEnv, Data: data}
}

// configPaths splits $JJ_CONFIG into its entries.
func (e *environment) configPaths() []string {
	raw := e.v.GetString("config-path")
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, string(filepath.ListSeparator)) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setPath(m map[string]any, path []string, v any) {
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
