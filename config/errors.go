package config

import "fmt"

// Stage is the resolution step a ConfigError happened in.
type Stage string

const (
	StageParse Stage = "parse"
	StageMerge Stage = "merge"
)

// ConfigError reports a file that cannot be decoded or a value whose type
// conflicts with a lower layer.
type ConfigError struct {
	Stage  Stage
	Key    string
	File   string
	Line   int
	Column int
	Err    error
}

func (e *ConfigError) Error() string {
	where := e.File
	if where == "" {
		where = "built-in config"
	}
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d:%d", where, e.Line, e.Column)
	}
	if e.Key != "" {
		return fmt.Sprintf("config %s error in %s at %s: %v", e.Stage, where, e.Key, e.Err)
	}
	return fmt.Sprintf("config %s error in %s: %v", e.Stage, where, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValueError reports a setting that holds a value of the wrong type.
type ValueError struct {
	Path     []string
	Expected string
	Value    any
}

// Key returns the dotted key of the setting.
func (e *ValueError) Key() string { return KeyString(e.Path) }

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Key(), e.Expected, RenderValue(e.Value))
}
