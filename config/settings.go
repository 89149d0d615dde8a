package config

import "time"

const (
	revsetAliasesKey = "revset-aliases"
	chainLimitKey    = "jjlog.chain-limit"
	lockTimeoutKey   = "jjlog.lock-timeout"
)

const (
	BackendGoGit  = "go-git"
	BackendGitCLI = "git-cli"

	defaultChainLimit  = 10
	defaultLockTimeout = 5 * time.Second
)

// Alias is one revset-aliases entry.
type Alias struct {
	Decl string
	Body string
}

// GetString returns the string at key, or "" when it is missing or not a string.
func (s *Settings) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Int returns the integer at key.
func (s *Settings) Int(key string) (int64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func (s *Settings) UserName() string  { return s.GetString("user.name") }
func (s *Settings) UserEmail() string { return s.GetString("user.email") }

// DefaultRevset is the expression used when a query gives none.
func (s *Settings) DefaultRevset() string { return s.GetString("revsets.log") }

// Color is one of "auto", "always", "never" or "debug".
func (s *Settings) Color() string {
	if c := s.GetString("ui.color"); c != "" {
		return c
	}
	return "auto"
}

// Backend selects the commit graph reader.
func (s *Settings) Backend() string {
	switch b := s.GetString("jjlog.backend"); b {
	case BackendGoGit, BackendGitCLI:
		return b
	}
	return BackendGoGit
}

// ChainLimit is the default number of commits HeadChain returns. A value
// that is not a positive integer is logged and replaced by 10.
func (s *Settings) ChainLimit() int {
	v, ok := s.Get(chainLimitKey)
	if !ok {
		return defaultChainLimit
	}
	n, isInt := v.(int64)
	if !isInt || n <= 0 {
		s.warnInvalid(chainLimitKey, v, defaultChainLimit)
		return defaultChainLimit
	}
	return int(n)
}

// LockTimeout bounds how long a call waits for a busy session. It accepts a
// duration string or a number of seconds; zero means fail immediately.
// Anything else is logged and replaced by 5s.
func (s *Settings) LockTimeout() time.Duration {
	v, ok := s.Get(lockTimeoutKey)
	if !ok {
		return defaultLockTimeout
	}
	switch t := v.(type) {
	case int64:
		if t >= 0 {
			return time.Duration(t) * time.Second
		}
	case string:
		if d, err := time.ParseDuration(t); err == nil && d >= 0 {
			return d
		}
	}
	s.warnInvalid(lockTimeoutKey, v, defaultLockTimeout)
	return defaultLockTimeout
}

func (s *Settings) warnInvalid(key string, value, fallback any) {
	s.log.Warn("invalid setting, using default", "key", key, "value", RenderValue(value), "default", fallback)
}

// RevsetAliases returns the revset-aliases table sorted by declaration. A
// body that is not a string fails with a *ValueError.
func (s *Settings) RevsetAliases() ([]Alias, error) {
	v, ok := s.Get(revsetAliasesKey)
	if !ok {
		return nil, nil
	}
	table, ok := v.(map[string]any)
	if !ok {
		return nil, &ValueError{Path: []string{revsetAliasesKey}, Expected: "table", Value: v}
	}
	out := make([]Alias, 0, len(table))
	for _, decl := range sortedKeys(table) {
		str, ok := table[decl].(string)
		if !ok {
			return nil, &ValueError{Path: []string{revsetAliasesKey, decl}, Expected: "string", Value: table[decl]}
		}
		out = append(out, Alias{Decl: decl, Body: str})
	}
	return out, nil
}
