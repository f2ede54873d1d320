package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LintLevel is the configured treatment of one lint code.
type LintLevel string

const (
	LintOff   LintLevel = "off"
	LintWarn  LintLevel = "warn"
	LintError LintLevel = "error"
)

// LintSettings holds the per-code levels loaded from a lint settings file.
// Codes missing from the file use DefaultLevel.
type LintSettings struct {
	DefaultLevel LintLevel            `yaml:"default"`
	Levels       map[string]LintLevel `yaml:"lints"`
}

// DefaultLintSettings treats every lint as a warning.
func DefaultLintSettings() *LintSettings {
	return &LintSettings{
		DefaultLevel: LintWarn,
		Levels:       map[string]LintLevel{},
	}
}

// Level returns the configured level for code.
func (s *LintSettings) Level(code string) LintLevel {
	if s == nil {
		return LintWarn
	}
	if lvl, ok := s.Levels[code]; ok {
		return lvl
	}
	if s.DefaultLevel != "" {
		return s.DefaultLevel
	}
	return LintWarn
}

// Enabled reports whether code should run at all.
func (s *LintSettings) Enabled(code string) bool {
	return s.Level(code) != LintOff
}

// Validate rejects unknown level names.
func (s *LintSettings) Validate() error {
	if s == nil {
		return nil
	}
	switch s.DefaultLevel {
	case "", LintOff, LintWarn, LintError:
	default:
		return fmt.Errorf("lint settings: unknown default level %q", s.DefaultLevel)
	}
	for code, lvl := range s.Levels {
		switch lvl {
		case LintOff, LintWarn, LintError:
		default:
			return fmt.Errorf("lint settings: code %s has unknown level %q", code, lvl)
		}
	}
	return nil
}

// LoadLintSettings reads a YAML lint settings document:
//
//	default: warn
//	lints:
//	  sketchy-null-bool: error
//	  unused-narrow-test: off
func LoadLintSettings(path string) (*LintSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLintSettings(data)
}

// ParseLintSettings decodes lint settings from YAML bytes.
func ParseLintSettings(data []byte) (*LintSettings, error) {
	s := DefaultLintSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("lint settings: %w", err)
	}
	if s.Levels == nil {
		s.Levels = map[string]LintLevel{}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
