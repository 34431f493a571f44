// Package config loads program configuration from a file, the environment
// and built-in defaults. All state lives in the returned struct; nothing is
// process-global, so tests can build arbitrary configurations side by side.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/sokinpui/xattred/internal/dlog"
)

// DefaultMatch selects the user namespace, the only one unprivileged
// processes can usually write.
const DefaultMatch = `^user\.`

// Config carries every recognized option.
type Config struct {
	// ToolPathGet and ToolPathSet name the external read and write tools used
	// by the "tools" backend.
	ToolPathGet string `json:"tool_path_get,omitempty" yaml:"tool_path_get,omitempty" mapstructure:"tool_path_get"`
	ToolPathSet string `json:"tool_path_set,omitempty" yaml:"tool_path_set,omitempty" mapstructure:"tool_path_set"`

	// Backend selects how attributes are read and written: "syscall" for
	// direct calls, "tools" for the external getfattr/setfattr pair.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" mapstructure:"backend"`

	// HookIntoHostEditor opens the edit buffer inside the Neovim instance
	// that spawned this process instead of launching a child editor.
	HookIntoHostEditor bool `json:"hook_into_host_editor,omitempty" yaml:"hook_into_host_editor,omitempty" mapstructure:"hook_into_host_editor"`

	// Editor overrides $VISUAL/$EDITOR for the child-editor flow.
	Editor string `json:"editor,omitempty" yaml:"editor,omitempty" mapstructure:"editor"`

	// Match filters attribute names on listing. "-" selects every namespace.
	Match string `json:"match,omitempty" yaml:"match,omitempty" mapstructure:"match"`

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" mapstructure:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ToolPathGet: "getfattr",
		ToolPathSet: "setfattr",
		Backend:     "syscall",
		Match:       DefaultMatch,
		LogLevel:    dlog.LevelNone,
	}
}

// Load reads the configuration. An explicit path wins, then $XATTRED_CONFIG,
// then a config.yaml under ~/.config/xattred or /etc/xattred. A missing file
// is not an error; defaults apply. Environment variables prefixed XATTRED_
// override file values.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("tool_path_get", def.ToolPathGet)
	v.SetDefault("tool_path_set", def.ToolPathSet)
	v.SetDefault("backend", def.Backend)
	v.SetDefault("hook_into_host_editor", def.HookIntoHostEditor)
	v.SetDefault("editor", def.Editor)
	v.SetDefault("match", def.Match)
	v.SetDefault("log_level", def.LogLevel)

	switch {
	case path != "":
		v.SetConfigFile(path)
	case os.Getenv("XATTRED_CONFIG") != "":
		v.SetConfigFile(os.Getenv("XATTRED_CONFIG"))
	default:
		v.AddConfigPath("$HOME/.config/xattred")
		v.AddConfigPath("/etc/xattred")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("xattred")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// MatchPattern compiles the attribute-name filter. "-" disables filtering
// and returns nil.
func (c Config) MatchPattern() (*regexp.Regexp, error) {
	m := strings.TrimSpace(c.Match)
	if m == "" {
		m = DefaultMatch
	}
	if m == "-" {
		return nil, nil
	}
	re, err := regexp.Compile(m)
	if err != nil {
		return nil, fmt.Errorf("invalid match pattern %q: %w", m, err)
	}
	return re, nil
}
