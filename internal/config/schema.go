package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// OptionType is the expected type of an option value.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeDuration OptionType = "duration"
	// TypePath is a filesystem path, relative paths resolve against the
	// directory of the config file.
	TypePath OptionType = "path"
)

// ConfigOption declares one configuration option.
type ConfigOption struct {
	Key         string
	Type        OptionType
	Default     string
	Description string
	// Section is "" for global options.
	Section string
	// EnvVar, when set, overrides the file value.
	EnvVar string
}

// ConfigSchema is the set of known options. It drives validation, the
// typed getters, env var overrides and `config schema` output.
type ConfigSchema struct {
	options []*ConfigOption
	index   map[string]map[string]*ConfigOption // section -> key
}

// NewSchema creates an empty schema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{index: make(map[string]map[string]*ConfigOption)}
}

// Register adds opt. A later registration of the same section/key wins.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := &opt
	s.options = append(s.options, ref)
	if s.index[opt.Section] == nil {
		s.index[opt.Section] = make(map[string]*ConfigOption)
	}
	s.index[opt.Section][opt.Key] = ref
}

// RegisterAll adds each of opts.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, o := range opts {
		s.Register(o)
	}
}

// Lookup returns the option for key in section ("" for global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	return s.index[section][key]
}

// IsKnown reports whether key may appear in section. Global keys may appear
// in any section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	return s.Lookup(section, key) != nil || s.Lookup("", key) != nil
}

// Options returns the options of section in registration order.
func (s *ConfigSchema) Options(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted non-global section names.
func (s *ConfigSchema) Sections() []string {
	var out []string
	for sec := range s.index {
		if sec != "" {
			out = append(out, sec)
		}
	}
	slices.Sort(out)
	return out
}

// Resolve returns the effective global value of key: the declared env var,
// then the config file, then the schema default.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if v, ok := c.GetGlobalOption(key); ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig reports unknown options and type mismatches, sorted.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string
	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}
	for section, opts := range c.Sections {
		for key, value := range opts {
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt == nil {
				issues = append(issues, fmt.Sprintf("unknown option in [%s]: %q (value: %q)", section, key, value))
				continue
			}
			if err := validateType(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}
	slices.Sort(issues)
	return issues
}

func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, TypePath, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// GetString returns the resolved value of key.
func (c *Config) GetString(key string) string {
	return DefaultSchema().Resolve(c, key)
}

// GetBool returns the resolved value of key as a bool, false when invalid.
func (c *Config) GetBool(key string) bool {
	b, err := parseBool(c.GetString(key))
	return err == nil && b
}

// GetInt returns the resolved value of key as an int, 0 when invalid.
func (c *Config) GetInt(key string) int {
	i, err := strconv.Atoi(c.GetString(key))
	if err != nil {
		return 0
	}
	return i
}

// GetDuration returns the resolved value of key as a duration, 0 when invalid.
func (c *Config) GetDuration(key string) time.Duration {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0
	}
	return d
}

// FormatHelp renders every option grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder
	if globals := s.Options(""); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}
	for _, sec := range s.Sections() {
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range s.Options(sec) {
			writeOptionHelp(&b, o)
		}
	}
	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-24s %s", o.Key, o.Description)
	var parts []string
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, "type: "+string(o.Type))
	}
	if o.Default != "" {
		parts = append(parts, "default: "+o.Default)
	}
	if o.EnvVar != "" {
		parts = append(parts, "env: "+o.EnvVar)
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// Option keys.
const (
	KeyScriptsDir     = "scripts.dir"
	KeyScriptsWatch   = "scripts.watch"
	KeyKeymapFile     = "keymap.file"
	KeyPollInterval   = "poll.interval"
	KeyGameURL        = "game.url"
	KeyGameBuffer     = "game.buffer"
	KeyStartVisible   = "overlay.start-visible"
	KeyLogFile        = "log.file"
	KeyLogLevel       = "log.level"
	KeyLogMaxSizeMB   = "log.max-size-mb"
	KeyLogMaxFiles    = "log.max-files"
	KeyLogBufferSize  = "log.buffer-size"
	KeyRunStopTimeout = "run.stop-timeout"
)

// DefaultSchema returns the schema of every option BlockyTK understands.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: KeyScriptsDir, Type: TypePath, Default: "scripts", Description: "Directory scanned for *.js scripts", EnvVar: "BLOCKYTK_SCRIPTS_DIR"},
		{Key: KeyScriptsWatch, Type: TypeBool, Default: "true", Description: "Reload the catalog when scripts change"},
		{Key: KeyKeymapFile, Type: TypePath, Default: "keys.json", Description: "Toggle key and shortcut bindings file", EnvVar: "BLOCKYTK_KEYMAP"},
		{Key: KeyPollInterval, Type: TypeDuration, Default: "20ms", Description: "Game event polling interval"},
		{Key: KeyGameURL, Type: TypeString, Default: "", Description: "Websocket URL of the game bridge (empty: offline)", EnvVar: "BLOCKYTK_GAME_URL"},
		{Key: KeyGameBuffer, Type: TypeInt, Default: "256", Description: "Queued game events kept before the oldest is dropped"},
		{Key: KeyStartVisible, Type: TypeBool, Default: "false", Description: "Show the overlay immediately on start"},
		{Key: KeyRunStopTimeout, Type: TypeDuration, Default: "5s", Description: "How long run waits for a script to honour a stop request"},
		{Key: KeyLogFile, Type: TypePath, Default: "", Description: "Log file path (JSON output)", EnvVar: "BLOCKYTK_LOG_FILE"},
		{Key: KeyLogLevel, Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "BLOCKYTK_LOG_LEVEL"},
		{Key: KeyLogMaxSizeMB, Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		{Key: KeyLogMaxFiles, Type: TypeInt, Default: "5", Description: "Max number of rotated log files"},
		{Key: KeyLogBufferSize, Type: TypeInt, Default: "1000", Description: "In-memory log entries shown in the overlay"},
	})
	return s
}
