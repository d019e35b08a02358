// internal/config/config.go
//
// This package handles configuration and the .batchlabel directory structure.
// Every site that runs batchlabel gets a .batchlabel/ folder holding the
// config file, logs, and rendered label sheets.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/batchlabel/internal/lookup"
)

const (
	// Dir is the name of the directory we create in the working directory
	Dir = ".batchlabel"

	// DefaultShelfLifeDays is the shelf life used when the config omits one.
	DefaultShelfLifeDays = 10

	defaultPrintBackend  = "pdf"
	defaultPrintDelay    = 500 * time.Millisecond
	defaultResolverModel = "gemini-2.5-flash"
	defaultAPIKeyEnv     = "GEMINI_API_KEY"
	legacyAPIKeyEnv      = "API_KEY"
	defaultResolveWait   = 30 * time.Second
)

const defaultConfigYAML = `# batchlabel configuration
version: 1

# Days between prep date and use-by date.
shelf_life_days: 10

# Shift supervisors offered in the picker. Any name is accepted.
supervisors:
  - John Doe
  - Jane Smith
  - Mike Johnson
  - Sarah Connor
  - Qumars
  - Vimal
  - Ramzan
  - Neeraj

# Known WIP codes. Codes are matched case-insensitively.
wip_codes:
  - code: WIP-1001
    name: Vanilla Base
  - code: WIP-1002
    name: Chocolate Fudge Syrup
  - code: WIP-1003
    name: Strawberry Ripple Sauce
  - code: WIP-1004
    name: Salted Caramel Base
  - code: WIP-2001
    name: High-Protein Whey Slurry
  - code: WIP-2002
    name: Oat Milk Base
  - code: WIP-3001
    name: Lemon Curd Filling

print:
  # pdf renders a label sheet in headless Chromium; preview prints text cards.
  backend: pdf
  delay: 500ms
  output_dir: labels
  # Optional system print command; the PDF path is appended, e.g. "lp -d LABELS".
  command: ""

resolver:
  enabled: true
  model: gemini-2.5-flash
  api_key_env: GEMINI_API_KEY
  timeout: 30s
`

// PrintConfig selects the print backend.
type PrintConfig struct {
	Backend   string   `yaml:"backend"`
	Delay     Duration `yaml:"delay"`
	OutputDir string   `yaml:"output_dir"`
	Command   string   `yaml:"command,omitempty"`
}

// ResolverConfig controls the unknown-code name lookup.
type ResolverConfig struct {
	Enabled   *bool    `yaml:"enabled,omitempty"`
	Model     string   `yaml:"model"`
	APIKeyEnv string   `yaml:"api_key_env"`
	Timeout   Duration `yaml:"timeout"`
}

// FileConfig models .batchlabel/config.yaml.
type FileConfig struct {
	Version       int            `yaml:"version"`
	ShelfLifeDays *int           `yaml:"shelf_life_days,omitempty"`
	Supervisors   []string       `yaml:"supervisors"`
	WipCodes      []lookup.Entry `yaml:"wip_codes"`
	Print         PrintConfig    `yaml:"print"`
	Resolver      ResolverConfig `yaml:"resolver"`
}

// Duration lets YAML carry Go duration strings such as "500ms".
type Duration time.Duration

// UnmarshalYAML accepts a duration string or an integer of milliseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	value := strings.TrimSpace(node.Value)
	if value == "" {
		*d = 0
		return nil
	}
	if ms, err := strconv.Atoi(value); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q", value)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the runtime configuration for batchlabel.
type Config struct {
	// ProjectDir is the directory batchlabel was started from
	ProjectDir string

	// StateDir is ProjectDir/.batchlabel
	StateDir string

	File FileConfig

	table *lookup.Table
}

// InitDir creates the .batchlabel directory structure in the given directory.
//
// Structure created:
// .batchlabel/
// ├── config.yaml
// ├── logs/      <- zap log file
// └── labels/    <- rendered label sheets (pdf backend)
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	for _, dir := range []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "labels"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureConfigFile(filepath.Join(root, "config.yaml"))
}

// NewConfig loads .batchlabel/config.yaml (defaults when missing) and applies
// environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateDir:   filepath.Join(projectDir, Dir),
		File:       defaultFileConfig(),
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	table, err := lookup.New(cfg.File.WipCodes)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.table = table
	return cfg, nil
}

// Path returns the on-disk location of the config file.
func (c *Config) Path() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// LabelsDir returns where rendered label sheets are written.
func (c *Config) LabelsDir() string {
	return resolvePath(c.StateDir, c.File.Print.OutputDir)
}

// ShelfLifeDays returns the configured shelf life.
func (c *Config) ShelfLifeDays() int {
	if c.File.ShelfLifeDays == nil {
		return DefaultShelfLifeDays
	}
	return *c.File.ShelfLifeDays
}

// Supervisors returns the picker entries.
func (c *Config) Supervisors() []string {
	return append([]string(nil), c.File.Supervisors...)
}

// Table returns the WIP lookup table.
func (c *Config) Table() *lookup.Table {
	return c.table
}

// PrintDelay returns the print settle delay.
func (c *Config) PrintDelay() time.Duration {
	return time.Duration(c.File.Print.Delay)
}

// ResolverEnabled reports whether unknown codes may be sent to the resolver.
func (c *Config) ResolverEnabled() bool {
	return c.File.Resolver.Enabled == nil || *c.File.Resolver.Enabled
}

// ResolverTimeout bounds a single resolver call.
func (c *Config) ResolverTimeout() time.Duration {
	return time.Duration(c.File.Resolver.Timeout)
}

// ResolverAPIKey reads the API key from the configured environment variable,
// falling back to API_KEY.
func (c *Config) ResolverAPIKey() string {
	if key := strings.TrimSpace(os.Getenv(c.File.Resolver.APIKeyEnv)); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv(legacyAPIKeyEnv))
}

func (c *Config) load() error {
	path := c.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	c.File = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("BATCHLABEL_SHELF_LIFE_DAYS")); value != "" {
		if days, err := strconv.Atoi(value); err == nil {
			c.File.ShelfLifeDays = &days
		}
	}
	if value := strings.TrimSpace(os.Getenv("BATCHLABEL_PRINT_BACKEND")); value != "" {
		c.File.Print.Backend = strings.ToLower(value)
	}
	if value := strings.TrimSpace(os.Getenv("BATCHLABEL_PRINT_DELAY")); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			c.File.Print.Delay = Duration(d)
		}
	}
	if value := strings.TrimSpace(os.Getenv("BATCHLABEL_RESOLVER_ENABLED")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			c.File.Resolver.Enabled = &enabled
		}
	}
}

func defaultFileConfig() FileConfig {
	fc := FileConfig{}
	fc.applyDefaults()
	return fc
}

var defaultSupervisors = []string{
	"John Doe", "Jane Smith", "Mike Johnson", "Sarah Connor",
	"Qumars", "Vimal", "Ramzan", "Neeraj",
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if fc.ShelfLifeDays == nil {
		days := DefaultShelfLifeDays
		fc.ShelfLifeDays = &days
	}
	if len(fc.Supervisors) == 0 {
		fc.Supervisors = append([]string(nil), defaultSupervisors...)
	}
	if len(fc.WipCodes) == 0 {
		fc.WipCodes = append([]lookup.Entry(nil), lookup.DefaultEntries...)
	}
	if strings.TrimSpace(fc.Print.Backend) == "" {
		fc.Print.Backend = defaultPrintBackend
	}
	if fc.Print.Delay <= 0 {
		fc.Print.Delay = Duration(defaultPrintDelay)
	}
	if strings.TrimSpace(fc.Print.OutputDir) == "" {
		fc.Print.OutputDir = "labels"
	}
	if strings.TrimSpace(fc.Resolver.Model) == "" {
		fc.Resolver.Model = defaultResolverModel
	}
	if strings.TrimSpace(fc.Resolver.APIKeyEnv) == "" {
		fc.Resolver.APIKeyEnv = defaultAPIKeyEnv
	}
	if fc.Resolver.Timeout <= 0 {
		fc.Resolver.Timeout = Duration(defaultResolveWait)
	}
}

func (fc *FileConfig) normalize() {
	fc.Print.Backend = strings.ToLower(strings.TrimSpace(fc.Print.Backend))
	fc.Print.Command = strings.TrimSpace(fc.Print.Command)
	fc.Resolver.Model = strings.TrimSpace(fc.Resolver.Model)
	supervisors := fc.Supervisors[:0]
	for _, s := range fc.Supervisors {
		if trimmed := strings.TrimSpace(s); trimmed != "" && !contains(supervisors, trimmed) {
			supervisors = append(supervisors, trimmed)
		}
	}
	fc.Supervisors = supervisors
}

func (fc *FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if fc.ShelfLifeDays != nil && *fc.ShelfLifeDays < 0 {
		return fmt.Errorf("shelf_life_days must be >= 0")
	}
	switch fc.Print.Backend {
	case "pdf", "preview":
	default:
		return fmt.Errorf("print.backend must be 'pdf' or 'preview'")
	}
	for i, entry := range fc.WipCodes {
		if strings.TrimSpace(entry.Code) == "" {
			return fmt.Errorf("wip_codes[%d]: code is required", i)
		}
		if strings.TrimSpace(entry.Name) == "" {
			return fmt.Errorf("wip_codes[%d]: name is required", i)
		}
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return base
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
