// Package config provides configuration management for lore.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (LORE_*)
// 3. Project config (.lore/config.yaml in cwd)
// 4. Home config (~/.lore/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all lore configuration.
type Config struct {
	// Output controls the default output format (table, json).
	Output string `yaml:"output" json:"output"`

	// BaseDir is the lore data directory (default: .agents/lore).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Observations holds observation log settings.
	Observations ObservationsConfig `yaml:"observations" json:"observations"`

	// Skills holds skill repository settings.
	Skills SkillsConfig `yaml:"skills" json:"skills"`

	// Docs holds document sync settings.
	Docs DocsConfig `yaml:"docs" json:"docs"`

	// Autolearn holds scheduler settings.
	Autolearn AutolearnConfig `yaml:"autolearn" json:"autolearn"`

	// Commands holds external command candidate lists per subsystem.
	Commands CommandsConfig `yaml:"commands" json:"commands"`
}

// ObservationsConfig holds observation log settings.
type ObservationsConfig struct {
	// MaxLogBytes is the rotation ceiling for the active log file.
	MaxLogBytes int64 `yaml:"max_log_bytes" json:"max_log_bytes"`

	// HashWindow is how many recent lines feed the tail content hash.
	HashWindow int `yaml:"hash_window" json:"hash_window"`
}

// SkillsConfig holds skill repository settings.
type SkillsConfig struct {
	// MirrorDir is the secondary skill location; empty disables mirroring.
	MirrorDir string `yaml:"mirror_dir" json:"mirror_dir"`
}

// DocsConfig holds document sync settings.
type DocsConfig struct {
	// Targets lists project documents whose managed blocks lore keeps in
	// sync (paths relative to the working root).
	Targets []string `yaml:"targets" json:"targets"`
}

// AutolearnConfig holds scheduler settings.
type AutolearnConfig struct {
	// Enabled toggles background distillation globally.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// EnabledSet tracks whether Enabled was explicitly configured, so an
	// explicit "enabled: false" survives the merge against the default.
	EnabledSet bool `yaml:"-" json:"-"`

	// CooldownMinutes is the minimum gap between runs.
	CooldownMinutes int `yaml:"cooldown_minutes" json:"cooldown_minutes"`

	// MinNewObservations is the minimum observation growth to trigger a run
	// (a changed tail hash also qualifies).
	MinNewObservations int `yaml:"min_new_observations" json:"min_new_observations"`

	// MaxContextChars caps the assembled reasoning context.
	MaxContextChars int `yaml:"max_context_chars" json:"max_context_chars"`

	// MaxSkills caps how many skill bodies enter the context.
	MaxSkills int `yaml:"max_skills" json:"max_skills"`

	// TailCount is how many recent observations enter the context.
	TailCount int `yaml:"tail_count" json:"tail_count"`

	// RuntimeCommand is the CLI used to run the reasoning step.
	// Default: "claude".
	RuntimeCommand string `yaml:"runtime_command" json:"runtime_command"`

	// RuntimeTimeoutMinutes bounds one reasoning invocation.
	RuntimeTimeoutMinutes int `yaml:"runtime_timeout_minutes" json:"runtime_timeout_minutes"`
}

// UnmarshalYAML records whether the enabled key was present, so config
// files can explicitly disable autolearn.
func (a *AutolearnConfig) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Enabled               *bool  `yaml:"enabled"`
		CooldownMinutes       int    `yaml:"cooldown_minutes"`
		MinNewObservations    int    `yaml:"min_new_observations"`
		MaxContextChars       int    `yaml:"max_context_chars"`
		MaxSkills             int    `yaml:"max_skills"`
		TailCount             int    `yaml:"tail_count"`
		RuntimeCommand        string `yaml:"runtime_command"`
		RuntimeTimeoutMinutes int    `yaml:"runtime_timeout_minutes"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.Enabled != nil {
		a.Enabled = *aux.Enabled
		a.EnabledSet = true
	}
	a.CooldownMinutes = aux.CooldownMinutes
	a.MinNewObservations = aux.MinNewObservations
	a.MaxContextChars = aux.MaxContextChars
	a.MaxSkills = aux.MaxSkills
	a.TailCount = aux.TailCount
	a.RuntimeCommand = aux.RuntimeCommand
	a.RuntimeTimeoutMinutes = aux.RuntimeTimeoutMinutes
	return nil
}

// CommandsConfig holds external command resolution settings.
type CommandsConfig struct {
	// Ticket lists candidate binaries for the ticketing CLI.
	Ticket []string `yaml:"ticket" json:"ticket"`

	// Workspace lists candidate binaries for the workspace CLI.
	Workspace []string `yaml:"workspace" json:"workspace"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput  = "table"
	defaultBaseDir = ".agents/lore"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:  defaultOutput,
		BaseDir: defaultBaseDir,
		Observations: ObservationsConfig{
			MaxLogBytes: 1 << 20,
			HashWindow:  50,
		},
		Docs: DocsConfig{
			Targets: []string{"AGENTS.md"},
		},
		Autolearn: AutolearnConfig{
			Enabled:               true,
			CooldownMinutes:       30,
			MinNewObservations:    12,
			MaxContextChars:       60000,
			MaxSkills:             12,
			TailCount:             50,
			RuntimeCommand:        "claude",
			RuntimeTimeoutMinutes: 10,
		},
		Commands: CommandsConfig{
			Ticket:    []string{"tk", "ticket"},
			Workspace: []string{"ws", "workspace"},
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lore", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("LORE_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".lore", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("LORE_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LORE_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("LORE_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("LORE_AUTOLEARN_ENABLED"); v != "" {
		cfg.Autolearn.Enabled = v == "true" || v == "1"
		cfg.Autolearn.EnabledSet = true
	}
	if v := os.Getenv("LORE_AUTOLEARN_COOLDOWN_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Autolearn.CooldownMinutes = n
		}
	}
	if v := os.Getenv("LORE_AUTOLEARN_MIN_OBSERVATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Autolearn.MinNewObservations = n
		}
	}
	if v := os.Getenv("LORE_RUNTIME_COMMAND"); v != "" {
		cfg.Autolearn.RuntimeCommand = v
	}
	if v := os.Getenv("LORE_SKILLS_MIRROR_DIR"); v != "" {
		cfg.Skills.MirrorDir = v
	}
	return cfg
}

// merge overlays src onto dst, field by field, keeping dst values where src
// is zero.
func merge(dst, src *Config) *Config {
	out := *dst
	mergeStr(&out.Output, src.Output)
	mergeStr(&out.BaseDir, src.BaseDir)
	if src.Verbose {
		out.Verbose = true
	}
	if src.Observations.MaxLogBytes != 0 {
		out.Observations.MaxLogBytes = src.Observations.MaxLogBytes
	}
	mergeInt(&out.Observations.HashWindow, src.Observations.HashWindow)
	mergeStr(&out.Skills.MirrorDir, src.Skills.MirrorDir)
	if len(src.Docs.Targets) > 0 {
		out.Docs.Targets = src.Docs.Targets
	}
	if src.Autolearn.EnabledSet {
		out.Autolearn.Enabled = src.Autolearn.Enabled
		out.Autolearn.EnabledSet = true
	}
	mergeInt(&out.Autolearn.CooldownMinutes, src.Autolearn.CooldownMinutes)
	mergeInt(&out.Autolearn.MinNewObservations, src.Autolearn.MinNewObservations)
	mergeInt(&out.Autolearn.MaxContextChars, src.Autolearn.MaxContextChars)
	mergeInt(&out.Autolearn.MaxSkills, src.Autolearn.MaxSkills)
	mergeInt(&out.Autolearn.TailCount, src.Autolearn.TailCount)
	mergeStr(&out.Autolearn.RuntimeCommand, src.Autolearn.RuntimeCommand)
	mergeInt(&out.Autolearn.RuntimeTimeoutMinutes, src.Autolearn.RuntimeTimeoutMinutes)
	if len(src.Commands.Ticket) > 0 {
		out.Commands.Ticket = src.Commands.Ticket
	}
	if len(src.Commands.Workspace) > 0 {
		out.Commands.Workspace = src.Commands.Workspace
	}
	return &out
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// ObservationLogPath returns the active observation log file.
func (c *Config) ObservationLogPath() string {
	return filepath.Join(c.BaseDir, "observations", "log.jsonl")
}

// InstinctStorePath returns the instinct store file.
func (c *Config) InstinctStorePath() string {
	return filepath.Join(c.BaseDir, "instincts", "instincts.json")
}

// InstinctIndexPath returns the generated instinct index document.
func (c *Config) InstinctIndexPath() string {
	return filepath.Join(c.BaseDir, "instincts", "INSTINCTS.md")
}

// SkillsDir returns the primary skill repository root.
func (c *Config) SkillsDir() string {
	return filepath.Join(c.BaseDir, "skills")
}

// StatePath returns the plugin state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.BaseDir, "state.json")
}

// ChangelogPath returns the append-only changelog file.
func (c *Config) ChangelogPath() string {
	return filepath.Join(c.BaseDir, "CHANGELOG.md")
}

// FailureDir returns where unparsable reasoning output is archived.
func (c *Config) FailureDir() string {
	return filepath.Join(c.BaseDir, "failures")
}

// LogsDir returns the diagnostic log directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.BaseDir, "logs")
}
