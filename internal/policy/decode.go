package policy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseConfig decodes raw YAML bytes into a Config, rejecting unknown top
// level keys so a typo in a config file fails loudly instead of silently
// doing nothing.
func ParseConfig(data []byte, path string) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigParse, path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and parses the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigRead, path, err)
	}
	return ParseConfig(data, path)
}

// Validate checks a parsed Config for structurally-valid-but-semantically-
// wrong values: unparseable actions, a config version too new for this
// build, and pattern strings that don't compile.
func (c *Config) Validate() error {
	if c.Version != "" {
		if err := validateConfigVersion(c.Version); err != nil {
			return err
		}
	}
	for _, a := range []string{c.Policy.Default, c.Policy.DynamicCommands, c.Policy.UnresolvedCommands} {
		if a != "" && !Action(a).Valid() {
			return fmt.Errorf("%w: invalid action %q", ErrInvalidConfig, a)
		}
	}
	for _, a := range []string{c.Constructs.Subshells, c.Constructs.FunctionDefinitions, c.Constructs.Background, c.Constructs.Heredocs} {
		if a != "" && !Action(a).Valid() {
			return fmt.Errorf("%w: invalid constructs action %q", ErrInvalidConfig, a)
		}
	}
	if c.SafetyLevel != "" {
		if _, err := ParseSafetyLevel(c.SafetyLevel); err != nil {
			return err
		}
	}
	if c.TrustLevel != "" {
		if _, err := ParseTrustTier(c.TrustLevel); err != nil {
			return err
		}
	}
	for i, r := range c.Rules {
		if !r.Action.Valid() {
			return fmt.Errorf("%w: rule[%d] %q: invalid action %q", ErrInvalidConfig, i, r.Command, r.Action)
		}
		if _, err := ParsePattern(r.Command); err != nil {
			return fmt.Errorf("%w: rule[%d]: command pattern: %w", ErrInvalidConfig, i, err)
		}
		if r.Level != "" {
			if _, err := ParseSafetyLevel(r.Level); err != nil {
				return fmt.Errorf("%w: rule[%d]: %w", ErrInvalidConfig, i, err)
			}
		}
	}
	for i, rr := range c.Redirects {
		if !rr.Action.Valid() {
			return fmt.Errorf("%w: redirects[%d]: invalid action %q", ErrInvalidConfig, i, rr.Action)
		}
	}
	for i, hr := range c.Heredocs {
		if !hr.Action.Valid() {
			return fmt.Errorf("%w: heredocs[%d]: invalid action %q", ErrInvalidConfig, i, hr.Action)
		}
	}
	for i, entry := range c.Allowlists.Commands {
		if entry.Trust != "" {
			if _, err := ParseTrustTier(entry.Trust); err != nil {
				return fmt.Errorf("%w: allowlists.commands[%d]: %w", ErrInvalidConfig, i, err)
			}
		}
	}
	return nil
}

func validateConfigVersion(v string) error {
	var major, minor int
	if _, err := fmt.Sscanf(v, "%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("%w: version %q is not in major.minor form", ErrInvalidConfig, v)
	}
	if major > ConfigVersionMajor {
		return fmt.Errorf("%w: config version %s is newer than this build understands (%d.%d)",
			ErrInvalidConfig, v, ConfigVersionMajor, ConfigVersionMinor)
	}
	return nil
}

// LoadChain discovers and parses every config layer that exists on disk —
// embedded defaults, global, project, and local — in the order MergeConfigs
// expects, and returns the effective, merged policy.
func LoadChain(explicitPath string) (*Effective, []*Config, error) {
	return LoadChainWithOverrides(explicitPath, nil)
}

// LoadChainWithOverrides is LoadChain plus a final, highest-precedence layer
// for process-runtime overrides (command-line switches): its non-empty
// scalar fields win unconditionally, per §4.3's four-layer precedence.
func LoadChainWithOverrides(explicitPath string, overrides *Config) (*Effective, []*Config, error) {
	var configs []*Config
	configs = append(configs, DefaultConfig())

	if explicitPath != "" {
		cfg, err := LoadConfig(explicitPath)
		if err != nil {
			return nil, nil, err
		}
		configs = append(configs, cfg)
	} else {
		disc := FindProjectConfigs()
		for _, p := range []string{disc.GlobalConfig, disc.ProjectConfig, disc.LocalConfig} {
			if p == "" {
				continue
			}
			cfg, err := LoadConfig(p)
			if err != nil {
				return nil, nil, err
			}
			configs = append(configs, cfg)
		}
	}

	if overrides != nil {
		overrides.Path = "(command-line overrides)"
		configs = append(configs, overrides)
	}

	merged := MergeConfigs(configs)
	eff, err := merged.Finalize()
	if err != nil {
		return nil, nil, err
	}
	return eff, configs, nil
}
