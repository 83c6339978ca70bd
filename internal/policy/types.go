// Package policy defines the YAML configuration model for longline: rules,
// allowlists, and the layered merge that combines several config files into
// one effective policy.
package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ConfigVersionMajor/Minor bound the config schema this build understands.
const (
	ConfigVersionMajor = 1
	ConfigVersionMinor = 0
)

// SafetyLevel is the ceiling on rule severity the evaluator honours: a rule
// whose level is stricter than the active safety level is inactive. Ordered
// loosest to strictest: critical admits only critical-tagged rules, strict
// admits all three tiers.
type SafetyLevel int

const (
	SafetyCritical SafetyLevel = iota
	SafetyHigh
	SafetyStrict
)

func ParseSafetyLevel(s string) (SafetyLevel, error) {
	switch s {
	case "", "high":
		return SafetyHigh, nil
	case "critical":
		return SafetyCritical, nil
	case "strict":
		return SafetyStrict, nil
	default:
		return 0, fmt.Errorf("%w: safety_level: unknown value %q", ErrInvalidConfig, s)
	}
}

func (l SafetyLevel) String() string {
	switch l {
	case SafetyCritical:
		return "critical"
	case SafetyStrict:
		return "strict"
	default:
		return "high"
	}
}

// TrustTier is carried on allowlist entries; a command only benefits from
// an allowlist entry when the configured trust level is at least the
// entry's tier.
type TrustTier int

const (
	TrustMinimal TrustTier = iota
	TrustStandard
	TrustFull
)

func ParseTrustTier(s string) (TrustTier, error) {
	switch s {
	case "", "standard":
		return TrustStandard, nil
	case "minimal":
		return TrustMinimal, nil
	case "full":
		return TrustFull, nil
	default:
		return 0, fmt.Errorf("%w: trust: unknown value %q", ErrInvalidConfig, s)
	}
}

func (t TrustTier) String() string {
	switch t {
	case TrustMinimal:
		return "minimal"
	case TrustFull:
		return "full"
	default:
		return "standard"
	}
}

// Action is a permission decision: allow, ask, or deny.
type Action string

const (
	ActionAllow Action = "allow"
	ActionAsk   Action = "ask"
	ActionDeny  Action = "deny"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionAsk, ActionDeny:
		return true
	}
	return false
}

// Priority gives deny > ask > allow for tie-breaking equally-specific rules.
func (a Action) Priority() int {
	switch a {
	case ActionDeny:
		return 2
	case ActionAsk:
		return 1
	default:
		return 0
	}
}

// Combine reduces two actions to the stricter of the two: deny wins over
// ask, ask wins over allow. This is the most-restrictive-wins invariant.
func Combine(a, b Action) Action {
	if a == ActionDeny || b == ActionDeny {
		return ActionDeny
	}
	if a == ActionAsk || b == ActionAsk {
		return ActionAsk
	}
	return ActionAllow
}

// StringList decodes from either a single YAML scalar or a sequence.
type StringList []string

func (sl *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*sl = []string{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := node.Decode(&ss); err != nil {
			return err
		}
		*sl = ss
		return nil
	default:
		return fmt.Errorf("expected scalar or sequence, got %v", node.Kind)
	}
}

// PositionMatch maps an argument position (as a string key, "0", "1", ...)
// to the set of patterns any of which may match that position.
type PositionMatch map[string]StringList

// ArgsMatch is the command-argument matcher of a Rule.
type ArgsMatch struct {
	Contains  StringList    `yaml:"contains,omitempty"`
	AnyMatch  StringList    `yaml:"any_match,omitempty"`
	AllMatch  StringList    `yaml:"all_match,omitempty"`
	NoneMatch StringList    `yaml:"none_of,omitempty"`
	Position  PositionMatch `yaml:"position,omitempty"`
}

// PipeContext is the pipeline matcher of a Rule: deny/ask when
// the command pipes to or receives input from specific neighbors.
type PipeContext struct {
	To   StringList `yaml:"to,omitempty"`
	From StringList `yaml:"from,omitempty"`
}

// RedirectTarget is the redirect matcher of a Rule.
type RedirectTarget struct {
	Exact   StringList `yaml:"exact,omitempty"`
	Pattern StringList `yaml:"pattern,omitempty"`
}

// Rule is one policy rule: a command pattern plus optional argument/pipe
// predicates, and the action to take when all of them match.
type Rule struct {
	ID      string      `yaml:"id,omitempty"`
	Command string      `yaml:"command"`
	Action  Action      `yaml:"action"`
	Message string      `yaml:"message,omitempty"`
	Level   string      `yaml:"level,omitempty"`
	Args    ArgsMatch   `yaml:"args,omitempty"`
	Pipe    PipeContext `yaml:"pipe,omitempty"`
}

// Specificity computes a CSS-like specificity score used to break ties
// between multiple matching rules — more specific rules win.
func (r Rule) Specificity() int {
	const (
		commandExact  = 100
		positionArg   = 20
		containsArg   = 10
		patternArg    = 5
		pipeEntry     = 10
	)
	score := 0
	if !isPatternPrefixed(r.Command) {
		score += commandExact
	}
	score += len(r.Args.Position) * positionArg
	score += len(r.Args.Contains) * containsArg
	score += len(r.Args.AnyMatch) * patternArg
	score += len(r.Args.AllMatch) * patternArg
	score += len(r.Args.NoneMatch) * patternArg
	score += (len(r.Pipe.To) + len(r.Pipe.From)) * pipeEntry
	return score
}

func isPatternPrefixed(s string) bool {
	p, err := ParsePattern(s)
	if err != nil {
		return false
	}
	return p.Type != PatternLiteral
}

// RedirectRule controls output/input redirection targets.
type RedirectRule struct {
	Action  Action         `yaml:"action"`
	Message string         `yaml:"message,omitempty"`
	To      RedirectTarget `yaml:"to,omitempty"`
	Append  *bool          `yaml:"append,omitempty"`
}

// HeredocRule controls heredoc/here-string content.
type HeredocRule struct {
	Action       Action     `yaml:"action"`
	Message      string     `yaml:"message,omitempty"`
	ContentMatch StringList `yaml:"content_match,omitempty"`
}

// ConstructsConfig gates non-command shell constructs.
type ConstructsConfig struct {
	Subshells           string `yaml:"subshells,omitempty"`
	FunctionDefinitions string `yaml:"function_definitions,omitempty"`
	Background          string `yaml:"background,omitempty"`
	Heredocs            string `yaml:"heredocs,omitempty"`
}

// AllowlistEntry is one trusted command entry. It decodes from either a
// bare command-name scalar or an object {command, trust, reason}.
type AllowlistEntry struct {
	Name    string `yaml:"command"`
	Trust   string `yaml:"trust,omitempty"`
	Message string `yaml:"reason,omitempty"`
}

func (e *AllowlistEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		e.Name = s
		return nil
	}
	type rawEntry AllowlistEntry
	var raw rawEntry
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*e = AllowlistEntry(raw)
	return nil
}

// PolicyDefaults holds the default-behavior knobs.
type PolicyDefaults struct {
	Default            string     `yaml:"default,omitempty"`
	DynamicCommands    string     `yaml:"dynamic_commands,omitempty"`
	UnresolvedCommands string     `yaml:"unresolved_commands,omitempty"`
	DefaultMessage     string     `yaml:"default_message,omitempty"`
	AllowedPaths       StringList `yaml:"allowed_paths,omitempty"`
}

// Allowlists groups the allowlist collections a config file may contribute.
type Allowlists struct {
	Commands []AllowlistEntry `yaml:"commands,omitempty"`
	Deny     StringList       `yaml:"deny,omitempty"`
}

// Config is one parsed YAML configuration file.
type Config struct {
	Path         string                    `yaml:"-"`
	Version      string                    `yaml:"version,omitempty"`
	SafetyLevel  string                    `yaml:"safety_level,omitempty"`
	TrustLevel   string                    `yaml:"trust_level,omitempty"`
	Aliases      map[string]StringList     `yaml:"aliases,omitempty"`
	Policy       PolicyDefaults            `yaml:"policy,omitempty"`
	Allowlists   Allowlists                `yaml:"allowlists,omitempty"`
	Rules        []Rule                    `yaml:"rules,omitempty"`
	DisableRules StringList                `yaml:"disable_rules,omitempty"`
	Redirects    []RedirectRule            `yaml:"redirects,omitempty"`
	Heredocs     []HeredocRule             `yaml:"heredocs,omitempty"`
	Constructs   ConstructsConfig          `yaml:"constructs,omitempty"`
	Include      StringList                `yaml:"include,omitempty"`
}

// DefaultConfig returns the embedded baseline config, applied before any user/project overlay.
func DefaultConfig() *Config {
	return &Config{
		Path:        "(embedded defaults)",
		SafetyLevel: "high",
		TrustLevel:  "standard",
		Policy: PolicyDefaults{
			Default:            "ask",
			DynamicCommands:    "ask",
			UnresolvedCommands: "ask",
			DefaultMessage:     "Command not allowed",
		},
		Constructs: ConstructsConfig{
			Subshells:           "ask",
			FunctionDefinitions: "ask",
			Background:          "ask",
			Heredocs:            "allow",
		},
	}
}
