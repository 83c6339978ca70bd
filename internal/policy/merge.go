package policy

import "reflect"

// Tracked wraps a merged value together with the path of the config file
// that last set it, so diagnostics (the "rules"/"check" subcommands) can
// explain why an effective value is what it is.
type Tracked[T any] struct {
	Value  T
	Source string
	Set    bool
}

func (t Tracked[T]) IsSet() bool { return t.Set }

func trackedString(cur Tracked[string], newVal, source string) Tracked[string] {
	if newVal == "" {
		return cur
	}
	return Tracked[string]{Value: newVal, Source: source, Set: true}
}

func trackedAction(cur Tracked[string], newVal, source string) Tracked[string] {
	if newVal == "" {
		return cur
	}
	if !cur.Set || actionStrictness(newVal) > actionStrictness(cur.Value) {
		return Tracked[string]{Value: newVal, Source: source, Set: true}
	}
	return cur
}

func actionStrictness(action string) int {
	switch action {
	case "deny":
		return 2
	case "ask":
		return 1
	case "allow":
		return 0
	default:
		return -1
	}
}

func isStricter(newVal, curVal string) bool {
	return actionStrictness(newVal) > actionStrictness(curVal)
}

// TrackedRule is a Rule annotated with its source file and shadowing status.
type TrackedRule struct {
	Rule
	Source    string
	Shadowed  bool   // a later, stricter-or-equal rule superseded this one
	Shadowing string // set on the rule that superseded another; names the superseded source
}

type TrackedRedirectRule struct {
	RedirectRule
	Source    string
	Shadowed  bool
	Shadowing string
}

type TrackedAllowlistEntry struct {
	AllowlistEntry
	Source string
}

// MergedPolicy is the stricter-wins reduction of every config's PolicyDefaults.
type MergedPolicy struct {
	Default            Tracked[string]
	DynamicCommands    Tracked[string]
	UnresolvedCommands Tracked[string]
	DefaultMessage     Tracked[string]
	AllowedPaths       []string
}

type MergedConstructs struct {
	Subshells           Tracked[string]
	FunctionDefinitions Tracked[string]
	Background          Tracked[string]
	Heredocs            Tracked[string]
}

// MergedConfig is the result of layering embedded defaults, then the global,
// project, and local config files in order, each later layer overriding
// scalars and unioning collections, with deny/ask/allow taking the stricter
// value whenever two layers disagree on the same action.
type MergedConfig struct {
	Sources      []string
	SafetyLevel  Tracked[string]
	TrustLevel   Tracked[string]
	Policy       MergedPolicy
	Constructs   MergedConstructs
	Aliases      map[string]StringList
	AllowCmds    []TrackedAllowlistEntry
	DenyCmds     []string
	Rules        []TrackedRule
	DisableRules map[string]bool
	Redirects    []TrackedRedirectRule
	Heredocs     []HeredocRule
}

func newEmptyMergedConfig() *MergedConfig {
	return &MergedConfig{
		Aliases:      make(map[string]StringList),
		DisableRules: make(map[string]bool),
	}
}

// MergeConfigs merges configs in order: embedded defaults first, then
// global (${XDG_CONFIG_HOME}/longline), then project (.claude/ at the
// project root or above), then local (.claude/longline.local.yaml,
// typically gitignored).
func MergeConfigs(configs []*Config) *MergedConfig {
	merged := newEmptyMergedConfig()
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		mergeConfigInto(merged, cfg)
	}
	return merged
}

func mergeConfigInto(merged *MergedConfig, cfg *Config) {
	source := cfg.Path
	merged.Sources = append(merged.Sources, source)

	merged.SafetyLevel = trackedString(merged.SafetyLevel, cfg.SafetyLevel, source)
	merged.TrustLevel = trackedString(merged.TrustLevel, cfg.TrustLevel, source)

	merged.Policy.Default = trackedAction(merged.Policy.Default, cfg.Policy.Default, source)
	merged.Policy.DynamicCommands = trackedAction(merged.Policy.DynamicCommands, cfg.Policy.DynamicCommands, source)
	merged.Policy.UnresolvedCommands = trackedAction(merged.Policy.UnresolvedCommands, cfg.Policy.UnresolvedCommands, source)
	merged.Policy.DefaultMessage = trackedString(merged.Policy.DefaultMessage, cfg.Policy.DefaultMessage, source)
	merged.Policy.AllowedPaths = append(merged.Policy.AllowedPaths, cfg.Policy.AllowedPaths...)

	merged.Constructs.Subshells = trackedAction(merged.Constructs.Subshells, cfg.Constructs.Subshells, source)
	merged.Constructs.FunctionDefinitions = trackedAction(merged.Constructs.FunctionDefinitions, cfg.Constructs.FunctionDefinitions, source)
	merged.Constructs.Background = trackedAction(merged.Constructs.Background, cfg.Constructs.Background, source)
	merged.Constructs.Heredocs = trackedAction(merged.Constructs.Heredocs, cfg.Constructs.Heredocs, source)

	for name, values := range cfg.Aliases {
		merged.Aliases[name] = values
	}

	for _, entry := range cfg.Allowlists.Commands {
		merged.AllowCmds = append(merged.AllowCmds, TrackedAllowlistEntry{AllowlistEntry: entry, Source: source})
	}
	merged.DenyCmds = append(merged.DenyCmds, cfg.Allowlists.Deny...)

	for _, name := range cfg.DisableRules {
		merged.DisableRules[name] = true
	}

	merged.Rules = mergeRules(merged.Rules, cfg.Rules, source)
	merged.Redirects = mergeRedirectRules(merged.Redirects, cfg.Redirects, source)
	merged.Heredocs = append(merged.Heredocs, cfg.Heredocs...)
}

// mergeRules appends newRules to merged, marking exact-pattern duplicates as
// shadowed: whichever of the two has the stricter action wins and the other
// is recorded (but not discarded — diagnostics can still show it).
func mergeRules(merged []TrackedRule, newRules []Rule, source string) []TrackedRule {
	for _, nr := range newRules {
		tr := TrackedRule{Rule: nr, Source: source}
		for i := range merged {
			if merged[i].Shadowed {
				continue
			}
			if !rulesExactMatch(merged[i].Rule, nr) {
				continue
			}
			if isStricter(string(nr.Action), string(merged[i].Action)) {
				tr.Shadowing = merged[i].Source
				merged[i].Shadowed = true
			} else {
				tr.Shadowed = true
			}
			break
		}
		merged = append(merged, tr)
	}
	return merged
}

func rulesExactMatch(a, b Rule) bool {
	return a.Command == b.Command &&
		reflect.DeepEqual(a.Args, b.Args) &&
		reflect.DeepEqual(a.Pipe, b.Pipe)
}

func mergeRedirectRules(merged []TrackedRedirectRule, newRules []RedirectRule, source string) []TrackedRedirectRule {
	for _, nr := range newRules {
		tr := TrackedRedirectRule{RedirectRule: nr, Source: source}
		for i := range merged {
			if merged[i].Shadowed {
				continue
			}
			if !redirectRulesExactMatch(merged[i].RedirectRule, nr) {
				continue
			}
			if isStricter(string(nr.Action), string(merged[i].Action)) {
				tr.Shadowing = merged[i].Source
				merged[i].Shadowed = true
			} else {
				tr.Shadowed = true
			}
			break
		}
		merged = append(merged, tr)
	}
	return merged
}

func redirectRulesExactMatch(a, b RedirectRule) bool {
	aAppend := a.Append != nil && *a.Append
	bAppend := b.Append != nil && *b.Append
	return aAppend == bAppend && reflect.DeepEqual(a.To, b.To)
}

// Effective is the fully-resolved, ready-to-evaluate policy: every Tracked
// scalar is collapsed to its value, disabled rules are dropped, and shadowed
// rules are filtered out of the active set (they remain visible in
// MergedConfig for the "rules" diagnostic subcommand).
type Effective struct {
	SafetyLevel  SafetyLevel
	TrustLevel   TrustTier
	Policy       PolicyDefaults
	Constructs   ConstructsConfig
	Aliases      map[string]StringList
	AllowCmds    map[string]AllowlistEntry
	DenyCmds     map[string]bool
	Rules        []Rule
	Redirects    []RedirectRule
	Heredocs     []HeredocRule
	AllowedPaths []string
}

// Finalize resolves a MergedConfig into an Effective policy, applying the
// embedded defaults for anything no layer set and dropping disabled/shadowed
// rules from the active set.
func (m *MergedConfig) Finalize() (*Effective, error) {
	safety, err := ParseSafetyLevel(orDefault(m.SafetyLevel.Value, "high"))
	if err != nil {
		return nil, err
	}
	trust, err := ParseTrustTier(orDefault(m.TrustLevel.Value, "standard"))
	if err != nil {
		return nil, err
	}

	eff := &Effective{
		SafetyLevel: safety,
		TrustLevel:  trust,
		Policy: PolicyDefaults{
			Default:            orDefault(m.Policy.Default.Value, "ask"),
			DynamicCommands:    orDefault(m.Policy.DynamicCommands.Value, "ask"),
			UnresolvedCommands: orDefault(m.Policy.UnresolvedCommands.Value, "ask"),
			DefaultMessage:     orDefault(m.Policy.DefaultMessage.Value, "Command not allowed"),
			AllowedPaths:       m.Policy.AllowedPaths,
		},
		Constructs: ConstructsConfig{
			Subshells:           orDefault(m.Constructs.Subshells.Value, "ask"),
			FunctionDefinitions: orDefault(m.Constructs.FunctionDefinitions.Value, "ask"),
			Background:          orDefault(m.Constructs.Background.Value, "ask"),
			Heredocs:            orDefault(m.Constructs.Heredocs.Value, "allow"),
		},
		Aliases:      m.Aliases,
		AllowCmds:    make(map[string]AllowlistEntry, len(m.AllowCmds)),
		DenyCmds:     make(map[string]bool, len(m.DenyCmds)),
		Heredocs:     m.Heredocs,
		AllowedPaths: m.Policy.AllowedPaths,
	}

	for _, entry := range m.AllowCmds {
		eff.AllowCmds[entry.Name] = entry.AllowlistEntry
	}
	for _, name := range m.DenyCmds {
		eff.DenyCmds[name] = true
	}

	for _, tr := range m.Rules {
		if tr.Shadowed || m.DisableRules[tr.ID] {
			continue
		}
		eff.Rules = append(eff.Rules, tr.Rule)
	}
	for _, tr := range m.Redirects {
		if tr.Shadowed {
			continue
		}
		eff.Redirects = append(eff.Redirects, tr.RedirectRule)
	}

	return eff, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
