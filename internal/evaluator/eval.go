package evaluator

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/anthropics/longline/internal/policy"
	"github.com/anthropics/longline/internal/shellstmt"
	"github.com/anthropics/longline/pkg/pathutil"
)

// Evaluator applies an effective policy to a parsed script.
type Evaluator struct {
	policy       *policy.Effective
	matchCtx     *policy.MatchContext
	pathResolver *pathutil.CommandResolver
}

// New builds an Evaluator from a finalized policy and the project root used
// to resolve $PROJECT_ROOT in path patterns.
func New(eff *policy.Effective, projectRoot string) *Evaluator {
	return &Evaluator{
		policy: eff,
		matchCtx: &policy.MatchContext{
			PathVars: pathutil.NewPathVars(projectRoot),
		},
		pathResolver: pathutil.NewCommandResolver(eff.AllowedPaths),
	}
}

// Evaluate parses nothing itself — it takes an already-normalized statement
// forest and returns the single most restrictive decision across every
// command, redirect, and heredoc it contains.
func (e *Evaluator) Evaluate(roots []*shellstmt.Statement) Result {
	info := Extract(roots)

	result := e.checkConstructs(info)
	if result.Action == policy.ActionDeny {
		return result
	}

	for _, cmd := range info.Commands {
		r := e.evaluateCommand(cmd)
		result = combine(result, r)
		if result.Action == policy.ActionDeny {
			return result
		}
	}

	for _, redir := range info.Redirects {
		r := e.evaluateRedirect(redir)
		result = combine(result, r)
		if result.Action == policy.ActionDeny {
			return result
		}
	}

	if e.policy.Constructs.Heredocs == "allow" || e.policy.Constructs.Heredocs == "ask" {
		for _, hd := range info.Heredocs {
			r := e.evaluateHeredoc(hd)
			result = combine(result, r)
			if result.Action == policy.ActionDeny {
				return result
			}
		}
	}

	if len(info.Commands) == 0 && len(info.Redirects) == 0 && len(info.Heredocs) == 0 {
		return Result{Action: policy.ActionAsk, Source: "no executable commands in input"}
	}

	return result
}

// Item is one piece of an evaluated script — a command, redirect, or
// heredoc — paired with the decision it produced on its own.
type Item struct {
	Kind   string // "command", "redirect", or "heredoc"
	Label  string
	Result Result
}

// Explain extracts the same commands, redirects, and heredocs Evaluate
// would, but returns the decision for each one individually instead of
// folding them into a single most-restrictive result. It exists for the
// check subcommand's per-line breakdown.
func (e *Evaluator) Explain(roots []*shellstmt.Statement) []Item {
	info := Extract(roots)
	var items []Item

	if info.Constructs.HasFunctionDefs {
		r, _ := e.gateConstruct(e.policy.Constructs.FunctionDefinitions, "Function definitions", "constructs.function_definitions")
		items = append(items, Item{Kind: "construct", Label: "function definition", Result: r})
	}
	if info.Constructs.HasBackground {
		r, _ := e.gateConstruct(e.policy.Constructs.Background, "Background execution (&)", "constructs.background")
		items = append(items, Item{Kind: "construct", Label: "background execution", Result: r})
	}
	if info.Constructs.HasSubshells {
		r, _ := e.gateConstruct(e.policy.Constructs.Subshells, "Subshells", "constructs.subshells")
		items = append(items, Item{Kind: "construct", Label: "subshell", Result: r})
	}

	for _, cmd := range info.Commands {
		items = append(items, Item{Kind: "command", Label: strings.Join(cmd.Args, " "), Result: e.evaluateCommand(cmd)})
	}
	for _, redir := range info.Redirects {
		items = append(items, Item{Kind: "redirect", Label: redir.Target, Result: e.evaluateRedirect(redir)})
	}
	for _, hd := range info.Heredocs {
		items = append(items, Item{Kind: "heredoc", Label: hd.Delimiter, Result: e.evaluateHeredoc(hd)})
	}
	return items
}

func (e *Evaluator) checkConstructs(info *Extracted) Result {
	result := allow()

	if info.Constructs.HasFunctionDefs {
		if r, stop := e.gateConstruct(e.policy.Constructs.FunctionDefinitions, "Function definitions", "constructs.function_definitions"); stop {
			return r
		} else if r.Action != policy.ActionAllow {
			result = combine(result, r)
		}
	}
	if info.Constructs.HasBackground {
		if r, stop := e.gateConstruct(e.policy.Constructs.Background, "Background execution (&)", "constructs.background"); stop {
			return r
		} else if r.Action != policy.ActionAllow {
			result = combine(result, r)
		}
	}
	if info.Constructs.HasSubshells {
		if r, stop := e.gateConstruct(e.policy.Constructs.Subshells, "Subshells", "constructs.subshells"); stop {
			return r
		} else if r.Action != policy.ActionAllow {
			result = combine(result, r)
		}
	}
	if info.Constructs.HasHeredocs {
		if r, stop := e.gateConstruct(e.policy.Constructs.Heredocs, "Heredocs", "constructs.heredocs"); stop {
			return r
		} else if r.Action != policy.ActionAllow {
			result = combine(result, r)
		}
	}
	return result
}

func (e *Evaluator) gateConstruct(action, label, key string) (Result, bool) {
	switch action {
	case "deny":
		return Result{Action: policy.ActionDeny, Message: label + " are not allowed", Source: key + "=deny"}, true
	case "ask":
		return Result{Action: policy.ActionAsk, Message: label + " need approval", Source: key + "=ask"}, false
	default:
		return allow(), false
	}
}

func (e *Evaluator) evaluateCommand(cmd Command) Result {
	if cmd.IsDynamic && cmd.Name == "" {
		return Result{Action: policy.ActionAsk, Message: "Could not statically analyze a shell construct", Source: "opaque construct"}
	}

	if cmd.IsDynamic {
		switch e.policy.Policy.DynamicCommands {
		case "deny":
			return Result{Action: policy.ActionDeny, Message: "Dynamic command names are not allowed", Command: cmd.Name, Source: "policy.dynamic_commands=deny"}
		case "allow":
			return allow()
		default:
			return Result{Action: policy.ActionAsk, Command: cmd.Name, Source: "policy.dynamic_commands=ask"}
		}
	}

	resolved := e.pathResolver.Resolve(cmd.Name)
	resolvedPath := resolved.Path
	unresolved := resolved.Unresolved

	if unresolved && e.policy.Policy.UnresolvedCommands == "deny" {
		return Result{Action: policy.ActionDeny, Message: "Command not found in allowed paths", Command: cmd.Name, Source: "policy.unresolved_commands=deny"}
	}

	if e.matchesAny(e.denyNames(), cmd.Name, resolvedPath) {
		return Result{Action: policy.ActionDeny, Message: e.policy.Policy.DefaultMessage, Command: cmd.Name, Source: "allowlists.deny"}
	}

	allowEntry, inAllowlist := e.matchAllowlist(cmd, resolvedPath)

	if r, matched := e.bestRuleMatch(cmd); matched {
		return r
	}

	if inAllowlist {
		if required, err := policy.ParseTrustTier(allowEntry.Trust); err == nil && required > e.policy.TrustLevel {
			msg := allowEntry.Message
			if msg == "" {
				msg = fmt.Sprintf("allowlist entry %q requires trust level %s", allowEntry.Name, required)
			}
			return Result{Action: policy.ActionAsk, Message: msg, Command: cmd.Name, Source: "allowlists.commands (trust tier not met)"}
		}
		return Result{Action: policy.ActionAllow, Source: "allowlists.commands"}
	}

	if unresolved && e.policy.Policy.UnresolvedCommands == "ask" {
		return Result{Action: policy.ActionAsk, Message: "Command not found in allowed paths", Command: cmd.Name, Source: "policy.unresolved_commands=ask"}
	}

	return Result{
		Action:  policy.Action(e.policy.Policy.Default),
		Message: e.policy.Policy.DefaultMessage,
		Command: cmd.Name,
		Source:  "policy.default",
	}
}

func (e *Evaluator) denyNames() map[string]bool { return e.policy.DenyCmds }

// matchAllowlist checks cmd's argv against every allowlist entry using
// positional-prefix matching: an entry's command string is split into
// tokens, the first token is matched wrapper-aware (against either the raw
// command name or its resolved basename), and every remaining token must
// equal cmd's argv at the same position. This lets a multi-token entry like
// "uv run pytest" match "uv run pytest tests/" without matching a bare "uv".
func (e *Evaluator) matchAllowlist(cmd Command, resolvedPath string) (policy.AllowlistEntry, bool) {
	for _, entry := range e.policy.AllowCmds {
		tokens := strings.Fields(entry.Name)
		if len(tokens) == 0 || len(tokens) > len(cmd.Args) {
			continue
		}
		if tokens[0] != cmd.Name && !(resolvedPath != "" && tokens[0] == filepath.Base(resolvedPath)) {
			continue
		}
		matched := true
		for i := 1; i < len(tokens); i++ {
			if cmd.Args[i] != tokens[i] {
				matched = false
				break
			}
		}
		if matched {
			return entry, true
		}
	}
	return policy.AllowlistEntry{}, false
}

func (e *Evaluator) matchesAny(names map[string]bool, name, resolvedPath string) bool {
	if names[name] {
		return true
	}
	if resolvedPath != "" && names[filepath.Base(resolvedPath)] {
		return true
	}
	return false
}

type ruleMatch struct {
	rule        policy.Rule
	specificity int
	result      Result
}

func (e *Evaluator) bestRuleMatch(cmd Command) (Result, bool) {
	var matches []ruleMatch
	for _, r := range e.policy.Rules {
		if !e.ruleActive(r) {
			continue
		}
		if result, ok := e.matchRule(r, cmd); ok {
			matches = append(matches, ruleMatch{rule: r, specificity: r.Specificity(), result: result})
		}
	}
	if len(matches) == 0 {
		return Result{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].specificity != matches[j].specificity {
			return matches[i].specificity > matches[j].specificity
		}
		return matches[i].rule.Action.Priority() > matches[j].rule.Action.Priority()
	})
	return matches[0].result, true
}

// ruleActive reports whether r's level is at or below the configured safety
// ceiling. A rule with no level set is always active.
func (e *Evaluator) ruleActive(r policy.Rule) bool {
	if r.Level == "" {
		return true
	}
	lvl, err := policy.ParseSafetyLevel(r.Level)
	if err != nil {
		return true
	}
	return lvl <= e.policy.SafetyLevel
}

func (e *Evaluator) matchRule(r policy.Rule, cmd Command) (Result, bool) {
	if r.Command != "*" && !e.matchRuleCommand(r.Command, cmd) {
		return Result{}, false
	}

	args := cmd.Args
	if len(args) > 0 {
		args = args[1:]
	}

	if len(r.Args.Contains) > 0 && !policy.Contains(args, r.Args.Contains) {
		return Result{}, false
	}
	if len(r.Args.AnyMatch) > 0 {
		m, err := policy.NewMatcher(r.Args.AnyMatch)
		if err != nil || !m.AnyMatchWithContext(args, e.matchCtx) {
			return Result{}, false
		}
	}
	if len(r.Args.AllMatch) > 0 {
		m, err := policy.NewMatcher(r.Args.AllMatch)
		if err != nil || !m.AllMatchWithContext(args, e.matchCtx) {
			return Result{}, false
		}
	}
	if len(r.Args.NoneMatch) > 0 {
		m, err := policy.NewMatcher(r.Args.NoneMatch)
		if err != nil || !m.NoneMatchWithContext(args, e.matchCtx) {
			return Result{}, false
		}
	}
	for posStr, patterns := range r.Args.Position {
		pos, _ := strconv.Atoi(posStr)
		if !policy.MatchPositionWithContext(args, pos, patterns, e.matchCtx) {
			return Result{}, false
		}
	}

	if len(r.Pipe.To) > 0 && !policy.ContainsExact(cmd.PipesTo, r.Pipe.To) {
		return Result{}, false
	}
	if len(r.Pipe.From) > 0 {
		matched := false
		if policy.ContainsExact([]string{"*"}, r.Pipe.From) {
			matched = len(cmd.PipesFrom) > 0
		} else {
			matched = policy.ContainsExact(cmd.PipesFrom, r.Pipe.From)
		}
		if !matched {
			return Result{}, false
		}
	}

	msg := r.Message
	if msg == "" && r.Action == policy.ActionDeny {
		msg = e.policy.Policy.DefaultMessage
	}
	return Result{Action: r.Action, Message: msg, Command: cmd.Name, Source: fmt.Sprintf("rule %s", ruleLabel(r)), RuleID: r.ID}, true
}

func ruleLabel(r policy.Rule) string {
	if r.ID != "" {
		return r.ID
	}
	return r.Command
}

func (e *Evaluator) matchRuleCommand(pattern string, cmd Command) bool {
	if strings.HasPrefix(pattern, "path:") {
		resolved := e.pathResolver.Resolve(cmd.Name)
		if resolved.Path == "" {
			return false
		}
		p, err := policy.ParsePattern(pattern)
		if err != nil {
			return false
		}
		return p.MatchWithContext(resolved.Path, e.matchCtx)
	}
	return pattern == cmd.Name
}

func (e *Evaluator) evaluateRedirect(r RedirectEval) Result {
	if r.IsFD {
		return allow()
	}
	if r.IsDynamic {
		switch e.policy.Policy.DynamicCommands {
		case "deny":
			return Result{Action: policy.ActionDeny, Message: "Dynamic redirect targets are not allowed", Source: "policy.dynamic_commands=deny (redirect)"}
		case "allow":
			return allow()
		default:
			return Result{Action: policy.ActionAsk, Source: "policy.dynamic_commands=ask (redirect)"}
		}
	}

	for _, rr := range e.policy.Redirects {
		if result, ok := e.matchRedirectRule(rr, r); ok {
			return result
		}
	}

	return Result{
		Action: policy.Action(e.policy.Policy.Default),
		Source: "policy.default (redirect " + r.Target + ")",
	}
}

func (e *Evaluator) matchRedirectRule(rr policy.RedirectRule, r RedirectEval) (Result, bool) {
	if rr.Append != nil && *rr.Append != r.Append {
		return Result{}, false
	}
	if len(rr.To.Exact) > 0 {
		basename := filepath.Base(r.Target)
		if !policy.ContainsExact([]string{r.Target, basename}, rr.To.Exact) {
			return Result{}, false
		}
	}
	if len(rr.To.Pattern) > 0 {
		m, err := policy.NewMatcher(rr.To.Pattern)
		if err != nil || !m.AnyMatchWithContext([]string{r.Target}, e.matchCtx) {
			return Result{}, false
		}
	}
	msg := rr.Message
	if msg == "" && rr.Action == policy.ActionDeny {
		msg = e.policy.Policy.DefaultMessage
	}
	return Result{Action: rr.Action, Message: msg, Source: "redirect rule (to=" + r.Target + ")"}, true
}

func (e *Evaluator) evaluateHeredoc(hd HeredocEval) Result {
	for _, hr := range e.policy.Heredocs {
		if len(hr.ContentMatch) == 0 {
			continue
		}
		m, err := policy.NewMatcher(hr.ContentMatch)
		if err != nil || !m.AnyMatchWithContext([]string{hd.Body}, e.matchCtx) {
			continue
		}
		msg := hr.Message
		if msg == "" && hr.Action == policy.ActionDeny {
			msg = e.policy.Policy.DefaultMessage
		}
		return Result{Action: hr.Action, Message: msg, Source: "heredoc rule (content_match)"}
	}
	return allow()
}
