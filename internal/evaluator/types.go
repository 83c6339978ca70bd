// Package evaluator walks a normalized shell statement tree and produces a
// permission decision by applying an effective policy's rules and
// allowlists to every command, redirect, and heredoc it contains.
package evaluator

import "github.com/anthropics/longline/internal/policy"

// Result is one evaluation outcome: an action plus enough context to explain
// why it was chosen.
type Result struct {
	Action   policy.Action
	Message  string
	Command  string
	Source   string
	RuleID   string        // set when a rule with an explicit id produced this result
	Original policy.Action // set only when ask-on-deny remapped this result
}

func allow() Result { return Result{Action: policy.ActionAllow} }

// ApplyAskOnDeny re-maps a deny decision to ask when the caller requested the
// ask-on-deny override, preserving the original decision in Original so the
// audit log can record both.
func ApplyAskOnDeny(r Result, askOnDeny bool) Result {
	if !askOnDeny || r.Action != policy.ActionDeny {
		return r
	}
	return Result{
		Action:   policy.ActionAsk,
		Message:  "[overridden] " + r.Message,
		Command:  r.Command,
		Source:   r.Source,
		RuleID:   r.RuleID,
		Original: policy.ActionDeny,
	}
}

// combine folds `next` into `cur` using the most-restrictive-wins order,
// keeping the fields of whichever result determined the combined action.
func combine(cur, next Result) Result {
	combined := policy.Combine(cur.Action, next.Action)
	if combined == next.Action && next.Action != policy.ActionAllow {
		return next
	}
	if combined == cur.Action {
		return cur
	}
	return next
}

// Command is one resolved, executable leaf extracted from the statement
// tree — after wrapper-unwrapping and find/xargs inner-command extraction.
type Command struct {
	Name         string
	Args         []string // argv, including Name at [0]
	IsDynamic    bool
	PipesTo      []string
	PipesFrom    []string
	ResolvedPath string
	IsBuiltin    bool
}

// RedirectEval is one output/input redirect target to check against the
// redirect rules.
type RedirectEval struct {
	Target    string
	Append    bool
	IsDynamic bool
	IsFD      bool
}

// HeredocEval is one heredoc or here-string body to check against the
// heredoc rules.
type HeredocEval struct {
	Delimiter    string
	Body         string
	IsDynamic    bool
	IsHereString bool
}

// Constructs records which non-command shell constructs were present, for
// the constructs.* policy gates.
type Constructs struct {
	HasFunctionDefs bool
	HasBackground   bool
	HasSubshells    bool
	HasHeredocs     bool
}

// Extracted is the flattened view of a parsed script that the evaluator
// actually inspects.
type Extracted struct {
	Commands   []Command
	Redirects  []RedirectEval
	Heredocs   []HeredocEval
	Constructs Constructs
}
