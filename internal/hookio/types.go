// Package hookio implements the PreToolUse hook's JSON wire protocol: decode
// Claude Code's tool-invocation JSON from stdin, drive the command through
// the policy evaluator (and, on "ask", the optional AI judge), and encode
// the permission decision back as hook JSON on stdout.
package hookio

import (
	"fmt"

	"github.com/anthropics/longline/internal/evaluator"
)

// Input mirrors the PreToolUse hook JSON. Only the Bash tool is handled;
// every other tool name is left to ask, since shell-command policy is this
// hook's only concern.
type Input struct {
	SessionID string `json:"session_id"`
	Cwd       string `json:"cwd"`
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		Command string `json:"command"`
	} `json:"tool_input"`
}

// Output is the hook JSON written to stdout.
type Output struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

// HookSpecificOutput carries the permission decision Claude Code reads to
// decide whether to run, block, or prompt for the tool call.
type HookSpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

// Exit codes, per the hook's two-code contract: 0 covers allow/ask (the
// permission decision lives in the JSON body, not the process exit status),
// 2 is reserved for a blocking error that prevented any decision at all.
const (
	ExitOK    = 0
	ExitBlock = 2
)

func newOutput(r evaluator.Result) Output {
	var out Output
	out.HookSpecificOutput.HookEventName = "PreToolUse"

	switch r.Action {
	case "allow":
		out.HookSpecificOutput.PermissionDecision = "allow"
		out.HookSpecificOutput.PermissionDecisionReason = reasonOr(r, "allowed by longline policy")
	case "deny":
		out.HookSpecificOutput.PermissionDecision = "deny"
		out.HookSpecificOutput.PermissionDecisionReason = reasonOr(r, "denied by longline policy")
	default:
		out.HookSpecificOutput.PermissionDecision = "ask"
		out.HookSpecificOutput.PermissionDecisionReason = reasonOr(r, "no rule matched")
	}
	return out
}

// reasonOr builds the permissionDecisionReason text. Per the hook protocol,
// the reason is prefixed "[<rule-id>] " when a rule identifier produced the
// decision.
func reasonOr(r evaluator.Result, fallback string) string {
	reason := r.Message
	if reason == "" {
		reason = r.Source
	}
	if reason == "" {
		reason = fallback
	}
	if r.RuleID != "" {
		return fmt.Sprintf("[%s] %s", r.RuleID, reason)
	}
	if r.Command != "" {
		return r.Command + ": " + reason
	}
	return reason
}
