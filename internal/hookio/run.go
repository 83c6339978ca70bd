package hookio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/anthropics/longline/internal/evaluator"
	"github.com/anthropics/longline/internal/judge"
	"github.com/anthropics/longline/internal/policy"
	"github.com/anthropics/longline/internal/shellstmt"
)

// stderrLog is the diagnostic sink for failures that must never reach the
// hook's stdout response stream — a blocking configuration error, say.
var stderrLog = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "longline"})

// Options configures a single Run invocation.
type Options struct {
	ConfigPath  string
	ProjectRoot string

	// SafetyLevelOverride/TrustLevelOverride are process-runtime overrides
	// (command-line switches) — the highest-precedence config layer.
	SafetyLevelOverride string
	TrustLevelOverride  string

	// Judge, when non-nil, is consulted for any command the evaluator
	// leaves at "ask". A judge can only narrow the decision toward
	// "allow"; it never runs at all for "allow" or "deny".
	Judge *judge.Judge

	// AskAI gates whether the judge is consulted at all; AskAILenient
	// additionally tells the judge it may be more permissive (passed
	// through as Request.Lenient).
	AskAI        bool
	AskAILenient bool

	// AskOnDeny re-maps a "deny" result to "ask", recording the original
	// decision on the result so the audit log can show both.
	AskOnDeny bool

	// AuditFn, when non-nil, is called once per decision before it is
	// written out, for the audit sink to record.
	AuditFn func(in Input, result evaluator.Result)
}

// Run decodes one hook invocation from r, evaluates it, writes the hook
// JSON decision to w, and returns the process exit code to use.
func Run(ctx context.Context, r io.Reader, w io.Writer, opts Options) int {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return writeResult(w, evaluator.Result{Action: policy.ActionAsk, Source: fmt.Sprintf("could not parse hook input: %v", err)})
	}

	if in.ToolName != "" && in.ToolName != "Bash" {
		return writeResult(w, evaluator.Result{Action: policy.ActionAsk, Source: "unhandled tool: " + in.ToolName})
	}

	if in.ToolInput.Command == "" {
		return writeResult(w, evaluator.Result{Action: policy.ActionAsk, Source: "no command in tool_input"})
	}

	var overrides *policy.Config
	if opts.SafetyLevelOverride != "" || opts.TrustLevelOverride != "" {
		overrides = &policy.Config{SafetyLevel: opts.SafetyLevelOverride, TrustLevel: opts.TrustLevelOverride}
	}
	eff, _, err := policy.LoadChainWithOverrides(opts.ConfigPath, overrides)
	if err != nil {
		return blockOnConfigError(err)
	}

	roots, err := shellstmt.Parse(in.ToolInput.Command)
	if err != nil {
		return writeResult(w, evaluator.Result{Action: policy.ActionAsk, Source: "parse error: " + err.Error(), Command: in.ToolInput.Command})
	}

	projectRoot := opts.ProjectRoot
	if projectRoot == "" {
		projectRoot = in.Cwd
	}
	result := evaluator.New(eff, projectRoot).Evaluate(roots)
	result = evaluator.ApplyAskOnDeny(result, opts.AskOnDeny)

	if opts.AskAI && result.Action == policy.ActionAsk && opts.Judge != nil {
		result = consultJudge(ctx, opts, in, result)
	}

	if opts.AuditFn != nil {
		opts.AuditFn(in, result)
	}

	return writeResult(w, result)
}

func consultJudge(ctx context.Context, opts Options, in Input, result evaluator.Result) evaluator.Result {
	verdict, err := opts.Judge.Ask(ctx, in.Cwd, in.ToolInput.Command, opts.AskAILenient)
	if err != nil {
		// Fail-open to the evaluator's own decision: a judge outage never
		// changes an ask into anything else.
		return result
	}
	if verdict.Action != policy.ActionAllow {
		return result
	}
	return evaluator.Result{
		Action:  policy.ActionAllow,
		Message: verdict.Reason,
		Command: result.Command,
		Source:  "ai judge",
	}
}

// writeResult writes the hook response. An "allow" decision is the bare
// pass-through body `{}`, per the hook protocol's two valid response shapes;
// "ask" and "deny" always carry the full hookSpecificOutput block.
func writeResult(w io.Writer, result evaluator.Result) int {
	if result.Action == policy.ActionAllow {
		_, _ = w.Write([]byte("{}\n"))
		return ExitOK
	}
	out := newOutput(result)
	_ = json.NewEncoder(w).Encode(out)
	return ExitOK
}

// blockOnConfigError reports a configuration load/validation failure. It
// never emits a hook response — only a stderr diagnostic — so a caller that
// consumes stdout as the hook protocol never sees a body for this failure.
func blockOnConfigError(err error) int {
	stderrLog.Error("could not load policy configuration", "err", err)
	return ExitBlock
}
