package hookio

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthropics/longline/internal/evaluator"
)

func runInput(t *testing.T, input string, opts Options) (Output, int) {
	t.Helper()
	var out bytes.Buffer
	code := Run(context.Background(), strings.NewReader(input), &out, opts)
	var decoded Output
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded), "raw output: %s", out.String())
	return decoded, code
}

func TestRun_UnknownToolAsks(t *testing.T) {
	out, code := runInput(t, `{"tool_name":"WebFetch","tool_input":{}}`, Options{})
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "ask", out.HookSpecificOutput.PermissionDecision)
}

func TestRun_EmptyCommandAsks(t *testing.T) {
	out, code := runInput(t, `{"tool_name":"Bash","tool_input":{"command":""}}`, Options{})
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "ask", out.HookSpecificOutput.PermissionDecision)
}

func TestRun_MalformedJSONAsks(t *testing.T) {
	out, code := runInput(t, `not json`, Options{})
	assert.Equal(t, ExitOK, code, "malformed request JSON is an ask, not a blocking config error")
	assert.Equal(t, "ask", out.HookSpecificOutput.PermissionDecision)
	assert.Contains(t, out.HookSpecificOutput.PermissionDecisionReason, "could not parse hook input")
}

func TestRun_ConfigErrorBlocksWithNoStdoutBody(t *testing.T) {
	var out bytes.Buffer
	code := Run(context.Background(), strings.NewReader(`{"tool_name":"Bash","tool_input":{"command":"ls"}}`), &out, Options{ConfigPath: filepath.Join(t.TempDir(), "nonexistent", "longline.yaml")})
	assert.Equal(t, ExitBlock, code)
	assert.Empty(t, out.String(), "a config-load failure must never emit a hook response body")
}

func TestRun_DefaultPolicyAsksForPlainCommand(t *testing.T) {
	out, code := runInput(t, `{"tool_name":"Bash","cwd":"/tmp","tool_input":{"command":"ls -la"}}`, Options{})
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "ask", out.HookSpecificOutput.PermissionDecision, "no rule or allowlist matches ls by default")
}

func TestRun_AskOnDenyRemapsDenyToAsk(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "longline.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("rules:\n  - id: no-rm-rf\n    command: rm\n    action: deny\n    args:\n      contains: [\"-rf\"]\n"), 0o644))

	var got evaluator.Result
	opts := Options{
		ConfigPath: configPath,
		AskOnDeny:  true,
		AuditFn: func(in Input, result evaluator.Result) {
			got = result
		},
	}
	out, code := runInput(t, `{"tool_name":"Bash","tool_input":{"command":"rm -rf /"}}`, opts)
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "ask", out.HookSpecificOutput.PermissionDecision, "ask-on-deny should remap deny to ask")
	assert.Contains(t, out.HookSpecificOutput.PermissionDecisionReason, "[overridden]")
	assert.NotEmpty(t, got.Original, "the audit record should retain the original decision")
}

func TestRun_AllowIsBarePassThrough(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "longline.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("allowlists:\n  commands:\n    - ls\n"), 0o644))

	var out bytes.Buffer
	code := Run(context.Background(), strings.NewReader(`{"tool_name":"Bash","cwd":"/tmp","tool_input":{"command":"ls -la"}}`), &out, Options{ConfigPath: configPath})
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "{}\n", out.String(), "an allow decision must be the bare pass-through body")
}

func TestRun_AuditFnIsCalled(t *testing.T) {
	var got evaluator.Result
	called := false
	opts := Options{AuditFn: func(in Input, result evaluator.Result) {
		called = true
		got = result
	}}
	runInput(t, `{"tool_name":"Bash","tool_input":{"command":"ls -la"}}`, opts)
	require.True(t, called)
	assert.NotEmpty(t, got.Action)
}
