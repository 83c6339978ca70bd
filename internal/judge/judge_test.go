package judge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthropics/longline/internal/policy"
)

// scriptJudge writes a tiny shell script that echoes the given JSON to
// stdout, then returns a Judge configured to run it.
func scriptJudge(t *testing.T, body string) *Judge {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "judge.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return New([]string{"/bin/sh", path}, time.Second)
}

func TestAsk_ParsesPlainJSON(t *testing.T) {
	j := scriptJudge(t, `echo '{"action":"allow","reason":"looks fine"}'`)
	v, err := j.Ask(context.Background(), t.TempDir(), "ls -la", false)
	require.NoError(t, err)
	assert.Equal(t, policy.ActionAllow, v.Action)
	assert.Equal(t, "looks fine", v.Reason)
}

func TestAsk_ParsesFencedJSON(t *testing.T) {
	j := scriptJudge(t, `printf 'Sure thing.\n\x60\x60\x60json\n{"action":"allow","reason":"ok"}\n\x60\x60\x60\n'`)
	v, err := j.Ask(context.Background(), t.TempDir(), "ls -la", false)
	require.NoError(t, err)
	assert.Equal(t, policy.ActionAllow, v.Action)
}

func TestAsk_DenyVerdictCollapsesToAsk(t *testing.T) {
	j := scriptJudge(t, `echo '{"action":"deny","reason":"nope"}'`)
	v, err := j.Ask(context.Background(), t.TempDir(), "ls -la", false)
	require.NoError(t, err)
	assert.Equal(t, policy.ActionAsk, v.Action, "a judge cannot deny")
}

func TestAsk_NonZeroExitIsUnavailable(t *testing.T) {
	j := scriptJudge(t, `exit 1`)
	_, err := j.Ask(context.Background(), t.TempDir(), "ls -la", false)
	assert.Error(t, err)
}

func TestAsk_UnparseableOutputIsUnavailable(t *testing.T) {
	j := scriptJudge(t, `echo 'not json at all'`)
	_, err := j.Ask(context.Background(), t.TempDir(), "ls -la", false)
	assert.Error(t, err)
}

func TestAsk_TimeoutIsUnavailable(t *testing.T) {
	j := scriptJudge(t, `sleep 2; echo '{"action":"allow"}'`)
	j.timeout = 50 * time.Millisecond
	_, err := j.Ask(context.Background(), t.TempDir(), "ls -la", false)
	assert.Error(t, err)
}

func TestAsk_CommandTooLargeIsRejected(t *testing.T) {
	j := scriptJudge(t, `echo '{"action":"allow"}'`)
	big := make([]byte, maxInputBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	_, err := j.Ask(context.Background(), t.TempDir(), string(big), false)
	assert.Error(t, err)
}

func TestAsk_ThreadsLenientFlag(t *testing.T) {
	j := scriptJudge(t, `input=$(cat); case "$input" in *'"lenient":true'*) echo '{"action":"allow","reason":"lenient seen"}';; *) echo '{"action":"ask","reason":"strict"}';; esac`)
	v, err := j.Ask(context.Background(), t.TempDir(), "ls -la", true)
	require.NoError(t, err)
	assert.Equal(t, policy.ActionAllow, v.Action)
	assert.Equal(t, "lenient seen", v.Reason)
}

func TestAsk_NoCommandConfigured(t *testing.T) {
	j := New(nil, time.Second)
	_, err := j.Ask(context.Background(), t.TempDir(), "ls", false)
	assert.ErrorIs(t, err, ErrJudgeUnavailable)
}
