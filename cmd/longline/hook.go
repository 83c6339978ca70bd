package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anthropics/longline/internal/audit"
	"github.com/anthropics/longline/internal/diag"
	"github.com/anthropics/longline/internal/evaluator"
	"github.com/anthropics/longline/internal/hookio"
)

// runHook is the root command's default action: read one PreToolUse
// invocation from stdin, evaluate it, and write the decision to stdout.
func runHook(cmd *cobra.Command, args []string) error {
	logger := diag.NewLogger(diag.DefaultLogPath(), debugLog)

	opts := hookio.Options{
		ConfigPath:          configPath,
		ProjectRoot:         dirFlag,
		SafetyLevelOverride: safetyLevel,
		TrustLevelOverride:  trustLevel,
		AskOnDeny:           askOnDeny,
		AskAI:               askAI,
		AskAILenient:        askAILenient,
		Judge:               newJudge(),
	}

	if auditPath, err := defaultAuditPath(); err != nil {
		logger.Warn("could not determine audit log path", "err", err)
	} else if auditLogger, err := audit.Open(auditPath); err != nil {
		logger.Warn("could not open audit log", "path", auditPath, "err", err)
	} else {
		defer auditLogger.Close()
		opts.AuditFn = func(in hookio.Input, result evaluator.Result) {
			if err := auditLogger.Write(audit.FromDecision(in, result)); err != nil {
				logger.Warn("could not write audit record", "err", err)
			}
		}
	}

	code := hookio.Run(context.Background(), os.Stdin, os.Stdout, opts)
	os.Exit(code)
	return nil
}

// defaultAuditPath resolves the audit log location under the XDG config
// directory, creating the longline subdirectory if it doesn't exist yet.
func defaultAuditPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "longline")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.jsonl"), nil
}
