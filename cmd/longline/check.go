package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anthropics/longline/internal/diag"
	"github.com/anthropics/longline/internal/evaluator"
	"github.com/anthropics/longline/internal/policy"
	"github.com/anthropics/longline/internal/shellstmt"
)

var checkCmd = &cobra.Command{
	Use:   "check [command]",
	Short: "Evaluate a shell command against the effective policy without running it",
	Args:  cobra.ArbitraryArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	script := strings.Join(args, " ")
	if script == "" {
		return fmt.Errorf("usage: longline check <command>")
	}

	var overrides *policy.Config
	if safetyLevel != "" || trustLevel != "" {
		overrides = &policy.Config{SafetyLevel: safetyLevel, TrustLevel: trustLevel}
	}
	eff, _, err := policy.LoadChainWithOverrides(configPath, overrides)
	if err != nil {
		return err
	}

	roots, err := shellstmt.Parse(script)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	projectRoot := dirFlag
	ev := evaluator.New(eff, projectRoot)

	items := ev.Explain(roots)
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		reason := it.Result.Message
		if reason == "" {
			reason = it.Result.Source
		}
		rows = append(rows, []string{string(it.Result.Action), it.Kind, it.Label, reason})
	}
	diag.PrintTable([]string{"action", "kind", "item", "reason"}, rows)

	overall := ev.Evaluate(roots)
	fmt.Printf("\noverall: %s", overall.Action)
	if overall.Message != "" {
		fmt.Printf(" (%s)", overall.Message)
	}
	fmt.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
