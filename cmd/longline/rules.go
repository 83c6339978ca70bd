package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/anthropics/longline/internal/diag"
	"github.com/anthropics/longline/internal/policy"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the effective rules, most specific first",
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	var overrides *policy.Config
	if safetyLevel != "" || trustLevel != "" {
		overrides = &policy.Config{SafetyLevel: safetyLevel, TrustLevel: trustLevel}
	}
	eff, _, err := policy.LoadChainWithOverrides(configPath, overrides)
	if err != nil {
		return err
	}

	fmt.Printf("safety_level=%s trust_level=%s\n\n", eff.SafetyLevel, eff.TrustLevel)

	rules := append([]policy.Rule(nil), eff.Rules...)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Specificity() > rules[j].Specificity()
	})

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		id := r.ID
		if id == "" {
			id = "-"
		}
		level := r.Level
		if level == "" {
			level = "-"
		}
		rows = append(rows, []string{
			string(r.Action),
			fmt.Sprintf("%d", r.Specificity()),
			id,
			r.Command,
			level,
			r.Message,
		})
	}
	diag.PrintTable([]string{"action", "specificity", "id", "command", "level", "message"}, rows)

	if len(eff.AllowCmds) > 0 {
		fmt.Println("\nallowlisted commands:")
		names := make([]string, 0, len(eff.AllowCmds))
		for name := range eff.AllowCmds {
			names = append(names, name)
		}
		sort.Strings(names)
		allowRows := make([][]string, 0, len(names))
		for _, name := range names {
			entry := eff.AllowCmds[name]
			trust := entry.Trust
			if trust == "" {
				trust = "standard"
			}
			allowRows = append(allowRows, []string{"allow", name, trust, entry.Message})
		}
		diag.PrintTable([]string{"action", "command", "trust", "reason"}, allowRows)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
