package main

import (
	"github.com/spf13/cobra"

	"github.com/anthropics/longline/internal/judge"
)

var (
	configPath   string
	dirFlag      string
	safetyLevel  string
	trustLevel   string
	askOnDeny    bool
	askAI        bool
	askAILenient bool
	judgeCommand []string
	debugLog     bool
)

var rootCmd = &cobra.Command{
	Use:   "longline",
	Short: "A PreToolUse hook that decides whether a shell command should run",
	Long: `longline reads a Claude Code tool-use JSON payload from stdin, parses the
shell command it names, and decides allow/ask/deny against a layered YAML
policy. Invoked with no subcommand it runs in hook mode; the rules, check,
files, and init subcommands inspect the policy that would make that
decision.`,
	RunE: runHook,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if askAILenient {
			askAI = true
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an explicit policy config file (skips layered discovery)")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "working directory to use for project config discovery (default: process cwd)")
	rootCmd.PersistentFlags().StringVar(&safetyLevel, "safety-level", "", "override the configured safety level: critical, high, or strict")
	rootCmd.PersistentFlags().StringVar(&trustLevel, "trust-level", "", "override the configured trust level: minimal, standard, or full")
	rootCmd.PersistentFlags().BoolVar(&askOnDeny, "ask-on-deny", false, "re-map deny decisions to ask instead of blocking outright")
	rootCmd.PersistentFlags().BoolVar(&askAI, "ask-ai", false, "consult an AI judge (strict mode) for commands the policy leaves at ask")
	rootCmd.PersistentFlags().BoolVar(&askAILenient, "ask-ai-lenient", false, "consult an AI judge in lenient mode (implies --ask-ai)")
	rootCmd.PersistentFlags().StringSliceVar(&judgeCommand, "judge-cmd", nil, "argv of the AI judge subprocess (e.g. --judge-cmd=codex,exec,--json)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "mirror diagnostic logging to stderr in addition to the log file")
}

func newJudge() *judge.Judge {
	if len(judgeCommand) == 0 {
		return nil
	}
	return judge.New(judgeCommand, judge.DefaultTimeout)
}
