package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthropics/longline/internal/policy"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Show which config files contribute to the effective policy, in precedence order",
	RunE:  runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		fmt.Printf("explicit config (highest precedence): %s\n", configPath)
		return nil
	}

	fmt.Println("(embedded defaults)")
	disc := policy.FindProjectConfigs()
	layers := []struct {
		name string
		path string
	}{
		{"global", disc.GlobalConfig},
		{"project", disc.ProjectConfig},
		{"local", disc.LocalConfig},
	}
	for _, l := range layers {
		if l.path == "" {
			fmt.Printf("%s: (not found)\n", l.name)
			continue
		}
		fmt.Printf("%s: %s\n", l.name, l.path)
	}
	if safetyLevel != "" || trustLevel != "" {
		fmt.Println("command-line overrides (highest precedence):")
		if safetyLevel != "" {
			fmt.Printf("  --safety-level=%s\n", safetyLevel)
		}
		if trustLevel != "" {
			fmt.Printf("  --trust-level=%s\n", trustLevel)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(filesCmd)
}
