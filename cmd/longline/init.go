package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/anthropics/longline/internal/policy"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the embedded default policy to the global config directory",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".config")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "longline.yaml")

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists; remove it first if you want to regenerate it", path)
	}

	defaults := policy.DefaultConfig()
	defaults.Path = ""
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal embedded defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("wrote embedded defaults to %s\n", path)
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
