package policy

import (
	"os"
	"path/filepath"
)

// ProjectDirEnv, when set, is authoritative for the project root: discovery
// stops walking and checks only that directory.
const ProjectDirEnv = "LONGLINE_PROJECT_DIR"

const (
	globalConfigName  = "longline.yaml"
	projectConfigName = "longline.yaml"
	localConfigName   = "longline.local.yaml"
	projectConfigDir  = ".claude"
)

// DiscoveryResult holds the config paths discovered on disk. Any field may
// be empty when no config exists at that layer.
type DiscoveryResult struct {
	GlobalConfig  string
	ProjectConfig string
	LocalConfig   string
}

// FindGlobalConfig looks for the user overlay at
// ${XDG_CONFIG_HOME}/longline/longline.yaml, falling back to
// ~/.config/longline/longline.yaml when XDG_CONFIG_HOME is unset, per the
// XDG base directory spec's default.
func FindGlobalConfig() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		path := filepath.Join(dir, "longline", globalConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	path := filepath.Join(home, ".config", "longline", globalConfigName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// FindProjectRoot locates the nearest enclosing project boundary, preferring
// an explicit longline config marker over a bare .git marker so nested
// repositories (submodules) don't shadow a parent project's config.
//
// LONGLINE_PROJECT_DIR, when set, is used directly without any walk.
func FindProjectRoot() string {
	if envDir := os.Getenv(ProjectDirEnv); envDir != "" {
		return envDir
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	home, _ := os.UserHomeDir()

	if root := walkUpFor(cwd, func(dir string) bool {
		if home != "" && dir == home {
			return false
		}
		_, err := os.Stat(filepath.Join(dir, projectConfigDir, projectConfigName))
		return err == nil
	}); root != "" {
		return root
	}

	return walkUpFor(cwd, func(dir string) bool {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return info != nil
		}
		return false
	})
}

func walkUpFor(start string, match func(dir string) bool) string {
	dir := start
	for {
		if match(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// FindProjectConfigs walks from cwd up to the project root looking for
// .claude/longline.yaml and .claude/longline.local.yaml, so a monorepo
// package directory can carry its own overlay without one at the repo root.
func FindProjectConfigs() DiscoveryResult {
	result := DiscoveryResult{GlobalConfig: FindGlobalConfig()}

	root := FindProjectRoot()
	if root == "" {
		return result
	}
	if home, _ := os.UserHomeDir(); home != "" && root == home {
		return result
	}

	if os.Getenv(ProjectDirEnv) != "" {
		result.ProjectConfig, result.LocalConfig = checkConfigsAt(root)
		return result
	}

	cwd, err := os.Getwd()
	if err != nil {
		return result
	}

	dir := cwd
	for {
		if result.ProjectConfig == "" {
			if p := filepath.Join(dir, projectConfigDir, projectConfigName); exists(p) {
				result.ProjectConfig = p
			}
		}
		if result.LocalConfig == "" {
			if p := filepath.Join(dir, projectConfigDir, localConfigName); exists(p) {
				result.LocalConfig = p
			}
		}
		if (result.ProjectConfig != "" && result.LocalConfig != "") || dir == root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return result
}

func checkConfigsAt(dir string) (project, local string) {
	if p := filepath.Join(dir, projectConfigDir, projectConfigName); exists(p) {
		project = p
	}
	if p := filepath.Join(dir, projectConfigDir, localConfigName); exists(p) {
		local = p
	}
	return
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
