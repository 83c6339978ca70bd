package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGlobalConfig_XDGConfigHome(t *testing.T) {
	xdg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "longline"), 0o755))
	path := filepath.Join(xdg, "longline", "longline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safety_level: high\n"), 0o644))

	t.Setenv("XDG_CONFIG_HOME", xdg)
	assert.Equal(t, path, FindGlobalConfig())
}

func TestFindGlobalConfig_XDGConfigHomeUnsetFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "longline"), 0o755))
	path := filepath.Join(home, ".config", "longline", "longline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safety_level: high\n"), 0o644))

	assert.Equal(t, path, FindGlobalConfig())
}

func TestFindGlobalConfig_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Empty(t, FindGlobalConfig())
}

func TestFindProjectConfigs_ClaudeDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".claude"), 0o755))
	projectPath := filepath.Join(root, ".claude", "longline.yaml")
	localPath := filepath.Join(root, ".claude", "longline.local.yaml")
	require.NoError(t, os.WriteFile(projectPath, []byte("safety_level: high\n"), 0o644))
	require.NoError(t, os.WriteFile(localPath, []byte("trust_level: full\n"), 0o644))

	t.Setenv(ProjectDirEnv, root)
	result := FindProjectConfigs()
	assert.Equal(t, projectPath, result.ProjectConfig)
	assert.Equal(t, localPath, result.LocalConfig)
}

func TestFindProjectConfigs_NoClaudeDirFound(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	t.Setenv(ProjectDirEnv, root)
	result := FindProjectConfigs()
	assert.Empty(t, result.ProjectConfig)
	assert.Empty(t, result.LocalConfig)
}
