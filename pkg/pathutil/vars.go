package pathutil

import (
	"os"
	"strings"
)

// PathVars holds the variables available for path pattern expansion.
type PathVars struct {
	ProjectRoot string // detected project root
	Home        string // user's home directory
	Cwd         string // current working directory
	HomeSet     bool   // true if HOME was available
}

// NewPathVars creates PathVars with the current environment.
func NewPathVars(projectRoot string) *PathVars {
	home, err := os.UserHomeDir()
	homeSet := err == nil && home != ""
	cwd, _ := os.Getwd()

	return &PathVars{
		ProjectRoot: projectRoot,
		Home:        home,
		Cwd:         cwd,
		HomeSet:     homeSet,
	}
}

// ExpandPattern expands variables in a path pattern string.
// Supported variables:
//   - $PROJECT_ROOT - the detected project root (nearest git/config marker)
//   - $HOME - user's home directory
func (v *PathVars) ExpandPattern(pattern string) string {
	result := pattern

	if v.ProjectRoot != "" {
		result = strings.ReplaceAll(result, "$PROJECT_ROOT", v.ProjectRoot)
	}
	if v.Home != "" {
		result = strings.ReplaceAll(result, "$HOME", v.Home)
	}

	return result
}

// HasPathVars returns true if the pattern contains any path variables.
func HasPathVars(pattern string) bool {
	return strings.Contains(pattern, "$PROJECT_ROOT") || strings.Contains(pattern, "$HOME")
}
