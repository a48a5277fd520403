// Package markerfile reads and writes the small per-workspace dotfiles a
// workspace directory carries alongside its worktree: which prompt created
// it, whether permission checks are skipped, its base branch, its agent
// kind, and its one-time init marker.
package markerfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jordangarrison/grove/internal/layout"
)

// Names of the marker files a workspace directory may carry.
const (
	PromptFile          = ".grove-prompt"
	SkipPermissionsFile = ".grove-skip-permissions"
	BaseFile            = ".grove-base"
	AgentFile           = ".grove-agent"
	InitFile            = ".grove-init"

	// SidebarRatioFile persists the sidebar split ratio at the project
	// root, read on startup, per §6's sidebar ratio file. WriteSidebarRatio
	// writes it; the program has no drag-resize handling that calls it.
	SidebarRatioFile = ".grove-sidebar-width"
)

// Read returns the trimmed contents of name under workspacePath, or "" if
// the file is absent or unreadable.
func Read(workspacePath, name string) string {
	content, err := os.ReadFile(filepath.Join(workspacePath, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}

// Write persists value to name under workspacePath. An empty value removes
// the file instead of writing an empty one; a missing file is not an error.
func Write(workspacePath, name, value string) error {
	path := filepath.Join(workspacePath, name)
	if value == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.WriteFile(path, []byte(value+"\n"), 0o644)
}

// Exists reports whether name is present under workspacePath, used for the
// init marker (presence alone matters, not content).
func Exists(workspacePath, name string) bool {
	_, err := os.Stat(filepath.Join(workspacePath, name))
	return err == nil
}

// ReadSidebarRatio returns the persisted sidebar ratio under projectPath,
// clamped to the usable range, or the given default if no marker file
// exists or its contents don't parse.
func ReadSidebarRatio(projectPath string, defaultPct int) int {
	raw := Read(projectPath, SidebarRatioFile)
	if raw == "" {
		return layout.ClampSidebarRatio(defaultPct)
	}
	parsed, ok := layout.ParseSidebarRatio(raw)
	if !ok {
		return layout.ClampSidebarRatio(defaultPct)
	}
	return parsed
}

// WriteSidebarRatio persists ratioPct (clamped) under projectPath.
func WriteSidebarRatio(projectPath string, ratioPct int) error {
	return Write(projectPath, SidebarRatioFile, layout.SerializeSidebarRatio(ratioPct))
}
