// Package layout holds the pure sidebar-ratio math behind the mouse-drag
// resize handle: clamping, deriving a ratio from a drag position, and
// round-tripping it through persisted config. The ratio is the drag column
// as a percentage of the total width, clamped to 20–60.
package layout

import (
	"strconv"
	"strings"
)

// ClampSidebarRatio bounds a sidebar width percentage to the usable range.
func ClampSidebarRatio(ratioPct int) int {
	if ratioPct < 20 {
		return 20
	}
	if ratioPct > 60 {
		return 60
	}
	return ratioPct
}

// RatioFromDrag derives a sidebar ratio from a horizontal drag position
// within a pane of totalWidth columns.
func RatioFromDrag(totalWidth, dragX int) int {
	if totalWidth <= 0 {
		return 20
	}
	ratio := (dragX * 100) / totalWidth
	return ClampSidebarRatio(ratio)
}

// SerializeSidebarRatio renders a clamped ratio for persistence.
func SerializeSidebarRatio(ratioPct int) string {
	return strconv.Itoa(ClampSidebarRatio(ratioPct))
}

// ParseSidebarRatio parses and clamps a persisted ratio string, returning
// ok=false if value isn't a valid integer.
func ParseSidebarRatio(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return ClampSidebarRatio(parsed), true
}
