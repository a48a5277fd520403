package app

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/jordangarrison/grove/internal/layout"
	"github.com/jordangarrison/grove/internal/preview"
	"github.com/jordangarrison/grove/internal/workspace"
)

var (
	styleSidebarSelected = lipgloss.NewStyle().Bold(true).Reverse(true)
	styleSidebarRow      = lipgloss.NewStyle()
	styleStatusError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleStatusWaiting   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleStatusDone      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleToastError      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleToastInfo       = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	stylePreviewBorder   = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	styleCursorOverlay   = lipgloss.NewStyle().Reverse(true)
)

// View renders the sidebar/preview split plus any visible toasts. Dialog and
// modal chrome are out of scope here; this is the live-preview core only.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	sidebarWidth := (m.width * m.sidebarRatioPct) / 100
	if sidebarWidth < 1 {
		sidebarWidth = layout.ClampSidebarRatio(m.sidebarRatioPct) * m.width / 100
	}
	previewWidth := m.width - sidebarWidth
	if previewWidth < 0 {
		previewWidth = 0
	}

	sidebar := m.renderSidebar(sidebarWidth, m.height-1)
	preview := m.renderPreview(previewWidth, m.height-1)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, preview)

	var b strings.Builder
	b.WriteString(body)
	if toastLine := m.renderToasts(); toastLine != "" {
		b.WriteString("\n")
		b.WriteString(toastLine)
	}
	return b.String()
}

func (m *Model) renderSidebar(width, height int) string {
	var lines []string
	for i, ws := range m.workspaces {
		label := ws.Name
		if ws.IsMain {
			label = ws.Name + " (main)"
		}
		row := styleSidebarRow.Width(width).Render(label + "  " + statusGlyph(ws.Status))
		if i == m.selectedIndex {
			row = styleSidebarSelected.Width(width).Render(label + "  " + statusGlyph(ws.Status))
		}
		lines = append(lines, row)
	}
	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func statusGlyph(s workspace.Status) string {
	switch s {
	case workspace.StatusError:
		return styleStatusError.Render("error")
	case workspace.StatusWaiting, workspace.StatusThinking:
		return styleStatusWaiting.Render(string(s))
	case workspace.StatusDone, workspace.StatusActive:
		return styleStatusDone.Render(string(s))
	default:
		return string(s)
	}
}

func (m *Model) renderPreview(width, height int) string {
	ws := m.selectedWorkspace()
	if ws == nil {
		return stylePreviewBorder.Width(width - 2).Height(height - 2).Render("no workspace selected")
	}
	p := m.previewFor(ws.Path)
	viewportHeight := height - 2
	if viewportHeight < 0 {
		viewportHeight = 0
	}
	lines := p.VisibleLines(viewportHeight)
	if m.interactiveSession != "" && m.interactiveSession == workspace.SessionName(sessionNamePrefix, ws.Name) {
		overlay := preview.ComputeCursorOverlay(len(lines), m.interactiveCursor.PaneHeight, m.interactiveCursor.Row, m.interactiveCursor.Col, m.interactiveCursor.Visible)
		lines = overlayCursor(lines, overlay)
	}
	content := strings.Join(lines, "\n")
	if flash := m.flashes[ws.Path]; flash != nil {
		style := styleStatusDone
		if flash.IsError {
			style = styleStatusError
		}
		content = style.Render(flash.Text) + "\n" + content
	}
	return stylePreviewBorder.Width(maxInt(width-2, 0)).Height(maxInt(height-2, 0)).Render(content)
}

// overlayCursor draws the interactive cursor glyph onto lines at overlay's
// row/col when the remote cursor is visible within the current window.
func overlayCursor(lines []string, overlay preview.CursorOverlay) []string {
	if !overlay.Visible || overlay.Row < 0 || overlay.Row >= len(lines) {
		return lines
	}
	out := make([]string, len(lines))
	copy(out, lines)
	out[overlay.Row] = overlayCursorOnLine(out[overlay.Row], overlay.Col)
	return out
}

// overlayCursorOnLine reverse-styles the rune at display column col,
// stripping any ANSI escapes first (x/ansi.Strip) and walking runes by
// their display width (go-runewidth) rather than byte or rune index, so
// the cursor lands under the right glyph even when the line contains
// double-width characters.
func overlayCursorOnLine(line string, col int) string {
	plain := ansi.Strip(line)
	width, byteOffset := 0, 0
	for _, r := range plain {
		if width >= col {
			break
		}
		width += runewidth.RuneWidth(r)
		byteOffset += utf8.RuneLen(r)
	}
	if byteOffset >= len(plain) {
		return plain + styleCursorOverlay.Render(" ")
	}
	_, size := utf8.DecodeRuneInString(plain[byteOffset:])
	return plain[:byteOffset] + styleCursorOverlay.Render(plain[byteOffset:byteOffset+size]) + plain[byteOffset+size:]
}

func (m *Model) renderToasts() string {
	visible := m.toasts.Visible()
	if len(visible) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(visible))
	for _, t := range visible {
		style := styleToastInfo
		if t.IsError {
			style = styleToastError
		}
		rendered = append(rendered, style.Render(t.Text))
	}
	return strings.Join(rendered, " | ")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
