package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jordangarrison/grove/internal/interactive"
)

// translateKey implements §4.E step 3 for bubbletea: turning a tea.KeyMsg
// into the framework-agnostic interactive.Key the pipeline derives an
// Action from, rather than a tmux key-name string directly.
func translateKey(msg tea.KeyMsg) interactive.Key {
	switch msg.Type {
	case tea.KeyEnter:
		if msg.Alt {
			return interactive.Key{Kind: interactive.KeyModifiedEnter}
		}
		return interactive.Key{Kind: interactive.KeyEnter}
	case tea.KeyTab:
		return interactive.Key{Kind: interactive.KeyTab}
	case tea.KeyShiftTab:
		return interactive.Key{Kind: interactive.KeyBackTab}
	case tea.KeyBackspace:
		return interactive.Key{Kind: interactive.KeyBackspace}
	case tea.KeyDelete:
		return interactive.Key{Kind: interactive.KeyDelete}
	case tea.KeyUp:
		return interactive.Key{Kind: interactive.KeyUp}
	case tea.KeyDown:
		return interactive.Key{Kind: interactive.KeyDown}
	case tea.KeyLeft:
		return interactive.Key{Kind: interactive.KeyLeft}
	case tea.KeyRight:
		return interactive.Key{Kind: interactive.KeyRight}
	case tea.KeyHome:
		return interactive.Key{Kind: interactive.KeyHome}
	case tea.KeyEnd:
		return interactive.Key{Kind: interactive.KeyEnd}
	case tea.KeyPgUp:
		return interactive.Key{Kind: interactive.KeyPageUp}
	case tea.KeyPgDown:
		return interactive.Key{Kind: interactive.KeyPageDown}
	case tea.KeyEsc:
		return interactive.Key{Kind: interactive.KeyEscape}
	case tea.KeyCtrlBackslash:
		return interactive.Key{Kind: interactive.KeyCtrlBackslash}
	case tea.KeyRunes:
		if len(msg.Runes) == 1 {
			r := msg.Runes[0]
			if msg.Alt {
				switch r {
				case 'c':
					return interactive.Key{Kind: interactive.KeyAltC}
				case 'v':
					return interactive.Key{Kind: interactive.KeyAltV}
				default:
					return interactive.Key{Kind: interactive.KeyAlt, Rune: r}
				}
			}
			return interactive.Key{Kind: interactive.KeyChar, Rune: r}
		}
		return interactive.Key{Kind: interactive.KeyUnmapped}
	}

	if n, ok := functionKeyNumber(msg.Type); ok {
		return interactive.Key{Kind: interactive.KeyFunction, N: n}
	}
	if r, ok := ctrlLetter(msg.Type); ok {
		return interactive.Key{Kind: interactive.KeyCtrl, Rune: r}
	}
	return interactive.Key{Kind: interactive.KeyUnmapped}
}

func functionKeyNumber(t tea.KeyType) (int, bool) {
	switch t {
	case tea.KeyF1:
		return 1, true
	case tea.KeyF2:
		return 2, true
	case tea.KeyF3:
		return 3, true
	case tea.KeyF4:
		return 4, true
	case tea.KeyF5:
		return 5, true
	case tea.KeyF6:
		return 6, true
	case tea.KeyF7:
		return 7, true
	case tea.KeyF8:
		return 8, true
	case tea.KeyF9:
		return 9, true
	case tea.KeyF10:
		return 10, true
	case tea.KeyF11:
		return 11, true
	case tea.KeyF12:
		return 12, true
	default:
		return 0, false
	}
}

// ctrlLetter maps the Ctrl-<letter> KeyTypes bubbletea reports as their own
// constants (distinct from KeyCtrlBackslash, handled separately as the
// dedicated exit key) onto the letter that was held with Ctrl.
func ctrlLetter(t tea.KeyType) (rune, bool) {
	switch t {
	case tea.KeyCtrlA:
		return 'a', true
	case tea.KeyCtrlB:
		return 'b', true
	case tea.KeyCtrlD:
		return 'd', true
	case tea.KeyCtrlE:
		return 'e', true
	case tea.KeyCtrlK:
		return 'k', true
	case tea.KeyCtrlL:
		return 'l', true
	case tea.KeyCtrlN:
		return 'n', true
	case tea.KeyCtrlP:
		return 'p', true
	case tea.KeyCtrlR:
		return 'r', true
	case tea.KeyCtrlU:
		return 'u', true
	case tea.KeyCtrlW:
		return 'w', true
	default:
		return 0, false
	}
}
