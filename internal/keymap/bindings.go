// Package keymap holds Grove's static key bindings: one Binding per
// (key, context) pair, looked up by the message loop when translating a
// raw key press into a command name. Scoped down to the two contexts
// Grove's scope covers: the workspace list and the live preview pane.
// Dialog/modal chrome and its bindings are out of scope, per §6.
package keymap

// Binding maps one key, within one context, to a command name.
type Binding struct {
	Key     string
	Command string
	Context string
}

// Registry looks up bindings by context and key.
type Registry struct {
	byContext map[string]map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byContext: make(map[string]map[string]string)}
}

// RegisterBinding adds b to the registry, overwriting any existing binding
// for the same (context, key) pair.
func (r *Registry) RegisterBinding(b Binding) {
	if r.byContext[b.Context] == nil {
		r.byContext[b.Context] = make(map[string]string)
	}
	r.byContext[b.Context][b.Key] = b.Command
}

// Lookup returns the command bound to key in context, and whether one
// exists.
func (r *Registry) Lookup(context, key string) (string, bool) {
	ctx, ok := r.byContext[context]
	if !ok {
		return "", false
	}
	cmd, ok := ctx[key]
	return cmd, ok
}

// DefaultBindings returns Grove's built-in key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Global: available in every context.
		{Key: "q", Command: "quit", Context: "global"},
		{Key: "ctrl+c", Command: "quit", Context: "global"},
		{Key: "?", Command: "toggle-help", Context: "global"},
		{Key: "\\", Command: "toggle-sidebar", Context: "global"},

		// Workspace list: navigation and lifecycle operations.
		{Key: "j", Command: "cursor-down", Context: "list"},
		{Key: "down", Command: "cursor-down", Context: "list"},
		{Key: "k", Command: "cursor-up", Context: "list"},
		{Key: "up", Command: "cursor-up", Context: "list"},
		{Key: "g g", Command: "cursor-top", Context: "list"},
		{Key: "G", Command: "cursor-bottom", Context: "list"},
		{Key: "enter", Command: "attach", Context: "list"},
		{Key: "n", Command: "create", Context: "list"},
		{Key: "d", Command: "delete", Context: "list"},
		{Key: "m", Command: "merge", Context: "list"},
		{Key: "u", Command: "update-from-base", Context: "list"},
		{Key: "s", Command: "start-agent", Context: "list"},
		{Key: "S", Command: "stop-agent", Context: "list"},
		{Key: "r", Command: "restart-agent", Context: "list"},
		{Key: "R", Command: "refresh-workspaces", Context: "list"},
		{Key: "tab", Command: "next-preview-tab", Context: "list"},
		{Key: "shift+tab", Command: "prev-preview-tab", Context: "list"},

		// Live preview: scroll and enter/exit interactive mode.
		{Key: "i", Command: "enter-interactive", Context: "preview"},
		{Key: "ctrl+\\", Command: "exit-interactive", Context: "preview"},
		{Key: "ctrl+]", Command: "attach", Context: "preview"},
		{Key: "j", Command: "scroll-down", Context: "preview"},
		{Key: "k", Command: "scroll-up", Context: "preview"},
		{Key: "G", Command: "jump-to-bottom", Context: "preview"},
	}
}

// RegisterDefaults registers every default binding with r.
func RegisterDefaults(r *Registry) {
	for _, b := range DefaultBindings() {
		r.RegisterBinding(b)
	}
}
