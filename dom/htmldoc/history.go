package htmldoc

// History is an in-memory session history with browser semantics: Push
// drops any forward entries, Back and Forward move the cursor and fire
// pop-state listeners.
type History struct {
	entries []entry
	index   int
	pop     []func()
}

type entry struct {
	title string
	path  string
}

// NewHistory starts a history at path.
func NewHistory(path string) *History {
	if path == "" {
		path = "/"
	}
	return &History{entries: []entry{{path: path}}}
}

func (h *History) Path() string { return h.entries[h.index].path }

// Title returns the title of the current entry.
func (h *History) Title() string { return h.entries[h.index].title }

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

func (h *History) Push(title, path string) {
	h.entries = append(h.entries[:h.index+1], entry{title: title, path: path})
	h.index = len(h.entries) - 1
}

func (h *History) OnPopState(fn func()) {
	if fn != nil {
		h.pop = append(h.pop, fn)
	}
}

// Back moves one entry back. It returns false at the first entry.
func (h *History) Back() bool { return h.Go(-1) }

// Forward moves one entry forward. It returns false at the last entry.
func (h *History) Forward() bool { return h.Go(1) }

// Go moves delta entries and fires pop-state listeners. Out of range moves
// are ignored.
func (h *History) Go(delta int) bool {
	next := h.index + delta
	if delta == 0 || next < 0 || next >= len(h.entries) {
		return false
	}
	h.index = next
	for _, fn := range h.pop {
		fn()
	}
	return true
}
