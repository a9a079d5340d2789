package pagekit

// DefaultHistoryLimit bounds the number of retained history entries.
const DefaultHistoryLimit = 50

// History is a bounded sequence of snapshots with a cursor.
//
// The cursor always points at a valid entry. Push after an undo discards every
// entry past the cursor. When the bound is exceeded the oldest entry is dropped
// and the cursor shifts down so the active entry is preserved.
type History[T any] struct {
	entries []T
	cursor  int
	limit   int
}

// NewHistory seeds a history with its initial entry. A limit below 1 uses
// DefaultHistoryLimit.
func NewHistory[T any](initial T, limit int) *History[T] {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History[T]{entries: []T{initial}, limit: limit}
}

// Push truncates the redo tail and appends entry as the new current entry.
func (h *History[T]) Push(entry T) {
	h.entries = append(h.entries[:h.cursor+1], entry)
	h.cursor = len(h.entries) - 1
	if over := len(h.entries) - h.limit; over > 0 {
		// Copy so the dropped prefix can be collected.
		h.entries = append([]T(nil), h.entries[over:]...)
		h.cursor -= over
	}
}

// Undo steps back. The boolean is false (and nothing changes) at the oldest entry.
func (h *History[T]) Undo() (T, bool) {
	if h.cursor == 0 {
		var zero T
		return zero, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo steps forward. The boolean is false (and nothing changes) at the newest entry.
func (h *History[T]) Redo() (T, bool) {
	if h.cursor >= len(h.entries)-1 {
		var zero T
		return zero, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Current returns the entry under the cursor.
func (h *History[T]) Current() T {
	return h.entries[h.cursor]
}

func (h *History[T]) CanUndo() bool { return h.cursor > 0 }

func (h *History[T]) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Clear keeps only the current entry.
func (h *History[T]) Clear() {
	h.entries = []T{h.entries[h.cursor]}
	h.cursor = 0
}

// Len returns the number of retained entries.
func (h *History[T]) Len() int { return len(h.entries) }

// Cursor returns the index of the current entry.
func (h *History[T]) Cursor() int { return h.cursor }
