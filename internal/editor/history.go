package editor

import (
	"github.com/brunoga/deep"
)

// DefaultHistoryLimit is the number of undo steps kept by NewHistory when
// limit is not positive.
const DefaultHistoryLimit = 50

// History is a bounded undo/redo stack of states. It is not safe for
// concurrent use.
type History struct {
	limit   int
	past    []State
	present State
	future  []State
}

func NewHistory(initial State, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, present: deep.MustCopy(initial)}
}

// State returns a copy of the current state.
func (h *History) State() State {
	return deep.MustCopy(h.present)
}

// Do applies cmd to the current state. A failing command leaves the history
// untouched. A successful one clears the redo stack.
func (h *History) Do(cmd Command) error {
	next, err := Apply(h.present, cmd)
	if err != nil {
		return err
	}
	h.past = append(h.past, deep.MustCopy(h.present))
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.present = next
	h.future = nil
	return nil
}

// Undo restores the previous state. It reports false when there is none.
func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	h.future = append(h.future, h.present)
	h.present = h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return true
}

// Redo reapplies the last undone state. It reports false when there is none.
func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	h.past = append(h.past, h.present)
	h.present = h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return true
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }
