package document

import "github.com/calvinalkan/docprop/pkg/prop"

// undoRecord restores one property to the value it held before an
// edit. Records carry the previous value and the target property
// explicitly instead of closing over document state.
type undoRecord interface {
	revert()
}

type propUndo[V any] struct {
	target *prop.Property[V]
	prev   V
}

func (u propUndo[V]) revert() {
	u.target.Set(u.prev)
}

// recordUndo pushes the current value of p onto the undo stack. A
// property in a failed state has nothing restorable, so no record is
// pushed.
func recordUndo[V any](d *Document, p *prop.Property[V]) {
	v, err := p.Value()
	if err != nil {
		return
	}

	d.undo = append(d.undo, propUndo[V]{target: p, prev: v})
}

// Undo reverts the most recent recorded edit. It returns false when
// there is nothing to undo.
//
// Undo is itself an edit: the restored value is dirty and reaches the
// bundle on the next Save.
func (d *Document) Undo() bool {
	if len(d.undo) == 0 {
		return false
	}

	rec := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]

	rec.revert()

	return true
}

// CanUndo reports whether the undo stack is non-empty.
func (d *Document) CanUndo() bool {
	return len(d.undo) > 0
}
