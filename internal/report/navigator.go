package report

// Navigator is a pure cursor over a report's findings. It performs no
// I/O and has no failure mode: index bounds are enforced by saturation
// at both ends, never by an error. The cursor is ephemeral and is never
// persisted.
type Navigator struct {
	flags []Finding
	index int
}

// NewNavigator returns a cursor positioned at the first finding of r.
func NewNavigator(r Report) *Navigator {
	return &Navigator{flags: r.RedFlags}
}

// Adopt replaces the finding list with the given report's and resets
// the cursor to 0. Called whenever a new report becomes active,
// rehydration included.
func (n *Navigator) Adopt(r Report) {
	n.flags = r.RedFlags
	n.index = 0
}

// Reset moves the cursor back to the first finding.
func (n *Navigator) Reset() {
	n.index = 0
}

// Next advances the cursor by one, saturating at the last finding.
func (n *Navigator) Next() {
	if n.index < len(n.flags)-1 {
		n.index++
	}
}

// Previous moves the cursor back by one, saturating at the first
// finding.
func (n *Navigator) Previous() {
	if n.index > 0 {
		n.index--
	}
}

// JumpTo clamps i into the valid index range and moves the cursor
// there. A jump on an empty report is a no-op.
func (n *Navigator) JumpTo(i int) {
	if len(n.flags) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.flags)-1 {
		i = len(n.flags) - 1
	}
	n.index = i
}

// Len returns the number of findings under the cursor.
func (n *Navigator) Len() int {
	return len(n.flags)
}

// Index returns the current cursor position. The second return is
// false when the report has no findings and the cursor is absent.
func (n *Navigator) Index() (int, bool) {
	if len(n.flags) == 0 {
		return 0, false
	}
	return n.index, true
}

// Current returns the finding under the cursor, if any.
func (n *Navigator) Current() (Finding, bool) {
	if len(n.flags) == 0 {
		return Finding{}, false
	}
	return n.flags[n.index], true
}

// JumpTarget derives the document location the viewer should show for
// the current finding: a positive page number, or no navigation when
// the finding cannot be localized.
func (n *Navigator) JumpTarget() (int, bool) {
	current, ok := n.Current()
	if !ok {
		return 0, false
	}
	return current.Page()
}
