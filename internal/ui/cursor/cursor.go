// Package cursor tracks the selected line of a scrollable view in which
// only some lines can be selected.
package cursor

// Cursor manages the selected line and the scroll offset of a viewport.
// The selectable lines and viewport height are passed to methods rather
// than stored, since they change whenever a playlist is added.
type Cursor struct {
	pos    int // Selected line (0-indexed)
	offset int // First visible line
	margin int // Lines kept visible above/below the cursor
}

// New creates a new Cursor with the specified scroll margin.
func New(margin int) Cursor {
	return Cursor{margin: margin}
}

// Pos returns the selected line.
func (c Cursor) Pos() int {
	return c.pos
}

// Offset returns the current scroll offset.
func (c Cursor) Offset() int {
	return c.offset
}

// Move steps the cursor over delta selectable lines. It stops at the last
// selectable line in that direction.
func (c *Cursor) Move(delta int, selectable []bool, height int) {
	step := 1
	if delta < 0 {
		step, delta = -1, -delta
	}
	for range delta {
		next, ok := find(selectable, c.pos+step, step)
		if !ok {
			break
		}
		c.pos = next
	}
	c.ensureVisible(len(selectable), height)
}

// Jump selects line pos, or the closest selectable line after it, or
// before it when there is none after.
func (c *Cursor) Jump(pos int, selectable []bool, height int) {
	if len(selectable) == 0 {
		return
	}
	pos = clamp(pos, len(selectable)-1)
	if next, ok := find(selectable, pos, 1); ok {
		c.pos = next
	} else if prev, ok := find(selectable, pos, -1); ok {
		c.pos = prev
	}
	c.ensureVisible(len(selectable), height)
}

// JumpStart selects the first selectable line.
func (c *Cursor) JumpStart(selectable []bool, height int) {
	c.Jump(0, selectable, height)
	c.offset = 0
}

// JumpEnd selects the last selectable line.
func (c *Cursor) JumpEnd(selectable []bool, height int) {
	if prev, ok := find(selectable, len(selectable)-1, -1); ok {
		c.pos = prev
	}
	c.ensureVisible(len(selectable), height)
}

// EnsureVisible adjusts the scroll offset to keep the cursor visible.
// Call it after the lines or the height changed.
func (c *Cursor) EnsureVisible(selectable []bool, height int) {
	if len(selectable) > 0 && (c.pos >= len(selectable) || !selectable[c.pos]) {
		c.Jump(c.pos, selectable, height)
		return
	}
	c.ensureVisible(len(selectable), height)
}

func (c *Cursor) ensureVisible(lineCount, height int) {
	if height <= 0 || lineCount == 0 {
		return
	}
	margin := min(c.margin, (height-1)/2)

	if c.pos < c.offset+margin {
		c.offset = max(c.pos-margin, 0)
	}
	if c.pos >= c.offset+height-margin {
		c.offset = c.pos - height + margin + 1
	}
	c.offset = clamp(c.offset, max(lineCount-height, 0))
}

// VisibleRange returns the range of visible lines [start, end).
func (c Cursor) VisibleRange(lineCount, height int) (start, end int) {
	if lineCount == 0 || height <= 0 {
		return 0, 0
	}
	start = min(c.offset, lineCount)
	end = min(c.offset+height, lineCount)
	return start, end
}

// find returns the first selectable line from i walking by step.
func find(selectable []bool, i, step int) (int, bool) {
	for ; i >= 0 && i < len(selectable); i += step {
		if selectable[i] {
			return i, true
		}
	}
	return 0, false
}

func clamp(v, maxVal int) int {
	if v < 0 {
		return 0
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
