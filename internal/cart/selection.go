package cart

const (
	MinQuantity = 1
	MaxQuantity = 100
)

// ClampQuantity forces qty into the allowed [MinQuantity, MaxQuantity] range.
func ClampQuantity(qty int) int {
	if qty < MinQuantity {
		return MinQuantity
	}
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return qty
}

// Selection tracks which cart lines are checked and their quantities.
// It has no side effects; it only produces the candidate line set an
// order is created from.
type Selection struct {
	lines []Line
}

func NewSelection(lines []Line) *Selection {
	cp := make([]Line, len(lines))
	copy(cp, lines)
	return &Selection{lines: cp}
}

// Select checks or unchecks a single line. It reports whether the line exists.
// Unchecking excludes the line from totals but does not remove it.
func (s *Selection) Select(lineID string, checked bool) bool {
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines[i].IsChecked = checked
			return true
		}
	}
	return false
}

// SelectAll checks or unchecks every line.
func (s *Selection) SelectAll(checked bool) {
	for i := range s.lines {
		s.lines[i].IsChecked = checked
	}
}

// SetQuantity updates a line's quantity, clamped to the allowed range.
// It reports whether the line exists.
func (s *Selection) SetQuantity(lineID string, qty int) bool {
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines[i].Quantity = ClampQuantity(qty)
			return true
		}
	}
	return false
}

// Lines returns every line, checked or not.
func (s *Selection) Lines() []Line {
	cp := make([]Line, len(s.lines))
	copy(cp, s.lines)
	return cp
}

// CheckedLines returns the candidate line set for an order.
func (s *Selection) CheckedLines() []Line {
	var checked []Line
	for _, l := range s.lines {
		if l.IsChecked {
			checked = append(checked, l)
		}
	}
	return checked
}

// CheckedTotal sums the subtotals of checked lines.
func (s *Selection) CheckedTotal() int64 {
	var total int64
	for _, l := range s.lines {
		if l.IsChecked {
			total += l.Subtotal()
		}
	}
	return total
}
