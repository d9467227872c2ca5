package logic

// Navigator handles cursor movement and viewport management for the
// picture list
type Navigator struct {
	selectedIndex  int
	viewportOffset int
	viewportHeight int
	totalItems     int
}

// NewNavigator creates a new navigator
func NewNavigator() *Navigator {
	return &Navigator{viewportHeight: 20}
}

// UpdateState updates the navigator's state
func (n *Navigator) UpdateState(selectedIndex, viewportOffset, viewportHeight, totalItems int) {
	n.selectedIndex = selectedIndex
	n.viewportOffset = viewportOffset
	n.viewportHeight = viewportHeight
	n.totalItems = totalItems
}

// GetSelectedIndex returns the current selected index
func (n *Navigator) GetSelectedIndex() int {
	return n.selectedIndex
}

// GetViewportOffset returns the current viewport offset
func (n *Navigator) GetViewportOffset() int {
	return n.viewportOffset
}

// SetSelectedIndex sets the selected index and ensures it's visible
func (n *Navigator) SetSelectedIndex(index int) (int, int) {
	n.selectedIndex = n.clamp(index)
	n.ensureSelectedVisible()
	return n.selectedIndex, n.viewportOffset
}

// Move applies a navigation direction and returns the new index and
// viewport offset
func (n *Navigator) Move(direction string) (int, int) {
	page := n.viewportHeight - 2
	if page < 1 {
		page = 1
	}

	switch direction {
	case "up":
		n.selectedIndex--
	case "down":
		n.selectedIndex++
	case "pageup":
		n.selectedIndex -= page
	case "pagedown":
		n.selectedIndex += page
	case "home":
		n.selectedIndex = 0
	case "end":
		n.selectedIndex = n.totalItems - 1
	}

	n.selectedIndex = n.clamp(n.selectedIndex)
	n.ensureSelectedVisible()
	return n.selectedIndex, n.viewportOffset
}

func (n *Navigator) clamp(index int) int {
	if index >= n.totalItems {
		index = n.totalItems - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// ensureSelectedVisible adjusts the viewport to keep the selected item
// visible, accounting for the scroll indicator lines
func (n *Navigator) ensureSelectedVisible() {
	// If selected item is above viewport, scroll up
	if n.selectedIndex < n.viewportOffset {
		n.viewportOffset = n.selectedIndex
	}

	// Determine if we'll have scroll indicators
	needsTopIndicator := n.viewportOffset > 0
	needsBottomIndicator := n.viewportOffset+n.viewportHeight < n.totalItems

	if !needsBottomIndicator && needsTopIndicator {
		remainingItems := n.totalItems - n.viewportOffset
		availableSpace := n.viewportHeight - 1 // -1 for top indicator
		if remainingItems > availableSpace {
			needsBottomIndicator = true
		}
	}

	// Calculate effective visible area
	effectiveHeight := n.viewportHeight
	if needsTopIndicator {
		effectiveHeight--
	}
	if needsBottomIndicator {
		effectiveHeight--
	}
	if effectiveHeight < 1 {
		effectiveHeight = 1
	}

	// If selected item is below effective viewport, scroll down
	if n.selectedIndex >= n.viewportOffset+effectiveHeight {
		newOffset := n.selectedIndex - effectiveHeight + 1

		maxPossibleOffset := n.totalItems - effectiveHeight
		if maxPossibleOffset < 0 {
			maxPossibleOffset = 0
		}
		if newOffset > maxPossibleOffset {
			newOffset = maxPossibleOffset
		}
		if newOffset < 0 {
			newOffset = 0
		}

		n.viewportOffset = newOffset
	}

	// Final validation: ensure viewport doesn't exceed bounds
	maxOffset := n.totalItems - effectiveHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	if n.viewportOffset > maxOffset {
		n.viewportOffset = maxOffset
	}
	if n.viewportOffset < 0 {
		n.viewportOffset = 0
	}
}
