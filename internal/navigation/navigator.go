// Package navigation tracks which desk screen is showing and how to get back.
package navigation

import "github.com/spec-kit/servicedesk/internal/domain"

// Screen identifies a desk screen.
type Screen string

const (
	ScreenLogin              Screen = "login"
	ScreenAdminMenu          Screen = "admin_menu"
	ScreenUsers              Screen = "users"
	ScreenServices           Screen = "services"
	ScreenTechnicianServices Screen = "technician_services"
	ScreenHistory            Screen = "history"
)

// Screens lists every known screen.
var Screens = []Screen{
	ScreenLogin,
	ScreenAdminMenu,
	ScreenUsers,
	ScreenServices,
	ScreenTechnicianServices,
	ScreenHistory,
}

// Navigator holds the current screen and a LIFO stack of previous screens.
// The login screen is never pushed. It is not safe for concurrent use; the
// desk drives it from a single update loop.
type Navigator struct {
	current Screen
	stack   []Screen
}

// New returns a navigator showing the login screen with an empty history.
func New() *Navigator {
	return &Navigator{current: ScreenLogin}
}

// NavigateTo shows screen, remembering the previous one unless it was login.
// Navigating to the screen already showing changes nothing.
func (n *Navigator) NavigateTo(screen Screen) {
	if screen == n.current {
		return
	}
	if n.current != ScreenLogin {
		n.stack = append(n.stack, n.current)
	}
	n.current = screen
}

// GoBack returns to the most recently pushed screen. It reports false and
// leaves the state alone when there is nowhere to go.
func (n *Navigator) GoBack() bool {
	if len(n.stack) == 0 {
		return false
	}
	last := len(n.stack) - 1
	n.current = n.stack[last]
	n.stack = n.stack[:last]
	return true
}

// Reset clears the history and shows screen.
func (n *Navigator) Reset(screen Screen) {
	n.stack = n.stack[:0]
	n.current = screen
}

// Current returns the screen showing.
func (n *Navigator) Current() Screen {
	return n.current
}

// Depth returns the number of remembered screens.
func (n *Navigator) Depth() int {
	return len(n.stack)
}

// History returns a copy of the stack, oldest first.
func (n *Navigator) History() []Screen {
	out := make([]Screen, len(n.stack))
	copy(out, n.stack)
	return out
}

// BackVisible reports whether the back control should be offered for role on
// the current screen. Only admins move between screens; login and the admin
// menu are roots.
func (n *Navigator) BackVisible(role domain.Role) bool {
	switch n.current {
	case ScreenLogin, ScreenAdminMenu:
		return false
	}
	return role == domain.RoleAdmin
}
