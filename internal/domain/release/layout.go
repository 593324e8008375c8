package release

import (
	"fmt"
	"strings"
)

// Layout selects where static assets are placed inside the release directory.
type Layout string

const (
	// LayoutFlat puts the executable and every asset in the release root.
	LayoutFlat Layout = "flat"
	// LayoutNested moves the nested assets into a subdirectory of the release root.
	LayoutNested Layout = "nested"
)

// Layouts returns every supported layout in display order.
func Layouts() []Layout {
	return []Layout{LayoutFlat, LayoutNested}
}

// ParseLayout converts user input into a Layout.
func ParseLayout(s string) (Layout, error) {
	l := Layout(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q (expected one of %v)", ErrUnknownLayout, s, Layouts())
	}

	return l, nil
}

// Valid reports whether l is a supported layout.
func (l Layout) Valid() bool {
	return l == LayoutFlat || l == LayoutNested
}

func (l Layout) String() string {
	return string(l)
}
