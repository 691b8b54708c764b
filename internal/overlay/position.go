package overlay

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Horizontal is the horizontal anchor of an overlay.
type Horizontal string

// Vertical is the vertical anchor of an overlay.
type Vertical string

const (
	Left    Horizontal = "left"
	HCenter Horizontal = "center"
	Right   Horizontal = "right"

	Top     Vertical = "top"
	VCenter Vertical = "center"
	Bottom  Vertical = "bottom"
)

// DefaultMargin is the distance in pixels between an edge-anchored overlay
// and the frame border.
const DefaultMargin = 10

// ParseHorizontal resolves a position string. Anything unrecognized
// resolves to Right with ok set to false.
func ParseHorizontal(s string) (h Horizontal, ok bool) {
	switch Horizontal(strings.ToLower(strings.TrimSpace(s))) {
	case Left:
		return Left, true
	case HCenter:
		return HCenter, true
	case Right:
		return Right, true
	}
	return Right, false
}

// ParseVertical resolves a position string. Anything unrecognized resolves
// to Bottom with ok set to false.
func ParseVertical(s string) (v Vertical, ok bool) {
	switch Vertical(strings.ToLower(strings.TrimSpace(s))) {
	case Top:
		return Top, true
	case VCenter:
		return VCenter, true
	case Bottom:
		return Bottom, true
	}
	return Bottom, false
}

// Placement anchors an overlay within the frame.
type Placement struct {
	H      Horizontal
	V      Vertical
	Margin int
}

// NewPlacement resolves horizontal and vertical position strings, logging
// a warning for values that fell back to the bottom-right default.
func NewPlacement(horiz, vert string, margin int, log zerolog.Logger) Placement {
	h, ok := ParseHorizontal(horiz)
	if !ok {
		log.Warn().Str("position", horiz).Msg("Unknown horizontal position, using right")
	}
	v, ok := ParseVertical(vert)
	if !ok {
		log.Warn().Str("position", vert).Msg("Unknown vertical position, using bottom")
	}
	return Placement{H: h, V: v, Margin: margin}
}

// DrawtextExpr returns the x/y option pair for a drawtext filter, where tw
// and th are the rendered text size.
func (p Placement) DrawtextExpr() string {
	return p.expr("tw", "th")
}

// OverlayExpr returns the x/y option pair for an overlay filter, where w and
// h are the size of the overlaid picture.
func (p Placement) OverlayExpr() string {
	return p.expr("w", "h")
}

func (p Placement) expr(w, h string) string {
	var x, y string
	switch p.H {
	case Left:
		x = fmt.Sprintf("%d", p.Margin)
	case HCenter:
		x = fmt.Sprintf("(W-%s)/2", w)
	default:
		x = fmt.Sprintf("W-%s-%d", w, p.Margin)
	}
	switch p.V {
	case Top:
		y = fmt.Sprintf("%d", p.Margin)
	case VCenter:
		y = fmt.Sprintf("(H-%s)/2", h)
	default:
		y = fmt.Sprintf("H-%s-%d", h, p.Margin)
	}
	return "x=" + x + ":y=" + y
}
