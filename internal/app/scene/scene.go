// Package scene describes the card as a tree of styled boxes, text runs and
// images. It is the unit the export pipeline captures and the rasteriser
// paints; nothing here knows about pixels or fonts.
package scene

import (
	"image/color"
)

// Kind is the element type of a node.
type Kind int

const (
	KindBox Kind = iota
	KindText
	KindImage
)

// Flow selects how a box places its children.
//
// FlowNone places every child at its Frame relative to the box origin; a
// child with an empty Frame fills the box's content area. FlowColumn and
// FlowRow stack children along one axis.
type Flow int

const (
	FlowNone Flow = iota
	FlowColumn
	FlowRow
)

// Justify distributes leftover space along the main axis.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
)

// Align positions children on the cross axis.
type Align int

const (
	AlignAuto Align = iota
	AlignStart
	AlignCenter
	AlignEnd
	AlignStretch
)

// TextAlign positions lines inside a text node.
type TextAlign int

const (
	TextLeft TextAlign = iota
	TextCenter
	TextRight
)

// Direction is the inline direction of a text run.
type Direction int

const (
	LTR Direction = iota
	RTL
)

// Rect is a frame in CSS pixels.
type Rect struct {
	X, Y, W, H float64
}

// Empty reports whether the frame has no size.
func (r Rect) Empty() bool {
	return r.W == 0 && r.H == 0
}

// Insets are padding or margin widths.
type Insets struct {
	Top, Right, Bottom, Left float64
}

// Pad returns equal insets on every side.
func Pad(v float64) Insets {
	return Insets{Top: v, Right: v, Bottom: v, Left: v}
}

// PadXY returns horizontal and vertical insets.
func PadXY(x, y float64) Insets {
	return Insets{Top: y, Right: x, Bottom: y, Left: x}
}

// Horizontal is the sum of left and right.
func (i Insets) Horizontal() float64 { return i.Left + i.Right }

// Vertical is the sum of top and bottom.
func (i Insets) Vertical() float64 { return i.Top + i.Bottom }

// Stop is a gradient color stop.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Fill paints a box background. One stop is a solid color, several stops
// form a diagonal gradient from the top-left to the bottom-right corner.
type Fill []Stop

// Solid returns a single color fill.
func Solid(c color.NRGBA) Fill {
	return Fill{{Offset: 0, Color: c}}
}

// Diagonal spreads colors evenly from top-left to bottom-right.
func Diagonal(colors ...color.NRGBA) Fill {
	f := make(Fill, len(colors))
	for i, c := range colors {
		off := 0.0
		if len(colors) > 1 {
			off = float64(i) / float64(len(colors)-1)
		}
		f[i] = Stop{Offset: off, Color: c}
	}
	return f
}

// Border strokes the inside edge of a box.
type Border struct {
	Width float64
	Color color.NRGBA
}

// TextStyle carries the typography of a text node.
type TextStyle struct {
	Family        string
	Weight        int
	Size          float64
	LineHeight    float64 // multiple of Size
	Color         color.NRGBA
	Align         TextAlign
	Direction     Direction
	Uppercase     bool
	LetterSpacing float64 // em
	Strike        bool
	NoWrap        bool
}

// Node is one element of the tree.
type Node struct {
	Kind Kind
	Name string

	Frame     Rect
	Width     float64
	Height    float64
	MaxHeight float64
	Grow      float64
	Margin    Insets
	Padding   Insets
	AlignSelf Align

	Flow    Flow
	Justify Justify
	Align   Align
	Gap     float64

	Fill     Fill
	Radius   float64
	Border   Border
	Rotation float64 // degrees, clockwise, about the center
	Clip     bool

	Text   string
	Style  TextStyle
	Source string

	Children []*Node
}

// Tree is a rendered card: a root box of fixed layout size.
type Tree struct {
	Width  float64
	Height float64
	Body   *Node
}

// Size reports the layout size in CSS pixels.
func (t *Tree) Size() (float64, float64) {
	if t == nil {
		return 0, 0
	}
	return t.Width, t.Height
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	if t == nil {
		return nil
	}
	return t.Body
}

// Walk visits nodes depth first in paint order until fn returns false.
func (t *Tree) Walk(fn func(n *Node) bool) {
	if t == nil || t.Body == nil {
		return
	}
	walk(t.Body, fn)
}

func walk(n *Node, fn func(n *Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// Sources lists every image reference in paint order, without duplicates.
func (t *Tree) Sources() []string {
	var out []string
	seen := map[string]bool{}
	t.Walk(func(n *Node) bool {
		if n.Kind == KindImage && n.Source != "" && !seen[n.Source] {
			seen[n.Source] = true
			out = append(out, n.Source)
		}
		return true
	})
	return out
}

// Find returns the first node with the given name, or nil.
func (t *Tree) Find(name string) *Node {
	var found *Node
	t.Walk(func(n *Node) bool {
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// Texts returns the content of every text node in paint order.
func (t *Tree) Texts() []string {
	var out []string
	t.Walk(func(n *Node) bool {
		if n.Kind == KindText {
			out = append(out, n.Text)
		}
		return true
	})
	return out
}
