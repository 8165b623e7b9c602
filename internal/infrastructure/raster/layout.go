package raster

import (
	"image"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mrops-br/instafiche/internal/app/scene"
	"golang.org/x/image/font"
)

// box is a laid out node in device pixels, absolute to the canvas.
type box struct {
	node       *scene.Node
	x, y, w, h float64
	lines      []string
	face       font.Face
	img        image.Image
	children   []*box
}

type layouter struct {
	scale  float64
	fonts  *FontSet
	faces  map[*scene.Node]font.Face
	images map[string]image.Image
}

func newLayouter(scale float64, fonts *FontSet, images map[string]image.Image) *layouter {
	return &layouter{
		scale:  scale,
		fonts:  fonts,
		faces:  map[*scene.Node]font.Face{},
		images: images,
	}
}

func (l *layouter) px(v float64) float64 {
	return v * l.scale
}

func (l *layouter) scaled(i scene.Insets) scene.Insets {
	return scene.Insets{
		Top:    l.px(i.Top),
		Right:  l.px(i.Right),
		Bottom: l.px(i.Bottom),
		Left:   l.px(i.Left),
	}
}

// inner is padding plus border, the distance from the edge to the content.
func (l *layouter) inner(n *scene.Node) scene.Insets {
	in := l.scaled(n.Padding)
	if bw := l.px(n.Border.Width); bw > 0 {
		in.Top += bw
		in.Right += bw
		in.Bottom += bw
		in.Left += bw
	}
	return in
}

// resolveFaces creates a face for every text node ahead of layout. Faces
// are sized in device pixels so glyphs rasterise at full resolution.
func (l *layouter) resolveFaces(root *scene.Node) error {
	var visit func(n *scene.Node) error
	visit = func(n *scene.Node) error {
		if n.Kind == scene.KindText {
			face, err := l.fonts.Face(n.Style.Family, weightOf(n.Style), l.px(n.Style.Size))
			if err != nil {
				return err
			}
			l.faces[n] = face
		}
		for _, c := range n.Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(root)
}

func weightOf(st scene.TextStyle) int {
	if st.Weight == 0 {
		return 400
	}
	return st.Weight
}

func (l *layouter) lineHeight(n *scene.Node) float64 {
	lh := n.Style.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	return l.px(n.Style.Size * lh)
}

func (l *layouter) spacing(n *scene.Node) float64 {
	return n.Style.LetterSpacing * l.px(n.Style.Size)
}

func textWidth(face font.Face, s string, spacing float64) float64 {
	w := float64(font.MeasureString(face, s)) / 64
	if spacing != 0 {
		w += spacing * float64(utf8.RuneCountInString(s))
	}
	return w
}

// textLines collapses white space and wraps greedily at word boundaries.
// A word wider than the line is kept whole.
func (l *layouter) textLines(n *scene.Node, width float64) []string {
	text := n.Text
	if n.Style.Uppercase {
		text = strings.ToUpper(text)
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if n.Style.NoWrap {
		return []string{strings.Join(words, " ")}
	}

	face, spacing := l.faces[n], l.spacing(n)
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if textWidth(face, candidate, spacing) <= width {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = w
	}
	return append(lines, line)
}

// measure returns the intrinsic size of n when given avail width.
func (l *layouter) measure(n *scene.Node, avail float64) (float64, float64) {
	var w, h float64

	switch n.Kind {
	case scene.KindText:
		lines := l.textLines(n, avail)
		for _, line := range lines {
			w = math.Max(w, textWidth(l.faces[n], line, l.spacing(n)))
		}
		h = float64(len(lines)) * l.lineHeight(n)
	case scene.KindImage:
		w, h = l.imageSize(n, avail)
	default:
		in := l.inner(n)
		content := avail - in.Horizontal()
		if n.Width > 0 {
			content = l.px(n.Width) - in.Horizontal()
		}
		w, h = l.measureChildren(n, math.Max(0, content))
		w += in.Horizontal()
		h += in.Vertical()
	}

	if n.Width > 0 {
		w = l.px(n.Width)
	}
	if n.Height > 0 {
		h = l.px(n.Height)
	}
	return w, h
}

func (l *layouter) measureChildren(n *scene.Node, avail float64) (float64, float64) {
	var w, h float64
	count := 0
	for _, c := range n.Children {
		if !c.Frame.Empty() {
			continue
		}
		m := l.scaled(c.Margin)
		cw, ch := l.measure(c, math.Max(0, avail-m.Horizontal()))
		cw += m.Horizontal()
		ch += m.Vertical()

		switch n.Flow {
		case scene.FlowColumn:
			w, h = math.Max(w, cw), h+ch
		case scene.FlowRow:
			w, h = w+cw, math.Max(h, ch)
		default:
			w, h = math.Max(w, cw), math.Max(h, ch)
		}
		count++
	}

	if count > 1 {
		gaps := l.px(n.Gap) * float64(count-1)
		switch n.Flow {
		case scene.FlowColumn:
			h += gaps
		case scene.FlowRow:
			w += gaps
		}
	}
	return w, h
}

// imageSize is the natural size shrunk to fit avail and MaxHeight.
func (l *layouter) imageSize(n *scene.Node, avail float64) (float64, float64) {
	img := l.images[n.Source]
	if img == nil {
		return 0, 0
	}
	b := img.Bounds()
	w, h := l.px(float64(b.Dx())), l.px(float64(b.Dy()))
	if w == 0 || h == 0 {
		return 0, 0
	}

	k := 1.0
	if avail > 0 && w > avail {
		k = avail / w
	}
	if n.MaxHeight > 0 && h*k > l.px(n.MaxHeight) {
		k = l.px(n.MaxHeight) / h
	}
	return w * k, h * k
}

// place lays n out in the given rectangle.
func (l *layouter) place(n *scene.Node, x, y, w, h float64) *box {
	b := &box{node: n, x: x, y: y, w: w, h: h}

	switch n.Kind {
	case scene.KindText:
		b.face = l.faces[n]
		b.lines = l.textLines(n, w)
		return b
	case scene.KindImage:
		b.img = l.images[n.Source]
		return b
	}

	in := l.inner(n)
	cx, cy := x+in.Left, y+in.Top
	cw := math.Max(0, w-in.Horizontal())
	ch := math.Max(0, h-in.Vertical())

	if n.Flow == scene.FlowColumn || n.Flow == scene.FlowRow {
		b.children = l.flow(n, cx, cy, cw, ch)
	} else {
		for _, c := range n.Children {
			if !c.Frame.Empty() {
				continue
			}
			m := l.scaled(c.Margin)
			b.children = append(b.children, l.place(c,
				cx+m.Left, cy+m.Top,
				math.Max(0, cw-m.Horizontal()), math.Max(0, ch-m.Vertical())))
		}
	}

	// Framed children are positioned against the border box and painted last.
	for _, c := range n.Children {
		if c.Frame.Empty() {
			continue
		}
		f := c.Frame
		b.children = append(b.children, l.place(c, x+l.px(f.X), y+l.px(f.Y), l.px(f.W), l.px(f.H)))
	}
	return b
}

type flowItem struct {
	node        *scene.Node
	margin      scene.Insets
	align       scene.Align
	main, cross float64
}

// flow stacks children along one axis. Growing children start from a zero
// basis and share whatever space is left.
func (l *layouter) flow(n *scene.Node, x, y, w, h float64) []*box {
	row := n.Flow == scene.FlowRow
	mainSize, crossSize := h, w
	if row {
		mainSize, crossSize = w, h
	}

	var items []*flowItem
	used, grow := 0.0, 0.0

	for _, c := range n.Children {
		if !c.Frame.Empty() {
			continue
		}
		it := &flowItem{node: c, margin: l.scaled(c.Margin), align: c.AlignSelf}
		if it.align == scene.AlignAuto {
			it.align = n.Align
		}
		if it.align == scene.AlignAuto {
			it.align = scene.AlignStretch
		}

		marginMain, marginCross := it.margin.Vertical(), it.margin.Horizontal()
		if row {
			marginMain, marginCross = marginCross, marginMain
		}
		availMain := math.Max(0, mainSize-marginMain)
		availCross := math.Max(0, crossSize-marginCross)

		if row {
			switch {
			case c.Grow > 0:
			case c.Width > 0:
				it.main = l.px(c.Width)
			default:
				mw, _ := l.measure(c, availMain)
				it.main = math.Min(mw, availMain)
			}
		} else {
			switch {
			case c.Width > 0:
				it.cross = l.px(c.Width)
			case it.align == scene.AlignStretch:
				it.cross = availCross
			default:
				mw, _ := l.measure(c, availCross)
				it.cross = math.Min(mw, availCross)
			}
			switch {
			case c.Grow > 0:
			case c.Height > 0:
				it.main = l.px(c.Height)
			default:
				_, it.main = l.measure(c, it.cross)
			}
		}

		used += it.main + marginMain
		grow += c.Grow
		items = append(items, it)
	}

	if len(items) > 1 {
		used += l.px(n.Gap) * float64(len(items)-1)
	}

	free := mainSize - used
	if grow > 0 {
		share := math.Max(0, free)
		for _, it := range items {
			if it.node.Grow > 0 {
				it.main = share * it.node.Grow / grow
			}
		}
		free = 0
	}

	if row {
		for _, it := range items {
			availCross := math.Max(0, crossSize-it.margin.Vertical())
			switch {
			case it.node.Height > 0:
				it.cross = l.px(it.node.Height)
			case it.align == scene.AlignStretch:
				it.cross = availCross
			default:
				_, it.cross = l.measure(it.node, it.main)
			}
		}
	}

	pos := 0.0
	if free > 0 {
		switch n.Justify {
		case scene.JustifyCenter:
			pos = free / 2
		case scene.JustifyEnd:
			pos = free
		}
	}

	out := make([]*box, 0, len(items))
	for _, it := range items {
		m := it.margin
		if row {
			cy := y + crossOffset(it.align, crossSize, it.cross, m.Top, m.Bottom)
			out = append(out, l.place(it.node, x+pos+m.Left, cy, it.main, it.cross))
			pos += m.Horizontal() + it.main + l.px(n.Gap)
		} else {
			cx := x + crossOffset(it.align, crossSize, it.cross, m.Left, m.Right)
			out = append(out, l.place(it.node, cx, y+pos+m.Top, it.cross, it.main))
			pos += m.Vertical() + it.main + l.px(n.Gap)
		}
	}
	return out
}

func crossOffset(align scene.Align, avail, size, before, after float64) float64 {
	switch align {
	case scene.AlignCenter:
		return before + (avail-before-after-size)/2
	case scene.AlignEnd:
		return avail - after - size
	default:
		return before
	}
}
