package raster

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/mrops-br/instafiche/internal/app/scene"
)

type clipRect struct {
	x, y, w, h, r float64
}

// canvas is a drawing target. Boxes carry absolute coordinates; ox and oy
// shift them when a subtree is painted off-screen.
type canvas struct {
	dc     *gg.Context
	ox, oy float64
	clips  []clipRect
}

type painter struct {
	scale float64
}

func (p *painter) px(v float64) float64 {
	return v * p.scale
}

func (p *painter) paint(c *canvas, b *box) {
	n := b.node
	if n.Rotation != 0 && b.w >= 1 && b.h >= 1 {
		p.paintRotated(c, b)
		return
	}

	x, y := b.x-c.ox, b.y-c.oy
	r := p.radius(b)

	if len(n.Fill) > 0 {
		p.setFill(c.dc, n.Fill, x, y, b.w, b.h)
		c.dc.DrawRoundedRectangle(x, y, b.w, b.h, r)
		c.dc.Fill()
	}

	switch n.Kind {
	case scene.KindText:
		p.text(c.dc, b, x, y)
	case scene.KindImage:
		p.image(c.dc, b, x, y)
	}

	if n.Clip {
		c.pushClip(clipRect{x: x, y: y, w: b.w, h: b.h, r: r})
	}
	for _, child := range b.children {
		p.paint(c, child)
	}
	if n.Clip {
		c.popClip()
	}

	if bw := p.px(n.Border.Width); bw > 0 {
		c.dc.SetColor(n.Border.Color)
		c.dc.SetLineWidth(bw)
		c.dc.DrawRoundedRectangle(x+bw/2, y+bw/2, b.w-bw, b.h-bw, math.Max(0, r-bw/2))
		c.dc.Stroke()
	}
}

// paintRotated draws the subtree upright on its own canvas and composites
// it rotated about the box center.
func (p *painter) paintRotated(c *canvas, b *box) {
	off := &canvas{
		dc: gg.NewContext(int(math.Ceil(b.w)), int(math.Ceil(b.h))),
		ox: b.x,
		oy: b.y,
	}

	upright := *b.node
	upright.Rotation = 0
	flat := *b
	flat.node = &upright
	p.paint(off, &flat)

	cx, cy := b.x-c.ox+b.w/2, b.y-c.oy+b.h/2
	c.dc.Push()
	c.dc.RotateAbout(gg.Radians(b.node.Rotation), cx, cy)
	c.dc.DrawImageAnchored(off.dc.Image(), int(math.Round(cx)), int(math.Round(cy)), 0.5, 0.5)
	c.dc.Pop()
}

func (p *painter) radius(b *box) float64 {
	return math.Max(0, math.Min(p.px(b.node.Radius), math.Min(b.w, b.h)/2))
}

func (p *painter) setFill(dc *gg.Context, fill scene.Fill, x, y, w, h float64) {
	if len(fill) == 1 {
		dc.SetColor(fill[0].Color)
		return
	}
	g := gg.NewLinearGradient(x, y, x+w, y+h)
	for _, s := range fill {
		g.AddColorStop(s.Offset, s.Color)
	}
	dc.SetFillStyle(g)
}

func (p *painter) text(dc *gg.Context, b *box, x, y float64) {
	st := b.node.Style
	if b.face == nil || len(b.lines) == 0 {
		return
	}

	dc.SetFontFace(b.face)
	dc.SetColor(st.Color)

	lh := p.px(st.Size * lineHeightOf(st))
	metrics := b.face.Metrics()
	ascent := float64(metrics.Ascent) / 64
	descent := float64(metrics.Descent) / 64
	spacing := st.LetterSpacing * p.px(st.Size)

	for i, line := range b.lines {
		if st.Direction == scene.RTL {
			line = reverseRunes(line)
		}
		lw := textWidth(b.face, line, spacing)

		lx := x
		switch st.Align {
		case scene.TextCenter:
			lx = x + (b.w-lw)/2
		case scene.TextRight:
			lx = x + b.w - lw
		}
		baseline := y + float64(i)*lh + (lh-(ascent+descent))/2 + ascent

		if spacing == 0 {
			dc.DrawString(line, lx, baseline)
		} else {
			cursor := lx
			for _, r := range line {
				s := string(r)
				dc.DrawString(s, cursor, baseline)
				cursor += textWidth(b.face, s, spacing)
			}
		}

		if st.Strike {
			sy := baseline - ascent*0.3
			dc.SetLineWidth(math.Max(1, p.px(st.Size)/14))
			dc.DrawLine(lx, sy, lx+lw, sy)
			dc.Stroke()
		}
	}
}

func lineHeightOf(st scene.TextStyle) float64 {
	if st.LineHeight <= 0 {
		return 1.2
	}
	return st.LineHeight
}

// reverseRunes puts an already wrapped right-to-left line in visual order.
// Letters are not joined into contextual forms.
func reverseRunes(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// image draws contain-fit and never enlarges past the natural size.
func (p *painter) image(dc *gg.Context, b *box, x, y float64) {
	if b.img == nil || b.w < 1 || b.h < 1 {
		return
	}
	bounds := b.img.Bounds()
	iw, ih := float64(bounds.Dx()), float64(bounds.Dy())
	if iw == 0 || ih == 0 {
		return
	}

	k := math.Min(math.Min(b.w/iw, b.h/ih), p.scale)
	dw, dh := int(math.Round(iw*k)), int(math.Round(ih*k))
	if dw < 1 || dh < 1 {
		return
	}

	var fitted image.Image = b.img
	if dw != bounds.Dx() || dh != bounds.Dy() {
		fitted = imaging.Resize(b.img, dw, dh, imaging.Lanczos)
	}
	dc.DrawImage(fitted,
		int(math.Round(x+(b.w-float64(dw))/2)),
		int(math.Round(y+(b.h-float64(dh))/2)))
}

func (c *canvas) pushClip(r clipRect) {
	c.clips = append(c.clips, r)
	c.dc.DrawRoundedRectangle(r.x, r.y, r.w, r.h, r.r)
	c.dc.Clip()
}

// popClip drops the innermost clip. gg keeps no clip stack, so the mask is
// rebuilt from the remaining regions.
func (c *canvas) popClip() {
	c.clips = c.clips[:len(c.clips)-1]
	c.dc.ResetClip()
	for _, r := range c.clips {
		c.dc.DrawRoundedRectangle(r.x, r.y, r.w, r.h, r.r)
		c.dc.Clip()
	}
}
