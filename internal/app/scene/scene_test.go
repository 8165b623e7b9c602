package scene_test

import (
	"image/color"
	"testing"

	"github.com/mrops-br/instafiche/internal/app/scene"
	"github.com/stretchr/testify/assert"
)

func TestTreeQueries(t *testing.T) {
	logo := scene.Picture("logo", "logo.png")
	first := scene.Picture("image", "a.png")
	dup := scene.Picture("thumb", "a.png")
	title := scene.Label("title", "Hello", scene.TextStyle{Size: 30})

	tree := &scene.Tree{
		Width:  500,
		Height: 500,
		Body:   scene.Box("card", logo, scene.Column("body", first, title, dup)),
	}

	w, h := tree.Size()
	assert.Equal(t, 500.0, w)
	assert.Equal(t, 500.0, h)
	assert.Equal(t, []string{"logo.png", "a.png"}, tree.Sources())
	assert.Same(t, title, tree.Find("title"))
	assert.Nil(t, tree.Find("missing"))
	assert.Equal(t, []string{"Hello"}, tree.Texts())
}

func TestDiagonalStops(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	f := scene.Diagonal(white, white, white)
	assert.Len(t, f, 3)
	assert.Equal(t, 0.0, f[0].Offset)
	assert.Equal(t, 0.5, f[1].Offset)
	assert.Equal(t, 1.0, f[2].Offset)

	assert.Len(t, scene.Solid(white), 1)
}
