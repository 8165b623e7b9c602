package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownAspectRatio = errors.New("unknown aspect ratio")

// AspectRatio is one of the supported output shape presets
type AspectRatio string

const (
	AspectSquare   AspectRatio = "1:1"
	AspectPortrait AspectRatio = "4:5"
	AspectStory    AspectRatio = "9:16"
)

// AspectRatios lists the presets in selector order.
var AspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectStory}

var aspectSuffixes = map[AspectRatio]string{
	AspectSquare:   "square",
	AspectPortrait: "portrait",
	AspectStory:    "reel-story",
}

var aspectLabels = map[AspectRatio]string{
	AspectSquare:   "Square (1:1)",
	AspectPortrait: "Portrait (4:5)",
	AspectStory:    "Reel / Story (9:16)",
}

var aspectFactors = map[AspectRatio][2]float64{
	AspectSquare:   {1, 1},
	AspectPortrait: {4, 5},
	AspectStory:    {9, 16},
}

// ParseAspectRatio validates a preset name such as "4:5"
func ParseAspectRatio(s string) (AspectRatio, error) {
	r := AspectRatio(s)
	if _, ok := aspectSuffixes[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAspectRatio, s)
	}
	return r, nil
}

// Suffix is the file name suffix used when exporting this preset.
func (r AspectRatio) Suffix() string {
	return aspectSuffixes[r]
}

// Label is the human readable selector label.
func (r AspectRatio) Label() string {
	return aspectLabels[r]
}

// Height returns the layout height matching width for this preset.
// Unknown presets fall back to square.
func (r AspectRatio) Height(width float64) float64 {
	f, ok := aspectFactors[r]
	if !ok {
		return width
	}
	return width * f[1] / f[0]
}

func (r AspectRatio) String() string {
	return string(r)
}
