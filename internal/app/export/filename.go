package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrops-br/instafiche/internal/domain"
)

var whitespace = regexp.MustCompile(`[\s\p{Z}\x{FEFF}]+`)

// Filename derives the download name from the product name and the aspect
// ratio preset, e.g. "hyaluronic-acid-2%-+-b5-portrait.jpg".
func Filename(name string, ratio domain.AspectRatio) string {
	slug := strings.ToLower(whitespace.ReplaceAllString(name, "-"))
	return fmt.Sprintf("%s-%s.jpg", slug, ratio.Suffix())
}

// PixelRatio is the rasterisation scale that turns a surface of baseWidth
// CSS pixels into an image targetWidth pixels wide.
func PixelRatio(baseWidth, targetWidth float64) (float64, error) {
	if baseWidth <= 0 || targetWidth <= 0 {
		return 0, fmt.Errorf("%w: base %v, target %v", ErrInvalidGeometry, baseWidth, targetWidth)
	}
	return targetWidth / baseWidth, nil
}
