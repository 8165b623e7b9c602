package raster

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var ErrFontDecode = errors.New("font decode failed")

var (
	fontFaceBlock = regexp.MustCompile(`(?s)@font-face\s*\{(.*?)\}`)
	familyDecl    = regexp.MustCompile(`font-family\s*:\s*['"]?([^;'"]+)['"]?\s*;?`)
	weightDecl    = regexp.MustCompile(`font-weight\s*:\s*(\d+)`)
	srcDataURI    = regexp.MustCompile(`url\(\s*['"]?(data:[^)'"]+)['"]?\s*\)`)

	unicodeRangeDecl = regexp.MustCompile(`unicode-range\s*:\s*([^;}]+)`)
)

// scriptSamples are the letters the card draws: Latin "A" and Arabic alef.
var scriptSamples = []rune{'A', '\u0627'}

var (
	fallbackRegular = mustParse(goregular.TTF)
	fallbackBold    = mustParse(gobold.TTF)
)

func mustParse(ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	return f
}

type faceKey struct {
	family string
	weight int
	size   float64
}

// FontSet resolves family/weight pairs to faces. Families missing from the
// stylesheet are drawn with the Go fonts.
type FontSet struct {
	fonts map[string]map[int]*opentype.Font
	faces map[faceKey]font.Face
}

// ParseFontCSS loads every @font-face of a self-contained stylesheet.
// Only data: sources are used; remote sources are ignored. When a family
// and weight is split into unicode-range subsets, the subset covering the
// card's scripts (Basic Latin, Arabic) wins; among equals the first wins.
func ParseFontCSS(css string) (*FontSet, error) {
	set := &FontSet{
		fonts: map[string]map[int]*opentype.Font{},
		faces: map[faceKey]font.Face{},
	}

	type candidate struct {
		src   string
		score int
	}
	type slot struct {
		family string
		weight int
	}
	var order []slot
	best := map[slot]candidate{}

	for _, block := range fontFaceBlock.FindAllStringSubmatch(css, -1) {
		body := block[1]

		fm := familyDecl.FindStringSubmatch(body)
		src := srcDataURI.FindStringSubmatch(body)
		if fm == nil || src == nil {
			continue
		}

		key := slot{family: normalizeFamily(fm[1]), weight: 400}
		if wm := weightDecl.FindStringSubmatch(body); wm != nil {
			if w, err := strconv.Atoi(wm[1]); err == nil {
				key.weight = w
			}
		}

		c := candidate{src: src[1], score: coverage(body)}
		current, ok := best[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || c.score > current.score {
			best[key] = c
		}
	}

	for _, key := range order {
		data, _, err := decodeDataURI(best[key].src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %d: %v", ErrFontDecode, key.family, key.weight, err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %d: %v", ErrFontDecode, key.family, key.weight, err)
		}

		if set.fonts[key.family] == nil {
			set.fonts[key.family] = map[int]*opentype.Font{}
		}
		set.fonts[key.family][key.weight] = f
	}

	return set, nil
}

// coverage counts the script samples a @font-face body can draw. A face
// without unicode-range covers everything.
func coverage(body string) int {
	m := unicodeRangeDecl.FindStringSubmatch(body)
	if m == nil {
		return len(scriptSamples)
	}
	ranges := parseUnicodeRange(m[1])

	n := 0
	for _, r := range scriptSamples {
		for _, rg := range ranges {
			if r >= rg[0] && r <= rg[1] {
				n++
				break
			}
		}
	}
	return n
}

// parseUnicodeRange reads a list such as "U+0000-00FF, U+0131, U+4??".
// Malformed entries are skipped.
func parseUnicodeRange(list string) [][2]rune {
	var out [][2]rune
	for _, item := range strings.Split(list, ",") {
		hex, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(item)), "U+")
		if !ok || hex == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(hex, "-")
		if !isRange {
			if strings.Contains(lo, "?") {
				lo, hi = strings.ReplaceAll(hex, "?", "0"), strings.ReplaceAll(hex, "?", "F")
			} else {
				hi = lo
			}
		}

		from, err := strconv.ParseUint(lo, 16, 32)
		if err != nil {
			continue
		}
		to, err := strconv.ParseUint(hi, 16, 32)
		if err != nil || to < from {
			continue
		}
		out = append(out, [2]rune{rune(from), rune(to)})
	}
	return out
}

// Families lists the loaded families with their weights.
func (s *FontSet) Families() map[string][]int {
	out := map[string][]int{}
	for family, weights := range s.fonts {
		for w := range weights {
			out[family] = append(out[family], w)
		}
	}
	return out
}

// Face returns a face of size pixels for the closest available weight.
func (s *FontSet) Face(family string, weight int, size float64) (font.Face, error) {
	key := faceKey{family: normalizeFamily(family), weight: weight, size: size}
	if face, ok := s.faces[key]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(s.resolve(key.family, weight), &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s %d: %v", ErrFontDecode, family, weight, err)
	}
	s.faces[key] = face
	return face, nil
}

func (s *FontSet) resolve(family string, weight int) *opentype.Font {
	weights := s.fonts[family]
	if len(weights) == 0 {
		if weight >= 600 {
			return fallbackBold
		}
		return fallbackRegular
	}

	best, bestDist := 0, -1
	for w := range weights {
		d := w - weight
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist || (d == bestDist && w > best) {
			best, bestDist = w, d
		}
	}
	return weights[best]
}

// Close releases cached faces.
func (s *FontSet) Close() {
	for k, face := range s.faces {
		_ = face.Close()
		delete(s.faces, k)
	}
}

func normalizeFamily(f string) string {
	return strings.ToLower(strings.TrimSpace(f))
}
