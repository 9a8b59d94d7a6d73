package service

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"os"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Thai glyphs cannot be trusted to the PDF engine's native text path on
// every viewer, so each Thai fragment is pre-rendered to a bitmap at a fixed
// supersampling factor and placed on the page as an image. ASCII stays on
// the native path for sharpness.

// rasterScale is the supersampling factor applied when rendering text
// bitmaps (rendered at scale, placed at 1/scale of the pixel size).
const rasterScale = 2

type TextRasterizer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face // keyed by point size
}

func NewTextRasterizer(ttf []byte) (*TextRasterizer, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return &TextRasterizer{
		font:  f,
		faces: make(map[float64]font.Face),
	}, nil
}

func LoadTextRasterizer(path string) (*TextRasterizer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewTextRasterizer(b)
}

func (tr *TextRasterizer) face(sizePt float64) (font.Face, error) {
	if f, ok := tr.faces[sizePt]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(tr.font, &opentype.FaceOptions{
		Size:    sizePt * rasterScale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	tr.faces[sizePt] = f
	return f, nil
}

// Measure returns the rendered width and line height of text, in points.
func (tr *TextRasterizer) Measure(text string, sizePt float64) (w, h float64, err error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.measureLocked(text, sizePt)
}

func (tr *TextRasterizer) measureLocked(text string, sizePt float64) (w, h float64, err error) {
	face, err := tr.face(sizePt)
	if err != nil {
		return 0, 0, err
	}
	adv := font.MeasureString(face, text)
	m := face.Metrics()
	w = float64(adv.Ceil()) / rasterScale
	h = float64((m.Ascent + m.Descent).Ceil()) / rasterScale
	return w, h, nil
}

// Render draws text onto a transparent bitmap (black glyphs) and returns the
// PNG bytes plus the placement size in points.
func (tr *TextRasterizer) Render(text string, sizePt float64) (pngBytes []byte, w, h float64, err error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	face, err := tr.face(sizePt)
	if err != nil {
		return nil, 0, 0, err
	}
	m := face.Metrics()
	adv := font.MeasureString(face, text)

	pxW := adv.Ceil()
	pxH := (m.Ascent + m.Descent).Ceil()
	if pxW <= 0 {
		pxW = 1
	}
	if pxH <= 0 {
		pxH = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, pxW, pxH))
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: m.Ascent},
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), float64(pxW) / rasterScale, float64(pxH) / rasterScale, nil
}

// Wrap splits text into lines not wider than maxWidth points: greedy on
// spaces, falling back to rune-level breaks for long unspaced Thai runs.
func (tr *TextRasterizer) Wrap(text string, sizePt, maxWidth float64) ([]string, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		paragraph = strings.TrimRight(paragraph, " ")
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		var line string
		flush := func() {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
		}
		for _, word := range strings.Split(paragraph, " ") {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			w, _, err := tr.measureLocked(candidate, sizePt)
			if err != nil {
				return nil, err
			}
			if w <= maxWidth {
				line = candidate
				continue
			}
			flush()
			// word alone still too wide: break per rune
			chunk, err := tr.breakRunesLocked(word, sizePt, maxWidth, &lines)
			if err != nil {
				return nil, err
			}
			line = chunk
		}
		flush()
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines, nil
}

// breakRunesLocked emits full-width chunks of word into lines and returns
// the trailing partial chunk.
func (tr *TextRasterizer) breakRunesLocked(word string, sizePt, maxWidth float64, lines *[]string) (string, error) {
	var chunk string
	for _, r := range word {
		candidate := chunk + string(r)
		w, _, err := tr.measureLocked(candidate, sizePt)
		if err != nil {
			return "", err
		}
		if w > maxWidth && chunk != "" {
			*lines = append(*lines, chunk)
			chunk = string(r)
		} else {
			chunk = candidate
		}
	}
	return chunk, nil
}

// HasThai reports whether any rune falls in the Thai block (needs the
// bitmap path).
func HasThai(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Thai) {
			return true
		}
	}
	return false
}

// FitWidth shrinks a rendered size to fit a box, preserving aspect ratio.
func FitWidth(w, h, maxW float64) (float64, float64) {
	if w <= maxW || w <= 0 {
		return w, h
	}
	ratio := maxW / w
	return maxW, math.Ceil(h*ratio*100) / 100
}
