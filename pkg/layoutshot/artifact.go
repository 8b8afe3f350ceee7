package layoutshot

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/glaslos/ssdeep"
	"github.com/golang/freetype/truetype"
	"github.com/root4loot/goutils/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Image is an encoded PNG screenshot.
type Image []byte

// Capture is the result of rendering the page at one viewport.
type Capture struct {
	Viewport   Viewport // requested
	State      Viewport // reported by the browser before capture
	Image      Image
	Path       string
	Similarity int // ssdeep score against the file it replaced, or NoSimilarity
}

// NoSimilarity marks a capture with no previous file to compare against.
const NoSimilarity = -1

// SaveTo writes the image to path, replacing any previous file.
func (img Image) SaveTo(path string) error {
	if len(img) == 0 {
		return fmt.Errorf("empty image")
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err = file.Write(img); err != nil {
		return err
	}
	return file.Close()
}

// SimilarityTo returns the ssdeep similarity score (0-100) between img and
// the file at path. ok is false when there is no previous file or either
// side is too small to hash.
func (img Image) SimilarityTo(path string) (score int, ok bool) {
	previous, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	hash1, err := ssdeep.FuzzyBytes(img)
	if err != nil {
		log.Debugf("Could not hash new capture for %s: %v", path, err)
		return 0, false
	}

	hash2, err := ssdeep.FuzzyBytes(previous)
	if err != nil {
		log.Debugf("Could not hash previous capture %s: %v", path, err)
		return 0, false
	}

	score, err = ssdeep.Distance(hash1, hash2)
	if err != nil {
		return 0, false
	}
	return score, true
}

const (
	labelPadding = 20
	borderSize   = 1
)

// AddLabel draws text centered in a white band below the image.
func (img Image) AddLabel(text string) (Image, error) {
	src, err := png.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	face, err := labelFace()
	if err != nil {
		return nil, err
	}

	w := src.Bounds().Dx()
	h := src.Bounds().Dy() + labelPadding*2 + borderSize
	dc := gg.NewContext(w, h)

	dc.DrawImage(src, 0, 0)

	yLine := float64(src.Bounds().Dy())
	dc.SetColor(color.White)
	dc.DrawRectangle(0, yLine, float64(w), float64(labelPadding*2+borderSize))
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetLineWidth(float64(borderSize))
	dc.DrawLine(0, yLine, float64(w), yLine)
	dc.Stroke()
	dc.SetFontFace(face)
	dc.DrawStringAnchored(text, float64(w)/2, yLine+float64(labelPadding), 0.5, 0.3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

func labelFace() (font.Face, error) {
	ttFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	return truetype.NewFace(ttFont, &truetype.Options{
		Size: 14,
	}), nil
}
