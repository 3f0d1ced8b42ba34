// Package render rasterizes quote text into the fixed NFT artwork.
package render

import (
	"bytes"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/quoteforge/quote-mint/internal/model"
)

const (
	canvasWidth  = 1000
	canvasHeight = 500
	fontSize     = 36
	textWidth    = 920 // canvas minus the 40px padding on each side
	lineSpacing  = 1.5
)

// Gradient endpoints, matching the artwork's 135deg blue-to-purple fill.
var (
	gradientStart = color.RGBA{R: 0x1e, G: 0x3a, B: 0x8a, A: 0xff}
	gradientEnd   = color.RGBA{R: 0x93, G: 0x33, B: 0xea, A: 0xff}
)

// Renderer draws quote text centered on a fixed 1000x500 gradient canvas.
// Rendering is pure-Go and deterministic: the same text yields the same
// PNG bytes.
type Renderer struct {
	face font.Face
}

// New parses the embedded typeface and returns a ready renderer.
func New() (*Renderer, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{face: face}, nil
}

// Render produces the PNG artwork for the given quote text.
func (r *Renderer) Render(text string) (model.RenderedImage, error) {
	if strings.TrimSpace(text) == "" {
		return model.RenderedImage{}, model.E(model.CodeRenderFailed, "render", "quote text is empty", nil)
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)

	grad := gg.NewLinearGradient(0, 0, canvasWidth, canvasHeight)
	grad.AddColorStop(0, gradientStart)
	grad.AddColorStop(1, gradientEnd)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, canvasWidth, canvasHeight)
	dc.Fill()

	dc.SetFontFace(r.face)
	dc.SetColor(color.White)
	dc.DrawStringWrapped(text, canvasWidth/2, canvasHeight/2, 0.5, 0.5, textWidth, lineSpacing, gg.AlignCenter)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return model.RenderedImage{}, model.E(model.CodeRenderFailed, "render", "PNG encoding failed", err)
	}

	return model.RenderedImage{
		Bytes:    buf.Bytes(),
		Width:    canvasWidth,
		Height:   canvasHeight,
		MIMEType: "image/png",
	}, nil
}
