package matrix

import (
	"image/color"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

const (
	PanelSide       = 8
	PixelsPerPanel  = PanelSide * PanelSide
	PanelsPerStrip  = entity.GridSize
	PixelsPerStrip  = PixelsPerPanel * PanelsPerStrip
	bytesPerPixel   = 3
	stripFrameBytes = PixelsPerStrip * bytesPerPixel
)

// Glyph is an 8x8 bitmap, one byte per row with the most significant bit on
// the left.
type Glyph [PanelSide]uint8

// Lit reports whether the pixel at row, col is on.
func (that Glyph) Lit(row, col int) bool {
	return that[row]&(0x80>>uint(col)) != 0
}

// Pixels - lit pixel indices in row-major order.
func (that Glyph) Pixels() []int {
	var pixels []int

	for row := 0; row < PanelSide; row++ {
		for col := 0; col < PanelSide; col++ {
			if that.Lit(row, col) {
				pixels = append(pixels, row*PanelSide+col)
			}
		}
	}

	return pixels
}

var (
	GlyphX = Glyph{0x81, 0x42, 0x24, 0x18, 0x18, 0x24, 0x42, 0x81}
	GlyphO = Glyph{0x3C, 0x42, 0x81, 0x81, 0x81, 0x81, 0x42, 0x3C}
	GlyphT = Glyph{0xFF, 0xFF, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18}
	GlyphI = Glyph{0x7E, 0x7E, 0x18, 0x18, 0x18, 0x18, 0x7E, 0x7E}
	GlyphC = Glyph{0x3E, 0x63, 0xC0, 0xC0, 0xC0, 0xC0, 0x63, 0x3E}
	GlyphA = Glyph{0x18, 0x3C, 0x66, 0xC3, 0xFF, 0xFF, 0xC3, 0xC3}
	GlyphE = Glyph{0xFF, 0xFF, 0xC0, 0xFC, 0xFC, 0xC0, 0xFF, 0xFF}
)

// StartupLetters spell "TIC TAC TOE" one letter per cell.
var StartupLetters = [entity.CellCount]Glyph{
	GlyphT, GlyphI, GlyphC,
	GlyphT, GlyphA, GlyphC,
	GlyphT, GlyphO, GlyphE,
}

var (
	ColorOff     = color.RGBA{}
	ColorX       = color.RGBA{R: 255, A: 255}
	ColorO       = color.RGBA{B: 255, A: 255}
	ColorStartup = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorFlash   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorDraw    = color.RGBA{R: 128, B: 128, A: 255}
)

// WinColors is the rainbow cycled over the winning line.
var WinColors = []color.RGBA{
	{R: 255, A: 255},
	{R: 255, G: 127, A: 255},
	{R: 255, G: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 75, B: 130, A: 255},
	{R: 148, B: 211, A: 255},
}

// GlyphFor - the glyph and colour of a player's mark.
func GlyphFor(mark entity.Mark) (Glyph, color.RGBA, bool) {
	switch mark {
	case entity.PlayerX:
		return GlyphX, ColorX, true
	case entity.PlayerO:
		return GlyphO, ColorO, true
	default:
		return Glyph{}, ColorOff, false
	}
}

// scale multiplies every channel by f, truncating like the fade steps do.
func scale(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}
