// Package render draws a whole board to a PNG image.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"boardr/internal/board"
	"boardr/internal/geom"
	"boardr/internal/router"
)

const (
	padding   = 40.0
	arrowSize = 10.0
	// maxSide caps the rendered image so a stray far-away item cannot
	// allocate a huge canvas.
	maxSide = 8192
)

var ErrEmptyBoard = errors.New("nothing to export")

// Image renders every item and connection at one pixel per world unit,
// framed around the board's bounds.
func Image(doc *board.Document) (image.Image, error) {
	dc, err := draw(doc)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// PNG renders the board and writes it to filename.
func PNG(doc *board.Document, filename string) error {
	dc, err := draw(doc)
	if err != nil {
		return err
	}
	return dc.SavePNG(filename)
}

func draw(doc *board.Document) (*gg.Context, error) {
	bounds, ok := doc.Bounds()
	if !ok {
		return nil, ErrEmptyBoard
	}
	frame := bounds.Inset(padding)
	w, h := int(math.Ceil(frame.W)), int(math.Ceil(frame.H))
	if w > maxSide || h > maxSide {
		return nil, fmt.Errorf("board too large to export (%dx%d)", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.Translate(-frame.X, -frame.Y)

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %v", err)
	}
	faces := map[float64]font.Face{}
	setFont := func(size float64) {
		if size <= 0 {
			size = 16
		}
		f, ok := faces[size]
		if !ok {
			f = truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
			faces[size] = f
		}
		dc.SetFontFace(f)
	}

	// Connections first so items paint over their ends.
	for _, p := range router.Route(doc) {
		drawConnector(dc, p)
	}
	for _, it := range doc.PaintOrder() {
		setFont(it.Style.FontSize)
		drawItem(dc, it)
		drawReactions(dc, it)
	}
	return dc, nil
}

func drawConnector(dc *gg.Context, p router.Path) {
	c := p.Curve
	dc.SetColor(parseColor(p.Color, 1, color.Black))
	dc.SetLineWidth(2)
	dc.MoveTo(c.P0.X, c.P0.Y)
	dc.CubicTo(c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.P3.X, c.P3.Y)
	dc.Stroke()

	from := c.C2
	if from == c.P3 {
		from = c.P0
	}
	drawArrow(dc, from, c.P3)
}

func drawArrow(dc *gg.Context, from, to geom.Point) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	const spread = 0.5
	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-arrowSize*dx+arrowSize*dy*spread, to.Y-arrowSize*dy-arrowSize*dx*spread)
	dc.LineTo(to.X-arrowSize*dx-arrowSize*dy*spread, to.Y-arrowSize*dy+arrowSize*dx*spread)
	dc.ClosePath()
	dc.Fill()
}

func drawItem(dc *gg.Context, it *board.Item) {
	r := it.Rect()
	ink := parseColor(it.Style.Color, 1, color.Black)

	switch p := it.Payload.(type) {
	case *board.Shape:
		fill := parseColor(it.Style.Fill, it.Style.Opacity, color.Transparent)
		if p.Shape == board.ShapeCircle {
			dc.DrawEllipse(r.X+r.W/2, r.Y+r.H/2, r.W/2, r.H/2)
		} else {
			dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		}
		dc.SetColor(fill)
		dc.FillPreserve()
		dc.SetColor(ink)
		dc.SetLineWidth(1)
		dc.Stroke()

	case *board.Text:
		frame(dc, r, it.Style.Fill)
		dc.SetColor(ink)
		dc.DrawStringWrapped(p.Content, r.X+8, r.Y+8, 0, 0, r.W-16, 1.3, gg.AlignLeft)

	case *board.Todo:
		frame(dc, r, it.Style.Fill)
		dc.SetColor(ink)
		lineH := dc.FontHeight() * 1.5
		y := r.Y + 8 + dc.FontHeight()
		dc.DrawString(it.Label(), r.X+8, y)
		for _, e := range p.Entries {
			y += lineH
			if y > r.Y+r.H {
				break
			}
			box := "[ ]"
			if e.Done {
				box = "[x]"
			}
			dc.SetColor(urgencyColor(e.Urgency))
			dc.DrawCircle(r.X+12, y-dc.FontHeight()/3, 3)
			dc.Fill()
			dc.SetColor(ink)
			dc.DrawString(box+" "+e.Text, r.X+20, y)
		}

	case *board.Image:
		if img, ok := decodeDataURI(p.Src); ok {
			drawScaled(dc, img, r)
			return
		}
		dc.SetColor(color.Gray{Y: 0xee})
		dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		dc.Fill()
		dc.SetColor(color.Gray{Y: 0x99})
		dc.SetLineWidth(1)
		dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		dc.DrawLine(r.X, r.Y, r.X+r.W, r.Y+r.H)
		dc.DrawLine(r.X+r.W, r.Y, r.X, r.Y+r.H)
		dc.Stroke()

	case *board.Drawing:
		dc.SetColor(ink)
		dc.SetLineWidth(p.StrokeWidth)
		dc.SetLineCapRound()
		dc.SetLineJoinRound()
		for _, path := range p.Paths {
			if len(path) == 1 {
				dc.DrawPoint(r.X+path[0].X, r.Y+path[0].Y, p.StrokeWidth/2)
				dc.Fill()
				continue
			}
			for i, pt := range path {
				if i == 0 {
					dc.MoveTo(r.X+pt.X, r.Y+pt.Y)
				} else {
					dc.LineTo(r.X+pt.X, r.Y+pt.Y)
				}
			}
			dc.Stroke()
		}
	}
}

func frame(dc *gg.Context, r geom.Rect, fill string) {
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 6)
	dc.SetColor(parseColor(fill, 1, color.White))
	dc.FillPreserve()
	dc.SetColor(color.Gray{Y: 0xcc})
	dc.SetLineWidth(1)
	dc.Stroke()
}

func drawReactions(dc *gg.Context, it *board.Item) {
	x := it.X
	y := it.Y + it.Height + 4
	for _, re := range it.Reactions {
		label := re.Emoji + " " + strconv.Itoa(re.Count)
		w, _ := dc.MeasureString(label)
		dc.SetColor(color.Gray{Y: 0xf0})
		dc.DrawRoundedRectangle(x, y, w+12, dc.FontHeight()+8, 8)
		dc.Fill()
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(label, x+6, y+4, 0, 1)
		x += w + 18
	}
}

func drawScaled(dc *gg.Context, img image.Image, r geom.Rect) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	dc.Push()
	dc.Translate(r.X, r.Y)
	dc.Scale(r.W/float64(b.Dx()), r.H/float64(b.Dy()))
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	dc.Pop()
}

func urgencyColor(u board.Urgency) color.Color {
	switch u {
	case board.UrgencyHigh:
		return color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	case board.UrgencyMedium:
		return color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	default:
		return color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	}
}

// decodeDataURI decodes base64 data URIs; external references are not
// fetched.
func decodeDataURI(src string) (image.Image, bool) {
	meta, data, ok := strings.Cut(src, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	return img, true
}

// parseColor reads #rgb or #rrggbb, applying opacity as alpha.
func parseColor(s string, opacity float64, fallback color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: uint8(math.Round(opacity * 255))}
}
