package reporting

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Chart sizes.
const (
	DefaultChartWidth  = 960
	DefaultChartHeight = 540
	MinChartWidth      = 200
	MinChartHeight     = 150

	chartMargin = 60
)

var (
	colorBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorAxis       = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	colorGrid       = color.RGBA{R: 225, G: 225, B: 225, A: 255}
	colorText       = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	colorLine       = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorMuted      = color.RGBA{R: 150, G: 150, B: 150, A: 255}

	barPalette = []color.RGBA{
		{R: 31, G: 119, B: 180, A: 255},
		{R: 255, G: 127, B: 14, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
		{R: 140, G: 86, B: 75, A: 255},
	}
)

// Series is a labeled sequence of non-negative values.
type Series struct {
	Labels []string
	Values []float64
}

// ChartSize clamps width and height to the supported minimums.
func ChartSize(width, height int) (int, int) {
	if width < MinChartWidth {
		width = MinChartWidth
	}
	if height < MinChartHeight {
		height = MinChartHeight
	}
	return width, height
}

// canvas is a chart image with its plot area.
type canvas struct {
	img  *image.RGBA
	plot image.Rectangle
}

func newCanvas(title string, width, height int) *canvas {
	width, height = ChartSize(width, height)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorBackground}, image.Point{}, draw.Src)

	c := &canvas{
		img:  img,
		plot: image.Rect(chartMargin, chartMargin/2+10, width-chartMargin/2, height-chartMargin),
	}
	c.textCentered(title, width/2, 20, colorText)
	return c
}

// RenderLineChart draws values as a connected line over evenly spaced labels.
func RenderLineChart(title string, s Series, width, height int) image.Image {
	c := newCanvas(title, width, height)
	maxV := c.axes(s.Values)

	n := len(s.Values)
	if n == 0 {
		c.textCentered("no data", c.plot.Min.X+c.plot.Dx()/2, c.plot.Min.Y+c.plot.Dy()/2, colorMuted)
		return c.img
	}

	points := make([]image.Point, n)
	for i, v := range s.Values {
		x := c.plot.Min.X + c.plot.Dx()/2
		if n > 1 {
			x = c.plot.Min.X + i*c.plot.Dx()/(n-1)
		}
		points[i] = image.Pt(x, c.yFor(v, maxV))
	}
	for i := 1; i < n; i++ {
		c.line(points[i-1], points[i], colorLine)
	}
	for _, p := range points {
		c.fill(image.Rect(p.X-2, p.Y-2, p.X+3, p.Y+3), colorLine)
	}

	// Label first, middle and last periods to avoid overlap.
	for _, i := range labelIndexes(n) {
		if i < len(s.Labels) {
			c.textCentered(s.Labels[i], points[i].X, c.plot.Max.Y+18, colorText)
		}
	}
	return c.img
}

// RenderBarChart draws one bar per label.
func RenderBarChart(title string, s Series, width, height int) image.Image {
	c := newCanvas(title, width, height)
	maxV := c.axes(s.Values)

	n := len(s.Values)
	if n == 0 {
		c.textCentered("no data", c.plot.Min.X+c.plot.Dx()/2, c.plot.Min.Y+c.plot.Dy()/2, colorMuted)
		return c.img
	}

	slot := c.plot.Dx() / n
	barWidth := slot * 3 / 5
	if barWidth < 1 {
		barWidth = 1
	}
	for i, v := range s.Values {
		center := c.plot.Min.X + i*slot + slot/2
		top := c.yFor(v, maxV)
		c.fill(image.Rect(center-barWidth/2, top, center+barWidth/2+1, c.plot.Max.Y), barPalette[i%len(barPalette)])
		c.textCentered(compactNumber(v), center, top-6, colorText)
		if i < len(s.Labels) {
			c.textCentered(fitLabel(s.Labels[i], slot), center, c.plot.Max.Y+18, colorText)
		}
	}
	return c.img
}

// RenderUnavailable draws a placeholder for a stage without output.
func RenderUnavailable(title, reason string, width, height int) image.Image {
	c := newCanvas(title, width, height)
	b := c.img.Bounds()
	c.strokeRect(c.plot, colorMuted)
	c.textCentered("UNAVAILABLE", b.Dx()/2, b.Dy()/2-8, colorText)
	c.textCentered(fitLabel(reason, c.plot.Dx()), b.Dx()/2, b.Dy()/2+12, colorMuted)
	return c.img
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// axes draws the frame, grid and y labels and returns the scale maximum.
func (c *canvas) axes(values []float64) float64 {
	maxV := 0.0
	for _, v := range values {
		if v > maxV && !math.IsInf(v, 0) {
			maxV = v
		}
	}
	if maxV == 0 {
		maxV = 1
	}

	const gridLines = 4
	for i := 0; i <= gridLines; i++ {
		v := maxV * (float64(i) / gridLines)
		y := c.yFor(v, maxV)
		if i > 0 {
			c.line(image.Pt(c.plot.Min.X, y), image.Pt(c.plot.Max.X, y), colorGrid)
		}
		c.textRight(compactNumber(v), c.plot.Min.X-6, y+4, colorText)
	}
	c.line(image.Pt(c.plot.Min.X, c.plot.Min.Y), image.Pt(c.plot.Min.X, c.plot.Max.Y), colorAxis)
	c.line(image.Pt(c.plot.Min.X, c.plot.Max.Y), image.Pt(c.plot.Max.X, c.plot.Max.Y), colorAxis)
	return maxV
}

func (c *canvas) yFor(v, maxV float64) int {
	switch {
	case math.IsNaN(v) || v < 0:
		v = 0
	case v > maxV:
		v = maxV
	}
	return c.plot.Max.Y - int(math.Round(v/maxV*float64(c.plot.Dy())))
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func (c *canvas) strokeRect(r image.Rectangle, col color.Color) {
	c.line(r.Min, image.Pt(r.Max.X, r.Min.Y), col)
	c.line(image.Pt(r.Max.X, r.Min.Y), r.Max, col)
	c.line(r.Max, image.Pt(r.Min.X, r.Max.Y), col)
	c.line(image.Pt(r.Min.X, r.Max.Y), r.Min, col)
}

// line draws a one-pixel segment (Bresenham).
func (c *canvas) line(a, b image.Point, col color.Color) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		c.img.Set(a.X, a.Y, col)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func (c *canvas) text(s string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (c *canvas) textCentered(s string, x, y int, col color.Color) {
	c.text(s, x-textWidth(s)/2, y, col)
}

func (c *canvas) textRight(s string, x, y int, col color.Color) {
	c.text(s, x-textWidth(s), y, col)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// fitLabel truncates s to fit in width pixels.
func fitLabel(s string, width int) string {
	if textWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 && textWidth(string(runes)+"..") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ".."
}

// compactNumber renders axis and bar values, e.g. 1.2k or 3.4M.
func compactNumber(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e12:
		return fmt.Sprintf("%.1e", v)
	case a >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case a == math.Trunc(a):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func labelIndexes(n int) []int {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []int{0}
	case n == 2:
		return []int{0, 1}
	default:
		return []int{0, (n - 1) / 2, n - 1}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
