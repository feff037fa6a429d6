package plasma

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

const (
	frameWidth  = 480
	frameHeight = 320
	statusBar   = 16
	panelMargin = 8
)

var (
	backgroundColor = color.RGBA{R: 18, G: 20, B: 28, A: 255}
	axisColor       = color.RGBA{R: 90, G: 96, B: 110, A: 255}
	limitColor      = color.RGBA{R: 200, G: 70, B: 70, A: 255}
	healthyColor    = color.RGBA{R: 60, G: 170, B: 90, A: 255}
	progressColor   = color.RGBA{R: 200, G: 200, B: 210, A: 255}
)

type trace struct {
	value func(s plasmaState) float64
	max   float64
	limit float64
	color color.RGBA
}

var traces = []trace{
	{value: func(s plasmaState) float64 { return s.Ip }, max: 16, color: color.RGBA{R: 80, G: 160, B: 255, A: 255}},
	{value: func(s plasmaState) float64 { return s.StoredEnergy }, max: 500, color: color.RGBA{R: 255, G: 190, B: 60, A: 255}},
	{value: func(s plasmaState) float64 { return s.FusionPower }, max: 1000, color: color.RGBA{R: 240, G: 90, B: 200, A: 255}},
	{value: func(s plasmaState) float64 { return s.BetaN }, max: 4, limit: betaNLimit, color: color.RGBA{R: 120, G: 230, B: 200, A: 255}},
}

// renderFrame draws Ip, W, P_fus and beta_N time traces in a 2x2 grid above
// a status bar showing scenario progress.
func renderFrame(history []plasmaState, disrupted bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)

	plotHeight := frameHeight - statusBar
	panelW := frameWidth / 2
	panelH := plotHeight / 2
	for i, tr := range traces {
		x0 := (i%2)*panelW + panelMargin
		y0 := (i/2)*panelH + panelMargin
		panel := image.Rect(x0, y0, x0+panelW-2*panelMargin, y0+panelH-2*panelMargin)
		drawPanel(img, panel, history, tr)
	}

	last := history[len(history)-1]
	barColor := healthyColor
	if disrupted {
		barColor = limitColor
	}
	progress := math.Min(last.Time/scenarioDuration, 1)
	bar := image.Rect(0, plotHeight, frameWidth, frameHeight)
	draw.Draw(img, bar, &image.Uniform{C: axisColor}, image.Point{}, draw.Src)
	filled := image.Rect(0, plotHeight, int(progress*float64(frameWidth)), frameHeight)
	draw.Draw(img, filled, &image.Uniform{C: barColor}, image.Point{}, draw.Src)
	drawLine(img, 0, plotHeight, frameWidth-1, plotHeight, progressColor)

	return img
}

func drawPanel(img *image.RGBA, r image.Rectangle, history []plasmaState, tr trace) {
	drawLine(img, r.Min.X, r.Max.Y, r.Max.X, r.Max.Y, axisColor)
	drawLine(img, r.Min.X, r.Min.Y, r.Min.X, r.Max.Y, axisColor)

	toX := func(t float64) int {
		return r.Min.X + int(math.Round(t/scenarioDuration*float64(r.Dx())))
	}
	toY := func(v float64) int {
		v = math.Max(0, math.Min(v, tr.max))
		return r.Max.Y - int(math.Round(v/tr.max*float64(r.Dy())))
	}

	if tr.limit > 0 {
		y := toY(tr.limit)
		for x := r.Min.X; x <= r.Max.X; x += 4 {
			img.SetRGBA(x, y, limitColor)
		}
	}

	for i := 1; i < len(history); i++ {
		a, b := history[i-1], history[i]
		drawLine(img, toX(a.Time), toY(tr.value(a)), toX(b.Time), toY(tr.value(b)), tr.color)
	}
	if len(history) == 1 {
		s := history[0]
		img.SetRGBA(toX(s.Time), toY(tr.value(s)), tr.color)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
