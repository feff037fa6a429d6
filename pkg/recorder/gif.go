package recorder

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

// cubePalette is a 6x6x6 color cube, so quantizing a pixel is arithmetic
// rather than a nearest-color search.
var cubePalette = func() color.Palette {
	p := make(color.Palette, 0, 216)
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p = append(p, color.RGBA{R: uint8(r * 51), G: uint8(g * 51), B: uint8(b * 51), A: 255})
			}
		}
	}
	return p
}()

func cubeLevel(v uint32) uint8 {
	return uint8(((v >> 8) + 25) / 51)
}

func quantize(frame image.Image) *image.Paletted {
	b := frame.Bounds()
	paletted := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), cubePalette)
	for y := 0; y < b.Dy(); y++ {
		row := paletted.Pix[y*paletted.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := frame.At(b.Min.X+x, b.Min.Y+y).RGBA()
			row[x] = cubeLevel(r)*36 + cubeLevel(g)*6 + cubeLevel(bl)
		}
	}
	return paletted
}

func NewGIFEncoderFactory() EncoderFactory {
	return func(path string, fps int) (Encoder, error) {
		return &gifEncoder{path: path, fps: fps}, nil
	}
}

// gifEncoder buffers quantized frames and writes the animation on Close.
type gifEncoder struct {
	path string
	fps  int
	anim gif.GIF
}

func (e *gifEncoder) Encode(frame image.Image) error {
	b := frame.Bounds()
	if len(e.anim.Image) > 0 && e.anim.Image[0].Bounds().Size() != b.Size() {
		return fmt.Errorf("frame size %v differs from video size %v", b.Size(), e.anim.Image[0].Bounds().Size())
	}

	e.anim.Image = append(e.anim.Image, quantize(frame))
	e.anim.Delay = append(e.anim.Delay, e.delay())
	return nil
}

// delay is the per-frame delay in hundredths of a second.
func (e *gifEncoder) delay() int {
	if e.fps <= 0 {
		return 10
	}
	d := 100 / e.fps
	if d < 2 {
		d = 2
	}
	return d
}

func (e *gifEncoder) Close() error {
	if len(e.anim.Image) == 0 {
		return nil
	}

	partial := partialPath(e.path)
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create video file '%s': %w", partial, err)
	}
	if err := gif.EncodeAll(f, &e.anim); err != nil {
		f.Close()
		_ = os.Remove(partial)
		return fmt.Errorf("failed to encode gif '%s': %w", e.path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(partial)
		return err
	}

	e.anim = gif.GIF{}
	return os.Rename(partial, e.path)
}
