package recorder

import (
	"fmt"
	"image"
	"strings"
)

type Format string

const (
	FormatMP4 Format = "mp4"
	FormatGIF Format = "gif"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMP4:
		return FormatMP4, nil
	case FormatGIF:
		return FormatGIF, nil
	}
	return "", fmt.Errorf("unsupported video format '%s'", s)
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Encoder receives the frames of one video. The file at the encoder's path is
// complete only once Close returns nil.
type Encoder interface {
	Encode(frame image.Image) error
	Close() error
}

// EncoderFactory creates an Encoder writing to path at fps frames per second.
type EncoderFactory func(path string, fps int) (Encoder, error)

// frameBytes returns frame as tightly packed RGBA rows.
func frameBytes(frame image.Image) []byte {
	b := frame.Bounds()
	if rgba, ok := frame.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() {
		return rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y) : rgba.PixOffset(b.Min.X, b.Max.Y-1)+4*b.Dx()]
	}

	out := make([]byte, 0, 4*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := frame.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
		}
	}
	return out
}

func partialPath(path string) string {
	return path + ".partial"
}
