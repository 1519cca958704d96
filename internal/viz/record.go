package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
)

const (
	cellW, cellH = 8, 16
	// maxFrames caps a recording at 20 seconds of 60 fps.
	maxFrames = 1200
)

// Recorder rasterizes canvas frames into a GIF animation.
type Recorder struct {
	frames []*image.Paletted
}

// Capture appends the current canvas as a frame. Frames past maxFrames
// are dropped.
func (r *Recorder) Capture(c *Canvas) {
	if len(r.frames) >= maxFrames {
		return
	}
	dotW, dotH := cellW/2, cellH/4
	img := image.NewPaletted(image.Rect(0, 0, c.Width*cellW, c.Height*cellH), color.Palette{color.Black, color.White})

	cw, ch := c.Dots()
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			if !c.On(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Len returns the number of captured frames.
func (r *Recorder) Len() int { return len(r.frames) }

// Encode writes the frames as a looping GIF.
func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	return gif.EncodeAll(w, &anim)
}

// Save encodes the recording to path.
func (r *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
