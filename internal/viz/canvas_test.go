package viz

import (
	"bytes"
	"image/gif"
	"strings"
	"testing"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(0, 0)
	c.Set(3, 7)
	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 8)

	if c.Grid[0][0] != 0x2801 {
		t.Errorf("cell (0,0) = %U, want U+2801", c.Grid[0][0])
	}
	if c.Grid[1][1] != 0x2880 {
		t.Errorf("cell (1,1) = %U, want U+2880", c.Grid[1][1])
	}
	if !c.On(0, 0) || !c.On(3, 7) || c.On(1, 0) {
		t.Error("On disagrees with Set")
	}

	c.Clear()
	if c.On(0, 0) {
		t.Error("Clear left a dot set")
	}
}

func TestCanvasShapes(t *testing.T) {
	c := NewCanvas(10, 6)
	c.DrawCircle(10, 10, 3)
	for _, p := range [][2]int{{13, 10}, {7, 10}, {10, 13}, {10, 7}} {
		if !c.On(p[0], p[1]) {
			t.Errorf("ring missing dot %v", p)
		}
	}
	if c.On(10, 10) {
		t.Error("ring center should be empty")
	}

	c.Clear()
	c.FillDisc(10, 10, 2)
	n := 0
	w, h := c.Dots()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.On(x, y) {
				n++
			}
		}
	}
	if n != 13 {
		t.Errorf("disc of radius 2 has %d dots, want 13", n)
	}

	c.Clear()
	c.DrawLine(0, 0, 5, 0)
	for x := 0; x <= 5; x++ {
		if !c.On(x, 0) {
			t.Errorf("line missing dot at x=%d", x)
		}
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 4)
	lines := strings.Split(c.String(), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if lines[0] != "⠀⠀⠀" {
		t.Errorf("blank row = %q", lines[0])
	}
}

func TestRecorder(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)

	var r Recorder
	if err := r.Encode(&bytes.Buffer{}); err == nil {
		t.Error("empty recording should not encode")
	}
	r.Capture(c)
	r.Capture(c)

	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	anim, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 2 {
		t.Fatalf("got %d frames, want 2", len(anim.Image))
	}
	img := anim.Image[0]
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("frame is %dx%d, want 16x16", b.Dx(), b.Dy())
	}
	if img.ColorIndexAt(1, 1) != 1 {
		t.Error("set dot not drawn")
	}
	if img.ColorIndexAt(5, 1) != 0 {
		t.Error("unset dot drawn")
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.5, "██░░"},
		{2, "████"},
		{-1, "░░░░"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.p, 4); got != tt.want {
			t.Errorf("ProgressBar(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("empty sparkline = %q", got)
	}
	if got := Sparkline([]float64{0, 1}, 5); got != "▁█" {
		t.Errorf("got %q", got)
	}
	if got := Sparkline([]float64{9, 0, 1}, 2); got != "▁█" {
		t.Errorf("window not trimmed: %q", got)
	}
}

func TestNextTheme(t *testing.T) {
	last := Themes[len(Themes)-1]
	if got := NextTheme(last); got.Name != Themes[0].Name {
		t.Errorf("NextTheme(%s) = %s", last.Name, got.Name)
	}
	if got := GetTheme("nope"); got.Name != Themes[0].Name {
		t.Errorf("unknown theme fell back to %s", got.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("ThemeNames length mismatch")
	}
}
