package geometry

import "testing"

func TestIntersect(t *testing.T) {
	display := Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}
	tests := []struct {
		name   string
		window Rect
		want   Rect
	}{
		{"inside", Rect{X: 2020, Y: 100, Width: 800, Height: 600}, Rect{X: 2020, Y: 100, Width: 800, Height: 600}},
		{"straddles left edge", Rect{X: 1800, Y: 100, Width: 400, Height: 300}, Rect{X: 1920, Y: 100, Width: 280, Height: 300}},
		{"overflows bottom right", Rect{X: 3500, Y: 900, Width: 800, Height: 600}, Rect{X: 3500, Y: 900, Width: 340, Height: 180}},
		{"disjoint", Rect{X: 0, Y: 0, Width: 100, Height: 100}, Rect{X: 1920, Y: 0, Width: 0, Height: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.window.Intersect(display)
			if got != tt.want {
				t.Fatalf("Intersect = %+v, want %+v", got, tt.want)
			}
			if got.Width < 0 || got.Height < 0 {
				t.Fatalf("negative extent: %+v", got)
			}
		})
	}
}

func TestFromEdgesNeverNegative(t *testing.T) {
	r := FromEdges(100, 100, 50, 20)
	if r.Width != 0 || r.Height != 0 {
		t.Fatalf("expected zero extent, got %+v", r)
	}
	if !r.Empty() {
		t.Fatalf("expected empty rect")
	}
}

func TestContainsPointHalfOpen(t *testing.T) {
	left := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}
	if left.ContainsPoint(1920, 10) {
		t.Fatalf("shared border must belong to the right display only")
	}
	if !right.ContainsPoint(1920, 10) {
		t.Fatalf("right display should contain its left edge")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#000000", Color{}, false},
		{"#ff8000", Color{R: 255, G: 128, B: 0}, false},
		{"1E90FF", Color{R: 0x1e, G: 0x90, B: 0xff}, false},
		{"#fff", Color{R: 255, G: 255, B: 255}, false},
		{"#12345", Color{}, true},
		{"#gg0000", Color{}, true},
		{"", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHex(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHex(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestColorHexAndPixel(t *testing.T) {
	c := Color{R: 0x12, G: 0x34, B: 0x56}
	if c.Hex() != "#123456" {
		t.Fatalf("Hex = %q", c.Hex())
	}
	if c.Pixel() != 0x123456 {
		t.Fatalf("Pixel = %#x", c.Pixel())
	}
}

func TestOpacityByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0.6, 153},
		{0.4, 102},
		{0.5, 127},
		{0, 0},
		{-1, 0},
		{1, 255},
		{3.5, 255},
	}
	for _, tt := range tests {
		if got := OpacityByte(tt.in); got != tt.want {
			t.Errorf("OpacityByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
