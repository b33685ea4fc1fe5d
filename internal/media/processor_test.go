package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcessKeepsSmallPNG(t *testing.T) {
	data := encodePNG(t, solidImage(64, 32))
	p := NewImageProcessor(128)

	res, err := p.Process(context.Background(), Upload{Reader: bytes.NewReader(data), ContentType: "image/png"}, 0)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Resized {
		t.Fatalf("small image should not be resized")
	}
	if !bytes.Equal(res.Bytes, data) {
		t.Fatalf("expected original bytes back")
	}
	if res.ContentType != "image/png" {
		t.Fatalf("unexpected content type %s", res.ContentType)
	}
}

func TestProcessScalesLargeJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(400, 200), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	p := NewImageProcessor(0)

	res, err := p.Process(context.Background(), Upload{Reader: &buf, FileName: "me.jpg"}, 100)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Resized || res.ContentType != "image/jpeg" {
		t.Fatalf("unexpected result: resized=%v type=%s", res.Resized, res.ContentType)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Bytes))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" || cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("unexpected output %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestProcessConvertsGIFToPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, solidImage(20, 40), nil); err != nil {
		t.Fatalf("gif encode: %v", err)
	}
	p := NewImageProcessor(64)

	res, err := p.Process(context.Background(), Upload{Reader: &buf, ContentType: "image/gif"}, 0)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.ContentType != "image/png" || res.Resized {
		t.Fatalf("unexpected result: resized=%v type=%s", res.Resized, res.ContentType)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	p := NewImageProcessor(64)
	_, err := p.Process(context.Background(), Upload{Reader: bytes.NewReader([]byte("not an image"))}, 0)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestScaleToFit(t *testing.T) {
	cases := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{1000, 500, 100, 100, 50},
		{500, 1000, 100, 50, 100},
		{1000, 1, 100, 100, 1},
	}
	for _, tc := range cases {
		w, h := scaleToFit(tc.w, tc.h, tc.max)
		if w != tc.wantW || h != tc.wantH {
			t.Fatalf("scaleToFit(%d,%d,%d) = %dx%d, want %dx%d", tc.w, tc.h, tc.max, w, h, tc.wantW, tc.wantH)
		}
	}
}
