package studio_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/zhouzirui/artifex/backend/internal/model/studio"
	"github.com/zhouzirui/artifex/backend/internal/service/generation"
	studiosvc "github.com/zhouzirui/artifex/backend/internal/service/studio"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls map[string]int

	lastPrompt   string
	lastCount    int
	lastRatio    string
	lastColor    string
	lastShadowOf string
	lastFill     generation.FillRequest
	lastScene    generation.LifestyleRequest

	urls         []string
	packshotURL  string
	shadowURL    string
	lifestyleRaw string
	fillRaw      string
	enhanced     string
	err          error

	// block, when set, holds every call until released.
	block chan struct{}
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		calls:        map[string]int{},
		urls:         []string{"https://cdn/1.png", "https://cdn/2.png"},
		packshotURL:  "https://cdn/packshot.png",
		shadowURL:    "https://cdn/shadow.png",
		lifestyleRaw: `{"result":[["https://cdn/scene.png"]]}`,
		fillRaw:      `{"result_url":"https://cdn/erased.png"}`,
		enhanced:     "an enhanced prompt",
	}
}

func (f *fakeGenerator) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (f *fakeGenerator) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGenerator) Enhance(_ context.Context, _ string, prompt string) (string, error) {
	f.record("enhance")
	if f.err != nil {
		return "", f.err
	}
	return f.enhanced, nil
}

func (f *fakeGenerator) TextToImage(_ context.Context, _ string, req generation.TextToImageRequest) ([]string, error) {
	f.record("text_to_image")
	f.lastPrompt, f.lastCount, f.lastRatio = req.Prompt, req.Count, req.AspectRatio
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.urls...), nil
}

func (f *fakeGenerator) Packshot(_ context.Context, _ string, _ []byte, backgroundColor string) (string, error) {
	f.record("packshot")
	f.lastColor = backgroundColor
	if f.err != nil {
		return "", f.err
	}
	return f.packshotURL, nil
}

func (f *fakeGenerator) Shadow(_ context.Context, _ string, imageURL string) (string, error) {
	f.record("shadow")
	f.lastShadowOf = imageURL
	if f.err != nil {
		return "", f.err
	}
	return f.shadowURL, nil
}

func (f *fakeGenerator) Lifestyle(_ context.Context, _ string, req generation.LifestyleRequest) (*generation.LifestyleResult, error) {
	f.record("lifestyle")
	f.lastScene = req
	if f.err != nil {
		return nil, f.err
	}
	return &generation.LifestyleResult{Raw: []byte(f.lifestyleRaw)}, nil
}

func (f *fakeGenerator) GenerativeFill(_ context.Context, _ string, req generation.FillRequest) (*generation.FillResult, error) {
	f.record("fill")
	f.lastFill = req
	if f.err != nil {
		return nil, f.err
	}
	return &generation.FillResult{Raw: []byte(f.fillRaw)}, nil
}

type fakeDownloader struct {
	data []byte
	err  error
	urls []string
}

func (d *fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	return d.data, nil
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return now }
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newController(t *testing.T, gen *fakeGenerator, dl *fakeDownloader, session studio.Session) *studiosvc.Controller {
	t.Helper()
	if dl == nil {
		dl = &fakeDownloader{data: pngBytes(t)}
	}
	return studiosvc.NewController(session, studiosvc.Dependencies{
		Generator:  gen,
		Downloader: dl,
		Clock:      fixedClock(),
	})
}

// sessionOn builds a keyed session already positioned on screen with an
// uploaded image when the screen needs one.
func sessionOn(t *testing.T, screen studio.Screen) studio.Session {
	t.Helper()
	s := studio.NewSession("s-1", "key", fixedClock()())
	s.Screen = screen
	if _, isTool := screen.Tool(); isTool {
		s.UploadedImage = pngBytes(t)
	}
	return s
}
