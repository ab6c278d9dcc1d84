package studio

import (
	"errors"
	"testing"
	"time"
)

func populatedSession() Session {
	s := NewSession("s-1", "secret", time.Unix(100, 0))
	s.Screen = ScreenErase
	s.Prompt = "P"
	s.EnhancedPrompt = "E"
	s.GeneratedImageURLs = []string{"https://g/1"}
	s.UploadedImage = []byte{1, 2, 3}
	s.PackshotURL = "https://p"
	s.ShadowURL = "https://s"
	s.LifestyleURL = "https://l"
	s.EraseURL = "https://e"
	s.LifestylePrompt = "beach"
	s.EnhancedLifestylePrompt = "sunny beach"
	return s
}

func TestResetKeepsOnlyCredential(t *testing.T) {
	s := populatedSession()
	got := s.Reset()

	want := NewSession("s-1", "secret", time.Unix(100, 0))
	if got.APIKey != "secret" {
		t.Fatalf("api key lost: %q", got.APIKey)
	}
	if got.Screen != ScreenHome {
		t.Fatalf("expected home screen, got %s", got.Screen)
	}
	if got.Prompt != "" || got.EnhancedPrompt != "" || got.LifestylePrompt != "" || got.EnhancedLifestylePrompt != "" {
		t.Fatalf("prompts not cleared: %+v", got)
	}
	if got.GeneratedImageURLs != nil || got.UploadedImage != nil {
		t.Fatalf("buffers not cleared: %+v", got)
	}
	if got.PackshotURL != want.PackshotURL || got.ShadowURL != "" || got.LifestyleURL != "" || got.EraseURL != "" {
		t.Fatalf("tool results not cleared: %+v", got)
	}
}

func TestClearToolOnlyTouchesOwnFields(t *testing.T) {
	tests := []struct {
		tool  Tool
		check func(t *testing.T, s Session)
	}{
		{
			tool: ToolErase,
			check: func(t *testing.T, s Session) {
				if s.EraseURL != "" {
					t.Fatalf("erase url kept")
				}
				if s.PackshotURL == "" || s.ShadowURL == "" || s.LifestyleURL == "" || s.LifestylePrompt == "" {
					t.Fatalf("other tools touched: %+v", s)
				}
			},
		},
		{
			tool: ToolPackshot,
			check: func(t *testing.T, s Session) {
				if s.PackshotURL != "" || s.ShadowURL != "" {
					t.Fatalf("packshot fields kept: %+v", s)
				}
				if s.EraseURL == "" || s.LifestyleURL == "" {
					t.Fatalf("other tools touched: %+v", s)
				}
			},
		},
		{
			tool: ToolLifestyle,
			check: func(t *testing.T, s Session) {
				if s.LifestyleURL != "" || s.LifestylePrompt != "" || s.EnhancedLifestylePrompt != "" {
					t.Fatalf("lifestyle fields kept: %+v", s)
				}
				if s.EraseURL == "" || s.PackshotURL == "" {
					t.Fatalf("other tools touched: %+v", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			s := populatedSession()
			s.ClearTool(tt.tool)
			if s.Screen != ScreenUploadHub {
				t.Fatalf("expected upload hub, got %s", s.Screen)
			}
			if !s.HasUploadedImage() {
				t.Fatalf("uploaded image dropped")
			}
			tt.check(t, s)
		})
	}
}

func TestEffectivePrompt(t *testing.T) {
	if got := EffectivePrompt("E", "P"); got != "E" {
		t.Fatalf("got %q want E", got)
	}
	if got := EffectivePrompt("", "P"); got != "P" {
		t.Fatalf("got %q want P", got)
	}
	if got := EffectivePrompt("", ""); got != "" {
		t.Fatalf("got %q want empty", got)
	}
}

func TestCloneDoesNotShareBuffers(t *testing.T) {
	s := populatedSession()
	c := s.Clone()
	c.UploadedImage[0] = 9
	c.GeneratedImageURLs[0] = "changed"
	if s.UploadedImage[0] != 1 || s.GeneratedImageURLs[0] != "https://g/1" {
		t.Fatalf("clone shares memory with original")
	}
}

func TestValidate(t *testing.T) {
	s := NewSession("id", "", time.Now())
	if err := s.Validate(); err != nil {
		t.Fatalf("fresh session invalid: %v", err)
	}

	s.Screen = ScreenPackshot
	if err := s.Validate(); !errors.Is(err, ErrInconsistentSession) {
		t.Fatalf("expected inconsistent session for tool without image, got %v", err)
	}

	s.UploadedImage = []byte{1}
	s.ShadowURL = "https://s"
	if err := s.Validate(); !errors.Is(err, ErrInconsistentSession) {
		t.Fatalf("expected inconsistent session for shadow without packshot, got %v", err)
	}
}

func TestParseTool(t *testing.T) {
	for _, tool := range Tools {
		got, ok := ParseTool(string(tool))
		if !ok || got != tool {
			t.Fatalf("ParseTool(%q) = %q, %v", tool, got, ok)
		}
		if screenTool, ok := tool.Screen().Tool(); !ok || screenTool != tool {
			t.Fatalf("screen round trip failed for %s", tool)
		}
	}
	if _, ok := ParseTool("upscale"); ok {
		t.Fatal("unknown tool accepted")
	}
}
