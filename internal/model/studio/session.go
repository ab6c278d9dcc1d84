package studio

import (
	"errors"
	"fmt"
	"time"
)

// Screen is the navigation position of a session.
type Screen string

const (
	ScreenHome      Screen = "home"
	ScreenGenerate  Screen = "generate"
	ScreenUploadHub Screen = "upload_hub"
	ScreenPackshot  Screen = "packshot"
	ScreenLifestyle Screen = "lifestyle"
	ScreenErase     Screen = "erase"
)

// Tool identifies one of the editing tools reachable from the upload hub.
type Tool string

const (
	ToolPackshot  Tool = "packshot"
	ToolLifestyle Tool = "lifestyle"
	ToolErase     Tool = "erase"
)

// Tools lists the editing tools in hub order.
var Tools = []Tool{ToolPackshot, ToolLifestyle, ToolErase}

// ParseTool maps free-form input onto a known tool.
func ParseTool(raw string) (Tool, bool) {
	for _, t := range Tools {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Screen returns the screen that hosts the tool.
func (t Tool) Screen() Screen {
	switch t {
	case ToolPackshot:
		return ScreenPackshot
	case ToolLifestyle:
		return ScreenLifestyle
	case ToolErase:
		return ScreenErase
	default:
		return ScreenUploadHub
	}
}

// Tool reports which editing tool the screen belongs to, if any.
func (s Screen) Tool() (Tool, bool) {
	switch s {
	case ScreenPackshot:
		return ToolPackshot, true
	case ScreenLifestyle:
		return ToolLifestyle, true
	case ScreenErase:
		return ToolErase, true
	default:
		return "", false
	}
}

// Session is the complete mutable state of one user's studio workflow.
// Empty strings and nil buffers mean "absent".
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// APIKey is never serialised; snapshots only expose whether it is set.
	APIKey string `json:"-"`
	Screen Screen `json:"screen"`

	Prompt             string   `json:"prompt"`
	EnhancedPrompt     string   `json:"enhancedPrompt"`
	GeneratedImageURLs []string `json:"generatedImageUrls"`

	UploadedImage []byte `json:"uploadedImage,omitempty"`

	PackshotURL  string `json:"packshotUrl,omitempty"`
	ShadowURL    string `json:"shadowUrl,omitempty"`
	LifestyleURL string `json:"lifestyleUrl,omitempty"`
	EraseURL     string `json:"eraseUrl,omitempty"`

	LifestylePrompt         string `json:"lifestylePrompt"`
	EnhancedLifestylePrompt string `json:"enhancedLifestylePrompt"`
}

// NewSession builds a session on the home screen holding only the credential.
func NewSession(id, apiKey string, now time.Time) Session {
	return Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		APIKey:    apiKey,
		Screen:    ScreenHome,
	}
}

// Reset returns a default session that keeps the credential and the registry
// bookkeeping fields.
func (s Session) Reset() Session {
	fresh := NewSession(s.ID, s.APIKey, s.CreatedAt)
	fresh.UpdatedAt = s.UpdatedAt
	return fresh
}

// ClearTool drops the result and input fields owned by tool and returns to
// the upload hub. Fields owned by other tools are left alone.
func (s *Session) ClearTool(tool Tool) {
	switch tool {
	case ToolPackshot:
		s.PackshotURL = ""
		s.ShadowURL = ""
	case ToolLifestyle:
		s.LifestyleURL = ""
		s.LifestylePrompt = ""
		s.EnhancedLifestylePrompt = ""
	case ToolErase:
		s.EraseURL = ""
	}
	s.Screen = ScreenUploadHub
}

// HasUploadedImage reports whether an edit source is present.
func (s Session) HasUploadedImage() bool {
	return len(s.UploadedImage) > 0
}

// HasAPIKey reports whether a credential is set.
func (s Session) HasAPIKey() bool {
	return s.APIKey != ""
}

// EffectivePrompt resolves the prompt used by the generate flow.
func (s Session) EffectivePrompt() string {
	return EffectivePrompt(s.EnhancedPrompt, s.Prompt)
}

// EffectiveLifestylePrompt resolves the scene description used by the lifestyle tool.
func (s Session) EffectiveLifestylePrompt() string {
	return EffectivePrompt(s.EnhancedLifestylePrompt, s.LifestylePrompt)
}

// EffectivePrompt prefers the enhanced prompt over the raw one.
func EffectivePrompt(enhanced, raw string) string {
	if enhanced != "" {
		return enhanced
	}
	return raw
}

// DisplayedPackshotURL is the packshot tool output currently shown: the
// shadowed image wins over the plain packshot.
func (s Session) DisplayedPackshotURL() string {
	if s.ShadowURL != "" {
		return s.ShadowURL
	}
	return s.PackshotURL
}

// Clone returns a deep copy that shares no buffers with s.
func (s Session) Clone() Session {
	out := s
	if s.GeneratedImageURLs != nil {
		out.GeneratedImageURLs = append([]string(nil), s.GeneratedImageURLs...)
	}
	if s.UploadedImage != nil {
		out.UploadedImage = append([]byte(nil), s.UploadedImage...)
	}
	return out
}

// ErrInconsistentSession marks a session that violates a model invariant.
var ErrInconsistentSession = errors.New("inconsistent session")

// Validate checks the structural invariants of the session.
func (s Session) Validate() error {
	if _, isTool := s.Screen.Tool(); isTool && !s.HasUploadedImage() {
		return fmt.Errorf("%w: screen %s without uploaded image", ErrInconsistentSession, s.Screen)
	}
	if s.ShadowURL != "" && s.PackshotURL == "" {
		return fmt.Errorf("%w: shadow without packshot", ErrInconsistentSession)
	}
	switch s.Screen {
	case ScreenHome, ScreenGenerate, ScreenUploadHub, ScreenPackshot, ScreenLifestyle, ScreenErase:
	default:
		return fmt.Errorf("%w: unknown screen %q", ErrInconsistentSession, s.Screen)
	}
	return nil
}
