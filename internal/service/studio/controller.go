package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/artifex/backend/internal/model/studio"
	"github.com/zhouzirui/artifex/backend/internal/service/generation"
	"github.com/zhouzirui/artifex/backend/internal/service/mask"
)

// Generator is the subset of the generation service the workflow needs.
type Generator interface {
	TextToImage(ctx context.Context, apiKey string, req generation.TextToImageRequest) ([]string, error)
	Packshot(ctx context.Context, apiKey string, image []byte, backgroundColor string) (string, error)
	Shadow(ctx context.Context, apiKey, imageURL string) (string, error)
	Lifestyle(ctx context.Context, apiKey string, req generation.LifestyleRequest) (*generation.LifestyleResult, error)
	GenerativeFill(ctx context.Context, apiKey string, req generation.FillRequest) (*generation.FillResult, error)
}

// PromptEnhancer rewrites a raw prompt into a richer one.
type PromptEnhancer interface {
	Enhance(ctx context.Context, apiKey, prompt string) (string, error)
}

// Downloader fetches a generated image so it can be edited.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Dependencies wires a controller to its collaborators.
type Dependencies struct {
	Generator  Generator
	Enhancer   PromptEnhancer
	Downloader Downloader
	Logger     *zerolog.Logger
	Clock      func() time.Time
}

// GenerateOptions carries the inputs of generateImages. Zero values fall
// back to the screen defaults.
type GenerateOptions struct {
	Prompt      string
	Count       int
	AspectRatio string
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Controller owns one session and applies workflow transitions to it. Every
// transition either commits all of its field changes or none of them.
// Callers serialise transitions; reads are safe at any time.
type Controller struct {
	gen        Generator
	enhancer   PromptEnhancer
	downloader Downloader
	logger     zerolog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	session studio.Session
}

// NewController takes ownership of session.
func NewController(session studio.Session, deps Dependencies) *Controller {
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = deps.Logger.With().Str("component", "workflow").Logger()
	}
	now := deps.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	enhancer := deps.Enhancer
	if enhancer == nil {
		if e, ok := deps.Generator.(PromptEnhancer); ok {
			enhancer = e
		}
	}
	return &Controller{
		gen:        deps.Generator,
		enhancer:   enhancer,
		downloader: deps.Downloader,
		logger:     logger,
		now:        now,
		session:    session.Clone(),
	}
}

// Session returns a copy of the current session.
func (c *Controller) Session() studio.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Clone()
}

// Render describes the current screen.
func (c *Controller) Render() studio.ScreenDescription {
	return studio.Render(c.Session())
}

func (c *Controller) commit(s studio.Session) {
	s.UpdatedAt = c.now()
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Controller) fail(s studio.Session, op string, err error) error {
	c.logger.Warn().
		Err(err).
		Str("session", s.ID).
		Str("op", op).
		Str("screen", string(s.Screen)).
		Msg("transition failed")
	return err
}

// require checks that the current screen offers action.
func require(s studio.Session, action studio.Action) error {
	if studio.Render(s).Allows(action) {
		return nil
	}
	return invalid(string(action), fmt.Sprintf("not available on the %s screen", s.Screen))
}

// serviceFailure keeps classified failures as they are and reports anything
// else from a collaborator as a failed service call.
func serviceFailure(op string, err error) error {
	var (
		serviceErr *generation.ServiceError
		parseErr   *generation.ParsingError
	)
	if errors.As(err, &serviceErr) || errors.As(err, &parseErr) {
		return err
	}
	return &generation.ServiceError{Op: op, Err: err}
}

func requireAPIKey(s studio.Session, op string) error {
	if !s.HasAPIKey() {
		return &ValidationError{Op: op, Reason: "an API key is required", Err: generation.ErrMissingAPIKey}
	}
	return nil
}

// SetAPIKey replaces the credential. It is accepted on every screen.
func (c *Controller) SetAPIKey(key string) error {
	s := c.Session()
	s.APIKey = strings.TrimSpace(key)
	c.commit(s)
	return nil
}

// ChooseGenerate leaves the home screen for the generate flow.
func (c *Controller) ChooseGenerate() error {
	s := c.Session()
	if err := require(s, studio.ActionChooseGenerate); err != nil {
		return err
	}
	s.Screen = studio.ScreenGenerate
	c.commit(s)
	return nil
}

// ChooseUpload leaves the home screen for the editing hub.
func (c *Controller) ChooseUpload() error {
	s := c.Session()
	if err := require(s, studio.ActionChooseUpload); err != nil {
		return err
	}
	s.Screen = studio.ScreenUploadHub
	c.commit(s)
	return nil
}

// SetPrompt updates the raw prompt of the active context: the generate
// prompt or the lifestyle scene description. The enhanced prompt is kept.
func (c *Controller) SetPrompt(text string) error {
	s := c.Session()
	if err := require(s, studio.ActionSetPrompt); err != nil {
		return err
	}
	if s.Screen == studio.ScreenLifestyle {
		s.LifestylePrompt = text
	} else {
		s.Prompt = text
	}
	c.commit(s)
	return nil
}

// EnhancePrompt asks the enhancer for a richer version of raw, or of the
// stored raw prompt when raw is blank, and stores both in the active context.
func (c *Controller) EnhancePrompt(ctx context.Context, raw string) error {
	const op = string(studio.ActionEnhancePrompt)

	s := c.Session()
	if err := require(s, studio.ActionEnhancePrompt); err != nil {
		return err
	}
	lifestyle := s.Screen == studio.ScreenLifestyle

	text := strings.TrimSpace(raw)
	if text == "" {
		if lifestyle {
			text = strings.TrimSpace(s.LifestylePrompt)
		} else {
			text = strings.TrimSpace(s.Prompt)
		}
	}
	if text == "" {
		return invalid(op, "enter a prompt to enhance")
	}
	if err := requireAPIKey(s, op); err != nil {
		return err
	}
	if c.enhancer == nil {
		return c.fail(s, op, &generation.ServiceError{Op: op, Message: "no prompt enhancer configured"})
	}

	enhanced, err := c.enhancer.Enhance(ctx, s.APIKey, text)
	if err != nil {
		return c.fail(s, op, serviceFailure(op, err))
	}

	if lifestyle {
		s.LifestylePrompt = text
		s.EnhancedLifestylePrompt = enhanced
	} else {
		s.Prompt = text
		s.EnhancedPrompt = enhanced
	}
	c.commit(s)
	return nil
}

// GenerateImages runs text-to-image with the effective prompt and replaces
// the generated results. A prompt override is stored only when it was the
// prompt sent.
func (c *Controller) GenerateImages(ctx context.Context, opts GenerateOptions) error {
	const op = string(studio.ActionGenerateImages)

	s := c.Session()
	if err := require(s, studio.ActionGenerateImages); err != nil {
		return err
	}

	raw := s.Prompt
	if override := strings.TrimSpace(opts.Prompt); override != "" {
		raw = override
	}
	prompt := strings.TrimSpace(studio.EffectivePrompt(s.EnhancedPrompt, raw))
	if prompt == "" {
		return invalid(op, "prompt is empty")
	}

	count := opts.Count
	if count == 0 {
		count = studio.MinImages
	}
	if count < studio.MinImages || count > studio.MaxImages {
		return invalid(op, fmt.Sprintf("count must be between %d and %d", studio.MinImages, studio.MaxImages))
	}
	ratio := strings.TrimSpace(opts.AspectRatio)
	if ratio == "" {
		ratio = studio.DefaultAspectRatio
	}
	if !slices.Contains(studio.AspectRatios, ratio) {
		return invalid(op, fmt.Sprintf("unsupported aspect ratio %q", ratio))
	}
	if err := requireAPIKey(s, op); err != nil {
		return err
	}

	urls, err := c.gen.TextToImage(ctx, s.APIKey, generation.TextToImageRequest{
		Prompt:      prompt,
		Count:       count,
		AspectRatio: ratio,
	})
	if err != nil {
		return c.fail(s, op, err)
	}

	if s.EnhancedPrompt == "" {
		s.Prompt = raw
	}
	s.GeneratedImageURLs = urls
	c.commit(s)
	return nil
}

// ImportGenerated downloads one of the generated results and makes it the
// image being edited.
func (c *Controller) ImportGenerated(ctx context.Context, url string) error {
	const op = string(studio.ActionImportGenerated)

	s := c.Session()
	if err := require(s, studio.ActionImportGenerated); err != nil {
		return err
	}
	if !slices.Contains(s.GeneratedImageURLs, url) {
		return invalid(op, "url is not one of the generated images")
	}
	if c.downloader == nil {
		return c.fail(s, op, &generation.ServiceError{Op: op, Message: "no downloader configured"})
	}

	data, err := c.downloader.Download(ctx, url)
	if err != nil {
		return c.fail(s, op, serviceFailure(op, err))
	}

	s.UploadedImage = data
	s.Screen = studio.ScreenUploadHub
	c.commit(s)
	return nil
}

// UploadFile stores a PNG or JPEG as the image being edited.
func (c *Controller) UploadFile(data []byte) error {
	const op = string(studio.ActionUploadFile)

	s := c.Session()
	if err := require(s, studio.ActionUploadFile); err != nil {
		return err
	}
	if len(data) == 0 {
		return invalid(op, "file is empty")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (format != "png" && format != "jpeg") {
		return invalid(op, "file must be a PNG or JPEG image")
	}

	s.UploadedImage = append([]byte(nil), data...)
	c.commit(s)
	return nil
}

// EnterTool opens an editing tool. Entering the tool already shown is a no-op.
func (c *Controller) EnterTool(tool studio.Tool) error {
	const op = string(studio.ActionEnterTool)

	s := c.Session()
	if _, ok := studio.ParseTool(string(tool)); !ok {
		return invalid(op, fmt.Sprintf("unknown tool %q", tool))
	}
	if !s.HasUploadedImage() {
		return invalid(op, "upload an image first")
	}
	if s.Screen == tool.Screen() {
		return nil
	}
	if err := require(s, studio.ActionEnterTool); err != nil {
		return err
	}

	s.Screen = tool.Screen()
	c.commit(s)
	return nil
}

// GeneratePackshot composites the uploaded image onto backgroundColor. It is
// rejected while a packshot exists.
func (c *Controller) GeneratePackshot(ctx context.Context, backgroundColor string) error {
	const op = string(studio.ActionGeneratePackshot)

	s := c.Session()
	if s.PackshotURL != "" {
		return invalid(op, "a packshot already exists; go back to the hub to start over")
	}
	if err := require(s, studio.ActionGeneratePackshot); err != nil {
		return err
	}
	color := strings.TrimSpace(backgroundColor)
	if color == "" {
		color = studio.DefaultBackgroundColor
	}
	if !hexColor.MatchString(color) {
		return invalid(op, fmt.Sprintf("background color %q is not #RRGGBB", color))
	}
	if err := requireAPIKey(s, op); err != nil {
		return err
	}

	url, err := c.gen.Packshot(ctx, s.APIKey, s.UploadedImage, strings.ToUpper(color))
	if err != nil {
		return c.fail(s, op, err)
	}

	s.PackshotURL = url
	c.commit(s)
	return nil
}

// AddShadow adds a shadow to the existing packshot, once.
func (c *Controller) AddShadow(ctx context.Context) error {
	const op = string(studio.ActionAddShadow)

	s := c.Session()
	if s.PackshotURL == "" {
		return invalid(op, "create a packshot first")
	}
	if s.ShadowURL != "" {
		return invalid(op, "the packshot already has a shadow")
	}
	if err := require(s, studio.ActionAddShadow); err != nil {
		return err
	}
	if err := requireAPIKey(s, op); err != nil {
		return err
	}

	url, err := c.gen.Shadow(ctx, s.APIKey, s.PackshotURL)
	if err != nil {
		return c.fail(s, op, err)
	}

	s.ShadowURL = url
	c.commit(s)
	return nil
}

// GenerateLifestyle places the uploaded product into the described scene.
func (c *Controller) GenerateLifestyle(ctx context.Context, prompt string) error {
	const op = string(studio.ActionGenerateLifestyle)

	s := c.Session()
	if err := require(s, studio.ActionGenerateLifestyle); err != nil {
		return err
	}

	raw := s.LifestylePrompt
	if override := strings.TrimSpace(prompt); override != "" {
		raw = override
	}
	description := strings.TrimSpace(studio.EffectivePrompt(s.EnhancedLifestylePrompt, raw))
	if description == "" {
		return invalid(op, "describe the scene first")
	}
	if err := requireAPIKey(s, op); err != nil {
		return err
	}

	result, err := c.gen.Lifestyle(ctx, s.APIKey, generation.LifestyleRequest{
		Image:       s.UploadedImage,
		Description: description,
		Sync:        true,
		Count:       1,
	})
	if err != nil {
		return c.fail(s, op, err)
	}
	url, err := result.URL()
	if err != nil {
		return c.fail(s, op, err)
	}

	if s.EnhancedLifestylePrompt == "" {
		s.LifestylePrompt = raw
	}
	s.LifestyleURL = url
	c.commit(s)
	return nil
}

// EraseArea removes the masked region from the uploaded image. maskPNG is a
// single-channel mask as produced by the mask package.
func (c *Controller) EraseArea(ctx context.Context, maskPNG []byte) error {
	const op = string(studio.ActionEraseArea)

	s := c.Session()
	if err := require(s, studio.ActionEraseArea); err != nil {
		return err
	}
	if len(maskPNG) == 0 {
		return &ValidationError{Op: op, Reason: "draw over the area to erase", Err: mask.EmptyMaskError{}}
	}
	if err := requireAPIKey(s, op); err != nil {
		return err
	}

	result, err := c.gen.GenerativeFill(ctx, s.APIKey, generation.FillRequest{
		Image:  s.UploadedImage,
		Mask:   maskPNG,
		Prompt: "",
		Sync:   true,
	})
	if err != nil {
		return c.fail(s, op, err)
	}
	url, err := result.URL()
	if err != nil {
		return c.fail(s, op, err)
	}

	s.EraseURL = url
	c.commit(s)
	return nil
}

// BackToHub clears the current tool's own fields and returns to the hub.
func (c *Controller) BackToHub() error {
	s := c.Session()
	if err := require(s, studio.ActionBackToHub); err != nil {
		return err
	}
	tool, _ := s.Screen.Tool()
	s.ClearTool(tool)
	c.commit(s)
	return nil
}

// ResetAll returns to a default session that keeps only the credential. It
// is accepted on every screen.
func (c *Controller) ResetAll() error {
	s := c.Session()
	c.commit(s.Reset())
	return nil
}
