package studio

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/artifex/backend/internal/model/studio"
	"github.com/zhouzirui/artifex/backend/internal/service/mask"
)

// Intent is one user action forwarded by a presentation layer. Only the
// fields relevant to Type are read.
type Intent struct {
	Type studio.Action `json:"type"`

	APIKey          string      `json:"apiKey,omitempty"`
	Prompt          string      `json:"prompt,omitempty"`
	Count           int         `json:"count,omitempty"`
	AspectRatio     string      `json:"aspectRatio,omitempty"`
	URL             string      `json:"url,omitempty"`
	Index           *int        `json:"index,omitempty"`
	Tool            studio.Tool `json:"tool,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`

	// Image is the file for upload_file.
	Image []byte `json:"image,omitempty"`
	// Canvas is the raw drawing for erase_area; it goes through the mask
	// codec. Mask, when set, is an already encoded mask and wins.
	Canvas []byte `json:"canvas,omitempty"`
	Mask   []byte `json:"mask,omitempty"`
}

// Apply runs the transition named by in.Type.
func (c *Controller) Apply(ctx context.Context, in Intent) error {
	switch in.Type {
	case studio.ActionSetAPIKey:
		return c.SetAPIKey(in.APIKey)
	case studio.ActionChooseGenerate:
		return c.ChooseGenerate()
	case studio.ActionChooseUpload:
		return c.ChooseUpload()
	case studio.ActionSetPrompt:
		return c.SetPrompt(in.Prompt)
	case studio.ActionEnhancePrompt:
		return c.EnhancePrompt(ctx, in.Prompt)
	case studio.ActionGenerateImages:
		return c.GenerateImages(ctx, GenerateOptions{Prompt: in.Prompt, Count: in.Count, AspectRatio: in.AspectRatio})
	case studio.ActionImportGenerated:
		url, err := c.resolveGeneratedURL(in)
		if err != nil {
			return err
		}
		return c.ImportGenerated(ctx, url)
	case studio.ActionUploadFile:
		return c.UploadFile(in.Image)
	case studio.ActionEnterTool:
		return c.EnterTool(in.Tool)
	case studio.ActionGeneratePackshot:
		return c.GeneratePackshot(ctx, in.BackgroundColor)
	case studio.ActionAddShadow:
		return c.AddShadow(ctx)
	case studio.ActionGenerateLifestyle:
		return c.GenerateLifestyle(ctx, in.Prompt)
	case studio.ActionEraseArea:
		maskPNG, err := maskFromIntent(in)
		if err != nil {
			return err
		}
		return c.EraseArea(ctx, maskPNG)
	case studio.ActionBackToHub:
		return c.BackToHub()
	case studio.ActionResetAll:
		return c.ResetAll()
	case "":
		return invalid("intent", "type is required")
	default:
		return invalid("intent", fmt.Sprintf("unknown intent %q", in.Type))
	}
}

// resolveGeneratedURL accepts either the URL itself or its result index.
func (c *Controller) resolveGeneratedURL(in Intent) (string, error) {
	if in.URL != "" || in.Index == nil {
		return in.URL, nil
	}
	urls := c.Session().GeneratedImageURLs
	if *in.Index < 0 || *in.Index >= len(urls) {
		return "", invalid(string(studio.ActionImportGenerated), fmt.Sprintf("no generated image at index %d", *in.Index))
	}
	return urls[*in.Index], nil
}

func maskFromIntent(in Intent) ([]byte, error) {
	const op = string(studio.ActionEraseArea)

	if len(in.Mask) > 0 {
		return in.Mask, nil
	}
	encoded, err := mask.Extract(in.Canvas)
	if err == nil {
		return encoded, nil
	}
	var emptyErr mask.EmptyMaskError
	if errors.As(err, &emptyErr) {
		return nil, &ValidationError{Op: op, Reason: "draw over the area to erase", Err: err}
	}
	return nil, &ValidationError{Op: op, Reason: "canvas could not be read", Err: err}
}
