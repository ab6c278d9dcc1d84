package studio

// Action names a user intent a screen offers. The same names form the intent
// vocabulary accepted by the workflow controller.
type Action string

const (
	ActionChooseGenerate    Action = "choose_generate"
	ActionChooseUpload      Action = "choose_upload"
	ActionSetAPIKey         Action = "set_api_key"
	ActionSetPrompt         Action = "set_prompt"
	ActionEnhancePrompt     Action = "enhance_prompt"
	ActionGenerateImages    Action = "generate_images"
	ActionImportGenerated   Action = "import_generated"
	ActionUploadFile        Action = "upload_file"
	ActionEnterTool         Action = "enter_tool"
	ActionGeneratePackshot  Action = "generate_packshot"
	ActionAddShadow         Action = "add_shadow"
	ActionGenerateLifestyle Action = "generate_lifestyle"
	ActionEraseArea         Action = "erase_area"
	ActionBackToHub         Action = "back_to_hub"
	ActionResetAll          Action = "reset_all"
)

// Generation options offered by the generate screen.
var AspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

const (
	MinImages              = 1
	MaxImages              = 4
	DefaultAspectRatio     = "1:1"
	DefaultBackgroundColor = "#FFFFFF"
)

// ImageKind tells the presentation layer where an image comes from.
type ImageKind string

const (
	ImageGenerated ImageKind = "generated"
	ImageUploaded  ImageKind = "uploaded"
	ImageResult    ImageKind = "result"
)

// Image is one picture to display. Uploaded images carry no URL; clients
// already hold the bytes they sent.
type Image struct {
	Kind    ImageKind `json:"kind"`
	URL     string    `json:"url,omitempty"`
	Caption string    `json:"caption,omitempty"`
	Index   int       `json:"index"`
}

// Field is a text value shown on the screen.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options carries the choices a screen offers for its inputs.
type Options struct {
	AspectRatios           []string `json:"aspectRatios,omitempty"`
	MinImages              int      `json:"minImages,omitempty"`
	MaxImages              int      `json:"maxImages,omitempty"`
	DefaultBackgroundColor string   `json:"defaultBackgroundColor,omitempty"`
	Tools                  []Tool   `json:"tools,omitempty"`
}

// ScreenDescription is everything a presentation layer needs to draw the
// current screen.
type ScreenDescription struct {
	SessionID        string   `json:"sessionId"`
	Screen           Screen   `json:"screen"`
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle,omitempty"`
	HasAPIKey        bool     `json:"hasApiKey"`
	HasUploadedImage bool     `json:"hasUploadedImage"`
	Images           []Image  `json:"images"`
	Fields           []Field  `json:"fields"`
	Actions          []Action `json:"actions"`
	Options          *Options `json:"options,omitempty"`
}

// Allows reports whether the screen offers action.
func (d ScreenDescription) Allows(action Action) bool {
	for _, a := range d.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Render projects a session onto the description of its current screen.
// It has no side effects.
func Render(s Session) ScreenDescription {
	desc := ScreenDescription{
		SessionID:        s.ID,
		Screen:           s.Screen,
		HasAPIKey:        s.HasAPIKey(),
		HasUploadedImage: s.HasUploadedImage(),
		Images:           []Image{},
		Fields:           []Field{},
	}

	switch s.Screen {
	case ScreenGenerate:
		renderGenerate(&desc, s)
	case ScreenUploadHub:
		renderUploadHub(&desc, s)
	case ScreenPackshot:
		renderPackshot(&desc, s)
	case ScreenLifestyle:
		renderLifestyle(&desc, s)
	case ScreenErase:
		renderErase(&desc, s)
	default:
		desc.Title = "Artifex Studio"
		desc.Subtitle = "How would you like to start?"
		desc.Actions = []Action{ActionChooseGenerate, ActionChooseUpload}
	}

	desc.Actions = append(desc.Actions, ActionSetAPIKey)
	return desc
}

func renderGenerate(desc *ScreenDescription, s Session) {
	desc.Title = "Generate a New Image"
	desc.Fields = append(desc.Fields,
		Field{Name: "prompt", Label: "Prompt", Value: s.Prompt},
		Field{Name: "enhancedPrompt", Label: "Enhanced Prompt", Value: s.EnhancedPrompt},
	)
	for i, url := range s.GeneratedImageURLs {
		desc.Images = append(desc.Images, Image{Kind: ImageGenerated, URL: url, Index: i})
	}
	desc.Options = &Options{
		AspectRatios: append([]string(nil), AspectRatios...),
		MinImages:    MinImages,
		MaxImages:    MaxImages,
	}
	desc.Actions = []Action{ActionSetPrompt, ActionEnhancePrompt, ActionGenerateImages}
	if len(s.GeneratedImageURLs) > 0 {
		desc.Actions = append(desc.Actions, ActionImportGenerated)
	}
	desc.Actions = append(desc.Actions, ActionResetAll)
}

func renderUploadHub(desc *ScreenDescription, s Session) {
	desc.Title = "Edit an Existing Image"
	if !s.HasUploadedImage() {
		desc.Actions = []Action{ActionUploadFile, ActionResetAll}
		return
	}
	desc.Subtitle = "What would you like to do?"
	desc.Images = append(desc.Images, Image{Kind: ImageUploaded, Caption: "Your Image"})
	desc.Options = &Options{Tools: append([]Tool(nil), Tools...)}
	desc.Actions = []Action{ActionEnterTool, ActionResetAll}
}

func renderPackshot(desc *ScreenDescription, s Session) {
	desc.Title = "Tool: Create Professional Packshot"
	switch {
	case s.ShadowURL != "":
		desc.Images = append(desc.Images, Image{Kind: ImageResult, URL: s.ShadowURL, Caption: "Final Result with Shadow"})
	case s.PackshotURL != "":
		desc.Images = append(desc.Images, Image{Kind: ImageResult, URL: s.PackshotURL, Caption: "Packshot Result"})
	}
	switch {
	case s.PackshotURL == "":
		desc.Options = &Options{DefaultBackgroundColor: DefaultBackgroundColor}
		desc.Actions = []Action{ActionGeneratePackshot}
	case s.ShadowURL == "":
		desc.Actions = []Action{ActionAddShadow}
	}
	desc.Actions = append(desc.Actions, ActionBackToHub, ActionResetAll)
}

func renderLifestyle(desc *ScreenDescription, s Session) {
	desc.Title = "Tool: Place in a Lifestyle Scene"
	desc.Fields = append(desc.Fields,
		Field{Name: "lifestylePrompt", Label: "Scene Description", Value: s.LifestylePrompt},
		Field{Name: "enhancedLifestylePrompt", Label: "Enhanced Prompt", Value: s.EnhancedLifestylePrompt},
	)
	if s.LifestyleURL != "" {
		desc.Images = append(desc.Images, Image{Kind: ImageResult, URL: s.LifestyleURL, Caption: "Lifestyle Scene Result"})
	}
	desc.Actions = []Action{ActionSetPrompt, ActionEnhancePrompt, ActionGenerateLifestyle, ActionBackToHub, ActionResetAll}
}

func renderErase(desc *ScreenDescription, s Session) {
	desc.Title = "Tool: Erase an Element"
	if s.EraseURL != "" {
		desc.Images = append(desc.Images, Image{Kind: ImageResult, URL: s.EraseURL, Caption: "Erased Result"})
		desc.Actions = []Action{ActionBackToHub, ActionResetAll}
		return
	}
	desc.Subtitle = "Draw a mask over the object you want to remove."
	desc.Images = append(desc.Images, Image{Kind: ImageUploaded, Caption: "Canvas background"})
	desc.Actions = []Action{ActionEraseArea, ActionBackToHub, ActionResetAll}
}
