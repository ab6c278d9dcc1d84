package studio

import (
	"testing"
	"time"
)

func TestRenderHome(t *testing.T) {
	desc := Render(NewSession("id", "", time.Now()))

	if desc.Screen != ScreenHome {
		t.Fatalf("expected home, got %s", desc.Screen)
	}
	if !desc.Allows(ActionChooseGenerate) || !desc.Allows(ActionChooseUpload) {
		t.Fatalf("home actions missing: %v", desc.Actions)
	}
	if !desc.Allows(ActionSetAPIKey) {
		t.Fatalf("api key should be editable everywhere")
	}
	if desc.HasAPIKey {
		t.Fatalf("expected no api key")
	}
}

func TestRenderGenerateListsResultsInOrder(t *testing.T) {
	s := NewSession("id", "k", time.Now())
	s.Screen = ScreenGenerate
	s.GeneratedImageURLs = []string{"https://a", "https://b"}

	desc := Render(s)
	if len(desc.Images) != 2 || desc.Images[0].URL != "https://a" || desc.Images[1].Index != 1 {
		t.Fatalf("unexpected images: %+v", desc.Images)
	}
	if !desc.Allows(ActionImportGenerated) {
		t.Fatalf("import should be offered once results exist")
	}
	if desc.Options == nil || len(desc.Options.AspectRatios) != len(AspectRatios) {
		t.Fatalf("generate options missing")
	}
}

func TestRenderUploadHubWithoutImageOffersUploadOnly(t *testing.T) {
	s := NewSession("id", "k", time.Now())
	s.Screen = ScreenUploadHub

	desc := Render(s)
	if !desc.Allows(ActionUploadFile) || desc.Allows(ActionEnterTool) {
		t.Fatalf("unexpected actions: %v", desc.Actions)
	}
}

func TestRenderPackshotPrefersShadow(t *testing.T) {
	s := NewSession("id", "k", time.Now())
	s.Screen = ScreenPackshot
	s.UploadedImage = []byte{1}

	desc := Render(s)
	if !desc.Allows(ActionGeneratePackshot) || desc.Allows(ActionAddShadow) {
		t.Fatalf("fresh packshot screen actions wrong: %v", desc.Actions)
	}

	s.PackshotURL = "https://p"
	desc = Render(s)
	if desc.Allows(ActionGeneratePackshot) || !desc.Allows(ActionAddShadow) {
		t.Fatalf("packshot result actions wrong: %v", desc.Actions)
	}
	if desc.Images[0].URL != "https://p" {
		t.Fatalf("expected packshot image, got %+v", desc.Images)
	}

	s.ShadowURL = "https://s"
	desc = Render(s)
	if desc.Allows(ActionAddShadow) {
		t.Fatalf("shadow offered twice")
	}
	if len(desc.Images) != 1 || desc.Images[0].URL != "https://s" {
		t.Fatalf("expected shadow image only, got %+v", desc.Images)
	}
}

func TestRenderEraseHidesCanvasAfterResult(t *testing.T) {
	s := NewSession("id", "k", time.Now())
	s.Screen = ScreenErase
	s.UploadedImage = []byte{1}

	if desc := Render(s); !desc.Allows(ActionEraseArea) {
		t.Fatalf("erase should be offered before a result")
	}

	s.EraseURL = "https://e"
	desc := Render(s)
	if desc.Allows(ActionEraseArea) {
		t.Fatalf("erase offered after result")
	}
	if desc.Images[0].URL != "https://e" {
		t.Fatalf("expected erase result, got %+v", desc.Images)
	}
}

func TestRenderDoesNotMutateSession(t *testing.T) {
	s := NewSession("id", "k", time.Now())
	s.Screen = ScreenGenerate
	s.GeneratedImageURLs = []string{"https://a"}
	before := s.Clone()

	_ = Render(s)
	if s.Screen != before.Screen || len(s.GeneratedImageURLs) != 1 || s.GeneratedImageURLs[0] != "https://a" {
		t.Fatalf("render mutated session")
	}
}
