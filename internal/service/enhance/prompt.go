// Package enhance provides LLM-backed prompt enhancers that can stand in for
// the generation service's own enhance endpoint.
package enhance

import (
	"context"
	"errors"
	"strings"

	"github.com/zhouzirui/artifex/backend/internal/service/generation"
)

const opEnhance = "enhance"

// ErrEmptyOutput indicates the model answered with nothing usable.
var ErrEmptyOutput = errors.New("enhance: model returned an empty prompt")

// Enhancer rewrites a short prompt into a richer one. apiKey is the studio
// credential; LLM providers carry their own and ignore it.
type Enhancer interface {
	Enhance(ctx context.Context, apiKey, prompt string) (string, error)
}

const systemPrompt = `You are a prompt writer for a text-to-image model.
Rewrite the user's short prompt into one detailed prompt of at most 80 words.
Keep the subject and intent. Add concrete details about composition, lighting and style.
Answer with the rewritten prompt only, without quotes or any preamble.`

func userMessage(prompt string) string {
	return "Prompt: " + strings.TrimSpace(prompt)
}

// cleanOutput strips code fences, wrapping quotes and a leading label from
// a model answer. An answer with nothing left is a parsing failure carrying
// the raw reply.
func cleanOutput(raw string) (string, error) {
	text := trimCodeFence(raw)
	for _, label := range []string{"Prompt:", "Enhanced prompt:", "prompt:"} {
		if strings.HasPrefix(text, label) {
			text = strings.TrimSpace(strings.TrimPrefix(text, label))
			break
		}
	}
	text = trimQuotes(text)
	if text == "" {
		return "", &generation.ParsingError{
			Op:     opEnhance,
			Reason: "empty model output",
			Raw:    []byte(raw),
			Err:    ErrEmptyOutput,
		}
	}
	return text, nil
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```text")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func trimQuotes(text string) string {
	text = strings.TrimSpace(text)
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}} {
		if len(text) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) {
			return strings.TrimSpace(text[len(pair[0]) : len(text)-len(pair[1])])
		}
	}
	return text
}
