package generation

import (
	"encoding/json"
	"strings"
)

// The service is inconsistent about where result URLs live. Each extractor
// below walks the accepted shapes in a fixed order and returns a
// *ParsingError carrying the raw body when none matches.

// ExtractGeneratedURLs reads {"result":[{"urls":[...]}]} and returns the
// first URL of every item, in response order.
func ExtractGeneratedURLs(raw []byte) ([]string, error) {
	const op = "text_to_image"

	var envelope struct {
		Result []struct {
			URLs []json.RawMessage `json:"urls"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, parsingError(op, "result is not a list of url groups", raw)
	}
	if len(envelope.Result) == 0 {
		return nil, parsingError(op, "result is missing or empty", raw)
	}

	urls := make([]string, 0, len(envelope.Result))
	for _, item := range envelope.Result {
		if len(item.URLs) == 0 {
			continue
		}
		if url, ok := decodeURL(item.URLs[0]); ok {
			urls = append(urls, url)
		}
	}
	if len(urls) == 0 {
		return nil, parsingError(op, "no result item carries a url", raw)
	}
	return urls, nil
}

// ExtractLifestyleURL reads {"result":[[url, ...], ...]}: the first element
// of the first group is the display URL.
func ExtractLifestyleURL(raw []byte) (string, error) {
	const op = "lifestyle"

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", parsingError(op, "response is not a JSON object", raw)
	}

	var groups []json.RawMessage
	if err := json.Unmarshal(envelope.Result, &groups); err != nil || len(groups) == 0 {
		return "", parsingError(op, "result has no groups", raw)
	}

	var first []json.RawMessage
	if err := json.Unmarshal(groups[0], &first); err != nil || len(first) == 0 {
		return "", parsingError(op, "first result group is empty", raw)
	}

	url, ok := decodeURL(first[0])
	if !ok {
		return "", parsingError(op, "first result element is not a url", raw)
	}
	return url, nil
}

// ExtractFillURL accepts {"result_url":...} or {"urls":[...]}; result_url
// wins when both are present.
func ExtractFillURL(raw []byte) (string, error) {
	const op = "generative_fill"

	var envelope struct {
		ResultURL json.RawMessage   `json:"result_url"`
		URLs      []json.RawMessage `json:"urls"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", parsingError(op, "response is not a JSON object", raw)
	}
	if url, ok := decodeURL(envelope.ResultURL); ok {
		return url, nil
	}
	if len(envelope.URLs) > 0 {
		if url, ok := decodeURL(envelope.URLs[0]); ok {
			return url, nil
		}
	}
	return "", parsingError(op, "neither result_url nor urls present", raw)
}

// extractResultURL reads the {"result_url":...} shape shared by packshot and shadow.
func extractResultURL(op string, raw []byte) (string, error) {
	var envelope struct {
		ResultURL json.RawMessage `json:"result_url"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", parsingError(op, "response is not a JSON object", raw)
	}
	url, ok := decodeURL(envelope.ResultURL)
	if !ok {
		return "", parsingError(op, "result_url missing", raw)
	}
	return url, nil
}

// extractEnhancedPrompt reads {"prompt_variations":[...]} or
// {"enhanced_prompt":"..."}.
func extractEnhancedPrompt(raw []byte) (string, error) {
	const op = "enhance"

	var envelope struct {
		Variations     []string `json:"prompt_variations"`
		EnhancedPrompt string   `json:"enhanced_prompt"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", parsingError(op, "response is not a JSON object", raw)
	}
	for _, v := range envelope.Variations {
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	if v := strings.TrimSpace(envelope.EnhancedPrompt); v != "" {
		return v, nil
	}
	return "", parsingError(op, "no enhanced prompt in response", raw)
}

func decodeURL(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return "", false
	}
	url = strings.TrimSpace(url)
	return url, url != ""
}
