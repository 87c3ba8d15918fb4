package tagging

// Package tagging calls an external model to produce descriptive tags for an
// uploaded file. The collaborator is opaque: any failure (missing key,
// transport error, unparseable output) yields an empty tag list, never an
// error that could disturb the upload pipeline.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"drivebox/internal/config"
)

const maxTags = 8

// Input carries the file metadata handed to the tagging model. PreviewText
// and ImageBase64 are optional hints read from the head of the blob.
type Input struct {
	Name        string
	Type        string
	Extension   string
	ContentType string
	Size        int64
	PreviewText string
	ImageBase64 string
}

// Generator produces tags for a file. Implementations must be safe for
// concurrent use.
type Generator interface {
	GenerateTags(ctx context.Context, in Input) ([]string, error)
}

// GeminiClient implements Generator against the Gemini generateContent REST
// endpoint.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

var _ Generator = (*GeminiClient)(nil)

// NewGemini builds a client from config. The returned client is usable even
// without an API key; it then returns empty tag lists.
func NewGemini(cfg config.TaggingConfig) *GeminiClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func prompt(in Input) string {
	ct := in.ContentType
	if ct == "" {
		ct = "unknown"
	}
	return fmt.Sprintf(`You are a tagging assistant for a cloud drive app.
Given a file's name, extension, type category, and content-type, return up to %d short, relevant tags.
- Output strictly as a JSON array of strings. No commentary.
- Prefer general-purpose, safe tags users would use to search (e.g., "music", "lecture", "invoice", "vacation", "mp4", "spreadsheet").
- Use lowercase, kebab or space separated, max 2 words per tag.
- Avoid duplicates and special characters.

File info:
- name: %s
- extension: %s
- type: %s
- contentType: %s
- sizeBytes: %d
`, maxTags, in.Name, in.Extension, in.Type, ct, in.Size)
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *generateInline `json:"inline_data,omitempty"`
}

type generateInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Role  string         `json:"role"`
		Parts []generatePart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateTags asks the model for tags. It returns (nil, nil) whenever the
// service is unavailable, misconfigured, or returns something unusable.
func (g *GeminiClient) GenerateTags(ctx context.Context, in Input) ([]string, error) {
	if g.apiKey == "" {
		return nil, nil
	}

	parts := []generatePart{{Text: prompt(in)}}
	if in.PreviewText != "" {
		preview := in.PreviewText
		if len(preview) > 5000 {
			preview = preview[:5000]
		}
		parts = append(parts, generatePart{Text: "Preview content (may be truncated):\n" + preview})
	}
	if in.ImageBase64 != "" {
		mime := in.ContentType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, generatePart{InlineData: &generateInline{MimeType: mime, Data: in.ImageBase64}})
	}

	var req generateRequest
	req.Contents = append(req.Contents, struct {
		Role  string         `json:"role"`
		Parts []generatePart `json:"parts"`
	}{Role: "user", Parts: parts})
	req.GenerationConfig.Temperature = 0.2
	req.GenerationConfig.MaxOutputTokens = 256

	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, nil
	}
	return ParseTags(out.Candidates[0].Content.Parts[0].Text), nil
}

// ParseTags extracts a tag list from model output. Strict JSON arrays are
// preferred; otherwise the text is bracket-trimmed and split on commas and
// newlines. The result is normalized and capped at 8 entries.
func ParseTags(text string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(text), &tags); err != nil {
		trimmed := text
		if i := strings.Index(trimmed, "["); i >= 0 {
			trimmed = trimmed[i+1:]
		}
		if i := strings.LastIndex(trimmed, "]"); i >= 0 {
			trimmed = trimmed[:i]
		}
		trimmed = strings.NewReplacer(`"`, "", `'`, "").Replace(trimmed)
		tags = strings.FieldsFunc(trimmed, func(r rune) bool {
			return r == ',' || r == '\n'
		})
	}
	return Normalize(tags)
}

// Normalize lowercases, strips characters outside [a-z0-9 -], trims,
// deduplicates preserving order, and caps the list at 8 tags.
func Normalize(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, maxTags)
	for _, t := range tags {
		t = strings.ToLower(t)
		t = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
				return r
			}
			return -1
		}, t)
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
