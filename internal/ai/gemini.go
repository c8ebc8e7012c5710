package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/papercraft/internal/model"
	"google.golang.org/genai"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiClient drafts questions with the Gemini generateContent API.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiClient creates a client. Empty baseURL and model fall back to the
// public endpoint and DefaultGeminiModel.
func NewGeminiClient(ctx context.Context, baseURL, modelName, apiKey string, timeout time.Duration, log zerolog.Logger) (*GeminiClient, error) {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(baseURL, "/") + "/",
			APIVersion: "v1beta",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  modelName,
		log:    log.With().Str("component", "gemini_client").Logger(),
	}, nil
}

var questionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type":    {Type: genai.TypeString},
			"text":    {Type: genai.TypeString},
			"marks":   {Type: genai.TypeNumber},
			"options": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"passage": {Type: genai.TypeString},
			"pairs": {Type: genai.TypeArray, Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"left":  {Type: genai.TypeString},
					"right": {Type: genai.TypeString},
				},
				Required: []string{"left", "right"},
			}},
		},
		Required: []string{"type", "text", "marks"},
	},
}

// Prompt builds the instruction sent to the model.
func Prompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d professional exam questions for %s %s.\n", req.Count, req.ClassName, req.Subject)
	fmt.Fprintf(&b, "The question type must be exactly %q.\n", string(req.Type))
	b.WriteString("Include marks for each question as a whole number.\n")
	switch {
	case req.Type.HasOptions():
		b.WriteString("Give each question exactly four options.\n")
	case req.Type.HasPairs():
		b.WriteString("Give each question its left and right match pairs.\n")
	case req.Type.HasPassage():
		b.WriteString("Give each question the passage or case it is based on.\n")
	}
	b.WriteString("Return the result as a JSON array of question objects.")
	return b.String()
}

// Generate asks the model for up to req.Count questions of req.Type. An
// empty array from the model is a valid answer and yields no questions.
func (c *GeminiClient) Generate(ctx context.Context, req Request) ([]model.Question, error) {
	if req.Count <= 0 {
		req.Count = DefaultCount
	}
	if !req.Type.Valid() {
		return nil, &CollaboratorError{Op: "generate", Err: fmt.Errorf("unknown question type %q", req.Type)}
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(Prompt(req)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   questionSchema,
	})
	c.log.Debug().
		Err(err).
		Dur("latency", time.Since(start)).
		Str("type", string(req.Type)).
		Int("count", req.Count).
		Msg("generateContent")
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &CollaboratorError{Op: "generate", Err: fmt.Errorf("status %d: %s", apiErr.Code, apiErr.Message)}
		}
		return nil, &CollaboratorError{Op: "request", Err: err}
	}

	text, err := candidateText(resp)
	if err != nil {
		return nil, &CollaboratorError{Op: "decode", Err: err}
	}

	var drafts []Draft
	if err := json.Unmarshal([]byte(text), &drafts); err != nil {
		return nil, &CollaboratorError{Op: "decode", Err: fmt.Errorf("model output is not a question array: %w", err)}
	}
	if len(drafts) > req.Count {
		drafts = drafts[:req.Count]
	}
	questions, err := Normalize(req.Type, drafts)
	if err != nil {
		return nil, &CollaboratorError{Op: "normalize", Err: err}
	}
	return questions, nil
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned")
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty candidate (finish reason %s)", resp.Candidates[0].FinishReason)
	}
	return text, nil
}
