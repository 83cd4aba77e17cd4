/*
Package ai provides functionality to interact with the Gemini AI API and provide
a short digest of the market sensitive announcements in a report.
*/
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/shanehull/asxreport/internal/config"
	"github.com/shanehull/asxreport/internal/logger"
	"github.com/shanehull/asxreport/internal/types"
)

type Highlight struct {
	Symbol string `json:"symbol"`
	Note   string `json:"note"`
}

// Digest is the model's reading of a report's market sensitive rows.
type Digest struct {
	Summary    []string    `json:"summary"`
	Highlights []Highlight `json:"highlights"`
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Summarizer produces digests. A Summarizer without an API key is disabled
// and returns no digest.
type Summarizer struct {
	models generator
	model  string
	logger *zap.Logger
}

// NewSummarizer creates a Gemini backed summarizer.
func NewSummarizer(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*Summarizer, error) {
	s := &Summarizer{model: cfg.Model, logger: logger.OrNop(log)}
	if cfg.GeminiAPIKey == "" {
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	s.models = client.Models
	return s, nil
}

// Enabled reports whether an API key was configured.
func (s *Summarizer) Enabled() bool {
	return s != nil && s.models != nil
}

// Digest summarises the market sensitive rows of table. It returns nil
// without calling the API when disabled or when no row is market sensitive.
func (s *Summarizer) Digest(ctx context.Context, table types.ReportTable) (*Digest, error) {
	if !s.Enabled() {
		return nil, nil
	}
	sensitive := table.MarketSensitive()
	if len(sensitive) == 0 {
		s.logger.Debug("no market sensitive announcements, skipping digest")
		return nil, nil
	}

	systemContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: systemInstruction},
		},
	}

	userContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: buildUserPrompt(sensitive)},
		},
		Role: genai.RoleUser,
	}

	resp, err := s.models.GenerateContent(ctx, s.model, []*genai.Content{userContent}, &genai.GenerateContentConfig{
		SystemInstruction: systemContent,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    getResponseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	respText := resp.Text()

	var digest Digest
	if err := json.Unmarshal([]byte(respText), &digest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini JSON response: %w. Raw text: %s", err, respText)
	}

	s.logger.Info("digest generated",
		zap.Int("announcements", len(sensitive)),
		zap.Int("highlights", len(digest.Highlights)),
	)
	return &digest, nil
}

func getResponseSchema() *genai.Schema {
	highlightSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"symbol": {Type: genai.TypeString, Description: "The ASX code the note refers to."},
			"note":   {Type: genai.TypeString, Description: "One sentence on why the announcement matters."},
		},
		Required: []string{"symbol", "note"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "A list of 3-5 concise bullet points summarizing the announcements.",
			},
			"highlights": {
				Type:        genai.TypeArray,
				Items:       highlightSchema,
				Description: "Announcements worth a closer look, at most one per symbol.",
			},
		},
		Required: []string{"summary", "highlights"},
	}
}
