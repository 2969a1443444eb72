package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"google.golang.org/genai"
)

// GeminiService summarizes chunks with the Gemini API.
type GeminiService struct {
	client *genai.Client
	model  string
	tpl    prompt.ChatTemplate
}

func NewGeminiService(ctx context.Context, apiKey, modelName, baseURL string) (*GeminiService, error) {
	tpl, err := newTemplate()
	if err != nil {
		return nil, err
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiService{client: client, model: modelName, tpl: tpl}, nil
}

func (s *GeminiService) SummarizeChunk(ctx context.Context, text, title, source string) (string, error) {
	system, user, err := renderPrompt(ctx, s.tpl, text, title, source)
	if err != nil {
		return "", err
	}
	log.Debugf("gemini request: model=%s, %d chars", s.model, len(user))
	resp, err := s.client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		})
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if resp != nil {
		for _, c := range resp.Candidates {
			if c.Content == nil {
				continue
			}
			for _, p := range c.Content.Parts {
				out.WriteString(p.Text)
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrEmptyResponse
	}
	return out.String(), nil
}
