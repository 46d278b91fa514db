package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUpstream is the only error surfaced for generation failures. Upstream
// status codes, bodies, and transport errors stay in the logs.
var ErrUpstream = errors.New("description service unavailable")

type DescribeService struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewDescribeService(baseURL, model string, timeout time.Duration) *DescribeService {
	return &DescribeService{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate asks the text-generation service for a product description.
func (s *DescribeService) Generate(ctx context.Context, name, category string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a compelling product description for a %s product named %s. "+
			"The description should be professional, engaging, and highlight key features. "+
			"Keep it concise but informative.",
		category, name)

	body, err := json.Marshal(generateRequest{Model: s.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", ErrUpstream
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", ErrUpstream
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", ErrUpstream
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrUpstream
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", ErrUpstream
	}
	if out.Response == "" {
		return "", ErrUpstream
	}
	return out.Response, nil
}
