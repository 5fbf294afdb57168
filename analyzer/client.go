package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a locally hosted text-generation-inference server exposing
// the Mistral instruct model. The model is consumed as a pure function:
// prompt in, text out.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	DoSample     bool    `json:"do_sample"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Generate sends a prompt wrapped in Mistral's instruction format and
// returns the model's completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Inputs: fmt.Sprintf("<s>[INST] %s [/INST]", prompt),
		Parameters: generateParameters{
			MaxNewTokens: 512,
			Temperature:  0.3, // keep the rating focused
			TopP:         0.9,
			DoSample:     true,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/generate", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send generation request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation request failed with status code %d: %s", resp.StatusCode, string(respBody))
	}

	var gen generateResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	// Some deployments echo the instruction; keep only the completion.
	text := gen.GeneratedText
	if idx := strings.LastIndex(text, "[/INST]"); idx >= 0 {
		text = text[idx+len("[/INST]"):]
	}
	return strings.TrimSpace(text), nil
}
