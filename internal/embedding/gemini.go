package embedding

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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

type GeminiEncoder struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGemini(apiKey, baseURL, model string) *GeminiEncoder {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiEncoder{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *GeminiEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := geminiEmbedRequest{Content: geminiEmbedContent{Parts: []geminiEmbedPart{{Text: text}}}}
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", e.baseURL, e.model)

	body, err := e.post(ctx, url, reqBody)
	if err != nil {
		return nil, err
	}

	var result geminiEmbedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return result.Embedding.Values, nil
}

func (e *GeminiEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Each batch entry repeats the model with the models/ prefix, as the API requires
	reqBody := geminiBatchEmbedRequest{}
	for _, t := range texts {
		reqBody.Requests = append(reqBody.Requests, geminiEmbedRequest{
			Model:   "models/" + e.model,
			Content: geminiEmbedContent{Parts: []geminiEmbedPart{{Text: t}}},
		})
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:batchEmbedContents", e.baseURL, e.model)

	body, err := e.post(ctx, url, reqBody)
	if err != nil {
		return nil, err
	}

	var result geminiBatchEmbedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse batch embedding response: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *GeminiEncoder) post(ctx context.Context, url string, reqBody any) ([]byte, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Gemini API types
type geminiEmbedRequest struct {
	Model   string             `json:"model,omitempty"`
	Content geminiEmbedContent `json:"content"`
}

type geminiEmbedContent struct {
	Parts []geminiEmbedPart `json:"parts"`
}

type geminiEmbedPart struct {
	Text string `json:"text"`
}

type geminiEmbedResponse struct {
	Embedding geminiEmbedValues `json:"embedding"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []geminiEmbedValues `json:"embeddings"`
}

type geminiEmbedValues struct {
	Values []float32 `json:"values"`
}
