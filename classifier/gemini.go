package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"govconnect-be/models"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash"

	// maxFieldRunes bounds each prompt field so arbitrarily long reports
	// cannot blow up the request.
	maxFieldRunes = 500
)

const classifyPrompt = `You are triaging citizen reports for a municipal works department.
Given the report below, answer with exactly one word naming its urgency: low, medium or high.
Safety hazards, outages and anything that risks injury are high. Routine damage and
service degradation are medium. Cosmetic problems are low. If the report text is empty,
gibberish or unrelated to a civic problem, answer low. Do not explain.

Category: %s
State: %s
Locality: %s
Title: %s
Description: %s`

// Gemini classifies issue text through the Gemini generateContent API.
type Gemini struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGemini creates a remote classifier. baseURL and model fall back to the
// public Gemini endpoint and default model when empty.
func NewGemini(baseURL, apiKey, model string) *Gemini {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Gemini{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Classify(ctx context.Context, in Input) (models.IssuePriority, error) {
	prompt := fmt.Sprintf(classifyPrompt,
		truncate(in.Category), truncate(in.State), truncate(in.Location),
		truncate(in.Title), truncate(in.Description))

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal classify request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send classify request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read classify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal classify response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("classifier backend returned no candidates")
	}

	raw := out.Candidates[0].Content.Parts[0].Text
	label, ok := models.ParsePriority(normalizeLabel(raw))
	if !ok {
		return "", fmt.Errorf("classifier backend returned unexpected label %q", raw)
	}
	return label, nil
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxFieldRunes {
		return s
	}
	return string(runes[:maxFieldRunes])
}
