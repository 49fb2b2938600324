package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultSafetyURL is the hosted toxicity classifier endpoint.
const DefaultSafetyURL = "https://router.huggingface.co/hf-inference/models/unitary/toxic-bert"

// labels that block content when scored above the threshold
var unsafeLabels = map[string]bool{
	"toxic":         true,
	"severe_toxic":  true,
	"obscene":       true,
	"threat":        true,
	"insult":        true,
	"identity_hate": true,
}

const unsafeThreshold = 0.60

// SafetyGate classifies user-authored text before it is stored. The gate
// fails open: if the classifier is unreachable, misbehaves, or no API key
// is configured, content is allowed — moderation availability must never
// block users.
type SafetyGate struct {
	client *http.Client
	apiKey string
	url    string
}

func NewSafetyGate(apiKey string) *SafetyGate {
	return &SafetyGate{
		client: &http.Client{Timeout: 10 * time.Second},
		apiKey: apiKey,
		url:    DefaultSafetyURL,
	}
}

// NewSafetyGateURL builds a gate against a specific endpoint.
func NewSafetyGateURL(apiKey, url string) *SafetyGate {
	gate := NewSafetyGate(apiKey)
	gate.url = url
	return gate
}

type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// IsSafe reports whether text may be stored.
func (g *SafetyGate) IsSafe(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	if g.apiKey == "" {
		return true
	}

	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return true
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("safety gate: request failed: %v", err)
		return true
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return true
	}

	// The model returns a nested array: one list of label scores per input.
	var results [][]classification
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.Printf("safety gate: bad response: %v", err)
		return true
	}
	if len(results) == 0 {
		return true
	}

	for _, c := range results[0] {
		if unsafeLabels[c.Label] && c.Score > unsafeThreshold {
			return false
		}
	}
	return true
}
