package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/akeren/waitlist-foundry/internal/models"
)

const maxScriptResponseBytes = 4 << 20

// ScriptProvider talks to a hosted automation script that fronts the sheet.
// Writes are POSTed as {"type": ..., fields}; a GET returns the raw rows.
type ScriptProvider struct {
	url    string
	client *http.Client
}

func NewScriptProvider(url string, client *http.Client) *ScriptProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ScriptProvider{url: url, client: client}
}

func (p *ScriptProvider) Name() string {
	return ProviderScript
}

type scriptWaitlistPayload struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Project   string `json:"project"`
	Referrer  string `json:"referrer"`
}

type scriptEventPayload struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	EventName string `json:"eventName"`
	Page      string `json:"page"`
	Metadata  string `json:"metadata"`
}

type scriptAppendResponse struct {
	Position json.Number `json:"position"`
}

// reportedPosition accepts only whole numbers in [1, MaxInt32]; anything
// else is treated as no position.
func reportedPosition(n json.Number) (int, bool) {
	v, err := n.Int64()
	if err != nil || v < 1 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func scriptPayload(record models.Record) (interface{}, error) {
	switch r := record.(type) {
	case models.WaitlistEntry:
		return scriptWaitlistPayload{
			Type:      string(models.KindWaitlist),
			Timestamp: r.Timestamp,
			Email:     r.Email,
			Username:  r.Username,
			Project:   r.Project,
			Referrer:  r.Referrer,
		}, nil
	case models.InteractionEvent:
		return scriptEventPayload{
			Type:      string(models.KindEvent),
			Timestamp: r.Timestamp,
			EventName: r.EventName,
			Page:      r.Page,
			Metadata:  r.Metadata,
		}, nil
	default:
		return nil, fmt.Errorf("script: unsupported record %T", record)
	}
}

func (p *ScriptProvider) Append(ctx context.Context, record models.Record) (Receipt, error) {
	payload, err := scriptPayload(record)
	if err != nil {
		return Receipt{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("script: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("script: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("script: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, &StatusError{Provider: ProviderScript, StatusCode: resp.StatusCode}
	}

	// The body is optional; scripts that do not report a position may answer
	// with anything, including HTML.
	var result scriptAppendResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxScriptResponseBytes))
	if err := json.Unmarshal(raw, &result); err != nil {
		return Receipt{}, nil
	}

	position, ok := reportedPosition(result.Position)
	if !ok {
		return Receipt{}, nil
	}

	return Receipt{Position: position}, nil
}

func (p *ScriptProvider) Rows(ctx context.Context) ([]models.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("script: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("script: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Provider: ProviderScript, StatusCode: resp.StatusCode}
	}

	var values [][]interface{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxScriptResponseBytes)).Decode(&values); err != nil {
		return nil, fmt.Errorf("script: decode rows: %w", err)
	}

	return cellsToRows(values), nil
}
