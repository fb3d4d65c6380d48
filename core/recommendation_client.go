package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// RecommendationClient abstracts the external trip recommendation service.
type RecommendationClient interface {
	Recommendations(ctx context.Context, pref Preference) (map[string]any, error)
}

// HTTPRecommendationClient calls the recommendation service HTTP endpoint.
type HTTPRecommendationClient struct {
	client *http.Client
	base   string
}

func NewHTTPRecommendationClient(baseURL string) *HTTPRecommendationClient {
	return &HTTPRecommendationClient{
		client: &http.Client{Timeout: 15 * time.Second},
		base:   baseURL,
	}
}

// recommendationRequest mirrors the upstream service contract. The endpoint
// path spelling ("recomendations") is fixed by that service.
type recommendationRequest struct {
	Categories    []string `json:"categories"`
	Locations     []string `json:"locations"`
	StartDate     *string  `json:"startDate"`
	EndDate       *string  `json:"endDate"`
	MaxDistanceKm *int     `json:"maxDistanceKm"`
	MaxBudget     *float64 `json:"maxBudget"`
}

// Recommendations posts the preference to the external service and returns
// its raw JSON object.
func (c *HTTPRecommendationClient) Recommendations(ctx context.Context, pref Preference) (map[string]any, error) {
	if c.base == "" {
		return nil, errors.New("recommendation url not configured")
	}

	payload := recommendationRequest{
		Categories:    pref.Categories,
		Locations:     pref.Locations,
		StartDate:     dateString(pref.StartDate),
		EndDate:       dateString(pref.EndDate),
		MaxDistanceKm: pref.MaxDistanceKm,
		MaxBudget:     pref.MaxBudget,
	}
	b, _ := json.Marshal(payload)
	log.Printf("recommendation request categories=%d locations=%d", len(pref.Categories), len(pref.Locations))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/recomendations", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("recommendation service returned status %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
