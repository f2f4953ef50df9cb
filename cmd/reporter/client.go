package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"CampusSOS/internal/models"
)

// apiClient runs the reporter's store and state dependencies over the
// server's HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// AddLocationUpdate posts one sample to the alert's trail.
func (c *apiClient) AddLocationUpdate(ctx context.Context, alertID uint, lat, lon float64) error {
	payload, _ := json.Marshal(map[string]float64{"latitude": lat, "longitude": lon})
	url := fmt.Sprintf("%s/alerts/%d/location", c.base, alertID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("location report rejected: %s", resp.Status)
	}
	return nil
}

// Get reads the alert's current state. A failed read reports not-found,
// which keeps the sampling loop running until the server answers again.
func (c *apiClient) Get(id uint) (models.Alert, bool) {
	resp, err := c.http.Get(fmt.Sprintf("%s/alerts/%d", c.base, id))
	if err != nil {
		return models.Alert{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Alert{}, false
	}

	var body struct {
		Success bool         `json:"success"`
		Data    models.Alert `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || !body.Success {
		return models.Alert{}, false
	}
	return body.Data, true
}
