package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type room struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HasCamera  bool   `json:"has_camera"`
	IsOccupied bool   `json:"is_occupied"`
}

type dashboardStats struct {
	TotalRooms          int     `json:"total_rooms"`
	OccupiedRooms       int     `json:"occupied_rooms"`
	TotalDevices        int     `json:"total_devices"`
	DevicesOn           int     `json:"devices_on"`
	TotalEnergyConsumed float64 `json:"total_energy_consumed"`
	TotalEnergySaved    float64 `json:"total_energy_saved"`
	CurrentPowerUsage   float64 `json:"current_power_usage"`
}

type occupancyResult struct {
	TurnedOn  []string `json:"devices_turned_on"`
	TurnedOff []string `json:"devices_turned_off"`
	KeptOn    string   `json:"safety_light_kept_on"`
}

// apiClient talks to the home-energy HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("%s", e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) login(email, password string) (string, error) {
	var res struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return res.AccessToken, nil
}

func (c *apiClient) rooms() ([]room, error) {
	var res struct {
		Data []room `json:"data"`
	}
	err := c.do(http.MethodGet, "/api/rooms", nil, &res)
	return res.Data, err
}

func (c *apiClient) stats() (*dashboardStats, error) {
	var res struct {
		Data dashboardStats `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/dashboard/stats", nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (c *apiClient) setOccupancy(roomID string, occupied bool) (*occupancyResult, error) {
	var res struct {
		Data occupancyResult `json:"data"`
	}
	body := map[string]interface{}{"room_id": roomID, "is_occupied": occupied}
	if err := c.do(http.MethodPost, "/api/occupancy/update", body, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}
