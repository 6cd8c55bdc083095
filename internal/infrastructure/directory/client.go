package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gatepass/backend/internal/domain/identity"
)

// maxResponseSize is the maximum allowed response size from the directory (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrDirectoryUnavailable indicates the directory could not be reached or
// returned an unexpected response
var ErrDirectoryUnavailable = errors.New("directory: service unavailable")

// Config holds the directory service connection settings
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Validate checks the configuration for required fields
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("directory: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("directory: invalid base URL: %w", err)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

// Client implements identity.DirectoryLookup against the corporate identity
// directory's REST API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new directory client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// profileResponse is the directory's employee payload
type profileResponse struct {
	ServiceNo   string `json:"serviceNo"`
	Name        string `json:"name"`
	Section     string `json:"section"`
	Group       string `json:"group"`
	Designation string `json:"designation"`
	ContactNo   string `json:"contactNo"`
	Email       string `json:"email"`
}

// Lookup fetches the profile for a service number. A 404 from the directory
// maps to identity.ErrProfileNotFound; transport and server failures are
// reported as ErrDirectoryUnavailable.
func (c *Client) Lookup(ctx context.Context, serviceNo string) (*identity.Profile, error) {
	endpoint := fmt.Sprintf("%s/api/employees/%s", c.config.BaseURL, url.PathEscape(serviceNo))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("directory: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, identity.ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDirectoryUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrDirectoryUnavailable, err)
	}

	var payload profileResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrDirectoryUnavailable, err)
	}
	if payload.ServiceNo == "" {
		payload.ServiceNo = serviceNo
	}

	return &identity.Profile{
		ServiceNo:   payload.ServiceNo,
		DisplayName: payload.Name,
		Section:     payload.Section,
		Group:       payload.Group,
		Designation: payload.Designation,
		ContactNo:   payload.ContactNo,
		Email:       payload.Email,
		Source:      identity.SourceDirectory,
	}, nil
}

// Ensure Client implements identity.DirectoryLookup
var _ identity.DirectoryLookup = (*Client)(nil)
