package erp

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

// maxResponseSize is the maximum allowed response size from the ERP (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrERPUnavailable indicates the ERP employee service could not be reached
// or returned an unexpected response
var ErrERPUnavailable = errors.New("erp: service unavailable")

// Config holds the ERP employee service connection settings
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Validate checks the configuration for required fields
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("erp: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("erp: invalid base URL: %w", err)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

// Client implements identity.EmployeeLookup against the ERP HR module. It is
// the fallback lookup when an identifier is missing from the directory.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new ERP employee client with the given configuration
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

// LookupEmployee fetches the raw employee record for a service number. A 404
// maps to identity.ErrProfileNotFound; transport and server failures are
// reported as ErrERPUnavailable.
func (c *Client) LookupEmployee(ctx context.Context, serviceNo string) (*identity.RawEmployeeRecord, error) {
	endpoint := fmt.Sprintf("%s/api/hr/employees/%s", c.config.BaseURL, url.PathEscape(serviceNo))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("erp: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrERPUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, identity.ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrERPUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrERPUnavailable, err)
	}

	var record identity.RawEmployeeRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrERPUnavailable, err)
	}
	if record.EmployeeNo == "" {
		record.EmployeeNo = serviceNo
	}

	return &record, nil
}

// Ensure Client implements identity.EmployeeLookup
var _ identity.EmployeeLookup = (*Client)(nil)
