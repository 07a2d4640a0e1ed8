// Package userclient is the content-service side HTTP client for
// user-service profile data. Fetches are enrichment only: every failure
// degrades to "profile unavailable" instead of failing the request.
package userclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/communityplatform/backend/internal/logger"
	"github.com/communityplatform/backend/internal/models"
)

const defaultTimeout = 2 * time.Second

type Client struct {
	// Base address of the user-service, e.g. http://127.0.0.1:8081
	UserServiceAddr string

	timeout time.Duration
	client  *http.Client
	logger  logger.Logger
}

func NewClient(addr string, timeout time.Duration, l logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		UserServiceAddr: addr,
		timeout:         timeout,
		client:          &http.Client{},
		logger:          l,
	}
}

// GetProfile fetches the public profile of the user.
// Returns nil when the profile can't be fetched in time, whatever the reason:
// callers must treat nil as "profile unavailable" and carry on.
func (c *Client) GetProfile(ctx context.Context, userID int64) *models.Profile {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.UserServiceAddr + "/api/v1/users/" + strconv.FormatInt(userID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("Failed to build user-service request", "user_id", userID, "error", err)
		return nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Failed to fetch profile from user-service", "user_id", userID, "error", err)
		return nil
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("User-service returned unexpected status", "user_id", userID, "status_code", resp.StatusCode)
		return nil
	}

	var p models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		c.logger.Warn("Failed to decode user-service response", "user_id", userID, "error", fmt.Errorf("decode: %w", err))
		return nil
	}

	return &p
}
