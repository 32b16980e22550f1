package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrServiceUnavailable = errors.New("service unavailable")
)

type User struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type Program struct {
	TrainerID string `json:"trainer_id"`
}

// Client talks to the user and training services. Both calls carry short
// timeouts; callers decide which failures are fatal.
type Client struct {
	userServiceURL     string
	trainingServiceURL string
	httpClient         *http.Client
	logger             *zap.Logger
}

func NewClient(userServiceURL, trainingServiceURL string, logger *zap.Logger) *Client {
	return &Client{
		userServiceURL:     strings.TrimRight(userServiceURL, "/"),
		trainingServiceURL: strings.TrimRight(trainingServiceURL, "/"),
		httpClient:         &http.Client{Timeout: 5 * time.Second},
		logger:             logger,
	}
}

// ValidateUser resolves a user's identity and role. A definitive 404 maps to
// ErrUserNotFound; connection trouble maps to ErrServiceUnavailable.
func (c *Client) ValidateUser(ctx context.Context, userID, token string) (*User, error) {
	url := fmt.Sprintf("%s/api/users/%s", c.userServiceURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", bearer(token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("user service unavailable", zap.Error(err))
		return nil, ErrServiceUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("user service returned unexpected status",
			zap.Int("status", resp.StatusCode))
		return nil, ErrServiceUnavailable
	}

	var body struct {
		Data User `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, ErrServiceUnavailable
	}
	return &body.Data, nil
}

// ActivePrograms fetches a client's active programs. The check is advisory
// only, so every failure degrades to an empty list.
func (c *Client) ActivePrograms(ctx context.Context, clientID, token string) []Program {
	url := fmt.Sprintf("%s/api/programs/client/%s/active", c.trainingServiceURL, clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", bearer(token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("training service unavailable", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body struct {
		Success bool      `json:"success"`
		Data    []Program `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	if !body.Success {
		return nil
	}
	return body.Data
}

// The inbound token may or may not already carry the Bearer prefix.
func bearer(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}
