package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mirari/uploader/internal/model"
)

// RemoteUser is the slice of the user service's record this core reads.
type RemoteUser struct {
	UserID int64  `json:"user_id"`
	Handle string `json:"handle"`
}

// UserClient looks up user records from the external user service.
type UserClient interface {
	FetchUser(ctx context.Context, userID int64) (*RemoteUser, error)
}

// HTTPUserClient is the production UserClient.
type HTTPUserClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUserClient(baseURL string) *HTTPUserClient {
	return &HTTPUserClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPUserClient) FetchUser(ctx context.Context, userID int64) (*RemoteUser, error) {
	url := fmt.Sprintf("%s/v1/fetch_user/%d", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.ErrUserNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("user service returned %d: %w", resp.StatusCode, model.ErrBadGateway)
	}

	var user RemoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return &user, nil
}
