package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mirari/uploader/internal/model"
)

// CDNClient fetches stored originals back through the CDN for icon and
// banner crops.
type CDNClient interface {
	FetchOriginal(ctx context.Context, postID, filename string) ([]byte, error)
}

// HTTPCDNClient is the production CDNClient.
type HTTPCDNClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCDNClient(baseURL string) *HTTPCDNClient {
	return &HTTPCDNClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPCDNClient) FetchOriginal(ctx context.Context, postID, filename string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, postID, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build cdn request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch original: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("cdn returned %d: %w", resp.StatusCode, model.ErrBadGateway)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}
	return data, nil
}
