// Package client holds the thin HTTP clients for the services this core
// consumes: tag lookup, user lookup, and the CDN fronting the object store.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// TagClient fetches a post's tag groups from the external tag service.
type TagClient interface {
	// FetchTagGroups returns the post's tags grouped by class. An unknown
	// post is not an error: it returns an empty map, so a privacy
	// transition on an untagged post still commits.
	FetchTagGroups(ctx context.Context, postID string) (map[string][]string, error)
}

// HTTPTagClient is the production TagClient.
type HTTPTagClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTagClient(baseURL string) *HTTPTagClient {
	return &HTTPTagClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPTagClient) FetchTagGroups(ctx context.Context, postID string) (map[string][]string, error) {
	url := fmt.Sprintf("%s/v1/fetch_post_tags/%s", c.baseURL, postID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build tag request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tags: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Untagged post; nothing to count.
		log.Printf("[TagClient] FetchTagGroups: post=%s has no tags", postID)
		return map[string][]string{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("tag service returned %d", resp.StatusCode)
	}

	var groups map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, fmt.Errorf("decode tag response: %w", err)
	}
	return groups, nil
}

// FlattenTags collapses tag groups into the flat tag list counters are
// keyed by.
func FlattenTags(groups map[string][]string) []string {
	var tags []string
	for _, group := range groups {
		tags = append(tags, group...)
	}
	return tags
}
