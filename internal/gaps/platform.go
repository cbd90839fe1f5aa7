package gaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"spechub/pkg/models"
)

// PlatformClient searches the commerce platform's reference index for
// canonical component names. The reference ids it returns are opaque
// (scheme://authority/Type/<int>) and never parsed.
type PlatformClient struct {
	Client  *http.Client
	BaseURL string
	Token   string

	// MinScore is the confidence floor below which a hit is treated
	// as no match.
	MinScore float64
}

func NewPlatformClient(baseURL, token string) *PlatformClient {
	return &PlatformClient{
		Client:   &http.Client{Timeout: 12 * time.Second},
		BaseURL:  baseURL,
		Token:    token,
		MinScore: 0.8,
	}
}

type searchResponse struct {
	Matches []struct {
		Name        string  `json:"name"`
		ReferenceID string  `json:"reference_id"`
		Score       float64 `json:"score"`
	} `json:"matches"`
}

// Search asks the platform for the best reference match. An exact name
// hit always wins; otherwise the top hit must clear MinScore. A polite
// empty answer is ErrNoMatch, not an error worth retrying.
func (p *PlatformClient) Search(ctx context.Context, category models.Category, name string) (string, error) {
	u, err := url.Parse(p.BaseURL + "/references/search")
	if err != nil {
		return "", fmt.Errorf("platform: base url: %w", err)
	}
	q := u.Query()
	q.Set("category", string(category))
	q.Set("q", name)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("platform: build request: %w", err)
	}
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("platform: request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("platform: status %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("platform: decode: %w", err)
	}

	for _, m := range sr.Matches {
		if m.Name == name && m.ReferenceID != "" {
			return m.ReferenceID, nil
		}
	}
	if len(sr.Matches) > 0 {
		top := sr.Matches[0]
		if top.ReferenceID != "" && top.Score >= p.MinScore {
			return top.ReferenceID, nil
		}
	}
	return "", ErrNoMatch
}
