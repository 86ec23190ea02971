package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSearchBaseURL = "https://api.duckduckgo.com"

var travelKeywords = []string{"trip", "travel", "hotel", "vacation", "flight"}

// IsTravelQuestion reports whether the question is about travel. Those get
// supplemented with a web lookup, since prices and destinations are not in
// the transaction log.
func IsTravelQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range travelKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// SearchClient queries the DuckDuckGo Instant Answer API.
type SearchClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewSearchClient() *SearchClient {
	return &SearchClient{
		baseURL:    defaultSearchBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Lookup returns a short text snippet for the query, or "" when the API
// has nothing useful.
func (c *SearchClient) Lookup(ctx context.Context, query string) (string, error) {
	u := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		c.baseURL, url.QueryEscape(query))

	httpReq, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API error %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.Unmarshal(respBody, &answer); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	if answer.Answer != "" {
		return answer.Answer, nil
	}
	if answer.AbstractText != "" {
		return answer.AbstractText, nil
	}
	var topics []string
	for _, t := range answer.RelatedTopics {
		if t.Text != "" {
			topics = append(topics, t.Text)
		}
		if len(topics) == 3 {
			break
		}
	}
	return strings.Join(topics, "\n"), nil
}
