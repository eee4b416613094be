// arXiv Paper Search Tool.
//
// Information Hiding:
// - HTTP client implementation details hidden
// - Atom feed decoding hidden
// - Query URL construction hidden

package tools

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FetchPapersToolName is the id agents use to call the paper search tool.
const FetchPapersToolName = "fetch-papers"

// DefaultArxivBaseURL is the public arXiv export API.
const DefaultArxivBaseURL = "http://export.arxiv.org/api/query"

// MaxPaperLimit is the largest limit the paper tool accepts.
const MaxPaperLimit = 10

// maxFeedBytes bounds the response body read from the feed.
const maxFeedBytes = 4 << 20

// Paper is one search hit.
type Paper struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	URL       string   `json:"url,omitempty"`
	Published string   `json:"published,omitempty"`
	Authors   []string `json:"authors,omitempty"`
}

// FetchPapersTool searches arXiv for recent papers on a topic.
type FetchPapersTool struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// NewFetchPapersTool creates the tool. An empty baseURL uses DefaultArxivBaseURL.
func NewFetchPapersTool(baseURL string, timeout time.Duration) *FetchPapersTool {
	if baseURL == "" {
		baseURL = DefaultArxivBaseURL
	}
	return &FetchPapersTool{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		timeout: timeout,
	}
}

// Metadata returns the tool metadata.
func (t *FetchPapersTool) Metadata() Metadata {
	return Metadata{
		Name:        FetchPapersToolName,
		Description: "Search arXiv for the most recent academic papers about a given topic",
		Schema:      topicLimitSchema("papers", MaxPaperLimit),
	}
}

// Execute queries the feed and returns the hits as a JSON array.
func (t *FetchPapersTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	reqURL, err := t.queryURL(a)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("request timed out after %s", t.timeout)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP error: %s", resp.Status)
	}

	papers, err := parseFeed(body)
	if err != nil {
		return "", err
	}
	if a.Limit > 0 && len(papers) > a.Limit {
		papers = papers[:a.Limit]
	}

	data, err := json.Marshal(papers)
	if err != nil {
		return "", fmt.Errorf("encode papers: %w", err)
	}
	return string(data), nil
}

func (t *FetchPapersTool) queryURL(a sourceArgs) (string, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base URL must be http or https, got %q", u.Scheme)
	}

	q := u.Query()
	q.Set("search_query", "all:"+strings.TrimSpace(a.Topic))
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(a.Limit))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

func parseFeed(body []byte) ([]Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p := Paper{
			Title:     collapseSpace(e.Title),
			Content:   collapseSpace(e.Summary),
			URL:       strings.TrimSpace(e.ID),
			Published: strings.TrimSpace(e.Published),
		}
		for _, au := range e.Authors {
			if name := strings.TrimSpace(au.Name); name != "" {
				p.Authors = append(p.Authors, name)
			}
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// collapseSpace folds the line breaks arXiv puts inside titles and abstracts.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
