// News Fixture Tool.
//
// Information Hiding:
// - Catalog source (embedded or external YAML) hidden
// - Output encoding hidden

package tools

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FetchNewsToolName is the id agents use to call the news tool.
const FetchNewsToolName = "fetch-news"

// MaxNewsLimit is the largest limit the news tool accepts.
const MaxNewsLimit = 10

//go:embed fixtures/articles.yaml
var defaultCatalog []byte

// Article is one catalog entry.
type Article struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

type catalog struct {
	Articles []Article `yaml:"articles"`
}

// LoadArticles decodes an article catalog from YAML.
func LoadArticles(r io.Reader) ([]Article, error) {
	var c catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i, a := range c.Articles {
		if a.Title == "" {
			return nil, fmt.Errorf("article %d has no title", i)
		}
	}
	return c.Articles, nil
}

// DefaultArticles returns the embedded catalog.
func DefaultArticles() []Article {
	var c catalog
	if err := yaml.Unmarshal(defaultCatalog, &c); err != nil {
		panic(fmt.Sprintf("embedded article catalog: %v", err))
	}
	return c.Articles
}

// FetchNewsTool serves articles from a fixed catalog.
// Results ignore the topic and are returned in catalog order.
type FetchNewsTool struct {
	articles []Article
}

// NewFetchNewsTool creates the tool. A nil catalog uses DefaultArticles.
func NewFetchNewsTool(articles []Article) *FetchNewsTool {
	if articles == nil {
		articles = DefaultArticles()
	}
	return &FetchNewsTool{articles: articles}
}

// Metadata returns the tool metadata.
func (t *FetchNewsTool) Metadata() Metadata {
	return Metadata{
		Name:        FetchNewsToolName,
		Description: "Fetch the latest news articles about a given topic",
		Schema:      topicLimitSchema("articles", MaxNewsLimit),
	}
}

type sourceArgs struct {
	Topic string `json:"topic"`
	Limit int    `json:"limit"`
}

// Execute returns the first limit articles as a JSON array.
func (t *FetchNewsTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	n := a.Limit
	if n < 0 {
		n = 0
	}
	if n > len(t.articles) {
		n = len(t.articles)
	}
	data, err := json.Marshal(t.articles[:n])
	if err != nil {
		return "", fmt.Errorf("encode articles: %w", err)
	}
	return string(data), nil
}
