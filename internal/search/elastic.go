// Package search mirrors approved projects into an Elasticsearch index
// for keyword search and name autocompletion. The index is an eventually
// consistent cache of Postgres; it can always be rebuilt from the
// relational store.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/opensharing/showcase/internal/domain"
)

const projectIndex = "projects"

// ProjectDoc is the indexed shape of a project.
type ProjectDoc struct {
	Name                string          `json:"name"`
	Brief               string          `json:"brief"`
	Description         string          `json:"description"`
	ProgrammingLanguage *string         `json:"programming_language"`
	License             *string         `json:"license"`
	Platform            domain.Platform `json:"platform"`
	IsFeatured          bool            `json:"is_featured"`
	Tags                []int64         `json:"tags"`
}

// DocFromProject builds the indexed document for a project.
func DocFromProject(p *domain.Project) ProjectDoc {
	tagIDs := make([]int64, len(p.Tags))
	for i, t := range p.Tags {
		tagIDs[i] = t.ID
	}
	return ProjectDoc{
		Name:                p.Name,
		Brief:               p.Brief,
		Description:         p.Description,
		ProgrammingLanguage: p.ProgrammingLanguage,
		License:             p.License,
		Platform:            p.Platform,
		IsFeatured:          p.IsFeatured,
		Tags:                tagIDs,
	}
}

// Params are the supported search filters. Keyword matches name, brief
// and description with descending boosts; tag filtering requires all
// given tags to be present.
type Params struct {
	Keyword             string
	ProgrammingLanguage string
	License             string
	Platform            domain.Platform
	IsFeatured          *bool
	Tags                []int64
}

// Client wraps the Elasticsearch API for the project index.
type Client struct {
	es *elasticsearch.Client
}

// NewClient connects to Elasticsearch.
func NewClient(url, apiKey string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		APIKey:    apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es}, nil
}

// IndexProject writes (or overwrites) a project document.
func (c *Client) IndexProject(ctx context.Context, projectID int64, doc ProjectDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal project doc: %w", err)
	}
	res, err := c.es.Index(projectIndex, bytes.NewReader(body),
		c.es.Index.WithDocumentID(strconv.FormatInt(projectID, 10)),
		c.es.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index project %d: %w", projectID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index project %d: %s", projectID, res.Status())
	}
	return nil
}

// DeleteProject removes a project document. A missing document is not an
// error; deletes are issued for every non-searchable project.
func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	res, err := c.es.Delete(projectIndex, strconv.FormatInt(projectID, 10),
		c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete project %d from index: %w", projectID, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete project %d from index: %s", projectID, res.Status())
	}
	return nil
}

// Search returns the matching project ids, best match first.
func (c *Client) Search(ctx context.Context, params Params) ([]int64, error) {
	var filters []map[string]any
	term := func(field string, value any) map[string]any {
		return map[string]any{"term": map[string]any{field: value}}
	}
	if params.ProgrammingLanguage != "" {
		filters = append(filters, term("programming_language", params.ProgrammingLanguage))
	}
	if params.License != "" {
		filters = append(filters, term("license", params.License))
	}
	if params.Platform != "" {
		filters = append(filters, term("platform", params.Platform))
	}
	if params.IsFeatured != nil {
		filters = append(filters, term("is_featured", *params.IsFeatured))
	}
	if len(params.Tags) > 0 {
		filters = append(filters, map[string]any{
			"terms_set": map[string]any{
				"tags": map[string]any{
					"terms":                params.Tags,
					"minimum_should_match": len(params.Tags),
				},
			},
		})
	}

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if params.Keyword != "" {
		boolQuery["must"] = map[string]any{
			"multi_match": map[string]any{
				"query":  params.Keyword,
				"fields": []string{"name^5", "brief^3", "description^1"},
			},
		}
	}

	query := map[string]any{
		"query":   map[string]any{"bool": boolQuery},
		"_source": false,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithIndex(projectIndex),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithContext(ctx))
	if err != nil {
		return nil, domain.APIError("search index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, domain.APIError("search index", fmt.Errorf("status %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Suggest returns up to ten project-name completions for a prefix.
func (c *Client) Suggest(ctx context.Context, keyword string) ([]string, error) {
	query := map[string]any{
		"suggest": map[string]any{
			"name": map[string]any{
				"prefix": keyword,
				"completion": map[string]any{
					"field": "name.suggest",
					"size":  10,
				},
			},
		},
		"_source": false,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal suggest query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithIndex(projectIndex),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithContext(ctx))
	if err != nil {
		return nil, domain.APIError("search index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, domain.APIError("search index", fmt.Errorf("status %s", res.Status()))
	}

	var parsed struct {
		Suggest struct {
			Name []struct {
				Options []struct {
					Text string `json:"text"`
				} `json:"options"`
			} `json:"name"`
		} `json:"suggest"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode suggest response: %w", err)
	}

	var names []string
	for _, group := range parsed.Suggest.Name {
		for _, opt := range group.Options {
			names = append(names, opt.Text)
		}
	}
	return names, nil
}
