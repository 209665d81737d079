package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type Config struct {
	Addresses []string
	Username  string
	Password  string
}

type Client struct {
	es *elasticsearch.Client
}

func NewClient(cfg *Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return &Client{es: es}, nil
}

// NewFromES wraps an already configured client without probing it.
func NewFromES(es *elasticsearch.Client) *Client {
	return &Client{es: es}
}

// CreateIndex creates the index with mapping; an existing index is not an error.
func (c *Client) CreateIndex(ctx context.Context, index, mapping string) error {
	req := esapi.IndicesCreateRequest{Index: index, Body: strings.NewReader(mapping)}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return fmt.Errorf("create index %s: %s: %s", index, res.Status(), body)
	}
	return nil
}

func (c *Client) Index(ctx context.Context, index, id string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(payload),
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document %s: %s", id, res.Status())
	}
	return nil
}

// Delete removes a document; a missing document is not an error.
func (c *Client) Delete(ctx context.Context, index, id string) error {
	req := esapi.DeleteRequest{Index: index, DocumentID: id}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete document %s: %s", id, res.Status())
	}
	return nil
}
