package search

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"example.com/restaurant-pos/config"
	"example.com/restaurant-pos/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient indexes and searches order documents
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{client: client, config: cfg}, nil
}

func (c *ElasticClient) indexName() string {
	return config.FormatIndex(c.config, c.config.Index)
}

// orderDocument flattens an order for full-text search
func orderDocument(order *models.Order) map[string]interface{} {
	itemNames := make([]string, 0, len(order.Items))
	lines := make([]map[string]interface{}, 0, len(order.Items))
	for _, l := range order.Items {
		itemNames = append(itemNames, l.ItemName)
		lines = append(lines, map[string]interface{}{
			"item_id":   l.ItemID,
			"item_name": l.ItemName,
			"quantity":  l.Quantity,
			"price":     l.Price.InexactFloat64(),
			"subtotal":  l.Subtotal.InexactFloat64(),
		})
	}

	return map[string]interface{}{
		"id":             order.ID,
		"order_number":   order.OrderNumber,
		"customer_name":  order.CustomerName,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"bill_generated": order.BillGenerated,
		"subtotal":       order.Subtotal.InexactFloat64(),
		"discount":       order.Discount.InexactFloat64(),
		"total_amount":   order.TotalAmount.InexactFloat64(),
		"item_names":     itemNames,
		"items":          lines,
		"created_at":     order.CreatedAt,
		"updated_at":     order.UpdatedAt,
	}
}

// IndexOrder writes the current state of an order; the order id is the document id
func (c *ElasticClient) IndexOrder(ctx context.Context, order *models.Order) error {
	docJSON, err := json.Marshal(orderDocument(order))
	if err != nil {
		return errors.Wrap(err, "failed to marshal order document")
	}

	req := esapi.IndexRequest{
		Index:      c.indexName(),
		DocumentID: strconv.FormatUint(uint64(order.ID), 10),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError(res, "index")
	}

	log.Debug().Uint("order_id", order.ID).Str("order_number", order.OrderNumber).Msg("order indexed")
	return nil
}

// SearchOrders matches text against customer names, order numbers and item names.
// An empty text returns the most recent orders.
func (c *ElasticClient) SearchOrders(ctx context.Context, text string, size int) ([]map[string]interface{}, error) {
	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if text != "" {
		query = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"customer_name", "order_number", "item_names"},
			},
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"size":  size,
		"query": query,
		"sort":  []interface{}{map[string]interface{}{"created_at": map[string]string{"order": "desc"}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{c.indexName()},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(res, "search")
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	docs := make([]map[string]interface{}, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		if hit.Source != nil {
			docs = append(docs, hit.Source)
		}
	}
	return docs, nil
}

// Ping checks that the cluster answers
func (c *ElasticClient) Ping(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to ping Elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Errorf("Elasticsearch ping returned %s", res.Status())
	}
	return nil
}

func responseError(res *esapi.Response, op string) error {
	var e map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
		return errors.Wrapf(err, "failed to parse Elasticsearch %s error response", op)
	}
	return errors.Errorf("Elasticsearch %s error: %s %v", op, res.Status(), e)
}
