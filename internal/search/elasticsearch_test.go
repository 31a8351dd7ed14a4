package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"example.com/restaurant-pos/config"
	"example.com/restaurant-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu       sync.Mutex
	requests map[string][]byte
	search   string
	status   int
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests[r.Method+" "+r.URL.Path] = body
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`)
	case f.status != 0:
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception"}}`)
	case r.URL.Path == "/pos-orders/_search":
		_, _ = io.WriteString(w, f.search)
	default:
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}
}

func newTestClient(t *testing.T, cluster *fakeCluster) *ElasticClient {
	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)

	client, err := NewElasticClient(config.ElasticConfig{URL: server.URL, Prefix: "pos", Index: "orders"})
	require.NoError(t, err)
	return client
}

func TestIndexOrder(t *testing.T) {
	cluster := &fakeCluster{requests: map[string][]byte{}}
	client := newTestClient(t, cluster)

	order := &models.Order{
		ID:           7,
		OrderNumber:  "ORD1700000000000001",
		CustomerName: "Asha",
		Status:       models.OrderStatusPending,
		Subtotal:     decimal.RequireFromString("30"),
		Discount:     decimal.RequireFromString("5"),
		TotalAmount:  decimal.RequireFromString("25"),
		Items:        []models.OrderItem{{ItemID: 1, ItemName: "Tea", Quantity: 3, Price: decimal.RequireFromString("10")}},
	}
	require.NoError(t, client.IndexOrder(context.Background(), order))

	cluster.mu.Lock()
	body, ok := cluster.requests["PUT /pos-orders/_doc/7"]
	cluster.mu.Unlock()
	require.True(t, ok, "expected a PUT to the order document")

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "Asha", doc["customer_name"])
	assert.Equal(t, 25.0, doc["total_amount"])
	assert.Equal(t, []interface{}{"Tea"}, doc["item_names"])
}

func TestSearchOrders(t *testing.T) {
	cluster := &fakeCluster{
		requests: map[string][]byte{},
		search:   `{"hits":{"hits":[{"_source":{"order_number":"ORD1"}},{"_source":{"order_number":"ORD2"}}]}}`,
	}
	client := newTestClient(t, cluster)

	docs, err := client.SearchOrders(context.Background(), "tea", 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "ORD1", docs[0]["order_number"])

	cluster.mu.Lock()
	body := cluster.requests["POST /pos-orders/_search"]
	cluster.mu.Unlock()
	assert.Contains(t, string(body), `"multi_match"`)
}

func TestSearchOrdersError(t *testing.T) {
	cluster := &fakeCluster{requests: map[string][]byte{}, status: http.StatusNotFound}
	client := newTestClient(t, cluster)

	_, err := client.SearchOrders(context.Background(), "", 10)
	assert.Error(t, err)
}
