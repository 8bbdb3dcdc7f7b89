package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcart/internal/models"
)

func newElastic(t *testing.T, h http.HandlerFunc) *ElasticCatalog {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &ElasticCatalog{ES: client, ProductIndex: "products", FoodIndex: "foods"}
}

func TestElasticCatalog_Found(t *testing.T) {
	c := newElastic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foods/_doc/f1", r.URL.Path)
		_, _ = w.Write([]byte(`{"_index":"foods","_id":"f1","found":true,"_source":{"name":"Ramen","price":9.5,"imageUrl":"r.png","inStock":false,"quantity":0}}`))
	})

	item, err := c.Lookup(context.Background(), models.ItemTypeFood, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Ramen", item.Name)
	assert.Equal(t, 9.5, item.Price)
	assert.False(t, item.InStock)
	assert.Equal(t, 0, *item.AvailableQuantity)
}

func TestElasticCatalog_NotFound(t *testing.T) {
	c := newElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"_index":"products","_id":"nope","found":false}`))
	})

	_, err := c.Lookup(context.Background(), models.ItemTypeProduct, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestElasticCatalog_MissingIndexIsNotAbsence(t *testing.T) {
	c := newElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := c.Lookup(context.Background(), models.ItemTypeProduct, "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "index_not_found_exception")
}

func TestElasticCatalog_ServerErrorIsNotAbsence(t *testing.T) {
	c := newElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Lookup(context.Background(), models.ItemTypeProduct, "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestElasticCatalog_ReadOnly(t *testing.T) {
	c := &ElasticCatalog{}
	require.Error(t, c.DecrementStock(context.Background(), models.ItemTypeProduct, "p1", 1))
}
