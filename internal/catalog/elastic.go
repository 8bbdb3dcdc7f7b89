package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/shopcart/internal/models"
)

type ElasticCatalog struct {
	ES           *elasticsearch.Client
	ProductIndex string
	FoodIndex    string
}

type esItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
	InStock  *bool   `json:"inStock"`
	Quantity *int    `json:"quantity"`
}

func (e *ElasticCatalog) index(t models.ItemType) (string, error) {
	switch t {
	case models.ItemTypeProduct:
		return e.ProductIndex, nil
	case models.ItemTypeFood:
		return e.FoodIndex, nil
	}
	return "", unknownType(t)
}

func (e *ElasticCatalog) Lookup(ctx context.Context, itemType models.ItemType, itemID string) (*models.CatalogItem, error) {
	index, err := e.index(itemType)
	if err != nil {
		return nil, err
	}

	res, err := e.ES.Get(index, itemID, e.ES.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es get %s/%s: %w", index, itemID, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return nil, fmt.Errorf("es get %s/%s: %s", index, itemID, res.Status())
	}

	var r struct {
		Found  bool            `json:"found"`
		Source esItem          `json:"_source"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode es document: %w", err)
	}
	if len(r.Error) > 0 {
		// a missing index also answers 404, but that is not a missing item
		return nil, fmt.Errorf("es get %s/%s: %s", index, itemID, r.Error)
	}
	if !r.Found {
		return nil, ErrNotFound
	}

	item := &models.CatalogItem{
		ID:       itemID,
		Type:     itemType,
		Name:     r.Source.Name,
		Price:    r.Source.Price,
		ImageURL: r.Source.ImageURL,
	}
	stockDoc{InStock: r.Source.InStock, Quantity: r.Source.Quantity}.apply(item)
	return item, nil
}

// DecrementStock is unsupported: the index is a projection of the source of truth.
func (e *ElasticCatalog) DecrementStock(context.Context, models.ItemType, string, int) error {
	return errReadOnly
}
