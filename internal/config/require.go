package config

import (
	"errors"
	"fmt"
)

func requireNonEmpty(errs []error, value, envName string) []error {
	if value == "" {
		return append(errs, fmt.Errorf("missing required env %s", envName))
	}
	return errs
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.CartStore {
	case StoreMongo, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("CART_STORE must be %q or %q, got %q", StoreMongo, StorePostgres, c.CartStore))
	}

	switch c.CatalogSource {
	case CatalogMongo, CatalogPostgres:
	case CatalogElastic:
		errs = requireNonEmpty(errs, c.ESURL, "ES_URL")
	default:
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE must be one of mongo, postgres, elastic, got %q", c.CatalogSource))
	}

	if c.NeedsMongo() {
		errs = requireNonEmpty(errs, c.MongoURI, "MONGODB_URI")
	}
	if c.NeedsSQL() {
		errs = requireNonEmpty(errs, c.DatabaseURL, "DATABASE_URL")
	}
	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("missing required env JWT_SECRET"))
	}

	return errors.Join(errs...)
}
