package store

import (
	"context"
	"errors"
	"fmt"

	"usuarios-service/models"
)

// ErrNoDocument is returned by FindOne when no record matches the filter.
var ErrNoDocument = errors.New("no document matches the filter")

// UserStore is the document collection holding user records. Lookups and
// mutations select records by an exact match on a single field.
type UserStore interface {
	// InsertOne stores doc and returns the identifier assigned by the store.
	InsertOne(ctx context.Context, doc models.Document) (any, error)
	FindOne(ctx context.Context, filter Filter) (models.Document, error)
	// Find returns every record in the store's natural order.
	Find(ctx context.Context) ([]models.Document, error)
	// UpdateOne overwrites only the fields in set and reports how many
	// records matched the filter.
	UpdateOne(ctx context.Context, filter Filter, set models.Document) (int64, error)
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
	Close(ctx context.Context) error
}

// Filter is an exact-match condition on one stored field.
type Filter struct {
	Field string
	Value any
}

func ByUsername(username string) Filter {
	return Filter{Field: models.FieldUsername, Value: username}
}

func ByID(id any) Filter {
	return Filter{Field: models.FieldID, Value: id}
}

func (f Filter) validate() error {
	switch f.Field {
	case models.FieldID, models.FieldUsername:
		return nil
	default:
		return fmt.Errorf("unsupported filter field %q", f.Field)
	}
}
