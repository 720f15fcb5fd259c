package upsert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwatch/pricesync/models"
)

// FailureKind says which stage of an upsert failed.
type FailureKind int

const (
	LookupFailure FailureKind = iota + 1
	WriteFailure
	ValidationFailure
)

func (k FailureKind) String() string {
	switch k {
	case LookupFailure:
		return "lookup"
	case WriteFailure:
		return "write"
	case ValidationFailure:
		return "validation"
	default:
		return "unknown"
	}
}

// Gateway operations, used as Error.Op.
const (
	OpValidate           = "validate"
	OpLookup             = "lookup"
	OpLoadCategories     = "load categories"
	OpLoadPriceHistory   = "load price history"
	OpInsert             = "insert"
	OpUpdateBaseFields   = "update base fields"
	OpAppendPriceHistory = "append price history"
	OpReplaceCategories  = "replace categories"
)

// ErrInvalidProduct marks a scraped record rejected before any storage call.
var ErrInvalidProduct = errors.New("invalid product")

// Error describes why one product could not be upserted.
type Error struct {
	Kind      FailureKind
	Op        string
	ProductID string
	Err       error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s failure during %s of product %q: %v", e.Kind, e.Op, e.ProductID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Validate rejects scraped records that cannot be keyed or priced.
func Validate(p models.Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProduct)
	}
	if p.CurrentPrice.IsNegative() {
		return fmt.Errorf("%w: negative price %s", ErrInvalidProduct, p.CurrentPrice)
	}
	return nil
}
