// Package product defines the value types shared by the catalog, the result
// caches and the resolution pipeline.
package product

import "github.com/scanpos/upc-resolver/pkg/money"

// Product is a catalog item keyed by its normalized barcode. Immutable once
// built.
type Product struct {
	Barcode string
	Name    string
	Price   money.Money
	// External marks items resolved through the lookup provider rather
	// than the local catalog.
	External bool
}

// Resolution is the fully-formatted outcome of a barcode lookup: what the
// response cache stores and what /lookup serializes on a hit. Local hits
// carry Price, external hits carry Description.
type Resolution struct {
	Found       bool   `json:"found"`
	Barcode     string `json:"barcode,omitempty"`
	Name        string `json:"name,omitempty"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
	External    bool   `json:"external"`
}
