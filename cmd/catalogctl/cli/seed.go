package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/catalog3d/catalog/internal/products"
)

// ProductCreator is satisfied by *products.Service.
type ProductCreator interface {
	Create(ctx context.Context, categoryID string, body []byte) (products.Product, error)
}

// SeedProduct is one demo catalog entry.
type SeedProduct struct {
	CategoryID  string  `json:"categoryId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Color       string  `json:"color"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Depth       float64 `json:"depth"`
}

// DefaultSeed is loaded when no seed file is given.
var DefaultSeed = []SeedProduct{
	{CategoryID: "chairs", Name: "Lounge Chair", Description: "Molded plywood lounge chair", Price: 1299, Color: "walnut", Width: 84, Height: 82, Depth: 85},
	{CategoryID: "chairs", Name: "Side Chair", Description: "Stackable side chair", Price: 149, Color: "white", Width: 46, Height: 81, Depth: 53},
	{CategoryID: "tables", Name: "Dining Table", Description: "Extendable oak dining table", Price: 899, Color: "oak", Width: 180, Height: 75, Depth: 90},
	{CategoryID: "lighting", Name: "Arc Lamp", Description: "Floor lamp with marble base", Price: 459, Color: "chrome", Width: 40, Height: 220, Depth: 200},
	{CategoryID: "sofas", Name: "Modular Sofa", Description: "Three seat modular sofa", Price: 2199, Color: "grey", Width: 240, Height: 78, Depth: 98},
}

// LoadSeed decodes a JSON array of SeedProduct.
func LoadSeed(r io.Reader) ([]SeedProduct, error) {
	var seed []SeedProduct
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return seed, nil
}

// Seed creates every entry through creator and returns the created ids.
func Seed(ctx context.Context, creator ProductCreator, seed []SeedProduct) ([]string, error) {
	ids := make([]string, 0, len(seed))
	for i, entry := range seed {
		body, err := json.Marshal(entry)
		if err != nil {
			return ids, err
		}
		p, err := creator.Create(ctx, entry.CategoryID, body)
		if err != nil {
			return ids, fmt.Errorf("seed: entry %d (%s): %w", i, entry.Name, err)
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}
