// Package catalog holds the seed product list shipped with the binary.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/fjod/thread-storefront/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var seedYAML []byte

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Name          string   `yaml:"name"`
	Brand         string   `yaml:"brand"`
	Price         string   `yaml:"price"`
	OriginalPrice string   `yaml:"original_price"`
	Category      string   `yaml:"category"`
	Size          string   `yaml:"size"`
	Condition     string   `yaml:"condition"`
	InStock       bool     `yaml:"in_stock"`
	Image         string   `yaml:"image"`
	Images        []string `yaml:"images"`
	Featured      bool     `yaml:"featured"`
}

// Seed returns the built-in catalog.
func Seed() ([]domain.Product, error) {
	return Parse(seedYAML)
}

// LoadFile reads a catalog in the same format from disk.
func LoadFile(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]domain.Product, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(file.Products))
	for i, p := range file.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): price: %w", i, p.Name, err)
		}
		original := decimal.Zero
		if p.OriginalPrice != "" {
			if original, err = decimal.NewFromString(p.OriginalPrice); err != nil {
				return nil, fmt.Errorf("product %d (%s): original_price: %w", i, p.Name, err)
			}
		}
		products = append(products, domain.Product{
			Name:          p.Name,
			Brand:         p.Brand,
			Price:         price,
			OriginalPrice: original,
			Category:      p.Category,
			Size:          p.Size,
			Condition:     p.Condition,
			InStock:       p.InStock,
			Image:         p.Image,
			Images:        p.Images,
			Featured:      p.Featured,
		})
	}
	return products, nil
}
