// Package catalog holds the fixed product table the shop sells from.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrOutOfStock     = errors.New("product is out of stock")
	ErrUnknownProduct = errors.New("unknown product")
)

// Product is a single catalog entry. Price is in whole rupees.
type Product struct {
	Key   string `yaml:"key"`
	Name  string `yaml:"name"`
	Price int    `yaml:"price"`
	Stock int    `yaml:"stock"`
}

type document struct {
	Products []Product `yaml:"products"`
}

// Store is an ordered, process-lifetime product table. The order of products is
// the order they were loaded in and is used for both matching and listing.
type Store struct {
	mu       sync.RWMutex
	products []Product
	index    map[string]int
}

func NewStore(products []Product) (*Store, error) {
	s := &Store{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if strings.TrimSpace(p.Key) == "" {
			return nil, fmt.Errorf("product %q: empty key", p.Name)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product %q: empty name", p.Key)
		}
		if p.Price < 0 || p.Stock < 0 {
			return nil, fmt.Errorf("product %q: negative price or stock", p.Key)
		}
		if _, dup := s.index[p.Key]; dup {
			return nil, fmt.Errorf("product %q: duplicate key", p.Key)
		}
		s.index[p.Key] = len(s.products)
		s.products = append(s.products, p)
	}
	return s, nil
}

// Load parses a YAML catalog document.
func Load(r io.Reader) (*Store, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewStore(doc.Products)
}

// LoadFile loads the catalog at path, or the built-in catalog when path is empty.
func LoadFile(path string) (*Store, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns a fresh store seeded with the built-in catalog.
func Default() (*Store, error) {
	return Load(strings.NewReader(string(defaultCatalog)))
}

// Find returns the first product whose key or name occurs in the utterance,
// compared case-insensitively. This is plain substring containment.
func (s *Store) Find(utterance string) (Product, bool) {
	lower := strings.ToLower(utterance)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if strings.Contains(lower, strings.ToLower(p.Key)) || strings.Contains(lower, strings.ToLower(p.Name)) {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Store) Get(key string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[key]
	if !ok {
		return Product{}, false
	}
	return s.products[i], true
}

// DecrementStock takes one unit of the product out of stock.
func (s *Store) DecrementStock(key string) error {
	_, err := s.TakeStock(key, nil)
	return err
}

// TakeStock removes one unit of the product, running commit first while the
// store is locked. The unit is only taken when commit succeeds, so whatever
// commit records and the stock change happen together or not at all. The
// returned product carries the stock left after the take.
func (s *Store) TakeStock(key string, commit func(Product) error) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[key]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, key)
	}
	p := s.products[i]
	if p.Stock <= 0 {
		return p, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}
	if commit != nil {
		if err := commit(p); err != nil {
			return p, err
		}
	}
	s.products[i].Stock--
	return s.products[i], nil
}

func (s *Store) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Names returns product display names in catalog order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Name)
	}
	return out
}

// Listing renders products one per line as "- {name} (₹{price})".
func Listing(products []Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s (₹%d)", p.Name, p.Price))
	}
	return strings.Join(lines, "\n")
}
