package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 10)
	assert.Equal(t, "Hydrating Milky Cleanser", list[0].Name)
	assert.Equal(t, 399, list[0].Price)
	assert.Equal(t, 50, list[0].Stock)
	assert.Equal(t, "Barrier Repair Cream", list[9].Name)
}

func TestFind(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	p, ok := s.Find("order Hydrating Milky Cleanser please")
	require.True(t, ok)
	assert.Equal(t, "1) Hydrating Milky Cleanser", p.Key)

	p, ok = s.Find("BUY CALMING SERUM")
	require.True(t, ok)
	assert.Equal(t, "Calming Serum", p.Name)

	// key text matches too
	p, ok = s.Find("order 6) multi vitamin serum")
	require.True(t, ok)
	assert.Equal(t, "Multi-Vitamin Serum", p.Name)

	_, ok = s.Find("order sunscreen")
	assert.False(t, ok)
}

func TestFindFirstMatchWins(t *testing.T) {
	s, err := NewStore([]Product{
		{Key: "a", Name: "Serum", Price: 1, Stock: 1},
		{Key: "b", Name: "Calming Serum", Price: 2, Stock: 1},
	})
	require.NoError(t, err)

	p, ok := s.Find("buy calming serum")
	require.True(t, ok)
	assert.Equal(t, "a", p.Key)
}

func TestDecrementStock(t *testing.T) {
	s, err := NewStore([]Product{{Key: "x", Name: "X", Price: 10, Stock: 1}})
	require.NoError(t, err)

	require.NoError(t, s.DecrementStock("x"))
	p, _ := s.Get("x")
	assert.Equal(t, 0, p.Stock)

	err = s.DecrementStock("x")
	assert.ErrorIs(t, err, ErrOutOfStock)
	p, _ = s.Get("x")
	assert.Equal(t, 0, p.Stock)

	assert.ErrorIs(t, s.DecrementStock("nope"), ErrUnknownProduct)
}

func TestTakeStockOnlyTakesWhenCommitSucceeds(t *testing.T) {
	s, err := NewStore([]Product{{Key: "x", Name: "X", Price: 10, Stock: 2}})
	require.NoError(t, err)

	boom := errors.New("ledger full")
	_, err = s.TakeStock("x", func(Product) error { return boom })
	require.ErrorIs(t, err, boom)
	p, _ := s.Get("x")
	assert.Equal(t, 2, p.Stock)

	var seen Product
	p, err = s.TakeStock("x", func(p Product) error { seen = p; return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, seen.Stock)
	assert.Equal(t, 1, p.Stock)

	called := false
	s2, _ := NewStore([]Product{{Key: "y", Name: "Y", Stock: 0}})
	_, err = s2.TakeStock("y", func(Product) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.False(t, called, "commit must not run without stock")
}

func TestListReturnsCopy(t *testing.T) {
	s, err := NewStore([]Product{{Key: "x", Name: "X", Price: 10, Stock: 3}})
	require.NoError(t, err)

	list := s.List()
	list[0].Stock = 0
	p, _ := s.Get("x")
	assert.Equal(t, 3, p.Stock)
}

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore([]Product{{Key: "x", Name: "X"}, {Key: "x", Name: "Y"}})
	assert.Error(t, err)
	_, err = NewStore([]Product{{Key: "x", Name: "X", Stock: -1}})
	assert.Error(t, err)
	_, err = NewStore([]Product{{Key: "", Name: "X"}})
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	doc := `products:
  - {key: "k1", name: "Gel", price: 100, stock: 2}
  - {key: "k2", name: "Cream", price: 200, stock: 0}
`
	s, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Gel", "Cream"}, s.Names())
}

func TestListing(t *testing.T) {
	out := Listing([]Product{
		{Name: "Gel", Price: 100},
		{Name: "Cream", Price: 200},
	})
	assert.Equal(t, "- Gel (₹100)\n- Cream (₹200)", out)
}
