package shopmcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybot/internal/catalog"
	"beautybot/internal/orders"
	"beautybot/internal/router"
	"beautybot/internal/shop"
)

type fakeChatter struct {
	requests []router.Request
}

func (f *fakeChatter) Handle(_ context.Context, req router.Request) (router.Reply, error) {
	if req.Message == "" {
		return router.Reply{}, router.ErrInvalidInput
	}
	f.requests = append(f.requests, req)
	return router.Reply{Text: "echo: " + req.Message, Warning: "degraded"}, nil
}

func newTools(t *testing.T) (*Tools, *fakeChatter) {
	t.Helper()
	c, err := catalog.NewStore([]catalog.Product{
		{Key: "1) Calming Serum", Name: "Calming Serum", Price: 899, Stock: 1},
		{Key: "2) Barrier Repair Cream", Name: "Barrier Repair Cream", Price: 649, Stock: 0},
	})
	require.NoError(t, err)
	ledger := orders.NewLedger(nil, nil, orders.WithRandom(nil, func() float64 { return 0.99 }))
	chat := &fakeChatter{}
	return New(shop.New(c, ledger, nil), chat, nil), chat
}

func text(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListProducts(t *testing.T) {
	tools, _ := newTools(t)

	res, err := tools.ListProducts(context.Background(), nil, &mcp.CallToolParamsFor[ListProductsParams]{})
	require.NoError(t, err)

	var got []productView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, []productView{
		{Name: "Calming Serum", Price: 899, InStock: 1},
		{Name: "Barrier Repair Cream", Price: 649, InStock: 0},
	}, got)
}

func TestPlaceAndTrackOrder(t *testing.T) {
	tools, _ := newTools(t)
	ctx := context.Background()

	res, err := tools.PlaceOrder(ctx, nil, &mcp.CallToolParamsFor[PlaceOrderParams]{Arguments: PlaceOrderParams{Product: "calming serum"}})
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var placed orderView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &placed))
	assert.Regexp(t, `^BEAUTY\d{4}$`, placed.ID)
	assert.Equal(t, "Confirmed", placed.Status)
	assert.Equal(t, 899, placed.Price)

	res, err = tools.TrackOrder(ctx, nil, &mcp.CallToolParamsFor[TrackOrderParams]{Arguments: TrackOrderParams{OrderID: placed.ID}})
	require.NoError(t, err)
	var tracked orderView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &tracked))
	assert.Equal(t, placed, tracked)

	// last unit is gone now
	res, err = tools.PlaceOrder(ctx, nil, &mcp.CallToolParamsFor[PlaceOrderParams]{Arguments: PlaceOrderParams{Product: "Calming Serum"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "❌ Calming Serum is out of stock!", text(t, res))
}

func TestPlaceOrderErrors(t *testing.T) {
	tools, _ := newTools(t)
	ctx := context.Background()

	for _, product := range []string{"", "unicorn dust", "Barrier Repair Cream"} {
		res, err := tools.PlaceOrder(ctx, nil, &mcp.CallToolParamsFor[PlaceOrderParams]{Arguments: PlaceOrderParams{Product: product}})
		require.NoError(t, err)
		assert.True(t, res.IsError, product)
	}
	assert.Zero(t, tools.shop.Ledger().Len())
}

func TestTrackOrderErrors(t *testing.T) {
	tools, _ := newTools(t)
	ctx := context.Background()

	res, err := tools.TrackOrder(ctx, nil, &mcp.CallToolParamsFor[TrackOrderParams]{Arguments: TrackOrderParams{OrderID: "12345"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tools.TrackOrder(ctx, nil, &mcp.CallToolParamsFor[TrackOrderParams]{Arguments: TrackOrderParams{OrderID: "beauty9999"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "BEAUTY9999")
}

func TestAsk(t *testing.T) {
	tools, chat := newTools(t)
	ctx := context.Background()

	res, err := tools.Ask(ctx, nil, &mcp.CallToolParamsFor[AskParams]{Arguments: AskParams{Message: "hi", SessionID: "agent-1"}})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi\n\n⚠️ degraded", text(t, res))
	require.Len(t, chat.requests, 1)
	assert.Equal(t, "mcp:agent-1", chat.requests[0].SessionID)
	assert.Equal(t, "mcp", chat.requests[0].Channel)

	res, err = tools.Ask(ctx, nil, &mcp.CallToolParamsFor[AskParams]{Arguments: AskParams{}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, router.InvalidInputMessage, text(t, res))
}

func TestNewServer(t *testing.T) {
	tools, _ := newTools(t)
	assert.NotNil(t, NewServer(tools, "test"))
}
