// Package shopmcp exposes the shop as MCP tools so that other agents can
// browse the catalog, place and track orders, or chat with the bot.
package shopmcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"beautybot/internal/catalog"
	"beautybot/internal/orders"
	"beautybot/internal/router"
	"beautybot/internal/shop"
)

const defaultSession = "mcp"

type ListProductsParams struct{}

type PlaceOrderParams struct {
	Product string `json:"product" mcp:"product name as listed by list_products, e.g. 'Calming Serum'"`
}

type TrackOrderParams struct {
	OrderID string `json:"order_id" mcp:"order id such as BEAUTY1234"`
}

type AskParams struct {
	Message   string `json:"message" mcp:"what the customer says"`
	SessionID string `json:"session_id,omitempty" mcp:"conversation id; messages with the same id share context"`
}

// Chatter is the part of the router ask_beautybot needs.
type Chatter interface {
	Handle(ctx context.Context, req router.Request) (router.Reply, error)
}

type productView struct {
	Name    string `json:"name"`
	Price   int    `json:"price"`
	InStock int    `json:"in_stock"`
}

type orderView struct {
	ID           string `json:"id"`
	Product      string `json:"product"`
	Price        int    `json:"price"`
	Status       string `json:"status"`
	DeliveryDate string `json:"delivery_date"`
}

func newOrderView(o orders.Order) orderView {
	return orderView{ID: o.ID, Product: o.Product, Price: o.Price, Status: string(o.Status), DeliveryDate: o.DeliveryDate}
}

type Tools struct {
	shop *shop.Shop
	chat Chatter
	log  *zap.Logger
}

func New(s *shop.Shop, chat Chatter, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{shop: s, chat: chat, log: logger}
}

// NewServer builds an MCP server with every shop tool registered.
func NewServer(t *Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "beautybot-shop-mcp",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "Lists every product in the catalog with its price in rupees and remaining stock",
	}, t.ListProducts)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "place_order",
		Description: "Places an order for one unit of a product and returns the new order",
	}, t.PlaceOrder)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "track_order",
		Description: "Returns the current status and delivery date of an order",
	}, t.TrackOrder)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_beautybot",
		Description: "Sends a free-form customer message to BeautyBot and returns its reply",
	}, t.Ask)

	return server
}

func (t *Tools) ListProducts(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListProductsParams]) (*mcp.CallToolResultFor[any], error) {
	products := t.shop.Catalog().List()
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{Name: p.Name, Price: p.Price, InStock: p.Stock})
	}
	return jsonResult(views)
}

func (t *Tools) PlaceOrder(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[PlaceOrderParams]) (*mcp.CallToolResultFor[any], error) {
	product := strings.TrimSpace(params.Arguments.Product)
	if product == "" {
		return errorResult("❌ product is required - call list_products to see what is available"), nil
	}

	pl, err := t.shop.Place(product)
	switch {
	case errors.Is(err, catalog.ErrUnknownProduct):
		return errorResult(fmt.Sprintf("❌ No product matches %q", product)), nil
	case errors.Is(err, catalog.ErrOutOfStock):
		return errorResult(fmt.Sprintf("❌ %s is out of stock!", pl.Product.Name)), nil
	case err != nil:
		t.log.Error("mcp place_order failed", zap.String("product", product), zap.Error(err))
		return errorResult(fmt.Sprintf("❌ Failed to place order: %v", err)), nil
	}
	t.log.Info("mcp order placed", zap.String("order_id", pl.Order.ID))
	return jsonResult(newOrderView(pl.Order))
}

func (t *Tools) TrackOrder(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[TrackOrderParams]) (*mcp.CallToolResultFor[any], error) {
	id, ok := orders.ParseOrderID(params.Arguments.OrderID)
	if !ok {
		return errorResult(fmt.Sprintf("❌ %q is not an order id", params.Arguments.OrderID)), nil
	}
	o, err := t.shop.Track(id)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Order %s not found. Please check your order ID.", id)), nil
	}
	return jsonResult(newOrderView(o))
}

func (t *Tools) Ask(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[AskParams]) (*mcp.CallToolResultFor[any], error) {
	sessionID := params.Arguments.SessionID
	if sessionID == "" {
		sessionID = defaultSession
	}
	reply, err := t.chat.Handle(ctx, router.Request{
		SessionID: "mcp:" + sessionID,
		Channel:   "mcp",
		Message:   params.Arguments.Message,
	})
	if errors.Is(err, router.ErrInvalidInput) {
		return errorResult(router.InvalidInputMessage), nil
	}
	if err != nil {
		return nil, err
	}
	text := reply.Text
	if reply.Warning != "" {
		text += "\n\n⚠️ " + reply.Warning
	}
	return textResult(text), nil
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	res := textResult(text)
	res.IsError = true
	return res
}

func jsonResult(v any) (*mcp.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return textResult(string(data)), nil
}
