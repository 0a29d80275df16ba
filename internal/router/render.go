package router

import (
	"fmt"
	"strings"

	"beautybot/internal/catalog"
	"beautybot/internal/orders"
)

var statusIcons = map[orders.Status]string{
	orders.StatusConfirmed: "🟡",
	orders.StatusShipped:   "🚚",
	orders.StatusDelivered: "✅",
}

func statusIcon(s orders.Status) string {
	if icon, ok := statusIcons[s]; ok {
		return icon
	}
	return "🟠"
}

func renderStatus(o orders.Order) string {
	text := fmt.Sprintf("%s Order #%s\n📦 Product: %s\n🔄 Status: %s\n📅 Delivery: %s",
		statusIcon(o.Status), o.ID, o.Product, o.Status, o.DeliveryDate)
	if o.Status == orders.StatusDelivered {
		text += "\n🎉 Your order has been delivered!"
	}
	return text
}

func renderNotFound(id string) string {
	if id == "" {
		id = "#"
	}
	return fmt.Sprintf("❌ Order %s not found. Please check your order ID.", id)
}

func renderConfirmation(p catalog.Product, o orders.Order) string {
	return fmt.Sprintf("✅ Order #%s Confirmed!\n📦 %s\n💳 ₹%d\n📅 Estimated Delivery: %s\n🔗 Track with: 'Where is order %s?'",
		o.ID, p.Name, p.Price, o.DeliveryDate, o.ID)
}

func renderOutOfStock(p catalog.Product) string {
	return fmt.Sprintf("❌ %s is out of stock!", p.Name)
}

func renderUnknownProduct(products []catalog.Product) string {
	var b strings.Builder
	b.WriteString("Sorry, I couldn't find the product in your request.\n")
	b.WriteString("Available products:\n")
	b.WriteString(catalog.Listing(products))
	b.WriteString("\nSay 'order [product name]' to place an order.")
	return b.String()
}

func renderBrowse(products []catalog.Product) string {
	return "Available products:\n" + catalog.Listing(products)
}
