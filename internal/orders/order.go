package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// IDPrefix starts every order identifier, followed by four digits.
const IDPrefix = "BEAUTY"

// DeliveryDateLayout renders delivery dates like "21 Oct 2026".
const DeliveryDateLayout = "02 Jan 2006"

const deliveryDays = 3

type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
)

// next returns the only status an order may move to from s.
func (s Status) next() (Status, bool) {
	switch s {
	case StatusConfirmed:
		return StatusShipped, true
	case StatusShipped:
		return StatusDelivered, true
	default:
		return s, false
	}
}

// Order is a placed order. The JSON names match the ledger document on disk.
type Order struct {
	ID           string    `json:"-"`
	Product      string    `json:"product"`
	Price        int       `json:"price"`
	Status       Status    `json:"status"`
	DeliveryDate string    `json:"delivery_date"`
	CreatedAt    time.Time `json:"timestamp"`
}

// timestampLayouts are tried in order when reading a stored creation time.
// Ledgers written by older tools carry ISO-8601 timestamps without a zone,
// which are read as local time.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var raw struct {
		plain
		CreatedAt string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := parseTimestamp(raw.CreatedAt)
	if err != nil {
		return err
	}
	*o = Order(raw.plain)
	o.CreatedAt = created
	return nil
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", v)
}

func formatID(n int) string {
	return fmt.Sprintf("%s%04d", IDPrefix, n)
}

// IsOrderID reports whether token looks like an order identifier: the prefix in
// any case followed by one or more ASCII digits.
func IsOrderID(token string) bool {
	if len(token) <= len(IDPrefix) || !strings.EqualFold(token[:len(IDPrefix)], IDPrefix) {
		return false
	}
	for _, r := range token[len(IDPrefix):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseOrderID returns the first order identifier in the utterance, upper-cased.
// Tokens are split on whitespace and stripped of surrounding punctuation, so
// "BEAUTY1234?" and "#BEAUTY1234" are both recognised.
func ParseOrderID(utterance string) (string, bool) {
	for _, word := range strings.Fields(utterance) {
		token := strings.Trim(word, "#?!.,;:'\"()[]")
		if IsOrderID(token) {
			return strings.ToUpper(token), true
		}
	}
	return "", false
}
