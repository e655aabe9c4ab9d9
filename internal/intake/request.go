package intake

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Payment methods accepted at intake.
const (
	PayGateway        = "gateway"
	PayCashOnDelivery = "cash_on_delivery"
)

// CreateOrderRequest is the wire shape of the intake payload.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Amount          json.RawMessage `json:"amount" swaggertype:"number" example:"499.50"`
	Currency        string          `json:"currency" example:"INR"`
	CustomerID      string          `json:"customerId" example:"u1"`
	LineItems       []LineItem      `json:"lineItems"`
	PaymentMethod   string          `json:"paymentMethod" example:"gateway"`
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	PrimaryIndex    *int            `json:"shippingPrimaryIndex"`
	// Payload carries a legacy client shape: the whole request JSON-encoded
	// once more inside this field. Unwrapped a single level, then rejected.
	Payload string `json:"payload,omitempty"`
}

// LineItem is one purchased item. Nothing is required; a fully empty item
// degrades to a placeholder label instead of aborting the request.
type LineItem struct {
	ProductRef  string `json:"productRef,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	UnitPrice   Price  `json:"unitPrice,omitempty" swaggertype:"number"`
	Quantity    int    `json:"quantity,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

// Price tolerates both numeric and quoted-numeric JSON, like the top-level
// amount field: a client that sends "499.50" must not fail the whole decode.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	*p = Price(b)
	return nil
}

func (p Price) String() string { return string(p) }

// Address is one shipping address. PostalCode stays a string here; integer
// coercion happens at document-build time.
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// OrderRequest is the validated, normalized form consumed by the workflow.
type OrderRequest struct {
	Amount        decimal.Decimal // zero for COD
	Currency      string
	CustomerID    string
	LineItems     []LineItem
	PaymentMethod string
	Addresses     []Address // empty when no shipping address was sent
	PrimaryIndex  int       // clamped into [0, len(Addresses)-1]
	Variant       string    // first non-empty line-item variant
}

// Primary returns the address designated for flattened-field extraction.
func (r *OrderRequest) Primary() *Address {
	if len(r.Addresses) == 0 {
		return nil
	}
	return &r.Addresses[r.PrimaryIndex]
}

// ParseOptions holds the policy knobs of the normalizer.
type ParseOptions struct {
	RequireShipping bool // physical-goods policy: reject without an address
	RequireVariant  bool // reject when no line item carries a variant
}

// ParseOrderRequest converts a raw body into a validated OrderRequest. It is
// a pure transform: no I/O, and it must be called before any collaborator so
// validation failures provably cause zero external calls.
func ParseOrderRequest(raw []byte, opts ParseOptions) (*OrderRequest, error) {
	wire, err := decodeWire(raw)
	if err != nil {
		return nil, err
	}

	if wire.CustomerID == "" {
		return nil, Invalid("customerId is required")
	}

	method := wire.PaymentMethod
	switch method {
	case "":
		method = PayGateway
	case PayGateway, PayCashOnDelivery:
	default:
		return nil, Invalid("paymentMethod must be \"gateway\" or \"cash_on_delivery\"")
	}

	var amount decimal.Decimal
	if method == PayGateway {
		lit := amountLiteral(wire.Amount)
		if lit == "" {
			return nil, Invalid("amount is required for gateway payments")
		}
		amount, err = decimal.NewFromString(lit)
		if err != nil {
			return nil, Invalid("amount must be numeric")
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, Invalid("amount must be greater than zero")
		}
	}

	currency := wire.Currency
	if currency == "" {
		currency = "INR"
	}

	addrs, err := decodeAddresses(wire.ShippingAddress)
	if err != nil {
		return nil, err
	}
	if opts.RequireShipping && len(addrs) == 0 {
		return nil, Invalid("shippingAddress is required")
	}

	items := wire.LineItems
	for i := range items {
		if items[i].Quantity <= 0 {
			items[i].Quantity = 1
		}
	}

	variant := ""
	for _, it := range items {
		if it.Variant != "" {
			variant = it.Variant
			break
		}
	}
	if variant == "" && opts.RequireVariant {
		return nil, Invalid("no line item carries a variant")
	}

	primary := 0
	if wire.PrimaryIndex != nil {
		primary = *wire.PrimaryIndex
	}
	if primary < 0 {
		primary = 0
	}
	if n := len(addrs); n > 0 && primary >= n {
		primary = n - 1
	}

	return &OrderRequest{
		Amount:        amount,
		Currency:      currency,
		CustomerID:    wire.CustomerID,
		LineItems:     items,
		PaymentMethod: method,
		Addresses:     addrs,
		PrimaryIndex:  primary,
		Variant:       variant,
	}, nil
}

// decodeWire extracts the wire struct, unwrapping at most one level of
// double-encoding: a body that is itself a JSON string, or a body whose
// "payload" field holds the real request JSON-encoded as a string.
func decodeWire(raw []byte) (*CreateOrderRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, Malformed("empty body", nil)
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, Malformed("body is not a JSON object", err)
		}
		raw = []byte(inner)
		if len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '{' {
			return nil, Malformed("body is not a JSON object", nil)
		}
	}

	var wire CreateOrderRequest
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, Malformed("body is not a JSON object", err)
	}
	if wire.Payload != "" {
		var inner CreateOrderRequest
		if err := json.Unmarshal([]byte(wire.Payload), &inner); err != nil {
			return nil, Malformed("payload field is not valid JSON", err)
		}
		if inner.Payload != "" {
			// One level only; nested wrappers are a client defect.
			return nil, Malformed("payload field is nested more than one level", nil)
		}
		wire = inner
	}
	return &wire, nil
}

// amountLiteral turns the raw amount field into a parseable literal. Clients
// send numbers and quoted numbers; both feed the same decimal parse, so a
// quoted "abc" is a validation defect rather than a malformed body.
func amountLiteral(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return string(trimmed)
		}
		return s
	}
	return string(trimmed)
}

// decodeAddresses accepts a single object or a sequence and always returns a
// sequence, so the primary-index selection has one shape to work with.
func decodeAddresses(raw json.RawMessage) ([]Address, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var addrs []Address
		if err := json.Unmarshal(trimmed, &addrs); err != nil {
			return nil, Malformed("shippingAddress is not a valid address list", err)
		}
		return addrs, nil
	case '{':
		var a Address
		if err := json.Unmarshal(trimmed, &a); err != nil {
			return nil, Malformed("shippingAddress is not a valid address", err)
		}
		return []Address{a}, nil
	default:
		return nil, Malformed("shippingAddress must be an object or an array", nil)
	}
}
