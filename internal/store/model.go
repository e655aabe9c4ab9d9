package store

import "time"

// Order statuses as persisted. Intake writes created/pending; the payment
// verification workflow moves records to paid/failed/cancelled later.
const (
	StatusCreated   = "created"
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// OrderRecord is the persisted order document. NaturalKey is the gateway
// order id, or the synthesized cod_ token for cash-on-delivery; the store
// keeps at most one record per natural key.
type OrderRecord struct {
	NaturalKey       string `json:"natural_key"`
	CustomerID       string `json:"customer_id"`
	Status           string `json:"status"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
	PaymentMethod    string `json:"payment_method"`
	GatewayOrderID   string `json:"gateway_order_id,omitempty"`
	ReceiptToken     string `json:"receipt_token,omitempty"`

	// Bounded human-readable item summary plus the full backup blobs. The
	// backups are absent (not truncated) when they exceed the size cap.
	LineItemsSummary string `json:"line_items_summary,omitempty"`
	LineItemsFull    string `json:"line_items_full,omitempty"`
	ShippingFull     string `json:"shipping_full,omitempty"`

	// Flattened fields of the primary shipping address.
	ShipName    string `json:"ship_name,omitempty"`
	ShipLine1   string `json:"ship_line1,omitempty"`
	ShipLine2   string `json:"ship_line2,omitempty"`
	ShipCity    string `json:"ship_city,omitempty"`
	ShipState   string `json:"ship_state,omitempty"`
	ShipCountry string `json:"ship_country,omitempty"`
	ShipPhone   string `json:"ship_phone,omitempty"`
	// Integer-typed at the store; omitted when the raw value has no digits.
	ShipPostalCode *int64 `json:"ship_postal_code,omitempty"`

	Variant string `json:"variant,omitempty"`

	// Owned by the payment verification workflow. Intake never writes them
	// and the merge-update path never clobbers them.
	PaymentID     string     `json:"payment_id,omitempty"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	SignatureOK   *bool      `json:"signature_ok,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
