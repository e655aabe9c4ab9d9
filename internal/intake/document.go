package intake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Abuqatada01/order-intake/internal/gateway"
	"github.com/Abuqatada01/order-intake/internal/store"
)

// Defaults for the store's schema constraints: short string attributes are
// capped, and oversized backup blobs are dropped whole rather than truncated.
const (
	DefaultSummaryMaxLen = 490
	DefaultFullMaxBytes  = 10 * 1024
	truncationMarker     = "..."
)

// BuildOptions carries the store schema limits.
type BuildOptions struct {
	SummaryMaxLen int
	FullMaxBytes  int
}

func (o BuildOptions) withDefaults() BuildOptions {
	// A limit that cannot even hold the truncation marker is a
	// misconfiguration, not a policy; fall back to the default.
	if o.SummaryMaxLen <= len(truncationMarker) {
		o.SummaryMaxLen = DefaultSummaryMaxLen
	}
	if o.FullMaxBytes <= 0 {
		o.FullMaxBytes = DefaultFullMaxBytes
	}
	return o
}

// BuildReport flags every lossy decision the builder made, so the caller can
// log them. Loss is never silent.
type BuildReport struct {
	SummaryTruncated bool
	SummaryFullLen   int
	ItemsFullOmitted bool
	ItemsFullBytes   int
	ShippingOmitted  bool
	PostalDropped    bool
	PostalRaw        string
}

// BuildOrderRecord maps a normalized request plus the gateway result into a
// storage-safe document. remote is nil for cash-on-delivery; naturalKey is
// then the synthesized cod_ token. Pure: no I/O, no clock beyond now.
func BuildOrderRecord(req *OrderRequest, remote *gateway.RemoteOrder, naturalKey, receipt string, now time.Time, opts BuildOptions) (*store.OrderRecord, BuildReport) {
	opts = opts.withDefaults()
	var rep BuildReport

	rec := &store.OrderRecord{
		NaturalKey:    naturalKey,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		ReceiptToken:  receipt,
		Variant:       req.Variant,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if remote != nil {
		// The gateway amount is authoritative; the client amount only fed
		// the order creation call.
		rec.Status = store.StatusCreated
		rec.GatewayOrderID = remote.ID
		rec.AmountMinorUnits = remote.Amount
		rec.Currency = remote.Currency
		if rec.Currency == "" {
			rec.Currency = req.Currency
		}
	} else {
		rec.Status = store.StatusPending
		rec.Currency = req.Currency
		if !req.Amount.IsZero() {
			rec.AmountMinorUnits = req.Amount.Mul(minorFactor).Round(0).IntPart()
		}
	}

	rec.LineItemsSummary, rep.SummaryTruncated, rep.SummaryFullLen =
		renderSummary(req.LineItems, opts.SummaryMaxLen)

	if len(req.LineItems) > 0 {
		full, _ := json.Marshal(req.LineItems)
		rep.ItemsFullBytes = len(full)
		if len(full) > opts.FullMaxBytes {
			rep.ItemsFullOmitted = true
		} else {
			rec.LineItemsFull = string(full)
		}
	}

	if addr := req.Primary(); addr != nil {
		rec.ShipName = addr.Name
		rec.ShipLine1 = addr.Line1
		rec.ShipLine2 = addr.Line2
		rec.ShipCity = addr.City
		rec.ShipState = addr.State
		rec.ShipCountry = addr.Country
		rec.ShipPhone = addr.Phone
		if pc, ok := coerceDigits(addr.PostalCode); ok {
			rec.ShipPostalCode = &pc
		} else if addr.PostalCode != "" {
			rep.PostalDropped = true
			rep.PostalRaw = addr.PostalCode
		}

		full, _ := json.Marshal(req.Addresses)
		if len(full) > opts.FullMaxBytes {
			rep.ShippingOmitted = true
		} else {
			rec.ShippingFull = string(full)
		}
	}

	return rec, rep
}

// renderSummary produces the bounded "name (variant) - price" labels. When
// the joined form exceeds max it is cut to exactly max characters including
// the marker.
func renderSummary(items []LineItem, max int) (string, bool, int) {
	if len(items) == 0 {
		return "", false, 0
	}
	labels := make([]string, 0, len(items))
	for i, it := range items {
		labels = append(labels, itemLabel(i, it))
	}
	s := strings.Join(labels, "; ")
	full := len([]rune(s))
	if full <= max {
		return s, false, full
	}
	runes := []rune(s)
	cut := max - len(truncationMarker)
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + truncationMarker, true, full
}

func itemLabel(i int, it LineItem) string {
	name := it.DisplayName
	if name == "" {
		name = it.ProductRef
	}
	if name == "" {
		// Nothing identifies this item; keep a positional placeholder so the
		// summary still reflects the order's shape.
		name = fmt.Sprintf("item-%d", i+1)
	}
	var b strings.Builder
	b.WriteString(name)
	if it.Variant != "" {
		b.WriteString(" (" + it.Variant + ")")
	}
	if it.UnitPrice.String() != "" {
		b.WriteString(" - " + it.UnitPrice.String())
	}
	if it.Quantity > 1 {
		b.WriteString(fmt.Sprintf(" x%d", it.Quantity))
	}
	return b.String()
}

// coerceDigits strips everything but digits. An empty result means the field
// must be omitted, never stored as zero.
func coerceDigits(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		// More digits than int64 holds; treat like no usable value.
		return 0, false
	}
	return n, true
}
