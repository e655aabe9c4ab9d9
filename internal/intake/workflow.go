package intake

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Abuqatada01/order-intake/internal/gateway"
	"github.com/Abuqatada01/order-intake/internal/store"
)

var minorFactor = decimal.NewFromInt(100)

// OrderCreator is the slice of the gateway client the workflow needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.RemoteOrder, error)
}

// Options bundles the per-deployment policy of the workflow.
type Options struct {
	Parse ParseOptions
	Build BuildOptions
	// CODAsyncWrite lets cash-on-delivery responses return before the store
	// write confirms. Gateway writes are always awaited: the natural key must
	// be durable before a verification webhook can look it up.
	CODAsyncWrite bool
}

// Workflow runs the intake pipeline: normalize, create the remote order (or
// synthesize a COD key), build the document, upsert by natural key, respond.
type Workflow struct {
	gw   OrderCreator
	repo store.Repository
	log  *zap.Logger
	opts Options
}

func NewWorkflow(gw OrderCreator, repo store.Repository, log *zap.Logger, opts Options) *Workflow {
	return &Workflow{gw: gw, repo: repo, log: log, opts: opts}
}

// Result is the success payload returned to the caller. Persisted is false
// when the store write failed or was deferred; the order itself still stands.
type Result struct {
	Success       bool                 `json:"success"`
	PaymentMethod string               `json:"paymentMethod"`
	OrderID       string               `json:"orderId"`
	Amount        int64                `json:"amount"`
	Currency      string               `json:"currency"`
	GatewayOrder  *gateway.RemoteOrder `json:"gatewayOrder,omitempty"`
	Persisted     bool                 `json:"persisted"`
	DocumentID    string               `json:"documentId,omitempty"`
	StoreError    string               `json:"storeError,omitempty"`
}

// Process handles one intake request. Validation failures return before any
// collaborator call. A store failure after a successful gateway order is
// reported inside a successful Result, never as an error: the charge side
// already happened and the caller must not be told to retry it.
func (w *Workflow) Process(ctx context.Context, raw []byte) (*Result, *Error) {
	req, err := ParseOrderRequest(raw, w.opts.Parse)
	if err != nil {
		return nil, AsError(err)
	}

	var (
		remote     *gateway.RemoteOrder
		naturalKey string
		receipt    string
	)
	if req.PaymentMethod == PayGateway {
		amountMinor := req.Amount.Mul(minorFactor).Round(0).IntPart()
		receipt, err = newReceiptToken()
		if err != nil {
			return nil, Misconfigured("random source unavailable")
		}
		remote, err = w.gw.CreateOrder(ctx, amountMinor, req.Currency, receipt)
		if err != nil {
			if errors.Is(err, gateway.ErrUnavailable) {
				w.log.Warn("gateway order creation failed",
					zap.String("customer_id", req.CustomerID), zap.Error(err))
				// No natural key exists yet, so nothing is written and the
				// client may retry.
				return nil, GatewayDown("payment gateway unavailable, please retry", err)
			}
			return nil, AsError(err)
		}
		naturalKey = remote.ID
	} else {
		naturalKey, err = newCODKey()
		if err != nil {
			return nil, Misconfigured("random source unavailable")
		}
	}

	rec, rep := BuildOrderRecord(req, remote, naturalKey, receipt, time.Now().UTC(), w.opts.Build)
	w.logDataLoss(naturalKey, rep)

	res := &Result{
		Success:       true,
		PaymentMethod: req.PaymentMethod,
		OrderID:       naturalKey,
		Amount:        rec.AmountMinorUnits,
		Currency:      rec.Currency,
		GatewayOrder:  remote,
	}

	if remote == nil && w.opts.CODAsyncWrite {
		// No money moved; acceptable to answer before the write confirms.
		go func() {
			wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, _, err := store.Upsert(wctx, w.repo, rec); err != nil {
				w.log.Error("deferred cod write failed",
					zap.String("natural_key", naturalKey), zap.Error(err))
			}
		}()
		return res, nil
	}

	// The record must persist even if the caller already disconnected: for
	// gateway payments money may have moved upstream.
	docID, created, perr := store.Upsert(context.WithoutCancel(ctx), w.repo, rec)
	if perr != nil {
		if remote == nil {
			return nil, StoreFailed("could not persist order", perr)
		}
		w.log.Error("store write failed after gateway order creation",
			zap.String("natural_key", naturalKey), zap.Error(perr))
		res.StoreError = string(KindStoreWriteFailed)
		return res, nil
	}
	if !created {
		w.log.Info("duplicate intake merged into existing record",
			zap.String("natural_key", naturalKey), zap.String("document_id", docID))
	}
	res.Persisted = true
	res.DocumentID = docID
	return res, nil
}

func (w *Workflow) logDataLoss(key string, rep BuildReport) {
	if rep.SummaryTruncated {
		w.log.Warn("line items summary truncated",
			zap.String("natural_key", key),
			zap.Int("full_len", rep.SummaryFullLen),
			zap.Int("limit", w.opts.Build.withDefaults().SummaryMaxLen))
	}
	if rep.ItemsFullOmitted {
		w.log.Warn("line items backup omitted, over size cap",
			zap.String("natural_key", key), zap.Int("bytes", rep.ItemsFullBytes))
	}
	if rep.ShippingOmitted {
		w.log.Warn("shipping backup omitted, over size cap",
			zap.String("natural_key", key))
	}
	if rep.PostalDropped {
		w.log.Warn("postal code has no digits, field omitted",
			zap.String("natural_key", key), zap.String("raw", rep.PostalRaw))
	}
}

func randDigits() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]) % 1000000, nil
}

// newReceiptToken is unique per attempt so gateway-side dedupe never collides
// across retries of the same logical order.
func newReceiptToken() (string, error) {
	n, err := randDigits()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rcpt_%d_%06d", time.Now().UnixNano(), n), nil
}

// newCODKey synthesizes the natural key for pay-on-delivery orders.
func newCODKey() (string, error) {
	n, err := randDigits()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("cod_%d_%06d", time.Now().UnixMilli(), n), nil
}
