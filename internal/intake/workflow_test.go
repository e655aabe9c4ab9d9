package intake

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Abuqatada01/order-intake/internal/gateway"
	"github.com/Abuqatada01/order-intake/internal/store"
)

// fakeGateway implements OrderCreator in memory.
type fakeGateway struct {
	calls int
	out   *gateway.RemoteOrder
	err   error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.RemoteOrder, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := *f.out
	out.Receipt = receipt
	return &out, nil
}

func newTestWorkflow(gw *fakeGateway, repo store.Repository, opts Options) *Workflow {
	return NewWorkflow(gw, repo, zap.NewNop(), opts)
}

func TestProcess_GatewayHappyPath(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{out: &gateway.RemoteOrder{ID: "order_abc", Amount: 49950, Currency: "INR"}}
	repo := store.NewMemRepo()
	wf := newTestWorkflow(gw, repo, Options{})

	body := `{"amount": 499.50, "customerId":"u1", "paymentMethod":"gateway",
		"lineItems":[{"displayName":"Shirt", "unitPrice":499.50, "quantity":1, "variant":"M"}]}`
	res, werr := wf.Process(context.Background(), []byte(body))
	if werr != nil {
		t.Fatalf("unexpected error: %v", werr)
	}

	if !res.Success || res.OrderID != "order_abc" || res.Amount != 49950 {
		t.Fatalf("bad result: %+v", res)
	}
	if !res.Persisted || res.DocumentID == "" {
		t.Fatalf("gateway write must be awaited and confirmed: %+v", res)
	}
	rec := repo.Get("order_abc")
	if rec == nil {
		t.Fatal("no record stored")
	}
	if rec.AmountMinorUnits != 49950 {
		t.Fatalf("amount=%d, want gateway value 49950", rec.AmountMinorUnits)
	}
	if rec.Status != store.StatusCreated {
		t.Fatalf("status=%s, want created", rec.Status)
	}
	if rec.Variant != "M" {
		t.Fatalf("variant=%s, want M", rec.Variant)
	}
}

func TestProcess_ValidationMakesZeroCalls(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{out: &gateway.RemoteOrder{ID: "o", Amount: 1, Currency: "INR"}}
	repo := store.NewMemRepo()
	wf := newTestWorkflow(gw, repo, Options{})

	_, werr := wf.Process(context.Background(), []byte(`{"amount":10}`))
	if werr == nil || werr.Kind != KindValidationError {
		t.Fatalf("want ValidationError, got %v", werr)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway called %d times, want 0", gw.calls)
	}
	if repo.FindCalls+repo.InsertCalls+repo.UpdateCalls != 0 {
		t.Fatal("store touched on validation failure")
	}
}

func TestProcess_GatewayDownNoWrite(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{err: gateway.ErrUnavailable}
	repo := store.NewMemRepo()
	wf := newTestWorkflow(gw, repo, Options{})

	_, werr := wf.Process(context.Background(), []byte(`{"amount":10,"customerId":"u1"}`))
	if werr == nil || werr.Kind != KindGatewayUnavailable {
		t.Fatalf("want GatewayUnavailable, got %v", werr)
	}
	if !werr.Retryable {
		t.Fatal("gateway failure must be retryable, no order exists upstream")
	}
	if repo.Len() != 0 {
		t.Fatalf("documents written: %d, want 0", repo.Len())
	}
}

func TestProcess_DuplicateIntakeUpdatesNotInserts(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{out: &gateway.RemoteOrder{ID: "order_dup", Amount: 1000, Currency: "INR"}}
	repo := store.NewMemRepo()
	wf := newTestWorkflow(gw, repo, Options{})

	body := []byte(`{"amount":10,"customerId":"u1"}`)
	if _, werr := wf.Process(context.Background(), body); werr != nil {
		t.Fatalf("first intake: %v", werr)
	}

	// Simulate a verification that landed between the two deliveries.
	rec := repo.Get("order_dup")
	rec.Status = store.StatusPaid
	rec.PaymentID = "pay_1"
	mustSeed(t, repo, "order_dup", rec)

	if _, werr := wf.Process(context.Background(), body); werr != nil {
		t.Fatalf("second intake: %v", werr)
	}

	if repo.Len() != 1 {
		t.Fatalf("records=%d, want exactly 1", repo.Len())
	}
	if repo.InsertCalls != 1 || repo.UpdateCalls < 1 {
		t.Fatalf("second delivery must update, not insert (inserts=%d updates=%d)",
			repo.InsertCalls, repo.UpdateCalls)
	}
	got := repo.Get("order_dup")
	if got.PaymentID != "pay_1" || got.Status != store.StatusPaid {
		t.Fatalf("verification fields clobbered: %+v", got)
	}
}

func TestProcess_StoreFailureAfterGatewayIsPartialSuccess(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{out: &gateway.RemoteOrder{ID: "order_x", Amount: 500, Currency: "INR"}}
	repo := store.NewMemRepo()
	repo.FailInsert = errors.New("store down")
	wf := newTestWorkflow(gw, repo, Options{})

	res, werr := wf.Process(context.Background(), []byte(`{"amount":5,"customerId":"u1"}`))
	if werr != nil {
		t.Fatalf("charge already exists upstream, must not error: %v", werr)
	}
	if !res.Success || res.Persisted {
		t.Fatalf("want success with persisted=false, got %+v", res)
	}
	if res.StoreError != string(KindStoreWriteFailed) {
		t.Fatalf("store error not surfaced: %+v", res)
	}
	if res.OrderID != "order_x" {
		t.Fatalf("gateway order must still be reported: %+v", res)
	}
}

var codKeyPattern = regexp.MustCompile(`^cod_\d+_\d+$`)

func TestProcess_CashOnDelivery(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{out: &gateway.RemoteOrder{ID: "never", Amount: 1, Currency: "INR"}}
	repo := store.NewMemRepo()
	wf := newTestWorkflow(gw, repo, Options{})

	res, werr := wf.Process(context.Background(),
		[]byte(`{"customerId":"u1","paymentMethod":"cash_on_delivery"}`))
	if werr != nil {
		t.Fatalf("unexpected error: %v", werr)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway called %d times for COD, want 0", gw.calls)
	}
	if !codKeyPattern.MatchString(res.OrderID) {
		t.Fatalf("orderId=%q, want cod_<digits>_<digits>", res.OrderID)
	}
	rec := repo.Get(res.OrderID)
	if rec == nil {
		t.Fatal("cod record not stored")
	}
	if rec.Status != store.StatusPending {
		t.Fatalf("status=%s, want pending", rec.Status)
	}
}

func TestProcess_CODStoreFailureIsError(t *testing.T) {
	t.Parallel()

	repo := store.NewMemRepo()
	repo.FailInsert = errors.New("store down")
	wf := newTestWorkflow(&fakeGateway{}, repo, Options{})

	_, werr := wf.Process(context.Background(),
		[]byte(`{"customerId":"u1","paymentMethod":"cash_on_delivery"}`))
	if werr == nil || werr.Kind != KindStoreWriteFailed {
		t.Fatalf("no money moved, store failure must fail the request: %v", werr)
	}
}

// ctxRepo rejects any operation whose context is already dead, like a real
// store client would. MemRepo alone never looks at the context.
type ctxRepo struct{ *store.MemRepo }

func (c *ctxRepo) FindByKey(ctx context.Context, key string) (string, *store.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	return c.MemRepo.FindByKey(ctx, key)
}

func (c *ctxRepo) Insert(ctx context.Context, rec *store.OrderRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.MemRepo.Insert(ctx, rec)
}

func (c *ctxRepo) Update(ctx context.Context, id string, rec *store.OrderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.MemRepo.Update(ctx, id, rec)
}

func TestProcess_PersistsAfterCallerDisconnect(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{out: &gateway.RemoteOrder{ID: "order_gone", Amount: 1000, Currency: "INR"}}
	repo := &ctxRepo{store.NewMemRepo()}
	wf := newTestWorkflow(gw, repo, Options{})

	// The caller hung up; money may still have moved upstream, so the
	// record must be written on a context that outlives the request.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, werr := wf.Process(ctx, []byte(`{"amount":10,"customerId":"u1"}`))
	if werr != nil {
		t.Fatalf("unexpected error: %v", werr)
	}
	if !res.Persisted {
		t.Fatalf("record must persist despite disconnect: %+v", res)
	}
	if repo.Get("order_gone") == nil {
		t.Fatal("no record stored after disconnect")
	}
}

func TestProcess_CODAsyncWriteLands(t *testing.T) {
	t.Parallel()

	repo := store.NewMemRepo()
	wf := newTestWorkflow(&fakeGateway{}, repo, Options{CODAsyncWrite: true})

	res, werr := wf.Process(context.Background(),
		[]byte(`{"customerId":"u1","paymentMethod":"cash_on_delivery"}`))
	if werr != nil {
		t.Fatalf("unexpected error: %v", werr)
	}
	if res.Persisted || res.DocumentID != "" {
		t.Fatalf("deferred write must not be reported as confirmed: %+v", res)
	}

	deadline := time.Now().Add(2 * time.Second)
	for repo.Get(res.OrderID) == nil {
		if time.Now().After(deadline) {
			t.Fatal("deferred cod write never landed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if rec := repo.Get(res.OrderID); rec.Status != store.StatusPending {
		t.Fatalf("status=%s, want pending", rec.Status)
	}
}

func TestProcess_CODAsyncWriteFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	repo := store.NewMemRepo()
	repo.FailInsert = errors.New("store down")
	wf := newTestWorkflow(&fakeGateway{}, repo, Options{CODAsyncWrite: true})

	res, werr := wf.Process(context.Background(),
		[]byte(`{"customerId":"u1","paymentMethod":"cash_on_delivery"}`))
	if werr != nil {
		t.Fatalf("deferred write failure must not fail the response: %v", werr)
	}
	if !res.Success || res.Persisted {
		t.Fatalf("want success with persisted=false, got %+v", res)
	}

	// The deferred insert was attempted and failed; nothing stored.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, inserts, _ := repo.Counts(); inserts > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("deferred insert never attempted")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if repo.Len() != 0 {
		t.Fatal("failed insert must not leave a record behind")
	}
}

// mustSeed replaces the stored record under key, keeping the same id.
func mustSeed(t *testing.T, repo *store.MemRepo, key string, rec *store.OrderRecord) {
	t.Helper()
	id, _, err := repo.FindByKey(context.Background(), key)
	if err != nil {
		t.Fatalf("seed lookup: %v", err)
	}
	if err := repo.Update(context.Background(), id, rec); err != nil {
		t.Fatalf("seed update: %v", err)
	}
}
