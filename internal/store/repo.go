package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order record not found")
	// ErrDuplicateKey surfaces when a concurrent intake won the insert race
	// on the same natural key; the unique index turns the loser into this
	// error instead of a second record.
	ErrDuplicateKey = errors.New("order record already exists")
)

// Repository is the document-store contract: lookup by natural key, insert,
// update by document id. No transaction primitive is assumed across the
// lookup and the write.
type Repository interface {
	FindByKey(ctx context.Context, key string) (string, *OrderRecord, error)
	Insert(ctx context.Context, rec *OrderRecord) (string, error)
	Update(ctx context.Context, id string, rec *OrderRecord) error
}

// PGRepo persists order documents in a single JSONB-backed table with the
// natural key uniquely indexed and a few columns flattened for queries.
type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) FindByKey(ctx context.Context, key string) (string, *OrderRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var id string
	var doc []byte
	err := r.db.QueryRow(ctx, `
    SELECT id, document
    FROM order_documents WHERE natural_key=$1
  `, key).Scan(&id, &doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	var rec OrderRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return "", nil, err
	}
	return id, &rec, nil
}

func (r *PGRepo) Insert(ctx context.Context, rec *OrderRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	id := uuid.NewString()
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	_, err = r.db.Exec(ctx, `
    INSERT INTO order_documents (id, natural_key, customer_id, status, document, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
  `, id, rec.NaturalKey, rec.CustomerID, rec.Status, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateKey
		}
		return "", err
	}
	return id, nil
}

func (r *PGRepo) Update(ctx context.Context, id string, rec *OrderRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
    UPDATE order_documents
    SET status = $2, document = $3, updated_at = NOW()
    WHERE id = $1
  `, id, rec.Status, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

// Upsert enforces at-most-one record per natural key: lookup, then insert or
// merge-update. The lookup and write are not atomic; a concurrent duplicate
// intake can slip between them, in which case the unique index fails the
// second insert with ErrDuplicateKey rather than writing a twin record.
func Upsert(ctx context.Context, repo Repository, rec *OrderRecord) (string, bool, error) {
	id, existing, err := repo.FindByKey(ctx, rec.NaturalKey)
	switch {
	case errors.Is(err, ErrNotFound):
		id, err = repo.Insert(ctx, rec)
		if err != nil {
			return "", false, err
		}
		return id, true, nil
	case err != nil:
		return "", false, err
	}

	// Merge: intake fields overwrite, verification-owned fields survive. A
	// duplicate delivery must not clobber a verification that already landed.
	rec.PaymentID = existing.PaymentID
	rec.PaymentStatus = existing.PaymentStatus
	rec.VerifiedAt = existing.VerifiedAt
	rec.SignatureOK = existing.SignatureOK
	rec.CreatedAt = existing.CreatedAt
	if existing.Status != StatusCreated && existing.Status != StatusPending {
		// Verification already advanced the lifecycle; keep its status.
		rec.Status = existing.Status
	}
	if err := repo.Update(ctx, id, rec); err != nil {
		return "", false, err
	}
	return id, false, nil
}
