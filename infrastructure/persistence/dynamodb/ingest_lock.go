package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	apperrors "holdthatthought-backend/pkg/errors"
)

// IngestLock serializes ingestion runs per staging prefix using a conditional
// lock row. A stale lock is reclaimed after its expiry so a crashed run cannot
// block the pipeline forever.
type IngestLock struct {
	store  *Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewIngestLock creates a lock manager with the given hold duration
func NewIngestLock(store *Store, ttl time.Duration, logger *zap.Logger) *IngestLock {
	return &IngestLock{store: store, ttl: ttl, logger: logger}
}

const lockPrefix = "LOCK#"

type lockItem struct {
	PK        string `dynamodbav:"PK"` // LOCK#<resource>
	SK        string `dynamodbav:"SK"` // LOCK
	Owner     string `dynamodbav:"owner"`
	ExpiresAt string `dynamodbav:"expiresAt"`
	TTL       int64  `dynamodbav:"ttl"` // DynamoDB TTL epoch seconds
}

// Acquire claims the lock for owner. It succeeds when no lock row exists or
// the existing one has expired; otherwise it returns a conflict error.
func (l *IngestLock) Acquire(ctx context.Context, resource, owner string) error {
	now := time.Now().UTC()
	item := lockItem{
		PK:        lockPrefix + resource,
		SK:        "LOCK",
		Owner:     owner,
		ExpiresAt: now.Add(l.ttl).Format(time.RFC3339Nano),
		TTL:       now.Add(l.ttl * 2).Unix(),
	}

	cond := expression.Or(
		expression.AttributeNotExists(expression.Name("PK")),
		expression.Name("expiresAt").LessThan(expression.Value(now.Format(time.RFC3339Nano))),
	)

	err := l.store.PutConditional(ctx, item, cond)
	if errors.Is(err, ErrConditionFailed) {
		return apperrors.NewConflictError("ingestion already in progress")
	}
	if err != nil {
		return apperrors.NewDatabaseError("acquire ingest lock", err)
	}

	l.logger.Debug("Ingest lock acquired",
		zap.String("resource", resource),
		zap.String("owner", owner),
	)
	return nil
}

// Release drops the lock if owner still holds it. Losing the race to a
// reclaimed lock is not an error.
func (l *IngestLock) Release(ctx context.Context, resource, owner string) error {
	cond := expression.Name("owner").Equal(expression.Value(owner))
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("expiresAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))).
		WithCondition(cond).
		Build()
	if err != nil {
		return apperrors.NewDatabaseError("release ingest lock", err)
	}

	err = l.store.Update(ctx, lockPrefix+resource, "LOCK", expr)
	if errors.Is(err, ErrConditionFailed) {
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseError("release ingest lock", err)
	}
	return nil
}
