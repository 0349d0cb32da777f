package persistence

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	maxTransactionAttempts = 3
	baseRetryDelay         = 20 * time.Millisecond
)

// RunInTransaction executes fn inside a unit of work. fn's error or panic rolls the transaction back;
// otherwise it is committed. Stores that implement RetryClassifier get transient conflicts retried
// with jittered backoff.
func RunInTransaction(ctx context.Context, uow UnitOfWork, fn func(txCtx context.Context) error) error {
	classifier, canRetry := uow.(RetryClassifier)

	var err error
	for attempt := 1; attempt <= maxTransactionAttempts; attempt++ {
		err = runOnce(ctx, uow, fn)
		if err == nil || !canRetry || !classifier.IsRetryable(err) || attempt == maxTransactionAttempts {
			return err
		}

		delay := baseRetryDelay * time.Duration(1<<(attempt-1))
		delay += time.Duration(rand.Int64N(int64(delay)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func runOnce(ctx context.Context, uow UnitOfWork, fn func(txCtx context.Context) error) (err error) {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if r := recover(); r != nil {
			_ = uow.Rollback(txCtx)
			panic(r)
		}
		_ = uow.Rollback(txCtx)
	}()

	if err = fn(txCtx); err != nil {
		return err
	}

	if err = uow.Commit(txCtx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
