// Package payments answers "has this purchase been paid for?" by
// scanning the caller's remote transaction ledger, coping with an
// unreliable network and possibly-expired credentials.
package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tourvista/go-tour-client/client"
)

const (
	defaultPageSize   = 10
	defaultMaxRetries = 2
	defaultBackoff    = 2 * time.Second
)

// Payment providers report a completed payment under different labels;
// the ledger passes them through as-is.
var successStatuses = map[string]struct{}{
	"paid":      {},
	"confirmed": {},
	"succeeded": {},
	"completed": {},
}

func isSuccessStatus(status string) bool {
	_, ok := successStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// Ledger reads one page of the caller's transaction history.
type Ledger interface {
	Transactions(ctx context.Context, accessToken string, pageIndex, pageSize int) (*client.LedgerPage, error)
}

// SessionStore is the slice of the session store the reconciler needs.
type SessionStore interface {
	IsAuthenticated() bool
	CurrentAccessToken() string
	SignOut()
}

// TokenRefresher renews the access credential after the ledger rejects
// it mid-scan.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Reconciler runs payment checks. At most one scan is live per purchase
// id: calls for an id with a check already in flight join the live task
// instead of starting a second scan.
type Reconciler struct {
	store     SessionStore
	refresher TokenRefresher
	ledger    Ledger
	logger    zerolog.Logger

	pageSize   int
	maxRetries int
	backoff    func(attempt int) time.Duration

	mu    sync.Mutex
	tasks map[string]*task
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithPageSize sets the ledger page size requested per fetch.
func WithPageSize(n int) ReconcilerOption {
	return func(r *Reconciler) {
		r.pageSize = n
	}
}

// WithMaxRetries bounds the transient-failure retries per page.
func WithMaxRetries(n int) ReconcilerOption {
	return func(r *Reconciler) {
		r.maxRetries = n
	}
}

// WithBackoff sets the delay before retry number attempt (1-based).
// Primarily for testing.
func WithBackoff(fn func(attempt int) time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		r.backoff = fn
	}
}

// NewReconciler creates a reconciler over the session store, token
// refresher and ledger.
func NewReconciler(store SessionStore, refresher TokenRefresher, ledger Ledger, logger zerolog.Logger, options ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:      store,
		refresher:  refresher,
		ledger:     ledger,
		logger:     logger,
		pageSize:   defaultPageSize,
		maxRetries: defaultMaxRetries,
		backoff: func(attempt int) time.Duration {
			return defaultBackoff << (attempt - 1) // 2s, 4s, ...
		},
		tasks: make(map[string]*task),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// task is one in-flight reconciliation for a purchase id.
type task struct {
	id      string
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
	err     error
}

// CheckPayment reports whether the purchase has completed payment by
// scanning the transaction ledger in ascending page order, always
// starting from page 1. The returned error is non-nil only when the
// task was cancelled or the caller's context ended; every expected
// failure path is an Outcome value.
func (r *Reconciler) CheckPayment(ctx context.Context, purchaseID string) (Outcome, error) {
	r.mu.Lock()
	if t, ok := r.tasks[purchaseID]; ok {
		r.mu.Unlock()
		return r.await(ctx, t)
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	t := &task{
		id:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.tasks[purchaseID] = t
	r.mu.Unlock()

	go func() {
		defer cancel()
		t.outcome, t.err = r.run(taskCtx, t.id, purchaseID)
		r.mu.Lock()
		// Cancel may already have detached this task and a fresh one
		// may own the slot; only remove our own entry.
		if r.tasks[purchaseID] == t {
			delete(r.tasks, purchaseID)
		}
		r.mu.Unlock()
		close(t.done)
	}()

	return r.await(ctx, t)
}

// Cancel aborts any in-flight check for the purchase id. A cancelled
// task performs no further network calls or store mutations; callers
// awaiting it receive context.Canceled instead of an outcome. The task
// is detached immediately, so a CheckPayment issued right after Cancel
// starts a fresh scan instead of joining the dying one.
func (r *Reconciler) Cancel(purchaseID string) {
	r.mu.Lock()
	t, ok := r.tasks[purchaseID]
	if ok {
		delete(r.tasks, purchaseID)
	}
	r.mu.Unlock()
	if ok {
		t.cancel()
	}
}

func (r *Reconciler) await(ctx context.Context, t *task) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, t.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// run drives the scan state machine: fetch a page, then either match,
// advance, back off and retry the same page, or refresh once and retry
// the same page.
func (r *Reconciler) run(ctx context.Context, taskID, purchaseID string) (Outcome, error) {
	logger := r.logger.With().Str("task", taskID).Str("purchase", purchaseID).Logger()

	if !r.store.IsAuthenticated() {
		return Outcome{Status: StatusError, Err: NotAuthenticatedErr}, nil
	}

	page := 1
	attempt := 0
	refreshAttempted := false

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		ledgerPage, err := r.ledger.Transactions(ctx, r.store.CurrentAccessToken(), page, r.pageSize)
		switch {
		case err == nil:
			for _, tx := range ledgerPage.Items {
				if tx.PurchaseID == purchaseID && isSuccessStatus(tx.Status) {
					logger.Debug().Int("page", page).Str("status", tx.Status).Msg("purchase paid")
					return Outcome{Status: StatusPaid}, nil
				}
			}
			if page >= ledgerPage.TotalPages {
				logger.Debug().Int("pages", page).Msg("purchase not found in ledger")
				return Outcome{Status: StatusNotPaid}, nil
			}
			page++
			attempt = 0

		case client.IsUnauthorized(err):
			if refreshAttempted {
				// The credential was rejected straight after a
				// nominally successful refresh: the session is no
				// longer trustworthy.
				logger.Warn().Msg("access token rejected after refresh, expiring session")
				r.store.SignOut()
				return Outcome{Status: StatusSessionExpired}, nil
			}
			refreshAttempted = true
			logger.Debug().Int("page", page).Msg("ledger rejected access token, refreshing")
			if _, refreshErr := r.refresher.Refresh(ctx); refreshErr != nil {
				if ctx.Err() != nil {
					return Outcome{}, ctx.Err()
				}
				logger.Warn().Err(refreshErr).Msg("refresh failed, expiring session")
				r.store.SignOut()
				return Outcome{Status: StatusSessionExpired}, nil
			}
			attempt = 0
			// Retry the same page with the new credential.

		default:
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			if attempt >= r.maxRetries {
				logger.Warn().Err(err).Int("page", page).Msg("ledger retries exhausted")
				return Outcome{Status: StatusError, Err: fmt.Errorf("%w: %v", ExhaustedRetriesErr, err)}, nil
			}
			attempt++
			delay := r.backoff(attempt)
			logger.Debug().Err(err).Int("page", page).Int("attempt", attempt).Dur("delay", delay).
				Msg("transient ledger failure, retrying")
			if err := sleep(ctx, delay); err != nil {
				return Outcome{}, err
			}
		}
	}
}

// sleep waits for d, or returns early with the context's error. The
// pending backoff timer dies with the task's context.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
