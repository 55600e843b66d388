package portfolio

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrLockContention = errors.New("ledger write lock contention")
	ErrInvalidAmount  = errors.New("amount must be positive")
)

// Keeper owns all ledger access. Mutations run as a single load-mutate-store
// sequence under an exclusive per-user lock; locks for different users are
// independent. Reads bypass the lock entirely and may trail an in-flight
// write (read-committed).
type Keeper struct {
	store Store

	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewKeeper(store Store) *Keeper {
	return &Keeper{store: store, locks: make(map[string]chan struct{})}
}

func (k *Keeper) userLock(userID string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[userID]
	if !ok {
		l = make(chan struct{}, 1)
		k.locks[userID] = l
	}
	return l
}

// acquire takes the exclusive write lock for one user key. A context expiring
// while waiting surfaces as ErrLockContention, which callers must keep
// distinct from business denials: contention is retryable, a denial is final.
func (k *Keeper) acquire(ctx context.Context, userID string) (func(), error) {
	l := k.userLock(userID)
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, ErrLockContention
	}
}

// Snapshot is the shared read path used by the verifier and dashboards.
func (k *Keeper) Snapshot(ctx context.Context, userID string) (Portfolio, error) {
	return k.store.Get(ctx, userID)
}

// Deposit adds to the protected capital base, creating the ledger on first use.
func (k *Keeper) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (Portfolio, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Portfolio{}, ErrInvalidAmount
	}
	release, err := k.acquire(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}
	defer release()
	p, err := k.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		p = New(userID, decimal.Zero)
	} else if err != nil {
		return Portfolio{}, err
	}
	p = p.AddDeposit(amount)
	if err := k.store.Put(ctx, p); err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

// Withdraw debits accumulated profit only. The bool reports whether the
// withdrawal was approved; a false return leaves the ledger untouched.
func (k *Keeper) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (Portfolio, bool, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Portfolio{}, false, ErrInvalidAmount
	}
	release, err := k.acquire(ctx, userID)
	if err != nil {
		return Portfolio{}, false, err
	}
	defer release()
	p, err := k.store.Get(ctx, userID)
	if err != nil {
		return Portfolio{}, false, err
	}
	p, ok := p.ProcessWithdrawal(amount)
	if !ok {
		return p, false, nil
	}
	if err := k.store.Put(ctx, p); err != nil {
		return Portfolio{}, false, err
	}
	return p, true, nil
}

func (k *Keeper) AddProfit(ctx context.Context, userID string, amount decimal.Decimal) (Portfolio, error) {
	return k.mutate(ctx, userID, amount, Portfolio.AddProfit)
}

func (k *Keeper) DeductLoss(ctx context.Context, userID string, amount decimal.Decimal) (Portfolio, error) {
	return k.mutate(ctx, userID, amount, Portfolio.DeductLoss)
}

func (k *Keeper) mutate(ctx context.Context, userID string, amount decimal.Decimal, op func(Portfolio, decimal.Decimal) Portfolio) (Portfolio, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Portfolio{}, ErrInvalidAmount
	}
	release, err := k.acquire(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}
	defer release()
	p, err := k.store.Get(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}
	p = op(p, amount)
	if err := k.store.Put(ctx, p); err != nil {
		return Portfolio{}, err
	}
	return p, nil
}
