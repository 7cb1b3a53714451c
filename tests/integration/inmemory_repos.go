package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"custodial-wallet-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.UserID == w.UserID && existing.Currency == w.Currency {
			return fmt.Errorf("inserting wallet: %w", domain.ErrDuplicateWallet)
		}
	}
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currencyCode string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.UserID == userID && w.Currency.Code == currencyCode {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Currency.Kind == domain.KindFiat && w.Address == accountNumber {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Currency.Kind == domain.KindCrypto && w.Address == address {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.UserID == userID {
			result = append(result, *w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Currency.Kind < result[j].Currency.Kind
	})
	return result, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) AdjustBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("adjusting balance: %w", domain.ErrInsufficientBalance)
	}
	w.Balance = next
	if mt, ok := tx.(*memTx); ok {
		mt.onRollback(func() { r.applyDelta(walletID, delta.Neg()) })
	}
	return nil
}

// applyDelta adjusts a balance without the negative guard. Used only to
// undo journalled writes on rollback.
func (r *inMemoryWalletRepo) applyDelta(id uuid.UUID, delta decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[id]; ok {
		w.Balance = w.Balance.Add(delta)
	}
}

// balanceOf reads a wallet balance directly, for test assertions.
func (r *inMemoryWalletRepo) balanceOf(id uuid.UUID) decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return decimal.Zero
	}
	return w.Balance
}

// setBalance seeds a wallet balance directly, for test setup.
func (r *inMemoryWalletRepo) setBalance(id uuid.UUID, balance decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[id]; ok {
		w.Balance = balance
	}
}

// creditFailWalletRepo rejects every credit. Tests use it to force a
// settlement to abort after the debit has already been applied.
type creditFailWalletRepo struct {
	*inMemoryWalletRepo
}

func (r *creditFailWalletRepo) AdjustBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsPositive() {
		return fmt.Errorf("credit rejected")
	}
	return r.inMemoryWalletRepo.AdjustBalance(ctx, tx, walletID, delta)
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.transactions {
		if existing.Reference == t.Reference {
			return fmt.Errorf("reference already exists")
		}
	}
	cp := *t
	r.transactions[t.ID] = &cp
	if mt, ok := tx.(*memTx); ok {
		id := t.ID
		mt.onRollback(func() {
			r.mu.Lock()
			delete(r.transactions, id)
			r.mu.Unlock()
		})
	}
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListByWallets(ctx context.Context, walletIDs []uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[uuid.UUID]bool, len(walletIDs))
	for _, id := range walletIDs {
		ids[id] = true
	}

	var result []domain.Transaction
	for _, t := range r.transactions {
		if ids[t.SenderWalletID] || ids[t.ReceiverWalletID] {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].InitiatedAt.After(result[j].InitiatedAt)
	})
	total := int64(len(result))

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// count reports how many ledger rows exist, for test assertions.
func (r *inMemoryTransactionRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transactions)
}

// --- In-Memory Rate Repo ---

type inMemoryRateRepo struct {
	mu    sync.RWMutex
	rates map[string]*domain.ExchangeRate
}

func newInMemoryRateRepo() *inMemoryRateRepo {
	return &inMemoryRateRepo{rates: make(map[string]*domain.ExchangeRate)}
}

func (r *inMemoryRateRepo) Get(ctx context.Context, symbol string) (*domain.ExchangeRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rate, ok := r.rates[symbol]
	if !ok {
		return nil, nil
	}
	cp := *rate
	return &cp, nil
}

func (r *inMemoryRateRepo) Upsert(ctx context.Context, rate *domain.ExchangeRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rate
	r.rates[rate.Symbol] = &cp
	return nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes concurrent transfers through a single
// mutex, standing in for row-level locking.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{release: &t.mu}, nil
}

// memTx is a minimal pgx.Tx. Repositories journal an undo action for every
// write they make under the transaction; Rollback runs the journal in
// reverse so a failed settlement reverts its earlier writes, while Commit
// discards it. Either way the transactor lock is released exactly once, and
// rollback after commit is a no-op, matching the
// begin/defer-rollback/commit call pattern.
type memTx struct {
	release *sync.Mutex
	mu      sync.Mutex
	journal []func()
	done    sync.Once
}

// onRollback registers an undo action for a write made under this tx.
func (t *memTx) onRollback(undo func()) {
	t.mu.Lock()
	t.journal = append(t.journal, undo)
	t.mu.Unlock()
}

func (t *memTx) finish(undo bool) {
	t.done.Do(func() {
		if undo {
			for i := len(t.journal) - 1; i >= 0; i-- {
				t.journal[i]()
			}
		}
		t.journal = nil
		t.release.Unlock()
	})
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.finish(false); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.finish(true); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

// --- Stub Price Feed ---

// stubPriceFeed returns a fixed rate for every pair, or an error when set.
type stubPriceFeed struct {
	rate decimal.Decimal
	err  error
}

func (f *stubPriceFeed) FetchRate(ctx context.Context, asset, fiat string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Decimal{}, f.err
	}
	return f.rate, nil
}
