package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bluepay/internal/core/domain"
	"bluepay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[string]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[string]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.merchants[m.ExtID]; ok {
		return fmt.Errorf("merchant already exists")
	}
	cp := *m
	r.merchants[m.ExtID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByExtID(ctx context.Context, extID string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[extID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) UpdateCredentials(ctx context.Context, extID, accessID, secretKeyEnc string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[extID]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.AccessID = accessID
	m.SecretKeyEnc = secretKeyEnc
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Branch Repo ---

type inMemoryBranchRepo struct {
	mu       sync.RWMutex
	branches map[string]*domain.Branch
}

func newInMemoryBranchRepo() *inMemoryBranchRepo {
	return &inMemoryBranchRepo{branches: make(map[string]*domain.Branch)}
}

func branchKey(merchantExtID, branchExtID string) string {
	return merchantExtID + "/" + branchExtID
}

func (r *inMemoryBranchRepo) Create(ctx context.Context, b *domain.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.branches[branchKey(b.MerchantExtID, b.ExtID)] = &cp
	return nil
}

func (r *inMemoryBranchRepo) GetByExtID(ctx context.Context, merchantExtID, branchExtID string) (*domain.Branch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.branches[branchKey(merchantExtID, branchExtID)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
	ledger  map[uuid.UUID][]domain.LedgerEntry
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		ledger:  make(map[uuid.UUID][]domain.LedgerEntry),
	}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByMerchantExtID(ctx context.Context, merchantExtID string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.MerchantExtID == merchantExtID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount, fee decimal.Decimal, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return apperror.ErrWalletNotFound()
	}
	total := amount.Add(fee)
	if w.Balance.LessThan(total) {
		return apperror.ErrInsufficientFunds()
	}
	w.Balance = w.Balance.Sub(total)
	w.UpdatedAt = time.Now().UTC()
	r.ledger[walletID] = append(r.ledger[walletID], domain.LedgerEntry{
		ID: uuid.New(), WalletID: walletID, Type: domain.EntryDebit, Amount: amount, Reference: reference, CreatedAt: time.Now().UTC(),
	})
	if fee.IsPositive() {
		r.ledger[walletID] = append(r.ledger[walletID], domain.LedgerEntry{
			ID: uuid.New(), WalletID: walletID, Type: domain.EntryFee, Amount: fee, Reference: reference, CreatedAt: time.Now().UTC(),
		})
	}
	return nil
}

func (r *inMemoryWalletRepo) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, entryType domain.LedgerEntryType, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return apperror.ErrWalletNotFound()
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	r.ledger[walletID] = append(r.ledger[walletID], domain.LedgerEntry{
		ID: uuid.New(), WalletID: walletID, Type: entryType, Amount: amount, Reference: reference, CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (r *inMemoryWalletRepo) ListLedgerEntries(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.ledger[walletID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]domain.LedgerEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.TransactionRecord
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{records: make(map[string]*domain.TransactionRecord)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, rec *domain.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.MerchantExtID == rec.MerchantExtID && existing.Kind == rec.Kind && existing.ReferenceID == rec.ReferenceID {
			return fmt.Errorf("duplicate reference")
		}
	}
	cp := *rec
	r.records[rec.MerchantTxID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) CreateTx(ctx context.Context, tx pgx.Tx, rec *domain.TransactionRecord) error {
	return r.Create(ctx, rec)
}

func (r *inMemoryTransactionRepo) GetByMerchantTxID(ctx context.Context, merchantTxID string) (*domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[merchantTxID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByReference(ctx context.Context, merchantExtID string, kind domain.TransactionKind, referenceID string) (*domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.MerchantExtID == merchantExtID && rec.Kind == kind && rec.ReferenceID == referenceID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) FindReferencing(ctx context.Context, acquirerAuthorizationID string) ([]domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.TransactionRecord
	for _, rec := range r.records {
		if rec.Kind != domain.KindAuthorization && rec.AcquirerAuthorizationID != nil && *rec.AcquirerAuthorizationID == acquirerAuthorizationID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *inMemoryTransactionRepo) GetAuthorizationByAcquirerID(ctx context.Context, acquirerAuthorizationID string) (*domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.Kind == domain.KindAuthorization && rec.AcquirerAuthorizationID != nil && *rec.AcquirerAuthorizationID == acquirerAuthorizationID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) RecordOutcome(ctx context.Context, merchantTxID string, status domain.TransactionStatus, acquirerTxID, acquirerAuthID *string, gatewayResponse []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[merchantTxID]
	if !ok {
		return false, fmt.Errorf("transaction not found")
	}
	if !rec.CanTransition(status) {
		return false, nil
	}
	rec.Status = status
	if acquirerTxID != nil {
		rec.AcquirerTxID = acquirerTxID
	}
	if acquirerAuthID != nil {
		rec.AcquirerAuthorizationID = acquirerAuthID
	}
	if gatewayResponse != nil {
		rec.GatewayResponse = gatewayResponse
	}
	rec.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *inMemoryTransactionRepo) RecordOutcomeTx(ctx context.Context, tx pgx.Tx, merchantTxID string, status domain.TransactionStatus, acquirerTxID, acquirerAuthID *string, gatewayResponse []byte) (bool, error) {
	return r.RecordOutcome(ctx, merchantTxID, status, acquirerTxID, acquirerAuthID, gatewayResponse)
}

func (r *inMemoryTransactionRepo) ListByMerchant(ctx context.Context, merchantExtID string, limit, offset int) ([]domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.TransactionRecord
	for _, rec := range r.records {
		if rec.MerchantExtID == merchantExtID {
			out = append(out, *rec)
		}
	}
	if offset >= len(out) {
		return []domain.TransactionRecord{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- In-Memory Subscription Repo ---

type inMemorySubscriptionRepo struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*domain.Subscription
}

func newInMemorySubscriptionRepo() *inMemorySubscriptionRepo {
	return &inMemorySubscriptionRepo{subs: make(map[uuid.UUID]*domain.Subscription)}
}

func (r *inMemorySubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.subs[s.ID] = &cp
	return nil
}

func (r *inMemorySubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *inMemorySubscriptionRepo) GetActiveByMerchant(ctx context.Context, merchantExtID string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		if s.MerchantExtID == merchantExtID && s.Status == domain.SubscriptionActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemorySubscriptionRepo) ListExpiringWithin(ctx context.Context, deadline time.Time) ([]domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Subscription
	for _, s := range r.subs {
		if s.Status == domain.SubscriptionActive && !s.ExpiresAt.After(deadline) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *inMemorySubscriptionRepo) UpdateExpiry(ctx context.Context, tx pgx.Tx, id uuid.UUID, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return fmt.Errorf("subscription not found")
	}
	s.ExpiresAt = expiresAt
	return nil
}

func (r *inMemorySubscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return fmt.Errorf("subscription not found")
	}
	s.Status = status
	return nil
}

// --- In-Memory Notification Repo ---

type inMemoryNotificationRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*domain.Notification
}

func newInMemoryNotificationRepo() *inMemoryNotificationRepo {
	return &inMemoryNotificationRepo{items: make(map[uuid.UUID]*domain.Notification)}
}

func (r *inMemoryNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *inMemoryNotificationRepo) ExistsByReference(ctx context.Context, merchantExtID string, notifType domain.NotificationType, reference string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.items {
		if n.MerchantExtID == merchantExtID && n.Type == notifType && n.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryNotificationRepo) ListByMerchant(ctx context.Context, merchantExtID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Notification
	for _, n := range r.items {
		if n.MerchantExtID != merchantExtID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return fmt.Errorf("notification not found")
	}
	n.IsRead = true
	return nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Save(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs[log.Key] = &cp
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

func (t *inMemoryTransactor) Commit(ctx context.Context, tx pgx.Tx) error {
	return nil
}

func (t *inMemoryTransactor) Rollback(ctx context.Context, tx pgx.Tx) error {
	return nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
