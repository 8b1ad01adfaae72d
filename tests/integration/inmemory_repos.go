package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) add(m *domain.Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = m
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) GetByAccessKey(ctx context.Context, accessKey string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.AccessKey == accessKey {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByMerchant(ctx context.Context, merchantID uuid.UUID, currency string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.MerchantID == merchantID && w.Currency == currency {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.MerchantID == merchantID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (r *inMemoryWalletRepo) GetByMerchantForUpdate(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, currency string) (*domain.Wallet, error) {
	return r.GetByMerchant(ctx, merchantID, currency)
}

func (r *inMemoryWalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, available, pending decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.AvailableBalance = available
	w.PendingBalance = pending
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *txn
	r.transactions[txn.ID] = &cp
	return nil
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

func (r *inMemoryTransactionRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.Transaction, error) {
	return r.GetByReference(ctx, reference)
}

func (r *inMemoryTransactionRepo) ListPendingByDepositAddressForUpdate(ctx context.Context, tx pgx.Tx, address string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.PaymentType != domain.PaymentTypeCrypto || t.Status != domain.TransactionStatusPending {
			continue
		}
		if t.DepositAddress == nil || *t.DepositAddress != address {
			continue
		}
		result = append(result, *t)
		if len(result) == 2 {
			break
		}
	}
	return result, nil
}

func (r *inMemoryTransactionRepo) UpdateRailDetails(ctx context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[txn.ID]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	t.CheckoutURL = txn.CheckoutURL
	t.DepositAddress = txn.DepositAddress
	t.Network = txn.Network
	return nil
}

func (r *inMemoryTransactionRepo) Settle(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, txHash *string, settledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	t.Status = status
	t.Settled = true
	if txHash != nil {
		t.TxHash = txHash
	}
	t.SettledAt = &settledAt
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.MerchantID != params.MerchantID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.PaymentType != nil && t.PaymentType != *params.PaymentType {
			continue
		}
		result = append(result, *t)
	}
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Payout Repo ---

type inMemoryPayoutRepo struct {
	mu      sync.RWMutex
	payouts map[uuid.UUID]*domain.Payout
}

func newInMemoryPayoutRepo() *inMemoryPayoutRepo {
	return &inMemoryPayoutRepo{payouts: make(map[uuid.UUID]*domain.Payout)}
}

func (r *inMemoryPayoutRepo) Create(ctx context.Context, tx pgx.Tx, payout *domain.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *payout
	r.payouts[payout.ID] = &cp
	return nil
}

func (r *inMemoryPayoutRepo) GetByReference(ctx context.Context, reference string) (*domain.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payouts {
		if p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryPayoutRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.Payout, error) {
	return r.GetByReference(ctx, reference)
}

func (r *inMemoryPayoutRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return fmt.Errorf("payout not found")
	}
	p.Status = status
	p.ProcessedAt = &processedAt
	return nil
}

func (r *inMemoryPayoutRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, page, pageSize int) ([]domain.Payout, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Payout
	for _, p := range r.payouts {
		if p.MerchantID == merchantID {
			result = append(result, *p)
		}
	}
	total := int64(len(result))

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Payout{}, total, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Webhook Event Repo ---

type inMemoryWebhookEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.WebhookEvent
}

func newInMemoryWebhookEventRepo() *inMemoryWebhookEventRepo {
	return &inMemoryWebhookEventRepo{events: make(map[string]*domain.WebhookEvent)}
}

func (r *inMemoryWebhookEventRepo) Insert(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s:%s:%s", event.Provider, event.Reference, event.Kind)
	if _, exists := r.events[key]; exists {
		return false, nil
	}
	cp := *event
	r.events[key] = &cp
	return true, nil
}

func (r *inMemoryWebhookEventRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, record *domain.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *inMemoryAuditRepo) byAction(action domain.AuditAction) []domain.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.AuditRecord
	for _, rec := range r.records {
		if rec.Action == action {
			result = append(result, rec)
		}
	}
	return result
}

// --- Serializing Transactor ---

// serialTransactor stands in for PostgreSQL transactions: a single mutex
// serializes all transactional work, approximating what row locks give the
// real storage layer. Commit and Rollback both release; the deferred
// Rollback after a Commit is a no-op.
type serialTransactor struct {
	mu sync.Mutex
}

func newSerialTransactor() *serialTransactor {
	return &serialTransactor{}
}

func (t *serialTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serialTx{release: t.mu.Unlock}, nil
}

func (t *serialTransactor) BeginWithLockTimeout(ctx context.Context, timeout time.Duration) (pgx.Tx, error) {
	return t.Begin(ctx)
}

type serialTx struct {
	once    sync.Once
	release func()
}

func (t *serialTx) done() {
	t.once.Do(t.release)
}

func (t *serialTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *serialTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *serialTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *serialTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serialTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serialTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serialTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serialTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serialTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serialTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *serialTx) Conn() *pgx.Conn { return nil }

// --- Stub Provider Gateways ---

type stubFiatGateway struct {
	mu           sync.Mutex
	failTransfer bool
	transfers    []ports.InitiateTransferRequest
}

func (g *stubFiatGateway) InitializePayment(ctx context.Context, env domain.Environment, req ports.InitializePaymentRequest) (*ports.InitializePaymentResult, error) {
	return &ports.InitializePaymentResult{CheckoutURL: "https://checkout.test/pay/" + req.Reference}, nil
}

func (g *stubFiatGateway) InitiateTransfer(ctx context.Context, env domain.Environment, req ports.InitiateTransferRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failTransfer {
		return fmt.Errorf("transfer rejected by processor")
	}
	g.transfers = append(g.transfers, req)
	return nil
}

func (g *stubFiatGateway) GetTransferStatus(ctx context.Context, env domain.Environment, reference string) (string, error) {
	return "NEW", nil
}

func (g *stubFiatGateway) ListBanks(ctx context.Context, env domain.Environment, country string) ([]ports.Bank, error) {
	return []ports.Bank{{ID: 1, Name: "Access Bank", Code: "044"}}, nil
}

type stubCryptoGateway struct {
	address string
}

func (g *stubCryptoGateway) GetDepositAddress(ctx context.Context, env domain.Environment, coin, network string) (*ports.DepositAddress, error) {
	return &ports.DepositAddress{Address: g.address, Network: network}, nil
}

func (g *stubCryptoGateway) GetCoinInfo(ctx context.Context, env domain.Environment) ([]ports.CoinInfo, error) {
	return []ports.CoinInfo{{
		Coin: "USDT",
		Name: "Tether",
		Chains: []ports.CoinChain{
			{Chain: "TRC20", ChainType: "TRON", MinDeposit: "1", Confirmations: "1", DepositEnabled: true},
		},
	}}, nil
}

func (g *stubCryptoGateway) GetDepositRecords(ctx context.Context, env domain.Environment, coin string, limit int) ([]ports.DepositRecord, error) {
	return nil, nil
}
