package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ledger-service/internal/domain"
	"ledger-service/internal/pkg/xerrors"
	publisher "ledger-service/internal/pub"
)

// In-memory repository fakes. The transaction argument is ignored; the
// fake tx manager hands the closure a nil tx, which every fake accepts.

type fakeTxManager struct{}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeAccountRepo struct {
	accounts map[int64]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[int64]*domain.Account{}}
}

func (r *fakeAccountRepo) add(id int64, balance, base decimal.Decimal) *domain.Account {
	acc := &domain.Account{ID: id, Balance: balance, BaseBalance: base}
	r.accounts[id] = acc
	return acc
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return acc, nil
}

func (r *fakeAccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeAccountRepo) Create(ctx context.Context, id int64, invitedBy *int64) error {
	if _, ok := r.accounts[id]; ok {
		return nil
	}
	r.accounts[id] = &domain.Account{ID: id, InvitedBy: invitedBy}
	return nil
}

func (r *fakeAccountRepo) Credit(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error {
	acc, ok := r.accounts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	acc.Balance = acc.Balance.Add(amount)
	return nil
}

func (r *fakeAccountRepo) Debit(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error {
	acc, ok := r.accounts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if acc.Balance.LessThan(amount) {
		return xerrors.ErrInsufficientBalance
	}
	acc.Balance = acc.Balance.Sub(amount)
	return nil
}

func (r *fakeAccountRepo) AddBasePrincipal(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error {
	acc, ok := r.accounts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	acc.BaseBalance = acc.BaseBalance.Add(amount)
	return nil
}

func (r *fakeAccountRepo) SetFirstDepositAt(ctx context.Context, tx pgx.Tx, id int64, at time.Time) error {
	acc, ok := r.accounts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if acc.FirstDepositAt == nil {
		acc.FirstDepositAt = &at
	}
	return nil
}

func (r *fakeAccountRepo) SetLastWithdrawalAt(ctx context.Context, tx pgx.Tx, id int64, at time.Time) error {
	acc, ok := r.accounts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	acc.LastWithdrawalAt = &at
	return nil
}

type fakeDepositRepo struct {
	deposits map[int64]*domain.Deposit
	nextID   int64
}

func newFakeDepositRepo() *fakeDepositRepo {
	return &fakeDepositRepo{deposits: map[int64]*domain.Deposit{}}
}

func (r *fakeDepositRepo) Create(ctx context.Context, create *domain.DepositCreate) (*domain.Deposit, error) {
	r.nextID++
	d := &domain.Deposit{
		ID:           r.nextID,
		Reference:    create.Reference,
		AccountID:    create.AccountID,
		Amount:       create.Amount,
		Status:       domain.StatusPending,
		RewardAmount: decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}
	r.deposits[d.ID] = d
	return d, nil
}

func (r *fakeDepositRepo) GetByID(ctx context.Context, id int64) (*domain.Deposit, error) {
	d, ok := r.deposits[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return d, nil
}

func (r *fakeDepositRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Deposit, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDepositRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Deposit, error) {
	var out []*domain.Deposit
	for _, d := range r.deposits {
		if d.AccountID == accountID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDepositRepo) ListPending(ctx context.Context, limit, offset int) ([]*domain.Deposit, error) {
	var out []*domain.Deposit
	for _, d := range r.deposits {
		if d.Status == domain.StatusPending {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDepositRepo) MarkReviewed(ctx context.Context, tx pgx.Tx, id int64, status domain.ReviewStatus,
	reviewer int64, reviewedAt time.Time, effectiveAt *time.Time,
	rewardAmount decimal.Decimal, rewardMeta *domain.DepositRewardMeta) error {
	d, ok := r.deposits[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if d.Status != domain.StatusPending {
		return xerrors.ErrNotPending
	}
	d.Status = status
	d.ReviewedBy = &reviewer
	d.ReviewedAt = &reviewedAt
	d.EffectiveAt = effectiveAt
	d.RewardAmount = rewardAmount
	d.RewardMeta = rewardMeta
	return nil
}

func (r *fakeDepositRepo) CountApprovedExcluding(ctx context.Context, tx pgx.Tx, accountID, excludeID int64) (int, error) {
	count := 0
	for _, d := range r.deposits {
		if d.AccountID == accountID && d.ID != excludeID && d.Status == domain.StatusApproved {
			count++
		}
	}
	return count, nil
}

type fakeWithdrawalRepo struct {
	withdrawals map[int64]*domain.Withdrawal
	nextID      int64
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{withdrawals: map[int64]*domain.Withdrawal{}}
}

func (r *fakeWithdrawalRepo) Create(ctx context.Context, create *domain.WithdrawalCreate) (*domain.Withdrawal, error) {
	r.nextID++
	w := &domain.Withdrawal{
		ID:        r.nextID,
		Reference: create.Reference,
		AccountID: create.AccountID,
		Amount:    create.Amount,
		FeeTier:   create.FeeTier,
		FeePct:    create.FeePct,
		FeeAmount: create.FeeAmount,
		NetAmount: create.NetAmount,
		Address:   create.Address,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	r.withdrawals[w.ID] = w
	return w, nil
}

func (r *fakeWithdrawalRepo) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return w, nil
}

func (r *fakeWithdrawalRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Withdrawal, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeWithdrawalRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Withdrawal, error) {
	var out []*domain.Withdrawal
	for _, w := range r.withdrawals {
		if w.AccountID == accountID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeWithdrawalRepo) ListPending(ctx context.Context, limit, offset int) ([]*domain.Withdrawal, error) {
	var out []*domain.Withdrawal
	for _, w := range r.withdrawals {
		if w.Status == domain.StatusPending {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeWithdrawalRepo) MarkReviewed(ctx context.Context, tx pgx.Tx, id int64, status domain.ReviewStatus,
	reviewer int64, reviewedAt time.Time, effectiveAt *time.Time) error {
	w, ok := r.withdrawals[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if w.Status != domain.StatusPending {
		return xerrors.ErrNotPending
	}
	w.Status = status
	w.ReviewedBy = &reviewer
	w.ReviewedAt = &reviewedAt
	w.EffectiveAt = effectiveAt
	return nil
}

type fakeRewardClaimRepo struct {
	claims map[string]*domain.RewardClaim
	nextID int64
}

func newFakeRewardClaimRepo() *fakeRewardClaimRepo {
	return &fakeRewardClaimRepo{claims: map[string]*domain.RewardClaim{}}
}

func claimKey(channel domain.RewardChannel, accountID int64, dateKey string) string {
	return fmt.Sprintf("%s|%d|%s", channel, accountID, dateKey)
}

func (r *fakeRewardClaimRepo) Insert(ctx context.Context, tx pgx.Tx, channel domain.RewardChannel, claim *domain.RewardClaim) error {
	key := claimKey(channel, claim.AccountID, claim.ClaimDate)
	if _, ok := r.claims[key]; ok {
		return xerrors.ErrAlreadyClaimedToday
	}
	r.nextID++
	claim.ID = r.nextID
	r.claims[key] = claim
	return nil
}

func (r *fakeRewardClaimRepo) GetByDay(ctx context.Context, channel domain.RewardChannel, accountID int64, dateKey string) (*domain.RewardClaim, error) {
	c, ok := r.claims[claimKey(channel, accountID, dateKey)]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

func (r *fakeRewardClaimRepo) ListByAccount(ctx context.Context, channel domain.RewardChannel, accountID int64, limit, offset int) ([]*domain.RewardClaim, error) {
	var out []*domain.RewardClaim
	for key, c := range r.claims {
		if c.AccountID == accountID && key == claimKey(channel, accountID, c.ClaimDate) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeReferralRepo struct {
	confirmed   map[int64]int
	stats       map[int64]*domain.ReferralStats
	commissions []*domain.ReferralCommission
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{
		confirmed: map[int64]int{},
		stats:     map[int64]*domain.ReferralStats{},
	}
}

func (r *fakeReferralRepo) CountConfirmedInvites(ctx context.Context, tx pgx.Tx, referrerID int64) (int, error) {
	return r.confirmed[referrerID], nil
}

func (r *fakeReferralRepo) UpsertStats(ctx context.Context, tx pgx.Tx, stats *domain.ReferralStats) error {
	r.stats[stats.AccountID] = stats
	return nil
}

func (r *fakeReferralRepo) GetStats(ctx context.Context, accountID int64) (*domain.ReferralStats, error) {
	s, ok := r.stats[accountID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return s, nil
}

func (r *fakeReferralRepo) InsertCommission(ctx context.Context, tx pgx.Tx, commission *domain.ReferralCommission) error {
	commission.ID = int64(len(r.commissions) + 1)
	r.commissions = append(r.commissions, commission)
	return nil
}

func (r *fakeReferralRepo) ListCommissions(ctx context.Context, referrerID int64, limit, offset int) ([]*domain.ReferralCommission, error) {
	var out []*domain.ReferralCommission
	for _, c := range r.commissions {
		if c.ReferrerID == referrerID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	records []*domain.AuditRecord
}

func (r *fakeAuditRepo) Append(ctx context.Context, tx pgx.Tx, record *domain.AuditRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, entityType domain.AuditEntityType, entityID string, limit, offset int) ([]*domain.AuditRecord, error) {
	var out []*domain.AuditRecord
	for _, rec := range r.records {
		if entityType != "" && rec.EntityType != entityType {
			continue
		}
		if entityID != "" && rec.EntityID != entityID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeAuditRepo) actions() []string {
	var out []string
	for _, rec := range r.records {
		out = append(out, rec.Action)
	}
	return out
}

type fakePolicyRepo struct {
	values map[string]string
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{values: map[string]string{}}
}

func (r *fakePolicyRepo) Get(ctx context.Context, key string) (string, error) {
	v, ok := r.values[key]
	if !ok {
		return "", xerrors.ErrNotFound
	}
	return v, nil
}

func (r *fakePolicyRepo) GetAll(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out, nil
}

func (r *fakePolicyRepo) Set(ctx context.Context, tx pgx.Tx, key, value string) error {
	r.values[key] = value
	return nil
}

// testEnv wires every usecase against the fakes with a fixed clock.
type testEnv struct {
	accounts    *fakeAccountRepo
	deposits    *fakeDepositRepo
	withdrawals *fakeWithdrawalRepo
	claims      *fakeRewardClaimRepo
	referrals   *fakeReferralRepo
	audits      *fakeAuditRepo
	policies    *fakePolicyRepo

	policyUC       *PolicyUsecase
	referralUC     *ReferralUsecase
	depositUC      *DepositUsecase
	withdrawalUC   *WithdrawalUsecase
	dailyRewardUC  *DailyRewardUsecase
	randomRewardUC *RandomRewardUsecase

	eventLog *observer.ObservedLogs
	now      time.Time
}

// eventTypes returns the types of every ledger event published so far, in
// order. The publisher has no transports in tests, so the debug log it
// emits per event is the observable record.
func (e *testEnv) eventTypes() []string {
	var types []string
	for _, entry := range e.eventLog.FilterMessage("published ledger event").All() {
		for _, f := range entry.Context {
			if f.Key == "event_type" {
				types = append(types, f.String)
			}
		}
	}
	return types
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	eventCore, eventLog := observer.New(zap.DebugLevel)
	events := publisher.NewLedgerEventPublisher(nil, nil, zap.New(eventCore))
	tx := &fakeTxManager{}

	env := &testEnv{
		accounts:    newFakeAccountRepo(),
		deposits:    newFakeDepositRepo(),
		withdrawals: newFakeWithdrawalRepo(),
		claims:      newFakeRewardClaimRepo(),
		referrals:   newFakeReferralRepo(),
		audits:      &fakeAuditRepo{},
		policies:    newFakePolicyRepo(),
		eventLog:    eventLog,
		now:         time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	env.policyUC = NewPolicyUsecase(env.policies, env.audits, tx, nil, events, logger)
	env.referralUC = NewReferralUsecase(env.referrals, env.accounts, env.audits, tx, events, logger)
	env.depositUC = NewDepositUsecase(env.deposits, env.accounts, env.audits, tx, env.policyUC, env.referralUC, events, logger)
	env.withdrawalUC = NewWithdrawalUsecase(env.withdrawals, env.accounts, env.audits, tx, env.policyUC, events, logger)
	env.dailyRewardUC = NewDailyRewardUsecase(env.claims, env.accounts, env.referrals, env.audits, tx, env.policyUC, events, logger)
	env.randomRewardUC = NewRandomRewardUsecase(env.claims, env.accounts, env.audits, tx, env.policyUC, events, logger)

	clock := func() time.Time { return env.now }
	env.depositUC.now = clock
	env.withdrawalUC.now = clock
	env.dailyRewardUC.now = clock
	env.randomRewardUC.now = clock
	env.referralUC.now = clock

	return env
}

func (e *testEnv) daysAgo(n int) *time.Time {
	t := e.now.AddDate(0, 0, -n)
	return &t
}
