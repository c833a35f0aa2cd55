package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
)

// realClock is the production ports.Clock.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NewClock returns the wall-clock implementation of ports.Clock.
func NewClock() ports.Clock { return realClock{} }

// SubscriptionServiceImpl implements ports.SubscriptionService and runs
// the renewal scheduler. A subscription inside the notify window gets
// one expiry notification; past expiry the plan price is debited from
// the wallet, extending the term on success and canceling on
// insufficient funds. Every decision is idempotent per day, so a crashed
// run can be repeated safely.
type SubscriptionServiceImpl struct {
	subscriptions ports.SubscriptionRepository
	notifications ports.NotificationRepository
	wallets       ports.WalletRepository
	transactor    ports.DBTransactor
	clock         ports.Clock
	notifyWindow  time.Duration
	interval      time.Duration
	log           zerolog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// NewSubscriptionService creates a new SubscriptionServiceImpl.
func NewSubscriptionService(
	subscriptions ports.SubscriptionRepository,
	notifications ports.NotificationRepository,
	wallets ports.WalletRepository,
	transactor ports.DBTransactor,
	clock ports.Clock,
	notifyWindow, interval time.Duration,
	log zerolog.Logger,
) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{
		subscriptions: subscriptions,
		notifications: notifications,
		wallets:       wallets,
		transactor:    transactor,
		clock:         clock,
		notifyWindow:  notifyWindow,
		interval:      interval,
		log:           log,
	}
}

// Subscribe creates an active subscription for a merchant. One active
// subscription per merchant.
func (s *SubscriptionServiceImpl) Subscribe(ctx context.Context, merchantExtID, plan string, amount decimal.Decimal, currency string) (*domain.Subscription, error) {
	if !amount.IsPositive() {
		return nil, apperror.Validation("subscription amount must be positive")
	}

	existing, err := s.subscriptions.GetActiveByMerchant(ctx, merchantExtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check active subscription: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateTransaction()
	}

	now := s.clock.Now()
	sub := &domain.Subscription{
		ID:            uuid.New(),
		MerchantExtID: merchantExtID,
		Plan:          plan,
		Amount:        amount,
		Currency:      currency,
		Status:        domain.SubscriptionActive,
		CreatedAt:     now,
		ExpiresAt:     now.Add(domain.RenewalExtension),
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create subscription: %w", err))
	}

	s.log.Info().Str("merchant_ext_id", merchantExtID).Str("plan", plan).Msg("subscription created")
	return sub, nil
}

// Cancel deactivates a merchant's active subscription.
func (s *SubscriptionServiceImpl) Cancel(ctx context.Context, merchantExtID string) error {
	sub, err := s.subscriptions.GetActiveByMerchant(ctx, merchantExtID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get active subscription: %w", err))
	}
	if sub == nil {
		return apperror.ErrTransactionNotFound()
	}
	if err := s.subscriptions.UpdateStatus(ctx, sub.ID, domain.SubscriptionCanceled); err != nil {
		return apperror.InternalError(fmt.Errorf("cancel subscription: %w", err))
	}
	return nil
}

// Start launches the periodic scheduler loop until Stop is called.
func (s *SubscriptionServiceImpl) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	stop, stopped := s.stop, s.stopped
	s.mu.Unlock()

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					s.log.Error().Err(err).Msg("scheduler run failed")
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.log.Info().Dur("interval", s.interval).Msg("subscription scheduler started")
}

// Stop halts the scheduler loop and waits for the worker to exit.
func (s *SubscriptionServiceImpl) Stop() {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped
	s.log.Info().Msg("subscription scheduler stopped")
}

// RunOnce performs a single scheduler sweep: notify subscriptions inside
// the window, renew or cancel the ones past expiry.
func (s *SubscriptionServiceImpl) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	subs, err := s.subscriptions.ListExpiringWithin(ctx, now.Add(s.notifyWindow))
	if err != nil {
		return apperror.InternalError(fmt.Errorf("list expiring subscriptions: %w", err))
	}

	for i := range subs {
		sub := &subs[i]
		if sub.ExpiresAt.After(now) {
			s.notifyExpiry(ctx, sub)
			continue
		}
		if err := s.renew(ctx, sub, now); err != nil {
			s.log.Error().Err(err).Str("subscription_id", sub.ID.String()).Msg("renewal failed")
		}
	}
	return nil
}

// notifyExpiry emits the expiry warning once per subscription term.
func (s *SubscriptionServiceImpl) notifyExpiry(ctx context.Context, sub *domain.Subscription) {
	ref := expiryReference(sub)
	exists, err := s.notifications.ExistsByReference(ctx, sub.MerchantExtID, domain.NotifySubscriptionExpiry, ref)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not check expiry notification")
		return
	}
	if exists {
		return
	}

	n := &domain.Notification{
		ID:            uuid.New(),
		MerchantExtID: sub.MerchantExtID,
		Type:          domain.NotifySubscriptionExpiry,
		Reference:     ref,
		Message:       fmt.Sprintf("subscription %s expires at %s", sub.Plan, sub.ExpiresAt.Format(time.RFC3339)),
		CreatedAt:     s.clock.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Warn().Err(err).Msg("could not create expiry notification")
	}
}

// renew debits the plan price and extends the term, or cancels on
// insufficient funds. Debit and expiry extension commit together.
func (s *SubscriptionServiceImpl) renew(ctx context.Context, sub *domain.Subscription, now time.Time) error {
	wallet, err := s.wallets.GetByMerchantExtID(ctx, sub.MerchantExtID)
	if err != nil {
		return fmt.Errorf("get wallet: %w", err)
	}
	if wallet == nil {
		return s.cancelUnpaid(ctx, sub, "wallet not found")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

	reference := "subscription:" + sub.ID.String() + ":" + sub.ExpiresAt.Format("2006-01-02")
	err = s.wallets.Debit(ctx, dbTx, wallet.ID, sub.Amount, decimal.Zero, reference)
	if err != nil {
		if apperror.IsInsufficientFunds(err) {
			return s.cancelUnpaid(ctx, sub, "insufficient funds")
		}
		return fmt.Errorf("debit renewal: %w", err)
	}

	newExpiry := sub.ExpiresAt.Add(domain.RenewalExtension)
	if newExpiry.Before(now) {
		// Long-lapsed subscription: restart the term from now.
		newExpiry = now.Add(domain.RenewalExtension)
	}
	if err := s.subscriptions.UpdateExpiry(ctx, dbTx, sub.ID, newExpiry); err != nil {
		return fmt.Errorf("extend subscription: %w", err)
	}

	if err := s.transactor.Commit(ctx, dbTx); err != nil {
		return fmt.Errorf("commit renewal: %w", err)
	}

	n := &domain.Notification{
		ID:            uuid.New(),
		MerchantExtID: sub.MerchantExtID,
		Type:          domain.NotifySubscriptionRenewed,
		Reference:     reference,
		Message:       fmt.Sprintf("subscription %s renewed until %s", sub.Plan, newExpiry.Format(time.RFC3339)),
		CreatedAt:     s.clock.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Warn().Err(err).Msg("could not create renewal notification")
	}

	s.log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("merchant_ext_id", sub.MerchantExtID).
		Time("expires_at", newExpiry).
		Msg("subscription renewed")
	return nil
}

func (s *SubscriptionServiceImpl) cancelUnpaid(ctx context.Context, sub *domain.Subscription, reason string) error {
	if err := s.subscriptions.UpdateStatus(ctx, sub.ID, domain.SubscriptionCanceled); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}

	n := &domain.Notification{
		ID:            uuid.New(),
		MerchantExtID: sub.MerchantExtID,
		Type:          domain.NotifySubscriptionCanceled,
		Reference:     sub.ID.String(),
		Message:       fmt.Sprintf("subscription %s canceled: %s", sub.Plan, reason),
		CreatedAt:     s.clock.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Warn().Err(err).Msg("could not create cancellation notification")
	}

	s.log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("reason", reason).
		Msg("subscription canceled")
	return nil
}

func expiryReference(sub *domain.Subscription) string {
	return sub.ID.String() + ":" + sub.ExpiresAt.Format("2006-01-02")
}
