package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
)

// ReconcileServiceImpl implements ports.WebhookReconciler. Webhooks are
// the acquirer's authoritative outcome signal: they settle PENDING
// records, ack duplicates, and flag conflicting terminal states without
// ever overwriting them. A payment settling to APPROVED through a
// webhook owes the same wallet debit as the synchronous path.
type ReconcileServiceImpl struct {
	transactions  ports.TransactionRepository
	notifications ports.NotificationRepository
	wallets       ports.WalletRepository
	transactor    ports.DBTransactor
	feeRate       decimal.Decimal
	log           zerolog.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl.
func NewReconcileService(
	transactions ports.TransactionRepository,
	notifications ports.NotificationRepository,
	wallets ports.WalletRepository,
	transactor ports.DBTransactor,
	feeRate decimal.Decimal,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		transactions:  transactions,
		notifications: notifications,
		wallets:       wallets,
		transactor:    transactor,
		feeRate:       feeRate,
		log:           log,
	}
}

// Reconcile applies one acquirer callback payload. Unknown transactions
// are acked so the acquirer stops retrying; the event is logged.
func (s *ReconcileServiceImpl) Reconcile(ctx context.Context, payload []byte) (*domain.WebhookAck, error) {
	hook, err := domain.ParseAcquirerWebhook(payload)
	if err != nil {
		return nil, apperror.Validation("malformed webhook payload")
	}

	rec, err := s.transactions.GetByMerchantTxID(ctx, hook.MerchantTxID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if rec == nil {
		s.log.Warn().Str("merchant_tx_id", hook.MerchantTxID).Msg("webhook for unknown transaction, acking")
		return &domain.WebhookAck{MerchantTxID: hook.MerchantTxID, Applied: false}, nil
	}

	incoming := domain.MapGatewayState(hook.Payment.State)

	if rec.Status == incoming {
		// Duplicate delivery of an outcome already recorded.
		return &domain.WebhookAck{MerchantTxID: hook.MerchantTxID, Applied: false, Status: rec.Status}, nil
	}

	if rec.IsTerminal() || !rec.CanTransition(incoming) {
		s.flagConflict(ctx, rec, incoming)
		return &domain.WebhookAck{MerchantTxID: hook.MerchantTxID, Applied: false, Conflict: true, Status: rec.Status}, nil
	}

	acqID := optional(hook.Payment.AcquirerTxID)
	var acqAuthID *string
	if rec.Kind == domain.KindAuthorization && incoming == domain.StatusApproved {
		acqAuthID = acqID
	}

	var applied bool
	if rec.Kind == domain.KindPayment && incoming == domain.StatusApproved {
		applied, err = s.settleApprovedPayment(ctx, rec, acqID, payload)
	} else {
		applied, err = s.transactions.RecordOutcome(ctx, rec.MerchantTxID, incoming, acqID, acqAuthID, payload)
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record webhook outcome: %w", err))
	}
	if !applied {
		// Lost a race with another writer; the stored state wins.
		current, err := s.transactions.GetByMerchantTxID(ctx, rec.MerchantTxID)
		if err == nil && current != nil {
			if current.Status != incoming {
				s.flagConflict(ctx, current, incoming)
				return &domain.WebhookAck{MerchantTxID: hook.MerchantTxID, Applied: false, Conflict: true, Status: current.Status}, nil
			}
			return &domain.WebhookAck{MerchantTxID: hook.MerchantTxID, Applied: false, Status: current.Status}, nil
		}
		return &domain.WebhookAck{MerchantTxID: hook.MerchantTxID, Applied: false, Status: rec.Status}, nil
	}

	s.log.Info().
		Str("merchant_tx_id", rec.MerchantTxID).
		Str("from", string(rec.Status)).
		Str("to", string(incoming)).
		Msg("webhook outcome applied")
	return &domain.WebhookAck{MerchantTxID: hook.MerchantTxID, Applied: true, Status: incoming}, nil
}

// settleApprovedPayment applies an APPROVED webhook to a payment record
// and debits the wallet (amount plus fee) in the same transaction, the
// movement the synchronous path would have applied. Returns false when
// another writer settled the record first; nothing is debited then.
func (s *ReconcileServiceImpl) settleApprovedPayment(ctx context.Context, rec *domain.TransactionRecord, acqID *string, payload []byte) (bool, error) {
	wallet, err := s.wallets.GetByMerchantExtID(ctx, rec.MerchantExtID)
	if err != nil {
		return false, fmt.Errorf("get wallet: %w", err)
	}
	if wallet == nil {
		return false, fmt.Errorf("no wallet for merchant %s", rec.MerchantExtID)
	}
	fee := domain.TransactionFee(rec.RequestedAmount, s.feeRate)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

	applied, err := s.transactions.RecordOutcomeTx(ctx, dbTx, rec.MerchantTxID, domain.StatusApproved, acqID, nil, payload)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}
	if err := s.wallets.Debit(ctx, dbTx, wallet.ID, rec.RequestedAmount, fee, rec.MerchantTxID); err != nil {
		return false, err
	}
	if err := s.transactor.Commit(ctx, dbTx); err != nil {
		return false, fmt.Errorf("commit webhook outcome: %w", err)
	}
	return true, nil
}

// flagConflict records an anomaly notification for a webhook that
// disagrees with a terminal record. The stored state is never changed.
func (s *ReconcileServiceImpl) flagConflict(ctx context.Context, rec *domain.TransactionRecord, incoming domain.TransactionStatus) {
	s.log.Error().
		Str("merchant_tx_id", rec.MerchantTxID).
		Str("stored", string(rec.Status)).
		Str("incoming", string(incoming)).
		Msg("webhook conflicts with terminal transaction state")

	exists, err := s.notifications.ExistsByReference(ctx, rec.MerchantExtID, domain.NotifyWebhookConflict, rec.MerchantTxID)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not check conflict notification")
		return
	}
	if exists {
		return
	}

	n := &domain.Notification{
		ID:            uuid.New(),
		MerchantExtID: rec.MerchantExtID,
		Type:          domain.NotifyWebhookConflict,
		Reference:     rec.MerchantTxID,
		Message: fmt.Sprintf("acquirer reported %s for transaction %s already recorded as %s",
			incoming, rec.MerchantTxID, rec.Status),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.log.Warn().Err(err).Msg("could not create conflict notification")
	}
}
