package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
)

const idempotencyTTL = 24 * time.Hour

// PaymentServiceImpl implements ports.PaymentService. It drives each
// transaction from PENDING to its terminal state: precondition checks,
// PENDING record, one gateway round trip, then outcome persistence. No
// database lock is held across the gateway call.
type PaymentServiceImpl struct {
	merchants    ports.MerchantRepository
	branches     ports.BranchRepository
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	idempRepo    ports.IdempotencyRepository
	idempCache   ports.IdempotencyCache
	credentials  ports.CredentialStore
	gateway      ports.AcquirerClient
	transactor   ports.DBTransactor
	feeRate      decimal.Decimal
	log          zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl. feeRate is the
// percentage charged on wallet debits.
func NewPaymentService(
	merchants ports.MerchantRepository,
	branches ports.BranchRepository,
	wallets ports.WalletRepository,
	transactions ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	credentials ports.CredentialStore,
	gateway ports.AcquirerClient,
	transactor ports.DBTransactor,
	feeRate decimal.Decimal,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		merchants:    merchants,
		branches:     branches,
		wallets:      wallets,
		transactions: transactions,
		idempRepo:    idempRepo,
		idempCache:   idempCache,
		credentials:  credentials,
		gateway:      gateway,
		transactor:   transactor,
		feeRate:      feeRate,
		log:          log,
	}
}

// SubmitPayment runs an instant barcode payment end to end.
func (s *PaymentServiceImpl) SubmitPayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}
	if req.Barcode == "" || req.Currency == "" || req.ReferenceID == "" {
		return nil, apperror.Validation("barcode, currency and reference_id are required")
	}

	idempKey := domain.BuildIdempotencyKey(req.MerchantExtID, domain.KindPayment, req.ReferenceID)
	if replay, err := s.checkIdempotency(ctx, idempKey); replay != nil || err != nil {
		return replay, err
	}

	branch, creds, err := s.resolveMerchantContext(ctx, req.MerchantExtID, req.BranchExtID)
	if err != nil {
		return nil, err
	}

	if dup, err := s.checkInFlight(ctx, req.MerchantExtID, domain.KindPayment, req.ReferenceID); dup != nil || err != nil {
		return dup, err
	}

	wallet, fee, err := s.checkFunds(ctx, req.MerchantExtID, req.Amount)
	if err != nil {
		return nil, err
	}

	merchantTxID := domain.NewMerchantTxID(domain.KindPayment)
	payload := ports.GatewayPayment{
		BranchExtID:     req.BranchExtID,
		MerchantTxID:    merchantTxID,
		Scheme:          req.Scheme,
		Barcode:         req.Barcode,
		RequestedAmount: domain.MinorUnits(req.Amount),
		Currency:        req.Currency,
		Slip:            req.Slip,
		Terminal:        branch.Terminal,
		Operator:        branch.Operator,
	}

	rec, err := s.createPending(ctx, merchantTxID, req.ReferenceID, req.MerchantExtID, domain.KindPayment, req.Amount, req.Currency, branch, payload, nil)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.SubmitPayment(ctx, *creds, payload)
	if err != nil {
		// The record stays PENDING: the outcome is unknown until the
		// acquirer webhook or a status query resolves it.
		s.log.Error().Err(err).Str("merchant_tx_id", merchantTxID).Msg("payment gateway call failed")
		return nil, err
	}

	status := outcomeStatus(result)
	if status == domain.StatusApproved {
		return s.settleApproved(ctx, rec, result, idempKey, wallet.ID, req.Amount, fee, nil)
	}
	return s.settleRejected(ctx, rec, result, status, idempKey)
}

// CancelPayment cancels a PENDING payment before the acquirer settles it.
func (s *PaymentServiceImpl) CancelPayment(ctx context.Context, merchantExtID, merchantTxID string) (*ports.PaymentResult, error) {
	rec, err := s.getOwnedTransaction(ctx, merchantExtID, merchantTxID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusPending {
		return nil, apperror.ErrInvalidStateTransition(string(rec.Status), string(domain.StatusCancelled))
	}

	creds, err := s.credentials.Resolve(ctx, merchantExtID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.CancelPayment(ctx, *creds, merchantTxID)
	if err != nil {
		return nil, err
	}
	if result.HTTPStatus < 200 || result.HTTPStatus >= 300 {
		return nil, apperror.ErrGateway(result.HTTPStatus)
	}

	applied, err := s.transactions.RecordOutcome(ctx, merchantTxID, domain.StatusCancelled, nil, nil, result.RawBody)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record cancel outcome: %w", err))
	}
	if !applied {
		// A webhook settled the payment while the cancel was in flight.
		current, err := s.transactions.GetByMerchantTxID(ctx, merchantTxID)
		if err != nil || current == nil {
			return nil, apperror.ErrInvalidStateTransition(string(domain.StatusPending), string(domain.StatusCancelled))
		}
		return nil, apperror.ErrInvalidStateTransition(string(current.Status), string(domain.StatusCancelled))
	}

	s.log.Info().Str("merchant_tx_id", merchantTxID).Msg("payment cancelled")
	return &ports.PaymentResult{MerchantTxID: merchantTxID, Status: domain.StatusCancelled}, nil
}

// GetStatus returns the stored record, refreshing a PENDING one from the
// acquirer's status endpoint first.
func (s *PaymentServiceImpl) GetStatus(ctx context.Context, merchantExtID, merchantTxID string) (*domain.TransactionRecord, error) {
	rec, err := s.getOwnedTransaction(ctx, merchantExtID, merchantTxID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusPending {
		return rec, nil
	}

	creds, err := s.credentials.Resolve(ctx, merchantExtID)
	if err != nil {
		return nil, err
	}

	result, err := s.queryStatus(ctx, *creds, rec)
	if err != nil {
		// The stored record is still the best answer we have.
		s.log.Warn().Err(err).Str("merchant_tx_id", merchantTxID).Msg("gateway status query failed, returning stored record")
		return rec, nil
	}

	status := domain.MapGatewayState(result.State)
	if result.HTTPStatus >= 200 && result.HTTPStatus < 300 && (status == domain.StatusApproved || status == domain.StatusDeclined) {
		acqID := optional(result.AcquirerTxID)
		if status == domain.StatusApproved && rec.Kind == domain.KindPayment {
			// A payment approving out of band still owes the wallet
			// movement the synchronous path applies.
			if err := s.settleRefreshedApproved(ctx, rec, acqID, result.RawBody); err != nil {
				return nil, err
			}
		} else if _, err := s.transactions.RecordOutcome(ctx, rec.MerchantTxID, status, acqID, nil, result.RawBody); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record status outcome: %w", err))
		}
		if refreshed, err := s.transactions.GetByMerchantTxID(ctx, rec.MerchantTxID); err == nil && refreshed != nil {
			return refreshed, nil
		}
	}
	return rec, nil
}

// settleRefreshedApproved records an out-of-band APPROVED outcome for a
// payment and debits the wallet (amount plus fee) in the same
// transaction, mirroring the synchronous settle.
func (s *PaymentServiceImpl) settleRefreshedApproved(ctx context.Context, rec *domain.TransactionRecord, acqID *string, raw []byte) error {
	wallet, err := s.wallets.GetByMerchantExtID(ctx, rec.MerchantExtID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}
	fee := domain.TransactionFee(rec.RequestedAmount, s.feeRate)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

	applied, err := s.transactions.RecordOutcomeTx(ctx, dbTx, rec.MerchantTxID, domain.StatusApproved, acqID, nil, raw)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("record status outcome: %w", err))
	}
	if !applied {
		// Lost a race with another writer; the stored state wins.
		return nil
	}
	if err := s.wallets.Debit(ctx, dbTx, wallet.ID, rec.RequestedAmount, fee, rec.MerchantTxID); err != nil {
		return err
	}
	if err := s.transactor.Commit(ctx, dbTx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit status outcome: %w", err))
	}
	return nil
}

func (s *PaymentServiceImpl) queryStatus(ctx context.Context, creds domain.Credentials, rec *domain.TransactionRecord) (*ports.GatewayResult, error) {
	switch rec.Kind {
	case domain.KindAuthorization:
		return s.gateway.AuthorizationStatus(ctx, creds, rec.MerchantTxID)
	case domain.KindCapture:
		return s.gateway.CaptureStatus(ctx, creds, rec.MerchantTxID)
	case domain.KindRefund:
		return s.gateway.RefundStatus(ctx, creds, rec.MerchantTxID)
	default:
		return s.gateway.PaymentStatus(ctx, creds, rec.MerchantTxID)
	}
}

// Authorize registers a deferred authorization hold. No wallet movement
// happens until capture.
func (s *PaymentServiceImpl) Authorize(ctx context.Context, req ports.AuthorizationRequest) (*ports.PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}
	if req.Barcode == "" || req.Currency == "" || req.ReferenceID == "" {
		return nil, apperror.Validation("barcode, currency and reference_id are required")
	}

	idempKey := domain.BuildIdempotencyKey(req.MerchantExtID, domain.KindAuthorization, req.ReferenceID)
	if replay, err := s.checkIdempotency(ctx, idempKey); replay != nil || err != nil {
		return replay, err
	}

	branch, creds, err := s.resolveMerchantContext(ctx, req.MerchantExtID, req.BranchExtID)
	if err != nil {
		return nil, err
	}

	if dup, err := s.checkInFlight(ctx, req.MerchantExtID, domain.KindAuthorization, req.ReferenceID); dup != nil || err != nil {
		return dup, err
	}

	merchantTxID := domain.NewMerchantTxID(domain.KindAuthorization)
	payload := ports.GatewayAuthorization{
		BranchExtID:             req.BranchExtID,
		MerchantAuthorizationID: merchantTxID,
		Scheme:                  req.Scheme,
		Barcode:                 req.Barcode,
		RequestedAmount:         domain.MinorUnits(req.Amount),
		Currency:                req.Currency,
		Terminal:                branch.Terminal,
		Operator:                branch.Operator,
	}

	rec, err := s.createPending(ctx, merchantTxID, req.ReferenceID, req.MerchantExtID, domain.KindAuthorization, req.Amount, req.Currency, branch, payload, nil)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.RegisterAuthorization(ctx, *creds, payload)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_tx_id", merchantTxID).Msg("authorization gateway call failed")
		return nil, err
	}

	status := outcomeStatus(result)
	if status != domain.StatusApproved {
		return s.settleRejected(ctx, rec, result, status, idempKey)
	}

	// The acquirer tx id doubles as the authorization id captures and
	// refunds reference later.
	acqID := optional(result.AcquirerTxID)
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

	applied, err := s.transactions.RecordOutcomeTx(ctx, dbTx, merchantTxID, domain.StatusApproved, acqID, acqID, result.RawBody)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record authorization outcome: %w", err))
	}
	if !applied {
		return nil, apperror.ErrInvalidStateTransition(string(domain.StatusPending), string(domain.StatusApproved))
	}

	res := &ports.PaymentResult{MerchantTxID: merchantTxID, Status: domain.StatusApproved, AcquirerTxID: acqID}
	if err := s.saveIdempotency(ctx, dbTx, idempKey, merchantTxID, res); err != nil {
		return nil, err
	}
	if err := s.transactor.Commit(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.cacheResult(ctx, idempKey, res)

	s.log.Info().Str("merchant_tx_id", merchantTxID).Str("merchant_ext_id", req.MerchantExtID).Msg("authorization registered")
	return res, nil
}

// Capture captures a previously approved authorization, inheriting
// amount, currency, terminal and operator from it unless overridden.
func (s *PaymentServiceImpl) Capture(ctx context.Context, req ports.CaptureRequest) (*ports.PaymentResult, error) {
	if req.ReferenceID == "" || req.MerchantAuthorizationTxID == "" {
		return nil, apperror.Validation("reference_id and merchant_authorization_id are required")
	}

	idempKey := domain.BuildIdempotencyKey(req.MerchantExtID, domain.KindCapture, req.ReferenceID)
	if replay, err := s.checkIdempotency(ctx, idempKey); replay != nil || err != nil {
		return replay, err
	}

	auth, err := s.getOwnedTransaction(ctx, req.MerchantExtID, req.MerchantAuthorizationTxID)
	if err != nil {
		return nil, err
	}
	if auth.Kind != domain.KindAuthorization {
		return nil, apperror.Validation("merchant_authorization_id does not reference an authorization")
	}
	if !auth.CanTransition(domain.StatusCaptured) {
		return nil, apperror.ErrInvalidStateTransition(string(auth.Status), string(domain.StatusCaptured))
	}
	if auth.AcquirerAuthorizationID == nil {
		return nil, apperror.InternalError(fmt.Errorf("approved authorization %s has no acquirer id", auth.MerchantTxID))
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = auth.RequestedAmount
	}
	if !amount.IsPositive() || amount.GreaterThan(auth.RequestedAmount) {
		return nil, apperror.Validation("capture amount must be positive and within the authorized amount")
	}
	currency := req.Currency
	if currency == "" {
		currency = auth.Currency
	} else if currency != auth.Currency {
		return nil, apperror.Validation("capture currency must match the authorization currency")
	}

	creds, err := s.credentials.Resolve(ctx, req.MerchantExtID)
	if err != nil {
		return nil, err
	}

	if dup, err := s.checkInFlight(ctx, req.MerchantExtID, domain.KindCapture, req.ReferenceID); dup != nil || err != nil {
		return dup, err
	}

	wallet, fee, err := s.checkFunds(ctx, req.MerchantExtID, amount)
	if err != nil {
		return nil, err
	}

	merchantTxID := domain.NewMerchantTxID(domain.KindCapture)
	payload := ports.GatewayCapture{
		AcquirerAuthorizationID: *auth.AcquirerAuthorizationID,
		MerchantCaptureID:       merchantTxID,
		RequestedAmount:         domain.MinorUnits(amount),
		Currency:                currency,
		Slip:                    req.Slip,
		SlipDateTime:            req.SlipDateTime,
		Terminal:                auth.Terminal,
		Operator:                auth.Operator,
	}

	rec, err := s.createPending(ctx, merchantTxID, req.ReferenceID, req.MerchantExtID, domain.KindCapture, amount, currency, nil, payload, auth.AcquirerAuthorizationID)
	if err != nil {
		return nil, err
	}
	rec.Terminal = auth.Terminal
	rec.Operator = auth.Operator

	result, err := s.gateway.Capture(ctx, *creds, payload)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_tx_id", merchantTxID).Msg("capture gateway call failed")
		return nil, err
	}

	status := outcomeStatus(result)
	if status != domain.StatusApproved {
		return s.settleRejected(ctx, rec, result, status, idempKey)
	}
	return s.settleApproved(ctx, rec, result, idempKey, wallet.ID, amount, fee, &captureSideEffect{authMerchantTxID: auth.MerchantTxID, to: domain.StatusCaptured})
}

// Release voids an approved authorization hold. No wallet movement.
func (s *PaymentServiceImpl) Release(ctx context.Context, req ports.ReleaseRequest) (*ports.PaymentResult, error) {
	if req.ReferenceID == "" || req.MerchantAuthorizationTxID == "" {
		return nil, apperror.Validation("reference_id and merchant_authorization_id are required")
	}

	idempKey := domain.BuildIdempotencyKey(req.MerchantExtID, domain.KindRelease, req.ReferenceID)
	if replay, err := s.checkIdempotency(ctx, idempKey); replay != nil || err != nil {
		return replay, err
	}

	auth, err := s.getOwnedTransaction(ctx, req.MerchantExtID, req.MerchantAuthorizationTxID)
	if err != nil {
		return nil, err
	}
	if auth.Kind != domain.KindAuthorization {
		return nil, apperror.Validation("merchant_authorization_id does not reference an authorization")
	}
	if !auth.CanTransition(domain.StatusReleased) {
		return nil, apperror.ErrInvalidStateTransition(string(auth.Status), string(domain.StatusReleased))
	}
	if auth.AcquirerAuthorizationID == nil {
		return nil, apperror.InternalError(fmt.Errorf("approved authorization %s has no acquirer id", auth.MerchantTxID))
	}

	creds, err := s.credentials.Resolve(ctx, req.MerchantExtID)
	if err != nil {
		return nil, err
	}

	if dup, err := s.checkInFlight(ctx, req.MerchantExtID, domain.KindRelease, req.ReferenceID); dup != nil || err != nil {
		return dup, err
	}

	merchantTxID := domain.NewMerchantTxID(domain.KindRelease)
	payload := ports.GatewayRelease{MerchantAuthorizationID: auth.MerchantTxID}

	rec, err := s.createPending(ctx, merchantTxID, req.ReferenceID, req.MerchantExtID, domain.KindRelease, auth.RequestedAmount, auth.Currency, nil, payload, auth.AcquirerAuthorizationID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Release(ctx, *creds, payload)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_tx_id", merchantTxID).Msg("release gateway call failed")
		return nil, err
	}

	if result.HTTPStatus < 200 || result.HTTPStatus >= 300 {
		return s.settleRejected(ctx, rec, result, domain.StatusError, idempKey)
	}
	return s.settleApproved(ctx, rec, result, idempKey, uuid.Nil, decimal.Zero, decimal.Zero, &captureSideEffect{authMerchantTxID: auth.MerchantTxID, to: domain.StatusReleased})
}

// Refund refunds a captured authorization and credits the wallet back.
func (s *PaymentServiceImpl) Refund(ctx context.Context, req ports.RefundRequest) (*ports.PaymentResult, error) {
	if req.ReferenceID == "" || req.MerchantCaptureTxID == "" {
		return nil, apperror.Validation("reference_id and merchant_capture_id are required")
	}

	idempKey := domain.BuildIdempotencyKey(req.MerchantExtID, domain.KindRefund, req.ReferenceID)
	if replay, err := s.checkIdempotency(ctx, idempKey); replay != nil || err != nil {
		return replay, err
	}

	capture, err := s.getOwnedTransaction(ctx, req.MerchantExtID, req.MerchantCaptureTxID)
	if err != nil {
		return nil, err
	}
	if capture.Kind != domain.KindCapture {
		return nil, apperror.Validation("merchant_capture_id does not reference a capture")
	}
	if capture.Status != domain.StatusApproved || capture.AcquirerAuthorizationID == nil {
		return nil, apperror.ErrInvalidStateTransition(string(capture.Status), string(domain.StatusRefunded))
	}

	auth, err := s.transactions.GetAuthorizationByAcquirerID(ctx, *capture.AcquirerAuthorizationID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find authorization: %w", err))
	}
	if auth == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	if !auth.CanTransition(domain.StatusRefunded) {
		return nil, apperror.ErrInvalidStateTransition(string(auth.Status), string(domain.StatusRefunded))
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = capture.RequestedAmount
	}
	if !amount.IsPositive() || amount.GreaterThan(capture.RequestedAmount) {
		return nil, apperror.Validation("refund amount must be positive and within the captured amount")
	}

	creds, err := s.credentials.Resolve(ctx, req.MerchantExtID)
	if err != nil {
		return nil, err
	}

	if dup, err := s.checkInFlight(ctx, req.MerchantExtID, domain.KindRefund, req.ReferenceID); dup != nil || err != nil {
		return dup, err
	}

	wallet, err := s.wallets.GetByMerchantExtID(ctx, req.MerchantExtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	merchantTxID := domain.NewMerchantTxID(domain.KindRefund)
	payload := ports.GatewayRefund{
		AcquirerAuthorizationID: *capture.AcquirerAuthorizationID,
		MerchantRefundID:        merchantTxID,
		Amount:                  domain.MinorUnits(amount),
		Reason:                  req.Reason,
	}

	rec, err := s.createPending(ctx, merchantTxID, req.ReferenceID, req.MerchantExtID, domain.KindRefund, amount, capture.Currency, nil, payload, capture.AcquirerAuthorizationID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Refund(ctx, *creds, payload)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_tx_id", merchantTxID).Msg("refund gateway call failed")
		return nil, err
	}

	status := outcomeStatus(result)
	if status != domain.StatusApproved {
		return s.settleRejected(ctx, rec, result, status, idempKey)
	}

	// Credit the refunded amount back and settle both records atomically.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

	if err := s.wallets.Credit(ctx, dbTx, wallet.ID, amount, domain.EntryCredit, merchantTxID); err != nil {
		return nil, err
	}

	acqID := optional(result.AcquirerTxID)
	applied, err := s.transactions.RecordOutcomeTx(ctx, dbTx, merchantTxID, domain.StatusApproved, acqID, nil, result.RawBody)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record refund outcome: %w", err))
	}
	if !applied {
		return nil, apperror.ErrInvalidStateTransition(string(domain.StatusPending), string(domain.StatusApproved))
	}

	applied, err = s.transactions.RecordOutcomeTx(ctx, dbTx, auth.MerchantTxID, domain.StatusRefunded, nil, nil, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark authorization refunded: %w", err))
	}
	if !applied {
		return nil, apperror.ErrInvalidStateTransition(string(auth.Status), string(domain.StatusRefunded))
	}

	res := &ports.PaymentResult{MerchantTxID: merchantTxID, Status: domain.StatusApproved, AcquirerTxID: acqID}
	if err := s.saveIdempotency(ctx, dbTx, idempKey, merchantTxID, res); err != nil {
		return nil, err
	}
	if err := s.transactor.Commit(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.cacheResult(ctx, idempKey, res)

	s.log.Info().
		Str("merchant_tx_id", merchantTxID).
		Str("authorization_tx_id", auth.MerchantTxID).
		Str("amount", amount.String()).
		Msg("refund processed")
	return res, nil
}

// captureSideEffect carries the authorization transition applied in the
// same transaction as a capture or release outcome.
type captureSideEffect struct {
	authMerchantTxID string
	to               domain.TransactionStatus
}

// settleApproved persists an APPROVED outcome: wallet debit (when the
// wallet id is set), the outcome transition, an optional authorization
// side effect and the idempotency log in one database transaction.
func (s *PaymentServiceImpl) settleApproved(
	ctx context.Context,
	rec *domain.TransactionRecord,
	result *ports.GatewayResult,
	idempKey string,
	walletID uuid.UUID,
	amount, fee decimal.Decimal,
	side *captureSideEffect,
) (*ports.PaymentResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

	if walletID != uuid.Nil {
		if err := s.wallets.Debit(ctx, dbTx, walletID, amount, fee, rec.MerchantTxID); err != nil {
			return nil, err
		}
	}

	acqID := optional(result.AcquirerTxID)
	applied, err := s.transactions.RecordOutcomeTx(ctx, dbTx, rec.MerchantTxID, domain.StatusApproved, acqID, nil, result.RawBody)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record outcome: %w", err))
	}
	if !applied {
		return nil, apperror.ErrInvalidStateTransition(string(domain.StatusPending), string(domain.StatusApproved))
	}

	if side != nil {
		applied, err := s.transactions.RecordOutcomeTx(ctx, dbTx, side.authMerchantTxID, side.to, nil, nil, nil)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record authorization transition: %w", err))
		}
		if !applied {
			return nil, apperror.ErrInvalidStateTransition(string(domain.StatusApproved), string(side.to))
		}
	}

	res := &ports.PaymentResult{MerchantTxID: rec.MerchantTxID, Status: domain.StatusApproved, AcquirerTxID: acqID}
	if err := s.saveIdempotency(ctx, dbTx, idempKey, rec.MerchantTxID, res); err != nil {
		return nil, err
	}
	if err := s.transactor.Commit(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.cacheResult(ctx, idempKey, res)

	s.log.Info().
		Str("merchant_tx_id", rec.MerchantTxID).
		Str("kind", string(rec.Kind)).
		Str("amount", amount.String()).
		Msg("gateway operation approved")
	return res, nil
}

// settleRejected records a DECLINED or ERROR outcome. Declines are
// deterministic and enter the idempotency log; errors stay replayable.
func (s *PaymentServiceImpl) settleRejected(
	ctx context.Context,
	rec *domain.TransactionRecord,
	result *ports.GatewayResult,
	status domain.TransactionStatus,
	idempKey string,
) (*ports.PaymentResult, error) {
	res := &ports.PaymentResult{MerchantTxID: rec.MerchantTxID, Status: status}

	if status == domain.StatusDeclined {
		dbTx, err := s.transactor.Begin(ctx)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
		}
		defer s.transactor.Rollback(ctx, dbTx) //nolint:errcheck

		if _, err := s.transactions.RecordOutcomeTx(ctx, dbTx, rec.MerchantTxID, status, nil, nil, result.RawBody); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record outcome: %w", err))
		}
		if err := s.saveIdempotency(ctx, dbTx, idempKey, rec.MerchantTxID, res); err != nil {
			return nil, err
		}
		if err := s.transactor.Commit(ctx, dbTx); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
		}
		s.cacheResult(ctx, idempKey, res)
	} else {
		if _, err := s.transactions.RecordOutcome(ctx, rec.MerchantTxID, status, nil, nil, result.RawBody); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record outcome: %w", err))
		}
	}

	s.log.Info().
		Str("merchant_tx_id", rec.MerchantTxID).
		Str("kind", string(rec.Kind)).
		Str("status", string(status)).
		Int("gateway_status", result.HTTPStatus).
		Msg("gateway operation rejected")
	return res, nil
}

// checkIdempotency runs the two-layer duplicate check. A non-nil result
// is a stored replay.
func (s *PaymentServiceImpl) checkIdempotency(ctx context.Context, key string) (*ports.PaymentResult, error) {
	// Layer 1: Redis
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalResult(cached)
	}

	// Layer 2: DB
	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		res, err := unmarshalResult(idempLog.ResponseJSON)
		if err != nil {
			return nil, err
		}
		s.cacheResult(ctx, key, res)
		return res, nil
	}
	return nil, nil
}

// checkInFlight guards against duplicates that passed the idempotency
// layers because their outcome is not settled yet. A terminal record is
// replayed; a PENDING one is a conflict.
func (s *PaymentServiceImpl) checkInFlight(ctx context.Context, merchantExtID string, kind domain.TransactionKind, referenceID string) (*ports.PaymentResult, error) {
	existing, err := s.transactions.GetByReference(ctx, merchantExtID, kind, referenceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing transaction: %w", err))
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Status == domain.StatusPending {
		return nil, apperror.ErrDuplicateTransaction()
	}
	return &ports.PaymentResult{
		MerchantTxID: existing.MerchantTxID,
		Status:       existing.Status,
		AcquirerTxID: existing.AcquirerTxID,
		Replayed:     true,
	}, nil
}

func (s *PaymentServiceImpl) resolveMerchantContext(ctx context.Context, merchantExtID, branchExtID string) (*domain.Branch, *domain.Credentials, error) {
	merchant, err := s.merchants.GetByExtID(ctx, merchantExtID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, nil, apperror.ErrMerchantNotFound()
	}
	if !merchant.IsVerified {
		return nil, nil, apperror.ErrUserNotVerified()
	}

	branch, err := s.branches.GetByExtID(ctx, merchantExtID, branchExtID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get branch: %w", err))
	}
	if branch == nil {
		return nil, nil, apperror.ErrBranchNotFound()
	}

	creds, err := s.credentials.Resolve(ctx, merchantExtID)
	if err != nil {
		return nil, nil, err
	}
	return branch, creds, nil
}

// checkFunds verifies the wallet covers amount+fee before the gateway is
// called. The authoritative guard is the conditional debit afterwards.
func (s *PaymentServiceImpl) checkFunds(ctx context.Context, merchantExtID string, amount decimal.Decimal) (*domain.Wallet, decimal.Decimal, error) {
	wallet, err := s.wallets.GetByMerchantExtID(ctx, merchantExtID)
	if err != nil {
		return nil, decimal.Zero, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, decimal.Zero, apperror.ErrWalletNotFound()
	}

	fee := domain.TransactionFee(amount, s.feeRate)
	if wallet.Balance.LessThan(amount.Add(fee)) {
		return nil, decimal.Zero, apperror.ErrInsufficientFunds()
	}
	return wallet, fee, nil
}

func (s *PaymentServiceImpl) createPending(
	ctx context.Context,
	merchantTxID, referenceID, merchantExtID string,
	kind domain.TransactionKind,
	amount decimal.Decimal,
	currency string,
	branch *domain.Branch,
	payload any,
	acquirerAuthID *string,
) (*domain.TransactionRecord, error) {
	reqJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal gateway request: %w", err))
	}

	now := time.Now().UTC()
	rec := &domain.TransactionRecord{
		MerchantTxID:            merchantTxID,
		ReferenceID:             referenceID,
		MerchantExtID:           merchantExtID,
		Kind:                    kind,
		RequestedAmount:         amount,
		Currency:                currency,
		Status:                  domain.StatusPending,
		AcquirerAuthorizationID: acquirerAuthID,
		GatewayRequest:          reqJSON,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if branch != nil {
		rec.Terminal = branch.Terminal
		rec.Operator = branch.Operator
	}

	if err := s.transactions.Create(ctx, rec); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction record: %w", err))
	}
	return rec, nil
}

func (s *PaymentServiceImpl) getOwnedTransaction(ctx context.Context, merchantExtID, merchantTxID string) (*domain.TransactionRecord, error) {
	rec, err := s.transactions.GetByMerchantTxID(ctx, merchantTxID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if rec == nil || rec.MerchantExtID != merchantExtID {
		return nil, apperror.ErrTransactionNotFound()
	}
	return rec, nil
}

func (s *PaymentServiceImpl) saveIdempotency(ctx context.Context, dbTx pgx.Tx, key, merchantTxID string, res *ports.PaymentResult) error {
	respJSON, err := json.Marshal(res)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("marshal result: %w", err))
	}
	entry := &domain.IdempotencyLog{
		Key:          key,
		MerchantTxID: merchantTxID,
		ResponseJSON: respJSON,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.idempRepo.Save(ctx, dbTx, entry); err != nil {
		return apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
	}
	return nil
}

// cacheResult is best-effort; a cache miss just falls back to the DB log.
func (s *PaymentServiceImpl) cacheResult(ctx context.Context, key string, res *ports.PaymentResult) {
	replay := *res
	replay.Replayed = true
	data, err := json.Marshal(&replay)
	if err != nil {
		return
	}
	if err := s.idempCache.Set(ctx, key, data, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

func unmarshalResult(data []byte) (*ports.PaymentResult, error) {
	res := &ports.PaymentResult{}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached result: %w", err))
	}
	res.Replayed = true
	return res, nil
}

// outcomeStatus maps a gateway result onto the record's next status.
// Capture and refund responses carry no payment state; their success
// signal is the envelope-level result "OK".
func outcomeStatus(result *ports.GatewayResult) domain.TransactionStatus {
	if result.HTTPStatus < 200 || result.HTTPStatus >= 300 {
		if domain.MapGatewayState(result.State) == domain.StatusDeclined {
			return domain.StatusDeclined
		}
		return domain.StatusError
	}
	if result.State == "" && result.Result == "OK" {
		return domain.StatusApproved
	}
	return domain.MapGatewayState(result.State)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
