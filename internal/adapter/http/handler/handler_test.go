package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bluepay/internal/adapter/http/dto"
	"bluepay/internal/adapter/http/middleware"
	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/internal/core/ports/mocks"
	"bluepay/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body != nil {
		c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	return c, w
}

// --- Payment Handler Tests ---

func TestSubmitPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	acqID := "ACQ-9"
	mockPayment.EXPECT().SubmitPayment(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
			assert.Equal(t, "merchant-1", req.MerchantExtID)
			assert.Equal(t, "branch-1", req.BranchExtID)
			assert.Equal(t, "INV-001", req.ReferenceID)
			assert.True(t, req.Amount.Equal(decimal.NewFromInt(100)))
			return &ports.PaymentResult{
				MerchantTxID: "tx-1",
				Status:       domain.StatusApproved,
				AcquirerTxID: &acqID,
			}, nil
		})

	body, _ := json.Marshal(dto.PaymentRequest{
		BranchExtID: "branch-1",
		ReferenceID: "INV-001",
		Barcode:     "1234567890",
		Amount:      decimal.NewFromInt(100),
		Currency:    "EUR",
	})

	c, w := newTestContext(http.MethodPost, "/api/v1/payments", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.SubmitPayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "tx-1", data["merchant_tx_id"])
	assert.Equal(t, "APPROVED", data["status"])
	assert.Equal(t, "ACQ-9", data["acquirer_tx_id"])
}

func TestSubmitPayment_MissingAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/payments", nil)

	h.SubmitPayment(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitPayment_BindingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/payments", []byte("{}"))
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.SubmitPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitPayment_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	mockPayment.EXPECT().SubmitPayment(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientFunds())

	body, _ := json.Marshal(dto.PaymentRequest{
		BranchExtID: "branch-1",
		ReferenceID: "INV-002",
		Barcode:     "1234567890",
		Amount:      decimal.NewFromInt(100000),
		Currency:    "EUR",
	})

	c, w := newTestContext(http.MethodPost, "/api/v1/payments", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.SubmitPayment(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAY_001", resp["error_code"])
}

func TestCancelPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	mockPayment.EXPECT().CancelPayment(gomock.Any(), "merchant-1", "tx-1").Return(&ports.PaymentResult{
		MerchantTxID: "tx-1",
		Status:       domain.StatusCancelled,
	}, nil)

	body, _ := json.Marshal(dto.CancelRequest{MerchantTxID: "tx-1"})

	c, w := newTestContext(http.MethodPost, "/api/v1/payments/cancel", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.CancelPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "CANCELLED", data["status"])
}

func TestCancelPayment_AlreadySettled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	mockPayment.EXPECT().CancelPayment(gomock.Any(), "merchant-1", "tx-1").
		Return(nil, apperror.ErrInvalidStateTransition("APPROVED", "CANCELLED"))

	body, _ := json.Marshal(dto.CancelRequest{MerchantTxID: "tx-1"})

	c, w := newTestContext(http.MethodPost, "/api/v1/payments/cancel", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.CancelPayment(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetStatus_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	now := time.Now()
	mockPayment.EXPECT().GetStatus(gomock.Any(), "merchant-1", "tx-1").Return(&domain.TransactionRecord{
		MerchantTxID:    "tx-1",
		ReferenceID:     "INV-001",
		MerchantExtID:   "merchant-1",
		Kind:            domain.KindPayment,
		RequestedAmount: decimal.NewFromInt(100),
		Currency:        "EUR",
		Status:          domain.StatusApproved,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/payments/status?merchant_tx_id=tx-1", nil)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.GetStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "tx-1", data["merchant_tx_id"])
	assert.Equal(t, "PAYMENT", data["kind"])
	assert.Equal(t, "APPROVED", data["status"])
}

func TestGetStatus_MissingQueryParam(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockPayment, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/payments/status", nil)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.GetStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactions_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	mockTxRepo := mocks.NewMockTransactionRepository(ctrl)
	h := NewPaymentHandler(mockPayment, mockTxRepo)

	now := time.Now()
	mockTxRepo.EXPECT().ListByMerchant(gomock.Any(), "merchant-1", 10, 0).Return([]domain.TransactionRecord{
		{MerchantTxID: "tx-1", Kind: domain.KindPayment, Status: domain.StatusApproved, CreatedAt: now, UpdatedAt: now},
		{MerchantTxID: "tx-2", Kind: domain.KindRefund, Status: domain.StatusDeclined, CreatedAt: now, UpdatedAt: now},
	}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/transactions?limit=10", nil)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	assert.Len(t, data, 2)
}

// --- DMS Handler Tests ---

func TestAuthorize_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewDMSHandler(mockPayment)

	mockPayment.EXPECT().Authorize(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.AuthorizationRequest) (*ports.PaymentResult, error) {
			assert.Equal(t, "merchant-1", req.MerchantExtID)
			assert.Equal(t, "HOLD-1", req.ReferenceID)
			return &ports.PaymentResult{MerchantTxID: "auth-1", Status: domain.StatusApproved}, nil
		})

	body, _ := json.Marshal(dto.AuthorizationRequest{
		BranchExtID: "branch-1",
		ReferenceID: "HOLD-1",
		Barcode:     "1234567890",
		Amount:      decimal.NewFromInt(250),
		Currency:    "EUR",
	})

	c, w := newTestContext(http.MethodPost, "/api/v1/dms/authorization", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Authorize(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCapture_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewDMSHandler(mockPayment)

	mockPayment.EXPECT().Capture(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CaptureRequest) (*ports.PaymentResult, error) {
			assert.Equal(t, "auth-1", req.MerchantAuthorizationTxID)
			assert.True(t, req.Amount.IsZero())
			return &ports.PaymentResult{MerchantTxID: "capture-1", Status: domain.StatusApproved}, nil
		})

	body, _ := json.Marshal(dto.CaptureRequest{
		ReferenceID:               "CAP-1",
		MerchantAuthorizationTxID: "auth-1",
	})

	c, w := newTestContext(http.MethodPost, "/api/v1/dms/capture", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Capture(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRelease_NotCapturable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewDMSHandler(mockPayment)

	mockPayment.EXPECT().Release(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInvalidStateTransition("CAPTURED", "RELEASED"))

	body, _ := json.Marshal(dto.ReleaseRequest{
		ReferenceID:               "REL-1",
		MerchantAuthorizationTxID: "auth-1",
	})

	c, w := newTestContext(http.MethodPost, "/api/v1/dms/release", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Release(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefund_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayment := mocks.NewMockPaymentService(ctrl)
	h := NewDMSHandler(mockPayment)

	mockPayment.EXPECT().Refund(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.RefundRequest) (*ports.PaymentResult, error) {
			assert.Equal(t, "capture-1", req.MerchantCaptureTxID)
			assert.Equal(t, "customer request", req.Reason)
			return &ports.PaymentResult{MerchantTxID: "refund-1", Status: domain.StatusApproved}, nil
		})

	body, _ := json.Marshal(dto.RefundRequest{
		ReferenceID:         "REF-1",
		MerchantCaptureTxID: "capture-1",
		Amount:              decimal.NewFromInt(50),
		Reason:              "customer request",
	})

	c, w := newTestContext(http.MethodPost, "/api/v1/dms/refund", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Refund(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

// --- Wallet Handler Tests ---

func TestGetBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	mockWallet.EXPECT().Balance(gomock.Any(), "merchant-1").Return(&domain.Wallet{
		ID:            uuid.New(),
		MerchantExtID: "merchant-1",
		Balance:       decimal.NewFromInt(500),
		Currency:      "EUR",
	}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/wallets/balance", nil)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "500", data["balance"])
	assert.Equal(t, "EUR", data["currency"])
}

func TestGetBalance_WalletNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	mockWallet.EXPECT().Balance(gomock.Any(), "merchant-1").Return(nil, apperror.ErrWalletNotFound())

	c, w := newTestContext(http.MethodGet, "/api/v1/wallets/balance", nil)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.GetBalance(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeposit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	amount := decimal.NewFromInt(100)
	mockWallet.EXPECT().Deposit(gomock.Any(), "merchant-1", amount, "INV-42").Return(&domain.Wallet{
		MerchantExtID: "merchant-1",
		Balance:       decimal.NewFromInt(600),
		Currency:      "EUR",
	}, nil)

	body, _ := json.Marshal(dto.DepositRequest{Amount: amount, Reference: "INV-42"})

	c, w := newTestContext(http.MethodPost, "/api/v1/wallets/deposit", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Deposit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "600", data["balance"])
}

func TestGetLedger_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	now := time.Now()
	mockWallet.EXPECT().Ledger(gomock.Any(), "merchant-1", 0).Return([]domain.LedgerEntry{
		{ID: uuid.New(), Type: domain.EntryCredit, Amount: decimal.NewFromInt(100), Reference: "INV-42", CreatedAt: now},
		{ID: uuid.New(), Type: domain.EntryFee, Amount: decimal.NewFromFloat(1.5), Reference: "tx-1", CreatedAt: now},
	}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/wallets/ledger", nil)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.GetLedger(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "CREDIT", first["type"])
}

// --- Webhook Handler Tests ---

func TestHandleWebhook_Applied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReconciler := mocks.NewMockWebhookReconciler(ctrl)
	h := NewWebhookHandler(mockReconciler)

	payload := []byte(`{"merchant_tx_id":"tx-1","payment":{"state":"APPROVED","acquirer_tx_id":"ACQ-1"}}`)
	mockReconciler.EXPECT().Reconcile(gomock.Any(), payload).Return(&domain.WebhookAck{
		MerchantTxID: "tx-1",
		Applied:      true,
		Status:       domain.StatusApproved,
	}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/dms/webhook", payload)

	h.HandleWebhook(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["applied"])
}

func TestHandleWebhook_Malformed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReconciler := mocks.NewMockWebhookReconciler(ctrl)
	h := NewWebhookHandler(mockReconciler)

	payload := []byte(`not json`)
	mockReconciler.EXPECT().Reconcile(gomock.Any(), payload).Return(nil, apperror.Validation("malformed webhook payload"))

	c, w := newTestContext(http.MethodPost, "/api/v1/dms/webhook", payload)

	h.HandleWebhook(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Merchant Handler Tests ---

func TestStoreCredentials_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCreds := mocks.NewMockCredentialStore(ctrl)
	h := NewMerchantHandler(mockCreds, nil)

	mockCreds.EXPECT().Store(gomock.Any(), "merchant-1", domain.Credentials{
		AccessID:  "access-1",
		SecretKey: "secret-1",
	}).Return(nil)

	body, _ := json.Marshal(dto.CredentialsRequest{AccessID: "access-1", SecretKey: "secret-1"})

	c, w := newTestContext(http.MethodPut, "/api/v1/merchants/me/credentials", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.StoreCredentials(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateMerchantToken_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCreds := mocks.NewMockCredentialStore(ctrl)
	mockAcquirer := mocks.NewMockAcquirerClient(ctrl)
	h := NewMerchantHandler(mockCreds, mockAcquirer)

	creds := domain.Credentials{AccessID: "access-1", SecretKey: "secret-1"}
	mockCreds.EXPECT().Resolve(gomock.Any(), "merchant-1").Return(&creds, nil)
	mockAcquirer.EXPECT().CreateMerchantToken(gomock.Any(), creds, "merchant-1").Return(&ports.GatewayResult{
		HTTPStatus: http.StatusOK,
		RawBody:    []byte(`{"token":"acq-token-1"}`),
	}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/merchant-token", []byte("{}"))
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.CreateMerchantToken(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "acq-token-1", data["token"])
}

func TestCreateMerchantToken_GatewayRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCreds := mocks.NewMockCredentialStore(ctrl)
	mockAcquirer := mocks.NewMockAcquirerClient(ctrl)
	h := NewMerchantHandler(mockCreds, mockAcquirer)

	creds := domain.Credentials{AccessID: "access-1", SecretKey: "secret-1"}
	mockCreds.EXPECT().Resolve(gomock.Any(), "merchant-1").Return(&creds, nil)
	mockAcquirer.EXPECT().CreateMerchantToken(gomock.Any(), creds, "merchant-1").Return(&ports.GatewayResult{
		HTTPStatus: http.StatusUnprocessableEntity,
		RawBody:    []byte(`{"error":"unknown merchant"}`),
	}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/merchant-token", []byte("{}"))
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.CreateMerchantToken(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCreateReceipt_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCreds := mocks.NewMockCredentialStore(ctrl)
	mockAcquirer := mocks.NewMockAcquirerClient(ctrl)
	h := NewMerchantHandler(mockCreds, mockAcquirer)

	creds := domain.Credentials{AccessID: "access-1", SecretKey: "secret-1"}
	mockCreds.EXPECT().Resolve(gomock.Any(), "merchant-1").Return(&creds, nil)
	mockAcquirer.EXPECT().CreateReceipt(gomock.Any(), creds, "ACQ-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.Credentials, _ string, payload []byte) (*ports.GatewayResult, error) {
			var decoded map[string]string
			require.NoError(t, json.Unmarshal(payload, &decoded))
			assert.Equal(t, "receipt body", decoded["receipt"])
			return &ports.GatewayResult{HTTPStatus: http.StatusCreated, RawBody: []byte(`{"receipt_id":"R-1"}`)}, nil
		})

	body, _ := json.Marshal(dto.ReceiptRequest{AcquirerTxID: "ACQ-1", Receipt: "receipt body"})

	c, w := newTestContext(http.MethodPost, "/api/v1/receipts", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.CreateReceipt(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

// --- Subscription Handler Tests ---

func TestSubscribe_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSub := mocks.NewMockSubscriptionService(ctrl)
	h := NewSubscriptionHandler(mockSub, nil)

	amount := decimal.NewFromInt(25)
	mockSub.EXPECT().Subscribe(gomock.Any(), "merchant-1", "standard", amount, "EUR").Return(&domain.Subscription{
		ID:            uuid.New(),
		MerchantExtID: "merchant-1",
		Plan:          "standard",
		Amount:        amount,
		Currency:      "EUR",
		Status:        domain.SubscriptionActive,
		ExpiresAt:     time.Now().Add(domain.RenewalExtension),
	}, nil)

	body, _ := json.Marshal(dto.SubscribeRequest{Plan: "standard", Amount: amount, Currency: "EUR"})

	c, w := newTestContext(http.MethodPost, "/api/v1/subscriptions", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Subscribe(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ACTIVE", data["status"])
}

func TestSubscribe_AlreadyActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSub := mocks.NewMockSubscriptionService(ctrl)
	h := NewSubscriptionHandler(mockSub, nil)

	mockSub.EXPECT().Subscribe(gomock.Any(), "merchant-1", "standard", gomock.Any(), "EUR").
		Return(nil, apperror.ErrDuplicateTransaction())

	body, _ := json.Marshal(dto.SubscribeRequest{Plan: "standard", Amount: decimal.NewFromInt(25), Currency: "EUR"})

	c, w := newTestContext(http.MethodPost, "/api/v1/subscriptions", body)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Subscribe(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelSubscription_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSub := mocks.NewMockSubscriptionService(ctrl)
	h := NewSubscriptionHandler(mockSub, nil)

	mockSub.EXPECT().Cancel(gomock.Any(), "merchant-1").Return(nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/subscriptions/cancel", []byte("{}"))
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListNotifications_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSub := mocks.NewMockSubscriptionService(ctrl)
	mockNotif := mocks.NewMockNotificationRepository(ctrl)
	h := NewSubscriptionHandler(mockSub, mockNotif)

	now := time.Now()
	mockNotif.EXPECT().ListByMerchant(gomock.Any(), "merchant-1", true, 50).Return([]domain.Notification{
		{ID: uuid.New(), MerchantExtID: "merchant-1", Type: domain.NotifySubscriptionExpiry, Reference: "sub-1:2025-06-18", Message: "subscription expires soon", CreatedAt: now},
	}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/notifications?unread=true", nil)
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.ListNotifications(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	require.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "subscription_expiry", first["type"])
}

func TestMarkNotificationRead_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSub := mocks.NewMockSubscriptionService(ctrl)
	mockNotif := mocks.NewMockNotificationRepository(ctrl)
	h := NewSubscriptionHandler(mockSub, mockNotif)

	id := uuid.New()
	mockNotif.EXPECT().MarkRead(gomock.Any(), id).Return(nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/notifications/"+id.String()+"/read", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.MarkNotificationRead(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMarkNotificationRead_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSub := mocks.NewMockSubscriptionService(ctrl)
	mockNotif := mocks.NewMockNotificationRepository(ctrl)
	h := NewSubscriptionHandler(mockSub, mockNotif)

	c, w := newTestContext(http.MethodPost, "/api/v1/notifications/not-a-uuid/read", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	c.Set(middleware.CtxMerchantExtID, "merchant-1")

	h.MarkNotificationRead(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Handler Tests ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(context.Context) error { return s.err }
func (s stubChecker) Name() string               { return s.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis", err: errors.New("connection refused")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	redis := deps["redis"].(map[string]interface{})
	assert.Equal(t, "unhealthy", redis["status"])
}

// --- Router Tests ---

func TestSetupRouter_WebhookIsPublic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReconciler := mocks.NewMockWebhookReconciler(ctrl)
	mockToken := mocks.NewMockTokenService(ctrl)

	mockReconciler.EXPECT().Reconcile(gomock.Any(), gomock.Any()).Return(&domain.WebhookAck{
		MerchantTxID: "tx-1",
		Applied:      true,
		Status:       domain.StatusApproved,
	}, nil)

	r := SetupRouter(RouterDeps{
		Reconciler: mockReconciler,
		TokenSvc:   mockToken,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dms/webhook",
		bytes.NewReader([]byte(`{"merchant_tx_id":"tx-1","payment":{"state":"APPROVED"}}`)))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouter_PaymentsRequireAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockToken := mocks.NewMockTokenService(ctrl)

	r := SetupRouter(RouterDeps{
		TokenSvc: mockToken,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader([]byte("{}")))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetupRouter_ValidTokenReachesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockToken := mocks.NewMockTokenService(ctrl)
	mockWallet := mocks.NewMockWalletService(ctrl)

	mockToken.EXPECT().Validate("token-1").Return("merchant-1", nil)
	mockWallet.EXPECT().Balance(gomock.Any(), "merchant-1").Return(&domain.Wallet{
		MerchantExtID: "merchant-1",
		Balance:       decimal.NewFromInt(500),
		Currency:      "EUR",
	}, nil)

	r := SetupRouter(RouterDeps{
		TokenSvc:  mockToken,
		WalletSvc: mockWallet,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/balance", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouter_HealthEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockToken := mocks.NewMockTokenService(ctrl)

	r := SetupRouter(RouterDeps{
		TokenSvc:       mockToken,
		HealthCheckers: []ports.HealthChecker{stubChecker{name: "postgresql"}},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
