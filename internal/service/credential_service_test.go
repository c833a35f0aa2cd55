package service

import (
	"context"
	"errors"
	"testing"

	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type credentialTestDeps struct {
	svc          *CredentialServiceImpl
	merchantRepo *mocks.MockMerchantRepository
	encSvc       *mocks.MockEncryptionService
	ctrl         *gomock.Controller
}

func setupCredentialService(t *testing.T) *credentialTestDeps {
	ctrl := gomock.NewController(t)
	d := &credentialTestDeps{
		merchantRepo: mocks.NewMockMerchantRepository(ctrl),
		encSvc:       mocks.NewMockEncryptionService(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewCredentialService(d.merchantRepo, d.encSvc, zerolog.Nop())
	return d
}

func TestCredentialService_Resolve(t *testing.T) {
	d := setupCredentialService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.merchantRepo.EXPECT().GetByExtID(ctx, "merchant-1").Return(&domain.Merchant{
		ExtID: "merchant-1", AccessID: "access-1", SecretKeyEnc: "enc-secret", IsVerified: true,
	}, nil)
	d.encSvc.EXPECT().Decrypt("enc-secret").Return("plain-secret", nil)

	creds, err := d.svc.Resolve(ctx, "merchant-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", creds.AccessID)
	assert.Equal(t, "plain-secret", creds.SecretKey)
}

func TestCredentialService_Resolve_MerchantNotFound(t *testing.T) {
	d := setupCredentialService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.merchantRepo.EXPECT().GetByExtID(ctx, "ghost").Return(nil, nil)

	creds, err := d.svc.Resolve(ctx, "ghost")
	assert.Nil(t, creds)
	assertAppError(t, err, "VAL_002")
}

func TestCredentialService_Resolve_CredentialsMissing(t *testing.T) {
	d := setupCredentialService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.merchantRepo.EXPECT().GetByExtID(ctx, "merchant-1").Return(&domain.Merchant{
		ExtID: "merchant-1", IsVerified: true,
	}, nil)

	creds, err := d.svc.Resolve(ctx, "merchant-1")
	assert.Nil(t, creds)
	assertAppError(t, err, "VAL_004")
}

func TestCredentialService_Resolve_DecryptFailure(t *testing.T) {
	d := setupCredentialService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.merchantRepo.EXPECT().GetByExtID(ctx, "merchant-1").Return(&domain.Merchant{
		ExtID: "merchant-1", AccessID: "access-1", SecretKeyEnc: "garbage",
	}, nil)
	d.encSvc.EXPECT().Decrypt("garbage").Return("", errors.New("cipher: message authentication failed"))

	creds, err := d.svc.Resolve(ctx, "merchant-1")
	assert.Nil(t, creds)
	assertAppError(t, err, "SYS_002")
}

func TestCredentialService_Store(t *testing.T) {
	d := setupCredentialService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.merchantRepo.EXPECT().GetByExtID(ctx, "merchant-1").Return(&domain.Merchant{
		ExtID: "merchant-1",
	}, nil)
	d.encSvc.EXPECT().Encrypt("plain-secret").Return("enc-secret", nil)
	d.merchantRepo.EXPECT().UpdateCredentials(ctx, "merchant-1", "access-1", "enc-secret").Return(nil)

	err := d.svc.Store(ctx, "merchant-1", domain.Credentials{AccessID: "access-1", SecretKey: "plain-secret"})
	require.NoError(t, err)
}

func TestCredentialService_Store_Incomplete(t *testing.T) {
	d := setupCredentialService(t)
	defer d.ctrl.Finish()

	err := d.svc.Store(context.Background(), "merchant-1", domain.Credentials{AccessID: "access-1"})
	assertAppError(t, err, "VAL_001")
}
