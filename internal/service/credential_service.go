package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bluepay/internal/core/domain"
	"bluepay/internal/core/ports"
	"bluepay/pkg/apperror"
)

// CredentialServiceImpl implements ports.CredentialStore. Secrets are
// held AES-GCM encrypted on the merchant record and only decrypted at
// the moment a gateway call needs them.
type CredentialServiceImpl struct {
	merchants ports.MerchantRepository
	enc       ports.EncryptionService
	log       zerolog.Logger
}

// NewCredentialService creates a new CredentialServiceImpl.
func NewCredentialService(merchants ports.MerchantRepository, enc ports.EncryptionService, log zerolog.Logger) *CredentialServiceImpl {
	return &CredentialServiceImpl{merchants: merchants, enc: enc, log: log}
}

// Resolve returns the merchant's decrypted gateway credentials.
// A merchant without onboarded credentials is a distinct error from a
// merchant that does not exist.
func (s *CredentialServiceImpl) Resolve(ctx context.Context, merchantExtID string) (*domain.Credentials, error) {
	merchant, err := s.merchants.GetByExtID(ctx, merchantExtID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrMerchantNotFound()
	}
	if !merchant.HasCredentials() {
		return nil, apperror.ErrCredentialsMissing()
	}

	secret, err := s.enc.Decrypt(merchant.SecretKeyEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt secret key: %w", err))
	}

	return &domain.Credentials{AccessID: merchant.AccessID, SecretKey: secret}, nil
}

// Store encrypts and persists a merchant's gateway credentials.
func (s *CredentialServiceImpl) Store(ctx context.Context, merchantExtID string, creds domain.Credentials) error {
	if creds.AccessID == "" || creds.SecretKey == "" {
		return apperror.Validation("access_id and secret_key are required")
	}

	merchant, err := s.merchants.GetByExtID(ctx, merchantExtID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return apperror.ErrMerchantNotFound()
	}

	enc, err := s.enc.Encrypt(creds.SecretKey)
	if err != nil {
		return apperror.ErrEncryptionFailure(fmt.Errorf("encrypt secret key: %w", err))
	}

	if err := s.merchants.UpdateCredentials(ctx, merchantExtID, creds.AccessID, enc); err != nil {
		return apperror.InternalError(fmt.Errorf("update credentials: %w", err))
	}

	s.log.Info().Str("merchant_ext_id", merchantExtID).Msg("gateway credentials updated")
	return nil
}
