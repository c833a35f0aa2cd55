package domain

import "time"

// Merchant is the directory view of a registered merchant. Profile fields
// are owned by the merchant-registration collaborator; the engine only
// reads the external id and the acquirer credentials.
type Merchant struct {
	ExtID         string    `json:"ext_id"`
	Name          string    `json:"name"`
	AccessID      string    `json:"access_id"`
	SecretKeyEnc  string    `json:"-"` // AES-256-GCM encrypted, never expose
	IsVerified    bool      `json:"is_verified"`
	BookingPrefix string    `json:"booking_reference_prefix,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasCredentials reports whether acquirer credentials are provisioned.
func (m *Merchant) HasCredentials() bool {
	return m.AccessID != "" && m.SecretKeyEnc != ""
}

// Credentials is a resolved acquirer access-id/secret pair, passed to the
// acquirer client per call. Immutable once issued.
type Credentials struct {
	AccessID  string
	SecretKey string
}

// Branch is a merchant's point-of-sale branch as registered with the
// acquirer.
type Branch struct {
	ExtID         string    `json:"ext_id"`
	MerchantExtID string    `json:"merchant_ext_id"`
	Name          string    `json:"name"`
	Terminal      string    `json:"terminal"`
	Operator      string    `json:"operator"`
	CreatedAt     time.Time `json:"created_at"`
}
