package domain

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewMerchantTxID generates a fresh correlation id for the given kind,
// matching the formats the acquirer expects: a bare UUID for payments and
// a kind-prefixed 12-hex-char id for the DMS operations.
func NewMerchantTxID(kind TransactionKind) string {
	id := uuid.New()
	if kind == KindPayment {
		return id.String()
	}
	prefix := strings.ToLower(string(kind))
	if kind == KindAuthorization {
		prefix = "auth"
	}
	return prefix + "_" + hex.EncodeToString(id[:6])
}
