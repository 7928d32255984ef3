// Package sign computes the keyed digests the stdpay wire format requires.
// Every digest is a SHA-256 over name=value pairs joined with "&". The PG
// recomputes each digest with the identical field ordering, so order is part
// of the contract.
package sign

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Field is one name=value pair in a digest chain.
type Field struct {
	Name  string
	Value string
}

// Digest returns the lowercase hex SHA-256 of the fields joined as
// name=value&name=value in the order given.
func Digest(fields ...Field) string {
	pairs := make([]string, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, f.Name+"="+f.Value)
	}
	sum := sha256.Sum256([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(sum[:])
}

// MerchantKeyDigest is the mKey parameter sent with every checkout request.
func MerchantKeyDigest(signKey string) string {
	return Digest(Field{"signKey", signKey})
}

// RequestSignature signs the checkout request parameters.
func RequestSignature(oid, price, timestamp string) string {
	return Digest(
		Field{"oid", oid},
		Field{"price", price},
		Field{"timestamp", timestamp},
	)
}

// RequestVerification embeds the shared signKey so the PG can prove the
// request came from the key holder without the key crossing the wire.
func RequestVerification(oid, price, signKey, timestamp string) string {
	return Digest(
		Field{"oid", oid},
		Field{"price", price},
		Field{"signKey", signKey},
		Field{"timestamp", timestamp},
	)
}

// AuthSignature signs the approval call made after a successful checkout.
func AuthSignature(authToken, timestamp string) string {
	return Digest(
		Field{"authToken", authToken},
		Field{"timestamp", timestamp},
	)
}

// AuthVerification is the approval-time counterpart of RequestVerification.
func AuthVerification(authToken, signKey, timestamp string) string {
	return Digest(
		Field{"authToken", authToken},
		Field{"signKey", signKey},
		Field{"timestamp", timestamp},
	)
}
