// Package checksum computes content digests for stored files and exports.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters of Sum, used as a weak ETag.
func Short(data []byte) string {
	return Sum(data)[:12]
}

// OfJSON digests the JSON encoding of v. Struct field order makes the
// encoding stable for the procedure model.
func OfJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sum(data), nil
}
