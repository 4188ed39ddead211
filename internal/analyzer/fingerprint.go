package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintPrefix bounds how much of the payload feeds the fingerprint so
// hashing stays cheap for large video uploads.
const fingerprintPrefix = 64 * 1024

// Fingerprint computes a deterministic content hash over a bounded prefix of
// the artifact payload. Used downstream for verdict identification and dedup.
func Fingerprint(payload []byte) string {
	if len(payload) > fingerprintPrefix {
		payload = payload[:fingerprintPrefix]
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
