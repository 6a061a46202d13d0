package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex HMAC-SHA256 signature the gateway attaches to a
// payment callback: the keyed digest of "<orderRef>|<paymentRef>" under the
// pre-shared secret.  Exposed for tests and for building outbound retries.
func Sign(orderRef, paymentRef, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the expected digest for
// the stored order reference and the callback's payment reference.  The
// comparison is constant time.  A failed check is retriable by the gateway;
// callers must not echo any signature material back.
func VerifySignature(orderRef, paymentRef, signature, secret string) bool {
	expected := Sign(orderRef, paymentRef, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
