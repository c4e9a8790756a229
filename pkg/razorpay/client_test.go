package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	secret := "whsec"

	require.True(t, VerifySignature(body, sign(body, secret), secret))
	require.False(t, VerifySignature(body, sign(body, "other"), secret))
	require.False(t, VerifySignature(body, "", secret))
	require.False(t, VerifySignature(body, sign(body, secret), ""))
	require.False(t, VerifySignature([]byte("tampered"), sign(body, secret), secret))
}
