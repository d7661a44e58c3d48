package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultSignatureTolerance = 5 * time.Minute

// StripeSignatureVerifier verifies billing webhook signatures.
// The provider signs the raw request body as "<timestamp>.<body>" with
// HMAC-SHA256 and sends the result in the Stripe-Signature header as
// "t=<unix>,v1=<hex>[,v1=<hex>...]". Verification must run on the exact
// bytes received; parsing the body first would break it.
type StripeSignatureVerifier struct {
	secret    string
	tolerance time.Duration

	// now is replaceable in tests
	now func() time.Time
}

// NewStripeSignatureVerifier creates a verifier for the given shared secret
func NewStripeSignatureVerifier(secret string) *StripeSignatureVerifier {
	return &StripeSignatureVerifier{
		secret:    secret,
		tolerance: defaultSignatureTolerance,
		now:       time.Now,
	}
}

// Verify checks the signature header against the raw body. It returns an
// error for a missing or malformed header, a signature mismatch, or a
// timestamp outside the tolerance window.
func (v *StripeSignatureVerifier) Verify(body []byte, signatureHeader string) error {
	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" {
		return fmt.Errorf("missing signature header")
	}

	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid signature timestamp: %w", err)
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("signature timestamp outside tolerance window")
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(body))
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("signature mismatch")
}

// parseSignatureHeader splits "t=...,v1=...,v1=..." into the timestamp and
// the candidate signatures. Unknown schemes are ignored.
func parseSignatureHeader(header string) (timestamp string, signatures []string, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			if value != "" {
				signatures = append(signatures, value)
			}
		}
	}

	if timestamp == "" {
		return "", nil, fmt.Errorf("signature header missing timestamp")
	}
	if len(signatures) == 0 {
		return "", nil, fmt.Errorf("signature header missing v1 signature")
	}
	return timestamp, signatures, nil
}
