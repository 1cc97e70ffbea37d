package reconciler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance bounds how old a signed webhook may be before it is
// rejected as a possible replay.
const SignatureTolerance = 5 * time.Minute

var (
	ErrBadSignature   = errors.New("webhook signature mismatch")
	ErrStaleSignature = errors.New("webhook timestamp outside tolerance")
)

// VerifySignature checks the processor's signature header against the raw
// request body. The header carries a unix timestamp and an HMAC-SHA256 of
// "<timestamp>.<body>" under the endpoint secret:
//
//	t=1700000000,v1=5257a8...
func VerifySignature(secret string, body []byte, header string, now time.Time) error {
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return ErrBadSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	age := now.Sub(time.Unix(unix, 0))
	if age > SignatureTolerance || age < -SignatureTolerance {
		return ErrStaleSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return ErrBadSignature
}

// Sign produces a valid signature header for the given body. Used by tests
// and the local webhook replayer.
func Sign(secret string, body []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
