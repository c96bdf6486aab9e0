// Package signer implements the DingTalk-style webhook signature scheme:
// HMAC-SHA256 over "<timestamp>\n<secret>" keyed by the secret itself.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// ErrEmptySecret is returned when Sign is called without a secret
var ErrEmptySecret = errors.New("secret must not be empty")

// Signature pairs the millisecond timestamp with the URL-encoded base64 HMAC
// computed over it
type Signature struct {
	Timestamp int64
	Sign      string
}

// Signer produces webhook signatures. Pure except for reading the clock.
type Signer struct {
	now func() time.Time
}

// New creates a signer backed by the wall clock
func New() *Signer {
	return &Signer{now: time.Now}
}

// Sign computes the signature for secret at the current instant
func (s *Signer) Sign(secret string) (Signature, error) {
	if secret == "" {
		return Signature{}, ErrEmptySecret
	}

	ts := s.now().UnixMilli()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d\n%s", ts, secret)
	sign := url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	return Signature{Timestamp: ts, Sign: sign}, nil
}
