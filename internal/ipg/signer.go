package ipg

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/commercegate/ipg-service/internal/domain"
)

// Signer produces and verifies the message verifier that authenticates
// every gateway message in both directions.
//
// The scheme is fixed by the gateway: concatenate the ordered raw field
// values for the message type with no separator (missing optional fields
// contribute an empty string, they are never omitted), strip all whitespace
// from the result, SHA-256 it, and Base64-encode the raw 32-byte digest.
// Field order and inclusion are part of the protocol contract; each message
// type declares its own list via VerifierFields.
type Signer struct {
	secret string
}

// NewSigner creates a signer bound to the terminal's shared secret key.
func NewSigner(secret string) *Signer {
	return &Signer{secret: secret}
}

// Sign computes the verifier for the given message.
func (s *Signer) Sign(msg VerifiableMessage) string {
	return computeVerifier(msg.VerifierFields(s.secret))
}

// Verify checks a message's verifier in constant time. On mismatch it
// returns ErrInvalidSignature with no computed-vs-expected detail; callers
// must short-circuit all further processing of the message.
func (s *Signer) Verify(msg VerifiableMessage, verifier string) error {
	expected := computeVerifier(msg.VerifierFields(s.secret))
	if !hmac.Equal([]byte(expected), []byte(verifier)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

func computeVerifier(fields []string) string {
	concat := strings.Join(fields, "")
	stripped := stripWhitespace(concat)
	digest := sha256.Sum256([]byte(stripped))
	return base64.StdEncoding.EncodeToString(digest[:])
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
