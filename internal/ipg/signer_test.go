package ipg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercegate/ipg-service/internal/domain"
)

func TestSigner_RoundTrip(t *testing.T) {
	signer := NewSigner("secret-key-1")

	msg := &PaymentInitRequest{
		MsgName:    MsgPaymentInitRequest,
		Version:    ProtocolVersion,
		TerminalID: "TR1001",
		Password:   "pass@123",
		Amount:     "49.99",
		TrackID:    "ORD-100",
	}

	verifier := signer.Sign(msg)
	require.NotEmpty(t, verifier)
	assert.NoError(t, signer.Verify(msg, verifier))
}

// Known-good vector for fixed terminal fixtures: trackid ORD-100, amount
// 49.99. Pinning the digest guards the field order and the
// empty-optionals-included rule against accidental "cleanup".
func TestSigner_PaymentInitKnownVector(t *testing.T) {
	signer := NewSigner("secret-key-1")

	msg := &PaymentInitRequest{
		MsgName:    MsgPaymentInitRequest,
		Version:    ProtocolVersion,
		TerminalID: "TR1001",
		Password:   "pass@123",
		Amount:     "49.99",
		TrackID:    "ORD-100",
		// udf1 and udf5 intentionally empty: they still occupy their
		// positions in the verifier base string.
	}

	assert.Equal(t, "RO7Ms4WJeCvkGSzOcGm//PrrdehFMiaVhtQDeyBZD78=", signer.Sign(msg))
}

func TestSigner_NotificationResponseKnownVector(t *testing.T) {
	signer := NewSigner("secret-key-1")

	msg := &PaymentNotificationResponse{
		MsgName:               MsgPaymentNotificationResponse,
		Version:               ProtocolVersion,
		PaymentID:             "PAY-8821",
		BrowserRedirectionURL: "https://shop.example/return?PaymentID=PAY-8821&trackid=ORD-100",
	}

	assert.Equal(t, "tuOfJ1nJDw0yFuUoyZG5UgCsimlxReOtUaOjPthV67w=", signer.Sign(msg))
}

func TestSigner_AnyFieldMutationBreaksVerifier(t *testing.T) {
	signer := NewSigner("secret-key-1")

	base := &PaymentInitRequest{
		MsgName:    MsgPaymentInitRequest,
		Version:    ProtocolVersion,
		TerminalID: "TR1001",
		Password:   "pass@123",
		Amount:     "49.99",
		TrackID:    "ORD-100",
	}
	verifier := signer.Sign(base)

	mutations := []func(m *PaymentInitRequest){
		func(m *PaymentInitRequest) { m.Amount = "49.98" },
		func(m *PaymentInitRequest) { m.TrackID = "ORD-101" },
		func(m *PaymentInitRequest) { m.Password = "pass@124" },
		func(m *PaymentInitRequest) { m.UDF1 = "x" },
		func(m *PaymentInitRequest) { m.UDF5 = "x" },
	}
	for i, mutate := range mutations {
		mutated := *base
		mutate(&mutated)
		err := signer.Verify(&mutated, verifier)
		require.Error(t, err, "mutation %d", i)
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidSignature))
	}
}

func TestSigner_WrongSecretFails(t *testing.T) {
	msg := &PaymentQueryRequest{
		MsgName:    MsgPaymentQueryRequest,
		Version:    ProtocolVersion,
		TerminalID: "TR1001",
		Password:   "pass@123",
		PaymentID:  "PAY-1",
	}

	verifier := NewSigner("secret-key-1").Sign(msg)
	err := NewSigner("secret-key-2").Verify(msg, verifier)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvalidSignature))
}

// Whitespace inside field values is stripped before hashing, so values
// that differ only in spacing produce the same digest.
func TestSigner_WhitespaceStripped(t *testing.T) {
	signer := NewSigner("k")

	a := &PaymentNotificationResponse{
		MsgName:               MsgPaymentNotificationResponse,
		Version:               ProtocolVersion,
		PaymentID:             "PAY 001",
		BrowserRedirectionURL: "https://shop.example/r",
	}
	b := &PaymentNotificationResponse{
		MsgName:               MsgPaymentNotificationResponse,
		Version:               ProtocolVersion,
		PaymentID:             "PAY001",
		BrowserRedirectionURL: "https://shop.example/r",
	}

	assert.Equal(t, signer.Sign(a), signer.Sign(b))
}
