package security

// Signer computes an integrity MAC over ledger entry material. The key is a
// deployment secret; implementations must not log or persist the input.
type Signer interface {
	MAC(data []byte) ([]byte, error)
}
