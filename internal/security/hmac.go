package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// HMACSigner computes HMAC-SHA256 with an in-process key (pepper). Default
// signer for builds without an HSM.
type HMACSigner struct {
	key []byte
}

func NewHMACSigner(key []byte) *HMACSigner {
	return &HMACSigner{key: key}
}

func (s *HMACSigner) MAC(data []byte) ([]byte, error) {
	if len(s.key) == 0 {
		return nil, fmt.Errorf("mac key is required")
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(data)
	return h.Sum(nil), nil
}

// VerifyMAC reports whether mac matches data in constant time.
func VerifyMAC(s Signer, data, mac []byte) bool {
	want, err := s.MAC(data)
	if err != nil {
		return false
	}
	return hmac.Equal(want, mac)
}
