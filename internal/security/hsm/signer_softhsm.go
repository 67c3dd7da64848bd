//go:build softhsm

package hsm

import (
	"fmt"
	"sync"

	"github.com/miekg/pkcs11"
)

// SoftHSMSigner computes the ledger MAC inside a PKCS#11 token so the key
// never enters process memory. Enabled via the softhsm build tag to keep
// default builds free of the pkcs11 dependency.
type SoftHSMSigner struct {
	libPath  string
	slotID   uint
	pin      string
	keyLabel string

	mu   sync.Mutex // PKCS#11 sessions are not safe for concurrent sign ops
	p11  *pkcs11.Ctx
	sess pkcs11.SessionHandle
	key  pkcs11.ObjectHandle
}

func NewSoftHSMSigner(libPath string, slotID uint, pin, keyLabel string) *SoftHSMSigner {
	return &SoftHSMSigner{libPath: libPath, slotID: slotID, pin: pin, keyLabel: keyLabel}
}

func (s *SoftHSMSigner) Open() error {
	s.p11 = pkcs11.New(s.libPath)
	if s.p11 == nil {
		return fmt.Errorf("load pkcs11 lib failed")
	}
	if err := s.p11.Initialize(); err != nil {
		return err
	}
	sess, err := s.p11.OpenSession(uint(s.slotID), pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
	if err != nil {
		_ = s.p11.Finalize()
		return err
	}
	s.sess = sess
	if err := s.p11.Login(s.sess, pkcs11.CKU_USER, s.pin); err != nil {
		_ = s.p11.CloseSession(s.sess)
		_ = s.p11.Finalize()
		return err
	}

	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, s.keyLabel),
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_SECRET_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_GENERIC_SECRET),
	}
	if err := s.p11.FindObjectsInit(s.sess, template); err != nil {
		return err
	}
	objs, _, err := s.p11.FindObjects(s.sess, 1)
	_ = s.p11.FindObjectsFinal(s.sess)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return fmt.Errorf("mac key not found by label=%s", s.keyLabel)
	}
	s.key = objs[0]
	return nil
}

func (s *SoftHSMSigner) Close() {
	if s.p11 != nil {
		if s.sess != 0 {
			_ = s.p11.Logout(s.sess)
			_ = s.p11.CloseSession(s.sess)
		}
		_ = s.p11.Finalize()
		s.p11.Destroy()
	}
}

func (s *SoftHSMSigner) MAC(data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_SHA256_HMAC, nil)}
	if err := s.p11.SignInit(s.sess, mech, s.key); err != nil {
		return nil, fmt.Errorf("sign init: %w", err)
	}
	mac, err := s.p11.Sign(s.sess, data)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return mac, nil
}
