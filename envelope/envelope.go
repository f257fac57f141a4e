package envelope

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"

	"github.com/vinayprograms/deaddrop/errors"
)

// selfTestPayload is the fixed payload signed during SelfTest. The content
// is arbitrary; only the sign/verify round trip matters.
var selfTestPayload = []byte("deaddrop key material self-test")

// Sign produces a detached signature over payload: a SHA-512 digest signed
// with RSA PKCS#1 v1.5.
func Sign(payload []byte, key *rsa.PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, errors.Configuration("signing key is not loaded")
	}
	digest := sha512.Sum512(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA512, digest[:])
	if err != nil {
		return nil, errors.Internal("sign payload", errors.WithCause(err))
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature over payload by the holder
// of key. It never returns an error: a malformed signature or a nil key
// yields false.
func Verify(payload, sig []byte, key *rsa.PublicKey) bool {
	if key == nil {
		return false
	}
	digest := sha512.Sum512(payload)
	return rsa.VerifyPKCS1v15(key, crypto.SHA512, digest[:], sig) == nil
}

// SelfTest signs a fixed payload and checks that the signature verifies
// against own and not against counterpart. Any failure means the key files
// are swapped, shared, or mismatched, and the process must not start.
func SelfTest(private *rsa.PrivateKey, own, counterpart *rsa.PublicKey) error {
	if private == nil || own == nil || counterpart == nil {
		return errors.Configuration("key material incomplete: private, public, and counterpart keys are all required")
	}
	if own.Equal(counterpart) {
		return errors.Configuration("own and counterpart public keys are identical")
	}
	sig, err := Sign(selfTestPayload, private)
	if err != nil {
		return err
	}
	if !Verify(selfTestPayload, sig, own) {
		return errors.Configuration("own public key does not match the private key")
	}
	if Verify(selfTestPayload, sig, counterpart) {
		return errors.Configuration("counterpart public key verifies our signature")
	}
	return nil
}
