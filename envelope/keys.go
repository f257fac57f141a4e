package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"runtime"

	"github.com/vinayprograms/deaddrop/errors"
)

// ErrInsecurePermissions is returned when a private key file is readable by group or others.
var ErrInsecurePermissions = fmt.Errorf("private key file has insecure permissions")

// DefaultKeyBits is the RSA modulus size used by Generate when bits is zero.
const DefaultKeyBits = 2048

// KeyMaterial holds the keys one role needs: its own pair plus the
// counterpart's public key. Loaded once at startup, never mutated.
type KeyMaterial struct {
	Private     *rsa.PrivateKey
	Public      *rsa.PublicKey
	Counterpart *rsa.PublicKey
}

// Load reads the three key files and self-tests the result. All errors are
// configuration errors: the caller must not proceed past them.
func Load(privatePath, publicPath, counterpartPath string) (*KeyMaterial, error) {
	private, err := ReadPrivateKey(privatePath)
	if err != nil {
		return nil, err
	}
	public, err := ReadPublicKey(publicPath)
	if err != nil {
		return nil, err
	}
	counterpart, err := ReadPublicKey(counterpartPath)
	if err != nil {
		return nil, err
	}
	km := &KeyMaterial{Private: private, Public: public, Counterpart: counterpart}
	if err := km.SelfTest(); err != nil {
		return nil, err
	}
	return km, nil
}

// SelfTest runs the sign/verify round trip on the loaded material.
func (km *KeyMaterial) SelfTest() error {
	return SelfTest(km.Private, km.Public, km.Counterpart)
}

// ReadPrivateKey loads an RSA private key from a PEM file. On Unix the file
// must not be readable by group or others.
func ReadPrivateKey(path string) (*rsa.PrivateKey, error) {
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Configuration(fmt.Sprintf("stat private key %s", path), errors.WithCause(err))
		}
		if mode := info.Mode().Perm(); mode&0077 != 0 {
			return nil, errors.Configuration(
				fmt.Sprintf("%s has mode %04o (must not be readable by group or others)", path, mode),
				errors.WithCause(ErrInsecurePermissions))
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("read private key %s", path), errors.WithCause(err))
	}
	key, err := ParsePrivateKey(raw)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("parse private key %s", path), errors.WithCause(err))
	}
	return key, nil
}

// ReadPublicKey loads an RSA public key from a PEM file.
func ReadPublicKey(path string) (*rsa.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("read public key %s", path), errors.WithCause(err))
	}
	key, err := ParsePublicKey(raw)
	if err != nil {
		return nil, errors.Configuration(fmt.Sprintf("parse public key %s", path), errors.WithCause(err))
	}
	return key, nil
}

// ParsePrivateKey decodes a PEM-encoded RSA private key in PKCS#1
// ("RSA PRIVATE KEY") or PKCS#8 ("PRIVATE KEY") form.
func ParsePrivateKey(raw []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("PKCS#8 key is %T, not RSA", parsed)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// ParsePublicKey decodes a PEM-encoded RSA public key in PKCS#1
// ("RSA PUBLIC KEY") or PKIX ("PUBLIC KEY") form.
func ParsePublicKey(raw []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("PKIX key is %T, not RSA", parsed)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// Generate creates a fresh RSA keypair for development setups and tests.
func Generate(bits int) (*rsa.PrivateKey, error) {
	if bits == 0 {
		bits = DefaultKeyBits
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Internal("generate keypair", errors.WithCause(err))
	}
	return key, nil
}

// EncodePrivateKey renders key as a PKCS#1 PEM block.
func EncodePrivateKey(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

// EncodePublicKey renders key as a PKCS#1 PEM block.
func EncodePublicKey(key *rsa.PublicKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(key),
	})
}

// WriteKeyPair writes a private key (mode 0600) and its public key (mode
// 0644) as PEM files.
func WriteKeyPair(key *rsa.PrivateKey, privatePath, publicPath string) error {
	if err := os.WriteFile(privatePath, EncodePrivateKey(key), 0600); err != nil {
		return errors.Internal(fmt.Sprintf("write private key %s", privatePath), errors.WithCause(err))
	}
	if err := os.WriteFile(publicPath, EncodePublicKey(&key.PublicKey), 0644); err != nil {
		return errors.Internal(fmt.Sprintf("write public key %s", publicPath), errors.WithCause(err))
	}
	return nil
}
