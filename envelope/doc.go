// Package envelope signs and verifies task payloads with detached RSA signatures.
//
// Every payload that crosses the shared store travels as a pair of objects:
// the raw bytes and a detached signature over them. The scheme is fixed:
// SHA-512 digest of the payload, RSA PKCS#1 v1.5 signature over the digest.
// Verification never returns an error; a malformed signature, a wrong key,
// or a missing key all simply yield false.
//
// # Key Material
//
// Each role holds three keys: its own private key, its own public key, and
// the counterpart's public key. Load reads them from PEM files (PKCS#1 or
// PKCS#8 private, PKCS#1 or PKIX public) and refuses private key files that
// are readable by group or others. SelfTest signs a fixed payload and checks
// that the signature verifies against the own public key and fails against
// the counterpart's; it catches swapped, shared, or mismatched key files
// before any task is processed.
//
// # Usage
//
//	km, err := envelope.Load("client.key", "client.pub", "server.pub")
//	if err != nil {
//	    log.Fatal(err) // misconfigured keys: do not start
//	}
//
//	sig, err := envelope.Sign(payload, km.Private)
//	ok := envelope.Verify(payload, sig, km.Counterpart)
package envelope
