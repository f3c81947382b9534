// Package signer produces OpenPGP signatures over run reports
package signer

// SignatureExtension is appended to a file name to name its detached signature
const SignatureExtension = ".asc"

// PublicKeyExtension is appended to a file name to name the exported public key
const PublicKeyExtension = ".pub"

// Signer interface for signing run reports
type Signer interface {
	// SignDetached creates an ASCII-armored detached signature
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the armored public key verifying the signatures
	GetPublicKey() ([]byte, error)

	// Fingerprint identifies the signing key in logs and reports
	Fingerprint() string
}
