// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import "io"

// recordType identifies the content type carried by a TLS record, both
// on the wire (outer type) and, after TLS 1.3 decryption, as the inner
// content type appended to the plaintext.
type recordType uint8

const (
	recordTypeChangeCipherSpec recordType = 20
	recordTypeAlert            recordType = 21
	recordTypeHandshake        recordType = 22
	recordTypeApplicationData  recordType = 23
)

// HashAlgorithm describes a hash function pluggable into the key
// schedule and transcript. DigestSize sizes derived secrets and also
// selects the standard-library SHA-256 or SHA-384 this package uses for
// HKDF and HMAC. BlockSize is descriptive only; this package does not
// read it.
type HashAlgorithm struct {
	Name       string
	DigestSize int
	BlockSize  int
}

// AEADAlgorithm describes an AEAD cipher pluggable into the record
// layer.
type AEADAlgorithm struct {
	Name    string
	KeySize int
	IVSize  int // static IV size; the per-record nonce is always 12 bytes per RFC 8446 §5.3
}

// KeyExchangeAlgorithm describes a named group pluggable into key
// exchange (spec.md's "group").
type KeyExchangeAlgorithm struct {
	Name          string
	Group         uint16 // TLS NamedGroup id, RFC 8446 §4.2.7
	PublicKeySize int
}

// ProviderHash is the opaque streaming hasher a Provider constructs.
// Modes mirror spec.md §3: Write accumulates, Sum finalizes without
// disturbing state (used for transcript snapshots), Reset clears state
// for reuse.
type ProviderHash interface {
	io.Writer
	// Sum returns the digest of everything written so far without
	// resetting the running state (snapshot-without-disturbing-state).
	Sum() []byte
	// Reset clears the running state for reuse.
	Reset()
	// Size returns the digest size in bytes.
	Size() int
}

// ProviderAEAD is the opaque AEAD engine a Provider constructs, already
// bound to a key. nonce is always exactly 12 bytes, per RFC 8446 §5.3.
type ProviderAEAD interface {
	// Seal encrypts and authenticates plaintext, appending the result
	// (ciphertext || tag) to dst.
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	// Open authenticates and decrypts ciphertext (which includes the
	// trailing tag), appending the plaintext to dst.
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	// Overhead returns the number of bytes Seal adds beyond the
	// plaintext length.
	Overhead() int
}

// ProviderKeyExchange is the per-handshake ephemeral private key holder
// described in spec.md §3. Exchange consumes it: implementations must
// treat a context as spent after one successful call.
type ProviderKeyExchange interface {
	// PublicValue returns this context's public key share, to be placed
	// into a key_share extension entry.
	PublicValue() []byte
	// Exchange computes the shared secret against the peer's public
	// value and releases the context's resources. It must not be called
	// twice.
	Exchange(peerPublicValue []byte) (sharedSecret []byte, err error)
}

// Provider is the abstract crypto provider of spec.md §2: a capability
// interface for AEAD, hashing, key exchange and randomness, supplied as
// an explicit parameter rather than through global state (spec.md §9,
// "Provider tables as capabilities"). A Provider is immutable and must
// be safe for concurrent use by multiple Sessions; a Session holds a
// non-owning reference and the provider must outlive every Session it
// backs.
type Provider interface {
	// SupportedCipherSuites returns the TLS 1.3 cipher suites this
	// provider can realize, in preference order.
	SupportedCipherSuites() []CipherSuite

	// SupportedGroups returns the named groups this provider can
	// perform key exchange over, in preference order.
	SupportedGroups() []KeyExchangeAlgorithm

	// NewHash constructs a fresh hash engine for the given algorithm.
	NewHash(alg HashAlgorithm) ProviderHash

	// NewAEAD constructs an AEAD engine bound to key, for either
	// sealing or opening (some providers specialize the two).
	NewAEAD(alg AEADAlgorithm, key []byte, isEncrypt bool) (ProviderAEAD, error)

	// GenerateKeyExchange creates a new ephemeral key exchange context
	// for the given group, already holding a fresh private key.
	GenerateKeyExchange(group KeyExchangeAlgorithm) (ProviderKeyExchange, error)

	// RandomBytes fills b with cryptographically secure random bytes.
	RandomBytes(b []byte) error
}
