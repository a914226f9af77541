// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stdprovider implements mintls13.Provider entirely on top of
// the standard library plus golang.org/x/crypto, for hosts that have no
// reason to plug in a hardware or FIPS-validated backend. It is the one
// concrete crypto provider this module ships; everything else in
// mintls13 is provider-agnostic by design.
package stdprovider

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/paymentlogs/mintls13"
)

// Provider is the stateless standard-library backed mintls13.Provider.
// The zero value is ready to use; New exists for symmetry with the rest
// of the package's constructors.
type Provider struct{}

// New returns a ready-to-use Provider.
func New() *Provider {
	return &Provider{}
}

var _ mintls13.Provider = (*Provider)(nil)

// SupportedCipherSuites returns all three TLS 1.3 cipher suites
// mintls13 recognizes; this provider implements every one of them.
func (*Provider) SupportedCipherSuites() []mintls13.CipherSuite {
	return mintls13.CipherSuites()
}

// SupportedGroups returns X25519 and P-256, in that preference order.
// P-384 and the post-quantum hybrid groups some deployments now require
// are left to a provider that actually needs them.
func (*Provider) SupportedGroups() []mintls13.KeyExchangeAlgorithm {
	return []mintls13.KeyExchangeAlgorithm{
		{Name: "X25519", Group: uint16(mintls13.CurveX25519), PublicKeySize: 32},
		{Name: "P-256", Group: uint16(mintls13.CurveP256), PublicKeySize: 65},
	}
}

// NewHash constructs a streaming hash engine for alg, selected by digest
// size since that's all the key schedule needs to distinguish.
func (*Provider) NewHash(alg mintls13.HashAlgorithm) mintls13.ProviderHash {
	switch alg.DigestSize {
	case sha512.Size384:
		return &providerHash{h: sha512.New384()}
	default:
		return &providerHash{h: sha256.New()}
	}
}

// NewAEAD constructs an AES-GCM or ChaCha20-Poly1305 engine bound to
// key. isEncrypt is ignored: both ciphers expose Seal and Open
// regardless of which direction the caller intends to use first.
func (*Provider) NewAEAD(alg mintls13.AEADAlgorithm, key []byte, isEncrypt bool) (mintls13.ProviderAEAD, error) {
	_ = isEncrypt
	switch alg.Name {
	case "AES-128-GCM", "AES-256-GCM":
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		g, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return providerAEAD{g}, nil
	case "ChaCha20-Poly1305":
		g, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		return providerAEAD{g}, nil
	default:
		return nil, errors.New("stdprovider: unsupported aead algorithm " + alg.Name)
	}
}

// GenerateKeyExchange creates a fresh ephemeral ECDH key pair over
// X25519 or P-256 via crypto/ecdh.
func (*Provider) GenerateKeyExchange(group mintls13.KeyExchangeAlgorithm) (mintls13.ProviderKeyExchange, error) {
	curve, err := curveFor(group)
	if err != nil {
		return nil, err
	}
	priv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &ecdhKeyExchange{curve: curve, priv: priv}, nil
}

// RandomBytes fills b from crypto/rand.
func (*Provider) RandomBytes(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	return err
}

func curveFor(group mintls13.KeyExchangeAlgorithm) (ecdh.Curve, error) {
	switch mintls13.CurveID(group.Group) {
	case mintls13.CurveX25519:
		return ecdh.X25519(), nil
	case mintls13.CurveP256:
		return ecdh.P256(), nil
	default:
		return nil, errors.New("stdprovider: unsupported group")
	}
}

// providerHash adapts a stdlib hash.Hash to mintls13.ProviderHash: the
// only gap is Sum, which hash.Hash spells Sum(b []byte) []byte (append
// mode) where mintls13 wants a no-argument snapshot.
type providerHash struct {
	h hash.Hash
}

func (p *providerHash) Write(b []byte) (int, error) { return p.h.Write(b) }
func (p *providerHash) Sum() []byte                 { return p.h.Sum(nil) }
func (p *providerHash) Reset()                      { p.h.Reset() }
func (p *providerHash) Size() int                   { return p.h.Size() }

// providerAEAD adapts cipher.AEAD to mintls13.ProviderAEAD; the method
// sets are identical, so embedding does all the work.
type providerAEAD struct {
	cipher.AEAD
}

// ecdhKeyExchange adapts crypto/ecdh to mintls13.ProviderKeyExchange.
type ecdhKeyExchange struct {
	curve ecdh.Curve
	priv  *ecdh.PrivateKey
}

func (k *ecdhKeyExchange) PublicValue() []byte {
	return k.priv.PublicKey().Bytes()
}

func (k *ecdhKeyExchange) Exchange(peerPublicValue []byte) ([]byte, error) {
	pub, err := k.curve.NewPublicKey(peerPublicValue)
	if err != nil {
		return nil, mintls13.ErrIncompatibleKey
	}
	secret, err := k.priv.ECDH(pub)
	if err != nil {
		return nil, mintls13.ErrIncompatibleKey
	}
	k.priv = nil
	return secret, nil
}
