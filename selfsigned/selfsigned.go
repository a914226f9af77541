// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package selfsigned wires an Ed25519 key pair into mintls13's
// certificate callbacks without any X.509 machinery: the "chain" is
// just the raw 32-byte public key, and "verification" is a bare
// signature check against it. Certificate chain validation and
// signing are explicitly out of this module's scope; this package
// exists only so a demo or test can drive a full handshake without
// pulling in a separate PKI library to stand in for one.
package selfsigned

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/paymentlogs/mintls13"
)

// Identity is a generated Ed25519 key pair usable as both the server
// side (Lookup) and client side (Verify) of a mintls13.CertContext.
type Identity struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// Generate creates a fresh Ed25519 identity.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Identity{Public: pub, private: priv}, nil
}

// ServerLookup returns a mintls13.ServerLookup that always answers with
// id's public key, ignoring SNI, and signs CertificateVerify with id's
// private key provided the peer offered Ed25519.
func (id *Identity) ServerLookup() mintls13.ServerLookup {
	return func(serverName string, peerSigAlgs []mintls13.SignatureScheme) (mintls13.Certificate, mintls13.SignatureScheme, *mintls13.DeferredSign, error) {
		ok := false
		for _, alg := range peerSigAlgs {
			if alg == mintls13.Ed25519 {
				ok = true
				break
			}
		}
		if !ok {
			return mintls13.Certificate{}, 0, mintls13.NewDeferredSign(func(args ...[]byte) ([]byte, error) { return nil, nil }), mintls13.ErrNoCompatibleSignatureAlgorithm
		}
		cert := mintls13.Certificate{Chain: [][]byte{append([]byte(nil), id.Public...)}}
		sign := mintls13.NewDeferredSign(func(args ...[]byte) ([]byte, error) {
			if len(args) == 0 {
				return nil, nil // cleanup-only invocation
			}
			return ed25519.Sign(id.private, args[0]), nil
		})
		return cert, mintls13.Ed25519, sign, nil
	}
}

// ClientVerify returns a mintls13.ClientVerify that checks the server's
// chain consists of exactly id's own public key (pinning, not PKI) and
// verifies CertificateVerify's signature against it.
func (id *Identity) ClientVerify() mintls13.ClientVerify {
	return func(chain mintls13.Certificate) (*mintls13.DeferredSign, error) {
		if len(chain.Chain) != 1 || len(chain.Chain[0]) != ed25519.PublicKeySize || !id.Public.Equal(ed25519.PublicKey(chain.Chain[0])) {
			return mintls13.NewDeferredSign(func(args ...[]byte) ([]byte, error) { return nil, nil }), mintls13.ErrIncompatibleKey
		}
		peerKey := ed25519.PublicKey(append([]byte(nil), chain.Chain[0]...))
		verify := mintls13.NewDeferredSign(func(args ...[]byte) ([]byte, error) {
			if len(args) == 0 {
				return nil, nil // cleanup-only invocation
			}
			message, signature := args[0], args[1]
			if !ed25519.Verify(peerKey, message, signature) {
				return nil, mintls13.ErrIncompatibleKey
			}
			return nil, nil
		})
		return verify, nil
	}
}
