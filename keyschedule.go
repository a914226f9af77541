// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/hkdf"
)

// hashFuncFor returns the stdlib hash constructor backing alg, for use
// with golang.org/x/crypto/hkdf (which is itself built on crypto/hmac
// over a func() hash.Hash). This package only ever instantiates the
// transcript and HKDF machinery over one of the two hashes the three
// TLS 1.3 cipher suites use.
func hashFuncFor(alg HashAlgorithm) func() hash.Hash {
	switch alg.DigestSize {
	case sha256.Size:
		return sha256.New
	case sha512.Size384:
		return sha512.New384
	default:
		return sha256.New
	}
}

// HkdfExtract implements HKDF-Extract (RFC 5869 §2.2) under the given
// hash. Its output length always equals hash.DigestSize.
func HkdfExtract(alg HashAlgorithm, salt, ikm []byte) []byte {
	if salt == nil {
		salt = make([]byte, alg.DigestSize)
	}
	return hkdf.Extract(hashFuncFor(alg), ikm, salt)
}

// HkdfExpand implements HKDF-Expand (RFC 5869 §2.3) under the given
// hash, producing outLen bytes from prk and info.
func HkdfExpand(alg HashAlgorithm, prk, info []byte, outLen int) []byte {
	out := make([]byte, outLen)
	r := hkdf.Expand(hashFuncFor(alg), prk, info)
	if _, err := io.ReadFull(r, out); err != nil {
		// Only possible if outLen exceeds HKDF's 255*hash-size entropy
		// limit, which never happens for any label this package emits.
		panic("mintls13: hkdf expand: " + err.Error())
	}
	return out
}

// buildHkdfLabel encodes the TLS 1.3 HkdfLabel structure, RFC 8446 §7.1:
//
//	struct {
//	    uint16 length;
//	    opaque label<7..255> = "tls13 " + Label;
//	    opaque context<0..255> = Context;
//	} HkdfLabel;
func buildHkdfLabel(length int, label string, context []byte) []byte {
	var b cryptobyte.Builder
	b.AddUint16(uint16(length))
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes([]byte("tls13 "))
		b.AddBytes([]byte(label))
	})
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(context)
	})
	out, err := b.Bytes()
	if err != nil {
		// Only possible if label+context overflow the 1-byte length
		// prefixes, which cannot happen for this package's fixed labels
		// and hash-sized contexts.
		panic("mintls13: hkdf label: " + err.Error())
	}
	return out
}

// ExpandLabel implements HKDF-Expand-Label, RFC 8446 §7.1.
func ExpandLabel(alg HashAlgorithm, secret []byte, label string, context []byte, length int) []byte {
	return HkdfExpand(alg, secret, buildHkdfLabel(length, label, context), length)
}

// DeriveSecret implements Derive-Secret(Secret, Label, Messages), RFC
// 8446 §7.1: Derive-Secret(S, L, M) = HKDF-Expand-Label(S, L,
// Hash(M), Hash.length).
func DeriveSecret(alg HashAlgorithm, secret []byte, label string, transcriptHash []byte) []byte {
	return ExpandLabel(alg, secret, label, transcriptHash, alg.DigestSize)
}

// emptyHash returns Hash("") for alg, used to derive the "derived"
// intermediate secrets between schedule stages, RFC 8446 §7.1.
func emptyHash(alg HashAlgorithm) []byte {
	h := hashFuncFor(alg)()
	return h.Sum(nil)
}

// Traffic secret labels, RFC 8446 §7.1.
const (
	labelClientHandshakeTraffic = "c hs traffic"
	labelServerHandshakeTraffic = "s hs traffic"
	labelClientAppTraffic       = "c ap traffic"
	labelServerAppTraffic       = "s ap traffic"
	labelExporterMaster         = "exp master"
	labelResumptionMaster       = "res master"
	labelDerived                = "derived"
	labelFinished               = "finished"
	labelKey                    = "key"
	labelIV                     = "iv"
)

// keySchedule holds the running state of the seven-secret TLS 1.3 key
// schedule (spec.md §4.4) for one handshake. Stages are applied in
// order; each stage's secret is retained only long enough to derive the
// next one and the per-epoch traffic secrets, then zeroized.
type keySchedule struct {
	hash HashAlgorithm

	earlySecret     []byte
	handshakeSecret []byte
	masterSecret    []byte

	ClientHandshakeTrafficSecret []byte
	ServerHandshakeTrafficSecret []byte
	ClientAppTrafficSecret       []byte
	ServerAppTrafficSecret       []byte
	ExporterMasterSecret         []byte
	ResumptionMasterSecret       []byte
}

// newKeySchedule starts the schedule at the early secret stage. psk is
// nil for the no-PSK case this package implements (spec.md excludes
// resumption).
func newKeySchedule(alg HashAlgorithm, psk []byte) *keySchedule {
	return &keySchedule{
		hash:        alg,
		earlySecret: HkdfExtract(alg, nil, zeroIKM(alg, psk)),
	}
}

func zeroIKM(alg HashAlgorithm, psk []byte) []byte {
	if psk != nil {
		return psk
	}
	return make([]byte, alg.DigestSize)
}

// deriveHandshakeSecret advances the schedule from the early secret to
// the handshake secret using the (EC)DHE shared secret, and derives the
// handshake-traffic secrets from transcriptHash (the hash over
// ClientHello..ServerHello).
func (ks *keySchedule) deriveHandshakeSecret(dheSecret, transcriptHash []byte) {
	derived := DeriveSecret(ks.hash, ks.earlySecret, labelDerived, emptyHash(ks.hash))
	ks.handshakeSecret = HkdfExtract(ks.hash, derived, dheSecret)
	Zeroize(derived)
	Zeroize(ks.earlySecret)
	ks.earlySecret = nil

	ks.ClientHandshakeTrafficSecret = DeriveSecret(ks.hash, ks.handshakeSecret, labelClientHandshakeTraffic, transcriptHash)
	ks.ServerHandshakeTrafficSecret = DeriveSecret(ks.hash, ks.handshakeSecret, labelServerHandshakeTraffic, transcriptHash)
}

// deriveMasterSecret advances the schedule from the handshake secret to
// the master secret, and derives the application-traffic and exporter
// secrets from transcriptHash (the hash over ClientHello..server
// Finished).
func (ks *keySchedule) deriveMasterSecret(transcriptHash []byte) {
	derived := DeriveSecret(ks.hash, ks.handshakeSecret, labelDerived, emptyHash(ks.hash))
	ks.masterSecret = HkdfExtract(ks.hash, derived, make([]byte, ks.hash.DigestSize))
	Zeroize(derived)
	Zeroize(ks.handshakeSecret)
	ks.handshakeSecret = nil

	ks.ClientAppTrafficSecret = DeriveSecret(ks.hash, ks.masterSecret, labelClientAppTraffic, transcriptHash)
	ks.ServerAppTrafficSecret = DeriveSecret(ks.hash, ks.masterSecret, labelServerAppTraffic, transcriptHash)
	ks.ExporterMasterSecret = DeriveSecret(ks.hash, ks.masterSecret, labelExporterMaster, transcriptHash)
}

// deriveResumptionSecret derives the resumption secret from
// transcriptHash (the hash over ClientHello..client Finished). The
// resumption secret is computed and exposed for completeness (spec.md
// §2 names it among the seven secrets) even though this package does
// not implement resumption itself (spec.md §1 Non-goals).
func (ks *keySchedule) deriveResumptionSecret(transcriptHash []byte) {
	ks.ResumptionMasterSecret = DeriveSecret(ks.hash, ks.masterSecret, labelResumptionMaster, transcriptHash)
	Zeroize(ks.masterSecret)
	ks.masterSecret = nil
}

// trafficKeyIV derives the AEAD key and static IV for one direction from
// its traffic secret, RFC 8446 §7.3.
func trafficKeyIV(alg HashAlgorithm, aead AEADAlgorithm, trafficSecret []byte) (key, iv []byte) {
	key = ExpandLabel(alg, trafficSecret, labelKey, nil, aead.KeySize)
	iv = ExpandLabel(alg, trafficSecret, labelIV, nil, aead.IVSize)
	return
}

// finishedKey derives the Finished MAC key from a traffic secret,
// RFC 8446 §4.4.4.
func finishedKey(alg HashAlgorithm, trafficSecret []byte) []byte {
	return ExpandLabel(alg, trafficSecret, labelFinished, nil, alg.DigestSize)
}

// HMACCreate constructs an HMAC keyed with key under alg's hash, the one
// place this package needs a keyed MAC rather than a plain digest
// (RFC 8446 §4.4.4's finished_key MAC). It is built directly on
// crypto/hmac rather than threaded through Provider: HMAC-over-a-hash is
// exactly what golang.org/x/crypto/hkdf already does internally for
// Extract/Expand above, so this package's own Provider boundary need not
// duplicate it.
func HMACCreate(alg HashAlgorithm, key []byte) hash.Hash {
	return hmac.New(hashFuncFor(alg), key)
}

// computeFinishedMAC implements finished_key HMAC application,
// RFC 8446 §4.4.4: HMAC(finished_key, Transcript-Hash(...)).
func computeFinishedMAC(alg HashAlgorithm, key, transcriptHash []byte) []byte {
	h := HMACCreate(alg, key)
	h.Write(transcriptHash)
	return h.Sum(nil)
}

// zero releases every secret the schedule is currently holding.
func (ks *keySchedule) zero() {
	for _, s := range [][]byte{
		ks.earlySecret, ks.handshakeSecret, ks.masterSecret,
		ks.ClientHandshakeTrafficSecret, ks.ServerHandshakeTrafficSecret,
		ks.ClientAppTrafficSecret, ks.ServerAppTrafficSecret,
		ks.ExporterMasterSecret, ks.ResumptionMasterSecret,
	} {
		if s != nil {
			Zeroize(s)
		}
	}
}
