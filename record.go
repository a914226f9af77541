// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import (
	"encoding/binary"

	"golang.org/x/crypto/cryptobyte"
)

const (
	maxPlaintext    = 1 << 14 // maximum plaintext payload length, RFC 8446 §5.1
	recordHeaderLen = 5
	legacyRecordVersion = 0x0303
)

// AEADContext is the mutable per-direction AEAD state of spec.md §3: an
// algorithm descriptor, opaque provider state, a 64-bit sequence number,
// and a static IV. The per-record nonce is always the static IV XORed
// with the big-endian sequence number right-aligned (RFC 8446 §5.3); the
// sequence number increments after every successful transform and must
// never wrap (spec.md invariant 1).
type AEADContext struct {
	alg AEADAlgorithm
	aead ProviderAEAD
	seq  uint64
	iv   []byte // static IV, len == alg.IVSize; a single slice realizes the
	// spec's "variable-length trailing field" (spec.md §9) as one heap
	// allocation rather than a fixed 16-byte array plus recorded length.
	used bool // true once seq has been incremented at least once; guards overflow detection below
}

// AEADNew constructs an AEAD context by deriving key and IV via
// HKDF-Expand-Label from secret with the given label, per spec.md §6.
func AEADNew(alg AEADAlgorithm, hashAlg HashAlgorithm, p Provider, isEncrypt bool, secret []byte, label string) (*AEADContext, error) {
	key := ExpandLabel(hashAlg, secret, labelKey, nil, alg.KeySize)
	iv := ExpandLabel(hashAlg, secret, labelIV, nil, alg.IVSize)
	defer Zeroize(key)

	engine, err := p.NewAEAD(alg, key, isEncrypt)
	if err != nil {
		return nil, ErrLibrary
	}
	// label (e.g. "c hs traffic") identifies which traffic secret the
	// caller derived; the key/iv sub-derivation below it always uses the
	// fixed "key"/"iv" labels regardless, per RFC 8446 §7.3, so label
	// itself carries no further weight here beyond API parity with
	// spec.md §6.
	_ = label
	return &AEADContext{alg: alg, aead: engine, iv: iv}, nil
}

// Close wipes and releases ctx. Safe to call once; calling it is
// mandatory before a context is discarded (spec.md §3 lifecycle).
func (c *AEADContext) Close() {
	if c.iv != nil {
		Zeroize(c.iv)
		c.iv = nil
	}
	c.aead = nil
}

// nonce computes the per-record nonce for the current sequence number:
// the static IV XORed with the sequence number big-endian, right-aligned
// and left-padded with zeros (spec.md §4.5).
func (c *AEADContext) nonce() []byte {
	n := make([]byte, len(c.iv))
	copy(n, c.iv)
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], c.seq)
	off := len(n) - 8
	for i := 0; i < 8; i++ {
		n[off+i] ^= seqBytes[i]
	}
	return n
}

// recordHeader builds the 5-byte TLSCiphertext header — opaque_type ||
// legacy_record_version || length — that RFC 8446 §5.2 requires as the
// AEAD's additional_data, exactly as it appears on the wire.
func recordHeader(outerType recordType, version uint16, length int) []byte {
	h := make([]byte, recordHeaderLen)
	h[0] = byte(outerType)
	binary.BigEndian.PutUint16(h[1:3], version)
	binary.BigEndian.PutUint16(h[3:5], uint16(length))
	return h
}

// Transform encrypts (isEncrypt true at construction) or decrypts one
// record's inner plaintext (already including its trailing inner
// content-type byte) against the current sequence number, then
// increments the sequence number. Sequence numbers must never wrap
// (spec.md invariant 1); Transform refuses to proceed if incrementing
// would wrap.
func (c *AEADContext) Transform(dst, in []byte, additionalData []byte, isEncrypt bool) ([]byte, error) {
	if c.seq == ^uint64(0) && c.used {
		return nil, selfAlert(alertInternalError)
	}
	nonce := c.nonce()
	defer Zeroize(nonce)

	var out []byte
	var err error
	if isEncrypt {
		out = c.aead.Seal(dst, nonce, in, additionalData)
	} else {
		out, err = c.aead.Open(dst, nonce, in, additionalData)
		if err != nil {
			return nil, selfAlert(alertBadRecordMAC)
		}
	}
	c.seq++
	c.used = true
	return out, nil
}

// recordLayer converts between wire TLS records and plaintext
// fragments, wrapping/unwrapping under the AEAD for the current epoch
// (spec.md §4.5). It holds at most two AEAD contexts (send, receive);
// epoch transitions replace them atomically, wiping the previous
// context.
type recordLayer struct {
	send *AEADContext
	recv *AEADContext

	// recvBuf accumulates bytes received from the peer until at least
	// one full record is present.
	recvBuf []byte
}

// installSend replaces the send-direction AEAD context, wiping the
// previous one if any. Sequence numbers reset to zero on every install
// (spec.md §4.5).
func (rl *recordLayer) installSend(ctx *AEADContext) {
	if rl.send != nil {
		rl.send.Close()
	}
	rl.send = ctx
}

// installRecv replaces the receive-direction AEAD context, wiping the
// previous one if any.
func (rl *recordLayer) installRecv(ctx *AEADContext) {
	if rl.recv != nil {
		rl.recv.Close()
	}
	rl.recv = ctx
}

// sealRecord encrypts one record's worth of plaintext (at most
// maxPlaintext bytes) under innerType and appends the wire record
// (header + ciphertext) to out.
func (rl *recordLayer) sealRecord(out *Buffer, plaintext []byte, innerType recordType) error {
	if rl.send == nil {
		return ErrLibrary
	}
	inner := make([]byte, 0, len(plaintext)+1)
	inner = append(inner, plaintext...)
	inner = append(inner, byte(innerType))

	ciphertextLen := len(inner) + rl.send.aead.Overhead()
	aad := recordHeader(recordTypeApplicationData, legacyRecordVersion, ciphertextLen)
	ciphertext, err := rl.send.Transform(nil, inner, aad, true)
	Zeroize(inner)
	if err != nil {
		return err
	}

	var b cryptobyte.Builder
	b.AddUint8(uint8(recordTypeApplicationData))
	b.AddUint16(legacyRecordVersion)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(ciphertext)
	})
	wire, err := b.Bytes()
	if err != nil {
		return ErrLibrary
	}
	out.Append(wire)
	return nil
}

// sealPlaintextRecord frames a plaintext (unencrypted) handshake or
// alert record. It is used before any send epoch has been installed, and
// by Session.maybeEmitAlert when sealing the alert under the send epoch
// fails.
func sealPlaintextRecord(out *Buffer, body []byte, outerType recordType) {
	var b cryptobyte.Builder
	b.AddUint8(uint8(outerType))
	b.AddUint16(legacyRecordVersion)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(body)
	})
	wire, _ := b.Bytes()
	out.Append(wire)
}

// parsedRecord is one fully-received TLS record, pre-decryption.
type parsedRecord struct {
	outerType recordType
	version   uint16 // legacy_record_version as received, retained for AAD reconstruction
	body      []byte // ciphertext, or plaintext if no recv epoch installed yet
}

// nextRecord consumes one complete record from the front of rl.recvBuf,
// if present, returning ok=false if more bytes are needed. The legacy
// version field is read but never validated (spec.md §9 Open Questions).
func (rl *recordLayer) nextRecord() (rec parsedRecord, ok bool) {
	if len(rl.recvBuf) < recordHeaderLen {
		return parsedRecord{}, false
	}
	s := cryptobyte.String(rl.recvBuf)
	var outerType uint8
	var version uint16
	var body cryptobyte.String
	if !s.ReadUint8(&outerType) || !s.ReadUint16(&version) || !s.ReadUint16LengthPrefixed(&body) {
		return parsedRecord{}, false
	}
	consumed := len(rl.recvBuf) - len(s)
	rl.recvBuf = rl.recvBuf[consumed:]
	return parsedRecord{outerType: recordType(outerType), version: version, body: []byte(body)}, true
}

// feed appends newly-received bytes to the layer's reassembly buffer.
func (rl *recordLayer) feed(b []byte) {
	rl.recvBuf = append(rl.recvBuf, b...)
}

// openRecord decrypts rec under the current receive epoch, returning the
// plaintext fragment and the inner content type. Unencrypted
// change_cipher_spec records are the caller's responsibility to detect
// and discard before calling openRecord (spec.md §4.5).
func (rl *recordLayer) openRecord(rec parsedRecord) (plaintext []byte, innerType recordType, err error) {
	if rl.recv == nil {
		return rec.body, rec.outerType, nil
	}
	aad := recordHeader(rec.outerType, rec.version, len(rec.body))
	inner, err := rl.recv.Transform(nil, rec.body, aad, false)
	if err != nil {
		return nil, 0, err
	}
	// Strip trailing zero padding, then the inner content type byte,
	// per RFC 8446 §5.4.
	i := len(inner) - 1
	for i >= 0 && inner[i] == 0 {
		i--
	}
	if i < 0 {
		Zeroize(inner)
		return nil, 0, selfAlert(alertUnexpectedMessage)
	}
	innerType = recordType(inner[i])
	plaintext = append([]byte(nil), inner[:i]...)
	Zeroize(inner)
	return plaintext, innerType, nil
}

// close wipes both AEAD contexts.
func (rl *recordLayer) close() {
	if rl.send != nil {
		rl.send.Close()
		rl.send = nil
	}
	if rl.recv != nil {
		rl.recv.Close()
		rl.recv = nil
	}
}
