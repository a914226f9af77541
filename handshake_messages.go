// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import "golang.org/x/crypto/cryptobyte"

// TLS handshake message types this package emits or parses, RFC 8446
// §4.
const (
	typeClientHello         uint8 = 1
	typeServerHello         uint8 = 2
	typeEncryptedExtensions uint8 = 8
	typeCertificate         uint8 = 11
	typeCertificateVerify   uint8 = 15
	typeFinished            uint8 = 20
)

const legacyHandshakeVersion uint16 = 0x0303

// helloRetryRequestRandom is the fixed ServerHello.random value that
// signals a HelloRetryRequest, RFC 8446 §4.1.3. This package rejects
// HelloRetryRequest outright (spec.md §9 Open Questions); any ServerHello
// carrying this value is treated as unexpected_message.
var helloRetryRequestRandom = [32]byte{
	0xCF, 0x21, 0xAD, 0x74, 0xE5, 0x9A, 0x61, 0x11,
	0xBE, 0x1D, 0x8C, 0x02, 0x1E, 0x65, 0xB8, 0x91,
	0xC2, 0xA2, 0x11, 0x16, 0x7A, 0xBB, 0x8C, 0x5E,
	0x07, 0x9E, 0x09, 0xE2, 0xC8, 0xA8, 0x33, 0x9C,
}

// wrapHandshakeMessage prepends the 1-byte type + 3-byte length header
// required of every TLS handshake message, RFC 8446 §4.
func wrapHandshakeMessage(typ uint8, body []byte) []byte {
	var b cryptobyte.Builder
	b.AddUint8(typ)
	b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(body)
	})
	out, _ := b.Bytes()
	return out
}

// clientHelloMsg is the subset of ClientHello this package generates and
// parses (spec.md §4.6).
type clientHelloMsg struct {
	random         [32]byte
	cipherSuites   []uint16
	groups         []CurveID
	keyShares      []keyShareEntry
	sigAlgs        []SignatureScheme
	serverName     string
}

func (m *clientHelloMsg) marshalBody() []byte {
	var b cryptobyte.Builder
	b.AddUint16(legacyHandshakeVersion)
	b.AddBytes(m.random[:])
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {}) // empty legacy session id
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, cs := range m.cipherSuites {
			b.AddUint16(cs)
		}
	})
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddUint8(0) // legacy_compression_methods = [null]
	})
	marshalClientExtensions(&b, m.groups, m.keyShares, m.sigAlgs, m.serverName)
	out, _ := b.Bytes()
	return out
}

// marshal returns the full wire handshake message (header + body).
func (m *clientHelloMsg) marshal() []byte {
	return wrapHandshakeMessage(typeClientHello, m.marshalBody())
}

func parseClientHello(body []byte) (*clientHelloMsg, bool) {
	s := cryptobyte.String(body)
	m := &clientHelloMsg{}
	var legacyVersion uint16
	var sessionID cryptobyte.String
	var suites cryptobyte.String
	var compression cryptobyte.String
	if !s.ReadUint16(&legacyVersion) ||
		!s.CopyBytes(m.random[:]) ||
		!s.ReadUint8LengthPrefixed(&sessionID) ||
		!s.ReadUint16LengthPrefixed(&suites) ||
		!s.ReadUint8LengthPrefixed(&compression) {
		return nil, false
	}
	for !suites.Empty() {
		var cs uint16
		if !suites.ReadUint16(&cs) {
			return nil, false
		}
		m.cipherSuites = append(m.cipherSuites, cs)
	}
	var ext extensionBlock
	if !parseExtensions(&s, &ext, false) {
		return nil, false
	}
	m.groups = ext.supportedGroups
	m.keyShares = ext.keyShares
	m.sigAlgs = ext.signatureAlgorithms
	if ext.hasServerName {
		m.serverName = ext.serverName
	}
	return m, true
}

// serverHelloMsg is the subset of ServerHello this package generates and
// parses.
type serverHelloMsg struct {
	random      [32]byte
	cipherSuite uint16
	keyShare    keyShareEntry
}

func (m *serverHelloMsg) marshalBody() []byte {
	var b cryptobyte.Builder
	b.AddUint16(legacyHandshakeVersion)
	b.AddBytes(m.random[:])
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {}) // echo empty legacy session id
	b.AddUint16(m.cipherSuite)
	b.AddUint8(0) // legacy_compression_method = null
	marshalServerHelloExtensions(&b, m.keyShare)
	out, _ := b.Bytes()
	return out
}

func (m *serverHelloMsg) marshal() []byte {
	return wrapHandshakeMessage(typeServerHello, m.marshalBody())
}

func parseServerHello(body []byte) (*serverHelloMsg, bool) {
	s := cryptobyte.String(body)
	m := &serverHelloMsg{}
	var legacyVersion uint16
	var sessionID cryptobyte.String
	var compression uint8
	if !s.ReadUint16(&legacyVersion) ||
		!s.CopyBytes(m.random[:]) ||
		!s.ReadUint8LengthPrefixed(&sessionID) ||
		!s.ReadUint16(&m.cipherSuite) ||
		!s.ReadUint8(&compression) {
		return nil, false
	}
	var ext extensionBlock
	if !parseExtensions(&s, &ext, true) {
		return nil, false
	}
	if len(ext.keyShares) != 1 {
		return nil, false
	}
	m.keyShare = ext.keyShares[0]
	return m, true
}

// isHelloRetryRequest reports whether m's random matches the reserved
// HelloRetryRequest value.
func (m *serverHelloMsg) isHelloRetryRequest() bool {
	return m.random == helloRetryRequestRandom
}

// encryptedExtensionsMsg carries the server's EncryptedExtensions. This
// package negotiates no extensions that must echo here beyond an empty
// block: ALPN, QUIC transport parameters and other upper-layer concerns
// are out of scope (spec.md §1).
type encryptedExtensionsMsg struct{}

func (m *encryptedExtensionsMsg) marshal() []byte {
	var b cryptobyte.Builder
	b.AddUint16(0) // empty extensions block
	out, _ := b.Bytes()
	return wrapHandshakeMessage(typeEncryptedExtensions, out)
}

func parseEncryptedExtensions(body []byte) (*encryptedExtensionsMsg, bool) {
	s := cryptobyte.String(body)
	var ext cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&ext) {
		return nil, false
	}
	return &encryptedExtensionsMsg{}, true
}

// certificateEntry is one certificate in a Certificate message's chain,
// RFC 8446 §4.4.2.
type certificateEntry struct {
	data []byte
}

type certificateMsg struct {
	certificateRequestContext []byte // empty on the server's unsolicited Certificate
	chain                     []certificateEntry
}

func (m *certificateMsg) marshal() []byte {
	var b cryptobyte.Builder
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.certificateRequestContext)
	})
	b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, ce := range m.chain {
			b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(ce.data)
			})
			b.AddUint16(0) // empty per-certificate extensions
		}
	})
	out, _ := b.Bytes()
	return wrapHandshakeMessage(typeCertificate, out)
}

func parseCertificate(body []byte) (*certificateMsg, bool) {
	s := cryptobyte.String(body)
	m := &certificateMsg{}
	var ctx cryptobyte.String
	var chain cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&ctx) || !s.ReadUint24LengthPrefixed(&chain) {
		return nil, false
	}
	m.certificateRequestContext = []byte(ctx)
	for !chain.Empty() {
		var cert cryptobyte.String
		var certExts cryptobyte.String
		if !chain.ReadUint24LengthPrefixed(&cert) || !chain.ReadUint16LengthPrefixed(&certExts) {
			return nil, false
		}
		m.chain = append(m.chain, certificateEntry{data: []byte(cert)})
	}
	return m, true
}

type certificateVerifyMsg struct {
	algorithm SignatureScheme
	signature []byte
}

func (m *certificateVerifyMsg) marshal() []byte {
	var b cryptobyte.Builder
	b.AddUint16(uint16(m.algorithm))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(m.signature)
	})
	out, _ := b.Bytes()
	return wrapHandshakeMessage(typeCertificateVerify, out)
}

func parseCertificateVerify(body []byte) (*certificateVerifyMsg, bool) {
	s := cryptobyte.String(body)
	m := &certificateVerifyMsg{}
	var alg uint16
	var sig cryptobyte.String
	if !s.ReadUint16(&alg) || !s.ReadUint16LengthPrefixed(&sig) {
		return nil, false
	}
	m.algorithm = SignatureScheme(alg)
	m.signature = []byte(sig)
	return m, true
}

type finishedMsg struct {
	verifyData []byte
}

func (m *finishedMsg) marshal() []byte {
	return wrapHandshakeMessage(typeFinished, m.verifyData)
}

func parseFinished(body []byte) *finishedMsg {
	return &finishedMsg{verifyData: append([]byte(nil), body...)}
}

// certificateVerifySigningContext builds the exact byte string TLS 1.3
// signs/verifies in CertificateVerify, RFC 8446 §4.4.3: 64 spaces, the
// context string, a zero byte, then the transcript hash.
func certificateVerifySigningContext(isServer bool, transcriptHash []byte) []byte {
	out := make([]byte, 0, 64+33+1+len(transcriptHash))
	for i := 0; i < 64; i++ {
		out = append(out, 0x20)
	}
	if isServer {
		out = append(out, "TLS 1.3, server CertificateVerify"...)
	} else {
		out = append(out, "TLS 1.3, client CertificateVerify"...)
	}
	out = append(out, 0x00)
	out = append(out, transcriptHash...)
	return out
}
