// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

// CipherSuite is an immutable {id, AEAD, hash} triple, RFC 8446 §B.4.
// Only the three TLS 1.3 suites are recognized; earlier-version suites
// are out of scope (spec.md §3).
type CipherSuite struct {
	ID   uint16
	AEAD AEADAlgorithm
	Hash HashAlgorithm
}

// TLS 1.3 cipher suite identifiers, RFC 8446 §B.4.
const (
	TLS_AES_128_GCM_SHA256       uint16 = 0x1301
	TLS_AES_256_GCM_SHA384       uint16 = 0x1302
	TLS_CHACHA20_POLY1305_SHA256 uint16 = 0x1303
)

var (
	hashSHA256 = HashAlgorithm{Name: "SHA-256", DigestSize: 32, BlockSize: 64}
	hashSHA384 = HashAlgorithm{Name: "SHA-384", DigestSize: 48, BlockSize: 128}

	aeadAES128GCM = AEADAlgorithm{Name: "AES-128-GCM", KeySize: 16, IVSize: 12}
	aeadAES256GCM = AEADAlgorithm{Name: "AES-256-GCM", KeySize: 32, IVSize: 12}
	aeadChaCha20  = AEADAlgorithm{Name: "ChaCha20-Poly1305", KeySize: 32, IVSize: 12}
)

// cipherSuites lists the three recognized TLS 1.3 suites in descending
// preference order, mirroring the order the teacher package uses for
// its own cipherSuitesTLS13 table (AES-128 first, then
// ChaCha20-Poly1305, then AES-256).
var cipherSuites = []CipherSuite{
	{ID: TLS_AES_128_GCM_SHA256, AEAD: aeadAES128GCM, Hash: hashSHA256},
	{ID: TLS_CHACHA20_POLY1305_SHA256, AEAD: aeadChaCha20, Hash: hashSHA256},
	{ID: TLS_AES_256_GCM_SHA384, AEAD: aeadAES256GCM, Hash: hashSHA384},
}

// CipherSuites returns the three recognized TLS 1.3 cipher suites in
// descending preference order. A Provider implementation typically
// returns some subset or reordering of this list from
// SupportedCipherSuites.
func CipherSuites() []CipherSuite {
	return append([]CipherSuite(nil), cipherSuites...)
}

// cipherSuiteByID returns the recognized suite with the given id, or
// false if id is not one of the three TLS 1.3 suites this package
// implements.
func cipherSuiteByID(id uint16) (CipherSuite, bool) {
	for _, cs := range cipherSuites {
		if cs.ID == id {
			return cs, true
		}
	}
	return CipherSuite{}, false
}

// mutualCipherSuite returns the first suite in provided (the provider's
// supported set) whose id also appears in have, or false if none match. have is the
// order the peer offered suites in; this package (acting as server)
// picks its own preference order instead of the peer's, matching
// RFC 8446 guidance that the server's preference governs selection.
func mutualCipherSuite(provided []CipherSuite, have []uint16) (CipherSuite, bool) {
	offered := make(map[uint16]bool, len(have))
	for _, id := range have {
		offered[id] = true
	}
	for _, cs := range provided {
		if offered[cs.ID] {
			return cs, true
		}
	}
	return CipherSuite{}, false
}
