// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import "golang.org/x/crypto/cryptobyte"

// TLS extension numbers used by this package, RFC 8446 §4.2.
const (
	extensionServerName          uint16 = 0
	extensionSupportedGroups     uint16 = 10
	extensionSignatureAlgorithms uint16 = 13
	extensionKeyShare            uint16 = 51
	extensionSupportedVersions   uint16 = 43
)

// legacyTLS13Version is the wire value for "TLS 1.3" in the
// supported_versions extension, RFC 8446 §4.2.1. The record layer's
// legacy_record_version field uses legacyRecordVersion (0x0303) instead.
const legacyTLS13Version uint16 = 0x0304

// CurveID identifies a named group for key exchange, RFC 8446 §4.2.7.
type CurveID uint16

const (
	CurveX25519 CurveID = 29
	CurveP256   CurveID = 23
	CurveP384   CurveID = 24
)

// SignatureScheme identifies a signature algorithm, RFC 8446 §4.2.3.
type SignatureScheme uint16

const (
	ECDSAWithP256AndSHA256 SignatureScheme = 0x0403
	Ed25519                SignatureScheme = 0x0807
	PSSWithSHA256          SignatureScheme = 0x0804
)

// keyShareEntry is one entry of a key_share extension, RFC 8446 §4.2.8.
type keyShareEntry struct {
	group CurveID
	data  []byte
}

// extensionBlock holds the parsed extensions this package understands.
// Unrecognized extensions are skipped during parsing, not rejected,
// matching RFC 8446 §4.1.2's forward-compatibility requirement.
type extensionBlock struct {
	supportedVersions   []uint16
	supportedGroups     []CurveID
	keyShares           []keyShareEntry
	signatureAlgorithms []SignatureScheme
	serverName          string
	hasServerName       bool
}

func addExtension(b *cryptobyte.Builder, typ uint16, body func(*cryptobyte.Builder)) {
	b.AddUint16(typ)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		body(b)
	})
}

// marshalClientExtensions encodes the extensions a client hello carries,
// per spec.md §4.6.
func marshalClientExtensions(b *cryptobyte.Builder, groups []CurveID, shares []keyShareEntry, sigAlgs []SignatureScheme, serverName string) {
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		addExtension(b, extensionSupportedVersions, func(b *cryptobyte.Builder) {
			b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddUint16(legacyTLS13Version)
			})
		})

		addExtension(b, extensionSupportedGroups, func(b *cryptobyte.Builder) {
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				for _, g := range groups {
					b.AddUint16(uint16(g))
				}
			})
		})

		addExtension(b, extensionKeyShare, func(b *cryptobyte.Builder) {
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				for _, ks := range shares {
					b.AddUint16(uint16(ks.group))
					b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
						b.AddBytes(ks.data)
					})
				}
			})
		})

		addExtension(b, extensionSignatureAlgorithms, func(b *cryptobyte.Builder) {
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				for _, s := range sigAlgs {
					b.AddUint16(uint16(s))
				}
			})
		})

		if serverName != "" {
			addExtension(b, extensionServerName, func(b *cryptobyte.Builder) {
				b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
					b.AddUint8(0) // host_name
					b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
						b.AddBytes([]byte(serverName))
					})
				})
			})
		}
	})
}

// marshalServerHelloExtensions encodes the extensions a ServerHello
// carries: supported_versions (echoing TLS 1.3) and key_share (the
// server's single chosen group and share).
func marshalServerHelloExtensions(b *cryptobyte.Builder, share keyShareEntry) {
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		addExtension(b, extensionSupportedVersions, func(b *cryptobyte.Builder) {
			b.AddUint16(legacyTLS13Version)
		})
		addExtension(b, extensionKeyShare, func(b *cryptobyte.Builder) {
			b.AddUint16(uint16(share.group))
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(share.data)
			})
		})
	})
}

// parseExtensions walks an extensions block, reading into dst the ones
// this package understands and skipping the rest. isServerHello governs
// the key_share layout, which differs between ClientHello (list) and
// ServerHello (single entry).
func parseExtensions(s *cryptobyte.String, dst *extensionBlock, isServerHello bool) bool {
	var exts cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&exts) {
		return false
	}
	for !exts.Empty() {
		var typ uint16
		var body cryptobyte.String
		if !exts.ReadUint16(&typ) || !exts.ReadUint16LengthPrefixed(&body) {
			return false
		}
		switch typ {
		case extensionSupportedVersions:
			if isServerHello {
				var v uint16
				if !body.ReadUint16(&v) {
					return false
				}
				dst.supportedVersions = append(dst.supportedVersions, v)
			} else {
				var list cryptobyte.String
				if !body.ReadUint8LengthPrefixed(&list) {
					return false
				}
				for !list.Empty() {
					var v uint16
					if !list.ReadUint16(&v) {
						return false
					}
					dst.supportedVersions = append(dst.supportedVersions, v)
				}
			}
		case extensionSupportedGroups:
			var list cryptobyte.String
			if !body.ReadUint16LengthPrefixed(&list) {
				return false
			}
			for !list.Empty() {
				var g uint16
				if !list.ReadUint16(&g) {
					return false
				}
				dst.supportedGroups = append(dst.supportedGroups, CurveID(g))
			}
		case extensionKeyShare:
			if isServerHello {
				var group uint16
				var data cryptobyte.String
				if !body.ReadUint16(&group) || !body.ReadUint16LengthPrefixed(&data) {
					return false
				}
				dst.keyShares = append(dst.keyShares, keyShareEntry{group: CurveID(group), data: []byte(data)})
			} else {
				var list cryptobyte.String
				if !body.ReadUint16LengthPrefixed(&list) {
					return false
				}
				for !list.Empty() {
					var group uint16
					var data cryptobyte.String
					if !list.ReadUint16(&group) || !list.ReadUint16LengthPrefixed(&data) {
						return false
					}
					dst.keyShares = append(dst.keyShares, keyShareEntry{group: CurveID(group), data: []byte(data)})
				}
			}
		case extensionSignatureAlgorithms:
			var list cryptobyte.String
			if !body.ReadUint16LengthPrefixed(&list) {
				return false
			}
			for !list.Empty() {
				var s uint16
				if !list.ReadUint16(&s) {
					return false
				}
				dst.signatureAlgorithms = append(dst.signatureAlgorithms, SignatureScheme(s))
			}
		case extensionServerName:
			var names cryptobyte.String
			if !body.ReadUint16LengthPrefixed(&names) {
				return false
			}
			for !names.Empty() {
				var nameType uint8
				var name cryptobyte.String
				if !names.ReadUint8(&nameType) || !names.ReadUint16LengthPrefixed(&name) {
					return false
				}
				if nameType == 0 {
					dst.serverName = string(name)
					dst.hasServerName = true
				}
			}
		default:
			// unrecognized extension: already consumed via ReadUint16LengthPrefixed above
		}
	}
	return true
}
