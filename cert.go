// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

// Certificate is a chain of DER-encoded certificates, leaf first, as
// carried on the wire by a Certificate handshake message.
type Certificate struct {
	Chain [][]byte
}

// ServerLookup is the server-side certificate callback of spec.md §4.6.
// Given the SNI server name (may be empty) and the signature algorithms
// the peer offered, it must return a certificate chain, the signature
// algorithm it will sign CertificateVerify with, and a DeferredSign that
// performs that signature over the message it is later given (or
// releases captured resources if invoked with no arguments because the
// handshake aborted first).
type ServerLookup func(serverName string, peerSigAlgs []SignatureScheme) (Certificate, SignatureScheme, *DeferredSign, error)

// ClientVerify is the client-side certificate callback of spec.md §4.6.
// Given the decoded certificate chain the server sent, it must return a
// DeferredSign (named verify_sign in the spec) that checks a signature
// against a payload it is later given, or releases captured resources
// if invoked with empty arguments because the handshake aborted before
// CertificateVerify arrived.
type ClientVerify func(chain Certificate) (*DeferredSign, error)

// CertContext bundles the host-provided certificate callbacks
// (spec.md §3 "certificate callback table"). A Session holds a
// non-owning reference; CertContext may be shared across sessions if
// the host makes it so (spec.md §5).
type CertContext struct {
	// Lookup is required for a Session acting as a TLS server.
	Lookup ServerLookup
	// Verify is required for a Session acting as a TLS client.
	Verify ClientVerify
}
