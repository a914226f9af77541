// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

// transcript accumulates every handshake message (header + body) in
// wire order and can be snapshotted without disturbing the running hash
// state, as required at the four points RFC 8446 needs an interim
// digest (spec.md §4.3).
type transcript struct {
	alg HashAlgorithm
	h   ProviderHash
}

// newTranscript starts a transcript once the cipher suite (and so the
// hash) is known. Any bytes already retained from before the suite was
// chosen (the serialized ClientHello) must be fed in via Write
// immediately after construction.
func newTranscript(p Provider, alg HashAlgorithm) *transcript {
	return &transcript{alg: alg, h: p.NewHash(alg)}
}

// Write accumulates the wire bytes of one handshake message (its 4-byte
// header plus body).
func (t *transcript) Write(b []byte) {
	t.h.Write(b)
}

// Snapshot returns the digest of everything written so far without
// disturbing the running state, so the transcript can keep accumulating
// afterwards.
func (t *transcript) Snapshot() []byte {
	return t.h.Sum()
}

// zero releases the transcript's hash state by resetting it. ProviderHash
// implementations are expected to hold no secret material beyond what a
// hash digest already is. Digests previously returned by Snapshot are
// not touched; wiping them is up to whoever holds them.
func (t *transcript) zero() {
	t.h.Reset()
}
