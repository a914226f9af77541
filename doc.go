// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mintls13 implements the core of a minimalist TLS 1.3
// implementation: the handshake state machine, the HKDF-based key
// schedule, transcript hashing, and the record layer that frames,
// encrypts and decrypts traffic.
//
// The package performs no I/O of its own. A Session is driven
// synchronously by a caller that supplies bytes read from a peer and
// transmits bytes the Session produces. Concrete cryptographic
// primitives (AEAD, hashing, key exchange) are supplied by a Provider;
// see the stdprovider subpackage for a ready-made one backed by the
// standard library and golang.org/x/crypto.
//
// A Session is not safe for concurrent use.
package mintls13
