// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import "runtime"

// Zeroize is a process-wide, best-effort constant-time zeroing function.
// It is invoked on every piece of intermediate key material, every
// transcript snapshot used for signing, and every decrypted
// authentication tag this package handles. Callers embedding this
// package may replace it (e.g. with a hardware-backed or OS-assisted
// wipe) but must not substitute an ordinary memory-fill that the
// compiler is free to optimize away as a dead store.
var Zeroize func([]byte) = defaultZeroize

// defaultZeroize writes zero a byte at a time and calls runtime.KeepAlive
// on the slice afterwards so the compiler cannot prove the writes are
// dead and elide them.
func defaultZeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
