// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

// DeferredSign is an owned handle to a pending signing or
// CertificateVerify-verification continuation, realizing the callback
// cleanup protocol of spec.md §4.6/§9: the underlying callback is
// invoked exactly once, either with real arguments to perform the
// cryptographic operation, or with no arguments purely to release
// whatever context it captured. Both Run and Cancel consume the handle;
// calling either on an already-consumed handle is a no-op.
//
// args is variadic so the same handle shape serves both directions: a
// signer's fn takes one argument (the message) and returns the
// signature; a verifier's fn takes two (the message, then the signature
// that arrived later on the wire) and returns a nil/non-nil error.
type DeferredSign struct {
	fn func(args ...[]byte) ([]byte, error)
}

// NewDeferredSign wraps fn as a deferred, cancelable continuation. fn
// must accept zero arguments as a cleanup-only invocation and return
// (nil, nil) in that case.
func NewDeferredSign(fn func(args ...[]byte) ([]byte, error)) *DeferredSign {
	return &DeferredSign{fn: fn}
}

// Run invokes the continuation with args and consumes the handle.
// Calling Run twice, or Run after Cancel, is a programming error this
// package never does; the second call is simply a no-op returning
// (nil, nil).
func (d *DeferredSign) Run(args ...[]byte) ([]byte, error) {
	if d == nil || d.fn == nil {
		return nil, nil
	}
	fn := d.fn
	d.fn = nil
	return fn(args...)
}

// Cancel invokes the continuation with no arguments purely so it can
// release any captured context, then consumes the handle. Safe to call
// on an already-consumed handle.
func (d *DeferredSign) Cancel() {
	if d == nil || d.fn == nil {
		return
	}
	fn := d.fn
	d.fn = nil
	_, _ = fn()
}
