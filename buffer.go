// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

// smallBufSize is the size of the stack-friendly backing array a Buffer
// starts from before it promotes to a heap allocation.
const smallBufSize = 512

// Buffer is a growable byte sink. The zero value is not ready for use;
// call Init or let NewBuffer construct one. A Buffer that has never grown
// past its small backing array never allocates on the heap.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	small [smallBufSize]byte
	buf   []byte
	heap  bool
}

// NewBuffer returns a Buffer initialized over its own small backing area.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.Init()
	return b
}

// Init (re)initializes b to use its small backing array, discarding any
// previously held content. Safe to call on a zero Buffer.
func (b *Buffer) Init() {
	b.buf = b.small[:0]
	b.heap = false
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return len(b.buf) }

// Bytes returns the bytes held so far. The returned slice is invalidated
// by the next call to Reserve or Append.
func (b *Buffer) Bytes() []byte { return b.buf }

// Reserve ensures capacity for at least delta additional bytes beyond the
// current length, doubling capacity (and migrating off the small backing
// array to the heap) as needed.
func (b *Buffer) Reserve(delta int) {
	need := len(b.buf) + delta
	if need <= cap(b.buf) {
		return
	}
	newCap := cap(b.buf)
	if newCap == 0 {
		newCap = smallBufSize
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, len(b.buf), newCap)
	copy(grown, b.buf)
	b.buf = grown
	b.heap = true
}

// Append reserves space for and appends p to the buffer.
func (b *Buffer) Append(p []byte) {
	b.Reserve(len(p))
	b.buf = append(b.buf, p...)
}

// AppendByte reserves space for and appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	b.Reserve(1)
	b.buf = append(b.buf, c)
}

// Dispose releases any heap-allocated storage and resets b to its initial
// state. Idempotent: calling Dispose on an already-disposed or
// never-grown Buffer is a no-op beyond zeroing the small backing array
// and the length.
func (b *Buffer) Dispose() {
	if b.heap {
		Zeroize(b.buf[:cap(b.buf)])
	} else {
		Zeroize(b.small[:])
	}
	b.buf = b.small[:0]
	b.heap = false
}

// Reset truncates the buffer to zero length without releasing storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}
