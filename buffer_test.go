// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("short"),
		bytes.Repeat([]byte{0x42}, smallBufSize-1),
		bytes.Repeat([]byte{0x7a}, smallBufSize*3+17), // forces heap promotion
	}
	for _, want := range cases {
		b := NewBuffer()
		b.Append(want)
		require.Equal(t, want, b.Bytes())
		require.Equal(t, len(want), b.Len())
	}
}

func TestBufferAppendByteAndReset(t *testing.T) {
	b := NewBuffer()
	b.AppendByte('a')
	b.AppendByte('b')
	require.Equal(t, []byte("ab"), b.Bytes())

	b.Reset()
	require.Equal(t, 0, b.Len())
	b.Append([]byte("cd"))
	require.Equal(t, []byte("cd"), b.Bytes())
}

func TestBufferStaysOffHeapUntilForced(t *testing.T) {
	b := NewBuffer()
	b.Append(bytes.Repeat([]byte{1}, smallBufSize))
	require.False(t, b.heap)

	b.Append([]byte{2})
	require.True(t, b.heap)
	require.Equal(t, smallBufSize+1, b.Len())
}

func TestBufferDisposeZeroizes(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("secret"))
	b.Dispose()
	require.Equal(t, 0, b.Len())
	for _, c := range b.small {
		require.Zero(t, c)
	}
}
