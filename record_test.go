// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeAEAD adapts a stdlib cipher.AEAD to ProviderAEAD without pulling
// in the stdprovider package (which imports this one).
type fakeAEAD struct {
	cipher.AEAD
}

func newFakeGCMContext(t *testing.T, key []byte) *AEADContext {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	return &AEADContext{alg: aeadAES128GCM, aead: fakeAEAD{gcm}, iv: make([]byte, 12)}
}

func TestAEADContextRoundTripAndSequenceBinding(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("hello record layer")

	sendCtx := newFakeGCMContext(t, key)
	ciphertext, err := sendCtx.Transform(nil, plaintext, nil, true)
	require.NoError(t, err)
	require.EqualValues(t, 1, sendCtx.seq)

	recvCtx := newFakeGCMContext(t, key) // seq 0, matches the nonce sendCtx sealed with
	opened, err := recvCtx.Transform(nil, ciphertext, nil, false)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)

	mismatched := newFakeGCMContext(t, key)
	mismatched.seq = 1 // wrong nonce: the ciphertext was sealed at seq 0
	_, err = mismatched.Transform(nil, ciphertext, nil, false)
	require.Error(t, err)
	require.Equal(t, selfAlert(alertBadRecordMAC), err)
}

func TestAEADContextSequenceNeverWraps(t *testing.T) {
	ctx := newFakeGCMContext(t, make([]byte, 16))
	ctx.seq = ^uint64(0)
	ctx.used = true
	_, err := ctx.Transform(nil, []byte("x"), nil, true)
	require.Error(t, err)
	require.Equal(t, selfAlert(alertInternalError), err)
}

func TestRecordLayerFramingAcrossPartialFeeds(t *testing.T) {
	var rl recordLayer
	var out Buffer
	out.Init()
	sealPlaintextRecord(&out, []byte("hello"), recordTypeHandshake)
	wire := append([]byte(nil), out.Bytes()...)

	// Feed it back one byte at a time; nextRecord must report "not yet"
	// until the whole record has arrived.
	for i := 0; i < len(wire)-1; i++ {
		rl.feed(wire[i : i+1])
		_, ok := rl.nextRecord()
		require.False(t, ok, "record should not be complete after %d bytes", i+1)
	}
	rl.feed(wire[len(wire)-1:])
	rec, ok := rl.nextRecord()
	require.True(t, ok)
	require.Equal(t, recordTypeHandshake, rec.outerType)
	require.Equal(t, []byte("hello"), rec.body)

	_, ok = rl.nextRecord()
	require.False(t, ok, "no more records should be available")
}

func TestRecordLayerSealAndOpenRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	var rl recordLayer
	rl.installSend(newFakeGCMContext(t, key))
	rl.installRecv(newFakeGCMContext(t, key))

	var out Buffer
	out.Init()
	require.NoError(t, rl.sealRecord(&out, []byte("app data"), recordTypeApplicationData))

	rl.feed(out.Bytes())
	rec, ok := rl.nextRecord()
	require.True(t, ok)

	plaintext, innerType, err := rl.openRecord(rec)
	require.NoError(t, err)
	require.Equal(t, recordTypeApplicationData, innerType)
	require.Equal(t, []byte("app data"), plaintext)
}
