// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHkdfExtractExpandDeterministic(t *testing.T) {
	for _, alg := range []HashAlgorithm{hashSHA256, hashSHA384} {
		ikm := make([]byte, alg.DigestSize)
		for i := range ikm {
			ikm[i] = byte(i)
		}
		salt := []byte("salt")

		prk1 := HkdfExtract(alg, salt, ikm)
		prk2 := HkdfExtract(alg, salt, ikm)
		require.Equal(t, prk1, prk2, "HKDF-Extract must be deterministic")
		require.Len(t, prk1, alg.DigestSize)

		okm1 := HkdfExpand(alg, prk1, []byte("info"), 64)
		okm2 := HkdfExpand(alg, prk1, []byte("info"), 64)
		require.Equal(t, okm1, okm2, "HKDF-Expand must be deterministic")
		require.Len(t, okm1, 64)

		other := HkdfExpand(alg, prk1, []byte("different info"), 64)
		require.NotEqual(t, okm1, other)
	}
}

func TestExpandLabelAndDeriveSecretLengthAndDistinctness(t *testing.T) {
	alg := hashSHA256
	secret := HkdfExtract(alg, nil, make([]byte, alg.DigestSize))

	k := ExpandLabel(alg, secret, labelKey, nil, 16)
	require.Len(t, k, 16)

	a := DeriveSecret(alg, secret, labelClientHandshakeTraffic, emptyHash(alg))
	b := DeriveSecret(alg, secret, labelServerHandshakeTraffic, emptyHash(alg))
	require.Len(t, a, alg.DigestSize)
	require.NotEqual(t, a, b, "different labels must derive different secrets")

	c := DeriveSecret(alg, secret, labelClientHandshakeTraffic, []byte("different transcript"))
	require.NotEqual(t, a, c, "different transcript hashes must derive different secrets")
}

func TestKeyScheduleSevenSecretsDistinctAndCorrectLength(t *testing.T) {
	alg := hashSHA256
	dheSecret := make([]byte, 32)
	for i := range dheSecret {
		dheSecret[i] = byte(i + 1)
	}
	hsHash := []byte("handshake-transcript-hash-stand-in-32b")[:alg.DigestSize]
	msHash := []byte("master-transcript-hash-stand-in-32byte")[:alg.DigestSize]
	resHash := []byte("resumption-transcript-hash-stand-in-32")[:alg.DigestSize]

	ks := newKeySchedule(alg, nil)
	ks.deriveHandshakeSecret(dheSecret, hsHash)
	ks.deriveMasterSecret(msHash)
	ks.deriveResumptionSecret(resHash)

	secrets := map[string][]byte{
		"clientHS":   ks.ClientHandshakeTrafficSecret,
		"serverHS":   ks.ServerHandshakeTrafficSecret,
		"clientApp":  ks.ClientAppTrafficSecret,
		"serverApp":  ks.ServerAppTrafficSecret,
		"exporter":   ks.ExporterMasterSecret,
		"resumption": ks.ResumptionMasterSecret,
	}
	seen := make(map[string]string)
	for name, s := range secrets {
		require.Len(t, s, alg.DigestSize, name)
		key := string(s)
		if other, dup := seen[key]; dup {
			t.Fatalf("%s and %s derived identical secrets", name, other)
		}
		seen[key] = name
	}

	// handshakeSecret is cleared once the master secret stage runs.
	require.Nil(t, ks.handshakeSecret)

	ks.zero()
	require.True(t, allZero(ks.ClientHandshakeTrafficSecret))
	require.True(t, allZero(ks.ServerHandshakeTrafficSecret))
}

func TestFinishedMACMatchesOnlyIdenticalInputs(t *testing.T) {
	alg := hashSHA256
	key := make([]byte, alg.DigestSize)
	th := []byte("transcript-hash-stand-in")

	mac1 := computeFinishedMAC(alg, key, th)
	mac2 := computeFinishedMAC(alg, key, th)
	require.Equal(t, mac1, mac2)
	require.Len(t, mac1, alg.DigestSize)

	otherKey := make([]byte, alg.DigestSize)
	otherKey[0] = 1
	mac3 := computeFinishedMAC(alg, otherKey, th)
	require.NotEqual(t, mac1, mac3)

	mac4 := computeFinishedMAC(alg, key, []byte("different transcript hash"))
	require.NotEqual(t, mac1, mac4)
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
