// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paymentlogs/mintls13"
	"github.com/paymentlogs/mintls13/selfsigned"
	"github.com/paymentlogs/mintls13/stdprovider"
)

// drive pumps two in-process Sessions against each other until both
// report connected or either fails, without any real transport.
func drive(t *testing.T, client, server *mintls13.Session) (clientErr, serverErr error) {
	t.Helper()
	var cOut, sOut mintls13.Buffer
	cOut.Init()
	sOut.Init()
	var toServer, toClient []byte

	for round := 0; round < 20; round++ {
		_, cErr := client.Handshake(&cOut, toClient)
		_, sErr := server.Handshake(&sOut, toServer)

		toServer = append([]byte(nil), cOut.Bytes()...)
		toClient = append([]byte(nil), sOut.Bytes()...)
		cOut.Reset()
		sOut.Reset()

		if cErr != nil && cErr != mintls13.ErrHandshakeInProgress {
			return cErr, sErr
		}
		if sErr != nil && sErr != mintls13.ErrHandshakeInProgress {
			return cErr, sErr
		}
		if cErr == nil && sErr == nil {
			return nil, nil
		}
	}
	t.Fatal("handshake did not converge within 20 rounds")
	return nil, nil
}

func TestHandshakeX25519AES128GCMSHA256ThenApplicationData(t *testing.T) {
	identity, err := selfsigned.Generate()
	require.NoError(t, err)
	provider := stdprovider.New()

	client := mintls13.NewClientSession(provider, &mintls13.CertContext{Verify: identity.ClientVerify()}, "example.test")
	server := mintls13.NewServerSession(provider, &mintls13.CertContext{Lookup: identity.ServerLookup()})
	defer client.Close()
	defer server.Close()

	cErr, sErr := drive(t, client, server)
	require.NoError(t, cErr)
	require.NoError(t, sErr)

	var wire mintls13.Buffer
	wire.Init()
	require.NoError(t, client.Send(&wire, []byte("GET /\r\n\r\n")))

	var received mintls13.Buffer
	received.Init()
	_, err = server.Receive(&received, wire.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte("GET /\r\n\r\n"), received.Bytes())
}

// suiteLimitedProvider forces negotiation down to whatever suites it is
// constructed with, to exercise cipher suite selection beyond the
// default preference order.
type suiteLimitedProvider struct {
	*stdprovider.Provider
	suites []mintls13.CipherSuite
}

func (p suiteLimitedProvider) SupportedCipherSuites() []mintls13.CipherSuite {
	return p.suites
}

func onlySuite(id uint16) []mintls13.CipherSuite {
	var out []mintls13.CipherSuite
	for _, cs := range mintls13.CipherSuites() {
		if cs.ID == id {
			out = append(out, cs)
		}
	}
	return out
}

func TestHandshakeNegotiatesAES256GCMSHA384(t *testing.T) {
	identity, err := selfsigned.Generate()
	require.NoError(t, err)
	provider := suiteLimitedProvider{Provider: stdprovider.New(), suites: onlySuite(mintls13.TLS_AES_256_GCM_SHA384)}

	client := mintls13.NewClientSession(provider, &mintls13.CertContext{Verify: identity.ClientVerify()}, "example.test")
	server := mintls13.NewServerSession(provider, &mintls13.CertContext{Lookup: identity.ServerLookup()})
	defer client.Close()
	defer server.Close()

	cErr, sErr := drive(t, client, server)
	require.NoError(t, cErr)
	require.NoError(t, sErr)

	var wire mintls13.Buffer
	wire.Init()
	require.NoError(t, client.Send(&wire, []byte("ping")))
	var received mintls13.Buffer
	received.Init()
	_, err = server.Receive(&received, wire.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), received.Bytes())
}

func TestReceiveRejectsTamperedCiphertext(t *testing.T) {
	identity, err := selfsigned.Generate()
	require.NoError(t, err)
	provider := stdprovider.New()

	client := mintls13.NewClientSession(provider, &mintls13.CertContext{Verify: identity.ClientVerify()}, "example.test")
	server := mintls13.NewServerSession(provider, &mintls13.CertContext{Lookup: identity.ServerLookup()})
	defer client.Close()
	defer server.Close()
	cErr, sErr := drive(t, client, server)
	require.NoError(t, cErr)
	require.NoError(t, sErr)

	var wire mintls13.Buffer
	wire.Init()
	require.NoError(t, client.Send(&wire, []byte("tamper me")))
	tampered := append([]byte(nil), wire.Bytes()...)
	tampered[len(tampered)-1] ^= 0xFF // flip the last tag byte

	var received mintls13.Buffer
	received.Init()
	_, err = server.Receive(&received, tampered)
	require.Error(t, err)
	e, ok := err.(mintls13.Error)
	require.True(t, ok)
	require.EqualValues(t, 20, e.AlertCode()) // bad_record_mac
}

func TestHandshakeRejectsUnrecognizedServerName(t *testing.T) {
	identity, err := selfsigned.Generate()
	require.NoError(t, err)
	provider := stdprovider.New()

	lookup := func(serverName string, peerSigAlgs []mintls13.SignatureScheme) (mintls13.Certificate, mintls13.SignatureScheme, *mintls13.DeferredSign, error) {
		if serverName != "expected.test" {
			return mintls13.Certificate{}, 0, mintls13.NewDeferredSign(func(args ...[]byte) ([]byte, error) { return nil, nil }), mintls13.ErrUnrecognizedName
		}
		return identity.ServerLookup()(serverName, peerSigAlgs)
	}

	client := mintls13.NewClientSession(provider, &mintls13.CertContext{Verify: identity.ClientVerify()}, "wrong.test")
	server := mintls13.NewServerSession(provider, &mintls13.CertContext{Lookup: lookup})
	defer client.Close()
	defer server.Close()

	_, sErr := drive(t, client, server)
	require.Error(t, sErr)
	e, ok := sErr.(mintls13.Error)
	require.True(t, ok)
	require.EqualValues(t, 112, e.AlertCode()) // unrecognized_name
}

func TestHandshakeRejectsIncompatibleSignatureAlgorithm(t *testing.T) {
	identity, err := selfsigned.Generate()
	require.NoError(t, err)
	provider := stdprovider.New()

	lookup := func(serverName string, peerSigAlgs []mintls13.SignatureScheme) (mintls13.Certificate, mintls13.SignatureScheme, *mintls13.DeferredSign, error) {
		return mintls13.Certificate{}, 0, mintls13.NewDeferredSign(func(args ...[]byte) ([]byte, error) { return nil, nil }), mintls13.ErrNoCompatibleSignatureAlgorithm
	}

	client := mintls13.NewClientSession(provider, &mintls13.CertContext{Verify: identity.ClientVerify()}, "example.test")
	server := mintls13.NewServerSession(provider, &mintls13.CertContext{Lookup: lookup})
	defer client.Close()
	defer server.Close()

	_, sErr := drive(t, client, server)
	require.Error(t, sErr)
	e, ok := sErr.(mintls13.Error)
	require.True(t, ok)
	require.EqualValues(t, 40, e.AlertCode()) // handshake_failure
}
