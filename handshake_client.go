// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import "crypto/hmac"

// clientOfferedSigAlgs is the fixed signature_algorithms extension this
// package offers; a host wanting a different set is expected to fork
// this list rather than have it be runtime-configurable, matching the
// spec's minimal surface (spec.md §1).
var clientOfferedSigAlgs = []SignatureScheme{
	ECDSAWithP256AndSHA256,
	Ed25519,
	PSSWithSHA256,
}

// csBuildClientHello is the client's initial state: construct and send
// ClientHello, spec.md §4.6.
type csBuildClientHello struct{}

func (*csBuildClientHello) isHandshakeState() {}

// csExpectServerHello awaits ServerHello. kxByGroup holds every
// key-exchange context the client generated while building ClientHello,
// keyed by group, so the one matching the server's chosen share can be
// found; the rest are discarded (and, lacking an explicit Close on
// ProviderKeyExchange, left for the garbage collector — spec.md §9's
// resource-release note applies to AEADContext, which does carry
// long-lived secret material, not to an ephemeral key-exchange context
// whose private scalar a provider is expected to zero internally once
// collected).
type csExpectServerHello struct {
	kxByGroup      map[CurveID]ProviderKeyExchange
	clientHelloRaw []byte
}

func (*csExpectServerHello) isHandshakeState() {}

type csExpectEncryptedExtensions struct{}

func (*csExpectEncryptedExtensions) isHandshakeState() {}

type csExpectCertificate struct{}

func (*csExpectCertificate) isHandshakeState() {}

// csExpectCertificateVerify awaits CertificateVerify. verifySign is the
// continuation the host's ClientVerify callback returned when handed the
// certificate chain; cancelPendingCallbacks in session.go releases it if
// the handshake is torn down before it runs.
type csExpectCertificateVerify struct {
	verifySign *DeferredSign
}

func (*csExpectCertificateVerify) isHandshakeState() {}

type csExpectFinished struct{}

func (*csExpectFinished) isHandshakeState() {}

// connectedState is the terminal state for both sides once the
// handshake completes.
type connectedState struct{}

func (*connectedState) isHandshakeState() {}

// clientSendHello builds and emits ClientHello, offering every group and
// cipher suite the provider supports. The raw bytes are retained on
// csExpectServerHello rather than fed to a transcript immediately: the
// transcript hash function isn't known until the server names a cipher
// suite in ServerHello (spec.md §4.6).
func (s *Session) clientSendHello(out *Buffer) error {
	groups := s.provider.SupportedGroups()
	if len(groups) == 0 {
		return ErrLibrary
	}

	var random [32]byte
	if err := s.provider.RandomBytes(random[:]); err != nil {
		return ErrLibrary
	}

	kxByGroup := make(map[CurveID]ProviderKeyExchange, len(groups))
	var curveIDs []CurveID
	var shares []keyShareEntry
	for _, g := range groups {
		kx, err := s.provider.GenerateKeyExchange(g)
		if err != nil {
			return ErrLibrary
		}
		cid := CurveID(g.Group)
		kxByGroup[cid] = kx
		curveIDs = append(curveIDs, cid)
		shares = append(shares, keyShareEntry{group: cid, data: kx.PublicValue()})
	}

	suites := s.provider.SupportedCipherSuites()
	if len(suites) == 0 {
		return ErrLibrary
	}
	var suiteIDs []uint16
	for _, cs := range suites {
		suiteIDs = append(suiteIDs, cs.ID)
	}

	ch := &clientHelloMsg{
		random:       random,
		cipherSuites: suiteIDs,
		groups:       curveIDs,
		keyShares:    shares,
		sigAlgs:      clientOfferedSigAlgs,
		serverName:   s.serverName,
	}
	raw := ch.marshal()
	sealPlaintextRecord(out, raw, recordTypeHandshake)

	s.state = &csExpectServerHello{kxByGroup: kxByGroup, clientHelloRaw: raw}
	return nil
}

// clientHandleServerHello processes ServerHello: negotiates the cipher
// suite, completes the (EC)DHE exchange, starts the transcript (folding
// in the retained ClientHello bytes first), derives the handshake
// secret, and installs both handshake-traffic AEAD epochs.
func (s *Session) clientHandleServerHello(out *Buffer, st *csExpectServerHello) (bool, error) {
	msgType, body, raw, ok := s.nextHandshakeMessage()
	if !ok {
		return false, nil
	}
	if msgType != typeServerHello {
		return false, selfAlert(alertUnexpectedMessage)
	}
	sh, ok := parseServerHello(body)
	if !ok {
		return false, selfAlert(alertDecodeError)
	}
	if sh.isHelloRetryRequest() {
		// HelloRetryRequest is out of scope; this package only ever
		// offers shares the server is expected to accept outright.
		return false, selfAlert(alertUnexpectedMessage)
	}

	suite, ok := cipherSuiteByID(sh.cipherSuite)
	if !ok {
		return false, selfAlert(alertHandshakeFailure)
	}
	kx, ok := st.kxByGroup[sh.keyShare.group]
	if !ok {
		return false, selfAlert(alertHandshakeFailure)
	}

	sharedSecret, err := kx.Exchange(sh.keyShare.data)
	if err != nil {
		return false, selfAlert(alertHandshakeFailure)
	}
	defer Zeroize(sharedSecret)

	s.suite = suite
	s.suiteKnown = true
	s.transcript = newTranscript(s.provider, suite.Hash)
	s.transcript.Write(st.clientHelloRaw)
	s.transcript.Write(raw)
	th := s.transcript.Snapshot()

	s.ks = newKeySchedule(suite.Hash, nil)
	s.ks.deriveHandshakeSecret(sharedSecret, th)

	recvCtx, err := AEADNew(suite.AEAD, suite.Hash, s.provider, false, s.ks.ServerHandshakeTrafficSecret, labelServerHandshakeTraffic)
	if err != nil {
		return false, err
	}
	sendCtx, err := AEADNew(suite.AEAD, suite.Hash, s.provider, true, s.ks.ClientHandshakeTrafficSecret, labelClientHandshakeTraffic)
	if err != nil {
		recvCtx.Close()
		return false, err
	}
	s.rl.installRecv(recvCtx)
	s.rl.installSend(sendCtx)

	s.state = &csExpectEncryptedExtensions{}
	return true, nil
}

func (s *Session) clientHandleEncryptedExtensions(st *csExpectEncryptedExtensions) (bool, error) {
	msgType, body, raw, ok := s.nextHandshakeMessage()
	if !ok {
		return false, nil
	}
	if msgType != typeEncryptedExtensions {
		return false, selfAlert(alertUnexpectedMessage)
	}
	if _, ok := parseEncryptedExtensions(body); !ok {
		return false, selfAlert(alertDecodeError)
	}
	s.transcript.Write(raw)
	s.state = &csExpectCertificate{}
	return true, nil
}

func (s *Session) clientHandleCertificate(st *csExpectCertificate) (bool, error) {
	msgType, body, raw, ok := s.nextHandshakeMessage()
	if !ok {
		return false, nil
	}
	if msgType != typeCertificate {
		return false, selfAlert(alertUnexpectedMessage)
	}
	cm, ok := parseCertificate(body)
	if !ok {
		return false, selfAlert(alertDecodeError)
	}
	if len(cm.chain) == 0 {
		return false, selfAlert(alertBadCertificate)
	}
	chain := Certificate{}
	for _, ce := range cm.chain {
		chain.Chain = append(chain.Chain, ce.data)
	}

	if s.certCtx == nil || s.certCtx.Verify == nil {
		return false, ErrLibrary
	}
	sign, err := s.certCtx.Verify(chain)
	if err != nil {
		sign.Cancel()
		return false, selfAlert(alertBadCertificate)
	}

	s.transcript.Write(raw)
	s.state = &csExpectCertificateVerify{verifySign: sign}
	return true, nil
}

func (s *Session) clientHandleCertificateVerify(st *csExpectCertificateVerify) (bool, error) {
	msgType, body, raw, ok := s.nextHandshakeMessage()
	if !ok {
		return false, nil
	}
	if msgType != typeCertificateVerify {
		return false, selfAlert(alertUnexpectedMessage)
	}
	cv, ok := parseCertificateVerify(body)
	if !ok {
		return false, selfAlert(alertDecodeError)
	}

	th := s.transcript.Snapshot() // Hash(CH..Certificate)
	signContext := certificateVerifySigningContext(true /* verifying the server's signature */, th)
	_, err := st.verifySign.Run(signContext, cv.signature)
	Zeroize(signContext)
	Zeroize(th)
	if err != nil {
		return false, selfAlert(alertDecryptError)
	}

	s.transcript.Write(raw)
	s.state = &csExpectFinished{}
	return true, nil
}

func (s *Session) clientHandleFinished(out *Buffer, st *csExpectFinished) (bool, error) {
	msgType, body, raw, ok := s.nextHandshakeMessage()
	if !ok {
		return false, nil
	}
	if msgType != typeFinished {
		return false, selfAlert(alertUnexpectedMessage)
	}
	fin := parseFinished(body)

	thBeforeServerFinished := s.transcript.Snapshot() // Hash(CH..CV)
	serverFK := finishedKey(s.suite.Hash, s.ks.ServerHandshakeTrafficSecret)
	expected := computeFinishedMAC(s.suite.Hash, serverFK, thBeforeServerFinished)
	Zeroize(serverFK)
	if !hmac.Equal(fin.verifyData, expected) {
		return false, selfAlert(alertDecryptError)
	}

	s.transcript.Write(raw)
	thAfterServerFinished := s.transcript.Snapshot() // Hash(CH..server Finished)
	s.ks.deriveMasterSecret(thAfterServerFinished)

	clientFK := finishedKey(s.suite.Hash, s.ks.ClientHandshakeTrafficSecret)
	clientVerifyData := computeFinishedMAC(s.suite.Hash, clientFK, thAfterServerFinished)
	Zeroize(clientFK)

	clientFin := &finishedMsg{verifyData: clientVerifyData}
	clientRaw := clientFin.marshal()
	if err := s.rl.sealRecord(out, clientRaw, recordTypeHandshake); err != nil {
		return false, err
	}
	s.transcript.Write(clientRaw)
	thFinal := s.transcript.Snapshot() // Hash(CH..client Finished)
	s.ks.deriveResumptionSecret(thFinal)

	if err := s.installApplicationTraffic(); err != nil {
		return false, err
	}
	s.connected = true
	s.state = &connectedState{}
	return true, nil
}

// installApplicationTraffic installs the application-traffic AEAD
// contexts once the master secret's traffic secrets are available, in
// the direction appropriate to which side s is.
func (s *Session) installApplicationTraffic() error {
	sendSecret, recvSecret := s.ks.ClientAppTrafficSecret, s.ks.ServerAppTrafficSecret
	sendLabel, recvLabel := labelClientAppTraffic, labelServerAppTraffic
	if !s.isClient {
		sendSecret, recvSecret = s.ks.ServerAppTrafficSecret, s.ks.ClientAppTrafficSecret
		sendLabel, recvLabel = labelServerAppTraffic, labelClientAppTraffic
	}
	sendCtx, err := AEADNew(s.suite.AEAD, s.suite.Hash, s.provider, true, sendSecret, sendLabel)
	if err != nil {
		return err
	}
	recvCtx, err := AEADNew(s.suite.AEAD, s.suite.Hash, s.provider, false, recvSecret, recvLabel)
	if err != nil {
		sendCtx.Close()
		return err
	}
	s.rl.installSend(sendCtx)
	s.rl.installRecv(recvCtx)
	return nil
}
