// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import "crypto/hmac"

// ssExpectClientHello is the server's initial state, spec.md §4.6.
type ssExpectClientHello struct{}

func (*ssExpectClientHello) isHandshakeState() {}

// ssExpectClientFinished awaits the client's Finished after the server
// has already sent its own full flight (ServerHello, EncryptedExtensions,
// Certificate, CertificateVerify, Finished). spec.md's
// expect_certificate_verify_from_self state does not get its own type
// here: signing is a synchronous Go call in this core (spec.md §5 —
// callbacks are synchronous, asynchrony if any is arranged by the host
// between Handshake calls), so it happens inline within the same step
// that builds the rest of the flight rather than suspending the state
// machine.
type ssExpectClientFinished struct{}

func (*ssExpectClientFinished) isHandshakeState() {}

// serverHandleClientHello processes ClientHello and, in one step, emits
// the server's entire flight: ServerHello, EncryptedExtensions,
// Certificate, CertificateVerify and Finished.
func (s *Session) serverHandleClientHello(out *Buffer, st *ssExpectClientHello) (bool, error) {
	msgType, body, clientHelloRaw, ok := s.nextHandshakeMessage()
	if !ok {
		return false, nil
	}
	if msgType != typeClientHello {
		return false, selfAlert(alertUnexpectedMessage)
	}
	ch, ok := parseClientHello(body)
	if !ok {
		return false, selfAlert(alertDecodeError)
	}

	suite, ok := mutualCipherSuite(s.provider.SupportedCipherSuites(), ch.cipherSuites)
	if !ok {
		return false, selfAlert(alertHandshakeFailure)
	}

	var chosenAlg KeyExchangeAlgorithm
	var chosenShare keyShareEntry
	found := false
outer:
	for _, alg := range s.provider.SupportedGroups() {
		for _, ks := range ch.keyShares {
			if CurveID(alg.Group) == ks.group {
				chosenAlg, chosenShare, found = alg, ks, true
				break outer
			}
		}
	}
	if !found {
		// No overlap between ch.groups (via keyShares) and what the
		// provider supports. A full implementation would answer with
		// HelloRetryRequest; this package rejects that path outright
		// (spec.md §1 Non-goals) and simply fails the handshake.
		return false, selfAlert(alertHandshakeFailure)
	}

	if s.certCtx == nil || s.certCtx.Lookup == nil {
		return false, ErrLibrary
	}
	cert, sigAlg, signCont, err := s.certCtx.Lookup(ch.serverName, ch.sigAlgs)
	if err != nil {
		signCont.Cancel()
		if e, ok := err.(Error); ok {
			return false, e
		}
		return false, selfAlert(alertHandshakeFailure)
	}
	if len(cert.Chain) == 0 {
		signCont.Cancel()
		return false, selfAlert(alertHandshakeFailure)
	}

	kx, err := s.provider.GenerateKeyExchange(chosenAlg)
	if err != nil {
		signCont.Cancel()
		return false, ErrLibrary
	}
	serverPublic := kx.PublicValue() // Exchange below spends kx
	sharedSecret, err := kx.Exchange(chosenShare.data)
	if err != nil {
		signCont.Cancel()
		return false, selfAlert(alertHandshakeFailure)
	}
	defer Zeroize(sharedSecret)

	var random [32]byte
	if err := s.provider.RandomBytes(random[:]); err != nil {
		signCont.Cancel()
		return false, ErrLibrary
	}
	sh := &serverHelloMsg{
		random:      random,
		cipherSuite: suite.ID,
		keyShare:    keyShareEntry{group: chosenShare.group, data: serverPublic},
	}
	serverHelloRaw := sh.marshal()
	sealPlaintextRecord(out, serverHelloRaw, recordTypeHandshake)

	s.suite = suite
	s.suiteKnown = true
	s.transcript = newTranscript(s.provider, suite.Hash)
	s.transcript.Write(clientHelloRaw)
	s.transcript.Write(serverHelloRaw)
	th := s.transcript.Snapshot()

	s.ks = newKeySchedule(suite.Hash, nil)
	s.ks.deriveHandshakeSecret(sharedSecret, th)

	sendCtx, err := AEADNew(suite.AEAD, suite.Hash, s.provider, true, s.ks.ServerHandshakeTrafficSecret, labelServerHandshakeTraffic)
	if err != nil {
		signCont.Cancel()
		return false, err
	}
	recvCtx, err := AEADNew(suite.AEAD, suite.Hash, s.provider, false, s.ks.ClientHandshakeTrafficSecret, labelClientHandshakeTraffic)
	if err != nil {
		sendCtx.Close()
		signCont.Cancel()
		return false, err
	}
	s.rl.installSend(sendCtx)
	s.rl.installRecv(recvCtx)

	ee := &encryptedExtensionsMsg{}
	eeRaw := ee.marshal()
	if err := s.rl.sealRecord(out, eeRaw, recordTypeHandshake); err != nil {
		signCont.Cancel()
		return false, err
	}
	s.transcript.Write(eeRaw)

	cm := &certificateMsg{}
	for _, der := range cert.Chain {
		cm.chain = append(cm.chain, certificateEntry{data: der})
	}
	certRaw := cm.marshal()
	if err := s.rl.sealRecord(out, certRaw, recordTypeHandshake); err != nil {
		signCont.Cancel()
		return false, err
	}
	s.transcript.Write(certRaw)

	thBeforeCV := s.transcript.Snapshot() // Hash(CH..Certificate)
	signContext := certificateVerifySigningContext(true, thBeforeCV)
	signature, err := signCont.Run(signContext)
	Zeroize(signContext)
	Zeroize(thBeforeCV)
	if err != nil {
		return false, selfAlert(alertInternalError)
	}
	cv := &certificateVerifyMsg{algorithm: sigAlg, signature: signature}
	cvRaw := cv.marshal()
	if err := s.rl.sealRecord(out, cvRaw, recordTypeHandshake); err != nil {
		return false, err
	}
	s.transcript.Write(cvRaw)

	thBeforeFinished := s.transcript.Snapshot() // Hash(CH..CV)
	serverFK := finishedKey(s.suite.Hash, s.ks.ServerHandshakeTrafficSecret)
	verifyData := computeFinishedMAC(s.suite.Hash, serverFK, thBeforeFinished)
	Zeroize(serverFK)
	fin := &finishedMsg{verifyData: verifyData}
	finRaw := fin.marshal()
	if err := s.rl.sealRecord(out, finRaw, recordTypeHandshake); err != nil {
		return false, err
	}
	s.transcript.Write(finRaw)

	thAfterServerFinished := s.transcript.Snapshot() // Hash(CH..server Finished)
	s.ks.deriveMasterSecret(thAfterServerFinished)

	s.state = &ssExpectClientFinished{}
	return true, nil
}

// serverHandleClientFinished verifies the client's Finished, derives the
// resumption secret, and installs application-traffic keys.
func (s *Session) serverHandleClientFinished(st *ssExpectClientFinished) (bool, error) {
	msgType, body, raw, ok := s.nextHandshakeMessage()
	if !ok {
		return false, nil
	}
	if msgType != typeFinished {
		return false, selfAlert(alertUnexpectedMessage)
	}
	fin := parseFinished(body)

	th := s.transcript.Snapshot() // Hash(CH..server Finished), unchanged since last write
	clientFK := finishedKey(s.suite.Hash, s.ks.ClientHandshakeTrafficSecret)
	expected := computeFinishedMAC(s.suite.Hash, clientFK, th)
	Zeroize(clientFK)
	if !hmac.Equal(fin.verifyData, expected) {
		return false, selfAlert(alertDecryptError)
	}

	s.transcript.Write(raw)
	thFinal := s.transcript.Snapshot() // Hash(CH..client Finished)
	s.ks.deriveResumptionSecret(thFinal)

	if err := s.installApplicationTraffic(); err != nil {
		return false, err
	}
	s.connected = true
	s.state = &connectedState{}
	return true, nil
}
