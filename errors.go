// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mintls13

import "fmt"

// Error is a totally ordered, classified error code. There is no stack
// of wrapped causes: every public operation in this package returns
// either nil or an Error, never a fmt.Errorf-wrapped chain, so that the
// class and alert code can always be read back off the value itself.
type Error uint32

// Error classes occupy the byte above the alert/sub-code byte, the
// concrete values spec.md §6 pins down: self-alert 0x0000, peer-alert
// 0x0100, internal 0x0200.
const (
	classSelfAlert Error = 0x0000
	classPeerAlert Error = 0x0100
	classInternal  Error = 0x0200

	classMask Error = 0xff00
)

// Class identifies which of the three error classes e belongs to.
type Class int

const (
	ClassSelfAlert Class = iota
	ClassPeerAlert
	ClassInternal
)

// Class reports which class e belongs to.
func (e Error) Class() Class {
	switch e & classMask {
	case classSelfAlert:
		return ClassSelfAlert
	case classPeerAlert:
		return ClassPeerAlert
	default:
		return ClassInternal
	}
}

// AlertCode returns the TLS alert code carried by e, valid only when
// Class() is ClassSelfAlert or ClassPeerAlert.
func (e Error) AlertCode() uint8 { return uint8(e) }

// selfAlert constructs a self-generated alert error with the given TLS
// alert code.
func selfAlert(code uint8) Error { return classSelfAlert | Error(code) }

// peerAlert constructs an error representing an alert received from the
// peer, carrying the same TLS alert code.
func peerAlert(code uint8) Error { return classPeerAlert | Error(code) }

// Internal-class sentinel errors, spec.md §6.
const (
	ErrHandshakeInProgress Error = classInternal | 0x02
	ErrNoMemory            Error = classInternal | 0x01
	ErrLibrary             Error = classInternal | 0x03
	ErrIncompatibleKey     Error = classInternal | 0x04
)

// Convenience self-alert values a ServerLookup implementation can return
// directly: since Error already carries the alert code, the handshake
// engine propagates whatever Error a callback hands back instead of
// collapsing every lookup failure to one generic alert.
var (
	ErrUnrecognizedName               = selfAlert(alertUnrecognizedName)
	ErrNoCompatibleSignatureAlgorithm = selfAlert(alertHandshakeFailure)
)

// TLS alert codes used by this package, RFC 8446 §6.
const (
	alertCloseNotify            uint8 = 0
	alertUnexpectedMessage      uint8 = 10
	alertBadRecordMAC           uint8 = 20
	alertHandshakeFailure       uint8 = 40
	alertBadCertificate         uint8 = 42
	alertUnsupportedCertificate uint8 = 43
	alertCertificateExpired     uint8 = 45
	alertDecodeError            uint8 = 50
	alertDecryptError           uint8 = 51
	alertProtocolVersion        uint8 = 70
	alertInternalError          uint8 = 80
	alertMissingExtension       uint8 = 109
	alertUnrecognizedName       uint8 = 112
	alertNoApplicationProtocol  uint8 = 120
)

var alertNames = map[uint8]string{
	alertCloseNotify:            "close_notify",
	alertUnexpectedMessage:      "unexpected_message",
	alertBadRecordMAC:           "bad_record_mac",
	alertHandshakeFailure:       "handshake_failure",
	alertBadCertificate:         "bad_certificate",
	alertUnsupportedCertificate: "unsupported_certificate",
	alertCertificateExpired:     "certificate_expired",
	alertDecodeError:            "decode_error",
	alertDecryptError:           "decrypt_error",
	alertProtocolVersion:        "protocol_version",
	alertInternalError:          "internal_error",
	alertMissingExtension:       "missing_extension",
	alertUnrecognizedName:       "unrecognized_name",
	alertNoApplicationProtocol:  "no_application_protocol",
}

func (e Error) Error() string {
	switch e {
	case ErrHandshakeInProgress:
		return "mintls13: handshake in progress"
	case ErrNoMemory:
		return "mintls13: out of memory"
	case ErrLibrary:
		return "mintls13: internal library error"
	case ErrIncompatibleKey:
		return "mintls13: incompatible key"
	}
	name, ok := alertNames[e.AlertCode()]
	if !ok {
		name = fmt.Sprintf("alert(%d)", e.AlertCode())
	}
	switch e.Class() {
	case ClassSelfAlert:
		return "mintls13: " + name
	case ClassPeerAlert:
		return "mintls13: peer sent alert " + name
	default:
		return fmt.Sprintf("mintls13: internal error 0x%x", uint32(e))
	}
}
