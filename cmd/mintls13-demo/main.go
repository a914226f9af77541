// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mintls13-demo runs one TLS 1.3 handshake and sends a single
// client-to-server application-data record over an in-process net.Pipe, to smoke-test
// a Provider end to end without needing a real listening socket.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/paymentlogs/mintls13"
	"github.com/paymentlogs/mintls13/selfsigned"
	"github.com/paymentlogs/mintls13/stdprovider"
)

func main() {
	serverName := flag.String("server-name", "example.test", "SNI value the client offers")
	flag.Parse()

	if err := run(*serverName); err != nil {
		log.Fatalf("mintls13-demo: %v", err)
	}
}

func run(serverName string) error {
	identity, err := selfsigned.Generate()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	clientConn, serverConn := net.Pipe()
	provider := stdprovider.New()

	clientCerts := &mintls13.CertContext{Verify: identity.ClientVerify()}
	serverCerts := &mintls13.CertContext{Lookup: identity.ServerLookup()}

	client := mintls13.NewClientSession(provider, clientCerts, serverName)
	server := mintls13.NewServerSession(provider, serverCerts)
	defer client.Close()
	defer server.Close()

	errc := make(chan error, 2)
	go func() { errc <- pump(clientConn, client) }()
	go func() { errc <- pump(serverConn, server) }()
	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
	}
	log.Printf("handshake complete, server name %q", serverName)

	var out mintls13.Buffer
	out.Init()
	request := []byte("GET /\r\n\r\n")
	if err := client.Send(&out, request); err != nil {
		return fmt.Errorf("client send: %w", err)
	}
	// net.Pipe is unbuffered: the write only completes once the server
	// end reads, so it must not run on this goroutine.
	werrc := make(chan error, 1)
	go func() {
		_, err := clientConn.Write(out.Bytes())
		werrc <- err
	}()

	buf := make([]byte, 4096)
	n, err := serverConn.Read(buf)
	if err != nil {
		return err
	}
	if err := <-werrc; err != nil {
		return err
	}
	var received mintls13.Buffer
	received.Init()
	if _, err := server.Receive(&received, buf[:n]); err != nil {
		return fmt.Errorf("server receive: %w", err)
	}
	log.Printf("server received: %q", received.Bytes())
	return nil
}

// pump drives one side of the handshake to completion over conn.
func pump(conn net.Conn, sess *mintls13.Session) error {
	var out mintls13.Buffer
	out.Init()
	var in []byte
	for {
		_, err := sess.Handshake(&out, in)
		in = nil
		if out.Len() > 0 {
			if _, werr := conn.Write(out.Bytes()); werr != nil {
				return werr
			}
			out.Reset()
		}
		if err == nil {
			return nil
		}
		if err != mintls13.ErrHandshakeInProgress {
			return err
		}
		buf := make([]byte, 4096)
		n, rerr := conn.Read(buf)
		if rerr != nil {
			return rerr
		}
		in = buf[:n]
	}
}
