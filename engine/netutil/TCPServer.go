package netutil

import (
	"net"

	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnutils"
)

// TCPServerDelegate is the implementations that a TCP server should provide
type TCPServerDelegate interface {
	ServeTCPConnection(net.Conn)
}

// ServeTCPForever serves on specified address as TCP server, for ever ...
func ServeTCPForever(listenAddr string, delegate TCPServerDelegate) {
	mnutils.RepeatUntilPanicless(func() {
		serveTCPForeverOnce(listenAddr, delegate)
	})
}

func serveTCPForeverOnce(listenAddr string, delegate TCPServerDelegate) {
	ln, err := net.Listen("tcp", listenAddr)
	mnlog.Infof("Listening on TCP: %s ...", listenAddr)

	if err != nil {
		mnlog.Panic(err)
	}

	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if IsTemporary(err) {
				continue
			} else {
				mnlog.Panic(err)
			}
		}

		mnlog.Infof("Connection from: %s", conn.RemoteAddr())
		go delegate.ServeTCPConnection(conn)
	}
}

// ServeTCP serves on specified address as TCP server
func ServeTCP(listenAddr string, delegate TCPServerDelegate) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	mnlog.Infof("Listening on TCP: %s ...", listenAddr)
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if IsTemporary(err) {
				continue
			} else {
				return err
			}
		}

		mnlog.Infof("Connection from: %s", conn.RemoteAddr())
		go delegate.ServeTCPConnection(conn)
	}
}

// IsTemporary checks if the error is a temporary network error
func IsTemporary(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Temporary()
}
