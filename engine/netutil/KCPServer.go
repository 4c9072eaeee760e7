package netutil

import (
	"net"

	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnutils"
	kcp "github.com/xtaci/kcp-go"
)

// ServeKCPForever serves on specified address as KCP server, for ever ...
func ServeKCPForever(listenAddr string, delegate TCPServerDelegate) {
	mnutils.RepeatUntilPanicless(func() {
		serveKCPForeverOnce(listenAddr, delegate)
	})
}

func serveKCPForeverOnce(listenAddr string, delegate TCPServerDelegate) {
	kcpListener, err := kcp.ListenWithOptions(listenAddr, nil, 10, 3)
	if err != nil {
		mnlog.Panic(err)
	}

	mnlog.Infof("Listening on KCP: %s ...", listenAddr)

	defer kcpListener.Close()

	for {
		conn, err := kcpListener.AcceptKCP()
		if err != nil {
			if IsTemporary(err) {
				continue
			} else {
				mnlog.Panic(err)
			}
		}

		mnlog.Infof("KCP connection from: %s", conn.RemoteAddr())
		go func() {
			delegate.ServeTCPConnection(tunedKCPConn(conn))
		}()
	}
}

func tunedKCPConn(conn *kcp.UDPSession) net.Conn {
	conn.SetReadBuffer(64 * 1024)
	conn.SetWriteBuffer(64 * 1024)
	conn.SetNoDelay(1, 10, 2, 1)
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetACKNoDelay(false)
	return conn
}
