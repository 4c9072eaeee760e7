package netutil

import (
	"net"
	"time"
)

// Connection is the abstract interface for connections in the coordination layer
type Connection interface {
	net.Conn
	Flush() error
}

// NetConn converts a net.Conn to a Connection with a noop Flush
type NetConn struct {
	net.Conn
}

// Flush flushes the writes, not needed for net.Conn
func (c NetConn) Flush() error {
	return nil
}

// SetConnectionDeadlines sets read/write deadlines of the connection
func SetConnectionDeadlines(conn net.Conn, readDeadline time.Time, writeDeadline time.Time) error {
	if err := conn.SetReadDeadline(readDeadline); err != nil {
		return err
	}
	return conn.SetWriteDeadline(writeDeadline)
}
