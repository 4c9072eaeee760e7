package netutil

import (
	"net"

	"github.com/pkg/errors"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnioutil"
)

// ConnectTCP connects to the host:port in TCP
func ConnectTCP(host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, itoa(port))
	conn, err := net.Dial("tcp", addr)
	return conn, errors.Wrap(err, "connect tcp failed")
}

func itoa(port int) string {
	if port < 0 || port > 65535 {
		return ""
	}
	var b [5]byte
	i := len(b)
	for {
		i--
		b[i] = byte('0' + port%10)
		port /= 10
		if port == 0 {
			break
		}
	}
	return string(b[i:])
}

// IsConnectionError checks if the error is a connection error (close)
func IsConnectionError(_err interface{}) bool {
	err, ok := _err.(error)
	if !ok {
		return false
	}

	err = errors.Cause(err)
	if err == mnioutil.ErrBufferFull {
		return false
	}

	neterr, ok := err.(net.Error)
	if !ok {
		return false
	}
	if neterr.Timeout() {
		return false
	}

	return true
}
