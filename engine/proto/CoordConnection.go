package proto

import (
	"net"
	"time"

	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
)

// CoordConnection is the network connection between processes of the
// coordination layer (map server, central server, database service)
type CoordConnection struct {
	packetConn *netutil.PacketConnection
	closed     bool
	autoFlush  bool
}

// NewCoordConnection creates a CoordConnection to watch and handle packets
func NewCoordConnection(conn netutil.Connection) *CoordConnection {
	return &CoordConnection{
		packetConn: netutil.NewPacketConnection(conn),
	}
}

// SendMsg sends one typed message to the remote
func (cc *CoordConnection) SendMsg(msgType MsgType, msg Msg) error {
	packet := cc.packetConn.NewPacket()
	packet.AppendUint16(uint16(msgType))
	msg.AppendToPacket(packet)
	err := cc.SendPacket(packet)
	packet.Release()
	return err
}

// SendPacket sends one raw packet to the remote
func (cc *CoordConnection) SendPacket(packet *netutil.Packet) error {
	err := cc.packetConn.SendPacket(packet)
	if err != nil {
		return err
	}
	if cc.autoFlush {
		return cc.packetConn.Flush("AutoFlush")
	}
	return nil
}

// SetAutoFlush makes the connection flush after every send instead of
// waiting for explicit Flush calls
func (cc *CoordConnection) SetAutoFlush(autoFlush bool) {
	cc.autoFlush = autoFlush
}

// Flush flushes the pending packets to the remote
func (cc *CoordConnection) Flush(reason string) error {
	return cc.packetConn.Flush(reason)
}

// Recv receives the next packet and reads its message type
func (cc *CoordConnection) Recv(msgType *MsgType) (*netutil.Packet, error) {
	packet, err := cc.packetConn.RecvPacket()
	if err != nil {
		return nil, err
	}

	*msgType = MsgType(packet.ReadUint16())
	return packet, nil
}

// SetRecvDeadline sets the receive deadline
func (cc *CoordConnection) SetRecvDeadline(deadline time.Time) error {
	return cc.packetConn.SetRecvDeadline(deadline)
}

// Close closes the connection
func (cc *CoordConnection) Close() error {
	cc.closed = true
	return cc.packetConn.Close()
}

// IsClosed returns if the connection is closed
func (cc *CoordConnection) IsClosed() bool {
	return cc.closed
}

// RemoteAddr returns the remote address
func (cc *CoordConnection) RemoteAddr() net.Addr {
	return cc.packetConn.RemoteAddr()
}

// LocalAddr returns the local address
func (cc *CoordConnection) LocalAddr() net.Addr {
	return cc.packetConn.LocalAddr()
}

func (cc *CoordConnection) String() string {
	return cc.packetConn.String()
}
