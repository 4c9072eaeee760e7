package netutil

import (
	"fmt"
	"net"

	"time"

	"sync"

	"github.com/pkg/errors"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnioutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/opmon"
)

const (
	_SIZE_FIELD_SIZE     = 4
	_PREPAYLOAD_SIZE     = _SIZE_FIELD_SIZE
	_MAX_PAYLOAD_LENGTH  = consts.MAX_PACKET_PAYLOAD_LENGTH
	_MAX_PACKET_SIZE     = _PREPAYLOAD_SIZE + _MAX_PAYLOAD_LENGTH
	_DEFAULT_SEND_WINDOW = 4
)

// PacketConnection is a connection that send and receive length-prefixed packets
type PacketConnection struct {
	conn           Connection
	pendingLock    sync.Mutex
	pendingPackets []*Packet
	flushLock      sync.Mutex
}

// NewPacketConnection creates a packet connection based on network connection
func NewPacketConnection(conn Connection) *PacketConnection {
	pc := &PacketConnection{
		conn: conn,
	}
	return pc
}

// NewPacket allocates a new packet
func (pc *PacketConnection) NewPacket() *Packet {
	return allocPacket()
}

// SendPacket queues a packet to the connection; the packet goes to the wire
// on the next Flush
func (pc *PacketConnection) SendPacket(packet *Packet) error {
	if consts.DEBUG_PACKETS {
		mnlog.Debugf("%s SEND PACKET %p: payload=%d", pc, packet, packet.GetPayloadLen())
	}
	if packet.GetPayloadLen() > _MAX_PAYLOAD_LENGTH {
		mnlog.Panicf("%s: packet payload too large: %d", pc, packet.GetPayloadLen())
	}

	packet.AddRefCount(1)
	pc.pendingLock.Lock()
	pc.pendingPackets = append(pc.pendingPackets, packet)
	pc.pendingLock.Unlock()
	return nil
}

// Flush writes all pending packets to the underlying connection. Safe to
// call from multiple goroutines: flushLock serializes the write phase, and
// it is taken before the pending swap so concurrent flushes can not
// reorder packets on the wire
func (pc *PacketConnection) Flush(reason string) (err error) {
	pc.flushLock.Lock()
	defer pc.flushLock.Unlock()

	pc.pendingLock.Lock()
	if len(pc.pendingPackets) == 0 {
		pc.pendingLock.Unlock()
		return
	}
	packets := pc.pendingPackets
	pc.pendingPackets = make([]*Packet, 0, len(packets))
	pc.pendingLock.Unlock()

	op := opmon.StartOperation("FlushPackets-" + reason)
	defer op.Finish(time.Millisecond * 300)

	for _, packet := range packets {
		if err == nil {
			err = pc.writePacket(packet)
		}
		packet.Release()
	}
	if err != nil {
		return err
	}

	return pc.conn.Flush()
}

func (pc *PacketConnection) writePacket(packet *Packet) error {
	pdata := packet.data() // packet data with the size prefix
	return mnioutil.WriteAll(pc.conn, pdata)
}

// RecvPacket receives the next packet from the connection
func (pc *PacketConnection) RecvPacket() (*Packet, error) {
	var sizeBuf [_SIZE_FIELD_SIZE]byte
	err := mnioutil.ReadAll(pc.conn, sizeBuf[:])
	if err != nil {
		return nil, err
	}

	payloadLen := packetEndian.Uint32(sizeBuf[:])
	if payloadLen > _MAX_PAYLOAD_LENGTH {
		// bad packet size, the connection must be dropped
		return nil, errors.Errorf("message payload too large: %d", payloadLen)
	}

	packet := allocPacket()
	packet.AssureCapacity(payloadLen)
	err = mnioutil.ReadAll(pc.conn, packet.bytes[_PREPAYLOAD_SIZE:_PREPAYLOAD_SIZE+payloadLen])
	if err != nil {
		packet.Release()
		return nil, err
	}

	packet.SetPayloadLen(payloadLen)
	if consts.DEBUG_PACKETS {
		mnlog.Debugf("%s RECV PACKET %p: payload=%d", pc, packet, payloadLen)
	}
	return packet, nil
}

// Close closes the packet connection
func (pc *PacketConnection) Close() error {
	return pc.conn.Close()
}

// RemoteAddr returns the remote address
func (pc *PacketConnection) RemoteAddr() net.Addr {
	return pc.conn.RemoteAddr()
}

// LocalAddr returns the local address
func (pc *PacketConnection) LocalAddr() net.Addr {
	return pc.conn.LocalAddr()
}

func (pc *PacketConnection) String() string {
	return fmt.Sprintf("[%s >>> %s]", pc.LocalAddr(), pc.RemoteAddr())
}

// SetRecvDeadline sets the receive deadline
func (pc *PacketConnection) SetRecvDeadline(deadline time.Time) error {
	return pc.conn.SetReadDeadline(deadline)
}
