package netutil

import (
	"net"
	"sync"
	"testing"

	"github.com/xiaonanln/netconnutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
)

// Two goroutines flushing one connection must not interleave packet bytes
// on the wire or reorder either sender's own packets.
func TestPacketConnectionConcurrentFlush(t *testing.T) {
	sendEnd, recvEnd := net.Pipe()
	defer recvEnd.Close()

	sender := NewPacketConnection(netconnutil.NewBufferedConn(sendEnd, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE))
	receiver := NewPacketConnection(NetConn{Conn: recvEnd})

	const packetsPerSender = 200
	const fillerLen = 3000

	var wg sync.WaitGroup
	for senderID := byte(1); senderID <= 2; senderID++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			for seq := uint32(0); seq < packetsPerSender; seq++ {
				pkt := NewPacket()
				pkt.AppendByte(id)
				pkt.AppendUint32(seq)
				for i := 0; i < fillerLen; i++ {
					pkt.AppendByte(id)
				}
				sender.SendPacket(pkt)
				pkt.Release()
				if err := sender.Flush("test"); err != nil {
					t.Errorf("sender %d: flush: %v", id, err)
					return
				}
			}
		}(senderID)
	}

	nextSeq := map[byte]uint32{}
	for i := 0; i < packetsPerSender*2; i++ {
		pkt, err := receiver.RecvPacket()
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if pkt.GetPayloadLen() != 1+4+fillerLen {
			t.Fatalf("packet %d: bad frame length %d", i, pkt.GetPayloadLen())
		}
		id := pkt.ReadOneByte()
		seq := pkt.ReadUint32()
		if seq != nextSeq[id] {
			t.Fatalf("sender %d: got seq %d, want %d", id, seq, nextSeq[id])
		}
		nextSeq[id] = seq + 1
		for _, b := range pkt.UnreadPayload() {
			if b != id {
				t.Fatalf("sender %d packet %d: interleaved byte %d", id, seq, b)
			}
		}
		pkt.Release()
	}
	wg.Wait()
	sendEnd.Close()
}
