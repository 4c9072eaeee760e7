package main

import (
	"fmt"
	"net"

	"github.com/xiaonanln/netconnutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
)

// GameProxy is the database service side of one map server connection
type GameProxy struct {
	*proto.CoordConnection
	owner *DBService
}

func newGameProxy(owner *DBService, conn net.Conn) *GameProxy {
	conn = netconnutil.NewNoTempErrorConn(conn)
	gp := &GameProxy{
		owner: owner,
	}
	gp.CoordConnection = proto.NewCoordConnection(netconnutil.NewBufferedConn(conn, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE))
	gp.SetAutoFlush(true)
	return gp
}

func (gp *GameProxy) String() string {
	return fmt.Sprintf("GameProxy<%s>", gp.RemoteAddr())
}

func (gp *GameProxy) serve() {
	defer func() {
		gp.Close()

		err := recover()
		if err != nil && !netutil.IsConnectionError(err) {
			mnlog.TraceError("%s paniced: %v", gp, err)
		}
	}()

	for {
		var msgType proto.MsgType
		pkt, err := gp.Recv(&msgType)
		if err != nil {
			mnlog.Panic(err)
		}

		gp.handleMsg(msgType, pkt)
		pkt.Release()
	}
}

func (gp *GameProxy) handleMsg(msgType proto.MsgType, pkt *netutil.Packet) {
	if msgType == proto.MT_REQUEST_RESERVE_STORAGE {
		msg := &proto.RequestReserveStorageMsg{}
		msg.ReadFromPacket(pkt)
		gp.owner.handleReserveStorage(gp, msg)
	} else if msgType == proto.MT_REQUEST_RENEW_STORAGE {
		msg := &proto.RequestRenewStorageMsg{}
		msg.ReadFromPacket(pkt)
		gp.owner.handleRenewStorage(gp, msg)
	} else if msgType == proto.MT_REQUEST_RELEASE_STORAGE {
		msg := &proto.RequestReleaseStorageMsg{}
		msg.ReadFromPacket(pkt)
		gp.owner.handleReleaseStorage(gp, msg)
	} else if msgType == proto.MT_REQUEST_COMMIT_STORAGE_ITEMS {
		msg := &proto.RequestCommitStorageItemsMsg{}
		msg.ReadFromPacket(pkt)
		gp.owner.handleCommitStorageItems(gp, msg)
	} else if msgType == proto.MT_RELEASE_STORAGES_OF_HOLDER {
		msg := &proto.ReleaseStoragesOfHolderMsg{}
		msg.ReadFromPacket(pkt)
		gp.owner.handleReleaseStoragesOfHolder(gp, msg)
	} else if msgType == proto.MT_HEARTBEAT {
		gp.SendMsg(proto.MT_HEARTBEAT_ACK, &proto.HeartbeatMsg{})
	} else {
		mnlog.TraceError("%s: unknown msgtype %d", gp, msgType)
	}
}
