package main

import (
	"fmt"
	"net"

	"github.com/xiaonanln/netconnutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
)

// ShardProxy is the central server side of one map server connection
type ShardProxy struct {
	*proto.CoordConnection
	owner      *CentralService
	gameID     common.GameID
	listenAddr string
}

func newShardProxy(owner *CentralService, conn net.Conn) *ShardProxy {
	conn = netconnutil.NewNoTempErrorConn(conn)
	sp := &ShardProxy{
		owner: owner,
	}
	sp.CoordConnection = proto.NewCoordConnection(netconnutil.NewBufferedConn(conn, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE))
	sp.SetAutoFlush(true)
	return sp
}

func (sp *ShardProxy) String() string {
	return fmt.Sprintf("ShardProxy<%d|%s>", sp.gameID, sp.RemoteAddr())
}

func (sp *ShardProxy) serve() {
	defer func() {
		sp.Close()
		sp.owner.onShardDisconnected(sp)

		err := recover()
		if err != nil && !netutil.IsConnectionError(err) {
			mnlog.TraceError("%s paniced: %v", sp, err)
		}
	}()

	for {
		var msgType proto.MsgType
		pkt, err := sp.Recv(&msgType)
		if err != nil {
			mnlog.Panic(err)
		}

		sp.handleMsg(msgType, pkt)
		pkt.Release()
	}
}

func (sp *ShardProxy) handleMsg(msgType proto.MsgType, pkt *netutil.Packet) {
	if msgType != proto.MT_SET_GAME_ID && sp.gameID == 0 {
		mnlog.Panicf("%s: message %d before MT_SET_GAME_ID", sp, msgType)
	}

	if msgType == proto.MT_SET_GAME_ID {
		msg := &proto.SetGameIDMsg{}
		msg.ReadFromPacket(pkt)
		sp.owner.handleSetGameID(sp, msg)
	} else if msgType == proto.MT_REGISTER_SESSION {
		msg := &proto.RegisterSessionMsg{}
		msg.ReadFromPacket(pkt)
		sp.owner.handleRegisterSession(sp, msg)
	} else if msgType == proto.MT_UNREGISTER_SESSION {
		msg := &proto.UnregisterSessionMsg{}
		msg.ReadFromPacket(pkt)
		sp.owner.handleUnregisterSession(sp, msg)
	} else if msgType == proto.MT_REQUEST_FIND_ONLINE_USER {
		msg := &proto.RequestFindOnlineUserMsg{}
		msg.ReadFromPacket(pkt)
		sp.owner.handleFindOnlineUser(sp, msg)
	} else if msgType == proto.MT_REQUEST_FORCE_DESPAWN_CHARACTER {
		msg := &proto.RequestForceDespawnCharacterMsg{}
		msg.ReadFromPacket(pkt)
		sp.owner.handleForceDespawnCharacter(sp, msg)
	} else if msgType == proto.MT_UPDATE_SERVER_INFO {
		msg := &proto.UpdateServerInfoMsg{}
		msg.ReadFromPacket(pkt)
		sp.owner.handleUpdateServerInfo(sp, msg)
	} else if msgType == proto.MT_HEARTBEAT {
		sp.SendMsg(proto.MT_HEARTBEAT_ACK, &proto.HeartbeatMsg{})
	} else {
		mnlog.TraceError("%s: unknown msgtype %d", sp, msgType)
	}
}
