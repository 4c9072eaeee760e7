package main

import (
	"net"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
)

// testShard is the map server side of one pipe connection to the service
type testShard struct {
	conn *proto.CoordConnection
}

func connectTestShard(t *testing.T, service *CentralService, gameID common.GameID) *testShard {
	serverConn, clientConn := net.Pipe()
	go service.ServeTCPConnection(serverConn)

	shard := &testShard{conn: proto.NewCoordConnection(netutil.NetConn{Conn: clientConn})}
	shard.conn.SetAutoFlush(true)

	shard.send(t, proto.MT_SET_GAME_ID, &proto.SetGameIDMsg{GameID: gameID, ListenAddr: "127.0.0.1:0"})
	var ack proto.SetGameIDAckMsg
	shard.recv(t, proto.MT_SET_GAME_ID_ACK, &ack)
	assert.Equal(t, gameID, ack.GameID)
	return shard
}

func (shard *testShard) send(t *testing.T, msgType proto.MsgType, msg proto.Msg) {
	if err := shard.conn.SendMsg(msgType, msg); err != nil {
		t.Fatalf("send %d failed: %s", msgType, err)
	}
}

func (shard *testShard) recv(t *testing.T, expectType proto.MsgType, msg proto.Msg) {
	shard.conn.SetRecvDeadline(time.Now().Add(time.Second * 5))
	var msgType proto.MsgType
	pkt, err := shard.conn.Recv(&msgType)
	if err != nil {
		t.Fatalf("recv failed: %s", err)
	}
	defer pkt.Release()

	assert.Equal(t, expectType, msgType)
	msg.ReadFromPacket(pkt)
}

func (shard *testShard) register(t *testing.T, connID common.ConnectionID, userID common.UserID) proto.Status {
	shard.send(t, proto.MT_REGISTER_SESSION, &proto.RegisterSessionMsg{
		ConnectionID: connID,
		UserID:       userID,
		AccessToken:  "token-" + common.AccessToken(userID),
	})
	var ack proto.RegisterSessionAckMsg
	shard.recv(t, proto.MT_REGISTER_SESSION_ACK, &ack)
	assert.Equal(t, userID, ack.UserID)
	assert.Equal(t, connID, ack.ConnectionID)
	return ack.Status
}

func newTestService() *CentralService {
	return newCentralService(&config.CentralConfig{Ip: "127.0.0.1", Port: 40001})
}

func TestRegisterSessionAndDuplicate(t *testing.T) {
	service := newTestService()
	shard1 := connectTestShard(t, service, 1)
	shard2 := connectTestShard(t, service, 2)

	assert.Equal(t, proto.STATUS_OK, shard1.register(t, 7, "user-1"))
	assert.Equal(t, 1, service.directory.Len())

	// the same user from another shard is rejected, the old entry survives
	assert.Equal(t, proto.STATUS_DUPLICATE_SESSION, shard2.register(t, 8, "user-1"))
	entry, ok := service.directory.Find("user-1")
	assert.T(t, ok, "user should stay online")
	assert.Equal(t, common.GameID(1), entry.GameID)
}

func TestFindOnlineUser(t *testing.T) {
	service := newTestService()
	shard1 := connectTestShard(t, service, 1)
	shard2 := connectTestShard(t, service, 2)

	assert.Equal(t, proto.STATUS_OK, shard1.register(t, 7, "user-1"))

	shard2.send(t, proto.MT_REQUEST_FIND_ONLINE_USER, &proto.RequestFindOnlineUserMsg{ConnectionID: 9, UserID: "user-1"})
	var resp proto.ResponseFindOnlineUserMsg
	shard2.recv(t, proto.MT_RESPONSE_FIND_ONLINE_USER, &resp)
	assert.Equal(t, proto.STATUS_OK, resp.Status)
	assert.Equal(t, common.GameID(1), resp.OK.GameID)

	shard2.send(t, proto.MT_REQUEST_FIND_ONLINE_USER, &proto.RequestFindOnlineUserMsg{ConnectionID: 9, UserID: "nobody"})
	shard2.recv(t, proto.MT_RESPONSE_FIND_ONLINE_USER, &resp)
	assert.Equal(t, proto.STATUS_USER_NOT_FOUND, resp.Status)
	assert.T(t, resp.OK == nil, "no payload on failure")
}

func TestForceDespawnCharacter(t *testing.T) {
	service := newTestService()
	shard1 := connectTestShard(t, service, 1)

	assert.Equal(t, proto.STATUS_OK, shard1.register(t, 7, "user-42"))

	// the notify goes to the owning shard before the response
	shard1.send(t, proto.MT_REQUEST_FORCE_DESPAWN_CHARACTER, &proto.RequestForceDespawnCharacterMsg{ConnectionID: 7, UserID: "user-42"})
	var notify proto.NotifyDespawnCharacterMsg
	shard1.recv(t, proto.MT_NOTIFY_DESPAWN_CHARACTER, &notify)
	assert.Equal(t, common.UserID("user-42"), notify.UserID)
	var resp proto.ResponseForceDespawnCharacterMsg
	shard1.recv(t, proto.MT_RESPONSE_FORCE_DESPAWN_CHARACTER, &resp)
	assert.Equal(t, proto.STATUS_OK, resp.Status)
	assert.Equal(t, 0, service.directory.Len())

	// despawning an offline user still succeeds
	shard1.send(t, proto.MT_REQUEST_FORCE_DESPAWN_CHARACTER, &proto.RequestForceDespawnCharacterMsg{ConnectionID: 7, UserID: "user-42"})
	shard1.recv(t, proto.MT_RESPONSE_FORCE_DESPAWN_CHARACTER, &resp)
	assert.Equal(t, proto.STATUS_OK, resp.Status)
}

func TestUnregisterSession(t *testing.T) {
	service := newTestService()
	shard1 := connectTestShard(t, service, 1)

	assert.Equal(t, proto.STATUS_OK, shard1.register(t, 7, "user-1"))
	shard1.send(t, proto.MT_UNREGISTER_SESSION, &proto.UnregisterSessionMsg{ConnectionID: 7})

	deadline := time.Now().Add(time.Second * 5)
	for service.directory.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("directory entry not removed")
		}
		time.Sleep(time.Millisecond)
	}

	// the user can log in again after unregistering
	assert.Equal(t, proto.STATUS_OK, shard1.register(t, 8, "user-1"))
}
