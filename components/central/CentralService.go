package main

import (
	"fmt"
	"net"
	"sync"

	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/directory"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
)

// CentralService owns the online user directory and arbitrates cross-shard
// lookups and administrative despawns; one ShardProxy per connected map server
type CentralService struct {
	cfg       *config.CentralConfig
	directory *directory.Directory

	shardsLock sync.RWMutex
	shards     map[common.GameID]*ShardProxy

	serverInfosLock sync.Mutex
	serverInfos     map[common.GameID]proto.UpdateServerInfoMsg
}

func newCentralService(cfg *config.CentralConfig) *CentralService {
	return &CentralService{
		cfg:         cfg,
		directory:   directory.NewDirectory(),
		shards:      map[common.GameID]*ShardProxy{},
		serverInfos: map[common.GameID]proto.UpdateServerInfoMsg{},
	}
}

func (service *CentralService) String() string {
	return fmt.Sprintf("CentralService<shards=%d|online=%d>", service.numShards(), service.directory.Len())
}

func (service *CentralService) numShards() int {
	service.shardsLock.RLock()
	defer service.shardsLock.RUnlock()
	return len(service.shards)
}

func (service *CentralService) run() {
	ip := service.cfg.BindIp
	if ip == "" {
		ip = service.cfg.Ip
	}
	port := service.cfg.BindPort
	if port == 0 {
		port = service.cfg.Port
	}
	listenAddr := fmt.Sprintf("%s:%d", ip, port)
	netutil.ServeTCPForever(listenAddr, service)
}

// ServeTCPConnection handles one map server connection
func (service *CentralService) ServeTCPConnection(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetWriteBuffer(consts.SHARD_PROXY_WRITE_BUFFER_SIZE)
		tcpConn.SetReadBuffer(consts.SHARD_PROXY_READ_BUFFER_SIZE)
		tcpConn.SetNoDelay(true)
	}

	sp := newShardProxy(service, conn)
	sp.serve()
}

func (service *CentralService) onShardConnected(sp *ShardProxy) {
	service.shardsLock.Lock()
	old := service.shards[sp.gameID]
	service.shards[sp.gameID] = sp
	service.shardsLock.Unlock()

	if old != nil {
		// a reconnect displaces the stale proxy
		mnlog.Warnf("%s: map server %d reconnected, closing old connection %s", service, sp.gameID, old)
		old.Close()
	}
	mnlog.Infof("%s: map server %d connected from %s", service, sp.gameID, sp.RemoteAddr())
}

func (service *CentralService) onShardDisconnected(sp *ShardProxy) {
	if sp.gameID == 0 {
		return // never registered
	}

	service.shardsLock.Lock()
	if service.shards[sp.gameID] == sp {
		delete(service.shards, sp.gameID)
	}
	service.shardsLock.Unlock()

	service.serverInfosLock.Lock()
	delete(service.serverInfos, sp.gameID)
	service.serverInfosLock.Unlock()

	removed := service.directory.UnregisterShard(sp.gameID)
	mnlog.Infof("%s: map server %d disconnected, %d users unregistered", service, sp.gameID, len(removed))
}

func (service *CentralService) shardOf(gameID common.GameID) *ShardProxy {
	service.shardsLock.RLock()
	defer service.shardsLock.RUnlock()
	return service.shards[gameID]
}

func (service *CentralService) handleSetGameID(sp *ShardProxy, msg *proto.SetGameIDMsg) {
	if msg.GameID == 0 {
		mnlog.Panicf("%s: invalid map server id: %d", service, msg.GameID)
	}

	sp.gameID = msg.GameID
	sp.listenAddr = msg.ListenAddr
	service.onShardConnected(sp)
	sp.SendMsg(proto.MT_SET_GAME_ID_ACK, &proto.SetGameIDAckMsg{GameID: msg.GameID})
}

func (service *CentralService) handleRegisterSession(sp *ShardProxy, msg *proto.RegisterSessionMsg) {
	status := proto.STATUS_OK
	err := service.directory.RegisterSession(msg.UserID, msg.AccessToken, sp.gameID, msg.ConnectionID)
	if err == directory.ErrDuplicateSession {
		// the new login is rejected, the old session stays
		status = proto.STATUS_DUPLICATE_SESSION
	} else if err != nil {
		mnlog.Errorf("%s: register session of %s failed: %s", service, msg.UserID, err)
		status = proto.STATUS_UNKNOWN_ERROR
	}

	sp.SendMsg(proto.MT_REGISTER_SESSION_ACK, &proto.RegisterSessionAckMsg{
		ConnectionID: msg.ConnectionID,
		UserID:       msg.UserID,
		Status:       status,
	})
}

func (service *CentralService) handleUnregisterSession(sp *ShardProxy, msg *proto.UnregisterSessionMsg) {
	entry, ok := service.directory.UnregisterConnection(sp.gameID, msg.ConnectionID)
	if ok {
		mnlog.Debugf("%s: user %s unregistered from map server %d", service, entry.UserID, sp.gameID)
	}
}

func (service *CentralService) handleFindOnlineUser(sp *ShardProxy, msg *proto.RequestFindOnlineUserMsg) {
	resp := &proto.ResponseFindOnlineUserMsg{
		ConnectionID: msg.ConnectionID,
		UserID:       msg.UserID,
	}
	if entry, ok := service.directory.Find(msg.UserID); ok {
		resp.Status = proto.STATUS_OK
		resp.OK = &proto.FindOnlineUserOK{GameID: entry.GameID}
	} else {
		resp.Status = proto.STATUS_USER_NOT_FOUND
	}
	sp.SendMsg(proto.MT_RESPONSE_FIND_ONLINE_USER, resp)
}

func (service *CentralService) handleForceDespawnCharacter(sp *ShardProxy, msg *proto.RequestForceDespawnCharacterMsg) {
	// despawning an offline user succeeds, the operation is idempotent
	entry, ok := service.directory.Remove(msg.UserID)
	if ok {
		if owner := service.shardOf(entry.GameID); owner != nil {
			owner.SendMsg(proto.MT_NOTIFY_DESPAWN_CHARACTER, &proto.NotifyDespawnCharacterMsg{UserID: msg.UserID})
		}
		mnlog.Infof("%s: force despawn %s on map server %d", service, msg.UserID, entry.GameID)
	}

	sp.SendMsg(proto.MT_RESPONSE_FORCE_DESPAWN_CHARACTER, &proto.ResponseForceDespawnCharacterMsg{
		ConnectionID: msg.ConnectionID,
		UserID:       msg.UserID,
		Status:       proto.STATUS_OK,
	})
}

func (service *CentralService) handleUpdateServerInfo(sp *ShardProxy, msg *proto.UpdateServerInfoMsg) {
	service.serverInfosLock.Lock()
	service.serverInfos[sp.gameID] = *msg
	service.serverInfosLock.Unlock()
}
