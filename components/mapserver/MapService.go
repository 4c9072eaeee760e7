package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	timer "github.com/xiaonanln/goTimer"
	"github.com/xiaonanln/netconnutil"
	maplbc "github.com/xnitro1/MMONewTest-sub013/components/mapserver/lbc"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/moderation"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/post"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage"
	"github.com/xnitro1/MMONewTest-sub013/engine/uuid"
)

type packetQueueItem struct {
	session *Session // nil for packets from the central server or the database service
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// MapService is one world shard; it owns the client sessions of the shard
// and speaks to the central server and the database service upstream. All
// shared state is touched from the service main routine only.
type MapService struct {
	id  common.GameID
	cfg *config.MapServerConfig

	centralConn *proto.CoordConnection
	dbConn      *proto.CoordConnection

	packetQueue      chan packetQueueItem
	nextConnectionID uint32

	sessions       map[common.ConnectionID]*Session
	sessionsByUser map[common.UserID]*Session

	moderation *moderation.Dispatcher
	records    *storage.Storage

	startTime  time.Time
	cpuPercent float64
}

func newMapService(id common.GameID, cfg *config.MapServerConfig, checker moderation.Checker, records *storage.Storage) *MapService {
	return &MapService{
		id:             id,
		cfg:            cfg,
		packetQueue:    make(chan packetQueueItem, consts.MAP_SERVICE_PACKET_QUEUE_SIZE),
		sessions:       map[common.ConnectionID]*Session{},
		sessionsByUser: map[common.UserID]*Session{},
		moderation:     moderation.NewDispatcher(checker),
		records:        records,
		startTime:      time.Now(),
	}
}

func (service *MapService) String() string {
	return fmt.Sprintf("MapService<%d|%s>", service.id, service.cfg.MapName)
}

func (service *MapService) listenAddr() string {
	return fmt.Sprintf("%s:%d", service.cfg.Ip, service.cfg.Port)
}

func (service *MapService) holderOf(connID common.ConnectionID) string {
	return fmt.Sprintf("map%d/conn%d", service.id, connID)
}

func (service *MapService) run() {
	service.connectUpstreams()

	go netutil.ServeTCPForever(service.listenAddr(), service)
	if service.cfg.ListenKCP {
		go netutil.ServeKCPForever(service.listenAddr(), service)
	}

	maplbc.Initialize(context.Background(), consts.MAP_CPU_COLLECT_INTERVAL, func(cpuPercent float64) {
		post.Post(func() {
			service.cpuPercent = cpuPercent
			service.reportServerInfo()
		})
	})

	service.setupTimers()
	service.serveRoutine()
}

func (service *MapService) connectUpstreams() {
	centralConfig := config.GetCentral()
	conn, err := netutil.ConnectTCP(centralConfig.Ip, centralConfig.Port)
	if err != nil {
		mnlog.Fatalf("%s: connect to central server failed: %s", service, err)
	}
	service.setCentralConn(conn)

	dbConfig := config.GetDBService()
	conn, err = netutil.ConnectTCP(dbConfig.Ip, dbConfig.Port)
	if err != nil {
		mnlog.Fatalf("%s: connect to database service failed: %s", service, err)
	}
	service.setDBConn(conn)
}

func (service *MapService) setCentralConn(conn net.Conn) {
	service.centralConn = service.newUpstreamConn(conn)
	service.centralConn.SendMsg(proto.MT_SET_GAME_ID, &proto.SetGameIDMsg{
		GameID:     service.id,
		ListenAddr: service.listenAddr(),
	})
	go service.recvUpstreamRoutine(service.centralConn, "central server")
}

func (service *MapService) setDBConn(conn net.Conn) {
	service.dbConn = service.newUpstreamConn(conn)
	go service.recvUpstreamRoutine(service.dbConn, "database service")
}

func (service *MapService) newUpstreamConn(conn net.Conn) *proto.CoordConnection {
	conn = netconnutil.NewNoTempErrorConn(conn)
	cc := proto.NewCoordConnection(netconnutil.NewBufferedConn(conn, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE))
	cc.SetAutoFlush(true)
	return cc
}

// recvUpstreamRoutine pushes upstream packets into the service packet
// queue; a shard can not serve without its upstreams, so losing one is fatal
func (service *MapService) recvUpstreamRoutine(cc *proto.CoordConnection, what string) {
	for {
		var msgType proto.MsgType
		pkt, err := cc.Recv(&msgType)
		if err != nil {
			mnlog.Fatalf("%s: connection to %s lost: %s", service, what, err)
		}

		service.packetQueue <- packetQueueItem{msgtype: msgType, packet: pkt}
	}
}

func (service *MapService) setupTimers() {
	timer.AddTimer(time.Duration(service.cfg.TimeOfDaySyncIntervalMS)*time.Millisecond, service.broadcastTimeOfDay)
	timer.AddTimer(time.Duration(service.cfg.PositionSyncIntervalMS)*time.Millisecond, service.broadcastTransforms)
	timer.AddTimer(consts.SESSION_STORAGE_RENEW_INTERVAL, service.renewHeldStorages)
	if service.cfg.HeartbeatCheckInterval > 0 {
		timer.AddTimer(time.Duration(service.cfg.HeartbeatCheckInterval)*time.Second, service.checkSessionHeartbeats)
	}
}

// serveRoutine is the main routine of the map server
func (service *MapService) serveRoutine() {
	ticker := time.Tick(consts.MAP_SERVICE_TICK_INTERVAL)
	for {
		select {
		case item := <-service.packetQueue:
			if item.session != nil {
				service.handleSessionMsg(item.session, item.msgtype, item.packet)
			} else {
				service.handleUpstreamMsg(item.msgtype, item.packet)
			}
			item.packet.Release()
		case <-ticker:
			timer.Tick()
		}

		post.Tick()
	}
}

// ServeTCPConnection handles one client connection
func (service *MapService) ServeTCPConnection(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetWriteBuffer(consts.SESSION_WRITE_BUFFER_SIZE)
		tcpConn.SetReadBuffer(consts.SESSION_READ_BUFFER_SIZE)
		tcpConn.SetNoDelay(consts.SESSION_SET_TCP_NO_DELAY)
	}

	connID := common.ConnectionID(atomic.AddUint32(&service.nextConnectionID, 1))
	session := newSession(service, connID, conn)
	post.Post(func() {
		service.sessions[connID] = session
	})
	session.serve()
}

func (service *MapService) onSessionDisconnected(session *Session) {
	if session.state.Load() == ssClosed {
		return
	}
	session.state.Store(ssClosed)

	if service.sessions[session.connID] == session {
		delete(service.sessions, session.connID)
	}
	if session.userID != "" && service.sessionsByUser[session.userID] == session {
		delete(service.sessionsByUser, session.userID)
	}

	if session.userID != "" {
		service.moderation.Cancel(session.holder())
		service.dbConn.SendMsg(proto.MT_RELEASE_STORAGES_OF_HOLDER, &proto.ReleaseStoragesOfHolderMsg{Holder: session.holder()})
		service.centralConn.SendMsg(proto.MT_UNREGISTER_SESSION, &proto.UnregisterSessionMsg{ConnectionID: session.connID})
	}
	mnlog.Debugf("%s: %s disconnected", service, session)
}

func (service *MapService) closeSession(session *Session) {
	if session.state.Load() >= ssClosing {
		return
	}
	session.state.Store(ssClosing)
	session.Close() // the serve goroutine posts onSessionDisconnected
}

func (service *MapService) broadcastToActive(msgType proto.MsgType, msg proto.Msg) {
	for _, session := range service.sessions {
		if session.state.Load() == ssActive {
			session.SendMsg(msgType, msg)
		}
	}
}

func (service *MapService) timeOfDay() float32 {
	dayLen := consts.GAME_DAY_DURATION.Seconds()
	dayFrac := math.Mod(time.Since(service.startTime).Seconds(), dayLen) / dayLen
	return float32(dayFrac * 24)
}

func (service *MapService) broadcastTimeOfDay() {
	service.broadcastToActive(proto.MT_UPDATE_TIME_OF_DAY, &proto.UpdateTimeOfDayMsg{TimeOfDay: service.timeOfDay()})
}

func (service *MapService) broadcastTransforms() {
	for _, src := range service.sessions {
		if src.state.Load() != ssActive || !src.hasTransform {
			continue
		}
		msg := &proto.UpdatePlayerCharacterTransformMsg{
			UserID:   src.userID,
			Position: src.position,
			Rotation: src.rotation,
		}
		for _, dst := range service.sessions {
			if dst != src && dst.state.Load() == ssActive {
				dst.SendMsg(proto.MT_UPDATE_PLAYER_CHARACTER_TRANSFORM, msg)
			}
		}
	}
}

func (service *MapService) renewHeldStorages() {
	for _, session := range service.sessions {
		if session.state.Load() != ssActive {
			continue
		}
		for storageID := range session.openStorages {
			service.dbConn.SendMsg(proto.MT_REQUEST_RENEW_STORAGE, &proto.RequestRenewStorageMsg{
				ConnectionID: session.connID,
				StorageID:    storageID,
				Holder:       session.holder(),
			})
		}
	}
}

func (service *MapService) checkSessionHeartbeats() {
	// closing mutates the sessions map, collect first
	var stale []*Session
	now := time.Now()
	for _, session := range service.sessions {
		if now.Sub(session.lastHeartbeat) > consts.SESSION_HEARTBEAT_TIMEOUT {
			stale = append(stale, session)
		}
	}
	for _, session := range stale {
		mnlog.Warnf("%s: %s heartbeat timeout, closing", service, session)
		service.closeSession(session)
	}
}

func (service *MapService) reportServerInfo() {
	service.centralConn.SendMsg(proto.MT_UPDATE_SERVER_INFO, &proto.UpdateServerInfoMsg{
		ChannelID:          service.cfg.ChannelID,
		ChannelTitle:       service.cfg.ChannelTitle,
		ChannelDescription: service.cfg.ChannelDescription,
		CPUPercent:         service.cpuPercent,
	})
}

func (service *MapService) handleUpstreamMsg(msgType proto.MsgType, pkt *netutil.Packet) {
	if msgType == proto.MT_SET_GAME_ID_ACK {
		msg := &proto.SetGameIDAckMsg{}
		msg.ReadFromPacket(pkt)
		mnlog.Infof("%s: registered on central server as map server %d", service, msg.GameID)
	} else if msgType == proto.MT_REGISTER_SESSION_ACK {
		msg := &proto.RegisterSessionAckMsg{}
		msg.ReadFromPacket(pkt)
		service.handleRegisterSessionAck(msg)
	} else if msgType == proto.MT_NOTIFY_DESPAWN_CHARACTER {
		msg := &proto.NotifyDespawnCharacterMsg{}
		msg.ReadFromPacket(pkt)
		service.handleNotifyDespawnCharacter(msg)
	} else if msgType == proto.MT_RESPONSE_RESERVE_STORAGE {
		msg := &proto.ResponseReserveStorageMsg{}
		msg.ReadFromPacket(pkt)
		service.handleReserveStorageResponse(msg)
	} else if msgType == proto.MT_RESPONSE_RENEW_STORAGE {
		msg := &proto.ResponseRenewStorageMsg{}
		msg.ReadFromPacket(pkt)
		service.handleRenewStorageResponse(msg)
	} else if msgType == proto.MT_RESPONSE_COMMIT_STORAGE_ITEMS {
		msg := &proto.ResponseCommitStorageItemsMsg{}
		msg.ReadFromPacket(pkt)
		if !msg.Status.IsOK() {
			mnlog.Warnf("%s: commit of %s rejected: %s", service, msg.StorageID, msg.Status)
		}
	} else if msgType == proto.MT_HEARTBEAT_ACK {
		// upstream is alive, nothing to do
	} else {
		mnlog.TraceError("%s: unknown upstream msgtype %d", service, msgType)
	}
}

func (service *MapService) handleSessionMsg(session *Session, msgType proto.MsgType, pkt *netutil.Packet) {
	session.lastHeartbeat = time.Now()

	if msgType == proto.MT_HEARTBEAT {
		session.SendMsg(proto.MT_HEARTBEAT_ACK, &proto.HeartbeatMsg{})
		return
	}

	if msgType == proto.MT_REQUEST_AUTH {
		msg := &proto.RequestAuthMsg{}
		msg.ReadFromPacket(pkt)
		service.handleRequestAuth(session, msg)
		return
	}

	if session.state.Load() != ssActive {
		mnlog.Debugf("%s: %s sent msgtype %d before authentication, dropped", service, session, msgType)
		return
	}

	if msgType == proto.MT_REQUEST_OPEN_STORAGE {
		msg := &proto.RequestOpenStorageMsg{}
		msg.ReadFromPacket(pkt)
		service.handleOpenStorage(session, msg)
	} else if msgType == proto.MT_REQUEST_CLOSE_STORAGE {
		msg := &proto.RequestCloseStorageMsg{}
		msg.ReadFromPacket(pkt)
		service.handleCloseStorage(session, msg)
	} else if msgType == proto.MT_UPDATE_STORAGE_ITEMS {
		msg := &proto.UpdateStorageItemsMsg{}
		msg.ReadFromPacket(pkt)
		service.handleUpdateStorageItems(session, msg)
	} else if msgType == proto.MT_SUBMIT_CHAT_MESSAGE {
		msg := &proto.SubmitChatMessageMsg{}
		msg.ReadFromPacket(pkt)
		service.handleSubmitChatMessage(session, msg)
	} else if msgType == proto.MT_REQUEST_MAIL_NOTIFICATION {
		service.handleMailNotification(session)
	} else if msgType == proto.MT_REQUEST_READ_MAIL {
		msg := &proto.RequestReadMailMsg{}
		msg.ReadFromPacket(pkt)
		service.handleReadMail(session, msg)
	} else if msgType == proto.MT_REQUEST_GACHA_INFO {
		service.handleGachaInfo(session)
	} else if msgType == proto.MT_REQUEST_OPEN_GACHA {
		msg := &proto.RequestOpenGachaMsg{}
		msg.ReadFromPacket(pkt)
		service.handleOpenGacha(session, msg)
	} else if msgType == proto.MT_REQUEST_AVAILABLE_FRAMES {
		service.handleAvailableFrames(session)
	} else if msgType == proto.MT_REQUEST_AVAILABLE_ICONS {
		service.handleAvailableIcons(session)
	} else if msgType == proto.MT_UPDATE_CHARACTER_TRANSFORM {
		msg := &proto.UpdateCharacterTransformMsg{}
		msg.ReadFromPacket(pkt)
		session.position = msg.Position
		session.rotation = msg.Rotation
		session.hasTransform = true
	} else if msgType == proto.MT_REQUEST_PLAYER_CHARACTER_TRANSFORM {
		msg := &proto.RequestPlayerCharacterTransformMsg{}
		msg.ReadFromPacket(pkt)
		service.handlePlayerCharacterTransform(session, msg)
	} else {
		mnlog.TraceError("%s: %s sent unknown msgtype %d", service, session, msgType)
	}
}

func (service *MapService) handleRequestAuth(session *Session, msg *proto.RequestAuthMsg) {
	if session.state.Load() != ssConnecting {
		mnlog.Debugf("%s: %s repeated auth request, dropped", service, session)
		return
	}

	if msg.UserID.IsNil() || msg.AccessToken.IsNil() {
		session.SendMsg(proto.MT_RESPONSE_AUTH, &proto.ResponseAuthMsg{Status: proto.STATUS_AUTH_FAILED})
		service.closeSession(session)
		return
	}

	session.userID = msg.UserID
	session.accessToken = msg.AccessToken
	session.state.Store(ssAuthenticating)
	service.centralConn.SendMsg(proto.MT_REGISTER_SESSION, &proto.RegisterSessionMsg{
		ConnectionID: session.connID,
		UserID:       msg.UserID,
		AccessToken:  msg.AccessToken,
	})
}

func (service *MapService) handleRegisterSessionAck(msg *proto.RegisterSessionAckMsg) {
	session := service.sessions[msg.ConnectionID]
	if session == nil || session.state.Load() != ssAuthenticating {
		if msg.Status.IsOK() {
			// the session is gone, undo the directory entry
			service.centralConn.SendMsg(proto.MT_UNREGISTER_SESSION, &proto.UnregisterSessionMsg{ConnectionID: msg.ConnectionID})
		}
		return
	}

	if !msg.Status.IsOK() {
		session.SendMsg(proto.MT_RESPONSE_AUTH, &proto.ResponseAuthMsg{Status: msg.Status})
		service.closeSession(session)
		return
	}

	session.state.Store(ssActive)
	service.sessionsByUser[session.userID] = session
	mnlog.Infof("%s: %s authenticated", service, session)

	session.SendMsg(proto.MT_RESPONSE_AUTH, &proto.ResponseAuthMsg{Status: proto.STATUS_OK})
	session.SendMsg(proto.MT_UPDATE_MAP_INFO, &proto.UpdateMapInfoMsg{
		MapName:   service.cfg.MapName,
		ClassName: service.cfg.ClassName,
	})
	session.SendMsg(proto.MT_UPDATE_SERVER_INFO, &proto.UpdateServerInfoMsg{
		ChannelID:          service.cfg.ChannelID,
		ChannelTitle:       service.cfg.ChannelTitle,
		ChannelDescription: service.cfg.ChannelDescription,
		CPUPercent:         service.cpuPercent,
	})
	session.SendMsg(proto.MT_UPDATE_TIME_OF_DAY, &proto.UpdateTimeOfDayMsg{TimeOfDay: service.timeOfDay()})
}

func (service *MapService) handleNotifyDespawnCharacter(msg *proto.NotifyDespawnCharacterMsg) {
	session := service.sessionsByUser[msg.UserID]
	if session == nil {
		return
	}
	mnlog.Infof("%s: force despawn of %s, closing %s", service, msg.UserID, session)
	service.closeSession(session)
}

func (service *MapService) handleOpenStorage(session *Session, msg *proto.RequestOpenStorageMsg) {
	if !msg.StorageType.IsValid() {
		session.SendMsg(proto.MT_RESPONSE_OPEN_STORAGE, &proto.ResponseOpenStorageMsg{Status: proto.STATUS_INVALID_STORAGE_TYPE})
		return
	}

	ownerID := msg.OwnerID
	if ownerID == "" {
		// own player storage
		ownerID = string(session.userID)
	}

	service.dbConn.SendMsg(proto.MT_REQUEST_RESERVE_STORAGE, &proto.RequestReserveStorageMsg{
		ConnectionID: session.connID,
		StorageID:    common.StorageID{Type: msg.StorageType, OwnerID: ownerID},
		Holder:       session.holder(),
	})
}

func (service *MapService) handleReserveStorageResponse(msg *proto.ResponseReserveStorageMsg) {
	session := service.sessions[msg.ConnectionID]
	if session == nil || session.state.Load() != ssActive {
		if msg.Status.IsOK() {
			// granted to a session that is already gone, give it back
			service.dbConn.SendMsg(proto.MT_REQUEST_RELEASE_STORAGE, &proto.RequestReleaseStorageMsg{
				StorageID: msg.StorageID,
				Holder:    service.holderOf(msg.ConnectionID),
			})
		}
		return
	}

	resp := &proto.ResponseOpenStorageMsg{Status: msg.Status}
	if msg.Status.IsOK() {
		session.openStorages[msg.StorageID] = true
		resp.OK = &proto.OpenStorageOK{
			StorageID: msg.StorageID,
			Items:     msg.OK.Items,
		}
	}
	session.SendMsg(proto.MT_RESPONSE_OPEN_STORAGE, resp)
}

func (service *MapService) handleCloseStorage(session *Session, msg *proto.RequestCloseStorageMsg) {
	if !session.openStorages[msg.StorageID] {
		// closing a storage the session never opened is a no-op
		return
	}
	delete(session.openStorages, msg.StorageID)
	service.dbConn.SendMsg(proto.MT_REQUEST_RELEASE_STORAGE, &proto.RequestReleaseStorageMsg{
		StorageID: msg.StorageID,
		Holder:    session.holder(),
	})
}

func (service *MapService) handleUpdateStorageItems(session *Session, msg *proto.UpdateStorageItemsMsg) {
	storageID := common.StorageID{Type: msg.StorageType, OwnerID: msg.StorageOwnerID}
	service.dbConn.SendMsg(proto.MT_REQUEST_COMMIT_STORAGE_ITEMS, &proto.RequestCommitStorageItemsMsg{
		ConnectionID:      session.connID,
		StorageID:         storageID,
		Holder:            session.holder(),
		Items:             msg.Items,
		DeleteReservation: msg.DeleteReservation,
	})
	if msg.DeleteReservation {
		delete(session.openStorages, storageID)
	}
}

func (service *MapService) handleRenewStorageResponse(msg *proto.ResponseRenewStorageMsg) {
	if msg.Status.IsOK() {
		return
	}
	session := service.sessions[msg.ConnectionID]
	if session != nil {
		// the lease is lost, stop renewing it
		mnlog.Warnf("%s: %s lost reservation of %s", service, session, msg.StorageID)
		delete(session.openStorages, msg.StorageID)
	}
}

func (service *MapService) handleSubmitChatMessage(session *Session, msg *proto.SubmitChatMessageMsg) {
	if time.Now().Before(session.mutedUntil) {
		mnlog.Debugf("%s: %s is muted, chat message rejected", service, session)
		session.SendMsg(proto.MT_REJECT_CHAT_MESSAGE, &proto.RejectChatMessageMsg{Status: proto.STATUS_MUTED})
		return
	}

	service.moderation.Submit(session.holder(), msg.Text, func(res moderation.Result) {
		if service.sessions[session.connID] != session || session.state.Load() != ssActive {
			return
		}

		service.broadcastToActive(proto.MT_NOTIFY_CHAT_MESSAGE, &proto.NotifyChatMessageMsg{
			SenderID:   session.userID,
			SenderName: string(session.userID),
			Text:       res.Message,
		})
		if res.ShouldMutePlayer {
			session.mutedUntil = time.Now().Add(time.Duration(res.MuteMinutes) * time.Minute)
			mnlog.Infof("%s: %s muted for %d minutes", service, session, res.MuteMinutes)
		}
		if res.ShouldKickPlayer {
			mnlog.Warnf("%s: kicking %s for banned chat", service, session)
			service.closeSession(session)
		}
	})
}

func (service *MapService) handleMailNotification(session *Session) {
	service.records.LoadMailbox(session.userID, func(mails []common.Mail, err error) {
		if session.state.Load() != ssActive {
			return
		}
		if err != nil {
			session.SendMsg(proto.MT_RESPONSE_MAIL_NOTIFICATION, &proto.ResponseMailNotificationMsg{Status: proto.STATUS_UNKNOWN_ERROR})
			return
		}

		var unread int32
		for _, mail := range mails {
			if !mail.IsRead {
				unread++
			}
		}
		session.SendMsg(proto.MT_RESPONSE_MAIL_NOTIFICATION, &proto.ResponseMailNotificationMsg{
			Status: proto.STATUS_OK,
			OK:     &proto.MailNotificationOK{NotificationCount: unread},
		})
	})
}

func (service *MapService) handleReadMail(session *Session, msg *proto.RequestReadMailMsg) {
	userID := session.userID
	service.records.LoadMailbox(userID, func(mails []common.Mail, err error) {
		if session.state.Load() != ssActive {
			return
		}
		if err != nil {
			session.SendMsg(proto.MT_RESPONSE_READ_MAIL, &proto.ResponseReadMailMsg{Status: proto.STATUS_UNKNOWN_ERROR})
			return
		}

		for i := range mails {
			if mails[i].ID != msg.MailID {
				continue
			}
			if !mails[i].IsRead {
				mails[i].IsRead = true
				mails[i].ReadAt = time.Now().Unix()
				service.records.SaveMailbox(userID, mails, nil)
			}
			session.SendMsg(proto.MT_RESPONSE_READ_MAIL, &proto.ResponseReadMailMsg{
				Status: proto.STATUS_OK,
				OK:     &proto.ReadMailOK{Mail: mails[i]},
			})
			return
		}
		session.SendMsg(proto.MT_RESPONSE_READ_MAIL, &proto.ResponseReadMailMsg{Status: proto.STATUS_NOT_FOUND})
	})
}

func (service *MapService) handleGachaInfo(session *Session) {
	service.records.Load(storage.KindGacha, string(session.userID), func(data interface{}, err error) {
		if session.state.Load() != ssActive {
			return
		}
		if err != nil {
			session.SendMsg(proto.MT_RESPONSE_GACHA_INFO, &proto.ResponseGachaInfoMsg{Status: proto.STATUS_UNKNOWN_ERROR})
			return
		}

		// a missing record is a fresh account with no gacha machines
		info, _ := storage.RecordToGachaInfo(data)
		session.SendMsg(proto.MT_RESPONSE_GACHA_INFO, &proto.ResponseGachaInfoMsg{
			Status: proto.STATUS_OK,
			OK:     &proto.GachaInfoOK{Cash: info.Cash, GachaIDs: info.GachaIDs},
		})
	})
}

func (service *MapService) handleOpenGacha(session *Session, msg *proto.RequestOpenGachaMsg) {
	service.records.Load(storage.KindGacha, string(session.userID), func(data interface{}, err error) {
		if session.state.Load() != ssActive {
			return
		}
		if err != nil {
			session.SendMsg(proto.MT_RESPONSE_OPEN_GACHA, &proto.ResponseOpenGachaMsg{Status: proto.STATUS_UNKNOWN_ERROR})
			return
		}

		info, _ := storage.RecordToGachaInfo(data)
		owned := false
		for _, id := range info.GachaIDs {
			if id == msg.DataID {
				owned = true
				break
			}
		}
		if !owned {
			session.SendMsg(proto.MT_RESPONSE_OPEN_GACHA, &proto.ResponseOpenGachaMsg{Status: proto.STATUS_NOT_FOUND})
			return
		}

		reward := common.CharacterItem{
			ID:         uuid.GenUUID(),
			DataID:     msg.DataID,
			Amount:     1,
			RandomSeed: rand.Int31(),
		}
		session.SendMsg(proto.MT_RESPONSE_OPEN_GACHA, &proto.ResponseOpenGachaMsg{
			Status: proto.STATUS_OK,
			OK:     &proto.OpenGachaOK{DataID: msg.DataID, RewardItems: []common.CharacterItem{reward}},
		})
	})
}

func (service *MapService) handleAvailableFrames(session *Session) {
	service.records.Load(storage.KindCharacter, string(session.userID), func(data interface{}, err error) {
		if session.state.Load() != ssActive {
			return
		}
		resp := &proto.ResponseAvailableFramesMsg{Status: proto.STATUS_OK}
		if err != nil {
			resp.Status = proto.STATUS_UNKNOWN_ERROR
		} else if app, ok := storage.RecordToAppearance(data); ok {
			resp.FrameIDs = app.FrameIDs
		}
		session.SendMsg(proto.MT_RESPONSE_AVAILABLE_FRAMES, resp)
	})
}

func (service *MapService) handleAvailableIcons(session *Session) {
	service.records.Load(storage.KindCharacter, string(session.userID), func(data interface{}, err error) {
		if session.state.Load() != ssActive {
			return
		}
		resp := &proto.ResponseAvailableIconsMsg{Status: proto.STATUS_OK}
		if err != nil {
			resp.Status = proto.STATUS_UNKNOWN_ERROR
		} else if app, ok := storage.RecordToAppearance(data); ok {
			resp.IconIDs = app.IconIDs
		}
		session.SendMsg(proto.MT_RESPONSE_AVAILABLE_ICONS, resp)
	})
}

func (service *MapService) handlePlayerCharacterTransform(session *Session, msg *proto.RequestPlayerCharacterTransformMsg) {
	target := service.sessionsByUser[msg.UserID]
	if target == nil || !target.hasTransform {
		session.SendMsg(proto.MT_RESPONSE_PLAYER_CHARACTER_TRANSFORM, &proto.ResponsePlayerCharacterTransformMsg{Status: proto.STATUS_USER_NOT_FOUND})
		return
	}
	session.SendMsg(proto.MT_RESPONSE_PLAYER_CHARACTER_TRANSFORM, &proto.ResponsePlayerCharacterTransformMsg{
		Status:   proto.STATUS_OK,
		Position: target.position,
		Rotation: target.rotation,
	})
}
