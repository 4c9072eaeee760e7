package main

import (
	"io/ioutil"
	"net"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/moderation"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/post"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage"
)

type recvItem struct {
	msgType proto.MsgType
	pkt     *netutil.Packet
}

// testUpstream stands in for the central server or the database service
type testUpstream struct {
	conn *proto.CoordConnection
	msgs chan recvItem
}

func newTestUpstream(conn net.Conn) *testUpstream {
	up := &testUpstream{
		conn: proto.NewCoordConnection(netutil.NetConn{Conn: conn}),
		msgs: make(chan recvItem, 64),
	}
	up.conn.SetAutoFlush(true)
	go func() {
		defer close(up.msgs)
		for {
			var msgType proto.MsgType
			pkt, err := up.conn.Recv(&msgType)
			if err != nil {
				return
			}
			up.msgs <- recvItem{msgType, pkt}
		}
	}()
	return up
}

func (up *testUpstream) expect(t *testing.T, expectType proto.MsgType, msg proto.Msg) {
	t.Helper()
	select {
	case item, ok := <-up.msgs:
		if !ok {
			t.Fatalf("upstream connection closed while expecting msgtype %d", expectType)
		}
		assert.Equal(t, expectType, item.msgType)
		msg.ReadFromPacket(item.pkt)
		item.pkt.Release()
	case <-time.After(time.Second * 5):
		t.Fatalf("timeout expecting msgtype %d from map server", expectType)
	}
}

func (up *testUpstream) send(t *testing.T, msgType proto.MsgType, msg proto.Msg) {
	t.Helper()
	if err := up.conn.SendMsg(msgType, msg); err != nil {
		t.Fatalf("send %d failed: %s", msgType, err)
	}
}

// testClient stands in for one game client
type testClient struct {
	conn *proto.CoordConnection
	msgs chan recvItem
}

func connectTestClient(service *MapService) *testClient {
	serverConn, clientConn := net.Pipe()
	go service.ServeTCPConnection(serverConn)

	client := &testClient{
		conn: proto.NewCoordConnection(netutil.NetConn{Conn: clientConn}),
		msgs: make(chan recvItem, 64),
	}
	client.conn.SetAutoFlush(true)
	go func() {
		defer close(client.msgs)
		for {
			var msgType proto.MsgType
			pkt, err := client.conn.Recv(&msgType)
			if err != nil {
				return
			}
			client.msgs <- recvItem{msgType, pkt}
		}
	}()
	return client
}

func (client *testClient) send(t *testing.T, msgType proto.MsgType, msg proto.Msg) {
	t.Helper()
	if err := client.conn.SendMsg(msgType, msg); err != nil {
		t.Fatalf("send %d failed: %s", msgType, err)
	}
}

func (client *testClient) expect(t *testing.T, expectType proto.MsgType, msg proto.Msg) {
	t.Helper()
	select {
	case item, ok := <-client.msgs:
		if !ok {
			t.Fatalf("session closed while expecting msgtype %d", expectType)
		}
		assert.Equal(t, expectType, item.msgType)
		if msg != nil {
			msg.ReadFromPacket(item.pkt)
		}
		item.pkt.Release()
	case <-time.After(time.Second * 5):
		t.Fatalf("timeout expecting msgtype %d from map server", expectType)
	}
}

func (client *testClient) expectClosed(t *testing.T) {
	t.Helper()
	deadline := time.After(time.Second * 5)
	for {
		select {
		case item, ok := <-client.msgs:
			if !ok {
				return
			}
			item.pkt.Release() // drain broadcasts until the close
		case <-deadline:
			t.Fatalf("session was not closed")
		}
	}
}

func newTestMapService(t *testing.T) (*MapService, *testUpstream, *testUpstream, func()) {
	dir, err := ioutil.TempDir("", "mapserver")
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.MapServerConfig{
		Ip:                      "127.0.0.1",
		Port:                    30001,
		MapName:                 "forest-1",
		ClassName:               "ForestShard",
		ChannelID:               "ch1",
		ChannelTitle:            "Channel 1",
		ChannelDescription:      "first channel",
		TimeOfDaySyncIntervalMS: 5000,
		PositionSyncIntervalMS:  100,
	}
	checker := moderation.NewWordListChecker(&config.ModerationConfig{
		MuteMinutes: 10,
		MuteWords:   []string{"badword"},
		KickWords:   []string{"kickword"},
	})
	records := storage.NewStorage(&config.StorageConfig{Type: "filesystem", Directory: dir})
	service := newMapService(1, cfg, checker, records)

	centralServer, centralClient := net.Pipe()
	central := newTestUpstream(centralServer)
	dbServer, dbClient := net.Pipe()
	db := newTestUpstream(dbServer)

	done := make(chan struct{})
	go func() {
		service.setCentralConn(centralClient)
		service.setDBConn(dbClient)
		close(done)
	}()

	// the map server announces itself on connect
	var hello proto.SetGameIDMsg
	central.expect(t, proto.MT_SET_GAME_ID, &hello)
	assert.Equal(t, common.GameID(1), hello.GameID)
	<-done

	// stand-in for the service main routine
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case item := <-service.packetQueue:
				if item.session != nil {
					service.handleSessionMsg(item.session, item.msgtype, item.packet)
				} else {
					service.handleUpstreamMsg(item.msgtype, item.packet)
				}
				item.packet.Release()
			default:
				time.Sleep(time.Millisecond)
			}
			post.Tick()
		}
	}()

	return service, central, db, func() {
		close(stop)
		service.records.Shutdown()
	}
}

// auth drives the full session handshake against the fake central server
func auth(t *testing.T, client *testClient, central *testUpstream, userID common.UserID) {
	t.Helper()
	client.send(t, proto.MT_REQUEST_AUTH, &proto.RequestAuthMsg{UserID: userID, AccessToken: "tok-" + common.AccessToken(userID)})

	var reg proto.RegisterSessionMsg
	central.expect(t, proto.MT_REGISTER_SESSION, &reg)
	assert.Equal(t, userID, reg.UserID)
	central.send(t, proto.MT_REGISTER_SESSION_ACK, &proto.RegisterSessionAckMsg{
		ConnectionID: reg.ConnectionID,
		UserID:       userID,
		Status:       proto.STATUS_OK,
	})

	var authResp proto.ResponseAuthMsg
	client.expect(t, proto.MT_RESPONSE_AUTH, &authResp)
	assert.Equal(t, proto.STATUS_OK, authResp.Status)
	client.expect(t, proto.MT_UPDATE_MAP_INFO, &proto.UpdateMapInfoMsg{})
	client.expect(t, proto.MT_UPDATE_SERVER_INFO, &proto.UpdateServerInfoMsg{})
	client.expect(t, proto.MT_UPDATE_TIME_OF_DAY, &proto.UpdateTimeOfDayMsg{})
}

func TestAuthPipeline(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	client := connectTestClient(service)

	// heartbeat works before authentication
	client.send(t, proto.MT_HEARTBEAT, &proto.HeartbeatMsg{})
	client.expect(t, proto.MT_HEARTBEAT_ACK, &proto.HeartbeatMsg{})

	client.send(t, proto.MT_REQUEST_AUTH, &proto.RequestAuthMsg{UserID: "user-1", AccessToken: "tok"})
	var reg proto.RegisterSessionMsg
	central.expect(t, proto.MT_REGISTER_SESSION, &reg)
	assert.Equal(t, common.UserID("user-1"), reg.UserID)
	central.send(t, proto.MT_REGISTER_SESSION_ACK, &proto.RegisterSessionAckMsg{
		ConnectionID: reg.ConnectionID, UserID: "user-1", Status: proto.STATUS_OK,
	})

	var authResp proto.ResponseAuthMsg
	client.expect(t, proto.MT_RESPONSE_AUTH, &authResp)
	assert.Equal(t, proto.STATUS_OK, authResp.Status)

	var mapInfo proto.UpdateMapInfoMsg
	client.expect(t, proto.MT_UPDATE_MAP_INFO, &mapInfo)
	assert.Equal(t, "forest-1", mapInfo.MapName)
	assert.Equal(t, "ForestShard", mapInfo.ClassName)

	var serverInfo proto.UpdateServerInfoMsg
	client.expect(t, proto.MT_UPDATE_SERVER_INFO, &serverInfo)
	assert.Equal(t, "ch1", serverInfo.ChannelID)
	client.expect(t, proto.MT_UPDATE_TIME_OF_DAY, &proto.UpdateTimeOfDayMsg{})
}

func TestAuthRejectedDuplicateSession(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	client := connectTestClient(service)
	client.send(t, proto.MT_REQUEST_AUTH, &proto.RequestAuthMsg{UserID: "user-1", AccessToken: "tok"})

	var reg proto.RegisterSessionMsg
	central.expect(t, proto.MT_REGISTER_SESSION, &reg)
	central.send(t, proto.MT_REGISTER_SESSION_ACK, &proto.RegisterSessionAckMsg{
		ConnectionID: reg.ConnectionID, UserID: "user-1", Status: proto.STATUS_DUPLICATE_SESSION,
	})

	var authResp proto.ResponseAuthMsg
	client.expect(t, proto.MT_RESPONSE_AUTH, &authResp)
	assert.Equal(t, proto.STATUS_DUPLICATE_SESSION, authResp.Status)
	client.expectClosed(t)
}

func TestAuthEmptyCredentials(t *testing.T) {
	service, _, _, stop := newTestMapService(t)
	defer stop()

	client := connectTestClient(service)
	client.send(t, proto.MT_REQUEST_AUTH, &proto.RequestAuthMsg{})

	var authResp proto.ResponseAuthMsg
	client.expect(t, proto.MT_RESPONSE_AUTH, &authResp)
	assert.Equal(t, proto.STATUS_AUTH_FAILED, authResp.Status)
	client.expectClosed(t)
}

func TestOpenStorageFlow(t *testing.T) {
	service, central, db, stop := newTestMapService(t)
	defer stop()

	client := connectTestClient(service)
	auth(t, client, central, "user-1")

	client.send(t, proto.MT_REQUEST_OPEN_STORAGE, &proto.RequestOpenStorageMsg{
		StorageType: common.StorageTypeGuild, OwnerID: "guild-1",
	})

	var reserve proto.RequestReserveStorageMsg
	db.expect(t, proto.MT_REQUEST_RESERVE_STORAGE, &reserve)
	guild1 := common.StorageID{Type: common.StorageTypeGuild, OwnerID: "guild-1"}
	assert.Equal(t, guild1, reserve.StorageID)
	assert.Equal(t, service.holderOf(reserve.ConnectionID), reserve.Holder)

	items := []common.CharacterItem{{ID: "i1", DataID: 5, Amount: 3}}
	db.send(t, proto.MT_RESPONSE_RESERVE_STORAGE, &proto.ResponseReserveStorageMsg{
		ConnectionID: reserve.ConnectionID,
		StorageID:    guild1,
		Status:       proto.STATUS_OK,
		OK:           &proto.ReserveStorageOK{Items: items},
	})

	var opened proto.ResponseOpenStorageMsg
	client.expect(t, proto.MT_RESPONSE_OPEN_STORAGE, &opened)
	assert.Equal(t, proto.STATUS_OK, opened.Status)
	assert.Equal(t, guild1, opened.OK.StorageID)
	assert.Equal(t, 1, len(opened.OK.Items))
	assert.Equal(t, "i1", opened.OK.Items[0].ID)

	// the commit carries the release decision
	client.send(t, proto.MT_UPDATE_STORAGE_ITEMS, &proto.UpdateStorageItemsMsg{
		StorageType: common.StorageTypeGuild, StorageOwnerID: "guild-1",
		Items: items, DeleteReservation: true,
	})
	var commit proto.RequestCommitStorageItemsMsg
	db.expect(t, proto.MT_REQUEST_COMMIT_STORAGE_ITEMS, &commit)
	assert.Equal(t, guild1, commit.StorageID)
	assert.Equal(t, reserve.Holder, commit.Holder)
	assert.T(t, commit.DeleteReservation, "commit must release the reservation")
}

func TestOpenStorageDenied(t *testing.T) {
	service, central, db, stop := newTestMapService(t)
	defer stop()

	client := connectTestClient(service)
	auth(t, client, central, "user-1")

	client.send(t, proto.MT_REQUEST_OPEN_STORAGE, &proto.RequestOpenStorageMsg{
		StorageType: common.StorageTypeGuild, OwnerID: "guild-1",
	})
	var reserve proto.RequestReserveStorageMsg
	db.expect(t, proto.MT_REQUEST_RESERVE_STORAGE, &reserve)
	db.send(t, proto.MT_RESPONSE_RESERVE_STORAGE, &proto.ResponseReserveStorageMsg{
		ConnectionID: reserve.ConnectionID,
		StorageID:    reserve.StorageID,
		Status:       proto.STATUS_ALREADY_RESERVED,
		CurrentHolder: "map2/conn9",
	})

	var opened proto.ResponseOpenStorageMsg
	client.expect(t, proto.MT_RESPONSE_OPEN_STORAGE, &opened)
	assert.Equal(t, proto.STATUS_ALREADY_RESERVED, opened.Status)
	if opened.OK != nil {
		t.Errorf("denied open must carry no contents")
	}

	// invalid storage type is rejected locally, the db service never sees it
	client.send(t, proto.MT_REQUEST_OPEN_STORAGE, &proto.RequestOpenStorageMsg{
		StorageType: common.StorageType(99), OwnerID: "x",
	})
	client.expect(t, proto.MT_RESPONSE_OPEN_STORAGE, &opened)
	assert.Equal(t, proto.STATUS_INVALID_STORAGE_TYPE, opened.Status)
}

func TestChatModerationCensorAndMute(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	clientA := connectTestClient(service)
	auth(t, clientA, central, "user-a")
	clientB := connectTestClient(service)
	auth(t, clientB, central, "user-b")

	clientA.send(t, proto.MT_SUBMIT_CHAT_MESSAGE, &proto.SubmitChatMessageMsg{Text: "hello badword"})

	var chat proto.NotifyChatMessageMsg
	clientA.expect(t, proto.MT_NOTIFY_CHAT_MESSAGE, &chat)
	assert.Equal(t, "hello *******", chat.Text)
	assert.Equal(t, common.UserID("user-a"), chat.SenderID)
	clientB.expect(t, proto.MT_NOTIFY_CHAT_MESSAGE, &chat)
	assert.Equal(t, "hello *******", chat.Text)

	// the mute was applied with the broadcast above, this message is
	// rejected instead of broadcast
	clientA.send(t, proto.MT_SUBMIT_CHAT_MESSAGE, &proto.SubmitChatMessageMsg{Text: "still here"})
	var rejected proto.RejectChatMessageMsg
	clientA.expect(t, proto.MT_REJECT_CHAT_MESSAGE, &rejected)
	assert.Equal(t, proto.STATUS_MUTED, rejected.Status)

	clientB.send(t, proto.MT_SUBMIT_CHAT_MESSAGE, &proto.SubmitChatMessageMsg{Text: "hi"})
	clientA.expect(t, proto.MT_NOTIFY_CHAT_MESSAGE, &chat)
	assert.Equal(t, "hi", chat.Text)
	assert.Equal(t, common.UserID("user-b"), chat.SenderID)
	clientB.expect(t, proto.MT_NOTIFY_CHAT_MESSAGE, &chat)
}

func TestChatKickWord(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	client := connectTestClient(service)
	auth(t, client, central, "user-a")

	client.send(t, proto.MT_SUBMIT_CHAT_MESSAGE, &proto.SubmitChatMessageMsg{Text: "kickword"})

	var chat proto.NotifyChatMessageMsg
	client.expect(t, proto.MT_NOTIFY_CHAT_MESSAGE, &chat)
	assert.Equal(t, "********", chat.Text)
	client.expectClosed(t)

	// the kick unregisters the session from the directory
	var unreg proto.UnregisterSessionMsg
	central.expect(t, proto.MT_UNREGISTER_SESSION, &unreg)
}

func TestPlayerCharacterTransform(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	clientA := connectTestClient(service)
	auth(t, clientA, central, "user-a")
	clientB := connectTestClient(service)
	auth(t, clientB, central, "user-b")

	var resp proto.ResponsePlayerCharacterTransformMsg
	clientB.send(t, proto.MT_REQUEST_PLAYER_CHARACTER_TRANSFORM, &proto.RequestPlayerCharacterTransformMsg{UserID: "user-a"})
	clientB.expect(t, proto.MT_RESPONSE_PLAYER_CHARACTER_TRANSFORM, &resp)
	assert.Equal(t, proto.STATUS_USER_NOT_FOUND, resp.Status)

	clientA.send(t, proto.MT_UPDATE_CHARACTER_TRANSFORM, &proto.UpdateCharacterTransformMsg{
		Position: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.Vec3{0, 90, 0},
	})

	deadline := time.Now().Add(time.Second * 5)
	for {
		clientB.send(t, proto.MT_REQUEST_PLAYER_CHARACTER_TRANSFORM, &proto.RequestPlayerCharacterTransformMsg{UserID: "user-a"})
		clientB.expect(t, proto.MT_RESPONSE_PLAYER_CHARACTER_TRANSFORM, &resp)
		if resp.Status == proto.STATUS_OK {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("transform never became visible")
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, resp.Position)
	assert.Equal(t, mgl32.Vec3{0, 90, 0}, resp.Rotation)
}

func TestForceDespawnClosesSession(t *testing.T) {
	service, central, db, stop := newTestMapService(t)
	defer stop()

	client := connectTestClient(service)
	auth(t, client, central, "user-1")

	central.send(t, proto.MT_NOTIFY_DESPAWN_CHARACTER, &proto.NotifyDespawnCharacterMsg{UserID: "user-1"})
	client.expectClosed(t)

	// cleanup releases the session's reservations and its directory entry
	var release proto.ReleaseStoragesOfHolderMsg
	db.expect(t, proto.MT_RELEASE_STORAGES_OF_HOLDER, &release)
	var unreg proto.UnregisterSessionMsg
	central.expect(t, proto.MT_UNREGISTER_SESSION, &unreg)
}

func TestMailNotificationAndRead(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	saved := make(chan struct{})
	service.records.SaveMailbox("user-1", []common.Mail{
		{ID: "mail-1", SenderID: "user-2", SenderName: "Bob", ReceiverID: "user-1",
			Title: "hi", Content: "hello there", Gold: 50, SentAt: 1700000000},
		{ID: "mail-2", ReceiverID: "user-1", Title: "old", IsRead: true, ReadAt: 1700000100, SentAt: 1700000000},
	}, func() { close(saved) })
	select {
	case <-saved:
	case <-time.After(time.Second * 5):
		t.Fatalf("seeding the mailbox timed out")
	}

	client := connectTestClient(service)
	auth(t, client, central, "user-1")

	client.send(t, proto.MT_REQUEST_MAIL_NOTIFICATION, &proto.EmptyMsg{})
	var notif proto.ResponseMailNotificationMsg
	client.expect(t, proto.MT_RESPONSE_MAIL_NOTIFICATION, &notif)
	assert.Equal(t, proto.STATUS_OK, notif.Status)
	assert.Equal(t, int32(1), notif.OK.NotificationCount)

	client.send(t, proto.MT_REQUEST_READ_MAIL, &proto.RequestReadMailMsg{MailID: "mail-1"})
	var read proto.ResponseReadMailMsg
	client.expect(t, proto.MT_RESPONSE_READ_MAIL, &read)
	assert.Equal(t, proto.STATUS_OK, read.Status)
	assert.Equal(t, "hello there", read.OK.Mail.Content)

	// reading marked the mail, no unread mails remain
	client.send(t, proto.MT_REQUEST_MAIL_NOTIFICATION, &proto.EmptyMsg{})
	client.expect(t, proto.MT_RESPONSE_MAIL_NOTIFICATION, &notif)
	assert.Equal(t, int32(0), notif.OK.NotificationCount)

	client.send(t, proto.MT_REQUEST_READ_MAIL, &proto.RequestReadMailMsg{MailID: "mail-9"})
	client.expect(t, proto.MT_RESPONSE_READ_MAIL, &read)
	assert.Equal(t, proto.STATUS_NOT_FOUND, read.Status)
}

func TestGachaInfoAndOpen(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	saved := make(chan struct{})
	service.records.Save(storage.KindGacha, "user-1",
		storage.GachaInfoToRecord(storage.GachaInfo{Cash: 999, GachaIDs: []int32{7, 8}}),
		func() { close(saved) })
	select {
	case <-saved:
	case <-time.After(time.Second * 5):
		t.Fatalf("seeding the gacha record timed out")
	}

	client := connectTestClient(service)
	auth(t, client, central, "user-1")

	client.send(t, proto.MT_REQUEST_GACHA_INFO, &proto.EmptyMsg{})
	var info proto.ResponseGachaInfoMsg
	client.expect(t, proto.MT_RESPONSE_GACHA_INFO, &info)
	assert.Equal(t, proto.STATUS_OK, info.Status)
	assert.Equal(t, int32(999), info.OK.Cash)
	assert.Equal(t, []int32{7, 8}, info.OK.GachaIDs)

	client.send(t, proto.MT_REQUEST_OPEN_GACHA, &proto.RequestOpenGachaMsg{DataID: 7})
	var open proto.ResponseOpenGachaMsg
	client.expect(t, proto.MT_RESPONSE_OPEN_GACHA, &open)
	assert.Equal(t, proto.STATUS_OK, open.Status)
	assert.Equal(t, int32(7), open.OK.DataID)
	assert.Equal(t, 1, len(open.OK.RewardItems))

	// a machine the character does not own can not be opened
	client.send(t, proto.MT_REQUEST_OPEN_GACHA, &proto.RequestOpenGachaMsg{DataID: 99})
	client.expect(t, proto.MT_RESPONSE_OPEN_GACHA, &open)
	assert.Equal(t, proto.STATUS_NOT_FOUND, open.Status)
}

func TestAvailableFramesAndIcons(t *testing.T) {
	service, central, _, stop := newTestMapService(t)
	defer stop()

	saved := make(chan struct{})
	service.records.Save(storage.KindCharacter, "user-1",
		storage.AppearanceToRecord(storage.CharacterAppearance{FrameIDs: []int32{10, 20}, IconIDs: []int32{3}}),
		func() { close(saved) })
	select {
	case <-saved:
	case <-time.After(time.Second * 5):
		t.Fatalf("seeding the character record timed out")
	}

	client := connectTestClient(service)
	auth(t, client, central, "user-1")

	client.send(t, proto.MT_REQUEST_AVAILABLE_FRAMES, &proto.EmptyMsg{})
	var frames proto.ResponseAvailableFramesMsg
	client.expect(t, proto.MT_RESPONSE_AVAILABLE_FRAMES, &frames)
	assert.Equal(t, proto.STATUS_OK, frames.Status)
	assert.Equal(t, []int32{10, 20}, frames.FrameIDs)

	client.send(t, proto.MT_REQUEST_AVAILABLE_ICONS, &proto.EmptyMsg{})
	var icons proto.ResponseAvailableIconsMsg
	client.expect(t, proto.MT_RESPONSE_AVAILABLE_ICONS, &icons)
	assert.Equal(t, proto.STATUS_OK, icons.Status)
	assert.Equal(t, []int32{3}, icons.IconIDs)
}
