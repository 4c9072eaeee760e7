package main

import (
	"fmt"
	"net"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/xiaonanln/netconnutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/post"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
)

// Session states
const (
	ssConnecting = iota
	ssAuthenticating
	ssActive
	ssClosing
	ssClosed
)

// Session is one client connection on the map server; its serve goroutine
// only reads packets, all handling happens in the service main routine
type Session struct {
	*proto.CoordConnection
	owner  *MapService
	connID common.ConnectionID
	state  xnsyncutil.AtomicInt

	// the fields below are owned by the service main routine
	userID        common.UserID
	accessToken   common.AccessToken
	mutedUntil    time.Time
	lastHeartbeat time.Time
	openStorages  map[common.StorageID]bool
	position      mgl32.Vec3
	rotation      mgl32.Vec3
	hasTransform  bool
}

func newSession(owner *MapService, connID common.ConnectionID, conn net.Conn) *Session {
	conn = netconnutil.NewNoTempErrorConn(conn)
	session := &Session{
		owner:         owner,
		connID:        connID,
		lastHeartbeat: time.Now(),
		openStorages:  map[common.StorageID]bool{},
	}
	session.CoordConnection = proto.NewCoordConnection(netconnutil.NewBufferedConn(conn, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE))
	session.SetAutoFlush(true)
	session.state.Store(ssConnecting)
	return session
}

func (session *Session) String() string {
	return fmt.Sprintf("Session<%d|%s>", session.connID, session.userID)
}

func (session *Session) holder() string {
	return session.owner.holderOf(session.connID)
}

func (session *Session) serve() {
	defer func() {
		session.Close()
		post.Post(func() {
			session.owner.onSessionDisconnected(session)
		})

		err := recover()
		if err != nil && !netutil.IsConnectionError(err) {
			mnlog.TraceError("%s paniced: %v", session, err)
		}
	}()

	for {
		var msgType proto.MsgType
		pkt, err := session.Recv(&msgType)
		if err != nil {
			mnlog.Panic(err)
		}

		session.owner.packetQueue <- packetQueueItem{session: session, msgtype: msgType, packet: pkt}
	}
}
