package main

import (
	"fmt"
	"net"
	"time"

	timer "github.com/xiaonanln/goTimer"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/post"
	"github.com/xnitro1/MMONewTest-sub013/engine/proto"
	"github.com/xnitro1/MMONewTest-sub013/engine/reservation"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage"
)

// DBService owns the storage reservation ledger and the durable record
// storage; map servers connect to it and speak the database message set
type DBService struct {
	cfg          *config.DBServiceConfig
	reservations *reservation.Store
	storage      *storage.Storage
}

func newDBService(cfg *config.DBServiceConfig, recordStorage *storage.Storage) *DBService {
	return &DBService{
		cfg:          cfg,
		reservations: reservation.NewStore(),
		storage:      recordStorage,
	}
}

func (service *DBService) String() string {
	return fmt.Sprintf("DBService<reservations=%d>", service.reservations.Len())
}

func (service *DBService) run() {
	ip := service.cfg.BindIp
	if ip == "" {
		ip = service.cfg.Ip
	}
	port := service.cfg.BindPort
	if port == 0 {
		port = service.cfg.Port
	}
	listenAddr := fmt.Sprintf("%s:%d", ip, port)
	go netutil.ServeTCPForever(listenAddr, service)

	timer.AddTimer(service.cfg.ReservationReapInt, service.reapExpiredReservations)

	ticker := time.Tick(consts.DB_SERVICE_TICK_INTERVAL)
	for range ticker {
		timer.Tick()
		post.Tick()
	}
}

// ServeTCPConnection handles one map server connection
func (service *DBService) ServeTCPConnection(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetWriteBuffer(consts.SHARD_PROXY_WRITE_BUFFER_SIZE)
		tcpConn.SetReadBuffer(consts.SHARD_PROXY_READ_BUFFER_SIZE)
		tcpConn.SetNoDelay(true)
	}

	gp := newGameProxy(service, conn)
	gp.serve()
}

func (service *DBService) reapExpiredReservations() {
	expired := service.reservations.ExpireDue(time.Now())
	for _, res := range expired {
		mnlog.Warnf("%s: reservation of %s held by %s expired without renewal", service, res.StorageID, res.Holder)
	}
}

func (service *DBService) reserveTTL(ttlSeconds uint32) time.Duration {
	if ttlSeconds == 0 {
		return service.cfg.ReservationTTL
	}
	return time.Duration(ttlSeconds) * time.Second
}

func (service *DBService) handleReserveStorage(gp *GameProxy, msg *proto.RequestReserveStorageMsg) {
	resp := &proto.ResponseReserveStorageMsg{
		ConnectionID: msg.ConnectionID,
		StorageID:    msg.StorageID,
	}

	if !msg.StorageID.Type.IsValid() {
		resp.Status = proto.STATUS_INVALID_STORAGE_TYPE
		gp.SendMsg(proto.MT_RESPONSE_RESERVE_STORAGE, resp)
		return
	}

	err := service.reservations.TryReserve(msg.StorageID, msg.Holder, service.reserveTTL(msg.TTLSeconds))
	if err != nil {
		if already, ok := err.(reservation.ErrAlreadyReserved); ok {
			resp.Status = proto.STATUS_ALREADY_RESERVED
			resp.CurrentHolder = already.Holder
		} else {
			mnlog.Errorf("%s: reserve %s for %s failed: %s", service, msg.StorageID, msg.Holder, err)
			resp.Status = proto.STATUS_UNKNOWN_ERROR
		}
		gp.SendMsg(proto.MT_RESPONSE_RESERVE_STORAGE, resp)
		return
	}

	// reservation granted, respond with the current container contents
	storageID, holder := msg.StorageID, msg.Holder
	service.storage.LoadStorageItems(storageID, func(items []common.CharacterItem, err error) {
		if err != nil {
			// the holder can not use the storage without its contents
			service.reservations.Release(storageID, holder)
			resp.Status = proto.STATUS_UNKNOWN_ERROR
			gp.SendMsg(proto.MT_RESPONSE_RESERVE_STORAGE, resp)
			return
		}
		resp.Status = proto.STATUS_OK
		resp.OK = &proto.ReserveStorageOK{Items: items}
		gp.SendMsg(proto.MT_RESPONSE_RESERVE_STORAGE, resp)
	})
}

func (service *DBService) handleRenewStorage(gp *GameProxy, msg *proto.RequestRenewStorageMsg) {
	resp := &proto.ResponseRenewStorageMsg{
		ConnectionID: msg.ConnectionID,
		StorageID:    msg.StorageID,
		Status:       proto.STATUS_OK,
	}
	if err := service.reservations.Renew(msg.StorageID, msg.Holder, service.reserveTTL(msg.TTLSeconds)); err != nil {
		resp.Status = proto.STATUS_NOT_HOLDER
	}
	gp.SendMsg(proto.MT_RESPONSE_RENEW_STORAGE, resp)
}

func (service *DBService) handleReleaseStorage(gp *GameProxy, msg *proto.RequestReleaseStorageMsg) {
	// releasing an already released reservation is a no-op
	service.reservations.Release(msg.StorageID, msg.Holder)
}

func (service *DBService) handleCommitStorageItems(gp *GameProxy, msg *proto.RequestCommitStorageItemsMsg) {
	resp := &proto.ResponseCommitStorageItemsMsg{
		ConnectionID: msg.ConnectionID,
		StorageID:    msg.StorageID,
		Status:       proto.STATUS_OK,
	}

	// the save is enqueued while the reservation is still pinned, so the
	// storage routine's FIFO order matches the holdership order
	err := service.reservations.CommitHolding(msg.StorageID, msg.Holder, msg.DeleteReservation, func() error {
		service.storage.SaveStorageItems(msg.StorageID, msg.Items, nil)
		return nil
	})
	if err != nil {
		resp.Status = proto.STATUS_NOT_HOLDER
	}
	gp.SendMsg(proto.MT_RESPONSE_COMMIT_STORAGE_ITEMS, resp)
}

func (service *DBService) handleReleaseStoragesOfHolder(gp *GameProxy, msg *proto.ReleaseStoragesOfHolderMsg) {
	released := service.reservations.ReleaseHolder(msg.Holder)
	if len(released) > 0 {
		mnlog.Infof("%s: released %d reservations of %s", service, len(released), msg.Holder)
	}
}
