package consts

import "time"

// Tunable Options
const (
	// For Underlying Networking
	// BUFFERED_READ_BUFFSIZE is the read buffer size for buffered connections
	BUFFERED_READ_BUFFSIZE = 16384
	// BUFFERED_WRITE_BUFFSIZE is the write buffer size for buffered connections
	BUFFERED_WRITE_BUFFSIZE = 16384
	// MAX_PACKET_PAYLOAD_LENGTH is the max payload length of a single packet
	MAX_PACKET_PAYLOAD_LENGTH = 1 * 1024 * 1024

	// For the Central Server
	// SHARD_PROXY_WRITE_BUFFER_SIZE is shard proxies' write buffer size
	SHARD_PROXY_WRITE_BUFFER_SIZE = 1024 * 1024
	// SHARD_PROXY_READ_BUFFER_SIZE is shard proxies' read buffer size
	SHARD_PROXY_READ_BUFFER_SIZE = 1024 * 1024

	// For Map Servers
	// MAP_SERVICE_PACKET_QUEUE_SIZE is the max packet queue length for a map service
	MAP_SERVICE_PACKET_QUEUE_SIZE = 10000
	// MAP_SERVICE_TICK_INTERVAL is the tick interval of map service timers
	MAP_SERVICE_TICK_INTERVAL = time.Millisecond * 10
	// SESSION_WRITE_BUFFER_SIZE is the write buffer size for client sessions
	SESSION_WRITE_BUFFER_SIZE = 1024 * 1024
	// SESSION_READ_BUFFER_SIZE is the read buffer size for client sessions
	SESSION_READ_BUFFER_SIZE = 1024 * 1024
	// SESSION_SET_TCP_NO_DELAY = true sets client sessions to TcpNoDelay
	SESSION_SET_TCP_NO_DELAY = true
	// SESSION_HEARTBEAT_TIMEOUT is the duration after which a silent session is closed
	SESSION_HEARTBEAT_TIMEOUT = time.Minute * 2
	// SESSION_STORAGE_RENEW_INTERVAL is the interval at which sessions renew held storage reservations
	SESSION_STORAGE_RENEW_INTERVAL = time.Second * 10
	// MAP_CPU_COLLECT_INTERVAL is the interval of shard load collection
	MAP_CPU_COLLECT_INTERVAL = time.Second * 10
	// GAME_DAY_DURATION is the real duration of one in-game day
	GAME_DAY_DURATION = time.Hour

	// For the Database Service
	// DB_SERVICE_PACKET_QUEUE_SIZE is the max packet queue length for the database service
	DB_SERVICE_PACKET_QUEUE_SIZE = 10000
	// DB_SERVICE_TICK_INTERVAL is the tick interval of database service timers
	DB_SERVICE_TICK_INTERVAL = time.Millisecond * 10
	// RESERVATION_DEFAULT_TTL is the lease duration of a storage reservation without renewal
	RESERVATION_DEFAULT_TTL = time.Second * 30
	// RESERVATION_REAP_INTERVAL is the interval of the reservation expiry sweep
	RESERVATION_REAP_INTERVAL = time.Second

	// For Async Jobs
	// ASYNC_JOB_QUEUE_MAXLEN is the max length of async job queues
	ASYNC_JOB_QUEUE_MAXLEN = 1000

	// For Operation Monitor
	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output
	OPMON_DUMP_INTERVAL = time.Duration(0)
)

// Debug Options
const (
	// DEBUG_PACKETS prints packet send/recv debug logs
	DEBUG_PACKETS = false
	// DEBUG_MODE run in debug mode
	DEBUG_MODE = false
)
