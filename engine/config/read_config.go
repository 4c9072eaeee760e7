package config

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
)

const (
	_DEFAULT_CONFIG_FILE  = "mmonet.ini"
	_DEFAULT_LOCALHOST_IP = "127.0.0.1"
	_DEFAULT_HTTP_IP      = "127.0.0.1"
	_DEFAULT_LOG_LEVEL    = "debug"
	_DEFAULT_STORAGE_DB   = "mmonet"
)

var (
	configFilePath = _DEFAULT_CONFIG_FILE
	mmoNetConfig   *MMONetConfig
	configLock     sync.Mutex
)

// CentralConfig defines fields of the central server config
type CentralConfig struct {
	BindIp    string
	BindPort  int
	Ip        string
	Port      int
	LogFile   string
	LogStderr bool
	HTTPIp    string
	HTTPPort  int
	LogLevel  string
}

// MapServerConfig defines fields of one map server config
type MapServerConfig struct {
	Ip                      string
	Port                    int
	ListenKCP               bool
	MapName                 string
	ClassName               string
	ChannelID               string
	ChannelTitle            string
	ChannelDescription      string
	LogFile                 string
	LogStderr               bool
	HTTPIp                  string
	HTTPPort                int
	LogLevel                string
	GoMaxProcs              int
	HeartbeatCheckInterval  int
	TimeOfDaySyncIntervalMS int
	PositionSyncIntervalMS  int
}

// DBServiceConfig defines fields of the database service config
type DBServiceConfig struct {
	BindIp             string
	BindPort           int
	Ip                 string
	Port               int
	LogFile            string
	LogStderr          bool
	HTTPIp             string
	HTTPPort           int
	LogLevel           string
	ReservationTTL     time.Duration
	ReservationReapInt time.Duration
}

// StorageConfig defines fields of the record storage config
type StorageConfig struct {
	Type       string // Type of storage (filesystem, mongodb, redis, redis_cluster)
	Directory  string // Directory of filesystem storage (filesystem)
	Url        string // Connection URL (mongodb, redis)
	DB         string // Database name (mongodb, redis)
	Collection string // Collection name (mongodb)
	StartNodes common.StringSet
}

// ModerationConfig defines fields of the chat moderation config
type ModerationConfig struct {
	MuteMinutes int
	MuteWords   []string
	KickWords   []string
}

// MMONetConfig defines the total config file structure
type MMONetConfig struct {
	Central         CentralConfig
	MapServerCommon MapServerConfig
	MapServers      map[int]*MapServerConfig
	DBService       DBServiceConfig
	Storage         StorageConfig
	Moderation      ModerationConfig
}

// SetConfigFile sets the config file path (mmonet.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of mmonet.ini
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total config
func Get() *MMONetConfig {
	configLock.Lock()
	defer configLock.Unlock() // protect concurrent access from server goroutines
	if mmoNetConfig == nil {
		mmoNetConfig = readMMONetConfig()
	}
	return mmoNetConfig
}

// Reload forces the process to reload the whole config
func Reload() *MMONetConfig {
	configLock.Lock()
	mmoNetConfig = nil
	configLock.Unlock()

	return Get()
}

// GetCentral returns the central server config
func GetCentral() *CentralConfig {
	return &Get().Central
}

// GetMapServer gets the map server config of the specified id
func GetMapServer(mapServerID uint16) *MapServerConfig {
	return Get().MapServers[int(mapServerID)]
}

// GetMapServerIDs returns all map server IDs
func GetMapServerIDs() []uint16 {
	cfg := Get()
	ids := make([]int, 0, len(cfg.MapServers))
	for id := range cfg.MapServers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	res := make([]uint16, len(ids))
	for i, id := range ids {
		res[i] = uint16(id)
	}
	return res
}

// GetDBService returns the database service config
func GetDBService() *DBServiceConfig {
	return &Get().DBService
}

// GetStorage returns the record storage config
func GetStorage() *StorageConfig {
	return &Get().Storage
}

// GetModeration returns the chat moderation config
func GetModeration() *ModerationConfig {
	return &Get().Moderation
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readMMONetConfig() *MMONetConfig {
	config := MMONetConfig{
		MapServers: map[int]*MapServerConfig{},
	}
	mnlog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")
	mapServerCommonSec := iniFile.Section("mapserver_common")
	readMapServerCommonConfig(mapServerCommonSec, &config.MapServerCommon)

	for _, sec := range iniFile.Sections() {
		secName := sec.Name()
		if secName == "DEFAULT" {
			continue
		}

		secName = strings.ToLower(secName)
		if secName == "mapserver_common" {
			// already handled above
		} else if secName == "central" {
			readCentralConfig(sec, &config.Central)
		} else if len(secName) > 9 && secName[:9] == "mapserver" {
			id, err := strconv.Atoi(secName[9:])
			checkConfigError(err, fmt.Sprintf("invalid map server name: %s", secName))
			config.MapServers[id] = readMapServerConfig(sec, &config.MapServerCommon)
		} else if secName == "dbservice" {
			readDBServiceConfig(sec, &config.DBService)
		} else if secName == "storage" {
			readStorageConfig(sec, &config.Storage)
		} else if secName == "moderation" {
			readModerationConfig(sec, &config.Moderation)
		} else {
			mnlog.Errorf("unknown section: %s", secName)
		}
	}

	validateConfig(&config)
	return &config
}

func readCentralConfig(sec *ini.Section, cc *CentralConfig) {
	cc.BindIp = _DEFAULT_LOCALHOST_IP
	cc.Ip = _DEFAULT_LOCALHOST_IP
	cc.LogFile = "central.log"
	cc.LogStderr = true
	cc.LogLevel = _DEFAULT_LOG_LEVEL
	cc.HTTPIp = _DEFAULT_HTTP_IP
	cc.HTTPPort = 0 // pprof not enabled by default

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			cc.Ip = key.MustString(cc.Ip)
		} else if name == "port" {
			cc.Port = key.MustInt(cc.Port)
		} else if name == "bind_ip" {
			cc.BindIp = key.MustString(cc.BindIp)
		} else if name == "bind_port" {
			cc.BindPort = key.MustInt(cc.BindPort)
		} else if name == "log_file" {
			cc.LogFile = key.MustString(cc.LogFile)
		} else if name == "log_stderr" {
			cc.LogStderr = key.MustBool(cc.LogStderr)
		} else if name == "http_ip" {
			cc.HTTPIp = key.MustString(cc.HTTPIp)
		} else if name == "http_port" {
			cc.HTTPPort = key.MustInt(cc.HTTPPort)
		} else if name == "log_level" {
			cc.LogLevel = key.MustString(cc.LogLevel)
		} else {
			mnlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readMapServerCommonConfig(section *ini.Section, mcc *MapServerConfig) {
	mcc.Ip = "0.0.0.0"
	mcc.LogFile = "mapserver.log"
	mcc.LogStderr = true
	mcc.LogLevel = _DEFAULT_LOG_LEVEL
	mcc.HTTPIp = _DEFAULT_HTTP_IP
	mcc.HTTPPort = 0 // pprof not enabled by default
	mcc.GoMaxProcs = 0
	mcc.MapName = "default"
	mcc.ClassName = "Map"
	mcc.HeartbeatCheckInterval = 0
	mcc.TimeOfDaySyncIntervalMS = 5000
	mcc.PositionSyncIntervalMS = 100

	_readMapServerConfig(section, mcc)
}

func readMapServerConfig(sec *ini.Section, mapServerCommonConfig *MapServerConfig) *MapServerConfig {
	var mc MapServerConfig = *mapServerCommonConfig // copy from mapserver_common
	_readMapServerConfig(sec, &mc)
	if mc.Port == 0 {
		mnlog.Fatalf("Map server %s: port is not set", sec.Name())
	}
	return &mc
}

func _readMapServerConfig(sec *ini.Section, mc *MapServerConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			mc.Ip = key.MustString(mc.Ip)
		} else if name == "port" {
			mc.Port = key.MustInt(mc.Port)
		} else if name == "listen_kcp" {
			mc.ListenKCP = key.MustBool(mc.ListenKCP)
		} else if name == "map_name" {
			mc.MapName = key.MustString(mc.MapName)
		} else if name == "class_name" {
			mc.ClassName = key.MustString(mc.ClassName)
		} else if name == "channel_id" {
			mc.ChannelID = key.MustString(mc.ChannelID)
		} else if name == "channel_title" {
			mc.ChannelTitle = key.MustString(mc.ChannelTitle)
		} else if name == "channel_description" {
			mc.ChannelDescription = key.MustString(mc.ChannelDescription)
		} else if name == "log_file" {
			mc.LogFile = key.MustString(mc.LogFile)
		} else if name == "log_stderr" {
			mc.LogStderr = key.MustBool(mc.LogStderr)
		} else if name == "http_ip" {
			mc.HTTPIp = key.MustString(mc.HTTPIp)
		} else if name == "http_port" {
			mc.HTTPPort = key.MustInt(mc.HTTPPort)
		} else if name == "log_level" {
			mc.LogLevel = key.MustString(mc.LogLevel)
		} else if name == "gomaxprocs" {
			mc.GoMaxProcs = key.MustInt(mc.GoMaxProcs)
		} else if name == "heartbeat_check_interval" {
			mc.HeartbeatCheckInterval = key.MustInt(mc.HeartbeatCheckInterval)
		} else if name == "time_of_day_sync_interval_ms" {
			mc.TimeOfDaySyncIntervalMS = key.MustInt(mc.TimeOfDaySyncIntervalMS)
		} else if name == "position_sync_interval_ms" {
			mc.PositionSyncIntervalMS = key.MustInt(mc.PositionSyncIntervalMS)
		} else {
			mnlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readDBServiceConfig(sec *ini.Section, dc *DBServiceConfig) {
	dc.BindIp = _DEFAULT_LOCALHOST_IP
	dc.Ip = _DEFAULT_LOCALHOST_IP
	dc.LogFile = "dbservice.log"
	dc.LogStderr = true
	dc.LogLevel = _DEFAULT_LOG_LEVEL
	dc.HTTPIp = _DEFAULT_HTTP_IP
	dc.HTTPPort = 0
	dc.ReservationTTL = time.Second * 30
	dc.ReservationReapInt = time.Second

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			dc.Ip = key.MustString(dc.Ip)
		} else if name == "port" {
			dc.Port = key.MustInt(dc.Port)
		} else if name == "bind_ip" {
			dc.BindIp = key.MustString(dc.BindIp)
		} else if name == "bind_port" {
			dc.BindPort = key.MustInt(dc.BindPort)
		} else if name == "log_file" {
			dc.LogFile = key.MustString(dc.LogFile)
		} else if name == "log_stderr" {
			dc.LogStderr = key.MustBool(dc.LogStderr)
		} else if name == "http_ip" {
			dc.HTTPIp = key.MustString(dc.HTTPIp)
		} else if name == "http_port" {
			dc.HTTPPort = key.MustInt(dc.HTTPPort)
		} else if name == "log_level" {
			dc.LogLevel = key.MustString(dc.LogLevel)
		} else if name == "reservation_ttl" {
			dc.ReservationTTL = time.Second * time.Duration(key.MustInt(int(dc.ReservationTTL/time.Second)))
		} else if name == "reservation_reap_interval" {
			dc.ReservationReapInt = time.Second * time.Duration(key.MustInt(int(dc.ReservationReapInt/time.Second)))
		} else {
			mnlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readStorageConfig(sec *ini.Section, config *StorageConfig) {
	// setup default values
	config.Type = "filesystem"
	config.Directory = "_record_storage"
	config.DB = _DEFAULT_STORAGE_DB
	config.Url = ""
	config.Collection = "records"
	config.StartNodes = common.StringSet{}

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "directory" {
			config.Directory = key.MustString(config.Directory)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if name == "collection" {
			config.Collection = key.MustString(config.Collection)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			mnlog.Fatalf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.Type == "redis" {
		if config.DB == "" {
			config.DB = "0"
		}
	}

	validateStorageConfig(config)
}

func readModerationConfig(sec *ini.Section, config *ModerationConfig) {
	config.MuteMinutes = 10

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "mute_minutes" {
			config.MuteMinutes = key.MustInt(config.MuteMinutes)
		} else if strings.HasPrefix(name, "mute_word_") {
			config.MuteWords = append(config.MuteWords, key.MustString(""))
		} else if strings.HasPrefix(name, "kick_word_") {
			config.KickWords = append(config.KickWords, key.MustString(""))
		} else {
			mnlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		mnlog.Fatalf("read config error: %s", errors.Wrap(err, msg))
	}
}

func validateConfig(config *MMONetConfig) {
	if config.Central.Port == 0 {
		mnlog.Fatalf("central server port is not set")
	}
	if config.DBService.Port == 0 {
		mnlog.Fatalf("database service port is not set")
	}
	if len(config.MapServers) == 0 {
		mnlog.Fatalf("no map server defined in config")
	}
}

func validateStorageConfig(config *StorageConfig) {
	if config.Type == "filesystem" {
		if config.Directory == "" {
			mnlog.Fatalf("directory is not set in %s storage config", config.Type)
		}
	} else if config.Type == "mongodb" {
		if config.Url == "" {
			mnlog.Fatalf("url is not set in %s storage config", config.Type)
		}
		if config.DB == "" {
			mnlog.Fatalf("db is not set in %s storage config", config.Type)
		}
		if config.Collection == "" {
			mnlog.Fatalf("collection is not set in %s storage config", config.Type)
		}
	} else if config.Type == "redis" {
		if config.Url == "" {
			mnlog.Fatalf("url is not set in %s storage config", config.Type)
		}
		if _, err := strconv.Atoi(config.DB); err != nil {
			mnlog.Fatalf("invalid db in %s storage config: %s", config.Type, config.DB)
		}
	} else if config.Type == "redis_cluster" {
		if len(config.StartNodes) == 0 {
			mnlog.Fatalf("start_nodes is not set in %s storage config", config.Type)
		}
	} else {
		mnlog.Fatalf("unknown storage type: %s", config.Type)
	}
}
