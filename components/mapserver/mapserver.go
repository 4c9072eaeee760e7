package main

import (
	"flag"
	"fmt"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/xnitro1/MMONewTest-sub013/engine/binutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/moderation"
	"github.com/xnitro1/MMONewTest-sub013/engine/opmon"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage"
)

var (
	args struct {
		mapServerID     int
		configFile      string
		logLevel        string
		runInDaemonMode bool
	}
	mapService *MapService
	signalChan = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.IntVar(&args.mapServerID, "mid", 0, "set map server id")
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

func main() {
	parseArgs()

	if args.mapServerID <= 0 {
		fmt.Fprintln(os.Stderr, "map server id must be positive, set with -mid")
		os.Exit(1)
	}

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize()
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	mapServerConfig := config.GetMapServer(uint16(args.mapServerID))
	if mapServerConfig == nil {
		fmt.Fprintf(os.Stderr, "map server %d is not found in config\n", args.mapServerID)
		os.Exit(1)
	}

	if mapServerConfig.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(mapServerConfig.GoMaxProcs)
	}

	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = mapServerConfig.LogLevel
	}
	binutil.SetupMNLog(fmt.Sprintf("mapserver%d", args.mapServerID), logLevel, mapServerConfig.LogFile, mapServerConfig.LogStderr)
	binutil.SetupHTTPServer(mapServerConfig.HTTPIp, mapServerConfig.HTTPPort, nil)

	if consts.OPMON_DUMP_INTERVAL > 0 {
		opmon.StartDump(consts.OPMON_DUMP_INTERVAL)
	}

	mnlog.Infof("Map server %d config: \n%s", args.mapServerID, config.DumpPretty(mapServerConfig))

	checker := moderation.NewWordListChecker(config.GetModeration())
	records := storage.NewStorage(config.GetStorage())
	mapService = newMapService(common.GameID(args.mapServerID), mapServerConfig, checker, records)
	setupSignals()
	mapService.run()
}

func setupSignals() {
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				mnlog.Infof("Map server %d terminating on signal %s ...", mapService.id, sig)
				os.Exit(0)
			} else {
				mnlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
