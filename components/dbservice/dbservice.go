package main

import (
	"flag"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/xnitro1/MMONewTest-sub013/engine/binutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/consts"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/opmon"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage"
)

var (
	args struct {
		configFile      string
		logLevel        string
		runInDaemonMode bool
	}
	dbService  *DBService
	signalChan = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

func main() {
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize()
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	dbConfig := config.GetDBService()

	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = dbConfig.LogLevel
	}
	binutil.SetupMNLog("dbservice", logLevel, dbConfig.LogFile, dbConfig.LogStderr)
	binutil.SetupHTTPServer(dbConfig.HTTPIp, dbConfig.HTTPPort, nil)

	if consts.OPMON_DUMP_INTERVAL > 0 {
		opmon.StartDump(consts.OPMON_DUMP_INTERVAL)
	}

	mnlog.Infof("Database service config: \n%s", config.DumpPretty(dbConfig))
	mnlog.Infof("Record storage config: \n%s", config.DumpPretty(config.GetStorage()))

	dbService = newDBService(dbConfig, storage.NewStorage(config.GetStorage()))
	setupSignals()
	dbService.run()
}

func setupSignals() {
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				mnlog.Infof("Database service terminating on signal %s ...", sig)
				dbService.storage.Shutdown()
				os.Exit(0)
			} else {
				mnlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
