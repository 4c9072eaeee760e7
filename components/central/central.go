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
)

var (
	args struct {
		configFile      string
		logLevel        string
		runInDaemonMode bool
	}
	centralService *CentralService
	signalChan     = make(chan os.Signal, 1)
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

	centralConfig := config.GetCentral()

	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = centralConfig.LogLevel
	}
	binutil.SetupMNLog("central", logLevel, centralConfig.LogFile, centralConfig.LogStderr)
	binutil.SetupHTTPServer(centralConfig.HTTPIp, centralConfig.HTTPPort, nil)

	if consts.OPMON_DUMP_INTERVAL > 0 {
		opmon.StartDump(consts.OPMON_DUMP_INTERVAL)
	}

	mnlog.Infof("Central server config: \n%s", config.DumpPretty(centralConfig))

	centralService = newCentralService(centralConfig)
	setupSignals()
	centralService.run()
}

func setupSignals() {
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				mnlog.Infof("Central server terminating on signal %s ...", sig)
				os.Exit(0)
			} else {
				mnlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
