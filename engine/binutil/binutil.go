package binutil

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"golang.org/x/net/websocket"
)

// SetupHTTPServer starts the debug HTTP server for go tool pprof and an
// optional websocket endpoint. Disabled when port is 0.
func SetupHTTPServer(ip string, port int, wsHandler func(ws *websocket.Conn)) {
	if port == 0 {
		mnlog.Infof("debug http server not enabled")
		return
	}

	addr := fmt.Sprintf("%s:%d", ip, port)
	mnlog.Infof("debug http server listening on %s, pprof at http://%s/debug/pprof/", addr, addr)

	if wsHandler != nil {
		http.Handle("/ws", websocket.Handler(wsHandler))
	}

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			mnlog.Errorf("debug http server: %v", err)
		}
	}()
}

// SetupMNLog configures the log system of the component. Log output goes
// to the rotated log file, stderr, or both.
func SetupMNLog(component string, logLevel string, logFile string, logStderr bool) {
	mnlog.SetSource(component)
	mnlog.SetLevel(mnlog.StringToLevel(logLevel))

	var writers []io.Writer
	if logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 100,
			MaxAge:     30,
			Compress:   true,
		}
		rotated.Rotate()
		writers = append(writers, rotated)
	}
	if logStderr {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
	case 1:
		mnlog.SetOutput(writers[0])
	default:
		mnlog.SetOutput(io.MultiWriter(writers...))
	}
}
