//go:build !windows
// +build !windows

package binutil

import (
	"os"

	daemon "github.com/sevlyar/go-daemon"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
)

// Daemonize forks the process into the background
func Daemonize() *daemon.Context {
	context := new(daemon.Context)
	child, err := context.Reborn()

	if err != nil {
		// daemonize failed
		mnlog.Panicf("daemonize failed: %v", err)
	}

	if child != nil {
		mnlog.Infof("run in daemon mode")
		os.Exit(0)
		return nil
	} else {
		return context
	}
}
