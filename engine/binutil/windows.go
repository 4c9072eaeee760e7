//go:build windows
// +build windows

package binutil

import "github.com/xnitro1/MMONewTest-sub013/engine/mnlog"

type nopRelease int

func (_ nopRelease) Release() {

}

func Daemonize() nopRelease {
	// Windows can not daemonize
	mnlog.Warnf("can not run in daemon mode in windows, -d ignored")
	return nopRelease(0)
}
