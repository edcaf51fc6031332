package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverName      = "org.freedesktop.ScreenSaver"
	screenSaverPath      = "/org/freedesktop/ScreenSaver"
	screenSaverInterface = "org.freedesktop.ScreenSaver"
)

type screenSaver struct {
	conn   *dbus.Conn
	object dbus.BusObject
}

func platformInhibitor() func() (inhibitor, error) {
	return dialScreenSaver
}

func dialScreenSaver() (inhibitor, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &screenSaver{
		conn:   conn,
		object: conn.Object(screenSaverName, dbus.ObjectPath(screenSaverPath)),
	}, nil
}

func (saver *screenSaver) Inhibit(appName, reason string) (uint32, error) {
	var cookie uint32
	call := saver.object.Call(screenSaverInterface+".Inhibit", 0, appName, reason)
	if err := call.Store(&cookie); err != nil {
		return 0, err
	}
	return cookie, nil
}

func (saver *screenSaver) UnInhibit(cookie uint32) error {
	return saver.object.Call(screenSaverInterface+".UnInhibit", 0, cookie).Err
}

func (saver *screenSaver) Connected() bool {
	return saver.conn.Connected()
}

func (saver *screenSaver) Close() error {
	return saver.conn.Close()
}
