//go:build linux

package wallpaper

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	plasmaService  = "org.kde.plasmashell"
	plasmaPath     = "/PlasmaShell"
	plasmaEvaluate = "org.kde.PlasmaShell.evaluateScript"
)

func evaluatePlasmaScript(script string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	obj := conn.Object(plasmaService, dbus.ObjectPath(plasmaPath))
	var printed string
	if err := obj.Call(plasmaEvaluate, 0, script).Store(&printed); err != nil {
		return fmt.Errorf("plasmashell evaluateScript: %w", err)
	}
	if printed != "" {
		log.Debug("plasmashell script output", "output", printed)
	}
	return nil
}
