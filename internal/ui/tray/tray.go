package tray

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"gymtimer/internal/core/model"
	"gymtimer/internal/ui/view"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnPreferences func()
	OnToggle      func()
	OnReset       func()
	OnQuit        func()
}

// Icons are swapped as runs start and stop.
type Icons struct {
	Active fyne.Resource
	Idle   fyne.Resource
}

// Manager handles system tray state.
type Manager struct {
	app        desktop.App
	menu       *fyne.Menu
	statusItem *fyne.MenuItem
	toggleItem *fyne.MenuItem
	resetItem  *fyne.MenuItem
	icons      Icons
	callbacks  Callbacks
	active     bool
	status     string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, icons Icons, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		icons:     icons,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Ready", nil)
	manager.statusItem.Disabled = true

	show := fyne.NewMenuItem("Show timer", func() {
		if manager.callbacks.OnShow != nil {
			manager.callbacks.OnShow()
		}
	})
	preferences := fyne.NewMenuItem("Preferences", func() {
		if manager.callbacks.OnPreferences != nil {
			manager.callbacks.OnPreferences()
		}
	})
	manager.toggleItem = fyne.NewMenuItem("START", func() {
		if manager.callbacks.OnToggle != nil {
			manager.callbacks.OnToggle()
		}
	})
	manager.resetItem = fyne.NewMenuItem("Reset", func() {
		if manager.callbacks.OnReset != nil {
			manager.callbacks.OnReset()
		}
	})
	quit := fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	})
	quit.IsQuit = true

	manager.menu = fyne.NewMenu("gymtimer", manager.statusItem, fyne.NewMenuItemSeparator(), show, manager.toggleItem, manager.resetItem, preferences, quit)
	if app != nil {
		app.SetSystemTrayMenu(manager.menu)
		if icons.Idle != nil {
			app.SetSystemTrayIcon(icons.Idle)
		}
	}
	return manager
}

// Update reflects config and state in the menu and icon.
func (manager *Manager) Update(config model.Config, state model.RunState) {
	status := view.Status(config, state)
	toggle := view.ToggleLabel(state)
	iconChanged := state.Active != manager.active
	if status == manager.status && toggle == manager.toggleItem.Label && !iconChanged {
		return
	}

	manager.status = status
	manager.active = state.Active
	manager.statusItem.Label = status
	manager.toggleItem.Label = toggle
	manager.resetItem.Disabled = state.Active
	manager.refresh(iconChanged)
}

// Status returns the current status line.
func (manager *Manager) Status() string {
	return manager.status
}

func (manager *Manager) refresh(iconChanged bool) {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(manager.menu)
	if !iconChanged {
		return
	}
	icon := manager.icons.Idle
	if manager.active {
		icon = manager.icons.Active
	}
	if icon != nil {
		manager.app.SetSystemTrayIcon(icon)
	}
}
