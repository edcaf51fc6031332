package preferences

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// LogLevels lists the choices offered for the log level.
var LogLevels = []string{"trace", "debug", "info", "warn", "error"}

// StorageDrivers lists the routine storage backends.
var StorageDrivers = []string{"file", "sqlite", "fyne", "memory"}

// Window handles the application settings UI.
type Window struct {
	window   fyne.Window
	settings Settings
	onSave   func(Settings)

	work      *widget.Entry
	rest      *widget.Entry
	rounds    *widget.Entry
	cycles    *widget.Entry
	cycleRest *widget.Entry
	prepare   *widget.Entry
	volume    *widget.Slider
	name      *widget.Entry

	logLevel    *widget.Select
	driver      *widget.Select
	storagePath *widget.Entry
	audioPlayer *widget.Entry
	wakeLock    *widget.Check
}

// New creates a settings window. onSave receives the edited settings.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("gymtimer Settings")

	prefs := &Window{
		window:      window,
		onSave:      onSave,
		work:        widget.NewEntry(),
		rest:        widget.NewEntry(),
		rounds:      widget.NewEntry(),
		cycles:      widget.NewEntry(),
		cycleRest:   widget.NewEntry(),
		prepare:     widget.NewEntry(),
		volume:      widget.NewSlider(0, 1),
		name:        widget.NewEntry(),
		logLevel:    widget.NewSelect(LogLevels, nil),
		driver:      widget.NewSelect(StorageDrivers, nil),
		storagePath: widget.NewEntry(),
		audioPlayer: widget.NewEntry(),
		wakeLock:    widget.NewCheck("Keep the screen awake during a run", nil),
	}
	prefs.volume.Step = 0.1
	prefs.storagePath.SetPlaceHolder("next to settings.yaml")
	prefs.audioPlayer.SetPlaceHolder("auto (pw-play, paplay, aplay, afplay)")

	form := container.NewVBox(
		widget.NewLabelWithStyle("Default workout", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewForm(
			widget.NewFormItem("Work (sec)", prefs.work),
			widget.NewFormItem("Rest (sec)", prefs.rest),
			widget.NewFormItem("Rounds", prefs.rounds),
			widget.NewFormItem("Cycles", prefs.cycles),
			widget.NewFormItem("Cycle Rest (s)", prefs.cycleRest),
			widget.NewFormItem("Prepare (s)", prefs.prepare),
			widget.NewFormItem("Volume", prefs.volume),
			widget.NewFormItem("Name", prefs.name),
		),
		widget.NewLabelWithStyle("General", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewForm(
			widget.NewFormItem("Log level", prefs.logLevel),
			widget.NewFormItem("Routine storage", prefs.driver),
			widget.NewFormItem("Storage path", prefs.storagePath),
			widget.NewFormItem("Audio player", prefs.audioPlayer),
		),
		prefs.wakeLock,
		widget.NewLabel("Storage changes apply on next launch."),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, container.NewVScroll(form)))
	window.Resize(fyne.NewSize(440, 560))

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the settings window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	workout := settings.Workout
	prefs.work.SetText(strconv.Itoa(workout.Work))
	prefs.rest.SetText(strconv.Itoa(workout.Rest))
	prefs.rounds.SetText(strconv.Itoa(workout.Rounds))
	prefs.cycles.SetText(strconv.Itoa(workout.Cycles))
	prefs.cycleRest.SetText(strconv.Itoa(workout.CycleRest))
	prefs.prepare.SetText(strconv.Itoa(workout.Prepare))
	prefs.volume.SetValue(workout.Volume)
	prefs.name.SetText(workout.Name)

	prefs.logLevel.SetSelected(settings.LogLevel)
	prefs.driver.SetSelected(settings.StorageDriver)
	prefs.storagePath.SetText(settings.StoragePath)
	prefs.audioPlayer.SetText(settings.AudioPlayer)
	prefs.wakeLock.SetChecked(settings.WakeLock)
}

// Collect returns the settings currently shown. Unparseable numbers keep
// their previous values.
func (prefs *Window) Collect() Settings {
	settings := prefs.settings
	workout := &settings.Workout

	if value, ok := parseInt(prefs.work.Text, 1); ok {
		workout.Work = value
	}
	if value, ok := parseInt(prefs.rest.Text, 0); ok {
		workout.Rest = value
	}
	if value, ok := parseInt(prefs.rounds.Text, 1); ok {
		workout.Rounds = value
	}
	if value, ok := parseInt(prefs.cycles.Text, 1); ok {
		workout.Cycles = value
	}
	if value, ok := parseInt(prefs.cycleRest.Text, 0); ok {
		workout.CycleRest = value
	}
	if value, ok := parseInt(prefs.prepare.Text, 0); ok {
		workout.Prepare = value
	}
	workout.Volume = prefs.volume.Value
	if prefs.name.Text != "" {
		workout.Name = prefs.name.Text
	}

	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}
	if prefs.driver.Selected != "" {
		settings.StorageDriver = prefs.driver.Selected
	}
	settings.StoragePath = prefs.storagePath.Text
	settings.AudioPlayer = prefs.audioPlayer.Text
	settings.WakeLock = prefs.wakeLock.Checked
	return settings
}

func (prefs *Window) handleSave() {
	settings := prefs.Collect()
	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parseInt(value string, minimum int) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < minimum {
		return 0, false
	}
	return parsed, true
}
