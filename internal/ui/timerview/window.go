package timerview

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"gymtimer/internal/core/model"
	"gymtimer/internal/core/timekeeper"
	"gymtimer/internal/ui/view"
)

// Controller is the part of the TimeKeeper the window drives.
type Controller interface {
	Snapshot() timekeeper.Snapshot
	Toggle()
	Reset()
	UpdateConfig(field model.Field, raw string) error
	SaveRoutine(ctx context.Context) (model.Routine, error)
	LoadRoutine(id int64) error
	DeleteRoutine(ctx context.Context, id int64) error
}

const (
	ringSide       = float32(280)
	storageTimeout = 5 * time.Second
)

// Window is the main timer window.
type Window struct {
	window     fyne.Window
	controller Controller
	log        zerolog.Logger

	ring       view.Ring
	ringRaster *canvas.Raster
	titleText  *canvas.Text
	timeText   *canvas.Text
	phaseText  *canvas.Text
	counters   *widget.Label

	toggleButton   *widget.Button
	resetButton    *widget.Button
	settingsButton *widget.Button

	settingsPanel *fyne.Container
	entries       map[model.Field]*widget.Entry
	volumeLabel   *widget.Label
	volume        *widget.Slider
	routineList   *fyne.Container
	routines      []model.Routine
	syncing       bool
}

// New builds the timer window for controller.
func New(app fyne.App, title string, controller Controller, log zerolog.Logger) *Window {
	timer := &Window{
		window:     app.NewWindow(title),
		controller: controller,
		log:        log.With().Str("component", "timerview").Logger(),
		entries:    make(map[model.Field]*widget.Entry),
	}
	if app.Icon() != nil {
		timer.window.SetIcon(app.Icon())
	}

	timer.ringRaster = canvas.NewRasterWithPixels(func(x, y, w, h int) color.Color {
		return timer.ring.Pixel(x, y, w, h)
	})
	timer.ringRaster.SetMinSize(fyne.NewSize(ringSide, ringSide))

	timer.titleText = canvas.NewText("", color.NRGBA{R: 255, G: 255, B: 255, A: 200})
	timer.titleText.Alignment = fyne.TextAlignCenter
	timer.titleText.TextSize = 16

	timer.timeText = canvas.NewText("0:00", color.White)
	timer.timeText.Alignment = fyne.TextAlignCenter
	timer.timeText.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timer.timeText.TextSize = 56

	timer.phaseText = canvas.NewText("", color.NRGBA{R: 255, G: 255, B: 255, A: 220})
	timer.phaseText.Alignment = fyne.TextAlignCenter
	timer.phaseText.TextStyle = fyne.TextStyle{Bold: true}
	timer.phaseText.TextSize = 18

	timer.counters = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Monospace: true})

	timer.toggleButton = widget.NewButton("START", controller.Toggle)
	timer.toggleButton.Importance = widget.HighImportance
	timer.resetButton = widget.NewButton("RESET", controller.Reset)
	timer.settingsButton = widget.NewButton("Settings", timer.toggleSettings)

	face := container.NewVBox(timer.timeText, timer.phaseText, timer.counters)
	dial := container.New(&ringLayout{}, timer.ringRaster, face)
	controls := container.NewHBox(layout.NewSpacer(), timer.toggleButton, timer.resetButton, timer.settingsButton, layout.NewSpacer())

	timer.settingsPanel = timer.buildSettings()
	timer.settingsPanel.Hide()

	content := container.NewVBox(timer.titleText, dial, controls, timer.settingsPanel)
	timer.window.SetContent(container.NewVScroll(content))
	timer.window.Resize(fyne.NewSize(420, 520))

	timer.Apply(controller.Snapshot())
	return timer
}

// Window returns the underlying Fyne window.
func (timer *Window) Window() fyne.Window {
	return timer.window
}

// Show raises the window.
func (timer *Window) Show() {
	timer.window.Show()
	timer.window.RequestFocus()
}

// Watch renders every event until events is closed.
func (timer *Window) Watch(events <-chan timekeeper.Event) {
	for event := range events {
		snapshot := event.Snapshot
		fyne.Do(func() {
			timer.Apply(snapshot)
		})
	}
}

// Apply renders snapshot. It must run on the UI goroutine.
func (timer *Window) Apply(snapshot timekeeper.Snapshot) {
	frame := view.Build(snapshot.Config, snapshot.State)

	timer.ring = view.Ring{
		Progress:  frame.Progress,
		Color:     frame.RingColor,
		Glow:      frame.Glow,
		GlowColor: frame.GlowColor,
	}
	timer.ringRaster.Refresh()

	timer.titleText.Text = frame.Title
	timer.titleText.Refresh()
	timer.timeText.Text = frame.Time
	timer.timeText.Refresh()
	timer.phaseText.Text = frame.PhaseLabel
	timer.phaseText.Color = frame.RingColor
	timer.phaseText.Refresh()
	if frame.Counters == nil {
		timer.counters.Hide()
	} else {
		timer.counters.SetText(frame.Counters[0] + "\n" + frame.Counters[1])
		timer.counters.Show()
	}

	timer.toggleButton.SetText(frame.ToggleLabel)
	if frame.ResetVisible {
		timer.resetButton.Show()
	} else {
		timer.resetButton.Hide()
	}

	timer.window.SetTitle(view.Status(snapshot.Config, snapshot.State))
	timer.syncSettings(snapshot.Config, snapshot.State)
	timer.syncRoutines(snapshot.Routines)
}

func (timer *Window) buildSettings() *fyne.Container {
	form := widget.NewForm()
	for _, field := range model.Fields {
		if field == model.FieldVolume {
			continue
		}
		entry := widget.NewEntry()
		if field == model.FieldName {
			entry.SetPlaceHolder("e.g. Legs")
		}
		entry.OnChanged = func(text string) {
			timer.edit(field, text)
		}
		timer.entries[field] = entry
		form.Append(view.FieldLabel(field), entry)
	}

	timer.volumeLabel = widget.NewLabel(view.VolumeLabel(0))
	timer.volume = widget.NewSlider(0, 1)
	timer.volume.Step = 0.1
	timer.volume.OnChanged = func(value float64) {
		timer.volumeLabel.SetText(view.VolumeLabel(value))
		timer.edit(model.FieldVolume, strconv.FormatFloat(value, 'f', -1, 64))
	}

	saveButton := widget.NewButton("SAVE ROUTINE", timer.saveRoutine)
	timer.routineList = container.NewVBox()

	return container.NewVBox(
		widget.NewSeparator(),
		timer.volumeLabel,
		timer.volume,
		form,
		saveButton,
		timer.routineList,
	)
}

func (timer *Window) toggleSettings() {
	if timer.settingsPanel.Visible() {
		timer.settingsPanel.Hide()
		return
	}
	timer.settingsPanel.Show()
}

func (timer *Window) edit(field model.Field, raw string) {
	if timer.syncing {
		return
	}
	err := timer.controller.UpdateConfig(field, raw)
	if err == nil {
		return
	}
	if errors.Is(err, timekeeper.ErrConfigLocked) {
		snapshot := timer.controller.Snapshot()
		timer.syncSettings(snapshot.Config, snapshot.State)
		return
	}
	timer.log.Warn().Err(err).Str("field", string(field)).Msg("config edit rejected")
}

// syncSettings copies config into the form without echoing edits back.
func (timer *Window) syncSettings(config model.Config, state model.RunState) {
	timer.syncing = true
	defer func() { timer.syncing = false }()

	for field, entry := range timer.entries {
		if FormValue(config, field, entry.Text) != config.Value(field) {
			entry.SetText(config.Value(field))
		}
		if state.Editable(field) {
			entry.Enable()
		} else {
			entry.Disable()
		}
	}
	if timer.volume.Value != config.Volume {
		timer.volume.SetValue(config.Volume)
	}
	if state.Editable(model.FieldVolume) {
		timer.volume.Enable()
	} else {
		timer.volume.Disable()
	}
	timer.volumeLabel.SetText(view.VolumeLabel(config.Volume))
}

func (timer *Window) syncRoutines(routines []model.Routine) {
	if slices.Equal(routines, timer.routines) {
		return
	}
	timer.routines = slices.Clone(routines)
	timer.routineList.RemoveAll()
	if len(routines) == 0 {
		return
	}
	timer.routineList.Add(widget.NewLabelWithStyle("Saved Routines", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	for _, routine := range routines {
		id := routine.ID
		name := widget.NewLabelWithStyle(routine.Name, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
		details := widget.NewLabel(view.RoutineDetails(routine.Config))
		load := widget.NewButton("Load", func() {
			if err := timer.controller.LoadRoutine(id); err != nil {
				timer.showError("load routine", err)
			}
		})
		remove := widget.NewButton("✕", func() {
			timer.deleteRoutine(id)
		})
		timer.routineList.Add(container.NewHBox(container.NewVBox(name, details), layout.NewSpacer(), load, remove))
	}
}

func (timer *Window) saveRoutine() {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if _, err := timer.controller.SaveRoutine(ctx); err != nil {
		timer.showError("save routine", err)
	}
}

func (timer *Window) deleteRoutine(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := timer.controller.DeleteRoutine(ctx, id); err != nil {
		timer.showError("delete routine", err)
	}
}

func (timer *Window) showError(action string, err error) {
	timer.log.Warn().Err(err).Msg(action + " failed")
	dialog.ShowError(err, timer.window)
}

// FormValue is the config value text would produce for field, used to decide
// whether a form entry already shows config.
func FormValue(config model.Config, field model.Field, text string) string {
	applied, err := config.Apply(field, text)
	if err != nil {
		return text
	}
	return applied.Value(field)
}

// ringLayout keeps the ring square and centred with the face over it.
type ringLayout struct{}

func (*ringLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	ring := objects[0]
	face := objects[1]

	side := size.Width
	if size.Height < side {
		side = size.Height
	}
	ring.Move(fyne.NewPos((size.Width-side)/2, (size.Height-side)/2))
	ring.Resize(fyne.NewSize(side, side))

	faceSize := face.MinSize()
	face.Move(fyne.NewPos((size.Width-faceSize.Width)/2, (size.Height-faceSize.Height)/2))
	face.Resize(faceSize)
}

func (*ringLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 2 {
		return fyne.NewSize(0, 0)
	}
	side := ringSide
	faceSize := objects[1].MinSize()
	if faceSize.Width > side {
		side = faceSize.Width
	}
	if faceSize.Height > side {
		side = faceSize.Height
	}
	return fyne.NewSize(side, side)
}
