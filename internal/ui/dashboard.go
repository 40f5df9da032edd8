// Package ui renders the terminal dashboard: workout selection, the live
// session view and coach captions.
package ui

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/fitcue/fitcue/internal/coach"
	"github.com/fitcue/fitcue/internal/events"
	"github.com/fitcue/fitcue/internal/runutil"
	"github.com/fitcue/fitcue/internal/voice"
)

// Page names for tview.Pages
const (
	pageWorkoutSelection = "workout_selection"
	pageSession          = "session"
)

// Session is the engine surface the dashboard drives.
type Session interface {
	Start(w *coach.Workout) error
	MarkReady()
	Pause()
	Resume()
	AdjustIntensity(easier bool)
	Stop()
}

// SessionStarted is invoked when the user picks a workout, before the
// session starts. The composition root hooks music playback and prefs here.
type SessionStarted func(w *coach.Workout)

// Dashboard is the tview terminal UI.
type Dashboard struct {
	logger   *log.Logger
	app      *tview.Application
	session  Session
	workouts []coach.Workout
	onStart  SessionStarted

	pages *tview.Pages

	// Workout Selection page components
	workoutList  *tview.List
	detailsPanel *tview.TextView
	statsPanel   *tview.TextView

	// Session page components
	statusPanel   *tview.TextView
	captionPanel  *tview.TextView
	progressPanel *tview.TextView
	logView       *tview.TextView

	snap coach.Snapshot
}

// NewDashboard builds the widget tree. Run starts the event loop.
func NewDashboard(logger *log.Logger, session Session, workouts []coach.Workout, onStart SessionStarted) *Dashboard {
	d := &Dashboard{
		logger:   logger,
		app:      tview.NewApplication(),
		session:  session,
		workouts: workouts,
		onStart:  onStart,
	}
	d.initWorkoutSelectionPage()
	d.initSessionPage()

	d.pages = tview.NewPages()
	d.pages.AddPage(pageWorkoutSelection, d.workoutSelectionLayout(), true, true)
	d.pages.AddPage(pageSession, d.sessionLayout(), true, false)
	d.setupKeyboardHandlers()
	d.app.SetRoot(d.pages, true)
	return d
}

// LogWriter exposes the on-screen log panel as a writer, so the application
// logger can tee into it.
func (d *Dashboard) LogWriter() io.Writer {
	return d.logView
}

// SetStatsLine shows history stats (streak, lifetime totals) on the
// selection page.
func (d *Dashboard) SetStatsLine(line string) {
	d.statsPanel.SetText(" " + line)
}

func (d *Dashboard) initWorkoutSelectionPage() {
	d.workoutList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			d.startWorkout(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			d.updateWorkoutDetails(index)
		})
	d.workoutList.SetBorder(true).SetTitle(" Workouts ")
	for _, w := range d.workouts {
		d.workoutList.AddItem(w.Title, formatDuration(w.TotalDuration()), 0, nil)
	}

	d.detailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	d.detailsPanel.SetBorder(true).SetTitle(" Details ")
	d.updateWorkoutDetails(0)

	d.statsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	d.statsPanel.SetBorder(true).SetTitle(" Progress ")
}

func (d *Dashboard) workoutSelectionLayout() *tview.Flex {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText("[yellow]Enter[white] Start Workout  |  [yellow]Esc[white] Quit")

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(d.detailsPanel, 0, 3, false).
		AddItem(d.statsPanel, 4, 0, false)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(d.workoutList, 0, 1, true).
		AddItem(right, 0, 1, false)

	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 1, 0, false).
		AddItem(body, 0, 1, true)
}

func (d *Dashboard) initSessionPage() {
	d.statusPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	d.statusPanel.SetBorder(true).SetTitle(" Session ")

	d.captionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	d.captionPanel.SetBorder(true).SetTitle(" Coach ")

	d.progressPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	d.progressPanel.SetBorder(true).SetTitle(" Progress ")

	// Don't use SetChangedFunc with app.Draw() here: it can hang during
	// shutdown when log lines arrive after the app stopped. Snapshot
	// updates already redraw.
	d.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	d.logView.SetBorder(true).SetTitle(" Logs ")
}

func (d *Dashboard) sessionLayout() *tview.Flex {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText("[yellow]Space[white] Ready / Pause  |  [yellow]-[white] Easier  |  [yellow]+[white] Harder  |  [yellow]X[white] End  |  [yellow]Esc[white] Quit")

	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(d.statusPanel, 0, 3, false).
		AddItem(d.captionPanel, 5, 0, false).
		AddItem(d.progressPanel, 6, 0, false)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(left, 0, 2, true).
		AddItem(d.logView, 0, 1, false)

	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 1, 0, false).
		AddItem(body, 0, 1, true)
}

func (d *Dashboard) setupKeyboardHandlers() {
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			d.session.Stop()
			d.app.Stop()
			return nil
		}

		page, _ := d.pages.GetFrontPage()
		if page != pageSession {
			return event
		}

		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case ' ':
				d.onSpaceKey()
				return nil
			case '-':
				d.session.AdjustIntensity(true)
				return nil
			case '+', '=':
				d.session.AdjustIntensity(false)
				return nil
			case 'x', 'X':
				d.session.Stop()
				d.showSelectionPage()
				return nil
			}
		}
		return event
	})
}

// onSpaceKey is context sensitive: ready-up while preparing, pause/resume
// while running.
func (d *Dashboard) onSpaceKey() {
	switch {
	case d.snap.Phase == coach.PhaseAwaitingReady:
		d.session.MarkReady()
	case d.snap.Paused:
		d.session.Resume()
	case d.snap.Phase == coach.PhaseExercise || d.snap.Phase == coach.PhaseRest:
		d.session.Pause()
	}
}

func (d *Dashboard) startWorkout(index int) {
	if index < 0 || index >= len(d.workouts) {
		return
	}
	w := &d.workouts[index]
	if d.onStart != nil {
		d.onStart(w)
	}
	if err := d.session.Start(w); err != nil {
		d.logger.Printf("UI: start %q failed: %v", w.Title, err)
		return
	}
	d.pages.SwitchToPage(pageSession)
}

func (d *Dashboard) showSelectionPage() {
	d.pages.SwitchToPage(pageWorkoutSelection)
	d.app.SetFocus(d.workoutList)
}

func (d *Dashboard) updateWorkoutDetails(index int) {
	if d.detailsPanel == nil {
		return
	}
	if index < 0 || index >= len(d.workouts) {
		d.detailsPanel.SetText("\n  Select a workout to view details.")
		return
	}
	w := d.workouts[index]
	var b strings.Builder
	fmt.Fprintf(&b, "\n  [yellow]%s[white]\n\n", w.Title)
	fmt.Fprintf(&b, "  [gray]Duration:[white] %s\n", formatDuration(w.TotalDuration()))
	fmt.Fprintf(&b, "  [gray]Exercises:[white] %d\n\n", len(w.Exercises))
	for i, ex := range w.Exercises {
		fmt.Fprintf(&b, "    %d. %s  %ds", i+1, ex.Name, int(ex.Duration.Seconds()))
		if ex.RestDuration > 0 && i < len(w.Exercises)-1 {
			fmt.Fprintf(&b, " (+%ds rest)", int(ex.RestDuration.Seconds()))
		}
		b.WriteByte('\n')
	}
	b.WriteString("\n  [green]Press Enter to start this workout[white]\n")
	d.detailsPanel.SetText(b.String())
}

// Run subscribes to engine snapshots and coach captions, then blocks in the
// tview event loop until the user quits.
func (d *Dashboard) Run(snapshots *events.ChannelEvent[coach.Snapshot], speaking *events.CallbackEvent[voice.SpeakingEvent]) error {
	snapChan := make(chan coach.Snapshot, 16)
	unsubSnap := snapshots.Listen(snapChan)
	defer unsubSnap()

	unsubSpeak := speaking.Listen(func(ev voice.SpeakingEvent) {
		d.app.QueueUpdateDraw(func() { d.updateCaption(ev) })
	})
	defer unsubSpeak()

	done := make(chan struct{})
	defer close(done)
	runutil.SafeGo(d.logger, func() {
		for {
			select {
			case <-done:
				return
			case snap := <-snapChan:
				d.app.QueueUpdateDraw(func() { d.applySnapshot(snap) })
			}
		}
	})

	return d.app.Run()
}

// Stop ends the tview event loop.
func (d *Dashboard) Stop() {
	d.app.Stop()
}

func (d *Dashboard) applySnapshot(snap coach.Snapshot) {
	d.snap = snap
	d.updateStatusDisplay(snap)
	d.updateProgressDisplay(snap)
	if snap.Phase == coach.PhaseComplete {
		d.captionPanel.SetText("\n[green]Workout complete![white]")
		d.showSelectionPage()
	}
}

func (d *Dashboard) updateStatusDisplay(snap coach.Snapshot) {
	var b strings.Builder
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  [yellow]%s[white]\n\n", snap.WorkoutTitle)

	phaseLabel := snap.Phase.String()
	if snap.Paused {
		phaseLabel += " [red](paused)[white]"
	}
	fmt.Fprintf(&b, "  [gray]Phase:[white] %s\n", phaseLabel)
	fmt.Fprintf(&b, "  [gray]Exercise:[white] %s", snap.ExerciseName)
	if snap.NextExerciseName != "" {
		fmt.Fprintf(&b, "   [gray]next:[white] %s", snap.NextExerciseName)
	}
	b.WriteString("\n\n")

	switch snap.Phase {
	case coach.PhaseAwaitingReady:
		b.WriteString("  [green]Press Space when you're in position.[white]\n")
	case coach.PhaseExercise, coach.PhaseRest:
		fmt.Fprintf(&b, "  %s\n", timeGauge(snap.Elapsed, snap.Planned))
		fmt.Fprintf(&b, "  [gray]Remaining:[white] %s\n", formatClock(snap.Remaining))
	}
	d.statusPanel.SetText(b.String())
}

func (d *Dashboard) updateProgressDisplay(snap coach.Snapshot) {
	var b strings.Builder
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  [gray]Exercises:[white] %d/%d\n", snap.CompletedExercises, snap.TotalExercises)
	switch {
	case snap.Intensity < 0:
		fmt.Fprintf(&b, "  [gray]Intensity:[white] easier (%d)\n", snap.Intensity)
	case snap.Intensity > 0:
		fmt.Fprintf(&b, "  [gray]Intensity:[white] harder (+%d)\n", snap.Intensity)
	default:
		b.WriteString("  [gray]Intensity:[white] standard\n")
	}
	d.progressPanel.SetText(b.String())
}

func (d *Dashboard) updateCaption(ev voice.SpeakingEvent) {
	if !ev.Speaking {
		return
	}
	d.captionPanel.SetText(fmt.Sprintf("\n[aqua]%s[white]", ev.Text))
}

// timeGauge renders elapsed/planned as a fixed-width bar.
func timeGauge(elapsed, planned time.Duration) string {
	const width = 30
	filled := 0
	if planned > 0 {
		filled = int(float64(width) * float64(elapsed) / float64(planned))
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[green]" + strings.Repeat("█", filled) + "[gray]" + strings.Repeat("░", width-filled) + "[white]"
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 {
		hours := minutes / 60
		mins := minutes % 60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if minutes < 1 {
		return fmt.Sprintf("%d sec", int(d.Seconds()))
	}
	return fmt.Sprintf("%d min", minutes)
}
