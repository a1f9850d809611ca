// Package notify surfaces desktop notifications for the bridge's lifecycle
// events: lock, unlock, timeout auto-unlock, controller connect and
// disconnect, and fatal errors.
package notify

import (
	"sync"

	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("notify")

// Level maps a notification to the desktop's urgency, icon, and timeout.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelCritical
)

// rendering is the per-level urgency/icon/timeout table.
type rendering struct {
	urgency   string
	icon      string
	timeoutMs int
}

var renderings = map[Level]rendering{
	LevelInfo:     {urgency: "normal", icon: "dialog-information", timeoutMs: 5000},
	LevelWarning:  {urgency: "normal", icon: "dialog-warning", timeoutMs: 8000},
	LevelCritical: {urgency: "critical", icon: "dialog-error", timeoutMs: 0}, // sticky
}

// Notification is one message destined for the seated user.
type Notification struct {
	Title string
	Body  string
	Level Level
}

// Sink receives notifications. The default sink shells out to the
// platform's notification tool; tests substitute their own.
type Sink func(n Notification)

var (
	mu   sync.RWMutex
	sink Sink = platformSink
)

// SetSink replaces the delivery mechanism, returning the previous sink.
func SetSink(s Sink) Sink {
	mu.Lock()
	defer mu.Unlock()
	prev := sink
	if s == nil {
		s = platformSink
	}
	sink = s
	return prev
}

func deliver(n Notification) {
	mu.RLock()
	s := sink
	mu.RUnlock()
	s(n)
}

// Named convenience wrappers for every lifecycle event the bridge reports.

func InputLocked() {
	deliver(Notification{
		Title: "Remote control active",
		Body:  "Your keyboard and mouse are temporarily controlled remotely. Press Ctrl+Alt+Shift+U to take back control.",
		Level: LevelWarning,
	})
}

func InputUnlocked() {
	deliver(Notification{
		Title: "Control returned",
		Body:  "Your keyboard and mouse are back under your control.",
		Level: LevelInfo,
	})
}

func LockTimeout() {
	deliver(Notification{
		Title: "Remote control timed out",
		Body:  "The input lock exceeded its time limit and was released automatically.",
		Level: LevelWarning,
	})
}

func EmergencyUnlock() {
	deliver(Notification{
		Title: "Emergency unlock",
		Body:  "Input control was forcibly returned to you.",
		Level: LevelCritical,
	})
}

func ControllerConnected(agentID string) {
	deliver(Notification{
		Title: "Controller connected",
		Body:  "A remote controller is now attached to this workstation (session " + agentID + ").",
		Level: LevelInfo,
	})
}

func ControllerDisconnected() {
	deliver(Notification{
		Title: "Controller disconnected",
		Body:  "The remote controller detached. Input is unlocked.",
		Level: LevelInfo,
	})
}

func FatalError(message string) {
	deliver(Notification{
		Title: "Bridge error",
		Body:  message,
		Level: LevelCritical,
	})
}

// Event dispatches a lifecycle event by name, the shape the inputlock
// controller's NotifyFunc expects.
func Event(event string) {
	switch event {
	case "lock":
		InputLocked()
	case "unlock":
		InputUnlocked()
	case "lock_timeout":
		LockTimeout()
	case "emergency_unlock":
		EmergencyUnlock()
	case "error":
		FatalError("input lock transition failed")
	default:
		log.Debug("unknown notification event", "event", event)
	}
}
