// Package notify provides desktop notifications via D-Bus and announces
// each track when it starts playing.
package notify

const appName = "tapedeck"

// Urgency is the freedesktop notification priority.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // summary, required
	Body       string  // may hold basic markup
	Icon       string  // image path or icon name
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // id of the notification to replace, 0 for a new one
	Urgency    Urgency
	// Transient notifications are not kept in the server history.
	Transient bool
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its id. Notifiers without a server
	// return 0 and no error.
	Notify(n Notification) (uint32, error)
	// Close removes the notification with id.
	Close(id uint32) error
}

// nopNotifier drops every notification.
type nopNotifier struct{}

func (nopNotifier) Notify(Notification) (uint32, error) { return 0, nil }
func (nopNotifier) Close(uint32) error                  { return nil }
