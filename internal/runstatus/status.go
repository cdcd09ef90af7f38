package runstatus

import "strings"

const (
	Idle     = "Idle"
	Starting = "Starting"
	Watching = "Watching"
	Stopping = "Stopping"
	Stopped  = "Stopped"
	Error    = "Error"
)

const (
	KeyIdle     = "idle"
	KeyStarting = "starting"
	KeyWatching = "watching"
	KeyStopping = "stopping"
	KeyStopped  = "stopped"
	KeyError    = "error"
)

func Key(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
