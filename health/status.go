package health

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/c360/logdash/natsclient"
	"github.com/c360/logdash/stream"
)

// Status levels.
const (
	LevelHealthy   = "healthy"
	LevelDegraded  = "degraded"
	LevelUnhealthy = "unhealthy"
)

var (
	httpURLRegex     = regexp.MustCompile(`https?://[^\s]+`)
	natsURLRegex     = regexp.MustCompile(`nats://[^\s]+`)
	wsURLRegex       = regexp.MustCompile(`wss?://[^\s]+`)
	unixPathRegex    = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	windowsPathRegex = regexp.MustCompile(`[A-Z]:\\[^:\s]+`)
	ipAddrRegex      = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex        = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex  = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status is the health of a component or of the whole process.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics are counters attached to a component status.
type Metrics struct {
	Connects     int64 `json:"connects,omitempty"`
	Attempts     int64 `json:"attempts,omitempty"`
	Messages     int64 `json:"messages,omitempty"`
	DecodeErrors int64 `json:"decode_errors,omitempty"`
}

// IsHealthy reports a healthy status.
func (s Status) IsHealthy() bool { return s.Status == LevelHealthy }

// IsDegraded reports a degraded status.
func (s Status) IsDegraded() bool { return s.Status == LevelDegraded }

// IsUnhealthy reports an unhealthy status.
func (s Status) IsUnhealthy() bool { return s.Status == LevelUnhealthy }

// WithSubStatus returns a copy of s with sub appended.
func (s Status) WithSubStatus(sub Status) Status {
	subs := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(subs, s.SubStatuses)
	s.SubStatuses = append(subs, sub)
	return s
}

func newStatus(component, level, message string) Status {
	return Status{
		Component: component,
		Healthy:   level == LevelHealthy,
		Status:    level,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy creates a healthy status.
func NewHealthy(component, message string) Status {
	return newStatus(component, LevelHealthy, message)
}

// NewDegraded creates a degraded status.
func NewDegraded(component, message string) Status {
	return newStatus(component, LevelDegraded, message)
}

// NewUnhealthy creates an unhealthy status.
func NewUnhealthy(component, message string) Status {
	return newStatus(component, LevelUnhealthy, message)
}

// Aggregate combines sub-statuses: any unhealthy makes the result
// unhealthy, otherwise any degraded makes it degraded.
func Aggregate(component string, subs []Status) Status {
	if len(subs) == 0 {
		return NewHealthy(component, "No components registered")
	}

	var unhealthy, degraded int
	for _, sub := range subs {
		switch {
		case sub.IsUnhealthy():
			unhealthy++
		case sub.IsDegraded():
			degraded++
		}
	}

	var status Status
	switch {
	case unhealthy > 0:
		status = NewUnhealthy(component, fmt.Sprintf("%d of %d components unhealthy", unhealthy, len(subs)))
	case degraded > 0:
		status = NewDegraded(component, fmt.Sprintf("%d of %d components degraded", degraded, len(subs)))
	default:
		status = NewHealthy(component, "All components healthy")
	}
	status.SubStatuses = append([]Status(nil), subs...)
	return status
}

// FromStream maps stream client stats to a status.
func FromStream(component string, stats stream.Stats) Status {
	var status Status
	switch stats.State {
	case stream.StateOpen:
		status = NewHealthy(component, "Stream connected")
	case stream.StateConnecting, stream.StateClosed:
		msg := "Stream connecting"
		if stats.Connects > 0 {
			msg = fmt.Sprintf("Stream reconnecting, next attempt in %s", stats.NextBackoff)
		}
		status = NewDegraded(component, msg)
	case stream.StateError:
		status = NewUnhealthy(component, fmt.Sprintf("Stream connection failed after %d attempts", stats.Attempts))
	default:
		status = NewUnhealthy(component, "Stream shut down")
	}
	status.Metrics = &Metrics{
		Connects:     stats.Connects,
		Attempts:     stats.Attempts,
		Messages:     stats.Messages,
		DecodeErrors: stats.DecodeErrors,
	}
	return status
}

// FromNATS maps a NATS connection status to a status.
func FromNATS(component string, s natsclient.ConnectionStatus) Status {
	switch s {
	case natsclient.StatusConnected:
		return NewHealthy(component, "NATS connected")
	case natsclient.StatusConnecting, natsclient.StatusReconnecting:
		return NewDegraded(component, "NATS "+s.String())
	default:
		return NewUnhealthy(component, "NATS "+s.String())
	}
}

// FromQueryError maps the error of the latest query to a status. Failed
// queries degrade the component; the message is sanitized.
func FromQueryError(component, queryErr string) Status {
	if queryErr == "" {
		return NewHealthy(component, "Last query succeeded")
	}
	return NewDegraded(component, sanitizeErrorMessage(queryErr))
}

// sanitizeErrorMessage masks URLs, paths, addresses, ports and
// credential-looking pairs.
func sanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	s := httpURLRegex.ReplaceAllString(msg, "[URL]")
	s = natsURLRegex.ReplaceAllString(s, "[URL]")
	s = wsURLRegex.ReplaceAllString(s, "[URL]")
	s = unixPathRegex.ReplaceAllString(s, "[PATH]")
	s = windowsPathRegex.ReplaceAllString(s, "[PATH]")
	s = ipAddrRegex.ReplaceAllString(s, "[IP]")
	s = portRegex.ReplaceAllString(s, "[PORT]")

	lower := strings.ToLower(s)
	for _, word := range []string{"password", "token", "key", "secret", "credential"} {
		if strings.Contains(lower, word) {
			s = credentialRegex.ReplaceAllString(s, "[REDACTED]")
			break
		}
	}
	return s
}
