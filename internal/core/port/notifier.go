package port

import "context"

// Severity classifies a user-facing notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Notifier delivers user-facing messages. The IDE shows these in its
// notification area; the headless backend logs them.
type Notifier interface {
	Notify(ctx context.Context, sev Severity, message string)
}
