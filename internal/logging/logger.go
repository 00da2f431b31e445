package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log
// aggregation. Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithJob returns a logger with job context fields attached. Use this for
// all logging inside a job execution.
func WithJob(jobID string, agent string, userID string) *slog.Logger {
	return slog.With(
		"job_id", jobID,
		"agent", agent,
		"user_id", userID,
	)
}

// WithUser returns a logger scoped to one user's cascade.
func WithUser(userID string) *slog.Logger {
	return slog.With("user_id", userID)
}

var securityLog *logrus.Logger

// Security returns the audit logger for security events (time-lock
// violations, ownership rejections). Kept separate from application logs so
// the audit trail survives log-level changes.
func Security() *logrus.Logger {
	if securityLog == nil {
		securityLog = logrus.New()
		securityLog.SetFormatter(&logrus.JSONFormatter{})
		securityLog.SetLevel(logrus.InfoLevel)
	}
	return securityLog
}
