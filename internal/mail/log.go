// Package mail delivers account emails.
package mail

import (
	"context"

	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
)

var _ model.Mailer = (*LogMailer)(nil)

// LogMailer writes outgoing messages to the log instead of sending them.
// It stands in for a real provider in development deployments.
type LogMailer struct {
	logger *logger.Logger
	link   string
}

// NewLogMailer returns a mailer whose verification messages point at link,
// with the token appended as a query parameter.
func NewLogMailer(l *logger.Logger, link string) *LogMailer {
	return &LogMailer{logger: l, link: link}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, token string) error {
	m.logger.InfoContext(ctx, "Mail service: verification message",
		"to", email,
		"link", m.link+"?token="+token,
	)
	return nil
}
