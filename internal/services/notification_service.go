package services

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TonyCasey/public-prep-sub002/internal/providers/crm"
)

// NotificationService fans user milestones out to the CRM. Every call is
// best-effort: failures are logged and swallowed so the primary operation
// never fails on CRM trouble.
type NotificationService interface {
	UserRegistered(email string)
	InterviewCompleted(email string, jobTitle string, averageScore float64)
	FirstInterview(email string)
}

type notificationService struct {
	notifier crm.Notifier
	log      *logrus.Logger
	timeout  time.Duration
}

func NewNotificationService(notifier crm.Notifier, log *logrus.Logger) NotificationService {
	return &notificationService{notifier: notifier, log: log, timeout: 10 * time.Second}
}

// fire delivers the event on a detached context so it survives the request
// that triggered it.
func (s *notificationService) fire(event crm.Event, email string, props map[string]string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, event, email, props); err != nil {
			s.log.WithError(err).WithField("event", string(event)).Warn("crm notify failed")
		}
	}()
}

func (s *notificationService) UserRegistered(email string) {
	s.fire(crm.EventRegistered, email, nil)
}

func (s *notificationService) InterviewCompleted(email string, jobTitle string, averageScore float64) {
	s.fire(crm.EventInterviewCompleted, email, map[string]string{
		"job_title":     jobTitle,
		"average_score": strconv.FormatFloat(averageScore, 'f', 1, 64),
	})
}

func (s *notificationService) FirstInterview(email string) {
	s.fire(crm.EventFirstInterview, email, nil)
}
