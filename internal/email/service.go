package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"parkreserve/internal/logger"
	"parkreserve/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	queueKey   = "emails"
	failedKey  = "emails:failed"
	maxTries   = 3
	retryDelay = 5 * time.Second
)

type EmailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Sender delivers one message.
type Sender interface {
	Deliver(ctx context.Context, job EmailJob) error
}

type Config struct {
	From           string
	FromName       string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPass       string
}

// NewSender picks SendGrid when an API key is configured, SMTP otherwise.
func NewSender(cfg Config) Sender {
	if cfg.SendGridAPIKey != "" {
		return &sendGridSender{
			client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
			from:     cfg.From,
			fromName: cfg.FromName,
		}
	}
	return &smtpSender{
		from:     cfg.From,
		fromName: cfg.FromName,
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		pass:     cfg.SMTPPass,
	}
}

type sendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func (s *sendGridSender) Deliver(ctx context.Context, job EmailJob) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		job.Subject,
		mail.NewEmail(job.Name, job.To),
		job.Body,
		"",
	)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type smtpSender struct {
	from     string
	fromName string
	host     string
	port     string
	user     string
	pass     string
}

func (s *smtpSender) Deliver(_ context.Context, job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.user != "" && s.pass != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	return smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{job.To}, []byte(message))
}

// Service queues outgoing mail in redis and delivers it from a worker loop.
type Service struct {
	redis      *redis.Client
	sender     Sender
	retryDelay time.Duration
}

func New(rdb *redis.Client, sender Sender) *Service {
	return &Service{
		redis:      rdb,
		sender:     sender,
		retryDelay: retryDelay,
	}
}

func (s *Service) Send(ctx context.Context, emailType, to, name, subject, body string) error {
	job := EmailJob{
		Type:    emailType,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue email", "to", to, "error", err)
		return err
	}

	logger.Debug("email queued", "type", emailType, "to", to)
	return nil
}

// Start runs the delivery loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Warn("email queue read failed", "error", err)
			sleep(ctx, time.Second)
		}
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("dropping malformed email job", "error", err)
		return
	}

	s.deliver(ctx, job)
}

func (s *Service) deliver(ctx context.Context, job EmailJob) {
	job.Tries++
	err := s.sender.Deliver(ctx, job)
	if err == nil {
		metrics.RecordEmail(job.Type, "sent")
		logger.Info("email sent", "type", job.Type, "to", job.To)
		return
	}

	logger.Warn("email delivery failed", "to", job.To, "attempt", job.Tries, "error", err)
	if job.Tries < maxTries {
		metrics.RecordEmail(job.Type, "retry")
		sleep(ctx, s.retryDelay)
		if qerr := s.requeue(job); qerr != nil {
			logger.Error("failed to requeue email", "to", job.To, "attempt", job.Tries, "error", qerr)
		}
		return
	}

	metrics.RecordEmail(job.Type, "failed")
	if ferr := s.saveFailed(job, err); ferr != nil {
		logger.Error("failed to record failed email", "to", job.To, "tries", job.Tries, "error", ferr)
		return
	}
	logger.Error("email moved to failed queue", "to", job.To, "tries", job.Tries)
}

// requeue pushes the job back for another attempt. It uses a fresh context
// so a job in flight during shutdown is not lost.
func (s *Service) requeue(job EmailJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	return s.redis.LPush(context.Background(), queueKey, string(data)).Err()
}

func (s *Service) saveFailed(job EmailJob, cause error) error {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshal failed email: %w", err)
	}
	return s.redis.LPush(context.Background(), failedKey, string(data)).Err()
}

// QueueLength reports the pending jobs and updates the queue gauge. The gauge
// is left untouched when redis cannot be read.
func (s *Service) QueueLength(ctx context.Context) (int64, error) {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		logger.Error("failed to read email queue length", "error", err)
		return 0, err
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length, nil
}

// SendProfileUpdated notifies a user that their profile details changed.
func (s *Service) SendProfileUpdated(ctx context.Context, to, name string) error {
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(`Hi %s,

Your ParkReserve profile was updated on %s.
If you did not make this change, please contact support.

- ParkReserve Team`, name, time.Now().Format("Jan 2, 2006 at 3:04 PM"))

	return s.Send(ctx, "profile_updated", to, name, "Your profile was updated", body)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
