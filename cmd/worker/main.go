package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/alejolo311/CDZGR/internal/config"
	"github.com/alejolo311/CDZGR/internal/db"
	"github.com/alejolo311/CDZGR/internal/integrations"
	"github.com/alejolo311/CDZGR/internal/logging"
	"github.com/alejolo311/CDZGR/internal/mail"
	"github.com/alejolo311/CDZGR/internal/models"
	"github.com/alejolo311/CDZGR/internal/repository"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

const maxSendAttempts = 3

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "worker")
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)
	resend := integrations.NewResendClient(cfg.Mail.ResendAPIKey, cfg.Mail.From, cfg.Mail.ReplyTo)
	// Resend allows a low request rate on the default plan; throttle
	// instead of tripping their 429s.
	sendLimiter := rate.NewLimiter(rate.Limit(2), 1)

	logger.Info("worker_started")
	for {
		if err := repo.RequeueStaleProcessing(ctx, 10*time.Minute); err != nil {
			logger.Warn("requeue_stale_jobs_error", "error", err)
		}
		jobs, err := repo.FetchDueNotificationJobs(ctx, 100)
		if err != nil {
			logger.Error("fetch_jobs_error", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if len(jobs) == 0 {
			time.Sleep(10 * time.Second)
			continue
		}

		for _, job := range jobs {
			if err := sendLimiter.Wait(ctx); err != nil {
				logger.Error("limiter_error", "error", err)
				break
			}
			if err := handleJob(ctx, repo, resend, job, logger); err != nil {
				logger.Error("job_failed", "job_id", job.ID, "error", err)
			}
		}
	}
}

func handleJob(ctx context.Context, repo *repository.Repository, resend *integrations.ResendClient, job models.NotificationJob, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("job_processing", "job_id", job.ID, "kind", job.Kind, "reference", job.Reference, "run_at", job.RunAt)

	to, subject, html, err := buildConfirmationEmail(job)
	if err != nil {
		return repo.UpdateNotificationJobStatus(ctx, job.ID, "failed", job.Attempts+1, err.Error(), nil)
	}

	if sendErr := resend.SendEmail(ctx, to, subject, html); sendErr != nil {
		attempts := job.Attempts + 1
		if attempts >= maxSendAttempts {
			return repo.UpdateNotificationJobStatus(ctx, job.ID, "failed", attempts, sendErr.Error(), nil)
		}
		delay := time.Duration(1<<attempts) * time.Minute
		nextRun := time.Now().Add(delay)
		return repo.UpdateNotificationJobStatus(ctx, job.ID, "pending", attempts, sendErr.Error(), &nextRun)
	}

	if err := repo.UpdateNotificationJobStatus(ctx, job.ID, "sent", job.Attempts, "", nil); err != nil {
		return err
	}
	logger.Info("job_sent", "job_id", job.ID, "kind", job.Kind, "reference", job.Reference, "to", to)
	return nil
}

func buildConfirmationEmail(job models.NotificationJob) (to, subject, html string, err error) {
	switch job.Kind {
	case models.JobKindPaymentConfirmation:
		to = payloadString(job.Payload, "email")
		if to == "" {
			return "", "", "", fmt.Errorf("job %d has no recipient email", job.ID)
		}
		category := payloadString(job.Payload, "categoria")
		subject = mail.ConfirmationSubject(category)
		html = mail.RenderConfirmation(mail.ConfirmationData{
			FirstName:   payloadString(job.Payload, "nombre"),
			LastName:    payloadString(job.Payload, "apellido"),
			Email:       to,
			Category:    category,
			Subcategory: payloadString(job.Payload, "subcategoria"),
			PriceCOP:    payloadInt64(job.Payload, "precio_cop"),
		})
		return to, subject, html, nil
	case models.JobKindGroupPaymentConfirmation:
		to = payloadString(job.Payload, "lider_email")
		if to == "" {
			return "", "", "", fmt.Errorf("job %d has no recipient email", job.ID)
		}
		category := payloadString(job.Payload, "categoria")
		subject = mail.ConfirmationSubject(category)
		html = mail.RenderGroupConfirmation(mail.GroupConfirmationData{
			GroupName:        payloadString(job.Payload, "nombre_grupo"),
			LeaderFirstName:  payloadString(job.Payload, "lider_nombre"),
			LeaderLastName:   payloadString(job.Payload, "lider_apellido"),
			Email:            to,
			Category:         category,
			ParticipantCount: int(payloadInt64(job.Payload, "num_participantes")),
			TotalPriceCOP:    payloadInt64(job.Payload, "precio_total"),
		})
		return to, subject, html, nil
	default:
		return "", "", "", fmt.Errorf("unknown job kind: %s", job.Kind)
	}
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func payloadInt64(payload map[string]interface{}, key string) int64 {
	if payload == nil {
		return 0
	}
	switch value := payload[key].(type) {
	case float64:
		return int64(value)
	case int64:
		return value
	case int:
		return int64(value)
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
