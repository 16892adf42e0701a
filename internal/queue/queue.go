package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crosspost-api/internal/service"
)

func EnqueueMail(ctx context.Context, asynqClient *asynq.Client, mail *service.Mail) error {
	taskPayload, err := json.Marshal(mail)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSendMail, taskPayload, asynq.MaxRetry(mailMaxRetry))

	info, err := asynqClient.EnqueueContext(ctx, task)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("mail task enqueued", "task_id", info.ID, "template", mail.Template)
	return nil
}

type mailQueue struct {
	client *asynq.Client
}

// NewMailQueue returns a MailService that hands mail to the task queue
// instead of sending it inline.
func NewMailQueue(client *asynq.Client) service.MailService {
	return &mailQueue{client: client}
}

func (q *mailQueue) Send(ctx context.Context, mail *service.Mail) error {
	return EnqueueMail(ctx, q.client, mail)
}
