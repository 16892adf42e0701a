package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crosspost-api/internal/service"
)

func (j *Queue) HandleSendMailTask(ctx context.Context, task *asynq.Task) error {
	var mail service.Mail
	if err := json.Unmarshal(task.Payload(), &mail); err != nil {
		slog.Error("invalid mail task payload", "error", err)
		return fmt.Errorf("decode mail payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := j.mail.Send(ctx, &mail); err != nil {
		slog.Error("mail task failed", "template", mail.Template, "error", err)
		return err
	}
	return nil
}

// Register wires the task handlers into mux.
func (j *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeSendMail, j.HandleSendMailTask)
}
