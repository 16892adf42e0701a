package queue

import (
	"github.com/maheshrc27/crosspost-api/internal/service"
)

// Queue processes background tasks with the services they need.
type Queue struct {
	mail service.MailService
}

func NewQueue(mail service.MailService) *Queue {
	return &Queue{
		mail: mail,
	}
}

const TaskTypeSendMail = "mail:send"

const mailMaxRetry = 3
