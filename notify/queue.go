package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/rabbitmq/amqp091-go"
)

// emailJob is the queued representation of one outbound email.
type emailJob struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// QueueMailer publishes email jobs to a RabbitMQ queue instead of sending
// them inline. A worker started with StartMailWorker drains the queue, so
// referral mail survives a transient SMTP outage when a broker is configured.
type QueueMailer struct {
	channel *amqp091.Channel
	queue   string
}

// NewQueueMailer declares the mail queue and returns a publisher bound to it.
func NewQueueMailer(conn *amqp091.Connection, queue string) (*QueueMailer, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &QueueMailer{channel: channel, queue: queue}, nil
}

func (q *QueueMailer) SendHTMLEmail(to, subject, htmlBody string) error {
	body, err := json.Marshal(emailJob{To: to, Subject: subject, HTMLBody: htmlBody})
	if err != nil {
		return err
	}

	message := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
	}

	if err := q.channel.PublishWithContext(context.Background(), "", q.queue, false, false, message); err != nil {
		return fmt.Errorf("failed to publish mail job: %w", err)
	}
	return nil
}

// StartMailWorker consumes queued email jobs and delivers them through the
// given sender. Failed deliveries are requeued once by the broker (reject
// with requeue on first failure, drop on redelivery to avoid poison loops).
func StartMailWorker(ctx context.Context, conn *amqp091.Connection, queue string, sender Mailer) error {
	channel, err := conn.Channel()
	if err != nil {
		return err
	}
	deliveries, err := channel.Consume(queue, "mail-worker", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = channel.Close()
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var job emailJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("mail worker: dropping malformed job: %v", err)
					_ = d.Reject(false)
					continue
				}
				if err := sender.SendHTMLEmail(job.To, job.Subject, job.HTMLBody); err != nil {
					log.Printf("mail worker: delivery to %s failed: %v", job.To, err)
					_ = d.Reject(!d.Redelivered)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()
	return nil
}
