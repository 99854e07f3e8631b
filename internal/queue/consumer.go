package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MailSender delivers a rendered mail. Implemented by the SMTP sender in
// internal/email.
type MailSender interface {
	SendConfirmationMail(to, username, link string) error
	SendPasswordResetMail(to, username, link string) error
}

// StartMailConsumer connects to RabbitMQ, declares the email.outbound queue
// (durable), and starts consuming mail events. The function runs a reconnect
// loop with capped exponential backoff and never returns under normal
// operation; processing errors are logged and the offending message is
// rejected without requeue so a poison payload cannot wedge the queue.
func StartMailConsumer(sender MailSender) error {
	url := BrokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("mail-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, sender); err != nil {
			log.Printf("mail-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, sender MailSender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("mail-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(MailQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(MailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, sender); err != nil {
			log.Printf("mail-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, sender MailSender) error {
	var ev MailRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	switch ev.Kind {
	case MailKindConfirm:
		if err := sender.SendConfirmationMail(ev.To, ev.Username, ev.Link); err != nil {
			return fmt.Errorf("send confirmation to %s: %w", ev.To, err)
		}
	case MailKindReset:
		if err := sender.SendPasswordResetMail(ev.To, ev.Username, ev.Link); err != nil {
			return fmt.Errorf("send reset to %s: %w", ev.To, err)
		}
	default:
		return fmt.Errorf("unknown mail kind %q", ev.Kind)
	}
	return nil
}
