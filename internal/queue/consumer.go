// Package queue contains the background consumer that listens to the
// slot.capacity_released queue and writes structured logs to
// logs/notifications.log.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const capacityQueueName = "slot.capacity_released"

// StartCapacityConsumer connects to the RabbitMQ broker at url, declares
// the slot.capacity_released queue (durable), and starts consuming
// messages. Each message is appended to logs/notifications.log in a
// single-line, human-friendly format. The function runs a reconnect
// loop; it keeps running and logs any processing errors while rejecting
// the offending message so the server continues operating.
func StartCapacityConsumer(url string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("capacity-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("capacity-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("capacity-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(capacityQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(capacityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("capacity-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev CapacityReleasedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "notifications.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	recipients := "[]"
	if len(ev.Recipients) > 0 {
		recipients = fmt.Sprintf("[%s]", strings.Join(ev.Recipients, ","))
	}

	line := fmt.Sprintf("[%s] Capacity released | kind=%s | slot_id=%d | trainer=%s | training=%q | date=%s %s | recipients=%s\n",
		ev.OccurredAt, ev.Kind, ev.SlotID, ev.TrainerLogin, ev.Description, ev.SlotDate, ev.StartTime, recipients)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
