// Package notifier publishes ledger notifications to an AMQP broker.
// Delivery (email rendering, sending) is handled by a separate worker
// consuming the queue; the API only publishes. Publishing is strictly
// best-effort: a broker failure is logged and never reaches the ledger.
package notifier

import (
	"context"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type Notifier struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
}

// New connects to the broker and declares a durable direct exchange with
// a bound queue.
func New(url, exchange, queue string) (*Notifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	n := &Notifier{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
	}

	if err := n.setup(); err != nil {
		n.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return n, nil
}

func (n *Notifier) setup() error {
	err := n.channel.ExchangeDeclare(
		n.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = n.channel.QueueDeclare(
		n.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = n.channel.QueueBind(
		n.queue,    // queue name
		n.queue,    // routing key (same as queue name for direct exchange)
		n.exchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// NotifyTransfer publishes a transfer-completed message for both parties.
// The ledger operation has already committed; errors are only logged.
func (n *Notifier) NotifyTransfer(ctx context.Context, transfer *model.Transfer) {
	msg := NewTransferMessage(transfer)
	if err := n.publish(ctx, msg); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"transfer_id": transfer.ID,
		}).Warn("Failed to publish transfer notification")
		return
	}
	logger.Log.WithField("transfer_id", transfer.ID).Info("Published transfer notification")
}

// NotifyExpense publishes an expense-recorded message.
func (n *Notifier) NotifyExpense(ctx context.Context, expense *model.Expense) {
	msg := NewExpenseMessage(expense)
	if err := n.publish(ctx, msg); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"expense_id": expense.ID,
		}).Warn("Failed to publish expense notification")
		return
	}
	logger.Log.WithField("expense_id", expense.ID).Info("Published expense notification")
}

type payload interface {
	ToJSON() ([]byte, error)
}

func (n *Notifier) publish(ctx context.Context, msg payload) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(
		ctx,
		n.exchange, // exchange
		n.queue,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (n *Notifier) Close() {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
}
