package queue

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, body []byte) error

const retryCountHeader = "x-retry-count"

// ConsumeWithRetry processes deliveries until ctx is done or the channel
// closes. A failed delivery is republished with an incremented retry header;
// once maxRetries is reached it is rejected and dead-lettered.
func (c *Client) ConsumeWithRetry(ctx context.Context, queue string, handler HandlerFunc, maxRetries int, retryDelay time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	msgs, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		var msg amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok = <-msgs:
			if !ok {
				return errors.New("consumer closed")
			}
		}

		err := handler(ctx, msg.Body)
		if err == nil {
			_ = msg.Ack(false)
			continue
		}

		retryCount := getRetryCount(msg.Headers)
		if retryCount >= maxRetries {
			log.Error("job failed permanently",
				zap.String("queue", queue),
				zap.String("messageId", msg.MessageId),
				zap.Int("retries", retryCount),
				zap.Error(err),
			)
			_ = msg.Nack(false, false)
			continue
		}

		log.Warn("job failed; retrying",
			zap.String("queue", queue),
			zap.String("messageId", msg.MessageId),
			zap.Int("retry", retryCount+1),
			zap.Error(err),
		)
		if err := sleepContext(ctx, retryDelay); err != nil {
			_ = msg.Nack(false, true)
			return err
		}
		err = c.publish(ctx, "", queue, amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageId,
			Body:         msg.Body,
			Headers:      withRetryCount(msg.Headers, retryCount+1),
			Timestamp:    time.Now(),
		})
		if err != nil {
			_ = msg.Nack(false, true)
			continue
		}
		_ = msg.Ack(false)
	}
}

func withRetryCount(headers amqp.Table, count int) amqp.Table {
	out := amqp.Table{}
	for k, v := range headers {
		out[k] = v
	}
	out[retryCountHeader] = int32(count)
	return out
}

func getRetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	if v, ok := headers[retryCountHeader]; ok {
		switch t := v.(type) {
		case int32:
			return int(t)
		case int64:
			return int(t)
		case int:
			return t
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
