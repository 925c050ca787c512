package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	JobsExchange = "taproom.jobs"
	JobsQueue    = "taproom.jobs.process"
	JobsDLQ      = "taproom.jobs.dlq"
	JobsRK       = "process"
	JobsDeadRK   = "dead"
)

type declarer interface {
	EnsureExchangeKind(name, kind string) error
	EnsureQueueWithArgs(name string, args amqp.Table) error
	BindQueue(queueName, exchange, routingKey string) error
}

// EnsureJobsTopology declares the jobs exchange, its work queue and the
// dead-letter queue rejected jobs land in.
func EnsureJobsTopology(qc declarer) error {
	if err := qc.EnsureExchangeKind(JobsExchange, "direct"); err != nil {
		return err
	}

	if err := qc.EnsureQueueWithArgs(JobsDLQ, nil); err != nil {
		return err
	}
	if err := qc.BindQueue(JobsDLQ, JobsExchange, JobsDeadRK); err != nil {
		return err
	}

	err := qc.EnsureQueueWithArgs(JobsQueue, amqp.Table{
		"x-dead-letter-exchange":    JobsExchange,
		"x-dead-letter-routing-key": JobsDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(JobsQueue, JobsExchange, JobsRK)
}
