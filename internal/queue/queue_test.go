package queue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingDeclarer struct {
	calls  []string
	failOn string
}

func (r *recordingDeclarer) record(call string) error {
	r.calls = append(r.calls, call)
	if call == r.failOn {
		return errors.New("declare failed")
	}
	return nil
}

func (r *recordingDeclarer) EnsureExchangeKind(name, kind string) error {
	return r.record(fmt.Sprintf("exchange %s %s", name, kind))
}

func (r *recordingDeclarer) EnsureQueueWithArgs(name string, args amqp.Table) error {
	if dlx, ok := args["x-dead-letter-exchange"]; ok {
		return r.record(fmt.Sprintf("queue %s dlx=%v rk=%v", name, dlx, args["x-dead-letter-routing-key"]))
	}
	return r.record("queue " + name)
}

func (r *recordingDeclarer) BindQueue(queueName, exchange, routingKey string) error {
	return r.record(fmt.Sprintf("bind %s %s %s", queueName, exchange, routingKey))
}

func TestEnsureJobsTopology(t *testing.T) {
	rec := &recordingDeclarer{}
	if err := EnsureJobsTopology(rec); err != nil {
		t.Fatalf("topology: %v", err)
	}
	want := []string{
		"exchange taproom.jobs direct",
		"queue taproom.jobs.dlq",
		"bind taproom.jobs.dlq taproom.jobs dead",
		"queue taproom.jobs.process dlx=taproom.jobs rk=dead",
		"bind taproom.jobs.process taproom.jobs process",
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Fatalf("declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureJobsTopologyStopsOnError(t *testing.T) {
	rec := &recordingDeclarer{failOn: "queue taproom.jobs.dlq"}
	if err := EnsureJobsTopology(rec); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected to stop after the failing call, got %v", rec.calls)
	}
}

func TestRetryCountHeader(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"nil", nil, 0},
		{"missing", amqp.Table{"other": "x"}, 0},
		{"int32", amqp.Table{retryCountHeader: int32(2)}, 2},
		{"int64", amqp.Table{retryCountHeader: int64(3)}, 3},
		{"int", amqp.Table{retryCountHeader: 4}, 4},
		{"string", amqp.Table{retryCountHeader: "5"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getRetryCount(tc.headers); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestWithRetryCountCopiesHeaders(t *testing.T) {
	orig := amqp.Table{"trace": "abc", retryCountHeader: int32(1)}
	next := withRetryCount(orig, 2)
	if getRetryCount(next) != 2 || next["trace"] != "abc" {
		t.Fatalf("unexpected headers %v", next)
	}
	if getRetryCount(orig) != 1 {
		t.Fatal("original headers were modified")
	}
}
