package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	"github.com/goliatone/go-twitterkit/core"
)

type namedMessage struct {
	kind string
	err  error
}

func (m namedMessage) Type() string { return m.kind }

func (m namedMessage) Validate() error { return m.err }

type sweepMessage struct {
	Reason string
}

func (sweepMessage) Type() string { return "twitterkit.test.sweep" }

type queuedSweepMessage struct{}

func (queuedSweepMessage) Type() string { return "twitterkit.test.queued_sweep" }

func TestValidateMessageContract(t *testing.T) {
	cases := []struct {
		name    string
		msg     any
		wantErr bool
	}{
		{name: "namespaced", msg: namedMessage{kind: "twitterkit.command.logout"}},
		{name: "empty type", msg: namedMessage{kind: ""}, wantErr: true},
		{name: "bare namespace", msg: namedMessage{kind: "twitterkit."}, wantErr: true},
		{name: "foreign namespace", msg: namedMessage{kind: "billing.command.charge"}, wantErr: true},
		{name: "own validation fails", msg: namedMessage{kind: "twitterkit.command.logout", err: errors.New("bad session")}, wantErr: true},
		{name: "not a message", msg: struct{}{}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMessageContract(tc.msg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRegisterAndSubscribe_DispatchesToHandler(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	reasons := []string{}

	sub, err := RegisterAndSubscribe(adapter, command.CommandFunc[sweepMessage](func(_ context.Context, msg sweepMessage) error {
		reasons = append(reasons, msg.Reason)
		return nil
	}))
	if err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := Dispatch(context.Background(), sweepMessage{Reason: "foreground"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(reasons) != 1 || reasons[0] != "foreground" {
		t.Fatalf("expected one foreground sweep, got %v", reasons)
	}
	if err := Dispatch(context.Background(), namedMessage{kind: "other"}); err == nil {
		t.Fatalf("expected foreign message to be rejected before dispatch")
	}
}

func TestQueueResolverMirrorsCommands(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	queueRegistry := jobqueuecommand.NewRegistry()

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if !adapter.HasResolver("queue") {
		t.Fatalf("expected queue resolver to be registered")
	}
	if err := adapter.RegisterCommand(command.CommandFunc[queuedSweepMessage](func(context.Context, queuedSweepMessage) error { return nil })); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if _, ok := queueRegistry.Get("twitterkit.test.queued_sweep"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

func TestRegistryAdapter_NilIsNotConfigured(t *testing.T) {
	var adapter *RegistryAdapter
	if err := adapter.Initialize(); !core.HasTextCode(err, core.ErrorInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if adapter.HasResolver("queue") {
		t.Fatalf("nil adapter has no resolvers")
	}
	if err := NewRegistryAdapter(nil).AddQueueResolver("queue", nil); !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input for missing queue registry, got %v", err)
	}
}
