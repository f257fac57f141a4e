package client

import (
	"context"
	"time"

	"github.com/vinayprograms/deaddrop/envelope"
	"github.com/vinayprograms/deaddrop/errors"
	"github.com/vinayprograms/deaddrop/logging"
	"github.com/vinayprograms/deaddrop/mailbox"
	"github.com/vinayprograms/deaddrop/store"
	"github.com/vinayprograms/deaddrop/telemetry"
)

// Defaults applied by NewSession where Config leaves fields zero.
const (
	DefaultPollInterval   = time.Second
	DefaultTaskExpiration = time.Minute
)

// Config parameterizes a Session.
type Config struct {
	// Store is the shared object store. Required.
	Store store.Store

	// Keys holds the client keypair and the server public key as the
	// counterpart. Required.
	Keys *envelope.KeyMaterial

	// PollInterval is the sleep between poll cycles.
	PollInterval time.Duration

	// TaskExpiration bounds the wait for a result. Objects older than twice
	// this window are swept during polling.
	TaskExpiration time.Duration

	// Logger receives protocol logs. Silent when nil.
	Logger *logging.Logger

	// Telemetry receives lifecycle events. Noop when nil.
	Telemetry telemetry.Exporter
}

// Session is a client bound to one store and one set of key material. A
// Session carries no per-task state; Submit may be called repeatedly.
type Session struct {
	store      store.Store
	keys       *envelope.KeyMaterial
	poll       time.Duration
	expiration time.Duration
	sweeper    *mailbox.Sweeper
	log        *logging.Logger
	telemetry  telemetry.Exporter
}

// NewSession validates cfg and runs the key material self-test once.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.Configuration("store is required")
	}
	if cfg.Keys == nil {
		return nil, errors.Configuration("key material is required")
	}
	if err := cfg.Keys.SelfTest(); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TaskExpiration <= 0 {
		cfg.TaskExpiration = DefaultTaskExpiration
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.WithComponent("client")

	exp := cfg.Telemetry
	if exp == nil {
		exp = telemetry.NewNoopExporter()
	}

	return &Session{
		store:      cfg.Store,
		keys:       cfg.Keys,
		poll:       cfg.PollInterval,
		expiration: cfg.TaskExpiration,
		sweeper:    mailbox.NewSweeper(cfg.Store, cfg.TaskExpiration, log).WithTelemetry(exp),
		log:        log,
		telemetry:  exp,
	}, nil
}

// Submit signs input, publishes it as a new task, and blocks until a
// verified result arrives, the expiration window elapses, or ctx is
// canceled. A remote failure surfaces as a RemoteTask error carrying the
// server's signed error text.
//
// Cancellation and timeout leave the submitted objects in the store for the
// garbage collector; all other outcomes delete them before returning.
func (s *Session) Submit(ctx context.Context, input []byte) ([]byte, error) {
	sig, err := envelope.Sign(input, s.keys.Private)
	if err != nil {
		return nil, err
	}

	taskID := mailbox.NewTaskID()
	submittedAt := time.Now()
	dataName := mailbox.EncodeName(submittedAt, taskID, mailbox.DirectionIn, mailbox.KindData)
	sigName := mailbox.EncodeName(submittedAt, taskID, mailbox.DirectionIn, mailbox.KindSignature)

	if err := s.store.Put(dataName, input); err != nil {
		return nil, errors.Transport("failed to publish task input",
			errors.WithCause(err), errors.WithTaskID(taskID))
	}
	if err := s.store.Put(sigName, sig); err != nil {
		// A lone data object never assembles into a task; reclaim it now
		// rather than waiting for a sweep.
		if derr := s.store.Delete(dataName); derr != nil {
			s.log.TransportError("reclaim orphaned input", derr)
		}
		return nil, errors.Transport("failed to publish task signature",
			errors.WithCause(err), errors.WithTaskID(taskID))
	}

	s.log.TaskSubmitted(taskID, len(input))
	s.telemetry.LogEvent(telemetry.EventTaskSubmitted, map[string]interface{}{
		"task": taskID,
		"size": len(input),
	})

	return s.await(ctx, taskID, submittedAt)
}

// await polls the store until the task resolves or the window closes.
func (s *Session) await(ctx context.Context, taskID string, submittedAt time.Time) ([]byte, error) {
	log := s.log.WithTask(taskID)
	deadline := submittedAt.Add(s.expiration)

	for {
		select {
		case <-ctx.Done():
			return nil, errors.Timeout(taskID, errors.WithCause(ctx.Err()))
		case <-time.After(s.poll):
		}
		if time.Now().After(deadline) {
			return nil, errors.Timeout(taskID)
		}

		names, err := s.store.List()
		if err != nil {
			log.TransportError("list", err)
			continue
		}
		names = s.sweeper.Sweep(names, time.Now())

		task := findTask(mailbox.Assemble(names), taskID)
		if task == nil || !task.Resolved() {
			continue
		}

		payloadName := task.OutputData
		if task.Failed() {
			payloadName = task.OutputErr
		}
		payload, err := s.store.Get(payloadName)
		if err != nil {
			log.TransportError("get result payload", err)
			continue
		}
		outSig, err := s.store.Get(task.OutputSig)
		if err != nil {
			log.TransportError("get result signature", err)
			continue
		}

		if !envelope.Verify(payload, outSig, s.keys.Counterpart) {
			s.cleanup(task)
			log.Error("result signature rejected")
			return nil, errors.BadSignature(taskID, "result does not verify against the server key")
		}

		elapsed := time.Since(submittedAt)
		if task.Failed() {
			s.cleanup(task)
			log.TaskResolved(taskID, "error", elapsed)
			s.telemetry.LogEvent(telemetry.EventTaskResolved, map[string]interface{}{
				"task": taskID, "failed": true,
			})
			return nil, errors.RemoteTask(taskID, string(payload))
		}

		s.cleanup(task)
		log.TaskResolved(taskID, "success", elapsed)
		s.telemetry.LogEvent(telemetry.EventTaskResolved, map[string]interface{}{
			"task": taskID, "failed": false,
		})
		return payload, nil
	}
}

// cleanup deletes every object observed for the task. Failures are logged;
// anything left behind is eventually swept.
func (s *Session) cleanup(task *mailbox.Task) {
	for _, name := range task.Objects() {
		if err := s.store.Delete(name); err != nil {
			s.log.TransportError("cleanup delete", err)
		}
	}
}

func findTask(tasks []*mailbox.Task, id string) *mailbox.Task {
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	return nil
}
