package server

import (
	"context"
	"os"
	"time"

	"github.com/vinayprograms/deaddrop/envelope"
	"github.com/vinayprograms/deaddrop/errors"
	"github.com/vinayprograms/deaddrop/logging"
	"github.com/vinayprograms/deaddrop/mailbox"
	"github.com/vinayprograms/deaddrop/store"
	"github.com/vinayprograms/deaddrop/telemetry"
)

// Defaults applied by New where Config leaves fields zero.
const (
	DefaultPollInterval   = time.Second
	DefaultTaskExpiration = time.Minute
)

// badSignatureText is the error payload published for inputs that fail
// verification.
const badSignatureText = "Bad signature"

// Config parameterizes a Server.
type Config struct {
	// Store is the shared object store. Required.
	Store store.Store

	// Keys holds the server keypair and the client public key as the
	// counterpart. Required.
	Keys *envelope.KeyMaterial

	// Command is the shell command run once per task attempt. It reads the
	// file named by DEADDROP_INPUT and must create the file named by
	// DEADDROP_OUTPUT before exiting zero. Required.
	Command string

	// WorkDir is where input and output files are staged. Defaults to the
	// system temp directory.
	WorkDir string

	// PollInterval is the sleep between idle poll cycles.
	PollInterval time.Duration

	// TaskExpiration is the nominal task window; objects older than twice
	// this are swept.
	TaskExpiration time.Duration

	// CommandRetries is how many failed attempts leave a task pending
	// before a signed error resolves it. Zero publishes the error on the
	// first failure.
	CommandRetries int

	// Logger receives protocol logs. Silent when nil.
	Logger *logging.Logger

	// Telemetry receives lifecycle events. Noop when nil.
	Telemetry telemetry.Exporter
}

// Server is a single-threaded worker loop over one store. Run owns all of
// the server's state; a Server must not be shared across goroutines.
type Server struct {
	store      store.Store
	keys       *envelope.KeyMaterial
	command    string
	workDir    string
	poll       time.Duration
	expiration time.Duration
	retries    int

	// failures counts failed attempts per task id. Entries are dropped when
	// a task resolves; a restart resets all counts.
	failures map[string]int

	sweeper   *mailbox.Sweeper
	log       *logging.Logger
	telemetry telemetry.Exporter
}

// New validates cfg and runs the key material self-test once.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.Configuration("store is required")
	}
	if cfg.Keys == nil {
		return nil, errors.Configuration("key material is required")
	}
	if cfg.Command == "" {
		return nil, errors.Configuration("command is required")
	}
	if cfg.CommandRetries < 0 {
		return nil, errors.Configuration("command retries must not be negative")
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
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.WithComponent("server")

	exp := cfg.Telemetry
	if exp == nil {
		exp = telemetry.NewNoopExporter()
	}

	return &Server{
		store:      cfg.Store,
		keys:       cfg.Keys,
		command:    cfg.Command,
		workDir:    cfg.WorkDir,
		poll:       cfg.PollInterval,
		expiration: cfg.TaskExpiration,
		retries:    cfg.CommandRetries,
		failures:   make(map[string]int),
		sweeper:    mailbox.NewSweeper(cfg.Store, cfg.TaskExpiration, log).WithTelemetry(exp),
		log:        log,
		telemetry:  exp,
	}, nil
}

// Run polls the store until ctx is canceled. Iterations that process a
// claimed task roll straight into the next poll; idle iterations and store
// failures sleep PollInterval. Store and command failures never stop the
// loop.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("server loop started", map[string]interface{}{
		"command": s.command,
		"poll":    s.poll.String(),
	})
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.runOnce(ctx) {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.poll):
		}
	}
}

// runOnce performs one protocol iteration: list, sweep, assemble, claim the
// oldest pending task and resolve it. It reports whether the loop may roll
// straight into the next iteration; store failures count as idle iterations
// and wait out the poll interval.
func (s *Server) runOnce(ctx context.Context) bool {
	names, err := s.store.List()
	if err != nil {
		s.log.TransportError("list", err)
		return false
	}
	names = s.sweeper.Sweep(names, time.Now())

	task := oldestPending(mailbox.Assemble(names))
	if task == nil {
		return false
	}
	return s.resolve(ctx, task) == nil
}

func oldestPending(tasks []*mailbox.Task) *mailbox.Task {
	for _, task := range tasks {
		if task.Pending() {
			return task
		}
	}
	return nil
}

// resolve processes one claimed task through verification, execution, and
// publication. A non-nil error means resolution did not complete; the loop
// waits out the poll interval before the next claim attempt.
func (s *Server) resolve(ctx context.Context, task *mailbox.Task) error {
	log := s.log.WithTask(task.ID)
	log.TaskClaimed(task.ID, time.Since(task.SubmittedAt))
	s.telemetry.LogEvent(telemetry.EventTaskClaimed, map[string]interface{}{
		"task": task.ID,
	})

	payload, err := s.store.Get(task.InputData)
	if err != nil {
		log.TransportError("get input payload", err)
		return err
	}
	sig, err := s.store.Get(task.InputSig)
	if err != nil {
		log.TransportError("get input signature", err)
		return err
	}

	if !envelope.Verify(payload, sig, s.keys.Counterpart) {
		log.Warn("input signature rejected")
		if err := s.publishError(task, badSignatureText); err != nil {
			return err
		}
		delete(s.failures, task.ID)
		return nil
	}

	attempt := s.failures[task.ID] + 1
	log.CommandAttempt(task.ID, attempt)
	output, err := s.execute(ctx, task.ID, payload)
	if err == nil {
		if err := s.publishResult(task, output); err != nil {
			return err
		}
		delete(s.failures, task.ID)
		return nil
	}

	s.failures[task.ID]++
	if s.failures[task.ID] <= s.retries {
		// Publish nothing, delete nothing: the task stays pending and the
		// command is re-run from scratch on a later iteration.
		log.Warn("command attempt failed", map[string]interface{}{
			"attempt": attempt,
			"reason":  err.Error(),
		})
		s.telemetry.LogEvent(telemetry.EventCommandRetried, map[string]interface{}{
			"task":     task.ID,
			"failures": s.failures[task.ID],
		})
		return nil
	}

	text := err.Error()
	if perr, ok := err.(*errors.Error); ok {
		text = perr.Message()
	}
	if err := s.publishError(task, text); err != nil {
		return err
	}
	delete(s.failures, task.ID)
	return nil
}

// publishResult deletes the input payload and publishes the signed output
// pair under the task's submission timestamp. A failed input delete does not
// abort publication; the sweeper reclaims the leftover.
func (s *Server) publishResult(task *mailbox.Task, output []byte) error {
	if err := s.store.Delete(task.InputData); err != nil {
		s.log.TransportError("delete input payload", err)
	}

	sig, err := envelope.Sign(output, s.keys.Private)
	if err != nil {
		s.log.Err("failed to sign output", err)
		return err
	}

	dataName := mailbox.EncodeName(task.SubmittedAt, task.ID, mailbox.DirectionOut, mailbox.KindData)
	sigName := mailbox.EncodeName(task.SubmittedAt, task.ID, mailbox.DirectionOut, mailbox.KindSignature)
	if err := s.store.Put(dataName, output); err != nil {
		s.log.TransportError("publish output payload", err)
		return err
	}
	if err := s.store.Put(sigName, sig); err != nil {
		s.log.TransportError("publish output signature", err)
		return err
	}

	s.log.TaskResolved(task.ID, "success", time.Since(task.SubmittedAt))
	s.telemetry.LogEvent(telemetry.EventTaskResolved, map[string]interface{}{
		"task": task.ID, "failed": false,
	})
	return nil
}

// publishError deletes the input payload and publishes the signed error
// text, resolving the task for every polling client.
func (s *Server) publishError(task *mailbox.Task, text string) error {
	if err := s.store.Delete(task.InputData); err != nil {
		s.log.TransportError("delete input payload", err)
	}

	payload := []byte(text)
	sig, err := envelope.Sign(payload, s.keys.Private)
	if err != nil {
		s.log.Err("failed to sign error text", err)
		return err
	}

	errName := mailbox.EncodeName(task.SubmittedAt, task.ID, mailbox.DirectionOut, mailbox.KindError)
	sigName := mailbox.EncodeName(task.SubmittedAt, task.ID, mailbox.DirectionOut, mailbox.KindSignature)
	if err := s.store.Put(errName, payload); err != nil {
		s.log.TransportError("publish error payload", err)
		return err
	}
	if err := s.store.Put(sigName, sig); err != nil {
		s.log.TransportError("publish error signature", err)
		return err
	}

	s.log.ErrorPublished(task.ID, text)
	s.telemetry.LogEvent(telemetry.EventTaskResolved, map[string]interface{}{
		"task": task.ID, "failed": true,
	})
	return nil
}
