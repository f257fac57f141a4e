package store

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"
)

// NATSStore implements Store using a NATS JetStream object store bucket.
type NATSStore struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	obj    jetstream.ObjectStore
	config NATSStoreConfig
	closed atomic.Bool
}

// NATSStoreConfig holds NATS object store configuration.
type NATSStoreConfig struct {
	// Conn is the NATS connection to use. The store does not own the
	// connection; the caller closes it.
	Conn *nats.Conn

	// Bucket is the object store bucket name.
	Bucket string

	// Timeout bounds each store operation. Default: 5s.
	Timeout time.Duration
}

// DefaultNATSStoreConfig returns configuration with sensible defaults.
func DefaultNATSStoreConfig() NATSStoreConfig {
	return NATSStoreConfig{
		Bucket:  "deaddrop",
		Timeout: 5 * time.Second,
	}
}

// NewNATSStore creates or binds the object store bucket.
func NewNATSStore(cfg NATSStoreConfig) (*NATSStore, error) {
	if cfg.Conn == nil {
		return nil, errors.New("nats connection required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultNATSStoreConfig().Bucket
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultNATSStoreConfig().Timeout
	}

	js, err := jetstream.New(cfg.Conn)
	if err != nil {
		return nil, errors.Wrap(err, "jetstream")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	obj, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket: cfg.Bucket,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create object store bucket %s", cfg.Bucket)
	}

	return &NATSStore{conn: cfg.Conn, js: js, obj: obj, config: cfg}, nil
}

func (s *NATSStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.config.Timeout)
}

// Put uploads an object to the bucket.
func (s *NATSStore) Put(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := s.opContext()
	defer cancel()

	if _, err := s.obj.PutBytes(ctx, name, data); err != nil {
		return errors.Wrapf(err, "object put %s", name)
	}
	return nil
}

// Get downloads an object from the bucket.
func (s *NATSStore) Get(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ctx, cancel := s.opContext()
	defer cancel()

	data, err := s.obj.GetBytes(ctx, name)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "object get %s", name)
	}
	return data, nil
}

// List returns the names of all objects in the bucket.
func (s *NATSStore) List() ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ctx, cancel := s.opContext()
	defer cancel()

	infos, err := s.obj.List(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoObjectsFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "object list")
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names, nil
}

// Delete removes an object. Deleting an absent object is not an error.
func (s *NATSStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := s.opContext()
	defer cancel()

	err := s.obj.Delete(ctx, name)
	if err != nil && !stderrors.Is(err, jetstream.ErrObjectNotFound) {
		return errors.Wrapf(err, "object delete %s", name)
	}
	return nil
}

// Close shuts down the store. The NATS connection stays open for the caller.
func (s *NATSStore) Close() error {
	s.closed.Store(true)
	return nil
}
