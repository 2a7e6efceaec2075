package notify

import (
	"context"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Multi fans an event out to every configured driver concurrently.
type Multi struct {
	publishers []Publisher
}

func NewMulti(publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers}
}

func (m *Multi) Name() string { return "multi" }

// Drivers returns the names of the wrapped publishers.
func (m *Multi) Drivers() []string {
	names := make([]string, 0, len(m.publishers))
	for _, p := range m.publishers {
		names = append(names, p.Name())
	}
	return names
}

// Publish delivers evt through every driver and returns the combined
// failures. One failing driver does not stop the others.
func (m *Multi) Publish(ctx context.Context, evt Event) error {
	errs := make([]error, len(m.publishers))
	var g errgroup.Group
	for i, p := range m.publishers {
		g.Go(func() error {
			if err := p.Publish(ctx, evt); err != nil {
				errs[i] = &PublishError{Driver: p.Name(), Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

func (m *Multi) Close() error {
	var err error
	for _, p := range m.publishers {
		err = multierr.Append(err, p.Close())
	}
	return err
}
