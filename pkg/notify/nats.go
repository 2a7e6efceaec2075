package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type subjectPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

type coreNATS struct{ nc *nats.Conn }

func (c coreNATS) Publish(_ context.Context, subject string, data []byte) error {
	return c.nc.Publish(subject, data)
}

type jetStreamNATS struct{ js jetstream.JetStream }

func (j jetStreamNATS) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := j.js.Publish(ctx, subject, data)
	return err
}

// NATSPublisher sends events to a NATS subject, through JetStream when a
// stream is configured.
type NATSPublisher struct {
	pub     subjectPublisher
	subject string
	close   func()
}

// NewNATSPublisher connects to NATS. When cfg.Stream is set the stream is
// created or updated to capture the subject.
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", cfg.URL, err)
	}

	p := &NATSPublisher{pub: coreNATS{nc: nc}, subject: subject, close: nc.Close}
	if cfg.Stream == "" {
		return p, nil
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{subject},
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring jetstream stream %s: %w", cfg.Stream, err)
	}
	p.pub = jetStreamNATS{js: js}
	return p, nil
}

func (p *NATSPublisher) Name() string { return config.NotifyDriverNATS }

func (p *NATSPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.Marshal()
	if err != nil {
		return err
	}
	return p.pub.Publish(ctx, p.subject, payload)
}

func (p *NATSPublisher) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
