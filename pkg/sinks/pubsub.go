package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// pubsubSink publishes metadata to a GCP Pub/Sub topic and waits for the ack.
type pubsubSink struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newPubSubSink(ctx context.Context, cfg SinkConfig, log Logger) (Sink, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("sink %q missing pubsub configuration", cfg.ID)
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubSink{
		id:     cfg.ID,
		client: client,
		topic:  client.Topic(cfg.PubSub.Topic),
		log:    ensureLogger(log),
	}, nil
}

func (p *pubsubSink) ID() string   { return p.id }
func (p *pubsubSink) Type() string { return TypePubSub }

func (p *pubsubSink) Save(ctx context.Context, md domain.ArtifactMetadata) error {
	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"record_id": md.RecordID,
			"source":    md.Source,
		},
	})
	msgID, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	p.log.DebugObj("pubsub sink delivered metadata", "sink_pubsub_delivery", map[string]any{
		"sink_id":    p.id,
		"record_id":  md.RecordID,
		"message_id": msgID,
	})
	return nil
}

func (p *pubsubSink) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	p.topic.Stop()
	return p.client.Close()
}
