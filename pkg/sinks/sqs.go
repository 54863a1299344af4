package sinks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// sqsClient defines the minimal subset of the SQS client used by sqsSink.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsSink sends each metadata record as a JSON message to an SQS queue.
type sqsSink struct {
	id       string
	queueURL string
	client   sqsClient
	log      Logger
}

func newSQSSink(ctx context.Context, cfg SinkConfig, log Logger) (Sink, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("sink %q missing sqs configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.SQS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &sqsSink{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *sqsSink) ID() string   { return s.id }
func (s *sqsSink) Type() string { return TypeSQS }

// Save sends md to the configured SQS queue.
func (s *sqsSink) Save(ctx context.Context, md domain.ArtifactMetadata) error {
	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"record_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(md.RecordID),
			},
			"source": {
				DataType:    aws.String("String"),
				StringValue: aws.String(md.Source),
			},
		},
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		s.log.ErrorObj("sqs sink send failed", "sink_sqs_error", map[string]any{
			"sink_id": s.id,
			"error":   err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs sink delivered metadata", "sink_sqs_delivery", map[string]any{
		"sink_id":   s.id,
		"record_id": md.RecordID,
	})
	return nil
}

func (s *sqsSink) Close() error { return nil }
