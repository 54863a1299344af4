package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsClient defines the minimal subset of the SNS client used by SNS.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSConfig selects the topic and, optionally, static credentials.
type SNSConfig struct {
	TopicARN        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string `json:"-"`
}

// SNS publishes alerts to an AWS SNS topic.
type SNS struct {
	topicARN string
	client   snsClient
}

// NewSNS loads the AWS config (static keys when provided) and builds the notifier.
func NewSNS(ctx context.Context, cfg SNSConfig) (*SNS, error) {
	if strings.TrimSpace(cfg.TopicARN) == "" {
		return nil, fmt.Errorf("sns topic arn is required")
	}

	var opts []func(*awscfg.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awscfg.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNS{topicARN: cfg.TopicARN, client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SNS) Notify(ctx context.Context, msg Message) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(msg.Text),
	}
	if msg.Username != "" {
		input.Subject = aws.String(msg.Username)
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"username": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Username),
			},
		}
	}
	if _, err := s.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("%w: sns publish: %v", ErrNotifyFailed, err)
	}
	return nil
}
