package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// gcpPubSubSender implements queueSender for Google Cloud Pub/Sub.
type gcpPubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gcp queue configuration is missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Topic)
	// items of one provider keep their order
	topic.EnableMessageOrdering = true

	return &gcpPubSubSender{
		client: client,
		topic:  topic,
		log:    ensureLogger(log),
	}, nil
}

// Send publishes the event and waits for the server ack.
func (s *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	payload, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	res := s.topic.Publish(ctx, &pubsub.Message{
		Data:        payload,
		Attributes:  evt.attributes(),
		OrderingKey: evt.ProviderID,
	})
	msgID, err := res.Get(ctx)
	if err != nil {
		s.topic.ResumePublish(evt.ProviderID)
		s.log.ErrorObj("gcp pubsub publisher send failed", "publisher_gcp_pubsub_error", map[string]any{
			"event_id": evt.ID,
			"error":    err.Error(),
		})
		return fmt.Errorf("send message to pubsub: %w", err)
	}

	s.log.DebugObj("gcp pubsub publisher delivered event", "publisher_gcp_pubsub_delivery", map[string]any{
		"event_id":   evt.ID,
		"message_id": msgID,
	})
	return nil
}

// Close flushes pending messages and closes the client.
func (s *gcpPubSubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
