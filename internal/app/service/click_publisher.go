package service

import (
	"encoding/json"
	"fmt"

	"github.com/linktrail/linktrail/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ClickPublisher fans recorded clicks out to NATS JetStream for downstream
// consumers. Publishing happens after the click is durably recorded and is
// best-effort: the recording path never depends on it.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher ensures the click stream exists and returns a publisher.
func NewClickPublisher(js nats.JetStreamContext) (*ClickPublisher, error) {
	if _, err := js.StreamInfo(model.ClickStreamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("create click stream: %w", err)
		}
	}
	return &ClickPublisher{js: js}, nil
}

// Publish emits one recorded click onto the stream.
func (p *ClickPublisher) Publish(click *model.Click) error {
	data, err := json.Marshal(click)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}
