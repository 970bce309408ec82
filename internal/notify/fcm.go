package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCM pushes staff broadcasts to a Firebase Cloud Messaging topic that the
// staff devices subscribe to.
type FCM struct {
	client *messaging.Client
	topic  string
}

func NewFCM(client *messaging.Client, topic string) *FCM {
	return &FCM{client: client, topic: topic}
}

func (f *FCM) Notify(ctx context.Context, msg Message) error {
	if !msg.Staff {
		return nil
	}
	if _, err := f.client.Send(ctx, f.buildMessage(msg)); err != nil {
		return fmt.Errorf("while sending push to topic %s: %w", f.topic, err)
	}
	return nil
}

func (f *FCM) buildMessage(msg Message) *messaging.Message {
	return &messaging.Message{
		Topic: f.topic,
		Notification: &messaging.Notification{
			Title: msg.Subject,
			Body:  msg.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:    "default",
				Priority: messaging.PriorityHigh,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: msg.Subject, Body: msg.Body},
					Sound: "default",
				},
			},
		},
	}
}
