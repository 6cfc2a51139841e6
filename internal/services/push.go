package services

import (
	"fmt"

	appconfig "story-feed-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushService sends APNs notifications when a friend posts a story.
// Disabled when no signing key is configured; every method is then a no-op.
type PushService struct {
	client *apns2.Client
	topic  string
}

// NewPushService creates a push service from APNs token credentials. An
// empty key file yields a disabled service, not an error.
func NewPushService(cfg appconfig.APNSConfig) (*PushService, error) {
	if cfg.KeyFile == "" {
		return &PushService{}, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &PushService{client: client, topic: cfg.Topic}, nil
}

// Enabled reports whether push delivery is configured
func (s *PushService) Enabled() bool {
	return s != nil && s.client != nil
}

// NotifyStoryPosted pushes a new-story alert to the given device tokens.
// Best effort: failures are logged per device and never propagate.
func (s *PushService) NotifyStoryPosted(username string, deviceTokens []string) {
	if !s.Enabled() || len(deviceTokens) == 0 {
		return
	}

	body := payload.NewPayload().
		AlertTitle("New story").
		AlertBody(fmt.Sprintf("%s posted a story", username)).
		Sound("default")

	for _, deviceToken := range deviceTokens {
		notification := &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       s.topic,
			Payload:     body,
		}

		res, err := s.client.Push(notification)
		if err != nil {
			log.Error().Err(err).Msg("Failed to send push notification")
			continue
		}
		if !res.Sent() {
			log.Warn().
				Int("status", res.StatusCode).
				Str("reason", res.Reason).
				Msg("Push notification rejected")
		}
	}
}
