// Package client implements a client for posting admin notifications to a chat webhook.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modelqueue"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const requestTimeout = 10 * time.Second

// webhookMessage is the body accepted by Discord-compatible webhooks.
type webhookMessage struct {
	Content string `json:"content"`
}

// StatusError means the webhook answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d: %s", e.StatusCode, e.Body)
}

// Client defines attributes of a struct available to its methods.
type Client struct {
	client         *resty.Client
	notifierConfig *config.NotifierConfig
	log            *zerolog.Logger
}

// InitClient initializes a resty client.
func InitClient(notifierConfig *config.NotifierConfig, log *zerolog.Logger) *Client {
	webhookClient := resty.New().
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json")
	log.Info().Msg("webhook client initialized")
	return &Client{client: webhookClient, notifierConfig: notifierConfig, log: log}
}

// Name identifies the sink in logs.
func (c *Client) Name() string {
	return "webhook"
}

// Deliver posts the notification text to the configured webhook.
func (c *Client) Deliver(ctx context.Context, notification modelqueue.Notification) error {
	c.log.Debug().Msg(fmt.Sprintf("sending webhook for submission %v", notification.SubmissionID))
	response, err := c.client.R().
		SetContext(ctx).
		SetBody(webhookMessage{Content: notification.Text()}).
		Post(c.notifierConfig.WebhookURL)
	if err != nil {
		c.log.Err(err).Msg(fmt.Sprintf("webhook delivery failed for submission %v", notification.SubmissionID))
		return err
	}
	if response.IsError() {
		return &StatusError{StatusCode: response.StatusCode(), Body: response.String()}
	}
	return nil
}
