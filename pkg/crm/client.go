package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// CallItem is one completed call pushed to the CRM.
type CallItem struct {
	TicketCode string `json:"ticketCode"`
	Phone      string `json:"phone"`
	Payload    string `json:"payload"`
}

// MessageItem is one agent message pushed to the CRM.
type MessageItem struct {
	TicketCode string `json:"ticketCode"`
	Phone      string `json:"phone"`
	Sender     string `json:"sender"`
	Body       string `json:"body"`
	SentAt     string `json:"sentAt"`
}

// Client performs bulk ingest into the CRM.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetHeader("Authorization", "Bearer "+apiKey)
	return &Client{http: hc}
}

func (c *Client) PushCalls(ctx context.Context, items []CallItem) error {
	if len(items) == 0 {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"calls": items}).
		Post("/api/ingest/calls")
	if err != nil {
		return fmt.Errorf("push calls: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push calls: status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) PushMessages(ctx context.Context, items []MessageItem) error {
	if len(items) == 0 {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"messages": items}).
		Post("/api/ingest/messages")
	if err != nil {
		return fmt.Errorf("push messages: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push messages: status %d", resp.StatusCode())
	}
	return nil
}
