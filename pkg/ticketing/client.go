package ticketing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client posts internal notes onto tickets in the agency's ticketing
// system.
type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(baseURL, apiKey string) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2)
	return &Client{http: hc, apiKey: apiKey}
}

type postReply struct {
	Response struct {
		Status string `json:"status"`
	} `json:"response"`
}

// PostMessage attaches body to the ticket as an internal note. The
// returned bool reports whether the ticketing system acknowledged the
// message with an ok status.
func (c *Client) PostMessage(ctx context.Context, ticketCode, body string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"key":     c.apiKey,
			"ticket":  ticketCode,
			"message": body,
		}).
		Post("/api/messages")
	if err != nil {
		return false, fmt.Errorf("post ticket message: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("post ticket message: status %d", resp.StatusCode())
	}

	var reply postReply
	if err := json.Unmarshal(resp.Body(), &reply); err != nil {
		return false, nil
	}
	return reply.Response.Status == "ok", nil
}
