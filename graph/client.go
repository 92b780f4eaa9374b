// Client for the subset of the Meta Graph API this service talks to:
// Instagram messaging (direct messages, comment replies), OAuth token
// exchange, and media listing for connected business accounts.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/replyflow/replyflow/util"
)

const (
	DefaultHost       = "https://graph.facebook.com"
	DefaultAPIVersion = "v18.0"
)

type Client struct {
	Host       string
	APIVersion string
	HTTPClient *http.Client
}

func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		Host:       host,
		APIVersion: DefaultAPIVersion,
		HTTPClient: util.RobustHTTPClient(),
	}
}

// A structured failure from the Graph API.
type APIError struct {
	StatusCode int
	Code       int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph API error (http %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.Host, c.APIVersion, path)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading graph API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "unrecognized error response"}
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
			apiErr.Code = eb.Error.Code
			apiErr.Type = eb.Error.Type
			apiErr.Message = eb.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing graph API response: %w", err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path)+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

type sendMessageRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	AccessToken string `json:"access_token"`
}

// Sends a plain-text direct message to the given user.
//
// Button-style template cards are deliberately not used: generic templates
// are restricted for Instagram messaging in some regions, so callers fold
// any button into the text body instead.
func (c *Client) SendDirectMessage(ctx context.Context, recipientID, body, accessToken string) error {
	var req sendMessageRequest
	req.Recipient.ID = recipientID
	req.Message.Text = body
	req.AccessToken = accessToken
	return c.postJSON(ctx, "me/messages", &req, nil)
}

type replyRequest struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

// Posts a public reply under the given comment.
func (c *Client) ReplyToComment(ctx context.Context, commentID, body, accessToken string) error {
	return c.postJSON(ctx, commentID+"/replies", &replyRequest{
		Message:     body,
		AccessToken: accessToken,
	}, nil)
}
