// Package bridge is the HTTP client for the WhatsApp bridge process, which
// owns the live session. Sends and media downloads pass through it; retries
// and backoff are the bridge's problem, not ours.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the bridge's REST API with a hard transport timeout so a
// wedged bridge cannot hang a request forever.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message,omitempty"`
	MediaPath string `json:"media_path,omitempty"`
}

type bridgeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Send delivers a text message, a media file, or both to a recipient JID or
// phone number. The result is always (ok, human-readable status); transport
// and decoding failures come back as (false, diagnostic), never as a panic.
func (c *Client) Send(ctx context.Context, recipient, message, mediaPath string) (bool, string) {
	if recipient == "" {
		return false, "recipient must be provided"
	}
	if message == "" && mediaPath == "" {
		return false, "at least one of message or media path must be provided"
	}
	if mediaPath != "" {
		if _, err := os.Stat(mediaPath); err != nil {
			return false, fmt.Sprintf("media file not found: %s", mediaPath)
		}
	}

	var resp bridgeResponse
	if err := c.post(ctx, "/send", sendRequest{
		Recipient: recipient,
		Message:   message,
		MediaPath: mediaPath,
	}, &resp); err != nil {
		c.logger.Warn("bridge send failed", zap.String("recipient", recipient), zap.Error(err))
		return false, err.Error()
	}
	return resp.Success, resp.Message
}

type downloadRequest struct {
	MessageID string `json:"message_id"`
	ChatJID   string `json:"chat_jid"`
}

// DownloadMedia asks the bridge to materialize a message's media on local
// disk and returns the absolute path.
func (c *Client) DownloadMedia(ctx context.Context, messageID, chatJID string) (string, error) {
	if messageID == "" || chatJID == "" {
		return "", fmt.Errorf("message id and chat jid must be provided")
	}

	var resp bridgeResponse
	if err := c.post(ctx, "/download", downloadRequest{MessageID: messageID, ChatJID: chatJID}, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Path == "" {
		msg := resp.Message
		if msg == "" {
			msg = "bridge reported failure without detail"
		}
		return "", fmt.Errorf("download media: %s", msg)
	}
	return resp.Path, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out *bridgeResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode bridge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bridge unreachable: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge returned status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode bridge response: %w", err)
	}
	return nil
}
