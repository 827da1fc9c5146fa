package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// maxExcerpt bounds how much of the rated answer is quoted in the channel.
const maxExcerpt = 600

// Feedback is a learner's rating of one tutor answer.
type Feedback struct {
	SessionID string
	Rating    string // "up" or "down"
	Comment   string
	Excerpt   string
	Grade     int
	Medium    string
}

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostFeedback posts learner feedback to the review channel and returns the
// message timestamp.
func (p *Poster) PostFeedback(ctx context.Context, fb Feedback) (string, error) {
	text := formatFeedbackMessage(fb)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "Session `" + fb.SessionID + "`",
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted feedback to slack", "ts", slackResp.TS, "session_id", fb.SessionID)
	return slackResp.TS, nil
}

func formatFeedbackMessage(fb Feedback) string {
	var sb strings.Builder

	emoji := ":-1:"
	if fb.Rating == "up" {
		emoji = ":+1:"
	}
	fmt.Fprintf(&sb, "%s *Learner feedback*", emoji)
	if fb.Grade > 0 {
		fmt.Fprintf(&sb, " (Class %d", fb.Grade)
		if fb.Medium != "" {
			fmt.Fprintf(&sb, ", %s medium", fb.Medium)
		}
		sb.WriteString(")")
	}
	sb.WriteString("\n")

	if fb.Comment != "" {
		fmt.Fprintf(&sb, "*Comment:* %s\n", fb.Comment)
	}
	if fb.Excerpt != "" {
		sb.WriteString("*Answer:*\n")
		for _, line := range strings.Split(truncate(fb.Excerpt, maxExcerpt), "\n") {
			fmt.Fprintf(&sb, "> %s\n", line)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
