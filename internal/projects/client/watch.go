package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	"github.com/designstudio/portfolio-backend/internal/projects/events"
)

// Message is one item from the live project stream. The first message is
// "initial" and carries the full list; later ones carry a single change.
type Message struct {
	Event    string
	Projects []domain.Project
	Change   *events.Event
}

// Watch follows the live project stream until ctx is done or the server
// closes the connection. fn is called for every message in order.
func (c *Client) Watch(ctx context.Context, fn func(Message)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/v1/projects/stream"), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body [4096]byte
		n, _ := resp.Body.Read(body[:])
		return statusError(resp.StatusCode, body[:n])
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64<<10), 4<<20)

	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event != "" || data.Len() > 0 {
				if msg, err := decodeMessage(event, data.String()); err == nil {
					fn(msg)
				}
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// keep-alive
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return transportError(ctx, err)
	}
	return nil
}

func decodeMessage(event, data string) (Message, error) {
	msg := Message{Event: event}
	if event == "initial" {
		var body struct {
			Projects []domain.Project `json:"projects"`
		}
		if err := json.Unmarshal([]byte(data), &body); err != nil {
			return Message{}, err
		}
		msg.Projects = body.Projects
		return msg, nil
	}

	var ev events.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return Message{}, err
	}
	msg.Change = &ev
	return msg, nil
}
