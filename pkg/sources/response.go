package sources

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/jaytaylor/html2text"
)

var ErrInvalidResponse = errors.New("sources: invalid notification response")

// ParseResponse validates a platform notification response of the shape
// {notification:{request:{identifier, content:{title, body, data}}}} and
// converts it to a NotificationEvent. A missing data mapping yields an empty
// payload, which resolves to the default screen.
func ParseResponse(resp map[string]any, interaction intents.Interaction) (intents.NotificationEvent, error) {
	ev := intents.NotificationEvent{Interaction: interaction}
	if resp == nil {
		return ev, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}
	notification, ok := resp["notification"].(map[string]any)
	if !ok {
		return ev, fmt.Errorf("%w: missing notification", ErrInvalidResponse)
	}
	request, ok := notification["request"].(map[string]any)
	if !ok {
		return ev, fmt.Errorf("%w: missing request", ErrInvalidResponse)
	}
	ev.Identifier = stringValue(request["identifier"])

	content, _ := request["content"].(map[string]any)
	if content == nil {
		return ev, nil
	}
	ev.Title = stringValue(content["title"])
	ev.Body = stringValue(content["body"])
	if data, ok := content["data"].(map[string]any); ok {
		ev.Payload = data
	}
	return ev, nil
}

// BuildResponse is the inverse of ParseResponse, used by in-process feeds.
func BuildResponse(identifier, title, body string, data map[string]any) map[string]any {
	return map[string]any{
		"notification": map[string]any{
			"request": map[string]any{
				"identifier": identifier,
				"content": map[string]any{
					"title": title,
					"body":  body,
					"data":  data,
				},
			},
		},
	}
}

// Preview is a plain-text summary of a notification for observation logs.
// An HTML body under data.html is converted to text.
func Preview(ev intents.NotificationEvent) string {
	if html := stringValue(ev.Payload["html"]); html != "" {
		if text, err := html2text.FromString(html, html2text.Options{OmitLinks: true}); err == nil {
			return strings.TrimSpace(text)
		}
	}
	parts := make([]string, 0, 2)
	if t := strings.TrimSpace(ev.Title); t != "" {
		parts = append(parts, t)
	}
	if b := strings.TrimSpace(ev.Body); b != "" {
		parts = append(parts, b)
	}
	return strings.Join(parts, ": ")
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
