package transform

import (
	"fmt"
	"strings"

	"github.com/lazaroMB/mcp-to-api/pkg/mcp/protocol"
)

// ToolContent maps a downstream result into protocol content items. Non-2xx
// responses keep their body (it usually carries the API's error detail) but
// flip isError on the call result.
func ToolContent(uri string, res *Result) ([]protocol.Content, bool) {
	text := string(res.Body)
	if text == "" {
		text = fmt.Sprintf("downstream responded with status %d", res.Status)
	}

	content := protocol.Content{Type: "text", Text: text}
	if strings.HasPrefix(res.ContentType, "application/json") {
		content = protocol.Content{
			Type: "resource",
			Resource: &protocol.ResourceContents{
				URI:      uri,
				MimeType: "application/json",
				Text:     text,
			},
		}
	}
	return []protocol.Content{content}, !res.Succeeded()
}

// ErrorContent renders a transformation or transport failure as tool error
// content, so one failing call never aborts the JSON-RPC connection.
func ErrorContent(err error) ([]protocol.Content, bool) {
	return []protocol.Content{{Type: "text", Text: err.Error()}}, true
}
