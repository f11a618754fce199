package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/executor"
)

// Client is the subset of an MCP client used by Invoker.
// *client.Client satisfies it.
type Client interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	ReadResource(ctx context.Context, request mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)
	GetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error)
}

// Invoker implements ports.CapabilityInvoker on top of an MCP server.
// Connection management is the host's concern: the client must already be
// initialized.
type Invoker struct {
	client Client
	closer func() error
}

// NewInvoker wraps an initialized client.
func NewInvoker(c Client) *Invoker {
	return &Invoker{client: c}
}

// NewStdioInvoker starts command as an MCP server over stdio and performs
// the initialize handshake.
func NewStdioInvoker(ctx context.Context, command string, env []string, args ...string) (*Invoker, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("start mcp server %q: %w", command, err)
	}
	if err := Initialize(ctx, c); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Invoker{client: c, closer: c.Close}, nil
}

// Initialize performs the MCP handshake on c.
func Initialize(ctx context.Context, c *client.Client) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "lattice",
		Version: strings.TrimSpace(lattice.Version),
	}
	if _, err := c.Initialize(ctx, req); err != nil {
		return fmt.Errorf("initialize mcp session: %w", err)
	}
	return nil
}

// Close releases the underlying client when the invoker owns it.
func (i *Invoker) Close() error {
	if i.closer == nil {
		return nil
	}
	return i.closer()
}

// Invoke calls the capability id of the given kind.
//   - tool: params are the call arguments.
//   - resource: id is a URI; "{name}" segments are filled from params.
//   - prompt: params are stringified prompt arguments.
func (i *Invoker) Invoke(ctx context.Context, kind domain.CapabilityKind, id string, params map[string]any) (any, error) {
	switch kind {
	case domain.CapabilityTool:
		return i.callTool(ctx, id, params)
	case domain.CapabilityResource:
		return i.readResource(ctx, id, params)
	case domain.CapabilityPrompt:
		return i.getPrompt(ctx, id, params)
	default:
		return nil, fmt.Errorf("unknown capability kind %q", kind)
	}
}

func (i *Invoker) callTool(ctx context.Context, name string, params map[string]any) (any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = params

	res, err := i.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", name, err)
	}
	if res.IsError {
		return nil, fmt.Errorf("tool %s: %s", name, joinText(res.Content))
	}
	if res.StructuredContent != nil {
		return res.StructuredContent, nil
	}
	return contentValue(res.Content), nil
}

func (i *Invoker) readResource(ctx context.Context, uri string, params map[string]any) (any, error) {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = expandURI(uri, params)

	res, err := i.client.ReadResource(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", req.Params.URI, err)
	}
	values := make([]any, 0, len(res.Contents))
	for _, c := range res.Contents {
		switch rc := c.(type) {
		case mcp.TextResourceContents:
			values = append(values, textValue(rc.Text))
		case *mcp.TextResourceContents:
			values = append(values, textValue(rc.Text))
		case mcp.BlobResourceContents:
			values = append(values, rc.Blob)
		case *mcp.BlobResourceContents:
			values = append(values, rc.Blob)
		}
	}
	return single(values), nil
}

func (i *Invoker) getPrompt(ctx context.Context, name string, params map[string]any) (any, error) {
	req := mcp.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = make(map[string]string, len(params))
	for k, v := range params {
		s, err := cast.ToStringE(v)
		if err != nil {
			b, jerr := json.Marshal(v)
			if jerr != nil {
				return nil, fmt.Errorf("prompt %s: argument %s: %w", name, k, err)
			}
			s = string(b)
		}
		req.Params.Arguments[k] = s
	}

	res, err := i.client.GetPrompt(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get prompt %s: %w", name, err)
	}
	messages := make([]any, 0, len(res.Messages))
	for _, m := range res.Messages {
		messages = append(messages, map[string]any{
			"role":    string(m.Role),
			"content": joinText([]mcp.Content{m.Content}),
		})
	}
	return map[string]any{
		"description": res.Description,
		"messages":    messages,
	}, nil
}

// expandURI substitutes "{name}" with the escaped parameter value.
func expandURI(uri string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(uri, "{") {
		return uri
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		uri = strings.ReplaceAll(uri, "{"+k+"}", url.PathEscape(cast.ToString(params[k])))
	}
	return uri
}

func contentValue(content []mcp.Content) any {
	values := make([]any, 0, len(content))
	for _, c := range content {
		if tc, ok := mcp.AsTextContent(c); ok {
			values = append(values, textValue(tc.Text))
		}
	}
	return single(values)
}

func single(values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}

// textValue decodes JSON text, leaving anything else as a string.
func textValue(text string) any {
	if !json.Valid([]byte(text)) {
		return text
	}
	v, err := executor.ParseLiteral(text)
	if err != nil {
		return text
	}
	return v
}

func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
