package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// scope selects the tenant namespace of a tool call.
type scope struct {
	Namespace   string
	CompanyID   string
	ChannelID   string
	ChannelName string
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Namespace   string                    `json:"namespace,omitempty" jsonschema:"tenant namespace to search; takes precedence over channel_id"`
	CompanyID   string                    `json:"company_id,omitempty" jsonschema:"company identifier used to resolve the namespace"`
	ChannelID   string                    `json:"channel_id,omitempty" jsonschema:"stable channel identifier used to resolve the namespace"`
	ChannelName string                    `json:"channel_name,omitempty" jsonschema:"channel name, used only for logging"`
	Question    string                    `json:"question" jsonschema:"the question to answer"`
	History     []domain.ConversationTurn `json:"history,omitempty" jsonschema:"earlier conversation turns, oldest first"`
	K           int                       `json:"k,omitempty" jsonschema:"number of records to retrieve"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Namespace string   `json:"namespace"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Namespace   string `json:"namespace,omitempty" jsonschema:"tenant namespace to search; takes precedence over channel_id"`
	CompanyID   string `json:"company_id,omitempty" jsonschema:"company identifier used to resolve the namespace"`
	ChannelID   string `json:"channel_id,omitempty" jsonschema:"stable channel identifier used to resolve the namespace"`
	ChannelName string `json:"channel_name,omitempty" jsonschema:"channel name, used only for logging"`
	Query       string `json:"query" jsonschema:"the text to match against indexed summaries"`
	K           int    `json:"k,omitempty" jsonschema:"maximum number of records to return"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Namespace string         `json:"namespace"`
	Records   []RecordOutput `json:"records"`
	Count     int            `json:"count"`
}

// RecordOutput represents a single retrieved record.
type RecordOutput struct {
	ContentID        string  `json:"content_id"`
	Modality         string  `json:"modality"`
	SourceDocumentID string  `json:"source_document_id"`
	Score            float64 `json:"score"`
	Rank             int     `json:"rank"`
	Content          string  `json:"content,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from a tenant's indexed documents and cite the source documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the raw text, tables and images most relevant to a query",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	ns, err := s.resolve(ctx, scopeOf(input.Namespace, input.CompanyID, input.ChannelID, input.ChannelName))
	if err != nil {
		return nil, AskOutput{}, err
	}

	conversation := make([]domain.ConversationTurn, 0, len(input.History)+1)
	conversation = append(conversation, input.History...)
	conversation = append(conversation, domain.ConversationTurn{Role: domain.RoleUser, Content: input.Question})

	answer, err := s.ports.Chat.Ask(ctx, ns, conversation, s.k(input.K))
	if err != nil {
		s.log.Warn("ask failed", zap.String("namespace", ns), zap.Error(err))
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	return nil, AskOutput{Namespace: ns, Answer: answer.Text, Sources: sources}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	ns, err := s.resolve(ctx, scopeOf(input.Namespace, input.CompanyID, input.ChannelID, input.ChannelName))
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	records, err := s.ports.Chat.Retrieve(ctx, ns, input.Query, s.k(input.K))
	if err != nil {
		s.log.Warn("retrieve failed", zap.String("namespace", ns), zap.Error(err))
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Namespace: ns,
		Records:   make([]RecordOutput, len(records)),
		Count:     len(records),
	}
	for i, r := range records {
		output.Records[i] = RecordOutput{
			ContentID:        r.Record.ID,
			Modality:         r.Record.Metadata.Modality.String(),
			SourceDocumentID: r.Record.Metadata.SourceDocumentID,
			Score:            r.Score,
			Rank:             r.Rank,
			Content:          contentString(r.Record.Raw),
		}
	}
	return nil, output, nil
}

func scopeOf(namespace, companyID, channelID, channelName string) scope {
	return scope{Namespace: namespace, CompanyID: companyID, ChannelID: channelID, ChannelName: channelName}
}

// resolve picks the namespace of a call. An explicit namespace wins.
func (s *Server) resolve(ctx context.Context, sc scope) (string, error) {
	if sc.Namespace != "" {
		return sc.Namespace, nil
	}
	if sc.ChannelID == "" {
		return "", fmt.Errorf("%w: namespace or channel_id is required", domain.ErrInvalidInput)
	}
	if s.ports.Tenants == nil {
		return "", fmt.Errorf("%w: tenant resolution is not configured", domain.ErrConfiguration)
	}
	return s.ports.Tenants.Resolve(ctx, domain.TenantIdentity{
		CompanyID:   sc.CompanyID,
		ChannelID:   sc.ChannelID,
		ChannelName: sc.ChannelName,
	})
}

// contentString flattens raw content for a text-only tool result.
// Tables are rendered as tab separated rows.
func contentString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case domain.Table:
		var b strings.Builder
		b.WriteString(strings.Join(v.Columns, "\t"))
		for _, row := range v.Rows {
			b.WriteByte('\n')
			b.WriteString(strings.Join(row, "\t"))
		}
		return b.String()
	default:
		return ""
	}
}
