package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/normalisers/bundle"
)

// scope names the namespace of a request, directly or by tenant identity.
type scope struct {
	Namespace string                 `json:"namespace"`
	Identity  *domain.TenantIdentity `json:"identity"`
}

type askRequest struct {
	scope
	Conversation []domain.ConversationTurn `json:"conversation"`
	Question     string                    `json:"question"`
	K            int                       `json:"k"`
}

type askResponse struct {
	Namespace string   `json:"namespace"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
}

type retrieveRequest struct {
	scope
	Query string `json:"query"`
	K     int    `json:"k"`
}

type retrievedItem struct {
	ContentID        string          `json:"content_id"`
	Modality         domain.Modality `json:"modality"`
	SourceDocumentID string          `json:"source_document_id"`
	Score            float64         `json:"score"`
	Rank             int             `json:"rank"`
	Raw              any             `json:"raw"`
}

type ingestRequest struct {
	SourceDocumentID string            `json:"source_document_id"`
	TenantIndexName  string            `json:"tenant_index_name"`
	Name             string            `json:"name"`
	URL              string            `json:"url"`
	Texts            []string          `json:"texts"`
	Tables           []json.RawMessage `json:"tables"`
	Images           []string          `json:"images"`
}

type reconcileRequest struct {
	scope
	DryRun bool `json:"dry_run"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// POST /v1/ask
func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Question != "" {
		req.Conversation = append(req.Conversation, domain.ConversationTurn{Role: domain.RoleUser, Content: req.Question})
	}

	namespace, err := s.resolve(c, req.scope)
	if err != nil {
		fail(c, err)
		return
	}

	answer, err := s.ports.Chat.Ask(c.Request.Context(), namespace, req.Conversation, s.k(req.K))
	if err != nil {
		s.log.Warn("ask failed", zap.String("namespace", namespace), zap.Error(err))
		fail(c, err)
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	c.JSON(http.StatusOK, askResponse{Namespace: namespace, Answer: answer.Text, Sources: sources})
}

// POST /v1/retrieve
func (s *Server) retrieve(c *gin.Context) {
	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	namespace, err := s.resolve(c, req.scope)
	if err != nil {
		fail(c, err)
		return
	}

	records, err := s.ports.Chat.Retrieve(c.Request.Context(), namespace, req.Query, s.k(req.K))
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]retrievedItem, len(records))
	for i, r := range records {
		items[i] = retrievedItem{
			ContentID:        r.Record.ID,
			Modality:         r.Record.Metadata.Modality,
			SourceDocumentID: r.Record.Metadata.SourceDocumentID,
			Score:            r.Score,
			Rank:             r.Rank,
			Raw:              r.Record.Raw,
		}
	}
	c.JSON(http.StatusOK, gin.H{"namespace": namespace, "data": items})
}

// POST /v1/documents
func (s *Server) ingest(c *gin.Context) {
	if s.ports.Ingest == nil {
		fail(c, fmt.Errorf("%w: ingestion is not enabled", domain.ErrConfiguration))
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	doc := domain.ExtractedDocument{
		SourceDocumentID: req.SourceDocumentID,
		TenantIndexName:  req.TenantIndexName,
		Name:             req.Name,
		URL:              req.URL,
		Texts:            req.Texts,
		Images:           req.Images,
	}
	for i, raw := range req.Tables {
		table, err := bundle.DecodeTable(raw)
		if err != nil {
			badRequest(c, fmt.Sprintf("table %d: %v", i, err))
			return
		}
		doc.Tables = append(doc.Tables, table)
	}

	status, err := s.ports.Ingest.Ingest(c.Request.Context(), doc)
	switch {
	case errors.Is(err, domain.ErrAlreadyIngested):
		c.JSON(http.StatusOK, status)
	case err != nil && status != nil:
		// The failure is recorded; report it with the status.
		c.JSON(statusFor(err), gin.H{"ok": 0, "code": statusFor(err), "message": err.Error(), "status": status})
	case err != nil:
		fail(c, err)
	default:
		c.JSON(http.StatusCreated, status)
	}
}

// GET /v1/documents/:id
func (s *Server) documentStatus(c *gin.Context) {
	status, err := s.ports.Documents.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// DELETE /v1/documents/:id?namespace=
func (s *Server) deleteDocument(c *gin.Context) {
	namespace := c.Query("namespace")
	if namespace == "" {
		badRequest(c, "namespace query parameter is required")
		return
	}

	result, err := s.ports.Documents.Delete(c.Request.Context(), namespace, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document_id":     c.Param("id"),
		"vectors_deleted": result.VectorsDeleted,
		"records_deleted": result.RecordsDeleted,
	})
}

// GET /v1/namespaces/:namespace/documents
func (s *Server) listDocuments(c *gin.Context) {
	statuses, err := s.ports.Documents.List(c.Request.Context(), c.Param("namespace"))
	if err != nil {
		fail(c, err)
		return
	}
	if statuses == nil {
		statuses = []domain.DocumentStatus{}
	}
	c.JSON(http.StatusOK, gin.H{"data": statuses})
}

// POST /v1/reconcile
func (s *Server) reconcile(c *gin.Context) {
	if s.ports.Reconcile == nil {
		fail(c, fmt.Errorf("%w: reconciliation is not enabled", domain.ErrConfiguration))
		return
	}

	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	namespace, err := s.resolve(c, req.scope)
	if err != nil {
		fail(c, err)
		return
	}

	report, err := s.ports.Reconcile.Reconcile(c.Request.Context(), namespace, req.DryRun)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"namespace":        report.Namespace,
		"dangling_vectors": nonNil(report.DanglingVectors),
		"orphaned_records": nonNil(report.OrphanedRecords),
		"repaired":         report.Repaired,
		"clean":            report.Clean(),
	})
}

// resolve returns the explicit namespace or resolves the identity.
func (s *Server) resolve(c *gin.Context, sc scope) (string, error) {
	if sc.Namespace != "" {
		return sc.Namespace, nil
	}
	if sc.Identity == nil {
		return "", fmt.Errorf("%w: namespace or identity is required", domain.ErrInvalidInput)
	}
	if s.ports.Tenants == nil {
		return "", fmt.Errorf("%w: tenant resolution is not configured", domain.ErrConfiguration)
	}
	return s.ports.Tenants.Resolve(c.Request.Context(), *sc.Identity)
}

func (s *Server) k(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.ports.DefaultK
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
