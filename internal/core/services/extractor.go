package services

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ExtractionService implements the interface.
var _ driven.Extractor = (*ExtractionService)(nil)

// ExtractionService picks a normaliser by MIME type, then chunks its text.
type ExtractionService struct {
	byMIME  map[string][]driven.Normaliser
	chunker driven.Chunker
}

// NewExtractionService creates an extraction service. Among normalisers
// sharing a MIME type, the highest priority wins.
func NewExtractionService(chunker driven.Chunker, normalisers ...driven.Normaliser) *ExtractionService {
	s := &ExtractionService{
		byMIME:  make(map[string][]driven.Normaliser),
		chunker: chunker,
	}
	for _, n := range normalisers {
		for _, mt := range n.SupportedMIMETypes() {
			s.byMIME[mt] = append(s.byMIME[mt], n)
		}
	}
	for mt := range s.byMIME {
		list := s.byMIME[mt]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() > list[j].Priority() })
	}
	return s
}

// Supports reports whether some normaliser handles the MIME type.
func (s *ExtractionService) Supports(mimeType string) bool {
	return s.lookup(mimeType) != nil
}

// Extract turns a fetched document into the three element lists of one
// ExtractedDocument in namespace.
func (s *ExtractionService) Extract(
	ctx context.Context,
	raw domain.RawDocument,
	namespace string,
) (*domain.ExtractedDocument, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	normaliser := s.lookup(raw.MIMEType)
	if normaliser == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MIMEType)
	}

	result, err := normaliser.Normalise(ctx, &raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.ID, err)
	}

	texts := result.Chunks
	if len(texts) == 0 && s.chunker != nil {
		texts = s.chunker.Chunk(result.Text)
	} else if len(texts) == 0 && strings.TrimSpace(result.Text) != "" {
		texts = []string{strings.TrimSpace(result.Text)}
	}

	name := result.Title
	if name == "" {
		name = raw.Name
	}

	return &domain.ExtractedDocument{
		SourceDocumentID: raw.ID,
		TenantIndexName:  namespace,
		Name:             name,
		URL:              raw.URI,
		Texts:            texts,
		Tables:           result.Tables,
		Images:           result.Images,
	}, nil
}

// lookup matches the media type without parameters ("text/csv; charset=utf-8").
func (s *ExtractionService) lookup(mimeType string) driven.Normaliser {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	if list := s.byMIME[strings.ToLower(mimeType)]; len(list) > 0 {
		return list[0]
	}
	return nil
}
