package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// DefaultSummarisePrompt instructs summarisation of text chunks and tables.
const DefaultSummarisePrompt = `You are an assistant tasked with summarizing tables and text for retrieval. ` +
	`These summaries will be embedded and used to retrieve the raw text or table elements. ` +
	`Give a concise summary of the table or text that is well optimized for retrieval.`

// DefaultDescribeImagePrompt instructs description of images.
const DefaultDescribeImagePrompt = `You are an assistant tasked with summarizing images for retrieval. ` +
	`These summaries will be embedded and used to retrieve the raw image. ` +
	`Give a concise summary of the image that is well optimized for retrieval.`

// SummaryOptions configures a Summariser.
type SummaryOptions struct {
	// SummariseTexts asks the model to summarise text chunks. When false the
	// chunk itself is embedded.
	SummariseTexts bool

	// Concurrency caps outstanding model calls per modality. Default 1.
	Concurrency int

	// RequestsPerSecond caps model calls across all modalities. Zero disables it.
	RequestsPerSecond float64
}

// Summaries holds one summary per extracted element, aligned with the
// document's element slices. A nil slice means that modality is skipped.
type Summaries struct {
	Texts  []string
	Tables []string
	Images []string
}

// Summariser produces the summaries that get embedded for each element.
// Modalities are summarised in parallel; within a modality at most
// Concurrency calls are in flight.
type Summariser struct {
	llm     driven.LLMService
	tables  driven.TableRenderer
	images  driven.ImageNormaliser
	prompts driven.PromptStore
	opts    SummaryOptions
	limiter *rate.Limiter
}

// NewSummariser creates a summariser. llm may be nil: texts then embed as
// themselves, tables as their rendering, and images are skipped.
func NewSummariser(
	llm driven.LLMService, tables driven.TableRenderer, images driven.ImageNormaliser, opts SummaryOptions,
) *Summariser {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	s := &Summariser{llm: llm, tables: tables, images: images, opts: opts}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return s
}

// SetPromptStore sets the store summary instructions are loaded from.
func (s *Summariser) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Summarise summarises every element of a document.
func (s *Summariser) Summarise(ctx context.Context, doc domain.ExtractedDocument) (*Summaries, error) {
	out := &Summaries{}
	g, gctx := errgroup.WithContext(ctx)

	if len(doc.Texts) > 0 {
		g.Go(func() error {
			texts, err := s.summariseTexts(gctx, doc.Texts)
			out.Texts = texts
			return err
		})
	}
	if len(doc.Tables) > 0 {
		g.Go(func() error {
			tables, err := s.summariseTables(gctx, doc.Tables)
			out.Tables = tables
			return err
		})
	}
	if len(doc.Images) > 0 {
		g.Go(func() error {
			images, err := s.summariseImages(gctx, doc.Images)
			out.Images = images
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Summariser) summariseTexts(ctx context.Context, texts []string) ([]string, error) {
	if !s.opts.SummariseTexts || s.llm == nil {
		return append([]string(nil), texts...), nil
	}
	instruction := s.load(driven.PromptSummarise, DefaultSummarisePrompt)
	return s.each(ctx, len(texts), func(ctx context.Context, i int) (string, error) {
		return s.llm.Summarise(ctx, instruction, texts[i])
	})
}

func (s *Summariser) summariseTables(ctx context.Context, tables []domain.Table) ([]string, error) {
	rendered := make([]string, len(tables))
	for i, t := range tables {
		rendered[i] = s.render(t)
	}
	if s.llm == nil {
		return rendered, nil
	}
	instruction := s.load(driven.PromptSummarise, DefaultSummarisePrompt)
	return s.each(ctx, len(tables), func(ctx context.Context, i int) (string, error) {
		return s.llm.Summarise(ctx, instruction, rendered[i])
	})
}

func (s *Summariser) summariseImages(ctx context.Context, images []string) ([]string, error) {
	if s.llm == nil {
		logger.Warn("No LLM configured, skipping %d image(s)", len(images))
		return nil, nil
	}
	instruction := s.load(driven.PromptDescribeImage, DefaultDescribeImagePrompt)
	return s.each(ctx, len(images), func(ctx context.Context, i int) (string, error) {
		inline, err := s.inline(images[i])
		if err != nil {
			return "", fmt.Errorf("image %d: %w", i, err)
		}
		return s.llm.DescribeImage(ctx, instruction, inline)
	})
}

// each runs fn for indices [0, n) with bounded concurrency, keeping order.
func (s *Summariser) each(
	ctx context.Context, n int, fn func(ctx context.Context, i int) (string, error),
) ([]string, error) {
	results := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			summary, err := fn(gctx, i)
			if err != nil {
				return fmt.Errorf("summarise: %w", err)
			}
			results[i] = strings.TrimSpace(summary)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Summariser) inline(data string) (domain.InlineImage, error) {
	content, ok := Classify(data).(domain.ImageContent)
	if !ok {
		return domain.InlineImage{}, fmt.Errorf("%w: not a base64 image", domain.ErrInvalidInput)
	}
	if s.images != nil {
		return s.images.Normalise(content)
	}
	return domain.InlineImage{MIMEType: "image/" + content.Format, Data: content.Data}, nil
}

func (s *Summariser) render(t domain.Table) string {
	if s.tables != nil {
		return s.tables.Render(t)
	}
	return (&Assembler{}).renderTable(t)
}

func (s *Summariser) load(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	p, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		return fallback
	}
	return p
}
