package services

import (
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// DefaultAnswerPreamble instructs the model to answer from context only.
const DefaultAnswerPreamble = `You are a helpful chat bot.
You will be given a mix of text, tables, and image(s).
Use this information to answer the user question.
Only limit your knowledge to context set here.`

// EmptyContextNotice replaces the context when nothing was retrieved.
const EmptyContextNotice = "No relevant context was found in the indexed documents."

// Assembler turns retrieved records into a model-ready PromptPayload.
// The text of the payload depends only on its inputs, never on map order.
type Assembler struct {
	images          driven.ImageNormaliser
	tables          driven.TableRenderer
	prompts         driven.PromptStore
	maxContextChars int
}

// NewAssembler creates an assembler. A nil image normaliser drops images;
// a nil table renderer falls back to tab-separated rows.
func NewAssembler(images driven.ImageNormaliser, tables driven.TableRenderer) *Assembler {
	return &Assembler{images: images, tables: tables}
}

// SetPromptStore sets the store the answer preamble is loaded from.
func (a *Assembler) SetPromptStore(store driven.PromptStore) {
	a.prompts = store
}

// SetMaxContextChars caps the rendered context. Zero disables the cap.
func (a *Assembler) SetMaxContextChars(n int) {
	a.maxContextChars = n
}

// Partition classifies records into images, texts and tables, keeping rank
// order within each modality. The first text or table that would overflow
// the context budget ends the textual context: it and every lower-ranked
// text or table are dropped. Images are not counted against the budget.
func (a *Assembler) Partition(records []domain.RetrievedRecord) domain.RetrievedContext {
	var ctx domain.RetrievedContext
	budget := a.maxContextChars
	used := 0
	full := false

	fits := func(id string, size int) bool {
		if full {
			return false
		}
		if budget > 0 && used+size > budget {
			logger.Debug("Context budget reached at %s, dropping it and lower ranks", id)
			full = true
			return false
		}
		used += size
		return true
	}

	for _, rec := range records {
		content := Classify(rec.Record.Raw)
		switch c := content.(type) {
		case domain.ImageContent:
			ctx.Images = append(ctx.Images, c)
		case domain.TextContent:
			if fits(rec.Record.ID, len(c.Text)) {
				ctx.Texts = append(ctx.Texts, c.Text)
			}
		case domain.TableContent:
			if fits(rec.Record.ID, len(a.renderTable(c.Table))) {
				ctx.Tables = append(ctx.Tables, c.Table)
			}
		}
	}
	return ctx
}

// Assemble builds the payload for a question. It never fails: undecodable
// images are dropped and an empty retrieval yields an explicit notice.
func (a *Assembler) Assemble(
	records []domain.RetrievedRecord, question string, history []domain.ConversationTurn,
) domain.PromptPayload {
	logger.Section("Assemble")
	retrieved := a.Partition(records)
	logger.Debug("Partitioned: %d text(s), %d table(s), %d image(s)",
		len(retrieved.Texts), len(retrieved.Tables), len(retrieved.Images))

	payload := domain.PromptPayload{
		Images:  a.normaliseImages(retrieved.Images),
		History: history,
	}

	var b strings.Builder
	b.WriteString(a.preamble())
	b.WriteString("\nUser-provided question: ")
	b.WriteString(question)
	b.WriteString("\n\nText and / or tables context:\n")
	b.WriteString(a.RenderContext(retrieved))
	payload.Text = b.String()

	return payload
}

// RenderContext renders texts as newline-separated lines followed by a
// "Tables:" section. An empty context renders as EmptyContextNotice.
func (a *Assembler) RenderContext(retrieved domain.RetrievedContext) string {
	if len(retrieved.Texts) == 0 && len(retrieved.Tables) == 0 {
		if len(retrieved.Images) > 0 {
			return "(see attached image(s))"
		}
		return EmptyContextNotice
	}

	var b strings.Builder
	b.WriteString(strings.Join(retrieved.Texts, "\n"))
	if len(retrieved.Tables) > 0 {
		if len(retrieved.Texts) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Tables:\n")
		for i, t := range retrieved.Tables {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(a.renderTable(t))
		}
	}
	return b.String()
}

func (a *Assembler) normaliseImages(images []domain.ImageContent) []domain.InlineImage {
	out := make([]domain.InlineImage, 0, len(images))
	if a.images == nil {
		if len(images) > 0 {
			logger.Debug("No image normaliser, dropping %d image(s)", len(images))
		}
		return out
	}
	for i, img := range images {
		inline, err := a.images.Normalise(img)
		if err != nil {
			logger.Warn("Dropping image %d (%s): %v", i, img.Format, err)
			continue
		}
		out = append(out, inline)
	}
	return out
}

func (a *Assembler) renderTable(t domain.Table) string {
	if a.tables != nil {
		return a.tables.Render(t)
	}
	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n")
}

func (a *Assembler) preamble() string {
	if a.prompts == nil {
		return DefaultAnswerPreamble
	}
	p, err := a.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.TrimSpace(p) == "" {
		return DefaultAnswerPreamble
	}
	return p
}
