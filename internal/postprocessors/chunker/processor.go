// Package chunker provides a fixed-size text chunker with soft boundaries.
package chunker

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// boundaryWindow is the fraction of a chunk, at its tail, searched for a
// paragraph, line or word break to end on.
const boundaryWindow = 5

// Processor splits text into chunks of at most chunkSize runes, overlapping
// by about overlap runes. Chunks end on the last paragraph, line or word
// break in their final fifth when one exists.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits text. Blank text yields no chunks and chunks are trimmed.
func (p *Processor) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= p.chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/(p.chunkSize-p.overlap)+1)
	start := 0
	for start < len(runes) {
		end := start + p.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = p.softEnd(runes, start, end)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		// Step back by the overlap, but always make progress.
		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// softEnd moves end back to the strongest break within the tail window.
func (p *Processor) softEnd(runes []rune, start, end int) int {
	floor := end - p.chunkSize/boundaryWindow
	if floor <= start {
		floor = start + 1
	}

	// Paragraph break, then line break, then any whitespace.
	for i := end; i > floor; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end; i > floor; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
