package driven

// Chunker splits extracted text into retrieval-sized chunks.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk splits text; blank text yields no chunks.
	Chunk(text string) []string
}
