package domain

// RetrievedRecord is a ContentRecord resolved from a similarity match.
type RetrievedRecord struct {
	Record ContentRecord

	// Score is the similarity score of the originating match.
	Score float64

	// Rank is the zero-based position in the search result.
	Rank int
}

// RetrievedContext is retrieved content partitioned by modality.
// Within each slice, items keep their retrieval rank order.
type RetrievedContext struct {
	Images []ImageContent
	Texts  []string
	Tables []Table
}

// IsEmpty returns true if no content of any modality was retrieved.
func (c RetrievedContext) IsEmpty() bool {
	return len(c.Images) == 0 && len(c.Texts) == 0 && len(c.Tables) == 0
}

// Answer is the result of a chat turn.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources lists distinct source document IDs in rank order.
	Sources []string

	// Retrieved is the number of records that reached the assembler.
	Retrieved int
}
