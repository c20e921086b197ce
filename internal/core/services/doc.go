// Package services implements the retrieval and ingestion pipeline.
//
// Services depend only on domain types and port interfaces. Concrete
// stores and model clients are injected by the driving adapters.
//
// Write path: IngestionService → Summariser → Indexer → ContentStore, then VectorIndex.
// Read path: ChatService → Retriever → VectorIndex, then ContentStore → Assembler.
package services
