// Package driven declares what the core needs from the outside world.
//
// Storage: ContentStore (raw records by content ID), VectorIndex (summary
// embeddings per namespace) and StatusStore (per-document ingestion state).
// Models: EmbeddingService and LLMService. Tenancy: TenantResolver.
// Ingestion inputs: Connector, Extractor, Normaliser and Chunker.
// Prompt rendering: ImageNormaliser, TableRenderer and PromptStore.
// Settings: ConfigStore.
//
// A nil LLMService disables chat and summarisation. A nil ImageNormaliser
// drops images from prompts.
package driven
