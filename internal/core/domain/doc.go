// Package domain holds the types that flow through retrieval and context
// assembly: content records and their classified form, vector entries,
// retrieved records, prompt payloads, conversations and document status.
//
// It depends on the standard library only. Every other package may import
// it; it imports none of them.
package domain
