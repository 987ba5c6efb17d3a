// Package rag orchestrates the retrieval-augmented-generation pipelines:
// the Indexer rebuilds the chunk embeddings whenever the handbook changes,
// and the Retriever answers employee questions grounded in the stored
// chunks.
//
// Neither pipeline talks to the network or the database directly; they
// compose the chunker, the genai clients and the vector store through small
// consumer-side interfaces.
package rag
