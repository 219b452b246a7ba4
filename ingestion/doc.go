// Package ingestion orchestrates the indexing of note files.
//
// The Pipeline chunks each file with the hierarchical chunker, groups the
// chunks into retrieval documents, generates embeddings in batch, and stores
// the documents. Files are independent and processed concurrently on a
// worker pool; within a file, chunk order is preserved.
//
// Chunking and indexing can also run as separate passes through the
// persisted chunk store: ChunkFiles writes chunk files, and IndexChunkFiles
// picks them up later.
package ingestion
