// Package query implements the question-answering pipeline.
//
// The Engine type runs a multi-stage pipeline for each question:
//   - Query enrichment: an LLM extracts sprint, date, activity, and context
//     fields explicitly named in the question and the question is rewritten
//     to state them.
//   - Semantic search using vector embeddings over the indexed documents.
//   - Hybrid reranking that combines the similarity score with
//     metadata-match and keyword-overlap signals.
//   - Answer synthesis from the surviving candidates.
//
// Enrichment degrades gracefully: a completion the pipeline cannot parse
// leaves the question unchanged rather than failing the query.
package query
