// Package llm provides language model clients for transaction classification.
// It supports OpenAI, Anthropic, Google Gemini and Ollama backends behind a
// single Ask operation, with rate limiting and response cleanup applied
// uniformly. Generation parameters (temperature, output length cap) live
// here, not in the classification pipeline.
package llm
