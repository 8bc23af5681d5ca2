// Package driven declares what the core needs from the outside world:
// extractors, the chunking pipeline, storage, both indexes, the AI
// providers, prompts and configuration. Adapters under
// internal/adapters/driven satisfy them.
package driven
