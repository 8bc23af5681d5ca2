// Package services implements the driving port interfaces: ingestion,
// retrieval, draft composition, document management and settings.
//
// Services depend only on driven ports. Adapters are injected by the
// composition root in cmd/qpro.
package services
