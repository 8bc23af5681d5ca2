// Package connectors holds the document sources qpro can read from.
// Only the local filesystem is supported: documents are walked for bulk
// ingestion and watched for re-ingestion.
package connectors
