package search

import "errors"

// ErrNoRetrievalService is reported when the view has no retrieval service.
var ErrNoRetrievalService = errors.New("retrieval service is required")
