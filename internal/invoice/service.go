// Package invoice reads the commission invoices issued by non-domiciled
// portfolio managers with Google Document AI and turns them into the data
// that prefills the form 1041 voucher.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID
//   - GOOGLE_CLOUD_LOCATION: Processing location (e.g., "us", "eu")
//   - DOCUMENT_AI_PROCESSOR_ID: Document AI invoice parser processor ID
//
// Document AI API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Processing time: Typically 5-15 seconds per invoice
package invoice

import (
	"context"
	"io"
	"time"

	"igvtools/pkg/models"
)

// Extractor reads a provider invoice from its PDF.
type Extractor interface {
	// Extract returns the invoice data together with the Document AI
	// confidence per entity type in ProviderInvoice.Confidence.
	Extract(ctx context.Context, pdfData io.Reader) (*models.ProviderInvoice, error)
}

// DocumentAIConfig holds configuration for Google Document AI processing.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the Document AI invoice parser processor ID.
	ProcessorID string

	// ProcessorVersion pins a processor version. Empty uses the default.
	ProcessorVersion string

	// Timeout is the maximum time to wait for processing.
	Timeout time.Duration
}

// DefaultConfig returns a DocumentAIConfig with sensible defaults.
func DefaultConfig() DocumentAIConfig {
	return DocumentAIConfig{
		Location: "us",
		Timeout:  60 * time.Second,
	}
}
