package invoice

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"igvtools/internal/config"
	"igvtools/internal/logger"
	"igvtools/pkg/models"
)

// MaxDocumentSizeBytes is the maximum document size for processing (20MB)
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// DocumentAIProcessor implements Extractor using Google Document AI.
type DocumentAIProcessor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// ConfigFrom builds the Document AI settings from the application config.
func ConfigFrom(cfg *config.Config) DocumentAIConfig {
	c := DefaultConfig()
	c.ProjectID = cfg.GoogleCloudProject
	if cfg.GoogleCloudLocation != "" {
		c.Location = cfg.GoogleCloudLocation
	}
	c.ProcessorID = cfg.DocumentAIProcessorID
	return c
}

// NewDocumentAIProcessor creates a processor with credentials from the
// environment (GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS).
func NewDocumentAIProcessor(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIProcessor, error) {
	const op = "NewDocumentAIProcessor"

	if cfg.ProjectID == "" {
		return nil, WrapExtractionError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if cfg.ProcessorID == "" {
		return nil, WrapExtractionError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	var clientOptions []option.ClientOption
	if cfg.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapExtractionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapExtractionError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return &DocumentAIProcessor{
		client: client,
		config: cfg,
		log:    logger.WithComponent("document-ai"),
	}, nil
}

// Extract reads the invoice PDF and maps the Document AI entities.
func (p *DocumentAIProcessor) Extract(ctx context.Context, pdfData io.Reader) (*models.ProviderInvoice, error) {
	const op = "Extract"

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapExtractionError(op, err, "failed to read PDF data")
	}
	if len(pdfBytes) > MaxDocumentSizeBytes {
		return nil, WrapExtractionError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapExtractionError(op, ErrInvalidPDF, "missing PDF header")
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapExtractionError(op, ErrProcessingFailed, "no document in response")
	}

	inv := mapDocument(resp.Document, p.log)
	if err := Validate(inv); err != nil {
		return inv, WrapExtractionError(op, err, "incomplete invoice")
	}
	return inv, nil
}

// processorName constructs the full processor name for the Document AI API.
func (p *DocumentAIProcessor) processorName() string {
	if p.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			p.config.ProjectID, p.config.Location, p.config.ProcessorID, p.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		p.config.ProjectID, p.config.Location, p.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to extraction errors.
func (p *DocumentAIProcessor) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapExtractionError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED"), strings.Contains(errStr, "RESOURCE_EXHAUSTED"):
		return WrapExtractionError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapExtractionError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapExtractionError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapExtractionError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return WrapExtractionError(op, ErrContextCanceled, "processing was canceled")
	default:
		return WrapExtractionError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIProcessor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
