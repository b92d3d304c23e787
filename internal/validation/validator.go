// Package validation validates conversion requests and survey input files
// before a run starts, so bad input fails fast with a field-level message.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "whizzcli/internal/errors"
)

// ConversionRequest is the validated shape of a conversion submission.
type ConversionRequest struct {
	SurveyFile   string  `json:"survey_file" validate:"required"`
	DatasetFile  string  `json:"dataset_file,omitempty"`
	// MissingValue overrides the configured sentinel when present; nil
	// keeps the configured default (zero is a legal sentinel).
	MissingValue *float64 `json:"missing_value,omitempty"`
	PreviewLines int     `json:"preview_lines,omitempty" validate:"gte=0,lte=100"`
}

// RequestValidator validates API and CLI conversion requests.
type RequestValidator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRequestValidator creates a request validator.
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ValidateRequest checks a conversion request, returning field-level
// validation errors suitable for an API response.
func (v *RequestValidator) ValidateRequest(req *ConversionRequest) []apperrors.ValidationError {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors []apperrors.ValidationError
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fieldErrors = append(fieldErrors, apperrors.ValidationError{
			Field:   "request",
			Message: err.Error(),
		})
		return fieldErrors
	}

	for _, fe := range validationErrs {
		fieldErrors = append(fieldErrors, apperrors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed %s validation", fe.Tag()),
		})
		v.logger.Warn("request validation failed",
			slog.String("field", fe.Field()),
			slog.String("tag", fe.Tag()))
	}
	return fieldErrors
}

// ValidateSurveyFile checks that the survey file exists, is a regular file,
// and is not empty.
func (v *RequestValidator) ValidateSurveyFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Survey file does not exist", slog.String("path", path))
		return fmt.Errorf("survey file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat survey file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a survey file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("survey file %s is empty", path)
	}
	return nil
}
