package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Test struct mirroring the product creation payload
type testProductRequest struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing name is rejected", prop.ForAll(
		func(includeNameField bool) bool {
			reqMap := map[string]interface{}{
				"price": 42.5,
			}
			if includeNameField {
				reqMap["name"] = "Standing Desk"
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var testReq testProductRequest
			err := DecodeAndValidate(req, &testReq)

			if includeNameField {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that validation errors are properly formatted
func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors include field information", prop.ForAll(
		func() bool {
			// Negative price fails the gte=0 rule
			reqMap := map[string]interface{}{
				"name":  "Standing Desk",
				"price": -10.0,
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var testReq testProductRequest
			err := DecodeAndValidate(req, &testReq)

			if err == nil {
				return false // Should have validation error
			}

			// Format the errors
			validationErrors := FormatValidationErrors(err)

			// Should have at least one error
			if len(validationErrors) == 0 {
				return false
			}

			// Each error should have a field and message
			for _, ve := range validationErrors {
				if ve.Field == "" || ve.Message == "" {
					return false
				}
			}

			return true
		},
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test price bound validation
func TestProperty_PriceBoundValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("negative prices are rejected", prop.ForAll(
		func(price float64) bool {
			reqMap := map[string]interface{}{
				"name":  "Standing Desk",
				"price": price,
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var testReq testProductRequest
			err := DecodeAndValidate(req, &testReq)

			if price >= 0 {
				return err == nil
			}
			return err != nil
		},
		gen.Float64Range(-10000, 10000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that malformed JSON is rejected before validation
func TestDecodeAndValidateRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte(`{"name": "Desk",`)))
	req.Header.Set("Content-Type", "application/json")

	var testReq testProductRequest
	if err := DecodeAndValidate(req, &testReq); err == nil {
		t.Error("expected error for malformed JSON, got nil")
	}
}
