// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/trawler/internal/models"
)

func TestValidateStructPasses(t *testing.T) {
	req := models.CrawlRequest{
		Input: "https://www.reddit.com/r/programming",
		Sort:  "top",
		Start: 1,
		End:   5,
	}

	if err := ValidateStruct(&req); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateStructMissingInput(t *testing.T) {
	req := models.CrawlRequest{}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for missing input")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "invalid_parameters" {
		t.Errorf("Code = %q, want invalid_parameters", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Input") {
		t.Errorf("Message %q should name the field", apiErr.Message)
	}
}

func TestValidateStructBadTimeFilter(t *testing.T) {
	req := models.CrawlRequest{
		Input:      "r/golang",
		TimeFilter: "fortnight",
	}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for unknown time_filter")
	}

	if got := err.Errors()[0].Tag(); got != "oneof" {
		t.Errorf("Tag = %q, want oneof", got)
	}
}

func TestValidateCancelRequest(t *testing.T) {
	good := models.CancelRequest{
		CrawlID: "8e95cfd0-4f3a-4d7e-9d52-0a4c6a1f11aa",
		Action:  "cancel",
	}
	if err := ValidateStruct(&good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := models.CancelRequest{CrawlID: "not-a-uuid", Action: "cancel"}
	if err := ValidateStruct(&bad); err == nil {
		t.Error("expected error for malformed crawl_id")
	}

	wrongAction := models.CancelRequest{
		CrawlID: "8e95cfd0-4f3a-4d7e-9d52-0a4c6a1f11aa",
		Action:  "pause",
	}
	if err := ValidateStruct(&wrongAction); err == nil {
		t.Error("expected error for unsupported action")
	}
}

func TestMultipleErrorsAggregated(t *testing.T) {
	req := models.CrawlRequest{
		Input:    "",
		Language: "fr",
	}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) < 2 {
		t.Fatalf("expected at least 2 errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multi-error details should carry a fields list")
	}
}
