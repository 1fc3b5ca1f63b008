// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package dispatch

import (
	"fmt"
	"time"

	"github.com/tomtom215/trawler/internal/dateparse"
	"github.com/tomtom215/trawler/internal/models"
	"github.com/tomtom215/trawler/internal/validation"
)

// defaultRankSpan is the number of ranks requested when the caller leaves
// start/end unset.
const defaultRankSpan = 20

// ValidateRequest applies defaults and runs the pre-dispatch parameter
// checks. It returns the normalized request; any violation comes back as an
// invalid_parameters crawl error.
func (d *Dispatcher) ValidateRequest(req models.CrawlRequest) (models.CrawlRequest, error) {
	if req.Start <= 0 {
		req.Start = 1
	}
	if req.End <= 0 {
		req.End = req.Start + defaultRankSpan - 1
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		return req, invalidParams(verr.Error())
	}

	if req.End < req.Start {
		return req, invalidParams(fmt.Sprintf("end %d is before start %d", req.End, req.Start))
	}
	if span := req.End - req.Start; span > d.cfg.MaxRankRange {
		return req, invalidParams(fmt.Sprintf("rank range %d exceeds maximum %d", span, d.cfg.MaxRankRange))
	}

	if req.TimeFilter == models.TimeFilterCustom && (req.StartDate == "" || req.EndDate == "") {
		return req, invalidParams("custom time filter requires start_date and end_date")
	}

	var start, end time.Time
	if req.StartDate != "" {
		t, ok := dateparse.Parse(req.StartDate)
		if !ok {
			return req, invalidParams(fmt.Sprintf("unparseable start_date %q", req.StartDate))
		}
		start = t
	}
	if req.EndDate != "" {
		t, ok := dateparse.Parse(req.EndDate)
		if !ok {
			return req, invalidParams(fmt.Sprintf("unparseable end_date %q", req.EndDate))
		}
		end = t
	}
	if !start.IsZero() && !end.IsZero() {
		if end.Before(start) {
			return req, invalidParams("end_date is before start_date")
		}
		if days := int(end.Sub(start).Hours() / 24); days > d.cfg.MaxDateRangeDays {
			return req, invalidParams(fmt.Sprintf("date range %d days exceeds maximum %d", days, d.cfg.MaxDateRangeDays))
		}
	}

	return req, nil
}

func invalidParams(detail string) *models.CrawlError {
	return &models.CrawlError{
		Code:   models.ErrCodeInvalidParameters,
		Detail: detail,
	}
}
