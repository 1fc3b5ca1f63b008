// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package session

import "github.com/tomtom215/trawler/internal/models"

// reasonCatalog holds the human-readable reasons rendered into error frames.
// The machine error_code is never localized; only this display string is.
var reasonCatalog = map[string]map[string]string{
	"en": {
		models.ErrCodeInvalidURL:        "The provided address is not a valid URL.",
		models.ErrCodeSiteNotFound:      "No supported site matches the input.",
		models.ErrCodeNoPostsFound:      "No posts matched the requested filters.",
		models.ErrCodeConnectionFailed:  "Could not reach the site. It may be down or blocking requests.",
		models.ErrCodeTimeout:           "The site took too long to respond.",
		models.ErrCodeRateLimited:       "The site is rate limiting requests. Try again in a few minutes.",
		models.ErrCodeCrawlingError:     "Collecting posts from the site failed.",
		models.ErrCodeTranslationFailed: "Translating titles failed. Original titles are kept.",
		models.ErrCodeInvalidParameters: "The request parameters are invalid.",
	},
	"ko": {
		models.ErrCodeInvalidURL:        "입력한 주소가 올바른 URL이 아닙니다.",
		models.ErrCodeSiteNotFound:      "입력과 일치하는 지원 사이트가 없습니다.",
		models.ErrCodeNoPostsFound:      "조건에 맞는 게시물을 찾지 못했습니다.",
		models.ErrCodeConnectionFailed:  "사이트에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요.",
		models.ErrCodeTimeout:           "사이트 응답이 너무 오래 걸립니다.",
		models.ErrCodeRateLimited:       "사이트가 요청을 제한하고 있습니다. 잠시 후 다시 시도해 주세요.",
		models.ErrCodeCrawlingError:     "게시물 수집에 실패했습니다.",
		models.ErrCodeTranslationFailed: "제목 번역에 실패했습니다. 원문 제목이 유지됩니다.",
		models.ErrCodeInvalidParameters: "요청 파라미터가 올바르지 않습니다.",
	},
}

// localizedReason picks the display reason for an error code. Unknown codes
// or languages fall back to English, then to the technical detail.
func localizedReason(code, lang, detail string) string {
	catalog, ok := reasonCatalog[lang]
	if !ok {
		catalog = reasonCatalog["en"]
	}
	if reason, ok := catalog[code]; ok {
		return reason
	}
	if reason, ok := reasonCatalog["en"][code]; ok {
		return reason
	}
	return detail
}
