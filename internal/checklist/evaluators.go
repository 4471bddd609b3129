package checklist

import (
	"fmt"

	"github.com/rivalworks/rivalaudit/internal/domain"
)

// Numeric thresholds. Boundary values are inclusive on the pass side.
const (
	// MinWordCount is the minimum body word count that passes.
	MinWordCount = 600
	// MaxAvgParagraphWords is the maximum average paragraph length that passes.
	MaxAvgParagraphWords = 100
	// MinTitleLength and MaxTitleLength bound an acceptable title.
	MinTitleLength = 30
	MaxTitleLength = 60
	// MinMetaDescriptionLength and MaxMetaDescriptionLength bound an
	// acceptable meta description.
	MinMetaDescriptionLength = 70
	MaxMetaDescriptionLength = 160
	// MinInternalLinks is the minimum internal link count per page.
	MinInternalLinks = 3
	// MinHomepageLinks is the minimum internal link count on the homepage.
	MinHomepageLinks = 5
)

const noteEvidenceMissing = "page evidence unavailable; treated as not satisfied"

// guard screens out absent or unfetched evidence. Every evaluator routes
// through it so that evidence gaps never surface as errors.
func guard(ev *domain.PageEvidence) (Evaluation, bool) {
	if ev == nil {
		return Evaluation{Satisfied: false, Note: noteEvidenceMissing}, false
	}
	if !ev.Fetched {
		note := noteEvidenceMissing
		if ev.SkipReason != "" {
			note = "page not fetched: " + ev.SkipReason
		}
		return Evaluation{Satisfied: false, Note: note}, false
	}
	return Evaluation{}, true
}

func evalTitlePresent(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if ev.Title == "" {
		return Evaluation{Satisfied: false, Measurement: "title_length=0", Note: "missing title tag"}
	}
	return Evaluation{Satisfied: true, Measurement: fmt.Sprintf("title_length=%d", len(ev.Title))}
}

func evalTitleLength(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	length := len(ev.Title)
	measurement := fmt.Sprintf("title_length=%d", length)
	if length < MinTitleLength || length > MaxTitleLength {
		return Evaluation{
			Satisfied:   false,
			Measurement: measurement,
			Note:        fmt.Sprintf("title length outside %d-%d characters", MinTitleLength, MaxTitleLength),
		}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalMetaDescription(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	length := len(ev.MetaDescription)
	measurement := fmt.Sprintf("meta_description_length=%d", length)
	if length == 0 {
		return Evaluation{Satisfied: false, Measurement: measurement, Note: "missing meta description"}
	}
	if length < MinMetaDescriptionLength || length > MaxMetaDescriptionLength {
		return Evaluation{
			Satisfied:   false,
			Measurement: measurement,
			Note: fmt.Sprintf("meta description outside %d-%d characters",
				MinMetaDescriptionLength, MaxMetaDescriptionLength),
		}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalSingleH1(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	measurement := fmt.Sprintf("h1_count=%d", ev.H1Count)
	if ev.H1Count != 1 {
		return Evaluation{Satisfied: false, Measurement: measurement, Note: "expected exactly one H1"}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalWordCount(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	measurement := fmt.Sprintf("word_count=%d", ev.WordCount)
	if ev.WordCount < MinWordCount {
		return Evaluation{
			Satisfied:   false,
			Measurement: measurement,
			Note:        fmt.Sprintf("below %d-word minimum", MinWordCount),
		}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalParagraphLength(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if ev.ParagraphCount == 0 {
		return Evaluation{Satisfied: false, Measurement: "paragraph_count=0", Note: "no paragraphs found"}
	}
	measurement := fmt.Sprintf("avg_paragraph_words=%d", ev.AvgParagraphWords)
	if ev.AvgParagraphWords > MaxAvgParagraphWords {
		return Evaluation{
			Satisfied:   false,
			Measurement: measurement,
			Note:        fmt.Sprintf("average paragraph exceeds %d words", MaxAvgParagraphWords),
		}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalImageAlt(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	measurement := fmt.Sprintf("images_missing_alt=%d/%d", ev.ImagesMissingAlt, ev.ImageCount)
	if ev.ImagesMissingAlt > 0 {
		return Evaluation{
			Satisfied:   false,
			Measurement: measurement,
			Note:        fmt.Sprintf("%d images missing alt text", ev.ImagesMissingAlt),
		}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalCanonical(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if ev.CanonicalURL == "" {
		return Evaluation{Satisfied: false, Measurement: "canonical=absent", Note: "no canonical link element"}
	}
	return Evaluation{Satisfied: true, Measurement: "canonical=present"}
}

func evalHTTPS(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if !ev.HTTPS {
		return Evaluation{Satisfied: false, Measurement: "https=false", Note: "page served over plain HTTP"}
	}
	return Evaluation{Satisfied: true, Measurement: "https=true"}
}

func evalNavPresent(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if !ev.HasNav {
		return Evaluation{Satisfied: false, Measurement: "nav=absent", Note: "no navigation element found"}
	}
	return Evaluation{Satisfied: true, Measurement: "nav=present"}
}

func evalInternalLinks(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	count := len(ev.InternalLinks)
	measurement := fmt.Sprintf("internal_links=%d", count)
	if count < MinInternalLinks {
		return Evaluation{
			Satisfied:   false,
			Measurement: measurement,
			Note:        fmt.Sprintf("fewer than %d internal links", MinInternalLinks),
		}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalHomepageLinks(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	count := len(ev.InternalLinks)
	measurement := fmt.Sprintf("internal_links=%d", count)
	if count < MinHomepageLinks {
		return Evaluation{
			Satisfied:   false,
			Measurement: measurement,
			Note:        fmt.Sprintf("homepage links to fewer than %d internal pages", MinHomepageLinks),
		}
	}
	return Evaluation{Satisfied: true, Measurement: measurement}
}

func evalContactPhone(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if !ev.HasPhone {
		return Evaluation{Satisfied: false, Measurement: "phone=absent", Note: "no phone number detected"}
	}
	return Evaluation{Satisfied: true, Measurement: "phone=present"}
}

func evalContactAddress(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if !ev.HasAddress {
		return Evaluation{Satisfied: false, Measurement: "address=absent", Note: "no street address detected"}
	}
	return Evaluation{Satisfied: true, Measurement: "address=present"}
}

func evalContactForm(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if !ev.HasContactForm {
		return Evaluation{Satisfied: false, Measurement: "form=absent", Note: "no contact form detected"}
	}
	return Evaluation{Satisfied: true, Measurement: "form=present"}
}

func evalConversionPath(ev *domain.PageEvidence) Evaluation {
	if failed, ok := guard(ev); !ok {
		return failed
	}
	if !ev.HasPhone && !ev.HasContactForm {
		return Evaluation{
			Satisfied:   false,
			Measurement: "conversion_path=absent",
			Note:        "neither phone number nor contact form present",
		}
	}
	return Evaluation{Satisfied: true, Measurement: "conversion_path=present"}
}
