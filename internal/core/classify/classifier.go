package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/core/ports"
)

// Keywords are the per-kind keyword lists matched against normalized text.
type Keywords struct {
	Receipt []string `yaml:"receipt"`
	T4      []string `yaml:"t4"`
	ID      []string `yaml:"id"`
}

// DefaultKeywords mirrors the vocabulary seen on Canadian tax documents,
// including the French T4 slip title and Quebec licence wording.
func DefaultKeywords() Keywords {
	return Keywords{
		Receipt: []string{"receipt", "invoice", "total", "bill"},
		T4:      []string{"t4", "statementofremunerationpaid", "etatdelaremunerationpayee"},
		ID:      []string{"licence", "permis", "passport"},
	}
}

type keywordSet struct {
	kind     domain.DocumentKind
	keywords []string
}

// Classifier maps document names and contents to a document kind.
type Classifier struct {
	// Receipt is checked first: an intake structurally holds at most one T4
	// and one ID but several receipts, so an ambiguous document that matches
	// two sets should land on receipt.
	ordered   []keywordSet
	extractor ports.TextExtractor
}

func NewClassifier(keywords Keywords, extractor ports.TextExtractor) *Classifier {
	return &Classifier{
		ordered: []keywordSet{
			{kind: domain.KindReceipt, keywords: normalizeAll(keywords.Receipt)},
			{kind: domain.KindT4, keywords: normalizeAll(keywords.T4)},
			{kind: domain.KindID, keywords: normalizeAll(keywords.ID)},
		},
		extractor: extractor,
	}
}

// ByKeywords classifies a piece of raw text. The text is normalized before
// matching; a set matches when any of its keywords is a substring.
func (c *Classifier) ByKeywords(text string) domain.DocumentKind {
	normalized := Normalize(text)
	if normalized == "" {
		return domain.KindUnknown
	}
	for _, set := range c.ordered {
		for _, keyword := range set.keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, keyword) {
				return set.kind
			}
		}
	}
	return domain.KindUnknown
}

// Document resolves a document's kind in two stages: the filename is the
// cheap, trusted signal; only when it yields nothing do we pull the document
// text through OCR. Extraction failures degrade to unknown, never to an
// error, so a bad scan does not block an upload from being recorded.
func (c *Classifier) Document(ctx context.Context, doc *domain.Document) domain.DocumentKind {
	if kind := c.ByKeywords(doc.Filename); kind != domain.KindUnknown {
		return kind
	}

	text, err := c.extractor.Extract(ctx, doc)
	if err != nil {
		slog.Warn("content_extraction_failed", "document_id", doc.ID, "filename", doc.Filename, "error", err)
		return domain.KindUnknown
	}
	return c.ByKeywords(text)
}

func normalizeAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		out = append(out, Normalize(keyword))
	}
	return out
}

