package checklist

import (
	"fmt"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

// Templates maps a client complexity tier to the multiset of document kinds
// its intakes owe. The set is snapshotted into checklist items when an
// intake is created and never changes afterwards.
type Templates map[domain.ComplexityTier][]domain.DocumentKind

func DefaultTemplates() Templates {
	return Templates{
		domain.ComplexitySimple:  {domain.KindT4, domain.KindID},
		domain.ComplexityAverage: {domain.KindT4, domain.KindID, domain.KindReceipt, domain.KindReceipt},
		domain.ComplexityComplex: {domain.KindT4, domain.KindID, domain.KindReceipt, domain.KindReceipt, domain.KindReceipt, domain.KindReceipt, domain.KindReceipt},
	}
}

// KindsFor returns a copy of the tier's expected document kinds.
func (t Templates) KindsFor(tier domain.ComplexityTier) ([]domain.DocumentKind, error) {
	kinds, ok := t[tier]
	if !ok {
		return nil, fmt.Errorf("no checklist template for complexity tier %q", tier)
	}
	out := make([]domain.DocumentKind, len(kinds))
	copy(out, kinds)
	return out, nil
}

func (t Templates) Validate() error {
	for tier, kinds := range t {
		if !tier.Valid() {
			return fmt.Errorf("checklist template: unknown complexity tier %q", tier)
		}
		if len(kinds) == 0 {
			return fmt.Errorf("checklist template: empty checklist for tier %q", tier)
		}
		for _, kind := range kinds {
			switch kind {
			case domain.KindT4, domain.KindReceipt, domain.KindID:
			default:
				return fmt.Errorf("checklist template: tier %q names invalid kind %q", tier, kind)
			}
		}
	}
	return nil
}

// NextSlot picks the checklist item a classified or extracted document
// should advance: the oldest item matching the kind in the given status.
// Oldest-first makes the choice deterministic when several same-kind slots
// are open. ok is false when every matching slot has already moved on, which
// callers absorb silently: a surplus document stays recorded but changes no
// slot.
func NextSlot(items []domain.ChecklistItem, kind domain.DocumentKind, status domain.ChecklistItemStatus) (int, bool) {
	best := -1
	for i, item := range items {
		if item.DocKind != kind || item.Status != status {
			continue
		}
		if best == -1 || item.CreatedAt.Before(items[best].CreatedAt) {
			best = i
		}
	}
	return best, best >= 0
}

// Aggregate derives intake status from its checklist items: done once every
// slot is extracted, received once nothing is missing, otherwise open. It is
// a pure function of current item state and safe to recompute at any time.
func Aggregate(items []domain.ChecklistItem) domain.IntakeStatus {
	allExtracted := true
	noneMissing := true
	for _, item := range items {
		if item.Status != domain.ItemExtracted {
			allExtracted = false
		}
		if item.Status == domain.ItemMissing {
			noneMissing = false
		}
	}
	switch {
	case allExtracted:
		return domain.IntakeDone
	case noneMissing:
		return domain.IntakeReceived
	default:
		return domain.IntakeOpen
	}
}
