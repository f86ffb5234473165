// Package modifiers validates a cart item's option-group selections against
// the product's configured rules and produces the normalized payload that is
// snapshotted onto the order item.
package modifiers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	domcatalog "github.com/hsdarestani/vaadehrep/internal/domain/catalog"
	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
)

// ErrInvalidSelection is the sentinel all selection failures wrap; the
// wrapped message names the offending group or item.
var ErrInvalidSelection = errors.New("invalid modifier selection")

// OptOutNames are option-item names that act as "none of this group"
// sentinels; such an item must be the only selection within its group.
// Matching is case-insensitive, keys are stored lowercased.
var OptOutNames = map[string]struct{}{
	"no sauce":      {},
	"no drink":      {},
	"no soft drink": {},
}

type CatalogRepository interface {
	ListProductOptionGroups(ctx context.Context, productID int64) ([]domcatalog.ProductOptionGroup, error)
}

// Selection is the raw client input for one option group.
type Selection struct {
	GroupID int64
	Items   []SelectionItem
}

type SelectionItem struct {
	ItemID int64
	// Quantity defaults to 1 when zero.
	Quantity int64
}

type Service struct {
	catalog CatalogRepository
	optOuts map[string]struct{}
}

func NewService(catalog CatalogRepository) *Service {
	return &Service{catalog: catalog, optOuts: OptOutNames}
}

// NewServiceWithOptOuts overrides the opt-out sentinel names, which are
// deployment configuration.
func NewServiceWithOptOuts(catalog CatalogRepository, optOuts []string) *Service {
	m := make(map[string]struct{}, len(optOuts))
	for _, n := range optOuts {
		m[strings.ToLower(n)] = struct{}{}
	}
	return &Service{catalog: catalog, optOuts: m}
}

// Normalize validates selections against the product's option-group rules
// and returns the normalized payload plus the per-unit price delta (the sum
// of selected items' deltas times their quantities). The normalized list is
// deterministic: groups ordered by configured sort order then id.
func (s *Service) Normalize(ctx context.Context, product *domcatalog.Product, selections []Selection) ([]domorder.SelectedOptionGroup, int64, error) {
	links, err := s.catalog.ListProductOptionGroups(ctx, product.ID)
	if err != nil {
		return nil, 0, err
	}

	linkByGroup := make(map[int64]*domcatalog.ProductOptionGroup, len(links))
	for i := range links {
		linkByGroup[links[i].Group.ID] = &links[i]
	}

	var (
		normalized  []domorder.SelectedOptionGroup
		unitDelta   int64
		selectedQty = make(map[int64]int64, len(selections))
		seenGroups  = make(map[int64]struct{}, len(selections))
	)

	for _, sel := range selections {
		link, ok := linkByGroup[sel.GroupID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: option group %d is not available for this product", ErrInvalidSelection, sel.GroupID)
		}
		if _, dup := seenGroups[sel.GroupID]; dup {
			return nil, 0, fmt.Errorf("%w: option group %q selected twice", ErrInvalidSelection, link.Group.Name)
		}
		seenGroups[sel.GroupID] = struct{}{}

		itemByID := make(map[int64]*domcatalog.OptionItem, len(link.Items))
		for i := range link.Items {
			itemByID[link.Items[i].ID] = &link.Items[i]
		}

		var (
			groupItems []domorder.SelectedOptionItem
			totalQty   int64
			hasOptOut  bool
		)
		for _, rawItem := range sel.Items {
			item, ok := itemByID[rawItem.ItemID]
			if !ok {
				return nil, 0, fmt.Errorf("%w: option item %d does not belong to group %q", ErrInvalidSelection, rawItem.ItemID, link.Group.Name)
			}
			qty := rawItem.Quantity
			if qty == 0 {
				qty = 1
			}
			if qty < 1 {
				return nil, 0, fmt.Errorf("%w: invalid quantity for option %q", ErrInvalidSelection, item.Name)
			}
			if _, optOut := s.optOuts[strings.ToLower(item.Name)]; optOut {
				hasOptOut = true
			}
			groupItems = append(groupItems, domorder.SelectedOptionItem{
				ID:         item.ID,
				Name:       item.Name,
				PriceDelta: item.PriceDelta,
				Quantity:   qty,
			})
			totalQty += qty
			unitDelta += item.PriceDelta * qty
		}

		if hasOptOut && len(groupItems) > 1 {
			return nil, 0, fmt.Errorf("%w: the opt-out choice in %q must be selected alone", ErrInvalidSelection, link.Group.Name)
		}

		selectedQty[sel.GroupID] = totalQty
		normalized = append(normalized, domorder.SelectedOptionGroup{
			GroupID:   link.Group.ID,
			GroupName: link.Group.Name,
			Items:     groupItems,
		})
	}

	// Every configured group's effective bounds must hold, selected or not.
	for i := range links {
		link := &links[i]
		count := selectedQty[link.Group.ID]

		requiredMin := int64(link.EffectiveMinSelect())
		if requiredMin == 0 && link.EffectiveRequired() {
			requiredMin = 1
		}
		if requiredMin > 0 && count < requiredMin {
			return nil, 0, fmt.Errorf("%w: a choice from %q is required", ErrInvalidSelection, link.Group.Name)
		}
		if max := int64(link.EffectiveMaxSelect()); max > 0 && count > max {
			return nil, 0, fmt.Errorf("%w: at most %d choices allowed from %q", ErrInvalidSelection, max, link.Group.Name)
		}
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		li, lj := linkByGroup[normalized[i].GroupID], linkByGroup[normalized[j].GroupID]
		if li.SortOrder != lj.SortOrder {
			return li.SortOrder < lj.SortOrder
		}
		return normalized[i].GroupID < normalized[j].GroupID
	})

	return normalized, unitDelta, nil
}
