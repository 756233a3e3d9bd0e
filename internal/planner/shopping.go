package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stellarlinkco/packmate/internal/model"
)

// CreateShoppingList builds a list from the distinct union of the selected
// events' items, first seen first. Items already in the inventory start
// checked.
func (p *Planner) CreateShoppingList(ctx context.Context, eventIDs []string) (model.ShoppingList, error) {
	if len(eventIDs) == 0 {
		return model.ShoppingList{}, ErrNoEvents
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var items []string
	for _, id := range eventIDs {
		e, err := p.store.Event(id)
		if err != nil {
			return model.ShoppingList{}, err
		}
		items = append(items, e.Items...)
	}
	list := model.NewShoppingList(eventIDs, items, p.now())
	if len(list.Items) == 0 {
		return model.ShoppingList{}, ErrNoItems
	}

	inv := p.store.Inventory()
	var owned []string
	for _, item := range list.Items {
		if inv.Has(item) {
			owned = append(owned, item)
		}
	}
	if len(owned) > 0 {
		list.Status = model.InProgress(owned...)
	}

	lists := append(p.store.ShoppingLists(), list)
	if err := p.store.ReplaceShoppingLists(ctx, lists); err != nil {
		return model.ShoppingList{}, fmt.Errorf("create shopping list: %w", err)
	}
	p.logger.Info().Str("list", list.ID).Int("items", len(list.Items)).Int("prechecked", len(owned)).Msg("shopping list created")
	return list.Clone(), nil
}

// mutateList applies fn to the stored list with the given id and persists the result.
func (p *Planner) mutateList(ctx context.Context, id string, fn func(l *model.ShoppingList) error) (model.ShoppingList, error) {
	lists := p.store.ShoppingLists()
	idx := -1
	for i, l := range lists {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.ShoppingList{}, fmt.Errorf("shopping list %s: %w", id, model.ErrNotFound)
	}
	if err := fn(&lists[idx]); err != nil {
		return model.ShoppingList{}, err
	}
	if err := p.store.ReplaceShoppingLists(ctx, lists); err != nil {
		return model.ShoppingList{}, fmt.Errorf("update shopping list: %w", err)
	}
	return lists[idx].Clone(), nil
}

func (p *Planner) CheckItem(ctx context.Context, listID, item string) (model.ShoppingList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mutateList(ctx, listID, func(l *model.ShoppingList) error {
		return l.Check(model.NormalizeItem(item))
	})
}

func (p *Planner) UncheckItem(ctx context.Context, listID, item string) (model.ShoppingList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mutateList(ctx, listID, func(l *model.ShoppingList) error {
		return l.Uncheck(model.NormalizeItem(item))
	})
}

// CompleteShoppingList archives the list and moves every checked item into
// the inventory, which in turn reconciles the events.
func (p *Planner) CompleteShoppingList(ctx context.Context, listID string) (model.ShoppingList, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var bought []string
	list, err := p.mutateList(ctx, listID, func(l *model.ShoppingList) error {
		bought = l.Status.CheckedItems()
		return l.Complete(p.now())
	})
	if err != nil {
		return model.ShoppingList{}, err
	}
	if len(bought) > 0 {
		_, err = p.mutateInventory(ctx, "complete shopping list", func(inv *model.Inventory) bool {
			changed := false
			for _, item := range bought {
				if inv.Add(item) {
					changed = true
				}
			}
			return changed
		})
		if err != nil {
			return list, err
		}
	}
	p.logger.Info().Str("list", list.ID).Int("checked", len(bought)).Msg("shopping list completed")
	return list, nil
}

func (p *Planner) DeleteShoppingList(ctx context.Context, listID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	lists := p.store.ShoppingLists()
	for i, l := range lists {
		if l.ID == listID {
			lists = append(lists[:i], lists[i+1:]...)
			if err := p.store.ReplaceShoppingLists(ctx, lists); err != nil {
				return fmt.Errorf("delete shopping list: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("shopping list %s: %w", listID, model.ErrNotFound)
}

func (p *Planner) ShoppingList(id string) (model.ShoppingList, error) {
	return p.store.ShoppingList(id)
}

// ActiveShoppingLists returns lists not yet completed, newest first.
func (p *Planner) ActiveShoppingLists() []model.ShoppingList {
	var out []model.ShoppingList
	for _, l := range p.store.ShoppingLists() {
		if !l.IsCompleted() {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedDate.After(out[j].CreatedDate) })
	return out
}

// CompletedShoppingLists returns archived lists, most recently completed first.
func (p *Planner) CompletedShoppingLists() []model.ShoppingList {
	var out []model.ShoppingList
	for _, l := range p.store.ShoppingLists() {
		if l.IsCompleted() {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return listCompletedAt(out[i]).After(listCompletedAt(out[j]))
	})
	return out
}

func listCompletedAt(l model.ShoppingList) (t time.Time) {
	if l.CompletedDate != nil {
		t = *l.CompletedDate
	}
	return t
}
