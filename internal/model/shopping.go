package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// StatusKind tags the ShoppingListStatus variant.
type StatusKind string

const (
	KindNotStarted StatusKind = "notStarted"
	KindInProgress StatusKind = "inProgress"
	KindCompleted  StatusKind = "completed"
)

// ShoppingListStatus is a closed tagged union: NotStarted, InProgress{checked}
// or Completed. Only InProgress carries a payload. The zero value is NotStarted.
type ShoppingListStatus struct {
	kind    StatusKind
	checked map[string]struct{}
}

func NotStarted() ShoppingListStatus {
	return ShoppingListStatus{kind: KindNotStarted}
}

func InProgress(checked ...string) ShoppingListStatus {
	s := ShoppingListStatus{kind: KindInProgress, checked: make(map[string]struct{}, len(checked))}
	for _, item := range checked {
		s.checked[item] = struct{}{}
	}
	return s
}

func Completed() ShoppingListStatus {
	return ShoppingListStatus{kind: KindCompleted}
}

func (s ShoppingListStatus) Kind() StatusKind {
	if s.kind == "" {
		return KindNotStarted
	}
	return s.kind
}

func (s ShoppingListStatus) IsChecked(item string) bool {
	_, ok := s.checked[item]
	return ok
}

// CheckedItems returns the InProgress payload, sorted. Other variants have none.
func (s ShoppingListStatus) CheckedItems() []string {
	if s.Kind() != KindInProgress {
		return nil
	}
	out := make([]string, 0, len(s.checked))
	for item := range s.checked {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func (s ShoppingListStatus) Equal(other ShoppingListStatus) bool {
	if s.Kind() != other.Kind() {
		return false
	}
	if s.Kind() != KindInProgress {
		return true
	}
	if len(s.checked) != len(other.checked) {
		return false
	}
	for item := range s.checked {
		if _, ok := other.checked[item]; !ok {
			return false
		}
	}
	return true
}

type statusWire struct {
	Type         StatusKind `json:"type"`
	CheckedItems *[]string  `json:"checkedItems,omitempty"`
}

func (s ShoppingListStatus) MarshalJSON() ([]byte, error) {
	wire := statusWire{Type: s.Kind()}
	if wire.Type == KindInProgress {
		items := s.CheckedItems()
		wire.CheckedItems = &items
	}
	return json.Marshal(wire)
}

func (s *ShoppingListStatus) UnmarshalJSON(data []byte) error {
	var wire statusWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	switch wire.Type {
	case KindNotStarted:
		*s = NotStarted()
	case KindCompleted:
		*s = Completed()
	case KindInProgress:
		if wire.CheckedItems == nil {
			return fmt.Errorf("%w: inProgress without checkedItems", ErrInvalidStatus)
		}
		*s = InProgress(*wire.CheckedItems...)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidStatus, wire.Type)
	}
	return nil
}

// ShoppingList aggregates the items still needed for one or more events.
type ShoppingList struct {
	ID                  string             `json:"id"`
	EventIDs            []string           `json:"eventIds"`
	Items               []string           `json:"items"`
	Status              ShoppingListStatus `json:"status"`
	CreatedDate         time.Time          `json:"createdDate"`
	CompletedDate       *time.Time         `json:"completedDate,omitempty"`
	CompletedItemsCount *int               `json:"completedItemsCount,omitempty"`
}

// NewShoppingList keeps the first occurrence of every item name.
func NewShoppingList(eventIDs []string, items []string, now time.Time) ShoppingList {
	seen := make(map[string]struct{}, len(items))
	distinct := make([]string, 0, len(items))
	for _, item := range items {
		item = NormalizeItem(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		distinct = append(distinct, item)
	}
	return ShoppingList{
		ID:          uuid.NewString(),
		EventIDs:    append([]string(nil), eventIDs...),
		Items:       distinct,
		Status:      NotStarted(),
		CreatedDate: now,
	}
}

func (l ShoppingList) HasItem(item string) bool {
	for _, it := range l.Items {
		if it == item {
			return true
		}
	}
	return false
}

func (l ShoppingList) IsCompleted() bool {
	return l.Status.Kind() == KindCompleted
}

// Check marks item as collected, moving NotStarted lists to InProgress.
func (l *ShoppingList) Check(item string) error {
	if l.IsCompleted() {
		return ErrListCompleted
	}
	if !l.HasItem(item) {
		return fmt.Errorf("%w: %q", ErrUnknownItem, item)
	}
	checked := append(l.Status.CheckedItems(), item)
	l.Status = InProgress(checked...)
	return nil
}

// Uncheck clears a collected mark. A list never returns to NotStarted once
// shopping has begun; it stays InProgress with a smaller checked set.
func (l *ShoppingList) Uncheck(item string) error {
	if l.IsCompleted() {
		return ErrListCompleted
	}
	if !l.HasItem(item) {
		return fmt.Errorf("%w: %q", ErrUnknownItem, item)
	}
	if l.Status.Kind() != KindInProgress {
		return nil
	}
	remaining := make([]string, 0, len(l.Status.checked))
	for _, it := range l.Status.CheckedItems() {
		if it != item {
			remaining = append(remaining, it)
		}
	}
	l.Status = InProgress(remaining...)
	return nil
}

// Complete archives the list, recording how many items were checked.
func (l *ShoppingList) Complete(now time.Time) error {
	if l.IsCompleted() {
		return ErrListCompleted
	}
	count := len(l.Status.CheckedItems())
	l.Status = Completed()
	l.CompletedDate = &now
	l.CompletedItemsCount = &count
	return nil
}

func (l ShoppingList) CheckedCount() int {
	switch l.Status.Kind() {
	case KindInProgress:
		return len(l.Status.checked)
	case KindCompleted:
		return len(l.Items)
	default:
		return 0
	}
}

func (l ShoppingList) Progress() float64 {
	if len(l.Items) == 0 {
		return 0
	}
	return float64(l.CheckedCount()) / float64(len(l.Items))
}

func (l ShoppingList) DisplayStatus() string {
	switch l.Status.Kind() {
	case KindInProgress:
		return fmt.Sprintf("%d/%d items", l.CheckedCount(), len(l.Items))
	case KindCompleted:
		return "Completed"
	default:
		return "Not Started"
	}
}

// Validate checks that every checked item belongs to the list.
func (l ShoppingList) Validate() error {
	for _, item := range l.Status.CheckedItems() {
		if !l.HasItem(item) {
			return fmt.Errorf("%w: checked item %q not on list %s", ErrInvalidStatus, item, l.ID)
		}
	}
	return nil
}

func (l ShoppingList) Clone() ShoppingList {
	out := l
	out.EventIDs = append([]string(nil), l.EventIDs...)
	out.Items = append([]string(nil), l.Items...)
	if l.Status.Kind() == KindInProgress {
		out.Status = InProgress(l.Status.CheckedItems()...)
	}
	if l.CompletedDate != nil {
		t := *l.CompletedDate
		out.CompletedDate = &t
	}
	if l.CompletedItemsCount != nil {
		n := *l.CompletedItemsCount
		out.CompletedItemsCount = &n
	}
	return out
}
