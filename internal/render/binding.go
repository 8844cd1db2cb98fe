package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
	"github.com/Annany2002/nebula-studio/internal/fieldtype"
	"github.com/Annany2002/nebula-studio/internal/records"
)

// Config keys that carry a widget's data binding.
const (
	BindingKey       = "dataBinding"
	BindingSwitchKey = "enableDataBinding"
)

// Placeholder sentinels substituted under the "placeholder" fallback, by field type.
var placeholders = map[string]string{
	fieldtype.Text:      "[text]",
	fieldtype.Textarea:  "[long text]",
	fieldtype.NumberT:   "[number]",
	fieldtype.Boolean:   "[yes/no]",
	fieldtype.DateT:     "[date]",
	fieldtype.Datetime:  "[date and time]",
	fieldtype.Email:     "[email]",
	fieldtype.URL:       "[link]",
	fieldtype.JSONT:     "[data]",
	fieldtype.RelationT: "[record]",
	fieldtype.Select:    "[option]",
	fieldtype.Image:     "https://placehold.co/600x400?text=Image",
}

const unknownPlaceholder = "[field]"

// Placeholder returns the sentinel for a field type.
func Placeholder(typeID string) string {
	if p, ok := placeholders[typeID]; ok {
		return p
	}
	return unknownPlaceholder
}

// RecordSource is what the resolver needs from the record store.
type RecordSource interface {
	SelectRecord(ctx context.Context, collectionID int64, mode string, recordID *int64, ownerID string) (*records.Record, error)
	FieldTypes(ctx context.Context, collectionID int64) (map[string]string, error)
}

// Resolution is the outcome of applying a binding to a configuration.
type Resolution struct {
	RecordID *int64
	Fallback string // fallback applied, empty when every slot resolved
	Hidden   bool
}

// Resolver substitutes bound record values into widget configurations.
type Resolver struct {
	source RecordSource
}

func NewResolver(source RecordSource) *Resolver {
	return &Resolver{source: source}
}

// ParseBinding reads the dataBinding entry of a configuration. Missing display
// mode and fallback default to "first" and "default".
func ParseBinding(raw any) (*domain.DataBinding, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: data binding: %v", core.ErrValidationFailed, err)
	}
	var b domain.DataBinding
	if err := json.Unmarshal(encoded, &b); err != nil {
		return nil, fmt.Errorf("%w: data binding: %v", core.ErrValidationFailed, err)
	}

	if b.DisplayMode == "" {
		b.DisplayMode = domain.DisplayFirst
	}
	if b.FallbackBehavior == "" {
		b.FallbackBehavior = domain.FallbackDefault
	}
	switch b.DisplayMode {
	case domain.DisplaySingle, domain.DisplayFirst, domain.DisplayLast, domain.DisplayRandom:
	default:
		return nil, fmt.Errorf("%w: unknown display mode '%s'", core.ErrValidationFailed, b.DisplayMode)
	}
	switch b.FallbackBehavior {
	case domain.FallbackDefault, domain.FallbackHide, domain.FallbackPlaceholder:
	default:
		return nil, fmt.Errorf("%w: unknown fallback behavior '%s'", core.ErrValidationFailed, b.FallbackBehavior)
	}
	if b.CollectionID <= 0 {
		return nil, fmt.Errorf("%w: data binding needs a collectionId", core.ErrValidationFailed)
	}
	return &b, nil
}

// Apply resolves the binding held in cfg and writes bound values into cfg.
// slots maps a slot name to the config key it fills; a slot missing from it
// fills the key of the same name. When the record or one of the mapped fields
// cannot be resolved the binding's fallback decides what happens.
func (r *Resolver) Apply(ctx context.Context, cfg map[string]any, slots map[string]string, viewerID string) (*Resolution, error) {
	b, err := ParseBinding(cfg[BindingKey])
	if err != nil {
		return nil, err
	}

	ownerID := ""
	if b.OwnerOnly {
		ownerID = viewerID
		if ownerID == "" {
			// nobody to scope to; nothing can resolve
			return r.fallback(ctx, cfg, b, slots, sortedSlots(b.FieldMapping), nil)
		}
	}

	rec, err := r.source.SelectRecord(ctx, b.CollectionID, b.DisplayMode, b.RecordID, ownerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrMismatch) {
			customLog.Debugf("Render: Binding on collection %d unresolved: %v", b.CollectionID, err)
			return r.fallback(ctx, cfg, b, slots, sortedSlots(b.FieldMapping), nil)
		}
		return nil, err
	}

	var missing []string
	for _, slot := range sortedSlots(b.FieldMapping) {
		name := b.FieldMapping[slot]
		v, ok := rec.Values[name]
		if !ok || v.IsNull() {
			missing = append(missing, slot)
			continue
		}
		cfg[target(slots, slot)] = v.Native()
	}

	recordID := rec.ID
	if len(missing) > 0 {
		return r.fallback(ctx, cfg, b, slots, missing, &recordID)
	}
	return &Resolution{RecordID: &recordID}, nil
}

// fallback applies the binding's fallback to the unresolved slots.
func (r *Resolver) fallback(ctx context.Context, cfg map[string]any, b *domain.DataBinding, slots map[string]string, unresolved []string, recordID *int64) (*Resolution, error) {
	res := &Resolution{RecordID: recordID, Fallback: b.FallbackBehavior}

	switch b.FallbackBehavior {
	case domain.FallbackHide:
		res.Hidden = true
	case domain.FallbackPlaceholder:
		types, err := r.source.FieldTypes(ctx, b.CollectionID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		for _, slot := range unresolved {
			cfg[target(slots, slot)] = Placeholder(types[b.FieldMapping[slot]])
		}
	}
	return res, nil
}

func target(slots map[string]string, slot string) string {
	if key, ok := slots[slot]; ok && key != "" {
		return key
	}
	return slot
}

func sortedSlots(mapping map[string]string) []string {
	out := make([]string, 0, len(mapping))
	for slot := range mapping {
		out = append(out, slot)
	}
	sort.Strings(out)
	return out
}
