// Package offers searches Vast.ai GPU offers and machine-matched volume asks.
package offers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/logging"
	"github.com/MannyJMusic/dfl-desktop/internal/vast"
)

// Offer is a single GPU offer. The vastai CLI's offer schema varies across
// versions, so offers are kept as loose maps with typed accessors for the
// fields dflctl relies on.
type Offer map[string]any

// Volume is a volume ask matched to an offer's machine.
type Volume map[string]any

// Accessors for the well-known offer fields.

func (o Offer) ID() string        { return stringField(o, "id") }
func (o Offer) MachineID() string { return stringField(o, "machine_id") }
func (o Offer) GPUName() string   { return stringOr(o, "gpu_name", "unknown") }
func (o Offer) CUDA() string      { return stringOr(o, "cuda_max_good", "n/a") }
func (o Offer) Score() string     { return stringOr(o, "score", "n/a") }
func (o Offer) StorageGB() string { return stringOr(o, "storage_total", "n/a") }

// DPH returns the dollars-per-hour price, falling back to the price field.
func (o Offer) DPH() string {
	if v := stringField(o, "dph_total"); v != "" {
		return v
	}
	return stringOr(o, "price", "n/a")
}

func (v Volume) ID() string     { return stringField(v, "id") }
func (v Volume) SizeGB() string { return stringOr(v, "size", "n/a") }
func (v Volume) Price() string  { return stringOr(v, "price", "n/a") }
func (v Volume) Region() string { return stringOr(v, "region", "n/a") }

// Params controls an offer search.
type Params struct {
	Query string
	Limit int
	Sort  string
	Order string
}

// Service performs offer and volume searches through the vastai CLI.
type Service struct {
	client *vast.Client
}

// NewService creates an offer search service.
func NewService(client *vast.Client) *Service {
	return &Service{client: client}
}

// Search returns offers matching the query, sorted and limited client-side.
// Older vastai versions lack --limit/--order flags, so sorting and limiting
// always happen here.
func (s *Service) Search(ctx context.Context, p Params) ([]Offer, error) {
	var payload any
	if err := s.client.RunJSON(ctx, &payload, "search", "offers", p.Query); err != nil {
		return nil, errors.OfferSearchFailed(err)
	}

	offers := coerceList[Offer](payload, "offers")
	logging.Debug("offer search returned", "count", len(offers), "query", p.Query)

	if p.Sort != "" {
		SortByField(offers, p.Sort, strings.EqualFold(p.Order, "desc"))
	}
	if p.Limit > 0 && len(offers) > p.Limit {
		offers = offers[:p.Limit]
	}
	return offers, nil
}

// Volumes returns volume asks on the given machine.
func (s *Service) Volumes(ctx context.Context, machineID string) ([]Volume, error) {
	query := fmt.Sprintf("machine_id=%s", machineID)
	var payload any
	if err := s.client.RunJSON(ctx, &payload, "search", "volumes", query); err != nil {
		return nil, errors.OfferSearchFailed(err)
	}
	return coerceList[Volume](payload, "volumes"), nil
}

// SortByField sorts offers in place by the named field. Numeric values sort
// before strings; entries missing the field sort last regardless of order.
func SortByField(offers []Offer, field string, desc bool) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i][field], offers[j][field]
		// Entries missing the field go last in both directions, so the
		// nil check must happen before the desc flip.
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		less := compareField(a, b)
		if less == 0 {
			return false
		}
		if desc {
			return less > 0
		}
		return less < 0
	})
}

// compareField orders two loose JSON values: present before missing, numbers
// by value, everything else by string form. Returns -1, 0 or 1.
func compareField(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}

	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	switch {
	case aNum && bNum:
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}

	as := fmt.Sprint(a)
	bs := fmt.Sprint(b)
	return strings.Compare(as, bs)
}

// coerceList extracts a list of maps from a payload that is either a bare
// list or an object wrapping the list under key.
func coerceList[T ~map[string]any](payload any, key string) []T {
	var raw []any
	switch p := payload.(type) {
	case []any:
		raw = p
	case map[string]any:
		if inner, ok := p[key].([]any); ok {
			raw = inner
		} else {
			// A single object stands for a one-element list.
			return []T{T(p)}
		}
	default:
		return nil
	}

	out := make([]T, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, T(m))
		}
	}
	return out
}

// stringField renders a field as a string, or "" when absent.
func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}

// stringOr renders a field as a string with a fallback for absent values.
func stringOr(m map[string]any, key, fallback string) string {
	if v := stringField(m, key); v != "" {
		return v
	}
	return fallback
}

// Summary returns the multi-line display form of an offer.
func Summary(o Offer) []string {
	return []string{
		fmt.Sprintf("Offer %s (machine %s)", o.ID(), o.MachineID()),
		fmt.Sprintf("  gpu: %s | dph_total: %s | cuda: %s | score: %s", o.GPUName(), o.DPH(), o.CUDA(), o.Score()),
		fmt.Sprintf("  storage_total: %s GiB", o.StorageGB()),
	}
}

// VolumeSummary returns the one-line display form of a volume ask.
func VolumeSummary(v Volume) string {
	return fmt.Sprintf("id=%s size=%sGB price=$%s/mo region=%s", v.ID(), v.SizeGB(), v.Price(), v.Region())
}
