// Package templates manages Vast.ai templates for the DeepFaceLab desktop.
package templates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MannyJMusic/dfl-desktop/internal/logging"
	"github.com/MannyJMusic/dfl-desktop/internal/vast"
)

// Template is a single template record. Like offers, the schema differs
// between vastai versions, so records stay loose maps with accessors.
type Template map[string]any

func (t Template) Name() string { return stringOr(t, "name", "unnamed") }

func (t Template) Image() string {
	if v := stringField(t, "image"); v != "" {
		return v
	}
	return stringOr(t, "docker_image", "unknown")
}

func (t Template) DiskGB() string {
	if v := stringField(t, "disk_space"); v != "" {
		return v
	}
	return stringOr(t, "disk", "n/a")
}

func (t Template) Created() string {
	if v := stringField(t, "dt_created"); v != "" {
		return v
	}
	return stringOr(t, "created_on", "n/a")
}

func (t Template) Description() string { return stringField(t, "description") }

// OwnerID returns the first owner-ish id present on the record.
func (t Template) OwnerID() string {
	for _, key := range []string{"creator_id", "owner_id", "created_by", "user_id"} {
		if v := stringField(t, key); v != "" {
			return v
		}
	}
	return ""
}

// Identifier returns a stable identity for deduplication: the first id-like
// field, falling back to name|image.
func (t Template) Identifier() string {
	for _, key := range []string{"id", "template_id", "hash", "uuid"} {
		if v := stringField(t, key); v != "" {
			return v
		}
	}
	name := stringField(t, "name")
	image := t.Image()
	if name != "" || image != "unknown" {
		return name + "|" + image
	}
	return ""
}

// Service lists, creates and resolves templates through the vastai CLI,
// splitting results into the caller's own templates and community ones.
type Service struct {
	client  *vast.Client
	ownerID string

	cacheValid     bool
	mine           []Template
	community      []Template
	myIDs          map[string]bool
	myNames        map[string]bool
	userID         string
	userIDResolved bool
}

// NewService creates a template service. ownerID optionally forces ownership
// matching against a known account id.
func NewService(client *vast.Client, ownerID string) *Service {
	return &Service{
		client:  client,
		ownerID: strings.TrimSpace(ownerID),
		myIDs:   make(map[string]bool),
		myNames: make(map[string]bool),
	}
}

// Invalidate drops the template cache so the next List refetches.
func (s *Service) Invalidate() {
	s.cacheValid = false
	s.mine = nil
	s.community = nil
	s.myIDs = make(map[string]bool)
	s.myNames = make(map[string]bool)
}

// List returns the caller's templates and community templates. Results are
// cached until Invalidate is called.
func (s *Service) List(ctx context.Context) (mine, community []Template, err error) {
	if s.cacheValid {
		return s.mine, s.community, nil
	}

	seeded := s.collectOwnTemplates(ctx)

	var payload any
	if err := s.client.RunJSON(ctx, &payload, "search", "templates"); err != nil {
		return nil, nil, err
	}
	all := coerceTemplates(payload)

	seen := make(map[string]bool)
	for _, t := range seeded {
		if id := t.Identifier(); id != "" {
			seen[id] = true
		}
		s.remember(t)
		mine = append(mine, t)
	}

	for _, t := range all {
		if id := t.Identifier(); id != "" {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		if s.isMine(ctx, t) {
			s.remember(t)
			mine = append(mine, t)
		} else {
			community = append(community, t)
		}
	}

	s.mine = mine
	s.community = community
	s.cacheValid = true
	return mine, community, nil
}

// collectOwnTemplates gathers templates that definitely belong to the caller
// using every query shape different vastai versions support. Failures are
// tolerated; each query is best-effort.
func (s *Service) collectOwnTemplates(ctx context.Context) []Template {
	var collected []Template
	seen := make(map[string]bool)

	add := func(ts []Template) {
		for _, t := range ts {
			id := t.Identifier()
			if id == "" {
				id = fmt.Sprint(t)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			collected = append(collected, t)
		}
	}

	add(s.tryQuery(ctx, "my=true"))

	ownerIDs := s.candidateOwnerIDs(ctx)
	for _, owner := range ownerIDs {
		for _, field := range []string{"owner_id", "creator_id", "created_by", "user_id", "author_id"} {
			add(s.tryQuery(ctx, fmt.Sprintf("%s=%s", field, owner)))
		}
	}

	if len(collected) == 0 {
		var payload any
		if err := s.client.RunJSON(ctx, &payload, "show", "templates"); err == nil {
			add(coerceTemplates(payload))
		}
	}

	return collected
}

// candidateOwnerIDs returns the configured override and the account id from
// `vastai show user`, deduplicated in that order.
func (s *Service) candidateOwnerIDs(ctx context.Context) []string {
	var ids []string
	if s.ownerID != "" {
		ids = append(ids, s.ownerID)
	}
	if uid := s.resolveUserID(ctx); uid != "" && uid != s.ownerID {
		ids = append(ids, uid)
	}
	return ids
}

func (s *Service) resolveUserID(ctx context.Context) string {
	if s.userIDResolved {
		return s.userID
	}
	s.userIDResolved = true

	var user map[string]any
	if err := s.client.RunJSON(ctx, &user, "show", "user"); err != nil {
		logging.Debug("could not resolve user id", "error", err)
		return ""
	}
	for _, key := range []string{"id", "user_id", "userid"} {
		if v := stringField(user, key); v != "" {
			s.userID = v
			return v
		}
	}
	return ""
}

func (s *Service) tryQuery(ctx context.Context, query string) []Template {
	var payload any
	if err := s.client.RunJSON(ctx, &payload, "search", "templates", query); err != nil {
		logging.Debug("template query failed", "query", query, "error", err)
		return nil
	}
	ts := coerceTemplates(payload)
	for _, t := range ts {
		s.remember(t)
	}
	return ts
}

// remember records a template as owned so later listings classify it
// consistently even when the API omits ownership fields.
func (s *Service) remember(t Template) {
	if id := t.Identifier(); id != "" {
		s.myIDs[id] = true
	}
	if name := stringField(t, "name"); name != "" {
		s.myNames[name] = true
	}
	if hash := ExtractHash(t); hash != "" {
		t["template_hash"] = hash
	}
}

// isMine applies the ownership heuristics: explicit ownership flags, known
// ids/names from earlier queries, then owner id comparison.
func (s *Service) isMine(ctx context.Context, t Template) bool {
	for _, key := range []string{"is_owner", "mine", "owned", "is_mine", "my_template"} {
		switch v := t[key].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes", "y":
				return true
			}
		}
	}

	if id := t.Identifier(); id != "" && s.myIDs[id] {
		return true
	}
	if name := stringField(t, "name"); name != "" && s.myNames[name] {
		return true
	}

	owner := t.OwnerID()
	if owner == "" {
		return false
	}
	if s.ownerID != "" && owner == s.ownerID {
		return true
	}
	if uid := s.resolveUserID(ctx); uid != "" && owner == uid {
		return true
	}
	return false
}

// Mark records a freshly created template as owned.
func (s *Service) Mark(t Template) {
	s.remember(t)
}

func coerceTemplates(payload any) []Template {
	switch p := payload.(type) {
	case []any:
		out := make([]Template, 0, len(p))
		for _, item := range p {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Template(m))
			}
		}
		return out
	case map[string]any:
		if inner, ok := p["templates"].([]any); ok {
			out := make([]Template, 0, len(inner))
			for _, item := range inner {
				if m, ok := item.(map[string]any); ok {
					out = append(out, Template(m))
				}
			}
			return out
		}
		return []Template{Template(p)}
	}
	return nil
}

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

func stringOr(m map[string]any, key, fallback string) string {
	if v := stringField(m, key); v != "" {
		return v
	}
	return fallback
}

// Summary returns the multi-line display form of a template.
func Summary(t Template) []string {
	lines := []string{
		fmt.Sprintf("Template %s: %s", stringOr(t, "id", "-"), t.Name()),
		fmt.Sprintf("  image: %s | disk_space: %sGB | created: %s", t.Image(), t.DiskGB(), t.Created()),
	}
	if owner := t.OwnerID(); owner != "" {
		lines = append(lines, fmt.Sprintf("  owner_id: %s", owner))
	}
	if hash := ExtractHash(t); hash != "" {
		lines = append(lines, fmt.Sprintf("  hash: %s", hash))
	}
	if desc := t.Description(); desc != "" {
		lines = append(lines, fmt.Sprintf("  description: %s", desc))
	}
	return lines
}

// Option returns the one-line picker label for a template.
func Option(t Template, owned bool) string {
	var b strings.Builder
	b.WriteString(t.Name())
	if id := stringField(t, "id"); id != "" {
		fmt.Fprintf(&b, " (id %s)", id)
	}
	fmt.Fprintf(&b, " | image: %s | disk: %sGB", t.Image(), t.DiskGB())
	if hash := ExtractHash(t); hash != "" {
		fmt.Fprintf(&b, " | hash: %s", hash)
	}
	switch {
	case owned:
		b.WriteString(" [yours]")
	case stringField(t, "visibility") != "":
		fmt.Fprintf(&b, " [%s]", stringField(t, "visibility"))
	default:
		b.WriteString(" [shared]")
	}
	return b.String()
}

// SortByName orders templates alphabetically for stable display.
func SortByName(ts []Template) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Name() < ts[j].Name()
	})
}
