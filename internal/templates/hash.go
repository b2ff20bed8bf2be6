package templates

import (
	"context"
	"fmt"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/logging"
)

// hashKeys are the field names different vastai versions use for the
// template hash.
var hashKeys = []string{"template_hash", "hash", "hash_id", "templateHash", "hashId"}

// ExtractHash pulls the template hash out of a record, looking through the
// known field names and one level of nesting (template/data wrappers). The
// found hash is cached back onto the record under template_hash.
func ExtractHash(t Template) string {
	for _, key := range hashKeys {
		if v := stringField(t, key); v != "" {
			t["template_hash"] = v
			return v
		}
	}
	for _, key := range []string{"template", "data"} {
		if nested, ok := t[key].(map[string]any); ok {
			if hash := ExtractHash(Template(nested)); hash != "" {
				t["template_hash"] = hash
				return hash
			}
		}
	}
	return ""
}

// ResolveHash returns the template's hash, re-querying the API by id, name
// and owner when the record lacks one. `vastai create instance` only accepts
// a template hash, never a template id.
func (s *Service) ResolveHash(ctx context.Context, t Template) (string, error) {
	if hash := ExtractHash(t); hash != "" {
		return hash, nil
	}

	var queries []string
	if id := stringField(t, "id"); id != "" {
		queries = append(queries, fmt.Sprintf("id=%s", id))
	} else if id := stringField(t, "template_id"); id != "" {
		queries = append(queries, fmt.Sprintf("id=%s", id))
	}
	if name := stringField(t, "name"); name != "" {
		queries = append(queries, fmt.Sprintf("name=%q", name))
	}
	for _, owner := range s.candidateOwnerIDs(ctx) {
		queries = append(queries, fmt.Sprintf("creator_id=%s", owner), fmt.Sprintf("owner_id=%s", owner))
	}

	for _, query := range queries {
		for _, entry := range s.tryQuery(ctx, query) {
			hash := ExtractHash(entry)
			if hash == "" {
				continue
			}
			// Merge the richer record back into the caller's template.
			for k, v := range entry {
				t[k] = v
			}
			s.remember(t)
			logging.Debug("resolved template hash", "query", query, "hash", hash)
			return hash, nil
		}
	}

	return "", errors.TemplateHashMissing(t.Name())
}
