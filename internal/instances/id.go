package instances

import (
	"regexp"
	"strconv"
	"strings"
)

// idKeys are checked in order; instance-specific keys win over the generic
// "id", which many creation payloads reuse for contracts or machines.
var idKeys = []string{"instance_id", "new_instance_id", "contract_id", "new_contract_id", "id"}

// nestedKeys are payload wrappers recursed into before the brute-force walk.
// A generic "id" inside one of these is trusted to be the instance id.
var nestedKeys = []string{"instance", "new_contract", "data", "result"}

var idPattern = regexp.MustCompile(`(?:instance_id|instance|contract_id|id)\D*(\d+)`)

// ExtractID finds the instance id in a `vastai create instance` response.
// Payload shapes vary wildly between CLI versions: the id may sit at the top
// level under several names, inside nested objects, inside lists, or only in
// free text. Returns "" when nothing id-like is found.
func ExtractID(payload any) string {
	return extractID(payload, false)
}

func extractID(payload any, trustID bool) string {
	switch p := payload.(type) {
	case map[string]any:
		for _, key := range idKeys {
			v, ok := p[key]
			if !ok {
				continue
			}
			s := strings.TrimSpace(stringValue(v))
			if s == "" || !isDigits(s) {
				continue
			}
			if key != "id" || trustID {
				return s
			}
			// At the top level "id" may name an offer or machine; only
			// accept it when the payload says it describes an instance.
			if p["type"] == "instance" || strings.Contains(stringValue(p["status"]), "instance") {
				return s
			}
		}

		for _, key := range nestedKeys {
			nested, ok := p[key]
			if !ok || nested == nil {
				continue
			}
			// `create instance` commonly answers {"new_contract": 12345}.
			if s := stringValue(nested); isDigits(s) {
				return s
			}
			if id := extractID(nested, true); id != "" {
				return id
			}
		}

		for _, v := range p {
			switch v.(type) {
			case map[string]any, []any:
				if id := extractID(v, trustID); id != "" {
					return id
				}
			}
		}

	case []any:
		for _, item := range p {
			if id := extractID(item, trustID); id != "" {
				return id
			}
		}

	case string:
		if m := idPattern.FindStringSubmatch(p); m != nil {
			return m[1]
		}
	}

	return ""
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
