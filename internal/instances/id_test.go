package instances

import "testing"

func TestExtractID(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{
			name:    "top-level instance_id",
			payload: map[string]any{"instance_id": float64(12345)},
			want:    "12345",
		},
		{
			name:    "new_contract wins over generic id",
			payload: map[string]any{"new_contract": map[string]any{"id": float64(77)}, "success": true},
			want:    "77",
		},
		{
			name:    "generic id needs instance context",
			payload: map[string]any{"id": float64(5), "type": "machine"},
			want:    "",
		},
		{
			name:    "generic id with instance type",
			payload: map[string]any{"id": float64(5), "type": "instance"},
			want:    "5",
		},
		{
			name:    "generic id with instance status",
			payload: map[string]any{"id": "901", "status": "creating instance"},
			want:    "901",
		},
		{
			name:    "scalar new_contract",
			payload: map[string]any{"success": true, "new_contract": float64(987654)},
			want:    "987654",
		},
		{
			name:    "nested data wrapper",
			payload: map[string]any{"data": map[string]any{"new_instance_id": "4242"}},
			want:    "4242",
		},
		{
			name:    "list of records",
			payload: []any{map[string]any{"foo": 1}, map[string]any{"contract_id": float64(808)}},
			want:    "808",
		},
		{
			name:    "deeply nested under unknown key",
			payload: map[string]any{"outer": map[string]any{"inner": map[string]any{"instance_id": "13"}}},
			want:    "13",
		},
		{
			name:    "free text fallback",
			payload: "Started. new instance id: 6001.",
			want:    "6001",
		},
		{
			name:    "non-numeric id ignored",
			payload: map[string]any{"instance_id": "abc"},
			want:    "",
		},
		{
			name:    "nothing id-like",
			payload: map[string]any{"success": true},
			want:    "",
		},
		{
			name:    "nil payload",
			payload: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractID(tt.payload); got != tt.want {
				t.Errorf("ExtractID = %q, want %q", got, tt.want)
			}
		})
	}
}
