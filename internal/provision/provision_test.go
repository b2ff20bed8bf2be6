package provision

import (
	"context"
	"strings"
	"testing"

	"github.com/MannyJMusic/dfl-desktop/internal/system"
	"github.com/MannyJMusic/dfl-desktop/internal/vast"
)

func TestRequestArgs(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "no volume",
			req:  Request{OfferID: "123", TemplateHash: "abc", Volume: NoVolume(), SSH: true, Direct: true},
			want: []string{"create", "instance", "123", "--template_hash", "abc", "--ssh", "--direct"},
		},
		{
			name: "link volume",
			req:  Request{OfferID: "123", TemplateHash: "abc", Volume: LinkVolume("55", "")},
			want: []string{
				"create", "instance", "123", "--template_hash", "abc",
				"--link-volume", "55", "--mount-path", "/workspace",
			},
		},
		{
			name: "create volume with label",
			req:  Request{OfferID: "123", TemplateHash: "abc", Volume: CreateVolume("70", 200, "dfl_workspace", "/data")},
			want: []string{
				"create", "instance", "123", "--template_hash", "abc",
				"--create-volume", "70", "--volume-size", "200", "--mount-path", "/data",
				"--volume-label", "dfl_workspace",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.req.Args()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d args, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("arg[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{
			name: "valid",
			req:  Request{OfferID: "1", TemplateHash: "h", Volume: NoVolume()},
		},
		{
			name:    "missing offer",
			req:     Request{TemplateHash: "h"},
			wantErr: "offer id",
		},
		{
			name:    "missing hash",
			req:     Request{OfferID: "1"},
			wantErr: "template hash",
		},
		{
			name:    "link without id",
			req:     Request{OfferID: "1", TemplateHash: "h", Volume: VolumePlan{Mode: VolumeLink, MountPath: "/w"}},
			wantErr: "volume id",
		},
		{
			name:    "create too small",
			req:     Request{OfferID: "1", TemplateHash: "h", Volume: CreateVolume("9", 5, "", "")},
			wantErr: "at least 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateExtractsInstanceID(t *testing.T) {
	tests := []struct {
		name   string
		output string
		wantID string
	}{
		{
			name:   "json payload",
			output: `{"success": true, "new_contract": 987654}`,
			wantID: "987654",
		},
		{
			name:   "banner then json",
			output: "Creating instance...\n{\"instance_id\": 42}",
			wantID: "42",
		},
		{
			name:   "free text only",
			output: "Started. instance id: 31337",
			wantID: "31337",
		},
		{
			name:   "nothing id-like",
			output: "ok",
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := system.NewMockExecutor()
			mock.AddResponse("vastai create", []byte(tt.output), nil)
			svc := NewService(vast.NewClient("vastai", "", vast.WithExecutor(mock)))

			res, err := svc.Create(context.Background(), Request{
				OfferID:      "123",
				TemplateHash: "abc",
				Volume:       NoVolume(),
			})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if res.InstanceID != tt.wantID {
				t.Errorf("InstanceID = %q, want %q", res.InstanceID, tt.wantID)
			}
		})
	}
}

func TestPreviewQuotesArguments(t *testing.T) {
	svc := NewService(vast.NewClient("vastai", ""))
	preview := svc.Preview(Request{
		OfferID:      "123",
		TemplateHash: "abc",
		Volume:       CreateVolume("70", 100, "my volume", ""),
	})
	if !strings.HasPrefix(preview, "vastai create instance 123") {
		t.Errorf("preview = %q", preview)
	}
	if !strings.Contains(preview, "'my volume'") {
		t.Errorf("label not quoted: %q", preview)
	}
}
