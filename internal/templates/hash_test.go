package templates

import (
	"context"
	"testing"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/system"
)

func TestExtractHashVariants(t *testing.T) {
	tests := []struct {
		name string
		tpl  Template
		want string
	}{
		{"direct", Template{"template_hash": "abc"}, "abc"},
		{"hash field", Template{"hash": "def"}, "def"},
		{"camel case", Template{"templateHash": "ghi"}, "ghi"},
		{"nested template", Template{"template": map[string]any{"hash_id": "jkl"}}, "jkl"},
		{"nested data", Template{"data": map[string]any{"template_hash": "mno"}}, "mno"},
		{"absent", Template{"name": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractHash(tt.tpl); got != tt.want {
				t.Errorf("ExtractHash = %q, want %q", got, tt.want)
			}
			if tt.want != "" && tt.tpl["template_hash"] != tt.want {
				t.Error("hash should be cached under template_hash")
			}
		})
	}
}

func TestResolveHashQueriesByID(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai search", []byte(`[{"id": 5, "name": "dfl", "template_hash": "found-hash"}]`), nil)
	mock.AddResponse("vastai show", []byte(`{}`), nil)

	svc := newTestService(t, mock, "")
	tpl := Template{"id": float64(5), "name": "dfl"}

	hash, err := svc.ResolveHash(context.Background(), tpl)
	if err != nil {
		t.Fatalf("ResolveHash failed: %v", err)
	}
	if hash != "found-hash" {
		t.Errorf("hash = %q", hash)
	}
	// The richer record merged back.
	if tpl["template_hash"] != "found-hash" {
		t.Error("template record not updated with found hash")
	}
}

func TestResolveHashMissing(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai search", []byte(`[]`), nil)
	mock.AddResponse("vastai show", []byte(`{}`), nil)

	svc := newTestService(t, mock, "")
	_, err := svc.ResolveHash(context.Background(), Template{"name": "ghost"})
	if err == nil {
		t.Fatal("expected error for unresolvable hash")
	}
	if errors.GetExitCode(err) != errors.ExitTemplateNotFound {
		t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitTemplateNotFound)
	}
}

func TestCreateSpecArgs(t *testing.T) {
	spec := CreateSpec{
		Name:       "DeepFaceLab Desktop",
		Image:      "mannyj37/dfl-desktop:latest",
		Env:        "-p 5901 -e VNC_PASSWORD=deepfacelab",
		DiskGB:     50,
		ExtraFlags: "--ssh --direct",
	}
	args, err := spec.Args()
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	want := []string{
		"create", "template",
		"--name", "DeepFaceLab Desktop",
		"--image", "mannyj37/dfl-desktop:latest",
		"--env", "-p 5901 -e VNC_PASSWORD=deepfacelab",
		"--disk_space", "50",
		"--ssh", "--direct",
	}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestCreateSpecValidation(t *testing.T) {
	bad := []CreateSpec{
		{Image: "img", DiskGB: 50},
		{Name: "n", DiskGB: 50},
		{Name: "n", Image: "img", DiskGB: 5},
	}
	for _, spec := range bad {
		if _, err := spec.Args(); err == nil {
			t.Errorf("expected validation error for %+v", spec)
		}
	}
}

func TestCreateParsesRecord(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai create", []byte("Template created.\n{\"id\": 9, \"name\": \"dfl\", \"hash\": \"h9\"}"), nil)

	svc := newTestService(t, mock, "")
	created, err := svc.Create(context.Background(), CreateSpec{Name: "dfl", Image: "img", DiskGB: 50})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ExtractHash(created) != "h9" {
		t.Errorf("created = %v", created)
	}
}

func TestCreateMarksOwnershipAcrossInvalidate(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddResponse("vastai create template", []byte(`{"id": 9, "name": "fresh"}`), nil)
	// The listing carries no ownership fields at all.
	mock.AddResponse("vastai search templates --raw", []byte(`[{"id": 9, "name": "fresh"}]`), nil)
	mock.AddResponse("vastai show user", []byte(`{}`), nil)

	svc := newTestService(t, mock, "")
	if _, err := svc.Create(context.Background(), CreateSpec{Name: "fresh", Image: "img", DiskGB: 50}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mine, community, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Name() != "fresh" {
		t.Errorf("created template not classified as owned: mine=%v community=%v", mine, community)
	}
}
