package replicator

import (
	"strings"
	"testing"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvSourceRegion, "us-east-1")
	t.Setenv(EnvTargetRegion, "us-east-2")
	t.Setenv(EnvParameters, `[{"source":"/acm/cert-arn","target":"/acm/cert-arn"}]`)

	req, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.SourceRegion != "us-east-1" || req.TargetRegion != "us-east-2" {
		t.Errorf("unexpected regions %+v", req)
	}
	if len(req.Parameters) != 1 || req.Parameters[0].Source != "/acm/cert-arn" {
		t.Errorf("unexpected parameters %+v", req.Parameters)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestFromEnv_EmptyArray(t *testing.T) {
	t.Setenv(EnvSourceRegion, "us-east-1")
	t.Setenv(EnvTargetRegion, "us-east-2")
	t.Setenv(EnvParameters, `[]`)

	req, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if req.Parameters == nil {
		t.Fatal("empty array should resolve to a non-nil slice")
	}
	if err := req.Validate(); err != nil {
		t.Errorf("empty parameter list should be valid, got %v", err)
	}
}

func TestFromEnv_MalformedParameters(t *testing.T) {
	t.Setenv(EnvParameters, `{"source":`)

	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), EnvParameters) {
		t.Errorf("expected parse error naming %s, got %v", EnvParameters, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		missing []string
	}{
		{
			name:    "everything missing",
			req:     Request{},
			missing: []string{"sourceRegion", "targetRegion", "parameters"},
		},
		{
			name: "empty target key",
			req: Request{
				SourceRegion: "us-east-1",
				TargetRegion: "us-east-2",
				Parameters:   []Pair{{Source: "/a", Target: "/a"}, {Source: "/b"}},
			},
			missing: []string{"parameters[1].target"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			for _, field := range tt.missing {
				if !strings.Contains(err.Error(), field) {
					t.Errorf("error %q should mention %s", err, field)
				}
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Request{SourceRegion: "us-east-1", TargetRegion: "us-east-2", Parameters: []Pair{{Source: "/a", Target: "/a"}}}

	got := base.Merge(Request{TargetRegion: "eu-west-1"})
	if got.SourceRegion != "us-east-1" || got.TargetRegion != "eu-west-1" || len(got.Parameters) != 1 {
		t.Errorf("unexpected merge %+v", got)
	}

	got = base.Merge(Request{Parameters: []Pair{}})
	if got.Parameters == nil || len(got.Parameters) != 0 {
		t.Errorf("explicit empty parameters should override, got %+v", got.Parameters)
	}
}
