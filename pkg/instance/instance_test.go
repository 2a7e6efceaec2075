package instance

import "testing"

func TestGetIDPrefersConfiguredID(t *testing.T) {
	t.Setenv("CASKETTRACK_INSTANCE_ID", "scanner-api-1")
	t.Setenv("DYNO", "web.1")
	if got := GetID(); got != "scanner-api-1" {
		t.Fatalf("expected configured id, got %q", got)
	}
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("CASKETTRACK_INSTANCE_ID", "")
	t.Setenv("INSTANCE_ID", "")
	t.Setenv("DYNO", "web.2")
	if got := GetID(); got != "web.2" {
		t.Fatalf("expected dyno id, got %q", got)
	}
}
