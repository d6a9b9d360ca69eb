package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"uems/internal/source"
)

func TestFixtureName(t *testing.T) {
	cases := map[string]string{
		"/api/gas/automated":          "api_gas_automated.json",
		"/api/stream-elec/ring-mains": "api_stream_elec_ring_mains.json",
		"/api/energy-total/dashboard": "api_energy_total_dashboard.json",
	}
	for in, want := range cases {
		if got := FixtureName(in); got != want {
			t.Errorf("FixtureName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStore_FetchFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "api_mthw_meter.json"), []byte(`[{"meter_location":"F419, ISB "}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromDir(dir)

	body, err := s.Fetch(context.Background(), "/api/mthw/meter")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != `[{"meter_location":"F419, ISB "}]` {
		t.Fatalf("unexpected body %s", body)
	}

	_, err = s.Fetch(context.Background(), "/api/mthw/consumption")
	if !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PutOverridesDir(t *testing.T) {
	s := NewFromDir(t.TempDir())
	s.Put("/api/cfi/rooms", []byte(`[]`))

	body, err := s.Fetch(context.Background(), "/api/cfi/rooms")
	if err != nil || string(body) != "[]" {
		t.Fatalf("Fetch() = %s, %v", body, err)
	}
	if got := s.Paths(); len(got) != 1 || got[0] != "/api/cfi/rooms" {
		t.Fatalf("Paths() = %v", got)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	s.Put("/api/cfi/rooms", []byte(`[]`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fetch(ctx, "/api/cfi/rooms"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
