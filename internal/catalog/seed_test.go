package catalog

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestSeed_SkipsDuplicatesAndIncomplete(t *testing.T) {
	s, _ := newTestStore(t)

	f, err := os.Open("testdata/seed.json")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rep, err := Seed(context.Background(), s, f)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(rep.Added) != 2 || rep.Added[0] != 1 || rep.Added[1] != 2 {
		t.Fatalf("added=%v", rep.Added)
	}
	if rep.Duplicates != 1 || rep.Incomplete != 1 {
		t.Fatalf("report=%+v", rep)
	}

	p, err := s.Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(p.Extra["category"]) != `"demo"` {
		t.Fatalf("extra=%v", p.Extra)
	}
}

func TestSeed_IsIdempotentByCode(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	in := `[{"title":"a","description":"b","price":1,"thumbnail":"c","code":"x","stock":1}]`

	if _, err := Seed(ctx, s, strings.NewReader(in)); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	rep, err := Seed(ctx, s, strings.NewReader(in))
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(rep.Added) != 0 || rep.Duplicates != 1 {
		t.Fatalf("report=%+v", rep)
	}
}

func TestSeed_BadJSON(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := Seed(context.Background(), s, strings.NewReader(`{"title":"not an array"}`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
