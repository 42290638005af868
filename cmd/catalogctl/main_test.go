package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"CATALOG_CONFIG", "CATALOG_BACKEND", "CATALOG_SEED_FILE", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "products.json")
}

func runCtl(t *testing.T, path string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"-path", path}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCatalogctl_Lifecycle(t *testing.T) {
	path := setupEnv(t)

	p1 := `{"title":"Producto 1","description":"Descripcion 1","price":26,"thumbnail":"thumbnail1.png","code":"54645","stock":5}`
	p2 := `{"title":"Producto 2","description":"Descripcion 2","price":26,"thumbnail":"thumbnail2.png","code":"546455","stock":5}`

	for _, p := range []string{p1, p2} {
		if code, _, stderr := runCtl(t, path, "add", p); code != exitOK {
			t.Fatalf("add: code=%d stderr=%s", code, stderr)
		}
	}

	if code, _, _ := runCtl(t, path, "add", p1); code != exitError {
		t.Fatalf("duplicate add: code=%d", code)
	}

	code, out, stderr := runCtl(t, path, "update", "1", `{"price":15}`)
	if code != exitOK {
		t.Fatalf("update: code=%d stderr=%s", code, stderr)
	}
	var updated map[string]any
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated["price"] != float64(15) {
		t.Fatalf("updated=%v", updated)
	}

	if code, _, _ := runCtl(t, path, "delete", "2"); code != exitOK {
		t.Fatalf("delete: code=%d", code)
	}

	code, out, _ = runCtl(t, path, "list")
	if code != exitOK {
		t.Fatalf("list: code=%d", code)
	}
	var products []map[string]any
	if err := json.Unmarshal([]byte(out), &products); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(products) != 1 || products[0]["id"] != float64(1) {
		t.Fatalf("products=%v", products)
	}

	if code, _, stderr := runCtl(t, path, "get", "2"); code != exitError || !strings.Contains(stderr, "not found") {
		t.Fatalf("get missing: code=%d stderr=%s", code, stderr)
	}
}

func TestCatalogctl_Seed(t *testing.T) {
	path := setupEnv(t)

	code, out, stderr := runCtl(t, path, "seed", "../../internal/catalog/testdata/seed.json")
	if code != exitOK {
		t.Fatalf("seed: code=%d stderr=%s", code, stderr)
	}
	if !strings.Contains(out, `"duplicates": 1`) {
		t.Fatalf("report=%s", out)
	}
}

func TestCatalogctl_Usage(t *testing.T) {
	path := setupEnv(t)

	cases := [][]string{
		{},
		{"explode"},
		{"get"},
		{"get", "x"},
		{"update", "1"},
		{"add"},
	}
	for _, args := range cases {
		if code, _, _ := runCtl(t, path, args...); code != exitUsage {
			t.Errorf("%v: code=%d, want %d", args, code, exitUsage)
		}
	}
}
