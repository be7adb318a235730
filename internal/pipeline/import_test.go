package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/theirongolddev/cashcast/internal/store"
)

func writeCSV(t testing.TB, path string, rows ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "date,name,amount,category,category_type\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func openStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cashcast.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func count(t *testing.T, st *store.Store) int {
	t.Helper()
	n, err := st.TransactionCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestImport_Incremental(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := openStore(t)

	writeCSV(t, filepath.Join(dir, "checking", "june.csv"),
		"2025-06-05,Rent,-1200,Housing,expense",
		"2025-06-25,Salary,5000,Salary,income",
	)
	writeCSV(t, filepath.Join(dir, "visa", "june.csv"),
		"2025-06-07,Coffee,-4,Food,expense",
		"bad-date,Coffee,-4,Food,expense",
	)

	var calls atomic.Int64
	res, err := Import(ctx, dir, st, ImportOptions{Progress: func(_, _ int) { calls.Add(1) }})
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 || res.Transactions != 3 || res.ParseErrors != 1 {
		t.Errorf("first import = %+v", res)
	}
	if res.Accounts != 2 {
		t.Errorf("Accounts = %d, want 2", res.Accounts)
	}
	if calls.Load() != 2 {
		t.Errorf("progress called %d times, want 2", calls.Load())
	}
	if n := count(t, st); n != 3 {
		t.Errorf("stored %d transactions, want 3", n)
	}

	res, err = Import(ctx, dir, st, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Unchanged != 2 || res.Imported != 0 {
		t.Errorf("second import = %+v, want everything unchanged", res)
	}

	writeCSV(t, filepath.Join(dir, "visa", "june.csv"),
		"2025-06-07,Coffee,-4,Food,expense",
		"2025-06-08,Coffee,-4.50,Food,expense",
	)
	res, err = Import(ctx, dir, st, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 1 || res.Unchanged != 1 {
		t.Errorf("after edit = %+v", res)
	}
	if n := count(t, st); n != 4 {
		t.Errorf("stored %d transactions, want 4", n)
	}

	if err := os.Remove(filepath.Join(dir, "checking", "june.csv")); err != nil {
		t.Fatal(err)
	}
	res, err = Import(ctx, dir, st, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 1 {
		t.Errorf("Removed = %d, want 1", res.Removed)
	}
	if n := count(t, st); n != 2 {
		t.Errorf("stored %d transactions, want 2", n)
	}

	res, err = Import(ctx, dir, st, ImportOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 1 {
		t.Errorf("forced import = %+v", res)
	}
	if n := count(t, st); n != 2 {
		t.Errorf("forced re-import changed the row count to %d", n)
	}
}

func TestImport_UnreadableFileIsReported(t *testing.T) {
	dir := t.TempDir()
	st := openStore(t)
	// A CSV without the required columns fails as a whole file.
	if err := os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("foo,bar\n1,2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := Import(context.Background(), dir, st, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.FileErrors != 1 || len(res.Failed) != 1 || res.Imported != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestWithin(t *testing.T) {
	root := filepath.FromSlash("/data/exports")
	if !within(root, filepath.FromSlash("/data/exports/a/b.csv")) {
		t.Error("nested path should be within root")
	}
	if within(root, filepath.FromSlash("/data/other.csv")) {
		t.Error("sibling path should not be within root")
	}
	if within(root, filepath.FromSlash("/data/exports-old/x.csv")) {
		t.Error("prefix-sharing sibling should not be within root")
	}
}

func BenchmarkImport(b *testing.B) {
	dir := b.TempDir()
	for f := 0; f < 24; f++ {
		rows := make([]string, 0, 200)
		for i := 0; i < 200; i++ {
			rows = append(rows, fmt.Sprintf("2025-%02d-%02d,Vendor %d,-%d.%02d,Cat %d,expense", f%12+1, i%28+1, i%40, i, i%100, i%9))
		}
		writeCSV(b, filepath.Join(dir, fmt.Sprintf("acct%d", f%3), fmt.Sprintf("f%02d.csv", f)), rows...)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st := openStore(b)
		if _, err := Import(context.Background(), dir, st, ImportOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
