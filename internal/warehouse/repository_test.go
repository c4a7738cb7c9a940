package warehouse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hospetl/internal/schema"
)

type fakeRepo struct {
	cols   []schema.Column
	copied [][]any
	closed bool
}

func (f *fakeRepo) EnsureSchema(_ context.Context, cols []schema.Column) error {
	f.cols = cols
	return nil
}

func (f *fakeRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	f.copied = append(f.copied, rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Query(context.Context, string) (*Result, error) {
	return &Result{}, nil
}

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

func TestRegisterAndNew(t *testing.T) {
	kind := "fake-" + t.Name()
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: kind})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := repo.(*fakeRepo); !ok {
		t.Fatalf("New returned %T, want *fakeRepo", repo)
	}

	kinds := ListKinds()
	found := false
	for _, k := range kinds {
		if k == kind {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListKinds() = %v, missing %q", kinds, kind)
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "no-such-backend"})
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if !strings.Contains(err.Error(), "no-such-backend") {
		t.Fatalf("error does not name the kind: %v", err)
	}
}

func TestWarehouseError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &WarehouseError{Kind: "duckdb", DSN: "portfolio.duckdb", Err: inner}

	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is failed to reach wrapped error")
	}
	for _, want := range []string{"duckdb", "portfolio.duckdb", "disk full"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Error() = %q, missing %q", err.Error(), want)
		}
	}
}

func TestNormalizeCell(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{[]byte("TX"), "TX"},
		{int32(7), int64(7)},
		{int(7), int64(7)},
		{float32(2.5), float64(2.5)},
		{nil, nil},
		{"already string", "already string"},
		{int64(9), int64(9)},
	}
	for _, c := range cases {
		if got := normalizeCell(c.in); got != c.want {
			t.Fatalf("normalizeCell(%#v) = %#v, want %#v", c.in, got, c.want)
		}
	}
}
