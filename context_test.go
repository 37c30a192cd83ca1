package ember

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFieldsFromContextMergesBaggage(t *testing.T) {
	ctx := ContextWithFields(context.Background(), "key1", "value1", "key2", "value2")
	got := FieldsFromContext(ctx)
	want := map[string]any{"key1": "value1", "key2": "value2"}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}

func TestFieldsFromContextDropsTrailingUnpaired(t *testing.T) {
	ctx := ContextWithFields(context.Background(), "key1", "value1", "dangling")
	got := FieldsFromContext(ctx)
	want := map[string]any{"key1": "value1"}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}

func TestFieldsFromContextEmpty(t *testing.T) {
	if got := FieldsFromContext(context.Background()); got != nil {
		t.Errorf("expected nil fields for an empty context, got %v", got)
	}
}

func TestEscapeValuePercentEncodes(t *testing.T) {
	cases := map[string]string{
		`20% done`: `20%25%20done`,
		`,`:        `%2C`,
		`;`:        `%3B`,
		`\`:        `%5C`,
	}
	for in, want := range cases {
		if got := escapeValue(in); got != want {
			t.Errorf("escapeValue(%q) = %q, want %q", in, got, want)
		}
	}
}
