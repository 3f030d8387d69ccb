package handlers

import (
	"slices"
	"testing"
)

func TestParseListEdit(t *testing.T) {
	tests := []struct {
		action string
		want   listEdit
		ok     bool
	}{
		{action: "add:highlights", want: listEdit{Field: "highlights"}, ok: true},
		{action: "remove:include:2", want: listEdit{Field: "include", Remove: true, Index: 2}, ok: true},
		{action: "save"},
		{action: "remove:include"},
		{action: "remove:include:-1"},
		{action: "add:"},
	}
	for _, tt := range tests {
		got, ok := parseListEdit(tt.action)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("parseListEdit(%q) = %#v, %v", tt.action, got, ok)
		}
	}
}

func TestListEditApply(t *testing.T) {
	items := []string{"a", "b", "c"}

	if got := (listEdit{Field: "x"}).apply("x", items); !slices.Equal(got, []string{"a", "b", "c", ""}) {
		t.Fatalf("add = %v", got)
	}
	if got := (listEdit{Field: "x", Remove: true, Index: 1}).apply("x", items); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("remove = %v", got)
	}
	if got := (listEdit{Field: "x", Remove: true, Index: 9}).apply("x", items); !slices.Equal(got, items) {
		t.Fatalf("out of range remove = %v", got)
	}
	if got := (listEdit{Field: "y"}).apply("x", items); !slices.Equal(got, items) {
		t.Fatalf("other field = %v", got)
	}
	if !slices.Equal(items, []string{"a", "b", "c"}) {
		t.Fatalf("apply mutated its input: %v", items)
	}
}

func TestKeepOneInput(t *testing.T) {
	if got := keepOneInput(nil); !slices.Equal(got, []string{""}) {
		t.Fatalf("keepOneInput(nil) = %v", got)
	}
	if got := keepOneInput([]string{"a"}); !slices.Equal(got, []string{"a"}) {
		t.Fatalf("keepOneInput = %v", got)
	}
}
