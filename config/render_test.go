package config

import (
	"math"
	"reflect"
	"testing"
)

func TestRenderValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "main", `"main"`},
		{"escapes", "a \"b\"\n\\c\x01", `"a \"b\"\n\\c\u0001"`},
		{"unicode", "日本", `"日本"`},
		{"int", int64(60), "60"},
		{"bool", true, "true"},
		{"float", 1.5, "1.5"},
		{"whole float", 2.0, "2.0"},
		{"inf", math.Inf(-1), "-inf"},
		{"array", []any{"a", "b"}, `["a", "b"]`},
		{"empty array", []any{}, "[]"},
		{"table", map[string]any{"k": "v", "a b": int64(1)}, `{ "a b" = 1, k = "v" }`},
		{"empty table", map[string]any{}, "{}"},
		{"nested", []any{map[string]any{"x": []any{int64(1)}}}, "[{ x = [1] }]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderValue(tt.value); got != tt.want {
				t.Errorf("RenderValue(%v) = %s, expected %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{[]string{"ui", "color"}, "ui.color"},
		{[]string{"revset-aliases", "trunk()"}, `revset-aliases."trunk()"`},
		{[]string{"a.b", "c"}, `"a.b".c`},
		{[]string{""}, `""`},
	}
	for _, tt := range tests {
		got := KeyString(tt.path)
		if got != tt.want {
			t.Errorf("KeyString(%q) = %s, expected %s", tt.path, got, tt.want)
		}
		if back := SplitKey(got); !reflect.DeepEqual(back, tt.path) {
			t.Errorf("SplitKey(%s) = %q, expected %q", got, back, tt.path)
		}
	}
}
