package linearapi

import "testing"

func TestStr(t *testing.T) {
	tests := []struct {
		name string
		in   any
		def  string
		want string
	}{
		{"nil returns default", nil, "fallback", "fallback"},
		{"string passes through", "hello", "x", "hello"},
		{"empty string is not absence", "", "x", ""},
		{"number renders", float64(5), "", "5"},
		{"bool renders", true, "", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Str(tt.in, tt.def); got != tt.want {
				t.Errorf("Str(%v, %q) = %q, want %q", tt.in, tt.def, got, tt.want)
			}
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		def  int
		want int
	}{
		{"nil returns default", nil, 7, 7},
		{"float truncates", 3.9, 0, 3},
		{"negative float truncates toward zero", -3.9, 0, -3},
		{"integer text parses", "42", 0, 42},
		{"decimal text returns default", "4.2", 9, 9},
		{"non-numeric text returns default", "abc", 9, 9},
		{"wrong type returns default", map[string]any{}, 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Int(tt.in, tt.def); got != tt.want {
				t.Errorf("Int(%v, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
			}
		})
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		def  float64
		want float64
	}{
		{"nil returns default", nil, 1.5, 1.5},
		{"float passes through", 0.66, 0, 0.66},
		{"int widens", 4, 0, 4.0},
		{"numeric text parses", "2.5", 0, 2.5},
		{"bad text returns default", "oops", 1.5, 1.5},
		{"wrong type returns default", []any{}, 1.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Float(tt.in, tt.def); got != tt.want {
				t.Errorf("Float(%v, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
			}
		})
	}
}

func TestOptStr(t *testing.T) {
	if got := OptStr(nil); got != nil {
		t.Errorf("OptStr(nil) = %v, want nil", *got)
	}
	if got := OptStr("value"); got == nil || *got != "value" {
		t.Errorf("OptStr(\"value\") = %v, want \"value\"", got)
	}
	// Empty string is presence, not absence.
	if got := OptStr(""); got == nil || *got != "" {
		t.Errorf("OptStr(\"\") = %v, want pointer to \"\"", got)
	}
	if got := OptStr(float64(10)); got == nil || *got != "10" {
		t.Errorf("OptStr(10) = %v, want \"10\"", got)
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name string
		in   any
		def  bool
		want bool
	}{
		{"nil returns default", nil, false, false},
		{"nil returns true default", nil, true, true},
		{"bool passes through", true, false, true},
		{"zero is false", float64(0), true, false},
		{"nonzero is true", float64(2), false, true},
		{"empty string is false", "", true, false},
		{"nonempty string is true", "no", false, true},
		{"empty list is false", []any{}, true, false},
		{"nonempty map is true", map[string]any{"a": 1}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bool(tt.in, tt.def); got != tt.want {
				t.Errorf("Bool(%v, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
			}
		})
	}
}

func TestNestedStr(t *testing.T) {
	state := map[string]any{"name": "In Progress"}

	if got := NestedStr(state, "name"); got == nil || *got != "In Progress" {
		t.Errorf("NestedStr(state, name) = %v, want \"In Progress\"", got)
	}
	if got := NestedStr(state, "missing"); got != nil {
		t.Errorf("NestedStr missing key = %q, want nil", *got)
	}
	if got := NestedStr(nil, "name"); got != nil {
		t.Errorf("NestedStr(nil) = %q, want nil", *got)
	}
	// Wrong container shapes degrade to nil instead of panicking.
	if got := NestedStr("not an object", "name"); got != nil {
		t.Errorf("NestedStr(string) = %q, want nil", *got)
	}
	if got := NestedStr([]any{"name"}, "name"); got != nil {
		t.Errorf("NestedStr(list) = %q, want nil", *got)
	}
}
