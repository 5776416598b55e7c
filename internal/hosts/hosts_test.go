package hosts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Duplicate B", "A;B;B;C", []string{"A", "B", "C"}},
		{"Case-insensitive duplicate", "host1, HOST1 host2", []string{"host1", "host2"}},
		{"Every delimiter", "a;b,c\td e\r\nf\ng\rh", []string{"a", "b", "c", "d", "e", "f", "g", "h"}},
		{"Empty tokens", ";;, ,\n\n", []string{}},
		{"Empty string", "", []string{}},
		{"Surrounding whitespace", "  srv01  ", []string{"srv01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("Normalize(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("Normalize(%q)[%d] = %q, want %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSet(t *testing.T) {
	got := Set([]string{"A", " B ", "b", "", "C;D"})
	want := []string{"A", "B", "C", "D"}
	if len(got) != len(want) {
		t.Fatalf("Set() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Set()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolve_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.txt")
	if err := os.WriteFile(path, []byte("srv01\r\nsrv02;srv01\n\nsrv03\n"), 0o644); err != nil {
		t.Fatalf("write host file: %v", err)
	}

	for _, input := range []string{path, `"` + path + `"`, "  " + path + "  "} {
		got, err := Resolve(input)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", input, err)
		}
		if len(got) != 3 || got[0] != "srv01" || got[2] != "srv03" {
			t.Errorf("Resolve(%q) = %v", input, got)
		}
	}
}

func TestResolve_QuotedMissingFile(t *testing.T) {
	_, err := Resolve(`"` + filepath.Join(t.TempDir(), "missing.txt") + `"`)
	if !errors.Is(err, ErrHostFile) {
		t.Errorf("Resolve(missing quoted file) error = %v, want ErrHostFile", err)
	}
}

func TestResolve_LiteralList(t *testing.T) {
	got, err := Resolve("A B B C")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Resolve = %v, want 3 hosts", got)
	}

	got, err = Resolve("   ")
	if err != nil || len(got) != 0 {
		t.Errorf("Resolve(blank) = %v, %v", got, err)
	}
}
