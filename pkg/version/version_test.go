package version

import (
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		major uint16
		minor uint16
		patch uint16
	}{
		{"7.2.4", 7, 2, 4},
		{"6.0.0", 6, 0, 0},
		{"1.0", 1, 0, 0},
		{"10.23.456", 10, 23, 456},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if v.Major != tt.major {
				t.Errorf("Major = %d, want %d", v.Major, tt.major)
			}
			if v.Minor != tt.minor {
				t.Errorf("Minor = %d, want %d", v.Minor, tt.minor)
			}
			if v.Patch != tt.patch {
				t.Errorf("Patch = %d, want %d", v.Patch, tt.patch)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"7",
		"abc",
		"7.2.4.1",
		"7.x",
		"-1.0",
		"7..4",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if err == nil {
				t.Errorf("Parse(%q) should return error", input)
			}
		})
	}
}

func TestServerVersion_String(t *testing.T) {
	v, err := Parse("7.2.4")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "7.2.4" {
		t.Errorf("String() = %q, want %q", v.String(), "7.2.4")
	}

	v2, err := Parse("6.2")
	if err != nil {
		t.Fatal(err)
	}
	if v2.String() != "6.2.0" {
		t.Errorf("String() = %q, want %q", v2.String(), "6.2.0")
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		v     string
		other string
		want  bool
	}{
		{"7.2.4", "7.2.4", true},
		{"7.2.4", "7.2.3", true},
		{"7.2.4", "7.2.5", false},
		{"7.3.0", "7.2.9", true},
		{"7.0.0", "6.9.9", true},
		{"6.9.9", "7.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.v+" vs "+tt.other, func(t *testing.T) {
			v, _ := Parse(tt.v)
			other, _ := Parse(tt.other)
			if got := v.AtLeast(other); got != tt.want {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.v, tt.other, got, tt.want)
			}
		})
	}
}

func TestFromInfo(t *testing.T) {
	info := "# Server\r\nredis_version:7.2.4\r\nredis_mode:standalone\r\n"
	v, err := FromInfo(info)
	if err != nil {
		t.Fatalf("FromInfo returned error: %v", err)
	}
	if v.String() != "7.2.4" {
		t.Errorf("FromInfo version = %s, want 7.2.4", v)
	}
}

func TestFromInfo_AlternateKey(t *testing.T) {
	v, err := FromInfo("server_version:6.0.1\n")
	if err != nil {
		t.Fatalf("FromInfo returned error: %v", err)
	}
	if v.Major != 6 || v.Minor != 0 || v.Patch != 1 {
		t.Errorf("FromInfo version = %s, want 6.0.1", v)
	}
}

func TestFromInfo_Missing(t *testing.T) {
	if _, err := FromInfo("# Server\r\nuptime_in_seconds:42\r\n"); err == nil {
		t.Error("FromInfo should return error when no version field present")
	}
}

func TestLibrary(t *testing.T) {
	if _, err := Parse(Library); err != nil {
		t.Fatalf("Parse(Library) returned error: %v", err)
	}
}
