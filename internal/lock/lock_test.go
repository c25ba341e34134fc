package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	lockErrors "github.com/bashhack/fslock/internal/errors"
)

func TestDefaultOwner(t *testing.T) {
	if DefaultOwner() != strconv.Itoa(os.Getpid()) {
		t.Errorf("DefaultOwner() = %s, want pid %d", DefaultOwner(), os.Getpid())
	}
	if err := ValidateOwner(DefaultOwner()); err != nil {
		t.Errorf("default owner should be valid: %v", err)
	}
}

func TestNewOwnerToken(t *testing.T) {
	a, b := NewOwnerToken(), NewOwnerToken()
	if a == b {
		t.Error("Expected distinct owner tokens")
	}
	for _, tok := range []string{a, b} {
		if strings.Contains(tok, "-") {
			t.Errorf("Token %q contains a dash", tok)
		}
		if err := ValidateOwner(tok); err != nil {
			t.Errorf("ValidateOwner(%q) error = %v", tok, err)
		}
	}
}

func TestValidateOwner(t *testing.T) {
	tests := map[string]struct {
		owner   string
		wantErr bool
	}{
		"Pid":          {owner: "1234", wantErr: false},
		"Hex":          {owner: "deadbeef", wantErr: false},
		"Underscore":   {owner: "host_1", wantErr: false},
		"Empty":        {owner: "", wantErr: true},
		"Dash":         {owner: "a-b", wantErr: true},
		"Slash":        {owner: "a/b", wantErr: true},
		"Star":         {owner: "a*", wantErr: true},
		"QuestionMark": {owner: "a?", wantErr: true},
		"Bracket":      {owner: "[a]", wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := ValidateOwner(test.owner)
			if (err != nil) != test.wantErr {
				t.Fatalf("ValidateOwner(%q) error = %v, wantErr %t", test.owner, err, test.wantErr)
			}
			if err != nil && !lockErrors.Is(err, lockErrors.ErrInvalidConfiguration) {
				t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestMkAbs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	t.Setenv("FSLOCK_TEST_DIR", "/srv/data")

	tests := map[string]struct {
		path string
		want string
	}{
		"Absolute":   {path: "/tmp/x.yaml", want: "/tmp/x.yaml"},
		"Relative":   {path: "x.yaml", want: filepath.Join(wd, "x.yaml")},
		"Home":       {path: "~/x.yaml", want: filepath.Join(home, "x.yaml")},
		"BareHome":   {path: "~", want: home},
		"EnvVar":     {path: "$FSLOCK_TEST_DIR/x.yaml", want: "/srv/data/x.yaml"},
		"Cleaned":    {path: "/tmp/a/../x.yaml", want: "/tmp/x.yaml"},
		"TildeInner": {path: "/tmp/~x", want: "/tmp/~x"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := MkAbs(test.path)
			if err != nil {
				t.Fatalf("MkAbs(%q) error = %v", test.path, err)
			}
			if got != test.want {
				t.Errorf("MkAbs(%q) = %q, want %q", test.path, got, test.want)
			}
		})
	}
}

func TestStateHeld(t *testing.T) {
	tests := map[string]struct {
		state State
		want  bool
	}{
		"None":      {state: State{}, want: false},
		"Read":      {state: State{Read: true}, want: true},
		"ReadWrite": {state: State{Read: true, Write: true}, want: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := test.state.Held(); got != test.want {
				t.Errorf("Held() = %t, want %t", got, test.want)
			}
		})
	}
}
