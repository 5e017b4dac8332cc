package login

import "testing"

func TestValidatePasswordPolicy(t *testing.T) {
	cases := []struct {
		name string
		pwd  string
		ok   bool
	}{
		{name: "valid mixed", pwd: "Str0ngPass!word", ok: true},
		{name: "too short", pwd: "A1!bcdefghi", ok: false},
		{name: "no digit", pwd: "Strong!Password", ok: false},
		{name: "no symbol", pwd: "Str0ngPassword", ok: false},
		{name: "no upper", pwd: "str0ngpass!word", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tc.pwd)
			if tc.ok && err != nil {
				t.Fatalf("expected valid password, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected policy error")
			}
		})
	}
}
