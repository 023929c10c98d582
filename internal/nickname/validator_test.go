package nickname

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "minimum length accepted", input: "ab", wantErr: nil},
		{name: "maximum length accepted", input: "abcdefghij", wantErr: nil},
		{name: "korean accepted", input: "아네트", wantErr: nil},
		{name: "one char rejected", input: "a", wantErr: ErrTooShort},
		{name: "empty rejected", input: "", wantErr: ErrTooShort},
		{name: "eleven chars rejected", input: "abcdefghijk", wantErr: ErrTooLong},
		{name: "fifteen chars rejected", input: "abcdefghijklmno", wantErr: ErrTooLong},
		{name: "korean over limit counts runes", input: "아네트아네트아네트아네", wantErr: ErrTooLong},
		{name: "forbidden korean word", input: "나는씨발이다", wantErr: ErrForbidden},
		{name: "forbidden romanized word", input: "sibalman", wantErr: ErrForbidden},
		{name: "forbidden word case insensitive", input: "SEXking", wantErr: ErrForbidden},
		{name: "forbidden beats length check", input: "ㅅㅂ", wantErr: ErrForbidden},
		{name: "special characters rejected", input: "ab!cd", wantErr: ErrSpecialChar},
		{name: "brackets rejected", input: "ab[cd]", wantErr: ErrSpecialChar},
		{name: "spaces allowed", input: "ab cd", wantErr: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.input)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate(%q) = %v, want nil", tc.input, err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate(%q) = %v, want %v", tc.input, err, tc.wantErr)
			}
		})
	}
}

func TestRandomAlwaysValid(t *testing.T) {
	for i := 0; i < 200; i++ {
		nick := Random()
		if err := Validate(nick); err != nil {
			t.Fatalf("Random() produced invalid nickname %q: %v", nick, err)
		}
	}
}
