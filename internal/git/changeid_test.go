package git

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveChangeID(t *testing.T) {
	id := "00000000" + "80" + strings.Repeat("00", 14) + "01"
	want := "rz" + strings.Repeat("z", 28) + "zy"

	if got := DeriveChangeID(id); got != want {
		t.Fatalf("DeriveChangeID(%s) = %s, want %s", id, got, want)
	}
}

func TestDeriveChangeID_Invalid(t *testing.T) {
	for _, id := range []string{"", "abc", "zz" + strings.Repeat("0", 38)} {
		if got := DeriveChangeID(id); got != "" {
			t.Errorf("DeriveChangeID(%q) = %q, expected empty", id, got)
		}
	}
}

func TestEncodeReverseHex(t *testing.T) {
	if got := EncodeReverseHex([]byte{0x00, 0x0f, 0xf0, 0xab}); got != "zzzkkzpo" {
		t.Fatalf("EncodeReverseHex = %q, expected %q", got, "zzzkkzpo")
	}
}

func TestIsHexAndReverseHex(t *testing.T) {
	tests := []struct {
		in         string
		hex        bool
		reverseHex bool
	}{
		{in: "", hex: false, reverseHex: false},
		{in: "0af9", hex: true, reverseHex: false},
		{in: "kxyz", hex: false, reverseHex: true},
		{in: "main", hex: false, reverseHex: false},
		{in: "ABC", hex: false, reverseHex: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsHex(tt.in); got != tt.hex {
				t.Errorf("IsHex(%q) = %v, want %v", tt.in, got, tt.hex)
			}
			if got := IsReverseHex(tt.in); got != tt.reverseHex {
				t.Errorf("IsReverseHex(%q) = %v, want %v", tt.in, got, tt.reverseHex)
			}
		})
	}
}

func TestParseCommitObject(t *testing.T) {
	changeID := strings.Repeat("k", 32)
	raw := "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
		"parent 1111111111111111111111111111111111111111\n" +
		"parent 2222222222222222222222222222222222222222\n" +
		"author Jane Doe <jane@example.com> 1700000000 +0130\n" +
		"committer John Roe <john@example.com> 1700000100 -0500\n" +
		"gpgsig -----BEGIN PGP SIGNATURE-----\n" +
		" abc\n" +
		" -----END PGP SIGNATURE-----\n" +
		"change-id " + changeID + "\n" +
		"\n" +
		"Subject line\n\nBody\n"

	id := strings.Repeat("3", 40)
	rec, err := parseCommitObject(id, []byte(raw))
	if err != nil {
		t.Fatalf("parseCommitObject: %v", err)
	}
	if rec.ID != id {
		t.Errorf("ID = %q", rec.ID)
	}
	if len(rec.Parents) != 2 || rec.Parents[1] != strings.Repeat("2", 40) {
		t.Errorf("Parents = %v", rec.Parents)
	}
	if rec.Author.Name != "Jane Doe" || rec.Author.Email != "jane@example.com" {
		t.Errorf("Author = %+v", rec.Author)
	}
	if rec.Author.When.Unix() != 1700000000 {
		t.Errorf("Author.When = %d", rec.Author.When.Unix())
	}
	if _, offset := rec.Author.When.Zone(); offset != 90*60 {
		t.Errorf("Author offset = %d", offset)
	}
	if rec.Committer.Name != "John Roe" || !rec.Committer.When.Equal(time.Unix(1700000100, 0)) {
		t.Errorf("Committer = %+v", rec.Committer)
	}
	if rec.ChangeID != changeID {
		t.Errorf("ChangeID = %q, expected header value", rec.ChangeID)
	}
	if rec.Description != "Subject line\n\nBody\n" {
		t.Errorf("Description = %q", rec.Description)
	}
}

func TestParseCommitObject_DerivesChangeID(t *testing.T) {
	raw := "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
		"author A <a@example.com> 1 +0000\n" +
		"committer A <a@example.com> 1 +0000\n" +
		"change-id not-a-change-id\n" +
		"\n" +
		"msg\n"
	id := strings.Repeat("ab", 20)

	rec, err := parseCommitObject(id, []byte(raw))
	if err != nil {
		t.Fatalf("parseCommitObject: %v", err)
	}
	if rec.ChangeID != DeriveChangeID(id) {
		t.Errorf("ChangeID = %q, expected derived %q", rec.ChangeID, DeriveChangeID(id))
	}
	if len(rec.Parents) != 0 {
		t.Errorf("Parents = %v, expected none", rec.Parents)
	}
}

func TestParseSignature_Malformed(t *testing.T) {
	for _, s := range []string{"no email here", "A <a@example.com> notanumber +0000"} {
		if _, err := parseSignature(s); err == nil {
			t.Errorf("parseSignature(%q): expected error", s)
		}
	}
}
