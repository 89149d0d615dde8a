package git

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// reverseHexDigits maps nibble values 0..15 to the change-id alphabet.
const reverseHexDigits = "zyxwvutsrqponmlk"

// changeIDHeader is the extra commit header jj writes for its change ids.
const changeIDHeader = "change-id"

// EncodeReverseHex renders bytes in reverse hex, where 0 is 'z' and 15 is 'k'.
func EncodeReverseHex(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, v := range b {
		sb.WriteByte(reverseHexDigits[v>>4])
		sb.WriteByte(reverseHexDigits[v&0x0f])
	}
	return sb.String()
}

// IsHex reports whether s is a non-empty string of lowercase hex digits.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// IsReverseHex reports whether s is a non-empty string of change-id digits.
func IsReverseHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'k' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// DeriveChangeID computes the change id of a commit that carries no
// change-id header: bytes 4..20 of the commit id, in reverse order, each
// bit-reversed.
func DeriveChangeID(commitID string) string {
	raw, err := hex.DecodeString(commitID)
	if err != nil || len(raw) < 20 {
		return ""
	}
	src := raw[4:20]
	out := make([]byte, len(src))
	for i, b := range src {
		out[len(src)-1-i] = bits.Reverse8(b)
	}
	return EncodeReverseHex(out)
}

// changeIDFromHeaders scans the header block of a raw commit object for a
// valid change-id header.
func changeIDFromHeaders(raw []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), len(raw)+1)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, " ")
		if ok && name == changeIDHeader && IsReverseHex(value) {
			return value
		}
	}
	return ""
}

// changeIDFor returns the header change id or the derived one.
func changeIDFor(commitID string, raw []byte) string {
	if id := changeIDFromHeaders(raw); id != "" {
		return id
	}
	return DeriveChangeID(commitID)
}

// parseCommitObject parses the body of a raw commit object.
func parseCommitObject(id string, raw []byte) (CommitRecord, error) {
	rec := CommitRecord{ID: id}

	header, message, _ := bytes.Cut(raw, []byte("\n\n"))
	for _, line := range strings.Split(string(header), "\n") {
		// Continuation lines of multi-line headers (gpgsig) start with a space.
		if line == "" || line[0] == ' ' {
			continue
		}
		name, value, _ := strings.Cut(line, " ")
		switch name {
		case "parent":
			rec.Parents = append(rec.Parents, value)
		case "author":
			sig, err := parseSignature(value)
			if err != nil {
				return CommitRecord{}, fmt.Errorf("commit %s: author: %w", id, err)
			}
			rec.Author = sig
		case "committer":
			sig, err := parseSignature(value)
			if err != nil {
				return CommitRecord{}, fmt.Errorf("commit %s: committer: %w", id, err)
			}
			rec.Committer = sig
		}
	}

	rec.ChangeID = changeIDFor(id, raw)
	rec.Description = string(message)
	return rec, nil
}

// parseSignature parses "Name <email> 1700000000 +0100".
func parseSignature(s string) (Signature, error) {
	open := strings.LastIndexByte(s, '<')
	closing := strings.LastIndexByte(s, '>')
	if open < 0 || closing < open {
		return Signature{}, fmt.Errorf("malformed signature %q", s)
	}

	sig := Signature{
		Name:  strings.TrimSpace(s[:open]),
		Email: s[open+1 : closing],
	}

	fields := strings.Fields(s[closing+1:])
	if len(fields) == 0 {
		return sig, nil
	}
	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("malformed timestamp in %q: %w", s, err)
	}
	loc := time.UTC
	if len(fields) > 1 {
		if offset, ok := parseTZOffset(fields[1]); ok {
			loc = time.FixedZone("", offset)
		}
	}
	sig.When = time.Unix(secs, 0).In(loc)
	return sig, nil
}

// parseTZOffset parses "+0130" into seconds east of UTC.
func parseTZOffset(s string) (int, bool) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	hh, err1 := strconv.Atoi(s[1:3])
	mm, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	offset := hh*3600 + mm*60
	if s[0] == '-' {
		offset = -offset
	}
	return offset, true
}
