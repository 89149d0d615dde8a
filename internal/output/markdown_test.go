package output

import (
	"strings"
	"testing"
)

func TestMarkdownCommitWriter_Write(t *testing.T) {
	got := writeReport(t, func(o OutputOptions) error { return (&MarkdownCommitWriter{}).Write(sampleCommitReport(), o) })

	for _, want := range []string{
		"# Revision Log\n",
		"**Revset:** `::@`",
		"| 1 @ | **kx**qpwmvz | **3**e5f1a2b | Test User &lt;test@example.com&gt; | 2026-02-10 09:30:00 | add \\| parser |",
		"| 2 | **z**zyyxxww | **a0b1c2d3e** | Other | 2026-02-10 08:30:00 | (no description set) |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestMarkdownConfigWriter_Write(t *testing.T) {
	got := writeReport(t, func(o OutputOptions) error { return (&MarkdownConfigWriter{}).Write(sampleConfigReport(), o) })

	for _, want := range []string{
		"# Effective Configuration",
		"| `jjlog.chain-limit` | `25` | repo /test/repo/.jj/repo/config.toml |",
		"| `user.email` | `\"me@example.com\"` | env |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
