package notifier

import (
	"strings"
	"testing"

	"github.com/amishk599/internfeed/internal/model"
)

func TestFormatHTML(t *testing.T) {
	msg := FormatHTML(sampleRecord())

	wants := []string{
		"🚀 <b>Data &lt;Science&gt; Intern</b>",
		"<b>Company:</b> Acme Corp",
		"<b>Field:</b> Data Science &amp; AI",
		"• Python\n• SQL\n• Pandas\n",
		"<b>Posted:</b> Mar 14, 2026",
		`<a href="https://example.com/apply?id=1&amp;src=feed">`,
		"#Internship #STEM #Germany #DataScienceAI",
	}
	for _, w := range wants {
		if !strings.Contains(msg, w) {
			t.Errorf("message missing %q\n%s", w, msg)
		}
	}
	if strings.Contains(msg, "Spark") {
		t.Error("requirements should be capped at 3")
	}
}

func TestFormatHTML_SparseRecord(t *testing.T) {
	msg := FormatHTML(model.Record{Title: "Intern", Country: model.CountryUnknown, Field: model.FieldOther})

	if !strings.Contains(msg, "• Relevant Skills") {
		t.Error("empty requirements should render a placeholder")
	}
	if !strings.Contains(msg, "<b>Posted:</b> Recently") {
		t.Error("unknown date should render as Recently")
	}
	if strings.Contains(msg, "Apply Here") {
		t.Error("no link should mean no apply anchor")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"acme corp": "Acme Corp",
		"IBM":       "IBM",
		"":          "",
	}
	for in, want := range tests {
		if got := displayName(in); got != want {
			t.Errorf("displayName(%q) = %q, want %q", in, got, want)
		}
	}
}
