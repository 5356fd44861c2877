package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/amishk599/internfeed/internal/model"
)

// maxRequirements caps how many requirement bullets a message shows.
const maxRequirements = 3

// displayName title-cases a company or source name without lowering the rest,
// so "acme" becomes "Acme" and "IBM" stays "IBM".
func displayName(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

// FormatHTML renders rec as a Telegram HTML message.
func FormatHTML(rec model.Record) string {
	e := html.EscapeString
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 <b>%s</b>\n\n", e(rec.Title))
	fmt.Fprintf(&b, "🏢 <b>Company:</b> %s\n", e(displayName(rec.Company)))
	fmt.Fprintf(&b, "📍 <b>Location:</b> %s\n", e(rec.Location))
	fmt.Fprintf(&b, "🎓 <b>Field:</b> %s\n", e(rec.Field))
	fmt.Fprintf(&b, "🕒 <b>Duration:</b> %s\n", e(rec.Duration))
	fmt.Fprintf(&b, "💰 <b>Stipend:</b> %s\n\n", e(rec.Stipend))
	b.WriteString("🛠 <b>Requirements:</b>\n")
	for _, r := range requirementLines(rec.Requirements) {
		fmt.Fprintf(&b, "• %s\n", e(r))
	}
	fmt.Fprintf(&b, "\n🗓 <b>Deadline:</b> %s\n", e(rec.Deadline))
	fmt.Fprintf(&b, "🗞 <b>Posted:</b> %s\n\n", e(postedText(rec.PostedAt)))
	if rec.Link != "" {
		fmt.Fprintf(&b, "🔗 <a href=\"%s\"><b>Apply Here</b></a>\n\n", e(rec.Link))
	}
	b.WriteString(strings.Join(hashtags(rec), " "))
	return b.String()
}

func requirementLines(reqs []string) []string {
	if len(reqs) == 0 {
		return []string{"Relevant Skills"}
	}
	if len(reqs) > maxRequirements {
		return reqs[:maxRequirements]
	}
	return reqs
}

func postedText(t *time.Time) string {
	if t == nil {
		return "Recently"
	}
	return t.UTC().Format("Jan 2, 2006")
}

// hashtags builds the channel tags. Telegram hashtags only take letters and
// digits, so "Data Science & AI" becomes #DataScienceAI.
func hashtags(rec model.Record) []string {
	tags := []string{"#Internship", "#STEM"}
	for _, s := range []string{rec.Country, rec.Field} {
		if t := hashtag(s); t != "" {
			tags = append(tags, "#"+t)
		}
	}
	return tags
}

func hashtag(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
