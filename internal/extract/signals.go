package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	missionMaxLen  = 500
	aboutMaxLen    = 1000
	serviceMaxLen  = 100
	maxServices    = 10
	maxPhones      = 3
	maxEmails      = 5
	maxSnippetScan = 2000 // skip block elements bigger than this when hunting mission text
)

var missionMarkers = []string{"our mission", "mission statement", "our purpose", "we believe"}

// missionStatement finds the smallest block element containing a mission
// marker phrase and returns its leading text.
func missionStatement(doc *goquery.Document, pageText string) string {
	marker := ""
	for _, m := range missionMarkers {
		if strings.Contains(pageText, m) {
			marker = m
			break
		}
	}
	if marker == "" {
		return ""
	}

	best := ""
	doc.Find("p, div, section").Each(func(_ int, sel *goquery.Selection) {
		text := flatText(sel)
		if !strings.Contains(strings.ToLower(text), marker) {
			return
		}
		if best == "" || len(text) < len(best) {
			best = text
		}
	})

	return truncate(best, missionMaxLen)
}

var aboutAttr = regexp.MustCompile(`(?i)about`)

// aboutText pulls flattened text from the first element whose id or class
// mentions "about".
func aboutText(doc *goquery.Document) string {
	var text string
	doc.Find("div, section").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		id, _ := sel.Attr("id")
		class, _ := sel.Attr("class")
		if aboutAttr.MatchString(id) || aboutAttr.MatchString(class) {
			text = flatText(sel)
			return false
		}
		return true
	})
	return truncate(text, aboutMaxLen)
}

var servicePhrases = []string{"services", "programs", "what we do"}

// services collects list/paragraph items from the block element nearest a
// services/programs heading.
func services(doc *goquery.Document) []string {
	var items []string

	doc.Find("div, section, ul").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.ToLower(flatText(sel))
		if len(text) > maxSnippetScan {
			return true
		}
		matched := false
		for _, phrase := range servicePhrases {
			if strings.Contains(text, phrase) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}

		sel.Find("li, p").EachWithBreak(func(_ int, child *goquery.Selection) bool {
			item := truncate(flatText(child), serviceMaxLen)
			if item != "" {
				items = append(items, item)
			}
			return len(items) < maxServices
		})
		return len(items) == 0 // keep looking if the match had no children
	})

	return items
}

var (
	phoneRe   = regexp.MustCompile(`[\+\(]?[1-9][0-9 .\-\(\)]{8,}[0-9]`)
	emailRe   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	addressRe = regexp.MustCompile(`(?i)\d{1,5}\s+[\w\s]+(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|way|court|ct)\b`)
)

// systemEmailMarkers identify machine-generated addresses filtered from
// contact extraction.
var systemEmailMarkers = []string{"noreply", "no-reply", "donotreply", "example.com"}

func scanPhones(markup string) []string {
	return dedupe(phoneRe.FindAllString(markup, -1), maxPhones)
}

func scanEmails(markup string) []string {
	var valid []string
	for _, email := range emailRe.FindAllString(markup, -1) {
		lower := strings.ToLower(email)
		system := false
		for _, marker := range systemEmailMarkers {
			if strings.Contains(lower, marker) {
				system = true
				break
			}
		}
		if !system {
			valid = append(valid, email)
		}
	}
	return dedupe(valid, maxEmails)
}

func scanAddress(markup string) string {
	return strings.TrimSpace(addressRe.FindString(markup))
}

// socialPatterns hold one expression per platform; the first match wins.
var socialPatterns = map[string]*regexp.Regexp{
	"facebook":  regexp.MustCompile(`(?i)(?:https?:)?//(?:www\.)?facebook\.com/[\w\-.]+`),
	"twitter":   regexp.MustCompile(`(?i)(?:https?:)?//(?:www\.)?twitter\.com/[\w\-.]+`),
	"linkedin":  regexp.MustCompile(`(?i)(?:https?:)?//(?:www\.)?linkedin\.com/(?:company|in)/[\w\-.]+`),
	"instagram": regexp.MustCompile(`(?i)(?:https?:)?//(?:www\.)?instagram\.com/[\w\-.]+`),
	"youtube":   regexp.MustCompile(`(?i)(?:https?:)?//(?:www\.)?youtube\.com/(?:c|channel|user)/[\w\-.]+`),
}

func scanSocialLinks(markup string) map[string]string {
	links := make(map[string]string)
	for platform, re := range socialPatterns {
		if m := re.FindString(markup); m != "" {
			links[platform] = m
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

// nonprofitKeywords is the fixed indicator list scanned against page text.
var nonprofitKeywords = []string{
	"501(c)(3)", "501c3", "tax-exempt", "tax deductible",
	"nonprofit", "non-profit", "not-for-profit", "charitable",
	"donate", "donation", "give now", "support us",
	"volunteer", "foundation", "charity",
}

// nonprofitIndicators records every present keyword, not just the first.
func nonprofitIndicators(pageText string) []string {
	var found []string
	for _, kw := range nonprofitKeywords {
		if strings.Contains(pageText, kw) {
			found = append(found, kw)
		}
	}
	return found
}

var donationHref = regexp.MustCompile(`(?i)donate|giving|support|contribution`)

// donationLink reports whether any outbound link looks like a donation
// page, returning the first matching href.
func donationLink(doc *goquery.Document) (bool, string) {
	found := false
	first := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if donationHref.MatchString(href) {
			found = true
			first = href
			return false
		}
		return true
	})
	return found, first
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		return s[:max]
	}
	return s
}

func dedupe(values []string, max int) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}
