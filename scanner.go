package lazyload

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// TagMatch is one occurrence of a candidate tag inside a content string.
type TagMatch struct {
	// Name is the lower-case tag name, e.g. "img".
	Name string

	// HTML is the full matched markup from "<" to ">".
	HTML string

	// Start and End are byte offsets of HTML within the scanned content.
	Start, End int

	// AttachmentID is taken from a "wp-image-<id>" class token on img
	// tags. Zero means no known attachment.
	AttachmentID int

	attrs map[string]string
}

// Attr returns the value of the named attribute on the matched tag and
// whether it is declared at all.
func (m TagMatch) Attr(key string) (string, bool) {
	v, ok := m.attrs[strings.ToLower(key)]
	return v, ok
}

// patterns memoises one compiled expression per distinct tag-name set.
var patterns sync.Map

// attachmentClass matches the class token written by the media library.
var attachmentClass = regexp.MustCompile(`(?i)^wp-image-([0-9]+)`)

// Scan returns every occurrence of the given tag names in content, in
// document order. A tag matches from "<name" followed by whitespace up to
// the next ">", so both "/>" and ">" endings are accepted. Content that
// contains no "<name" for any of the names is rejected before any regular
// expression runs.
//
// Scan assumes well-formed markup: a ">" inside a quoted attribute value
// ends the match early.
func Scan(content string, tags []string) []TagMatch {
	present := presentTags(content, tags)
	if len(present) == 0 {
		return nil
	}

	re := tagPattern(present)
	idx := re.FindAllStringSubmatchIndex(content, -1)
	if len(idx) == 0 {
		return nil
	}

	matches := make([]TagMatch, 0, len(idx))
	for _, loc := range idx {
		m := TagMatch{
			Name:  content[loc[2]:loc[3]],
			HTML:  content[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		}
		m.attrs = tagAttrs(m.HTML)
		if m.Name == "img" {
			m.AttachmentID = attachmentID(m.attrs["class"])
		}
		matches = append(matches, m)
	}
	return matches
}

// presentTags keeps the names that occur as "<name" in content.
func presentTags(content string, tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if strings.Contains(content, "<"+t) {
			out = append(out, t)
		}
	}
	return out
}

func tagPattern(tags []string) *regexp.Regexp {
	key := strings.Join(tags, "|")
	if re, ok := patterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re := regexp.MustCompile(`<(` + strings.Join(quoted, "|") + `)\s[^>]+>`)
	actual, _ := patterns.LoadOrStore(key, re)
	return actual.(*regexp.Regexp)
}

// tagAttrs reads the attributes of a single start tag with the HTML
// tokenizer. Keys are lower-cased and the first declaration of a key wins,
// as it does in browsers. Markup the tokenizer cannot read yields nil.
func tagAttrs(tagHTML string) map[string]string {
	z := html.NewTokenizer(strings.NewReader(tagHTML))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			attrs := make(map[string]string)
			_, more := z.TagName()
			for more {
				var key, val []byte
				key, val, more = z.TagAttr()
				k := string(key)
				if _, dup := attrs[k]; !dup {
					attrs[k] = string(val)
				}
			}
			return attrs
		}
	}
}

// attachmentID extracts the id from the first "wp-image-<digits>" class
// token, or returns 0.
func attachmentID(class string) int {
	for _, token := range strings.Fields(class) {
		sub := attachmentClass.FindStringSubmatch(token)
		if sub == nil {
			continue
		}
		id, err := strconv.Atoi(sub[1])
		if err != nil || id <= 0 {
			continue
		}
		return id
	}
	return 0
}

// hasClass reports whether class contains any token of set. Keys of set
// are lower-case.
func hasClass(class string, set map[string]bool) bool {
	if len(set) == 0 || class == "" {
		return false
	}
	for _, c := range strings.Fields(class) {
		if set[strings.ToLower(c)] {
			return true
		}
	}
	return false
}

// skipReason explains why a match must be left untouched, or returns "".
func skipReason(m TagMatch, skipClasses map[string]bool) string {
	if _, ok := m.attrs["loading"]; ok {
		return "loading"
	}
	if hasClass(m.attrs["class"], skipClasses) {
		return "opt-out"
	}
	return ""
}
