// Package sanitize rewrites raw page HTML for safe embedded display:
// executable content is stripped, hyperlinks are annotated for client-side
// interception, and the result is wrapped in a styled container.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// WrapperClass is the container class the client styles against
const WrapperClass = "external-content bg-gray-950 shadow-lg rounded-lg"

// LinkClass marks hyperlinks so the client can intercept external navigation
const LinkClass = "external-link"

// Pre-compiled to avoid ReDoS with runtime compilation
var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	p.AllowTables()
	p.AllowAttrs("class").Globally()
	return p
}

// Sanitize strips dangerous markup from raw HTML and rewrites it for
// embedding. Steps, in order: drop script/style blocks with their content,
// run the sanitizer policy, defensively remove any surviving script
// elements, tag every anchor with LinkClass, and wrap the body in a single
// container element. Malformed input degrades to an empty string rather
// than failing pin creation.
func Sanitize(rawHTML string) string {
	cleaned := scriptRe.ReplaceAllString(rawHTML, "")
	cleaned = styleRe.ReplaceAllString(cleaned, "")
	cleaned = policy.Sanitize(cleaned)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		return ""
	}

	doc.Find("script").Remove()
	doc.Find("a").AddClass(LinkClass)

	body, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div class="`)
	sb.WriteString(WrapperClass)
	sb.WriteString(`">`)
	sb.WriteString(body)
	sb.WriteString(`</div>`)
	return sb.String()
}
