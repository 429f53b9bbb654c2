package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_StripsScripts(t *testing.T) {
	raw := `<html><body>
		<p>Readable text</p>
		<script>document.cookie = "stolen"</script>
		<script src="https://evil.example/x.js"></script>
	</body></html>`

	out := Sanitize(raw)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "document.cookie")
	assert.Contains(t, out, "Readable text")
}

func TestSanitize_StripsEventHandlers(t *testing.T) {
	raw := `<div onclick="alert(1)" onmouseover="alert(2)">click me</div>`

	out := Sanitize(raw)

	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "onmouseover")
	assert.NotContains(t, out, "alert(1)")
	assert.Contains(t, out, "click me")
}

func TestSanitize_StripsStyleBlocks(t *testing.T) {
	raw := `<style>body { display: none; }</style><p>visible</p>`

	out := Sanitize(raw)

	assert.NotContains(t, out, "<style")
	assert.NotContains(t, out, "display: none")
	assert.Contains(t, out, "visible")
}

func TestSanitize_AnnotatesLinks(t *testing.T) {
	raw := `<p>See <a href="https://example.com/docs">the docs</a></p>`

	out := Sanitize(raw)

	assert.Contains(t, out, `href="https://example.com/docs"`)
	assert.Contains(t, out, LinkClass)
}

func TestSanitize_LinkKeepsExistingClass(t *testing.T) {
	raw := `<a href="https://example.com" class="fancy">link</a>`

	out := Sanitize(raw)

	assert.Contains(t, out, "fancy")
	assert.Contains(t, out, LinkClass)
}

func TestSanitize_WrapsInContainer(t *testing.T) {
	out := Sanitize(`<p>content</p>`)

	assert.True(t, strings.HasPrefix(out, `<div class="`+WrapperClass+`">`))
	assert.True(t, strings.HasSuffix(out, `</div>`))
}

func TestSanitize_EmptyInput(t *testing.T) {
	out := Sanitize("")

	assert.Equal(t, `<div class="`+WrapperClass+`"></div>`, out)
}

func TestSanitize_KeepsImagesAndTables(t *testing.T) {
	raw := `<img src="https://example.com/a.png" alt="pic"><table><tr><td>cell</td></tr></table>`

	out := Sanitize(raw)

	assert.Contains(t, out, "<img")
	assert.Contains(t, out, "cell")
}
