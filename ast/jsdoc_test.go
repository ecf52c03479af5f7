package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJSDocSplitsDescriptionAndTags(t *testing.T) {
	doc := ParseJSDoc(`A widget that does things.
@demo demo/index.html Basic usage
@param {string} name the widget's name
@returns {boolean} whether it worked`)

	assert.Equal(t, "A widget that does things.", doc.Description)
	assert.Equal(t, "A widget that does things.", doc.Summary)

	demos := doc.Demos()
	assert.Len(t, demos, 1)
	assert.Equal(t, "demo/index.html", demos[0].Path)
	assert.Equal(t, "Basic usage", demos[0].Description)

	params := doc.Params()
	assert.Len(t, params, 1)
	assert.Equal(t, "name", params[0].Name)
	assert.Equal(t, "string", params[0].Type)

	ret, ok := doc.ReturnTag()
	assert.True(t, ok)
	assert.Equal(t, "boolean", ret.Type)
}

func TestHasTagOnNilReceiverIsFalse(t *testing.T) {
	var doc *JSDoc
	assert.False(t, doc.HasTag("public"))
}

func TestExplicitSummaryTagOverridesFirstDescriptionLine(t *testing.T) {
	doc := ParseJSDoc(`First line of description.
@summary A better summary.`)
	assert.Equal(t, "A better summary.", doc.Summary)
}
