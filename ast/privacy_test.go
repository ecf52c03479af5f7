package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferPrivacyPrefersExplicitJSDocTag(t *testing.T) {
	doc := &JSDoc{Tags: []JSDocTag{{Name: "private"}}}
	assert.Equal(t, PrivacyPrivate, InferPrivacy("whatever", doc, false))
}

func TestInferPrivacyFallsBackToUnderscoreConvention(t *testing.T) {
	assert.Equal(t, PrivacyPrivate, InferPrivacy("__internal", nil, false))
	assert.Equal(t, PrivacyProtected, InferPrivacy("_protected", nil, false))
	assert.Equal(t, PrivacyPublic, InferPrivacy("plain", nil, false))
	assert.Equal(t, PrivacyPrivate, InferPrivacy("plain", nil, true))
}

func TestPropertyAttributeNameRoundTrip(t *testing.T) {
	cases := []string{"myProperty", "isOpen", "x", "multiWordName"}
	for _, prop := range cases {
		attr, ok := PropertyNameToAttributeName(prop)
		if !ok {
			t.Fatalf("expected %q to convert", prop)
		}
		assert.Equal(t, prop, AttributeNameToPropertyName(attr), "round-tripping %q through attribute form must recover the original", prop)
	}
}

func TestPropertyNameToAttributeNameRejectsUpperCaseLeadingLetter(t *testing.T) {
	_, ok := PropertyNameToAttributeName("MyProperty")
	assert.False(t, ok)
}

func TestWarningIsAnError(t *testing.T) {
	var err error = Warning{Kind: WarningUnableToLoad, Message: "boom"}
	assert.EqualError(t, err, "boom")
}
