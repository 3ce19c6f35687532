// Package generate drafts marketing copy with a hosted language model and
// keeps a history of the results.
package generate

import (
	"fmt"
	"strings"
)

// ContentType selects the system prompt.
type ContentType string

const (
	Caption     ContentType = "caption"
	Script      ContentType = "script"
	Blog        ContentType = "blog"
	AdCopy      ContentType = "ad_copy"
	Email       ContentType = "email"
	Description ContentType = "description"
)

// MaxVariations caps how many numbered alternatives one request may ask for.
const MaxVariations = 5

var systemPrompts = map[ContentType]string{
	Caption:     "You are a social media specialist. Write creative, engaging captions for Instagram and Facebook with relevant emojis.",
	Script:      "You are a scriptwriter for short videos. Write dynamic scripts with an opening hook, a body and a call to action.",
	Blog:        "You are an experienced copywriter. Write complete, SEO-friendly blog posts with an introduction, a body and a conclusion.",
	AdCopy:      "You are a copywriter for digital ads. Write persuasive copy with a strong headline, clear benefits and an irresistible call to action.",
	Email:       "You are an email marketing specialist. Write emails with an attractive subject line, an engaging body and a clear call to action.",
	Description: "You are a product and service description specialist. Write detailed, persuasive descriptions that highlight what sets the offer apart.",
}

// Valid reports whether t has a system prompt.
func (t ContentType) Valid() bool {
	_, ok := systemPrompts[t]
	return ok
}

// ContentTypes lists the supported types in a stable order.
func ContentTypes() []ContentType {
	return []ContentType{Caption, Script, Blog, AdCopy, Email, Description}
}

// ClampVariations bounds n to 1..MaxVariations.
func ClampVariations(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxVariations {
		return MaxVariations
	}
	return n
}

// SystemPrompt combines the content-type prompt with the optional tone and
// variations directives.
func SystemPrompt(t ContentType, tone string, variations int) string {
	var b strings.Builder
	b.WriteString(systemPrompts[t])
	if tone = strings.TrimSpace(tone); tone != "" {
		fmt.Fprintf(&b, "\n\nTone of voice: %s", tone)
	}
	if n := ClampVariations(variations); n > 1 {
		fmt.Fprintf(&b, "\n\nProduce %d numbered variations (1., 2., etc.), each with a different approach.", n)
	}
	return b.String()
}
