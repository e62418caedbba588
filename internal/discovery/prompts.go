package discovery

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/masahif/seoplanner/internal/planner"
)

// SystemPrompt instructs the model to extract the four framework elements
const SystemPrompt = `You are an expert in Semantic SEO and Topical Authority.
Your job is to analyze business information and extract the key semantic elements that will be used
to build a comprehensive Topical Authority strategy.

You need to identify:

1. **Source Context**: The intersection of "who they are," "what their brand identity is," and
   "how they make money." This defines the "lens" through which they cover their topic.

2. **Central Entity**: The main subject matter that will appear site-wide. This is the core
   concept that defines their expertise area.

3. **Central Search Intent**: The unification of Source Context + Central Entity. This represents
   what users ultimately want when they search for topics in this space. Think about the
   predicates (verbs/actions) users associate with the entity.

4. **Functional Words**: The key verbs and actions that connect users to the entity. These are
   words like "buy," "learn," "find," "compare," "get," etc. that indicate what users want to DO.

IMPORTANT RULES:
- The Central Entity should be a broad enough concept to support a full content network
- The Source Context should clearly explain their monetization angle
- Functional Words should be action verbs that represent user intent
- Be specific but not too narrow - they need room to build topical authority

Respond with a JSON object in this exact format:
{
    "source_context": "Who they are and how they make money (2-3 sentences)",
    "central_entity": "Main subject/topic (1-3 words)",
    "central_search_intent": "What users want when searching for this topic (1-2 sentences)",
    "functional_words": ["verb1", "verb2", "verb3", "verb4", "verb5"],
    "explanation": "Plain English explanation of why these were chosen (3-4 sentences for a beginner)",
    "confidence": "high/medium/low - based on how much info was provided"
}`

var userPrompt = template.Must(template.New("user").Parse(`Please analyze this business and generate the Semantic SEO framework parameters.

## Business Information Provided:

**Business Name:** {{.BusinessName}}

**Business Description:**
{{.BusinessDescription}}

**Products/Services:**
{{.ProductsServices}}

**Target Customers:**
{{.TargetCustomers}}

**How They Make Money:**
{{.Monetization}}

**Website URL (if provided):** {{.WebsiteURL}}

**Additional Context:**
{{.AdditionalContext}}

---

Now generate the Semantic SEO framework elements (Source Context, Central Entity,
Central Search Intent, and Functional Words) based on this information.

Remember to explain your reasoning in plain English for someone new to SEO.`))

const (
	notProvided = "Not provided"
	none        = "None"
)

// UserPrompt renders the business information, filling blanks with placeholders
func UserPrompt(info planner.BusinessInfo) (string, error) {
	or := func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	}
	filled := planner.BusinessInfo{
		BusinessName:        or(info.BusinessName, notProvided),
		BusinessDescription: or(info.BusinessDescription, notProvided),
		ProductsServices:    or(info.ProductsServices, notProvided),
		TargetCustomers:     or(info.TargetCustomers, notProvided),
		Monetization:        or(info.Monetization, notProvided),
		WebsiteURL:          or(info.WebsiteURL, notProvided),
		AdditionalContext:   or(info.AdditionalContext, none),
	}

	var buf bytes.Buffer
	if err := userPrompt.Execute(&buf, filled); err != nil {
		return "", err
	}
	return buf.String(), nil
}
