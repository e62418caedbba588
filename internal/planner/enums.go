package planner

// MapType tells whether a topical map is a raw draft or a processed map
type MapType string

// Topical map types
const (
	MapRaw       MapType = "raw"
	MapProcessed MapType = "processed"
)

// Valid reports whether t is a known map type
func (t MapType) Valid() bool {
	return t == MapRaw || t == MapProcessed
}

// EntityType places an entity relative to the central entity
type EntityType string

// Entity types
const (
	EntityCentral EntityType = "central"
	EntityDerived EntityType = "derived"
	EntitySibling EntityType = "sibling"
)

// Valid reports whether t is a known entity type
func (t EntityType) Valid() bool {
	switch t {
	case EntityCentral, EntityDerived, EntitySibling:
		return true
	}
	return false
}

// Classification of an attribute. The zero value means unclassified.
type Classification string

// Attribute classifications
const (
	ClassUnique Classification = "unique"
	ClassRoot   Classification = "root"
	ClassRarer  Classification = "rarer"
)

// Valid reports whether c is empty or a known classification
func (c Classification) Valid() bool {
	switch c {
	case "", ClassUnique, ClassRoot, ClassRarer:
		return true
	}
	return false
}

// Section is the part of the topical map an attribute belongs to
type Section string

// Topical map sections
const (
	SectionCore  Section = "core"
	SectionOuter Section = "outer"
)

// Valid reports whether s is a known section
func (s Section) Valid() bool {
	return s == SectionCore || s == SectionOuter
}

// HeadingLevel of a brief section
type HeadingLevel string

// Heading levels
const (
	H2 HeadingLevel = "H2"
	H3 HeadingLevel = "H3"
	H4 HeadingLevel = "H4"
	H5 HeadingLevel = "H5"
)

// Valid reports whether l is H2 through H5
func (l HeadingLevel) Valid() bool {
	switch l {
	case H2, H3, H4, H5:
		return true
	}
	return false
}

// Depth returns the numeric heading depth (2 for H2)
func (l HeadingLevel) Depth() int {
	switch l {
	case H2:
		return 2
	case H3:
		return 3
	case H4:
		return 4
	case H5:
		return 5
	}
	return 0
}

// QuestionType is the kind of question a section answers
type QuestionType string

// Question types
const (
	QuestionBoolean      QuestionType = "boolean"      // yes/no answers
	QuestionDefinitional QuestionType = "definitional" // "what is..."
	QuestionGrouping     QuestionType = "grouping"     // "types of..."
	QuestionComparative  QuestionType = "comparative"  // "best...", "vs..."
	QuestionNone         QuestionType = "none"
)

// Valid reports whether q is empty or a known question type
func (q QuestionType) Valid() bool {
	switch q {
	case "", QuestionBoolean, QuestionDefinitional, QuestionGrouping, QuestionComparative, QuestionNone:
		return true
	}
	return false
}

// FormatInstruction tells the writer how to shape a section
type FormatInstruction string

// Format instructions
const (
	FormatFeaturedSnippet FormatInstruction = "FS"  // under 40 words
	FormatPAA             FormatInstruction = "PAA" // single definitive sentence
	FormatListing         FormatInstruction = "listing"
	FormatLongForm        FormatInstruction = "long_form"
	FormatTable           FormatInstruction = "table"
)

// Valid reports whether f is empty or a known format instruction
func (f FormatInstruction) Valid() bool {
	switch f {
	case "", FormatFeaturedSnippet, FormatPAA, FormatListing, FormatLongForm, FormatTable:
		return true
	}
	return false
}

// Confidence is the discovery adapter's self-assessed reliability
type Confidence string

// Confidence levels
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence maps free text to a confidence level.
// Empty input is medium; anything unrecognized is low.
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case "":
		return ConfidenceMedium
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(s)
	}
	return ConfidenceLow
}
