package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string, number or bool as text. null decodes to "".
// Model output is loosely typed and fields like dates often arrive as numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// String returns the decoded text
func (f FlexString) String() string { return string(f) }

// Candidate is a raw event record returned by the search step.
// Only Title is required downstream; everything else is optional.
type Candidate struct {
	Title       FlexString      `json:"title"`
	Description FlexString      `json:"description"`
	DateTime    FlexString      `json:"date_time"`
	Date        FlexString      `json:"date"`
	Location    FlexString      `json:"location"`
	URL         FlexString      `json:"url"`
	Organizer   FlexString      `json:"organizer"`
	Price       json.RawMessage `json:"price,omitempty"`

	Classification *Classification `json:"-"`
}

// When returns date_time, falling back to date
func (c *Candidate) When() string {
	if s := strings.TrimSpace(c.DateTime.String()); s != "" {
		return s
	}
	return strings.TrimSpace(c.Date.String())
}

// Signature is the deduplication key: lowercased trimmed title plus raw date
func (c *Candidate) Signature() string {
	return strings.ToLower(strings.TrimSpace(c.Title.String())) + "_" + c.DateTime.String()
}

// PriceValue interprets the loosely typed price field. Numbers pass through;
// strings like "$25" or "25.00 USD" yield their leading number; anything
// else, including "Free", yields 0.
func (c *Candidate) PriceValue() float64 {
	raw := bytes.TrimSpace(c.Price)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return nonNegative(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	return parseLeadingNumber(s)
}

func parseLeadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == ',') {
		end++
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s[start:end], ",", ""), 64)
	if err != nil {
		return 0
	}
	return nonNegative(n)
}

func nonNegative(n float64) float64 {
	if n < 0 {
		return 0
	}
	return n
}

// Classification is the model's structured judgement about a candidate
type Classification struct {
	AIRelevanceScore int       `json:"ai_relevance_score"`
	Category         Category  `json:"category"`
	Tags             []string  `json:"tags"`
	EventType        EventType `json:"event_type"`
	Reasoning        string    `json:"reasoning"`
}

// FallbackClassification is returned when the model reply cannot be parsed
func FallbackClassification() *Classification {
	return &Classification{
		AIRelevanceScore: 5,
		Category:         CategoryOther,
		Tags:             []string{},
		EventType:        EventTypeUnknown,
		Reasoning:        "Classification parsing failed",
	}
}

// Normalize clamps the score and coerces category and event type into their sets
func (c *Classification) Normalize() {
	if c.AIRelevanceScore < 1 {
		c.AIRelevanceScore = 1
	}
	if c.AIRelevanceScore > 10 {
		c.AIRelevanceScore = 10
	}
	c.Category = NormalizeCategory(string(c.Category))
	c.EventType = NormalizeEventType(string(c.EventType))
	if c.Tags == nil {
		c.Tags = []string{}
	}
}
