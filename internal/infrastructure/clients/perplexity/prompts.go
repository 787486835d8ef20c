package perplexity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

const searchSystemPrompt = "You are an AI event researcher. Search for and extract structured event information. Return only valid JSON arrays."

const classifySystemPrompt = `You are an AI event classifier. Analyze the provided event data and return a JSON response with:
1. ai_relevance_score: Integer 1-10 (1=not AI related, 10=highly AI focused)
2. category: One of ["Conference", "Workshop", "Networking", "Talk", "Hackathon", "Other"]
3. tags: Array of relevant tags like ["beginner-friendly", "technical", "startup", "research"]
4. event_type: "online", "in-person", or "hybrid"
5. reasoning: Brief explanation of the scoring

Only respond with valid JSON.`

// searchQueries returns the fixed topic-diversified queries for one search
func searchQueries(location, dateRange string) []string {
	return []string{
		fmt.Sprintf("AI events %s %s", location, dateRange),
		fmt.Sprintf("artificial intelligence conferences %s", location),
		fmt.Sprintf("machine learning workshops %s", location),
		fmt.Sprintf("AI startup events %s", location),
		fmt.Sprintf("tech AI meetups %s", location),
		fmt.Sprintf("deep learning talks %s", location),
		fmt.Sprintf("AI networking events %s", location),
		fmt.Sprintf("generative AI events %s", location),
	}
}

func buildSearchUserPrompt(query string, platform entities.Platform, dateRange string) string {
	return fmt.Sprintf(`Search for AI-related events on %s.com with the following criteria: %s

For each event found, extract and return the following information as a JSON object with these fields:
- title
- description (if available)
- date_time (ISO 8601 date and time)
- location (or "Online" if virtual)
- url
- organizer
- price (if mentioned)

Focus on events happening %s. Return the information as a JSON array.`, platform, query, dateRange)
}

func buildClassifyUserPrompt(c *entities.Candidate) string {
	return fmt.Sprintf(`Event Details:
Title: %s
Description: %s
Organizer: %s
Location: %s

Please analyze this event and classify it according to its AI relevance and characteristics.`,
		c.Title, c.Description, c.Organizer, c.Location)
}

// stripCodeFence removes a surrounding Markdown code block if present
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 && !strings.ContainsAny(cleaned[:nl], "[{") {
		cleaned = cleaned[nl+1:]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// parseCandidates decodes a search reply. A single object is treated as a
// one-element array. When the reply carries prose around the JSON the outermost
// array is tried before giving up.
func parseCandidates(content string) ([]*entities.Candidate, error) {
	cleaned := []byte(stripCodeFence(content))

	candidates, err := decodeCandidates(cleaned)
	if err == nil {
		return candidates, nil
	}

	start := bytes.IndexByte(cleaned, '[')
	end := bytes.LastIndexByte(cleaned, ']')
	if start >= 0 && end > start {
		if inner, innerErr := decodeCandidates(cleaned[start : end+1]); innerErr == nil {
			return inner, nil
		}
	}
	return nil, fmt.Errorf("failed to parse search results: %w", err)
}

func decodeCandidates(data []byte) ([]*entities.Candidate, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty content")
	}

	switch data[0] {
	case '[':
		var list []*entities.Candidate
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		out := list[:0]
		for _, c := range list {
			if c != nil {
				out = append(out, c)
			}
		}
		return out, nil
	case '{':
		var single entities.Candidate
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, err
		}
		return []*entities.Candidate{&single}, nil
	default:
		return nil, fmt.Errorf("content is not a JSON array or object")
	}
}

// parseClassification decodes a classification reply and normalizes it
func parseClassification(content string) (*entities.Classification, error) {
	var classification entities.Classification
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &classification); err != nil {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}
	classification.Normalize()
	return &classification, nil
}
