// Package research asks an LLM-backed web research provider for the missing
// contact and location details of a batch of directory records.
package research

import (
	"fmt"
	"strings"
)

// MaxBatchSize is the most records a single research call may carry.
const MaxBatchSize = 20

// Item is one record submitted for research.
type Item struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

const promptTemplate = `Find complete NAP (Name, Address, Phone) contact information for these contractors:

%s

For each contractor, search the web and provide:
- Phone number (format: +1 XXX-XXX-XXXX)
- Email address
- Website URL
- Complete physical address (street, city, state, ZIP code)
- Brief business description (1-2 sentences)
- Years in business (if available)
- License number (if publicly available)

Return ONLY a valid JSON array (no markdown, no explanations):
[{"name":"Exact Company Name","phone":"+1 555-555-5555","email":"email@example.com","website":"https://example.com","address":"123 Main St","city":"City","state":"ST","zipCode":"12345","description":"Brief description","yearsInBusiness":10,"licenseNumber":"ABC123","found":true}]

For contractors where you cannot find information, use "found": false.`

// BuildPrompt renders the research prompt for items, one numbered
// "N. Name (Category)" line each.
func BuildPrompt(items []Item) string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		line := fmt.Sprintf("%d. %s", i+1, it.Name)
		if c := strings.TrimSpace(it.Category); c != "" {
			line += " (" + c + ")"
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf(promptTemplate, strings.Join(lines, "\n"))
}

// Names returns the item names in order.
func Names(items []Item) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}
