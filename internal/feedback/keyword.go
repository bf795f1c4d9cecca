// internal/feedback/keyword.go
package feedback

import (
	"context"
	"fmt"
	"strings"
)

// KeywordAnalyzer is a simple in-process generator used when no external
// feedback service is configured. It looks for subject-specific vocabulary
// in the reflection and encourages the learner accordingly.
type KeywordAnalyzer struct{}

var _ Generator = KeywordAnalyzer{}

var subjectKeywords = map[string][]string{
	"science":   {"observe", "experiment", "hypothesis", "data", "results"},
	"physics":   {"energy", "motion", "force", "velocity", "acceleration"},
	"biology":   {"cell", "organism", "ecosystem", "evolution", "dna"},
	"chemistry": {"element", "compound", "reaction", "molecule", "atom"},
}

func (KeywordAnalyzer) Generate(ctx context.Context, reflection string, tags []string) (string, error) {
	text := strings.ToLower(reflection)

	var found []string
	for _, tag := range tags {
		for _, kw := range subjectKeywords[strings.ToLower(tag)] {
			if strings.Contains(text, kw) {
				found = append(found, kw)
			}
		}
	}

	if len(found) > 0 {
		if len(found) > 3 {
			found = found[:3]
		}
		return fmt.Sprintf("Great work! You used relevant concepts like: %s. Keep exploring!",
			strings.Join(found, ", ")), nil
	}
	return "Good reflection! Consider connecting your observations to specific scientific concepts in your next submission.", nil
}
