package earnings

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Mentions is the structured record of meal and service names a worker
// referenced for a shift. Upstream interpretation produces it; the engine
// only reads the two lists. Any other keys in the payload are ignored.
//
// Parsers that emit a single list put everything under "services", meals
// included, so meal matching reads both lists (see Names).
type Mentions struct {
	Meals    []string `json:"meals,omitempty"`
	Services []string `json:"services,omitempty"`
}

// Names returns every mentioned name, meals first.
func (m Mentions) Names() []string {
	names := make([]string, 0, len(m.Meals)+len(m.Services))
	names = append(names, m.Meals...)
	return append(names, m.Services...)
}

// DecodeMentions parses a stored mentions payload. An empty payload is valid
// and yields no mentions.
func DecodeMentions(raw string) (Mentions, error) {
	var m Mentions
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Mentions{}, fmt.Errorf("%w: %v", ErrMalformedMentions, err)
	}
	return m, nil
}

// EncodeMentions renders mentions in the stored payload format.
func EncodeMentions(m Mentions) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// mentionMatches reports whether a catalog name and a free-text mention
// refer to each other: either one, case-folded, contains the other.
// Short or overlapping names can produce false positives.
func mentionMatches(catalogName string, mentions []string) bool {
	name := strings.ToLower(strings.TrimSpace(catalogName))
	if name == "" {
		return false
	}
	for _, m := range mentions {
		mention := strings.ToLower(strings.TrimSpace(m))
		if mention == "" {
			continue
		}
		if strings.Contains(mention, name) || strings.Contains(name, mention) {
			return true
		}
	}
	return false
}
