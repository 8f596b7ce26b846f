package actions

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/streamweave/streamweave/assistant/pkg/models"
)

var (
	// fencedJSON matches a ```json fenced block and captures its body.
	fencedJSON = regexp.MustCompile("(?s)```json[ \t]*\n(.*?)```")

	// blankRuns collapses runs of three or more newlines to one blank line.
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// Parse scans assistant text for fenced JSON action blocks.
//
// Recognized blocks (valid JSON with a non-empty "action" discriminator)
// are converted to ParsedActions and removed from the returned content.
// Duplicate discriminators within one call are collapsed to the first
// occurrence. Blocks that fail to decode, or decode without a
// discriminator, are skipped silently and left in place.
//
// Parse is idempotent: running it on its own clean output yields zero
// actions and identical content.
func Parse(text string) (cleanContent string, actions []models.ParsedAction) {
	matches := fencedJSON.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return normalize(text), nil
	}

	seen := make(map[string]bool)
	var out strings.Builder
	last := 0

	for _, m := range matches {
		blockStart, blockEnd := m[0], m[1]
		body := text[m[2]:m[3]]

		descriptor, ok := decodeBlock(body)
		if !ok {
			// Malformed or undiscriminated block stays in the content.
			continue
		}

		out.WriteString(text[last:blockStart])
		last = blockEnd

		if seen[descriptor.Action] {
			log.Debug().Str("action", descriptor.Action).Msg("Duplicate action block dropped")
			continue
		}
		seen[descriptor.Action] = true

		actions = append(actions, models.ParsedAction{
			Type:    Classify(descriptor.Action),
			Data:    descriptor.Data,
			RawSpan: text[blockStart:blockEnd],
		})
	}
	out.WriteString(text[last:])

	return normalize(out.String()), actions
}

// decodeBlock strictly decodes one fenced block body. Returns ok=false
// when the body is not a JSON object or lacks the "action" discriminator.
func decodeBlock(body string) (models.ActionDescriptor, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return models.ActionDescriptor{}, false
	}

	actionRaw, present := raw["action"]
	if !present {
		return models.ActionDescriptor{}, false
	}
	var action string
	if err := json.Unmarshal(actionRaw, &action); err != nil || action == "" {
		return models.ActionDescriptor{}, false
	}

	// The step payload is either an explicit "data" member or everything
	// except the discriminator itself; the assistant emits both shapes.
	delete(raw, "action")
	var data json.RawMessage
	if d, hasData := raw["data"]; hasData && len(raw) == 1 {
		data = d
	} else if len(raw) > 0 {
		data, _ = json.Marshal(raw)
	}

	return models.ActionDescriptor{Action: action, Data: data}, true
}

func normalize(s string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(s, "\n\n"))
}
