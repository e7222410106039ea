package narrative

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/shared"
)

// ExtractJSON returns the widest brace-delimited span of content: from the
// first "{" to the last "}". Models often wrap the object in prose or code
// fences; the span survives both.
func ExtractJSON(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", false
	}
	return content[start : end+1], true
}

// ParseNarrative extracts, parses, and validates a model response into a
// [models.PlaylistNarrative].
//
// All four top-level fields and every per-recommendation field are required;
// scalar leaves are coerced to strings. Any gap rejects the response
// wholesale.
func ParseNarrative(content string) (*models.PlaylistNarrative, error) {
	raw, ok := ExtractJSON(content)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found in response", shared.ErrValidation)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", shared.ErrValidation, err)
	}

	name, ok := coerceString(parsed["playlistName"])
	if !ok {
		return nil, missingField("playlistName")
	}
	description, ok := coerceString(parsed["playlistDescription"])
	if !ok {
		return nil, missingField("playlistDescription")
	}
	overall, ok := coerceString(parsed["overallNarrative"])
	if !ok {
		return nil, missingField("overallNarrative")
	}

	rawRecs, ok := parsed["songRecommendations"].([]any)
	if !ok || len(rawRecs) == 0 {
		return nil, fmt.Errorf("%w: songRecommendations must be a non-empty array", shared.ErrValidation)
	}

	recommendations := make([]models.SongRecommendation, 0, len(rawRecs))
	for i, entry := range rawRecs {
		rec, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: recommendation %d is not an object", shared.ErrValidation, i)
		}

		query, ok := coerceString(rec["searchQuery"])
		if !ok {
			return nil, recommendationField(i, "searchQuery")
		}
		reasoning, ok := coerceString(rec["reasoning"])
		if !ok {
			return nil, recommendationField(i, "reasoning")
		}
		connection, ok := coerceString(rec["festiveConnection"])
		if !ok {
			return nil, recommendationField(i, "festiveConnection")
		}

		recommendations = append(recommendations, models.SongRecommendation{
			SearchQuery:       query,
			Reasoning:         reasoning,
			FestiveConnection: connection,
		})
	}

	return &models.PlaylistNarrative{
		PlaylistName:        name,
		PlaylistDescription: description,
		SongRecommendations: recommendations,
		OverallNarrative:    overall,
	}, nil
}

// coerceString renders a scalar JSON leaf as a string. Missing values,
// empty strings, objects, and arrays do not coerce.
func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func missingField(field string) error {
	return fmt.Errorf("%w: missing required field %s", shared.ErrValidation, field)
}

func recommendationField(index int, field string) error {
	return fmt.Errorf("%w: recommendation %d missing %s", shared.ErrValidation, index, field)
}
