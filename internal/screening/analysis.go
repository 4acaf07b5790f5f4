package screening

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hirescreen/hirescreen/internal/domain"
)

// analysis is the structured payload expected from the completion service.
// Score fields are pointers so a missing field is distinguishable from an
// explicit zero.
type analysis struct {
	OverallScore         *float64 `mapstructure:"overallScore"`
	SkillMatchScore      *float64 `mapstructure:"skillMatchScore"`
	ExperienceMatchScore *float64 `mapstructure:"experienceMatchScore"`
	EducationMatchScore  *float64 `mapstructure:"educationMatchScore"`
	MatchedSkills        []string `mapstructure:"matchedSkills"`
	MissingSkills        []string `mapstructure:"missingSkills"`
	KeyHighlights        []string `mapstructure:"keyHighlights"`
	Strengths            string   `mapstructure:"strengths"`
	Weaknesses           string   `mapstructure:"weaknesses"`
	Summary              string   `mapstructure:"summary"`
}

// parseAnalysis validates and decodes the raw completion text. Models wrap
// JSON in code fences and sometimes quote numbers; both are tolerated. Any
// failure is a scoring error: nothing downstream may be persisted from it.
func parseAnalysis(raw string) (*analysis, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty completion response", domain.ErrScoring)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: parse completion response: %v", domain.ErrScoring, err)
	}

	var result analysis
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: build analysis decoder: %v", domain.ErrScoring, err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: decode analysis: %v", domain.ErrScoring, err)
	}

	for name, score := range map[string]*float64{
		"overallScore":         result.OverallScore,
		"skillMatchScore":      result.SkillMatchScore,
		"experienceMatchScore": result.ExperienceMatchScore,
		"educationMatchScore":  result.EducationMatchScore,
	} {
		if score == nil {
			return nil, fmt.Errorf("%w: analysis is missing %s", domain.ErrScoring, name)
		}
	}

	return &result, nil
}

// extractJSON strips markdown code fences the model may wrap its JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
