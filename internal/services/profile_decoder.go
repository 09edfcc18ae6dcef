package services

import (
	"alfredoptarigan/resume-ats/internal/models"
)

// DecodeProfile maps a model-produced JSON object onto CandidateProfile.
// Both snake_case and camelCase keys are accepted, and education may be a
// list of entries or a single object.
func DecodeProfile(m map[string]any) models.CandidateProfile {
	if m == nil {
		return models.CandidateProfile{}
	}

	return models.CandidateProfile{
		FullName:          stringPtr(m, "full_name", "fullName", "name"),
		Email:             stringPtr(m, "email"),
		Phone:             stringPtr(m, "phone", "phone_number", "phoneNumber"),
		GithubPortfolio:   stringPtr(m, "github_portfolio", "githubPortfolio", "github", "portfolio"),
		LinkedinID:        stringPtr(m, "linkedin_id", "linkedinId", "linkedin"),
		EmploymentDetails: stringList(firstPresent(m, "employment_details", "employmentDetails")),
		TechnicalSkills:   stringList(firstPresent(m, "technical_skills", "technicalSkills")),
		SoftSkills:        stringList(firstPresent(m, "soft_skills", "softSkills")),
		Education:         decodeEducation(m["education"]),
		Age:               stringPtr(m, "age"),
	}
}

func decodeEducation(value any) []models.EducationEntry {
	entries := []models.EducationEntry{}

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				entries = append(entries, decodeEducationEntry(obj))
			}
		}
	case map[string]any:
		entries = append(entries, decodeEducationEntry(v))
	}

	return entries
}

func decodeEducationEntry(m map[string]any) models.EducationEntry {
	return models.EducationEntry{
		LatestEducationLevel: stringPtr(m, "latest_education_level", "latestEducationLevel"),
		BoardUniversity:      stringPtr(m, "board_university", "boardUniversity"),
		InstitutionName:      stringPtr(m, "institution_name", "institutionName"),
		GradingSystem:        stringPtr(m, "grading_system", "gradingSystem"),
		Score:                stringPtr(m, "score"),
	}
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// HasSignal reports whether a profile is worth preferring over the heuristic
// one: a name, email or phone, or a first education entry with a level or
// institution. Skills alone do not count.
func HasSignal(p models.CandidateProfile) bool {
	if nonBlank(p.FullName) || nonBlank(p.Email) || nonBlank(p.Phone) {
		return true
	}
	if len(p.Education) == 0 {
		return false
	}
	first := p.Education[0]
	return nonBlank(first.LatestEducationLevel) || nonBlank(first.InstitutionName)
}

// DecodeAssessment maps a model-produced ATS object onto AtsAssessment,
// coercing the score fields to numbers.
func DecodeAssessment(m map[string]any) models.AtsAssessment {
	return models.AtsAssessment{
		AtsScore:          ToNumberOrNil(firstPresent(m, "ats_score", "atsScore")),
		MatchPercentage:   ToNumberOrNil(firstPresent(m, "match_percentage", "matchPercentage")),
		MatchingKeywords:  stringList(firstPresent(m, "matching_keywords", "matchingKeywords")),
		MissingKeywords:   stringList(firstPresent(m, "missing_keywords", "missingKeywords")),
		Strengths:         stringList(m["strengths"]),
		Weaknesses:        stringList(m["weaknesses"]),
		Recommendations:   stringList(m["recommendations"]),
		OverallAssessment: pickFirstNonEmpty(m, "overall_assessment", "overallAssessment"),
	}
}

func nonBlank(s *string) bool {
	return s != nil && *s != ""
}
