package models

// EducationEntry is one education record. LatestEducationLevel is usually one
// of 10th, 12th, bachelors, masters or phd, but free text is kept as is.
type EducationEntry struct {
	LatestEducationLevel *string `json:"latest_education_level"`
	BoardUniversity      *string `json:"board_university"`
	InstitutionName      *string `json:"institution_name"`
	GradingSystem        *string `json:"grading_system"`
	Score                *string `json:"score"`
}

// CandidateProfile is a best-effort structured view of a resume. Every field
// may be nil or empty.
type CandidateProfile struct {
	FullName          *string          `json:"full_name"`
	Email             *string          `json:"email"`
	Phone             *string          `json:"phone"`
	GithubPortfolio   *string          `json:"github_portfolio"`
	LinkedinID        *string          `json:"linkedin_id"`
	EmploymentDetails []string         `json:"employment_details"`
	TechnicalSkills   []string         `json:"technical_skills"`
	SoftSkills        []string         `json:"soft_skills"`
	Education         []EducationEntry `json:"education"`
	Age               *string          `json:"age"`
}

// AtsAssessment is the match of one resume against one job description.
type AtsAssessment struct {
	AtsScore          *float64 `json:"ats_score"`
	MatchPercentage   *float64 `json:"match_percentage"`
	MatchingKeywords  []string `json:"matching_keywords"`
	MissingKeywords   []string `json:"missing_keywords"`
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	Recommendations   []string `json:"recommendations"`
	OverallAssessment string   `json:"overall_assessment"`
}
