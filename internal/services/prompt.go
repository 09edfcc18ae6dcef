package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/resume-ats/internal/models"
)

const (
	profileResumeLimit = 15000
	atsResumeLimit     = 10000
	atsJobLimit        = 5000
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildProfilePrompt asks for the candidate profile as a single JSON object.
func (pb *PromptBuilder) BuildProfilePrompt(resumeText string) string {
	if len(resumeText) > profileResumeLimit {
		resumeText = truncateText(resumeText, profileResumeLimit) + "\n\n[Resume truncated for processing]"
	}

	return fmt.Sprintf(`You are an expert resume parser. Extract the candidate's details from the resume below.

RESUME:
%s

Extract the following fields:
1. full_name - the candidate's full name
2. email - primary email address
3. phone - primary phone number
4. github_portfolio - GitHub or portfolio URL
5. linkedin_id - LinkedIn profile id or URL
6. employment_details - list of short "role at company (years)" strings, most recent first
7. technical_skills - list of technical skills
8. soft_skills - list of soft skills
9. education - list of objects with latest_education_level (one of 10th, 12th, bachelors, masters, phd), board_university, institution_name, grading_system (percentage or gpa) and score
10. age - age in years if stated or derivable from a date of birth

Return ONLY a JSON object with exactly these keys. Use null for anything not present in the resume and never invent values.`,
		resumeText)
}

// BuildATSPrompt asks for an ATS match of the resume against the job description.
func (pb *PromptBuilder) BuildATSPrompt(resumeText, jobDescription string) string {
	if len(resumeText) > atsResumeLimit {
		resumeText = truncateText(resumeText, atsResumeLimit) + "\n\n[Resume truncated]"
	}
	if len(jobDescription) > atsJobLimit {
		jobDescription = truncateText(jobDescription, atsJobLimit) + "\n\n[Job description truncated]"
	}

	return fmt.Sprintf(`You are an applicant tracking system evaluating how well a resume matches a job description.

JOB DESCRIPTION:
%s

RESUME:
%s

Return your response in the following JSON format:
{
  "ats_score": <0-100>,
  "match_percentage": <0-100>,
  "matching_keywords": ["<keyword>"],
  "missing_keywords": ["<keyword>"],
  "strengths": ["<short sentence>"],
  "weaknesses": ["<short sentence>"],
  "recommendations": ["<short sentence>"],
  "overall_assessment": "<one or two sentences>"
}

Score on skills, experience and keyword alignment. Return ONLY the JSON object.`,
		jobDescription, resumeText)
}

// BuildJobDescription joins the non-empty job fields as labeled lines.
func BuildJobDescription(job models.JobFields) string {
	fields := []struct {
		label string
		value string
	}{
		{"Role", job.Role},
		{"Company", job.Company},
		{"Description", job.Description},
		{"Skills", job.Skills},
		{"Qualification", job.Qualification},
		{"Benefits", job.Benefits},
		{"Experience", job.Experience},
		{"Location", job.Location},
	}

	var lines []string
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", f.label, v))
		}
	}

	return strings.Join(lines, "\n")
}
