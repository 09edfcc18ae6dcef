package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"alfredoptarigan/resume-ats/internal/models"
)

const (
	minAge = 16
	maxAge = 100
)

var (
	emailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s-]?)?(?:\(?\d{3,5}\)?[\s-]?)\d{3,5}[\s-]?\d{3,5}`)
	nonDigit     = regexp.MustCompile(`\D`)
	agePattern   = regexp.MustCompile(`(?i)\bage\s*[:\-]?\s*(\d{2})\b`)
	dobLabeled   = regexp.MustCompile(`(?i)\b(?:dob|date of birth)\s*[:\-]?\s*([0-3]?\d[/\-][01]?\d[/\-](?:19|20)\d{2})\b`)
	dobBare      = regexp.MustCompile(`\b([0-3]?\d[/\-][01]?\d[/\-](?:19|20)\d{2})\b`)

	ignorableTitle = regexp.MustCompile(`(?i)^(resume|curriculum vitae|cv)$`)
	contactLabel   = regexp.MustCompile(`(?i)^(phone|mobile|email|address|contact)\b`)
	longDigitRun   = regexp.MustCompile(`\d{5,}`)
	nameChars      = regexp.MustCompile(`(?i)^[a-z .'-]+$`)

	educationLine   = regexp.MustCompile(`(?i)(university|college|institute|institution|school|board|education|bachelor|master|degree|gpa|percentage)`)
	universityLine  = regexp.MustCompile(`(?i)(university|board)`)
	institutionLine = regexp.MustCompile(`(?i)(college|institute|institution|school)`)

	gpaToken        = regexp.MustCompile(`(?i)\bc?gpa\b`)
	percentToken    = regexp.MustCompile(`(?i)(\b\d{1,3}(?:\.\d+)?\s?%|\bpercentage\b)`)
	gpaScore        = regexp.MustCompile(`(?i)\bc?gpa\s*[:\-]?\s*(\d+(?:\.\d+)?)\b`)
	percentageScore = regexp.MustCompile(`\b(\d{1,3}(?:\.\d+)?)\s?%`)
)

// degreeHints are tried in order; the first level whose pattern matches wins.
var degreeHints = []struct {
	pattern *regexp.Regexp
	level   string
}{
	{regexp.MustCompile(`(?i)\b(phd|ph\.d|doctorate)\b`), "phd"},
	{regexp.MustCompile(`(?i)\b(master|masters|m\.?tech|m\.e|mba|mca|m\.?sc)\b`), "masters"},
	{regexp.MustCompile(`(?i)\b(bachelor|bachelors|b\.?tech|b\.e|bca|b\.?sc|bcom|ba)\b`), "bachelors"},
	{regexp.MustCompile(`(?i)\b(12th|higher secondary|intermediate)\b`), "12th"},
	{regexp.MustCompile(`(?i)\b(10th|secondary school)\b`), "10th"},
}

type ProfileExtractor interface {
	ExtractProfile(text string) models.CandidateProfile
}

type heuristicExtractor struct {
	now func() time.Time
}

// NewHeuristicExtractor returns the pattern-based extractor used when the
// generative profile has no usable signal.
func NewHeuristicExtractor() ProfileExtractor {
	return &heuristicExtractor{now: time.Now}
}

func newHeuristicExtractorAt(now func() time.Time) *heuristicExtractor {
	return &heuristicExtractor{now: now}
}

// ExtractProfile implements ProfileExtractor. The first matching line or token
// always wins.
func (h *heuristicExtractor) ExtractProfile(text string) models.CandidateProfile {
	lines := nonEmptyLines(text)

	profile := models.CandidateProfile{
		FullName:  optional(detectName(lines)),
		Email:     optional(emailPattern.FindString(text)),
		Phone:     optional(detectPhone(text)),
		Age:       optional(h.detectAge(text)),
		Education: []models.EducationEntry{detectEducation(text, lines)},
	}

	return profile
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func detectPhone(text string) string {
	digits := nonDigit.ReplaceAllString(phonePattern.FindString(text), "")
	if len(digits) < 10 {
		return ""
	}
	return digits[len(digits)-10:]
}

func isIgnorableNameLine(line string) bool {
	return strings.Contains(line, "@") ||
		ignorableTitle.MatchString(line) ||
		contactLabel.MatchString(line) ||
		longDigitRun.MatchString(line)
}

func detectName(lines []string) string {
	for _, line := range lines {
		if isIgnorableNameLine(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) >= 2 && len(words) <= 5 && nameChars.MatchString(line) {
			return line
		}
	}
	return ""
}

func (h *heuristicExtractor) detectAge(text string) string {
	if m := agePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	m := dobLabeled.FindStringSubmatch(text)
	if m == nil {
		m = dobBare.FindStringSubmatch(text)
	}
	if m == nil {
		return ""
	}
	return ageFromDOB(m[1], h.now())
}

// ageFromDOB takes a day/month/year date and returns whole years up to now,
// or "" when the result falls outside [16, 100].
func ageFromDOB(dob string, now time.Time) string {
	parts := strings.FieldsFunc(dob, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return ""
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return ""
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	born := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())

	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < minAge || age > maxAge {
		return ""
	}
	return strconv.Itoa(age)
}

func detectEducation(text string, lines []string) models.EducationEntry {
	var entry models.EducationEntry

	var eduLines []string
	for _, line := range lines {
		if educationLine.MatchString(line) {
			eduLines = append(eduLines, line)
		}
	}
	entry.BoardUniversity = optional(firstMatching(eduLines, universityLine))
	entry.InstitutionName = optional(firstMatching(eduLines, institutionLine))

	for _, hint := range degreeHints {
		if hint.pattern.MatchString(text) {
			level := hint.level
			entry.LatestEducationLevel = &level
			break
		}
	}

	switch {
	case gpaToken.MatchString(text):
		entry.GradingSystem = optional("gpa")
	case percentToken.MatchString(text):
		entry.GradingSystem = optional("percentage")
	}

	if m := gpaScore.FindStringSubmatch(text); m != nil {
		entry.Score = optional(m[1])
	} else if m := percentageScore.FindStringSubmatch(text); m != nil {
		entry.Score = optional(m[1])
	}

	return entry
}

func firstMatching(lines []string, pattern *regexp.Regexp) string {
	for _, line := range lines {
		if pattern.MatchString(line) {
			return line
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
