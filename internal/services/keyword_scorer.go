package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"alfredoptarigan/resume-ats/internal/config"
	"alfredoptarigan/resume-ats/internal/models"
)

const (
	defaultMinTokenLength         = 3
	defaultKeywordLimit           = 25
	defaultRecommendationKeywords = 6

	noJobDescriptionAssessment = "ATS could not be calculated because job description is unavailable."
)

var nonTokenChars = regexp.MustCompile(`[^a-z0-9\s]`)

type KeywordScorer interface {
	Score(resumeText, jobDescription string) models.AtsAssessment
}

type keywordScorer struct {
	minTokenLength         int
	keywordLimit           int
	recommendationKeywords int
}

// NewKeywordScorer returns the deterministic token-overlap scorer. Zero or
// negative settings fall back to 3, 25 and 6.
func NewKeywordScorer(cfg config.ATSConfig) KeywordScorer {
	s := &keywordScorer{
		minTokenLength:         cfg.MinTokenLength,
		keywordLimit:           cfg.KeywordLimit,
		recommendationKeywords: cfg.RecommendationKeywords,
	}
	if s.minTokenLength <= 0 {
		s.minTokenLength = defaultMinTokenLength
	}
	if s.keywordLimit <= 0 {
		s.keywordLimit = defaultKeywordLimit
	}
	if s.recommendationKeywords <= 0 {
		s.recommendationKeywords = defaultRecommendationKeywords
	}
	return s
}

// Tokenize lower-cases text, splits it on anything that is not a letter or
// digit and returns the unique tokens of at least minLen bytes in first-seen order.
func Tokenize(text string, minLen int) []string {
	cleaned := nonTokenChars.ReplaceAllString(strings.ToLower(text), " ")

	seen := make(map[string]struct{})
	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) < minLen {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Score implements KeywordScorer. The ratio counts every matched job token;
// the limit only caps the keyword lists that are returned.
func (s *keywordScorer) Score(resumeText, jobDescription string) models.AtsAssessment {
	jobTokens := Tokenize(jobDescription, s.minTokenLength)
	if len(jobTokens) == 0 {
		return models.AtsAssessment{
			MatchingKeywords:  []string{},
			MissingKeywords:   []string{},
			Strengths:         []string{},
			Weaknesses:        []string{},
			Recommendations:   []string{},
			OverallAssessment: noJobDescriptionAssessment,
		}
	}

	resumeSet := make(map[string]struct{})
	for _, tok := range Tokenize(resumeText, s.minTokenLength) {
		resumeSet[tok] = struct{}{}
	}

	matched := 0
	matching := []string{}
	missing := []string{}
	for _, tok := range jobTokens {
		if _, ok := resumeSet[tok]; ok {
			matched++
			if len(matching) < s.keywordLimit {
				matching = append(matching, tok)
			}
		} else if len(missing) < s.keywordLimit {
			missing = append(missing, tok)
		}
	}

	score := math.Round(float64(matched)/float64(len(jobTokens))*100*100) / 100
	matchPercentage := score

	assessment := models.AtsAssessment{
		AtsScore:          &score,
		MatchPercentage:   &matchPercentage,
		MatchingKeywords:  matching,
		MissingKeywords:   missing,
		Strengths:         []string{},
		Weaknesses:        []string{},
		Recommendations:   []string{},
		OverallAssessment: tierAssessment(score),
	}

	if len(matching) > 0 {
		assessment.Strengths = append(assessment.Strengths, "Resume includes relevant job keywords.")
	} else {
		assessment.Strengths = append(assessment.Strengths, "Resume appears weakly aligned with key job terms.")
	}

	if len(missing) > 0 {
		assessment.Weaknesses = append(assessment.Weaknesses, "Several job-relevant keywords are missing from resume.")

		top := missing
		if len(top) > s.recommendationKeywords {
			top = top[:s.recommendationKeywords]
		}
		assessment.Recommendations = append(assessment.Recommendations,
			fmt.Sprintf("Consider adding measurable experience with: %s.", strings.Join(top, ", ")))
	} else {
		assessment.Recommendations = append(assessment.Recommendations,
			"Maintain keyword alignment while improving role-specific achievements.")
	}

	return assessment
}

func tierAssessment(score float64) string {
	switch {
	case score >= 75:
		return "Strong keyword alignment with the role."
	case score >= 50:
		return "Moderate keyword alignment with room for improvement."
	default:
		return "Low keyword alignment; resume tailoring recommended."
	}
}
