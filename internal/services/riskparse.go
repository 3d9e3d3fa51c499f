package services

import (
	"regexp"
	"strconv"
	"strings"
)

// RiskAssessment is the structured form of a model's free-text risk answer.
type RiskAssessment struct {
	RiskLevel       int      `json:"riskLevel"`
	RiskCategory    string   `json:"riskCategory"`
	KeyRiskFactors  []string `json:"keyRiskFactors"`
	TrendAnalysis   string   `json:"trendAnalysis"`
	Recommendations []string `json:"recommendations"`
	ConfidenceLevel string   `json:"confidenceLevel"`
	RawResponse     string   `json:"rawResponse"`
}

// Patterns are tried in order; the first match wins. Models wrap labels in
// Markdown emphasis inconsistently, so every pattern tolerates asterisks
// and varies only in the label phrasing.
var (
	riskLevelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*\**\s*risk\s*level\s*\**\s*[:=]\s*\**\s*(\d{1,3})\s*%?`),
		regexp.MustCompile(`(?im)^\s*\**\s*overall\s*risk\s*\**\s*[:=]\s*\**\s*(\d{1,3})\s*%?`),
		regexp.MustCompile(`(?i)risk\s*level[^0-9]{0,20}(\d{1,3})\s*%`),
	}
	riskCategoryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*\**\s*risk\s*category\s*\**\s*[:=]\s*\**\s*(very\s+high|high|moderate|medium|low)`),
		regexp.MustCompile(`(?i)\b(very\s+high|high|moderate|medium|low)\s+risk\b`),
	}
	confidencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*\**\s*confidence\s*(?:level)?\s*\**\s*[:=]\s*\**\s*(high|medium|moderate|low)`),
		regexp.MustCompile(`(?i)\b(high|medium|moderate|low)\s+confidence\b`),
	}
	trendPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*\**\s*trend\s*analysis\s*\**\s*[:=]\s*\**\s*(.+)$`),
	}
	factorsHeading         = regexp.MustCompile(`(?im)^\s*\**\s*key\s*risk\s*factors[:=*\s]*$`)
	recommendationsHeading = regexp.MustCompile(`(?im)^\s*\**\s*recommendations?[:=*\s]*$`)
	bulletLine             = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
	headingLine            = regexp.MustCompile(`(?i)^\s*\**\s*[a-z][a-z /]*[:=*\s]*$`)
)

// ParseRiskResponse extracts the structured assessment from free-form model
// output. Unparseable fields fall back to neutral defaults; the function
// never fails.
func ParseRiskResponse(text string) *RiskAssessment {
	assessment := &RiskAssessment{
		RiskCategory:    "Unknown",
		ConfidenceLevel: "Unknown",
		KeyRiskFactors:  []string{},
		Recommendations: []string{},
		RawResponse:     text,
	}

	if match := firstMatch(riskLevelPatterns, text); match != "" {
		if level, err := strconv.Atoi(match); err == nil && level >= 0 && level <= 100 {
			assessment.RiskLevel = level
		}
	}
	if match := firstMatch(riskCategoryPatterns, text); match != "" {
		assessment.RiskCategory = canonicalCategory(match)
	}
	if match := firstMatch(confidencePatterns, text); match != "" {
		assessment.ConfidenceLevel = canonicalCategory(match)
	}
	if match := firstMatch(trendPatterns, text); match != "" {
		assessment.TrendAnalysis = stripEmphasis(match)
	}

	assessment.KeyRiskFactors = bulletsAfter(text, factorsHeading)
	assessment.Recommendations = bulletsAfter(text, recommendationsHeading)

	// Fill the category from the numeric level when only the number parsed.
	// Intentional extension of the fallback: a level of zero still reports
	// Unknown, anything positive maps onto the standard bands.
	if assessment.RiskCategory == "Unknown" && assessment.RiskLevel > 0 {
		assessment.RiskCategory = categoryForLevel(assessment.RiskLevel)
	}

	return assessment
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// bulletsAfter collects the bulleted items directly under a section heading,
// stopping at the next heading or blank-then-heading boundary.
func bulletsAfter(text string, heading *regexp.Regexp) []string {
	items := []string{}
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if heading.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return items
	}

	for _, line := range lines[start:] {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			item := stripEmphasis(strings.TrimSpace(m[1]))
			if item != "" {
				items = append(items, item)
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			if len(items) > 0 {
				break
			}
			continue
		}
		if headingLine.MatchString(line) {
			break
		}
		if len(items) > 0 {
			break
		}
	}
	return items
}

func stripEmphasis(s string) string {
	return strings.TrimSpace(strings.Trim(s, "*_ "))
}

func canonicalCategory(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func categoryForLevel(level int) string {
	switch {
	case level >= 80:
		return "Very High"
	case level >= 60:
		return "High"
	case level >= 30:
		return "Moderate"
	default:
		return "Low"
	}
}
