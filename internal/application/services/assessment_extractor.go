package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/optimed-health/backend/internal/domain/entities"
)

// assessmentMarker is the sentinel the triage prompt instructs the model to
// emit once it has gathered enough detail to score the injury.
const assessmentMarker = "ASSESSMENT:"

var (
	severityPattern = regexp.MustCompile(`Severity: (\d)`)
	urgencyPattern  = regexp.MustCompile(`Urgency: (\w+)`)
	actionPattern   = regexp.MustCompile(`Action: ([^\n]+)`)
	waitTimePattern = regexp.MustCompile(`Wait Time: (\d+)`)
)

// AssessmentExtractor parses structured injury assessments out of assistant
// turns. It is deliberately dumb string matching: the model is prompted to
// emit a fixed block format, and anything that deviates from it yields no
// assessment rather than a partial one.
type AssessmentExtractor struct{}

// NewAssessmentExtractor creates a new assessment extractor
func NewAssessmentExtractor() *AssessmentExtractor {
	return &AssessmentExtractor{}
}

// Extract returns the assessment embedded in an assistant message, or nil
// when the message carries none. A message without the ASSESSMENT: marker is
// never scanned for fields, so conversational text that happens to mention
// "Severity: 3" does not produce an assessment.
func (e *AssessmentExtractor) Extract(message string) *entities.InjuryAssessment {
	if !strings.Contains(message, assessmentMarker) {
		return nil
	}

	severity := severityPattern.FindStringSubmatch(message)
	urgency := urgencyPattern.FindStringSubmatch(message)
	action := actionPattern.FindStringSubmatch(message)
	waitTime := waitTimePattern.FindStringSubmatch(message)

	if severity == nil || urgency == nil || action == nil || waitTime == nil {
		return nil
	}

	severityLevel, err := strconv.Atoi(severity[1])
	if err != nil {
		return nil
	}
	waitMinutes, err := strconv.Atoi(waitTime[1])
	if err != nil {
		return nil
	}

	return &entities.InjuryAssessment{
		Severity:          severityLevel,
		Urgency:           entities.Urgency(strings.ToLower(urgency[1])),
		RecommendedAction: strings.TrimSpace(action[1]),
		EstimatedWaitTime: waitMinutes,
	}
}

// HasAssessment reports whether the message contains the assessment marker.
// The triage service uses it to flag a turn as the end of the intake flow
// even when the block is malformed and Extract yields nothing.
func (e *AssessmentExtractor) HasAssessment(message string) bool {
	return strings.Contains(message, assessmentMarker)
}
