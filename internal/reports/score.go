// Package reports computes interview scores and pod aggregates and turns an
// interview into the exported feedback document.
package reports

import (
	"math"
	"strings"

	"github.com/dimitrije/pod-console/internal/models"
)

// OverallScore is the percentage of the 25 available metric points.
func OverallScore(m models.Metrics) int {
	return int(math.Round(m.Sum() / 25 * 100))
}

type Aggregate struct {
	Count        int                            `json:"count"`
	Averages     models.Metrics                 `json:"averages"`
	OverallScore int                            `json:"overall_score"`
	StatusCounts map[models.InterviewStatus]int `json:"status_counts"`
}

// Summarize averages the metrics of the completed interviews in list. With
// no completed interviews every average is zero.
func Summarize(interviews []models.Interview) Aggregate {
	agg := Aggregate{StatusCounts: map[models.InterviewStatus]int{
		models.InterviewStarted:    0,
		models.InterviewInProgress: 0,
		models.InterviewCompleted:  0,
		models.InterviewAbandoned:  0,
	}}

	var sum models.Metrics
	for i := range interviews {
		iv := &interviews[i]
		if iv.Status.Valid() {
			agg.StatusCounts[iv.Status]++
		}
		if !iv.Completed() {
			continue
		}
		m := iv.Report.Metrics
		sum.Confidence += m.Confidence
		sum.BodyLanguage += m.BodyLanguage
		sum.Knowledge += m.Knowledge
		sum.SkillRelevance += m.SkillRelevance
		sum.Fluency += m.Fluency
		agg.Count++
	}

	if agg.Count == 0 {
		return agg
	}

	n := float64(agg.Count)
	agg.Averages = models.Metrics{
		Confidence:     sum.Confidence / n,
		BodyLanguage:   sum.BodyLanguage / n,
		Knowledge:      sum.Knowledge / n,
		SkillRelevance: sum.SkillRelevance / n,
		Fluency:        sum.Fluency / n,
	}
	agg.OverallScore = OverallScore(agg.Averages)
	return agg
}

// PodAggregate summarizes the interviews of users currently in the pod,
// matched by user id or email.
func PodAggregate(interviews []models.Interview, members []models.PodUser) Aggregate {
	ids := make(map[string]bool, len(members))
	emails := make(map[string]bool, len(members))
	for _, m := range members {
		if m.ID != "" {
			ids[m.ID] = true
		}
		if m.Email != "" {
			emails[strings.ToLower(m.Email)] = true
		}
	}

	current := make([]models.Interview, 0, len(interviews))
	for _, iv := range interviews {
		if ids[iv.Candidate.ID] || emails[strings.ToLower(iv.Candidate.Email)] {
			current = append(current, iv)
		}
	}
	return Summarize(current)
}
