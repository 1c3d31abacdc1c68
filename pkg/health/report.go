package health

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Report thresholds.
const (
	maxRecommendations = 6

	trendStable      = 3.0
	trendSlight      = 8.0
	trendNotable     = 15.0
	volatilityStdDev = 15.0

	weakDimension   = 50.0
	severeDimension = 30.0
	mediumUpper     = 65.0
	strongDimension = 70.0
	dimensionDrop   = 10.0

	lowDataQuality   = 0.7
	highOutlierRatio = 0.3
)

// TrendDirection is the overall movement of monthly scores.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendStable TrendDirection = "stable"
	TrendDown   TrendDirection = "down"
)

type trendAnalysis struct {
	longDelta  float64
	shortDelta float64
	hasLong    bool
	hasShort   bool
	direction  TrendDirection
	volatile   bool
	stddev     float64
}

// windowDelta compares the mean of the last w values against the first w,
// with w capped so the two windows never overlap.
func windowDelta(xs []float64, size int) (float64, bool) {
	w := size
	if half := len(xs) / 2; half < w {
		w = half
	}
	if w < 1 {
		return 0, false
	}
	return mean(xs[len(xs)-w:]) - mean(xs[:w]), true
}

func analyzeTrend(overall []float64) trendAnalysis {
	t := trendAnalysis{direction: TrendStable}
	if len(overall) >= 4 {
		t.longDelta, t.hasLong = windowDelta(overall, 6)
	}
	t.shortDelta, t.hasShort = windowDelta(overall, 3)

	delta, ok := t.longDelta, t.hasLong
	if !ok {
		delta, ok = t.shortDelta, t.hasShort
	}
	if ok {
		switch {
		case delta > trendStable:
			t.direction = TrendUp
		case delta < -trendStable:
			t.direction = TrendDown
		}
	}

	if len(overall) >= 3 {
		t.stddev = stddev(overall)
		t.volatile = t.stddev > volatilityStdDev
	}
	return t
}

// trendPhrase describes a score change, e.g. "rose notably (+9.2 points)".
func trendPhrase(delta float64) string {
	abs := math.Abs(delta)
	if abs < trendStable {
		return "held stable"
	}
	verb := "rose"
	if delta < 0 {
		verb = "fell"
	}
	var degree string
	switch {
	case abs < trendSlight:
		degree = "slightly"
	case abs < trendNotable:
		degree = "notably"
	default:
		degree = "significantly"
	}
	return fmt.Sprintf("%s %s (%+.1f points)", verb, degree, delta)
}

var verdicts = map[string]map[TrendDirection]string{
	"excellent": {
		TrendUp:     "Community health is excellent and still improving.",
		TrendStable: "Community health is excellent and stable.",
		TrendDown:   "Community health is excellent, but recent months show a decline worth watching.",
	},
	"good": {
		TrendUp:     "Community health is good and trending upward.",
		TrendStable: "Community health is good and steady.",
		TrendDown:   "Community health is good but slipping; act before it erodes further.",
	},
	"fair": {
		TrendUp:     "Community health is fair and recovering.",
		TrendStable: "Community health is fair with room to improve.",
		TrendDown:   "Community health is fair and declining; intervention is advised.",
	},
	"poor": {
		TrendUp:     "Community health is poor, though early signs of recovery are visible.",
		TrendStable: "Community health is poor and stagnant.",
		TrendDown:   "Community health is poor and deteriorating; urgent attention is needed.",
	},
}

func verdict(score float64, dir TrendDirection) string {
	band := "poor"
	switch {
	case score >= 80:
		band = "excellent"
	case score >= 60:
		band = "good"
	case score >= 40:
		band = "fair"
	}
	return verdicts[band][dir]
}

type remediation struct {
	normal string
	severe string
}

var remediations = map[DimensionID]remediation{
	DimActivity: {
		normal: "Raise development activity: break work into smaller, regularly merged pull requests and publish a visible roadmap.",
		severe: "Activity is critically low: confirm the project is still maintained, then recruit maintainers or mark it as archived.",
	},
	DimContributors: {
		normal: "Grow the contributor base: label good-first-issues, document the contribution workflow and mentor newcomers.",
		severe: "The contributor base is critically thin: prioritise onboarding and share maintainership to reduce single-person dependency.",
	},
	DimResponsiveness: {
		normal: "Improve responsiveness: set up an issue triage rotation and aim to answer new issues and pull requests within a few days.",
		severe: "Issues and pull requests wait far too long for a response: introduce triage automation and response-time targets now.",
	},
	DimQuality: {
		normal: "Strengthen review quality: require reviews before merge and track the pull request acceptance rate.",
		severe: "Very few changes are reviewed or accepted: assign reviewers and clear the pull request backlog.",
	},
	DimRisk: {
		normal: "Reduce sustainability risk: spread knowledge across more maintainers and close stale issues.",
		severe: "Sustainability risk is severe as contributors leave and issues age: plan maintainer succession now.",
	},
	DimCommunityInterest: {
		normal: "Raise community visibility: improve documentation, publish release notes and showcase use cases.",
		severe: "Community interest is very low: revisit the project's positioning and promote it in relevant channels.",
	},
}

type crossRule struct {
	applies func(scores map[DimensionID]float64) bool
	message string
}

func below(scores map[DimensionID]float64, id DimensionID, limit float64) bool {
	s, ok := scores[id]
	return ok && s < limit
}

func atLeast(scores map[DimensionID]float64, id DimensionID, limit float64) bool {
	s, ok := scores[id]
	return ok && s >= limit
}

var crossRules = []crossRule{
	{
		applies: func(s map[DimensionID]float64) bool {
			return below(s, DimActivity, weakDimension) && below(s, DimResponsiveness, weakDimension)
		},
		message: "Low activity combined with slow responses suggests maintainer bandwidth is exhausted: recruit co-maintainers and automate triage.",
	},
	{
		applies: func(s map[DimensionID]float64) bool {
			return below(s, DimContributors, weakDimension) && below(s, DimRisk, weakDimension)
		},
		message: "A small contributor base with high sustainability risk points to a bus-factor problem: document critical knowledge and onboard backup maintainers.",
	},
	{
		applies: func(s map[DimensionID]float64) bool {
			return atLeast(s, DimCommunityInterest, strongDimension) && below(s, DimContributors, weakDimension)
		},
		message: "Strong community interest is not turning into contributions: add contributor guides and good-first-issues to convert users into contributors.",
	},
	{
		applies: func(s map[DimensionID]float64) bool {
			return atLeast(s, DimActivity, strongDimension) && below(s, DimQuality, weakDimension)
		},
		message: "High activity with weak review quality risks regressions: enforce code review and CI checks before merging.",
	},
}

// recommendations collects unique messages in insertion order.
type recommendations struct {
	items []string
	seen  map[string]bool
}

func (r *recommendations) add(msg string) {
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if msg == "" || r.seen[msg] {
		return
	}
	r.seen[msg] = true
	r.items = append(r.items, msg)
}

// GenerateReport produces a deterministic summary and at most six unique
// recommendations from the final scores and the chronological monthly scores.
func GenerateReport(final FinalScores, monthly []MonthlyOverallScore) Report {
	overall := make([]float64, len(monthly))
	for i, m := range monthly {
		overall[i] = m.OverallScore
	}
	trend := analyzeTrend(overall)

	scores := make(map[DimensionID]float64)
	var present []DimensionID
	for _, id := range DimensionOrder {
		if d, ok := final.Dimensions[id]; ok {
			scores[id] = d.Score
			present = append(present, id)
		}
	}

	summary := []string{
		fmt.Sprintf("Overall health score %.1f (%s).", final.OverallScore, final.OverallLevel),
		verdict(final.OverallScore, trend.direction),
	}
	if trend.hasLong {
		summary = append(summary, fmt.Sprintf("Across the evaluated period the score %s.", trendPhrase(trend.longDelta)))
	}
	if trend.hasShort {
		summary = append(summary, fmt.Sprintf("Over the most recent months it %s.", trendPhrase(trend.shortDelta)))
	}
	if trend.volatile {
		summary = append(summary, fmt.Sprintf("Monthly scores are volatile (standard deviation %.1f), so read the overall figure with care.", trend.stddev))
	}

	var weak, medium, strong []DimensionID
	for _, id := range present {
		s := scores[id]
		switch {
		case s < weakDimension:
			weak = append(weak, id)
		case s <= mediumUpper:
			medium = append(medium, id)
		case s >= strongDimension:
			strong = append(strong, id)
		}
	}
	byScore := func(ids []DimensionID, ascending bool) {
		sort.SliceStable(ids, func(i, j int) bool {
			if ascending {
				return scores[ids[i]] < scores[ids[j]]
			}
			return scores[ids[i]] > scores[ids[j]]
		})
	}
	byScore(weak, true)
	byScore(medium, true)
	byScore(strong, false)

	if len(strong) > 0 {
		summary = append(summary, "Strengths: "+describeDimensions(strong, scores)+".")
	}
	if len(weak) > 0 {
		summary = append(summary, "Needs attention: "+describeDimensions(weak, scores)+".")
	}

	var recs recommendations
	for _, id := range weak {
		r := remediations[id]
		if scores[id] < severeDimension {
			recs.add(r.severe)
		} else {
			recs.add(r.normal)
		}
	}
	for _, rule := range crossRules {
		if rule.applies(scores) {
			recs.add(rule.message)
		}
	}
	for _, id := range present {
		if drop, ok := dimensionDecline(monthly, id); ok && drop < -dimensionDrop {
			recs.add(fmt.Sprintf("%s has dropped %.1f points in recent months; investigate what changed.", DimensionName(id), -drop))
		}
	}
	for _, id := range present {
		d := final.Dimensions[id]
		if d.Quality < lowDataQuality {
			recs.add(fmt.Sprintf("Data for %s is of limited quality (%.2f); treat its score as indicative.", DimensionName(id), d.Quality))
		}
		if d.MonthlyCount > 0 && float64(d.OutliersRemoved)/float64(d.MonthlyCount) > highOutlierRatio {
			recs.add(fmt.Sprintf("%s scores fluctuate sharply (%d of %d months are outliers); check for data gaps or one-off events.", DimensionName(id), d.OutliersRemoved, d.MonthlyCount))
		}
	}
	for _, id := range medium {
		recs.add(fmt.Sprintf("%s is moderate (%.1f) and is the next candidate for improvement.", DimensionName(id), scores[id]))
	}
	if len(recs.items) == 0 {
		recs.add("All dimensions are in good shape; keep current practices and keep monitoring monthly.")
	}

	items := recs.items
	if len(items) > maxRecommendations {
		items = items[:maxRecommendations]
	}
	return Report{
		Summary:         strings.Join(summary, " "),
		Recommendations: items,
	}
}

func describeDimensions(ids []DimensionID, scores map[DimensionID]float64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s (%.1f)", DimensionName(id), scores[id])
	}
	return strings.Join(parts, ", ")
}

// dimensionDecline returns the change between the first and last three
// months in which the dimension was scored.
func dimensionDecline(monthly []MonthlyOverallScore, id DimensionID) (float64, bool) {
	var xs []float64
	for _, m := range monthly {
		if d, ok := m.Dimensions[id]; ok {
			xs = append(xs, d.Score)
		}
	}
	return windowDelta(xs, 3)
}
