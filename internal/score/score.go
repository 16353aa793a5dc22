// Package score rates a normalized listing with an additive point model.
// Scoring starts at 50, applies unordered additive deltas, clamps the sum
// to [0,100], and reports the three largest-magnitude deltas as reasons.
package score

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/job-scanner/internal/types"
)

const (
	baseScore  = 50
	maxReasons = 3
)

// delta is one applied scoring rule.
type delta struct {
	points int
	reason string
}

// Result carries the clamped score and the top reasons.
type Result struct {
	Score   int
	Reasons []string
}

var roleKeywords = []string{
	"qa",
	"quality assurance",
	"quality engineer",
	"test engineer",
	"test automation",
	"automation engineer",
	"sdet",
	"software tester",
}

var automationKeywords = []string{
	"automation",
	"selenium",
	"cypress",
	"playwright",
	"appium",
	"webdriver",
	"api testing",
	"ci/cd",
}

var seniorKeywords = []string{"senior", "lead", "principal", "staff"}

var juniorKeywords = []string{"junior", "intern", "graduate", "entry level", "entry-level"}

var reYears = regexp.MustCompile(`(\d+)\s*\+?\s*years?`)

// Score rates a job. Pure function: same job in, same score and reasons
// out. The reasons are the most influential deltas by absolute value,
// descending, not the first-applied ones.
func Score(job *types.NormalizedJob) Result {
	text := strings.ToLower(job.Title + " " + job.LocationRaw + " " + job.DescriptionText)
	title := strings.ToLower(job.Title)

	var deltas []delta
	add := func(points int, reason string) {
		deltas = append(deltas, delta{points: points, reason: reason})
	}

	switch job.RemoteScope {
	case types.ScopeWorldwide:
		add(15, "Open to candidates worldwide")
	case types.ScopeEU:
		add(10, "Remote within the EU")
	case types.ScopeEurope:
		add(8, "Remote within Europe")
	case types.ScopeEMEA:
		add(6, "Remote within EMEA")
	case types.ScopeMultiCountry:
		add(4, "Remote in a limited set of countries")
	case types.ScopeCountryOnly:
		add(-8, "Restricted to a single country")
	}

	switch job.WorkplaceType {
	case types.WorkplaceRemote:
		add(10, "Fully remote position")
	case types.WorkplaceHybrid:
		add(-5, "Hybrid attendance required")
	case types.WorkplaceOnsite:
		add(-15, "On-site only")
	}

	if kw := firstMatch(title, roleKeywords); kw != "" {
		add(15, "Title matches target role ("+kw+")")
	} else if kw := firstMatch(text, roleKeywords); kw != "" {
		add(5, "Mentions target role ("+kw+")")
	}

	hasAutomation := firstMatch(text, automationKeywords) != ""
	if hasAutomation {
		add(10, "Automation-focused role")
	}
	if strings.Contains(text, "manual testing") && !hasAutomation {
		add(-10, "Manual-only testing role")
	}

	if kw := firstMatch(title, seniorKeywords); kw != "" {
		add(8, "Senior-level position ("+kw+")")
	}
	if kw := firstMatch(title, juniorKeywords); kw != "" {
		add(-10, "Junior-level position ("+kw+")")
	}

	if years := maxYearsRequired(text); years >= 8 {
		add(-5, fmt.Sprintf("Requires %d+ years of experience", years))
	} else if years >= 3 {
		add(5, fmt.Sprintf("Experience requirement fits (%d years)", years))
	}

	total := baseScore
	for _, d := range deltas {
		total += d.points
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return Result{Score: total, Reasons: topReasons(deltas)}
}

func firstMatch(text string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

// maxYearsRequired returns the largest "N years" figure in the text, or 0.
func maxYearsRequired(text string) int {
	max := 0
	for _, m := range reYears.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > max && n < 50 {
			max = n
		}
	}
	return max
}

// topReasons formats the three largest-magnitude deltas, descending by
// absolute value. Stable sort keeps rule order for equal magnitudes.
func topReasons(deltas []delta) []string {
	sorted := make([]delta, len(deltas))
	copy(sorted, deltas)
	sort.SliceStable(sorted, func(i, j int) bool {
		return abs(sorted[i].points) > abs(sorted[j].points)
	})

	n := len(sorted)
	if n > maxReasons {
		n = maxReasons
	}
	reasons := make([]string, 0, n)
	for _, d := range sorted[:n] {
		reasons = append(reasons, fmt.Sprintf("%s (%+d)", d.reason, d.points))
	}
	return reasons
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
