package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/vocabstats/internal/model"
)

// Solution is a catalogued remedy for a weakness.
type Solution struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Effectiveness int     `json:"effectiveness"`
	Effort        int     `json:"effort"`
	Score         float64 `json:"score"`
}

// WeaknessBasedRecommendation maps a detected weakness to ranked solutions.
type WeaknessBasedRecommendation struct {
	Weakness  string     `json:"weakness"`
	Title     string     `json:"title"`
	Priority  int        `json:"priority"`
	Solutions []Solution `json:"solutions"`
}

// GoalMilestone is an intermediate step towards a goal.
type GoalMilestone struct {
	Target        float64 `json:"target"`
	EstimatedDays float64 `json:"estimatedDays"`
	Reachable     bool    `json:"reachable"`
}

// GoalBasedRecommendation tracks progress towards a declared goal.
type GoalBasedRecommendation struct {
	Metric                 string          `json:"metric"`
	Target                 float64         `json:"target"`
	Current                float64         `json:"current"`
	Gap                    float64         `json:"gap"`
	Reachable              bool            `json:"reachable"`
	Achieved               bool            `json:"achieved"`
	EstimatedTests         float64         `json:"estimatedTests"`
	EstimatedTimeToGoal    float64         `json:"estimatedTimeToGoal"`
	DeadlineDays           int             `json:"deadlineDays,omitempty"`
	OnTrack                bool            `json:"onTrack"`
	Priority               int             `json:"priority"`
	IntermediateMilestones []GoalMilestone `json:"intermediateMilestones"`
	Actions                []string        `json:"actions"`
}

// TimingRecommendation suggests when to study.
type TimingRecommendation struct {
	Kind             string  `json:"kind"`
	OptimalStudyTime string  `json:"optimalStudyTime"`
	MeanAccuracy     float64 `json:"meanAccuracy"`
	Strength         float64 `json:"strength"`
	Avoid            string  `json:"avoid,omitempty"`
	Priority         int     `json:"priority"`
}

// StrategicRecommendation is a study-plan level suggestion.
type StrategicRecommendation struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Priority int      `json:"priority"`
	Actions  []string `json:"actions"`
}

// RecommendationSystem holds every recommendation list.
type RecommendationSystem struct {
	GoalBased     []GoalBasedRecommendation     `json:"goalBased"`
	WeaknessBased []WeaknessBasedRecommendation `json:"weaknessBased"`
	Timing        []TimingRecommendation        `json:"timing"`
	Strategic     []StrategicRecommendation     `json:"strategic"`
}

// solutionCatalogue lists candidate solutions per insight id.
var solutionCatalogue = map[string][]Solution{
	"hint-dependency": {
		{Name: "hint-free rounds", Description: "Run one test per day without hints", Effectiveness: 8, Effort: 4},
		{Name: "delayed hints", Description: "Wait ten seconds before revealing a hint", Effectiveness: 6, Effort: 2},
		{Name: "active recall cards", Description: "Write the translation before checking it", Effectiveness: 7, Effort: 5},
	},
	"difficult-words": {
		{Name: "small batches", Description: "Study difficult words in batches of five", Effectiveness: 7, Effort: 3},
		{Name: "example sentences", Description: "Attach a sentence to each difficult word", Effectiveness: 8, Effort: 6},
		{Name: "mnemonics", Description: "Create a mnemonic for the hardest words", Effectiveness: 6, Effort: 5},
	},
	"low-accuracy": {
		{Name: "review before test", Description: "Review the chapter list before each test", Effectiveness: 7, Effort: 3},
		{Name: "fewer chapters", Description: "Limit tests to one or two chapters", Effectiveness: 8, Effort: 2},
		{Name: "spaced repetition", Description: "Repeat failed words after 1, 3 and 7 days", Effectiveness: 9, Effort: 6},
	},
	"declining-performance": {
		{Name: "recent failures first", Description: "Start each session with recently failed words", Effectiveness: 8, Effort: 3},
		{Name: "shorter sessions", Description: "Cap sessions at fifteen words", Effectiveness: 6, Effort: 1},
		{Name: "rest day", Description: "Take a rest day after three consecutive sessions", Effectiveness: 5, Effort: 1},
	},
	"critical-words": {
		{Name: "daily critical drill", Description: "Drill critical words every day until they improve", Effectiveness: 9, Effort: 5},
		{Name: "pronunciation practice", Description: "Say each critical word aloud three times", Effectiveness: 5, Effort: 2},
	},
	"inconsistent-results": {
		{Name: "fixed schedule", Description: "Study at the same hour every day", Effectiveness: 7, Effort: 3},
		{Name: "constant session size", Description: "Keep the number of words per test constant", Effectiveness: 6, Effort: 2},
	},
}

// WeaknessRecommendations maps weaknesses to catalogue solutions sorted by
// effectiveness per unit of effort.
func WeaknessRecommendations(weaknesses []Insight) []WeaknessBasedRecommendation {
	out := []WeaknessBasedRecommendation{}
	for _, w := range weaknesses {
		candidates, ok := solutionCatalogue[w.ID]
		if !ok {
			continue
		}
		solutions := make([]Solution, len(candidates))
		for i, s := range candidates {
			s.Score = round3(float64(s.Effectiveness) / float64(maxInt(s.Effort, 1)))
			solutions[i] = s
		}
		sort.SliceStable(solutions, func(i, j int) bool {
			if solutions[i].Score == solutions[j].Score {
				return solutions[i].Name < solutions[j].Name
			}
			return solutions[i].Score > solutions[j].Score
		})
		out = append(out, WeaknessBasedRecommendation{
			Weakness:  w.ID,
			Title:     w.Title,
			Priority:  w.Importance,
			Solutions: solutions,
		})
	}
	return out
}

// GoalRecommendations solves each declared accuracy goal against the trend.
func GoalRecommendations(goals []model.Goal, trend TrendSnapshot, current float64, th Thresholds) []GoalBasedRecommendation {
	out := []GoalBasedRecommendation{}
	for _, g := range goals {
		metric := g.Metric
		if metric == "" {
			metric = MetricAccuracy
		}
		if metric != MetricAccuracy {
			continue
		}
		target := clampPct(g.Target)
		ms := solveMilestone(trend, current, target, th)
		rec := GoalBasedRecommendation{
			Metric:                 metric,
			Target:                 target,
			Current:                round1(current),
			Gap:                    round1(math.Max(0, target-current)),
			Reachable:              ms.Reachable,
			Achieved:               ms.Achieved,
			EstimatedTests:         ms.EstimatedTests,
			EstimatedTimeToGoal:    ms.EstimatedDays,
			DeadlineDays:           g.DeadlineDays,
			IntermediateMilestones: []GoalMilestone{},
		}
		switch {
		case rec.Achieved:
			rec.OnTrack = true
			rec.Priority = 1
			rec.Actions = []string{"maintain the current routine", "set a higher target"}
		case !rec.Reachable:
			rec.Priority = 5
			rec.Actions = []string{"reverse the current trend before targeting this goal", "review struggling chapters"}
		default:
			rec.OnTrack = g.DeadlineDays <= 0 || rec.EstimatedTimeToGoal <= float64(g.DeadlineDays)
			rec.Priority = 3
			rec.Actions = []string{"keep the current cadence"}
			if !rec.OnTrack {
				rec.Priority = 4
				rec.Actions = []string{"increase session frequency", "focus on critical words"}
			}
		}
		if !rec.Achieved {
			for _, frac := range []float64{0.25, 0.5, 0.75, 1} {
				step := current + (target-current)*frac
				sm := solveMilestone(trend, current, step, th)
				rec.IntermediateMilestones = append(rec.IntermediateMilestones, GoalMilestone{
					Target:        round1(step),
					EstimatedDays: sm.EstimatedDays,
					Reachable:     sm.Reachable,
				})
			}
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// TimingRecommendations reuses the strongest temporal bucket as the optimal study time.
func TimingRecommendations(patterns PatternAnalysis, th Thresholds) []TimingRecommendation {
	out := []TimingRecommendation{}
	tp, ok := patterns.StrongestTemporal()
	if !ok {
		return out
	}
	rec := TimingRecommendation{
		Kind:             tp.Kind,
		OptimalStudyTime: tp.Best.Label,
		MeanAccuracy:     tp.Best.MeanAccuracy,
		Strength:         tp.Strength,
		Priority:         2,
	}
	if tp.Worst != nil && tp.Worst.Label != tp.Best.Label {
		rec.Avoid = tp.Worst.Label
	}
	if tp.Strength >= th.TemporalStrengthInsight {
		rec.Priority = 3
	}
	return append(out, rec)
}

// StrategicRecommendations derives plan-level suggestions from trend and status mix.
func StrategicRecommendations(trend TrendSnapshot, words []WordAnalysis) []StrategicRecommendation {
	out := []StrategicRecommendation{}
	counts := StatusCounts(words)
	total := len(words)

	switch trend.Direction {
	case DirectionDecelerating:
		out = append(out, StrategicRecommendation{
			ID: "consolidate", Title: "Consolidate before adding new words", Priority: 4,
			Actions: []string{"pause new chapters", "review inconsistent and critical words"},
		})
	case DirectionAccelerating:
		out = append(out, StrategicRecommendation{
			ID: "expand", Title: "Expand to new material", Priority: 3,
			Actions: []string{"start the next chapter", "raise the number of words per test"},
		})
	}
	if total > 0 && percent(counts[StatusNew], total) > 50 {
		out = append(out, StrategicRecommendation{
			ID: "introduce-gradually", Title: "Introduce untested words gradually", Priority: 3,
			Actions: []string{fmt.Sprintf("add %d new words per session", minInt(10, counts[StatusNew]))},
		})
	}
	if tested := total - counts[StatusNew]; tested > 0 && percent(counts[StatusConsolidated], tested) >= 50 {
		out = append(out, StrategicRecommendation{
			ID: "spaced-review", Title: "Move consolidated words to spaced review", Priority: 2,
			Actions: []string{"review consolidated words weekly instead of daily"},
		})
	}
	if counts[StatusStruggling]+counts[StatusCritical] > 0 {
		out = append(out, StrategicRecommendation{
			ID: "target-weak", Title: "Target struggling and critical words", Priority: 4,
			Actions: []string{fmt.Sprintf("schedule a focused review of %d words", counts[StatusStruggling]+counts[StatusCritical])},
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Recommend builds the full recommendation system.
func Recommend(patterns PatternAnalysis, trend TrendSnapshot, words []WordAnalysis, goals []model.Goal, current float64, th Thresholds) RecommendationSystem {
	return RecommendationSystem{
		GoalBased:     GoalRecommendations(goals, trend, current, th),
		WeaknessBased: WeaknessRecommendations(patterns.Weaknesses()),
		Timing:        TimingRecommendations(patterns, th),
		Strategic:     StrategicRecommendations(trend, words),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
