package core

import (
	"fmt"
	"math"
)

const (
	GoalCompleted  GoalStatType = "COMPLETED"
	GoalInProgress GoalStatType = "IN_PROGRESS"
	GoalOverdue    GoalStatType = "OVERDUE"
	GoalTotal      GoalStatType = "TOTAL"
)

type GoalStatType string

// GoalStat is one dashboard metric about a user's saving goals.
type GoalStat struct {
	Insight string
	Type    GoalStatType
	Amount  int
}

// GoalCounts are the per-status goal counts for one user.
// Overdue overlaps with both InProgress and Completed.
type GoalCounts struct {
	Total      int
	Completed  int
	InProgress int
	Overdue    int
}

// GoalStatus is the derived classification of a single goal.
type GoalStatus struct {
	Completed  bool
	InProgress bool
	Overdue    bool
}

func ClassifyGoal(g SavingGoal, today Date) GoalStatus {
	done := g.Contributed.Cents >= g.Target.Cents
	return GoalStatus{
		Completed:  done,
		InProgress: !done,
		Overdue:    g.Date.Time.Before(today.Time),
	}
}

func CountGoals(goals []SavingGoal, today Date) GoalCounts {
	c := GoalCounts{Total: len(goals)}
	for _, g := range goals {
		s := ClassifyGoal(g, today)
		if s.Completed {
			c.Completed++
		}
		if s.InProgress {
			c.InProgress++
		}
		if s.Overdue {
			c.Overdue++
		}
	}
	return c
}

// Stats renders the four goal metrics in dashboard order.
//
// The in-progress share is rounded half up; the overdue share and the
// completion share are truncated.
func (c GoalCounts) Stats() []GoalStat {
	inProgressPct := int(math.Floor(ratio(c.InProgress, c.Total)*100 + 0.5))
	overduePct := int(ratio(c.Overdue, c.InProgress) * 100)
	completionPct := int(ratio(c.Completed, c.Total) * 100)

	return []GoalStat{
		{
			Insight: fmt.Sprintf("You have completed %d %s", c.Completed, plural(c.Completed)),
			Type:    GoalCompleted,
			Amount:  c.Completed,
		},
		{
			Insight: fmt.Sprintf("You're making progress \u2014 %d %s (%d%%) are still in progress", c.InProgress, plural(c.InProgress), inProgressPct),
			Type:    GoalInProgress,
			Amount:  c.InProgress,
		},
		{
			Insight: fmt.Sprintf("About %d%% of your pending goals are overdue. Time to catch up!", overduePct),
			Type:    GoalOverdue,
			Amount:  c.Overdue,
		},
		{
			Insight: fmt.Sprintf("You have completed %d%% of total goals", completionPct),
			Type:    GoalTotal,
			Amount:  c.Total,
		},
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func plural(n int) string {
	if n > 1 {
		return "goals"
	}
	return "goal"
}
