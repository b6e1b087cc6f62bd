package core

import "time"

const (
	StrategyDelta         Strategy = "delta"
	StrategyEditDelta     Strategy = "edit_delta"
	StrategyRecompute     Strategy = "recompute"
	StrategyGoalRecompute Strategy = "goal_recompute"
	StrategyDeclared      Strategy = "declared"
)

const (
	EventTransactionAdded     EventType = "transaction.added"
	EventTransactionUpdated   EventType = "transaction.updated"
	EventTransactionDeleted   EventType = "transaction.deleted"
	EventTransactionsDeleted  EventType = "transactions.deleted"
	EventTransactionsImported EventType = "transactions.imported"
	EventGoalCreated          EventType = "goal.created"
	EventGoalUpdated          EventType = "goal.updated"
	EventGoalContributed      EventType = "goal.contributed"
	EventGoalDeleted          EventType = "goal.deleted"
	EventBalanceDeclared      EventType = "balance.declared"
	EventBalanceRepaired      EventType = "balance.repaired"
)

// Strategy names how a cached balance was brought back in line.
type Strategy string

type EventType string

// LedgerEvent is emitted after a mutation commits.
type LedgerEvent struct {
	Type       EventType
	UserID     int64
	AccountIDs []int64
	Strategy   Strategy
	Count      int // rows touched
	OccurredAt time.Time
}
