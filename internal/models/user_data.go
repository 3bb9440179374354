package models

import "time"

// Preferences are the user's display and locale settings.
type Preferences struct {
	Currency Currency `json:"currency"`
	Timezone string   `json:"timezone"`
	Language string   `json:"language"`
}

// AIPersonalization tunes how the assistant talks to the user.
type AIPersonalization struct {
	CommunicationStyle string   `json:"communication_style"`
	FinancialGoals     []string `json:"financial_goals"`
	RiskTolerance      string   `json:"risk_tolerance"`
}

// UserProfile is the per-user identity and preferences record.
type UserProfile struct {
	UserID            string            `json:"user_id"`
	Name              *string           `json:"name"`
	CreatedAt         time.Time         `json:"created_at"`
	LastActiveAt      time.Time         `json:"last_active_at"`
	Platform          string            `json:"platform,omitempty"`
	IsNewUser         bool              `json:"is_new_user"`
	Preferences       Preferences       `json:"preferences"`
	AIPersonalization AIPersonalization `json:"ai_personalization"`
	PendingAction     *PendingAction    `json:"pending_action,omitempty"`
}

// FinancialSummary is derived from the ledgers after every mutation.
type FinancialSummary struct {
	TotalIncome      float64    `json:"total_income"`
	TotalExpenses    float64    `json:"total_expenses"`
	CurrentBalance   float64    `json:"current_balance"`
	TransactionCount int        `json:"transaction_count"`
	LastUpdated      *time.Time `json:"last_updated"`
}

// SavingsEntry is money set aside by the user.
type SavingsEntry struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Currency    Currency  `json:"currency"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Goal is a savings target.
type Goal struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	TargetAmount float64    `json:"target_amount"`
	Currency     Currency   `json:"currency"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// FinancialRecord holds both ledgers and the derived summary.
type FinancialRecord struct {
	Income   []Transaction    `json:"income"`
	Expenses []Transaction    `json:"expenses"`
	Savings  []SavingsEntry   `json:"savings"`
	Goals    []Goal           `json:"goals"`
	Summary  FinancialSummary `json:"summary"`
}

// Ledger returns the slice for the given type.
func (f *FinancialRecord) Ledger(t TransactionType) []Transaction {
	if t == TransactionTypeIncome {
		return f.Income
	}
	return f.Expenses
}

// Recompute derives the summary from the full ledgers.
func (f *FinancialRecord) Recompute(now time.Time) {
	var income, expenses float64
	for _, t := range f.Income {
		income += t.Amount
	}
	for _, t := range f.Expenses {
		expenses += t.Amount
	}
	f.Summary = FinancialSummary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		CurrentBalance:   income - expenses,
		TransactionCount: len(f.Income) + len(f.Expenses),
		LastUpdated:      &now,
	}
}

// HistoryEntry is one logged interaction.
type HistoryEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	ActionType string         `json:"action_type"`
	Data       map[string]any `json:"data"`
}

// HistoryRecord is the bounded interaction log.
type HistoryRecord struct {
	Conversations     []HistoryEntry `json:"conversations"`
	TotalInteractions int            `json:"total_interactions"`
	FirstInteraction  time.Time      `json:"first_interaction"`
	LastInteraction   time.Time      `json:"last_interaction"`
}

// Insight is a stored AI analysis.
type Insight struct {
	Timestamp time.Time        `json:"timestamp"`
	Analysis  string           `json:"analysis"`
	Summary   FinancialSummary `json:"summary"`
	Generated bool             `json:"generated"`
}

// SpendingPattern aggregates expenses for one category.
type SpendingPattern struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
}

// TrainingExample is a user-supplied correction kept for later tuning.
type TrainingExample struct {
	Timestamp time.Time      `json:"timestamp"`
	Input     string         `json:"input"`
	Expected  map[string]any `json:"expected"`
	Notes     string         `json:"notes,omitempty"`
}

// AnalyticsRecord stores derived insights.
type AnalyticsRecord struct {
	SpendingPatterns []SpendingPattern `json:"spending_patterns"`
	AIInsights       []Insight         `json:"ai_insights"`
	Recommendations  []string          `json:"recommendations"`
	TrainingExamples []TrainingExample `json:"training_examples"`
	LastAnalysis     *time.Time        `json:"last_analysis"`
}

// UserData aggregates the four per-user records.
type UserData struct {
	Profile   *UserProfile     `json:"profile"`
	Financial *FinancialRecord `json:"financial"`
	History   *HistoryRecord   `json:"history"`
	Analytics *AnalyticsRecord `json:"analytics"`
}

// NewUserProfile returns the default profile for a new user.
func NewUserProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		IsNewUser:    true,
		Preferences: Preferences{
			Currency: DefaultCurrency,
			Timezone: "America/Lima",
			Language: "es",
		},
		AIPersonalization: AIPersonalization{
			CommunicationStyle: "friendly",
			FinancialGoals:     []string{},
			RiskTolerance:      "moderate",
		},
	}
}

// NewFinancialRecord returns empty ledgers with a zero summary.
func NewFinancialRecord() *FinancialRecord {
	return &FinancialRecord{
		Income:   []Transaction{},
		Expenses: []Transaction{},
		Savings:  []SavingsEntry{},
		Goals:    []Goal{},
	}
}

// NewHistoryRecord returns an empty history.
func NewHistoryRecord(now time.Time) *HistoryRecord {
	return &HistoryRecord{
		Conversations:    []HistoryEntry{},
		FirstInteraction: now,
		LastInteraction:  now,
	}
}

// NewAnalyticsRecord returns empty analytics.
func NewAnalyticsRecord() *AnalyticsRecord {
	return &AnalyticsRecord{
		SpendingPatterns: []SpendingPattern{},
		AIInsights:       []Insight{},
		Recommendations:  []string{},
		TrainingExamples: []TrainingExample{},
	}
}
