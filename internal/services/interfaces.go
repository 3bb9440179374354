package services

import (
	"context"

	"sofia/internal/models"
)

// UserDataServicer defines the contract for the per-user record store.
type UserDataServicer interface {
	EnsureUserNamespace(userID string) (string, error)
	GetUserData(ctx context.Context, userID string) (*models.UserData, error)

	LoadProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	LoadFinancial(ctx context.Context, userID string) (*models.FinancialRecord, error)
	LoadHistory(ctx context.Context, userID string) (*models.HistoryRecord, error)
	LoadAnalytics(ctx context.Context, userID string) (*models.AnalyticsRecord, error)

	SaveProfile(ctx context.Context, userID string, profile *models.UserProfile) error
	SaveFinancial(ctx context.Context, userID string, financial *models.FinancialRecord) error
	SaveHistory(ctx context.Context, userID string, history *models.HistoryRecord) error
	SaveAnalytics(ctx context.Context, userID string, analytics *models.AnalyticsRecord) error

	AddToHistory(ctx context.Context, userID, actionType string, data map[string]any) error
	ClearHistory(ctx context.Context, userID string) error
	RecordActivity(ctx context.Context, userID, platform string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.UserProfile, error)
	AddTrainingExample(ctx context.Context, userID string, example models.TrainingExample) error
}

// LedgerServicer defines the contract for income and expense bookkeeping.
type LedgerServicer interface {
	RegisterIncome(ctx context.Context, userID string, in IncomeInput) (*models.Transaction, error)
	RegisterExpense(ctx context.Context, userID string, in ExpenseInput) (*models.Transaction, error)
	EditTransaction(ctx context.Context, userID, transactionID string, txType models.TransactionType, changes models.ChangeSet) (*EditResult, error)
	FindRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Candidate, error)
	IdentifyTransactionByDescription(ctx context.Context, userID, description string) (*Identification, error)
	Summary(ctx context.Context, userID string) (*FinancialOverview, error)
	GenerateAnalysis(ctx context.Context, userID string) (*models.Insight, error)
}

// DetectorServicer defines the contract for reading intent out of messages.
type DetectorServicer interface {
	Analyze(ctx context.Context, message string) Detection
	ExtractChanges(ctx context.Context, message string, target models.Candidate) models.ChangeSet
	ConfirmationMessage(ctx context.Context, txn *models.Transaction) string
	ExtractName(ctx context.Context, message string) string
}

// EditFlowServicer defines the contract for the multi-turn edit conversation.
type EditFlowServicer interface {
	Resume(ctx context.Context, userID, message string) (reply string, handled bool, err error)
	Start(ctx context.Context, userID string, req EditRequest) (string, error)
	Cancel(ctx context.Context, userID string) error
}

// AssistantServicer defines the contract for the conversation entry point.
type AssistantServicer interface {
	HandleMessage(ctx context.Context, msg InboundMessage) string
	ClearConversation(ctx context.Context, userID string) error
	Status() AssistantStatus
}
