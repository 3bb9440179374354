package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sofia/internal/models"
	"sofia/internal/records"
	"sofia/internal/services"
	"sofia/internal/testutil"
	"sofia/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func newStore() services.UserDataServicer {
	return services.NewUserDataService(records.NewMemory(), testutil.NewClock(), 100)
}

// --- mock assistant ---

type mockAssistant struct {
	handleMessageFn     func(ctx context.Context, msg services.InboundMessage) string
	clearConversationFn func(ctx context.Context, userID string) error
	status              services.AssistantStatus
}

func (m *mockAssistant) HandleMessage(ctx context.Context, msg services.InboundMessage) string {
	if m.handleMessageFn != nil {
		return m.handleMessageFn(ctx, msg)
	}
	return "ok"
}

func (m *mockAssistant) ClearConversation(ctx context.Context, userID string) error {
	if m.clearConversationFn != nil {
		return m.clearConversationFn(ctx, userID)
	}
	return nil
}

func (m *mockAssistant) Status() services.AssistantStatus {
	return m.status
}

// --- mock ledger ---

type mockLedger struct {
	registerIncomeFn   func(ctx context.Context, userID string, in services.IncomeInput) (*models.Transaction, error)
	registerExpenseFn  func(ctx context.Context, userID string, in services.ExpenseInput) (*models.Transaction, error)
	editTransactionFn  func(ctx context.Context, userID, id string, t models.TransactionType, changes models.ChangeSet) (*services.EditResult, error)
	findRecentFn       func(ctx context.Context, userID string, limit int) ([]models.Candidate, error)
	identifyFn         func(ctx context.Context, userID, description string) (*services.Identification, error)
	summaryFn          func(ctx context.Context, userID string) (*services.FinancialOverview, error)
	generateAnalysisFn func(ctx context.Context, userID string) (*models.Insight, error)
}

func (m *mockLedger) RegisterIncome(ctx context.Context, userID string, in services.IncomeInput) (*models.Transaction, error) {
	if m.registerIncomeFn != nil {
		return m.registerIncomeFn(ctx, userID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockLedger) RegisterExpense(ctx context.Context, userID string, in services.ExpenseInput) (*models.Transaction, error) {
	if m.registerExpenseFn != nil {
		return m.registerExpenseFn(ctx, userID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockLedger) EditTransaction(ctx context.Context, userID, id string, t models.TransactionType, changes models.ChangeSet) (*services.EditResult, error) {
	if m.editTransactionFn != nil {
		return m.editTransactionFn(ctx, userID, id, t, changes)
	}
	return &services.EditResult{}, nil
}

func (m *mockLedger) FindRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Candidate, error) {
	if m.findRecentFn != nil {
		return m.findRecentFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockLedger) IdentifyTransactionByDescription(ctx context.Context, userID, description string) (*services.Identification, error) {
	if m.identifyFn != nil {
		return m.identifyFn(ctx, userID, description)
	}
	return &services.Identification{}, nil
}

func (m *mockLedger) Summary(ctx context.Context, userID string) (*services.FinancialOverview, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, userID)
	}
	return &services.FinancialOverview{}, nil
}

func (m *mockLedger) GenerateAnalysis(ctx context.Context, userID string) (*models.Insight, error) {
	if m.generateAnalysisFn != nil {
		return m.generateAnalysisFn(ctx, userID)
	}
	return &models.Insight{}, nil
}

// verify interface compliance
var (
	_ services.AssistantServicer = (*mockAssistant)(nil)
	_ services.LedgerServicer    = (*mockLedger)(nil)
)
