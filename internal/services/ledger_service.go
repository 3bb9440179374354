package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sofia/internal/ai"
	"sofia/internal/clock"
	apperrors "sofia/internal/errors"
	"sofia/internal/lexicon"
	"sofia/internal/logger"
	"sofia/internal/models"
	"sofia/internal/uuid"
	"sofia/internal/validator"
)

const (
	identifyCandidateLimit = 10
	summaryRecentLimit     = 5
)

// IncomeInput is a request to record income.
type IncomeInput struct {
	Amount      any             `json:"amount" binding:"required"`
	Source      string          `json:"source" binding:"max=100"`
	Description string          `json:"description" binding:"max=500"`
	Currency    models.Currency `json:"currency" binding:"omitempty,currency_code"`
}

// ExpenseInput is a request to record an expense.
type ExpenseInput struct {
	Amount      any             `json:"amount" binding:"required"`
	Category    string          `json:"category" binding:"max=100"`
	Description string          `json:"description" binding:"max=500"`
	Currency    models.Currency `json:"currency" binding:"omitempty,currency_code"`
}

// EditResult is the outcome of EditTransaction.
type EditResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Original    models.Transaction  `json:"original"`
	Message     string              `json:"message"`
}

// Identification is the outcome of IdentifyTransactionByDescription.
// Either Transaction is set, or NeedsMoreInfo is true and Candidates lists
// the transactions the user should choose from.
type Identification struct {
	Transaction   *models.Candidate  `json:"transaction,omitempty"`
	NeedsMoreInfo bool               `json:"needs_more_info"`
	Candidates    []models.Candidate `json:"candidates,omitempty"`
	Method        string             `json:"method"`
}

// FinancialOverview is the summary returned to clients.
type FinancialOverview struct {
	Name               *string                 `json:"name"`
	Currency           models.Currency         `json:"currency"`
	Summary            models.FinancialSummary `json:"summary"`
	RecentTransactions []models.Candidate      `json:"recent_transactions"`
}

type expenseClassification struct {
	Classification string `json:"classification" validate:"required,expense_class"`
	BudgetImpact   string `json:"budgetImpact" validate:"required,budget_impact"`
}

type incomeClassification struct {
	Classification string `json:"classification" validate:"required,income_class"`
}

// ledgerService handles income and expense bookkeeping on top of the
// per-user store.
type ledgerService struct {
	store UserDataServicer
	ai    ai.Completer
	clock clock.Clock
	lex   *lexicon.Lexicon
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(store UserDataServicer, completer ai.Completer, clk clock.Clock) LedgerServicer {
	if completer == nil {
		completer = ai.Disabled{}
	}
	return &ledgerService{store: store, ai: completer, clock: clk, lex: lexicon.Default()}
}

// RegisterIncome appends an income entry and recomputes the summary.
func (s *ledgerService) RegisterIncome(ctx context.Context, userID string, in IncomeInput) (*models.Transaction, error) {
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = models.DefaultIncomeSource
	}
	txn, err := s.newTransaction(models.TransactionTypeIncome, in.Amount, in.Description, in.Currency)
	if err != nil {
		return nil, err
	}
	txn.Source = source
	if txn.Description == "" {
		txn.Description = source
	}
	txn.AIClassification = s.classifyIncome(ctx, txn)

	if err := s.appendTransaction(ctx, userID, txn); err != nil {
		return nil, err
	}
	s.logHistory(ctx, userID, "income_registered", map[string]any{
		"transaction_id": txn.ID,
		"amount":         txn.Amount,
		"source":         txn.Source,
		"currency":       txn.Currency,
		"ai_analysis":    txn.AIClassification,
	})
	return txn, nil
}

// RegisterExpense appends an expense entry and recomputes the summary.
func (s *ledgerService) RegisterExpense(ctx context.Context, userID string, in ExpenseInput) (*models.Transaction, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	txn, err := s.newTransaction(models.TransactionTypeExpense, in.Amount, in.Description, in.Currency)
	if err != nil {
		return nil, err
	}
	txn.Category = category
	if txn.Description == "" {
		txn.Description = category
	}
	txn.AIClassification, txn.BudgetImpact = s.classifyExpense(ctx, userID, txn)

	if err := s.appendTransaction(ctx, userID, txn); err != nil {
		return nil, err
	}
	s.logHistory(ctx, userID, "expense_registered", map[string]any{
		"transaction_id": txn.ID,
		"amount":         txn.Amount,
		"category":       txn.Category,
		"currency":       txn.Currency,
		"ai_analysis":    txn.AIClassification,
		"budget_impact":  txn.BudgetImpact,
	})
	return txn, nil
}

func (s *ledgerService) newTransaction(t models.TransactionType, rawAmount any, description string, currency models.Currency) (*models.Transaction, error) {
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}
	if !currency.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be soles, dolares or pesos")
	}
	now := s.clock.Now()
	return &models.Transaction{
		ID:          uuid.NewAt(now),
		Type:        t,
		Amount:      amount,
		Currency:    currency,
		Description: models.TruncateRunes(strings.TrimSpace(description), models.MaxDescriptionLength),
		Timestamp:   now,
	}, nil
}

func (s *ledgerService) appendTransaction(ctx context.Context, userID string, txn *models.Transaction) error {
	financial, err := s.store.LoadFinancial(ctx, userID)
	if err != nil {
		return err
	}
	if txn.Type == models.TransactionTypeIncome {
		financial.Income = append(financial.Income, *txn)
	} else {
		financial.Expenses = append(financial.Expenses, *txn)
	}
	financial.Recompute(s.clock.Now())
	return s.store.SaveFinancial(ctx, userID, financial)
}

// logHistory records a ledger event. The ledger write has already
// succeeded, so a history failure is logged rather than returned.
func (s *ledgerService) logHistory(ctx context.Context, userID, action string, data map[string]any) {
	if err := s.store.AddToHistory(ctx, userID, action, data); err != nil {
		logger.ForUser(userID).Warnw("Failed to record history entry", "action", action, "error", err)
	}
}

func (s *ledgerService) classifyIncome(ctx context.Context, txn *models.Transaction) string {
	prompt := fmt.Sprintf(`Clasifica este ingreso en UNA de estas categorías: %s.
Ingreso: %s de "%s" (%s).
Responde SOLO con JSON: {"classification": "<categoría>"}`,
		strings.Join(validator.IncomeClasses, ", "), txn.Currency.Format(txn.Amount), txn.Source, txn.Description)

	raw, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 50})
	if err != nil {
		return "other"
	}
	out, err := ai.DecodeJSON[incomeClassification](raw)
	if err != nil {
		return "other"
	}
	return out.Classification
}

// classifyExpense asks for a class and a budget impact. The impact weighs
// the new amount against total income and the category's earlier spending.
func (s *ledgerService) classifyExpense(ctx context.Context, userID string, txn *models.Transaction) (string, string) {
	var (
		income        float64
		categoryTotal float64
		categoryCount int
	)
	if financial, err := s.store.LoadFinancial(ctx, userID); err == nil {
		income = financial.Summary.TotalIncome
		category := lexicon.Normalize(txn.Category)
		for _, e := range financial.Expenses {
			if lexicon.Normalize(e.Category) == category {
				categoryTotal += e.Amount
				categoryCount++
			}
		}
	}
	prompt := fmt.Sprintf(`Clasifica este gasto en UNA de estas categorías: %s.
Evalúa también su impacto en el presupuesto (%s) considerando ingresos totales de %s.
Historial de "%s": %d gastos previos por un total de %s.
Gasto: %s en "%s" (%s).
Responde SOLO con JSON: {"classification": "<categoría>", "budgetImpact": "<impacto>"}`,
		strings.Join(validator.ExpenseClasses, ", "), strings.Join(validator.BudgetImpacts, ", "),
		txn.Currency.Format(income), txn.Category, categoryCount, txn.Currency.Format(categoryTotal),
		txn.Currency.Format(txn.Amount), txn.Category, txn.Description)

	raw, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 80})
	if err != nil {
		return "discretionary", "medium"
	}
	out, err := ai.DecodeJSON[expenseClassification](raw)
	if err != nil {
		return "discretionary", "medium"
	}
	return out.Classification, out.BudgetImpact
}

// EditTransaction overwrites the supplied fields of one transaction and
// records a before/after snapshot.
func (s *ledgerService) EditTransaction(ctx context.Context, userID, transactionID string, txType models.TransactionType, changes models.ChangeSet) (*EditResult, error) {
	if !txType.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if changes.IsEmpty() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "no changes supplied")
	}
	if err := validator.Struct(changes); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid changes: "+err.Error())
	}

	financial, err := s.store.LoadFinancial(ctx, userID)
	if err != nil {
		return nil, err
	}

	ledger := financial.Ledger(txType)
	idx := -1
	for i := range ledger {
		if ledger[i].ID == transactionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, apperrors.ErrTransactionNotFound
	}

	txn := ledger[idx]
	original := txn.Snapshot()
	applyChanges(&txn, changes)

	now := s.clock.Now()
	txn.LastEdited = &now
	txn.EditHistory = append(txn.EditHistory, models.EditSnapshot{
		Timestamp:    now,
		OriginalData: original,
		NewData:      txn.Snapshot(),
	})
	ledger[idx] = txn

	financial.Recompute(now)
	if err := s.store.SaveFinancial(ctx, userID, financial); err != nil {
		return nil, err
	}

	s.logHistory(ctx, userID, string(txType)+"_edited", map[string]any{
		"transaction_id":  txn.ID,
		"original_amount": original.Amount,
		"new_amount":      txn.Amount,
		"changes":         changes.Describe(original.Currency),
	})

	return &EditResult{
		Transaction: &txn,
		Original:    original,
		Message:     s.editMessage(ctx, original, txn),
	}, nil
}

func applyChanges(txn *models.Transaction, c models.ChangeSet) {
	if c.Amount != nil {
		txn.Amount = *c.Amount
	}
	if c.Currency != nil {
		txn.Currency = *c.Currency
	}
	if c.Description != nil {
		txn.Description = models.TruncateRunes(strings.TrimSpace(*c.Description), models.MaxDescriptionLength)
	}
	// A label change applies to whichever field the ledger uses.
	label := c.Category
	if txn.Type == models.TransactionTypeIncome && c.Source != nil {
		label = c.Source
	} else if txn.Type == models.TransactionTypeExpense && label == nil {
		label = c.Source
	}
	if label != nil {
		if txn.Type == models.TransactionTypeIncome {
			txn.Source = *label
		} else {
			txn.Category = *label
		}
	}
}

func (s *ledgerService) editMessage(ctx context.Context, before, after models.Transaction) string {
	prompt := fmt.Sprintf(`Confirma al usuario, en una sola frase amable en español con un emoji, que su %s fue modificado.
Antes: %s (%s). Ahora: %s (%s).`,
		after.Type.Label(), before.Currency.Format(before.Amount), before.Label(),
		after.Currency.Format(after.Amount), after.Label())

	text, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 120})
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if after.Type == models.TransactionTypeIncome {
		return "✅ He modificado tu ingreso correctamente 📊"
	}
	return "✅ He actualizado tu gasto según lo solicitado 📊"
}

// FindRecentTransactions returns up to limit of the newest transactions
// across both ledgers, newest first.
func (s *ledgerService) FindRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = identifyCandidateLimit
	}
	financial, err := s.store.LoadFinancial(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Candidate, 0, 2*limit)
	for _, t := range tail(financial.Income, limit) {
		out = append(out, toCandidate(t))
	}
	for _, t := range tail(financial.Expenses, limit) {
		out = append(out, toCandidate(t))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func tail(ts []models.Transaction, n int) []models.Transaction {
	if len(ts) <= n {
		return ts
	}
	return ts[len(ts)-n:]
}

func toCandidate(t models.Transaction) models.Candidate {
	c := models.Candidate{
		ID:       t.ID,
		Type:     t.Type,
		Amount:   t.Amount,
		Currency: t.Currency,
		Date:     t.Timestamp,
	}
	if t.Type == models.TransactionTypeIncome {
		c.Category = t.Source
		c.Description = firstNonEmpty(t.Description, t.Source, "Ingreso")
		c.Details = fmt.Sprintf("%s de %s", t.Currency.Format(t.Amount), firstNonEmpty(t.Source, "ingreso"))
	} else {
		c.Category = firstNonEmpty(t.Category, "General")
		c.Description = firstNonEmpty(t.Description, "Gasto")
		c.Details = fmt.Sprintf("%s en %s", t.Currency.Format(t.Amount), c.Category)
	}
	return c
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var firstInteger = regexp.MustCompile(`\d+`)

// IdentifyTransactionByDescription picks the recent transaction the user
// is talking about.
func (s *ledgerService) IdentifyTransactionByDescription(ctx context.Context, userID, description string) (*Identification, error) {
	candidates, err := s.FindRecentTransactions(ctx, userID, identifyCandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperrors.ErrNoTransactions
	}

	var list strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&list, "%d. %s: %s - %s (%s)\n",
			i+1, typeTitle(c.Type), c.Details, c.Description, c.Date.Format("2006-01-02"))
	}
	prompt := fmt.Sprintf(`El usuario quiere editar una transacción y la describe así: "%s".
Transacciones recientes:
%s
Responde SOLO con el número de la transacción que mejor coincide, o 0 si no estás seguro.`,
		description, list.String())

	reply, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 10})
	if err != nil {
		logger.ForUser(userID).Debugw("Identifying transaction by keywords", "reason", err)
		return s.identifyByKeywords(description, candidates), nil
	}

	if m := firstInteger.FindString(reply); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= len(candidates) {
			picked := candidates[n-1]
			return &Identification{Transaction: &picked, Method: "ai"}, nil
		}
	}
	return &Identification{NeedsMoreInfo: true, Candidates: candidates, Method: "ai"}, nil
}

// identifyByKeywords scores candidates by overlap with the description: the
// amount, the category and the words of the candidate's own description.
// A unique best score wins.
func (s *ledgerService) identifyByKeywords(description string, candidates []models.Candidate) *Identification {
	tokens := lexicon.Tokens(description)
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}
	amounts := mentionedAmounts(description)

	scores := make([]int, len(candidates))
	best := 0
	for i, c := range candidates {
		score := 0
		if amounts[c.Amount] {
			score += 2
		}
		if c.Category != "" && lexicon.HasPhrase(description, []string{lexicon.Normalize(c.Category)}) {
			score += 2
		}
		for _, w := range lexicon.Tokens(c.Description) {
			if len([]rune(w)) >= 3 && !s.lex.IsStopword(w) && present[w] {
				score++
			}
		}
		scores[i] = score
		if score > best {
			best = score
		}
	}

	if best == 0 {
		return &Identification{NeedsMoreInfo: true, Candidates: candidates, Method: "keywords"}
	}
	var top []models.Candidate
	for i, c := range candidates {
		if scores[i] == best {
			top = append(top, c)
		}
	}
	if len(top) == 1 {
		return &Identification{Transaction: &top[0], Method: "keywords"}
	}
	return &Identification{NeedsMoreInfo: true, Candidates: top, Method: "keywords"}
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// mentionedAmounts returns every number written in text.
func mentionedAmounts(text string) map[float64]bool {
	out := make(map[float64]bool)
	for _, m := range numberPattern.FindAllString(text, -1) {
		if f, err := ParseAmount(m); err == nil {
			out[f] = true
		}
	}
	return out
}

func typeTitle(t models.TransactionType) string {
	if t == models.TransactionTypeIncome {
		return "Ingreso"
	}
	return "Gasto"
}

// Summary returns the financial summary with the newest transactions.
func (s *ledgerService) Summary(ctx context.Context, userID string) (*FinancialOverview, error) {
	profile, err := s.store.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	financial, err := s.store.LoadFinancial(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.FindRecentTransactions(ctx, userID, summaryRecentLimit)
	if err != nil {
		return nil, err
	}
	return &FinancialOverview{
		Name:               profile.Name,
		Currency:           profile.Preferences.Currency,
		Summary:            financial.Summary,
		RecentTransactions: recent,
	}, nil
}

// GenerateAnalysis computes spending patterns and asks the AI for an
// analysis, storing both in analytics.
func (s *ledgerService) GenerateAnalysis(ctx context.Context, userID string) (*models.Insight, error) {
	overview, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	financial, err := s.store.LoadFinancial(ctx, userID)
	if err != nil {
		return nil, err
	}
	analytics, err := s.store.LoadAnalytics(ctx, userID)
	if err != nil {
		return nil, err
	}

	patterns := spendingPatterns(financial.Expenses)
	recommendations := recommend(financial.Summary, patterns, overview.Currency)

	var b strings.Builder
	fmt.Fprintf(&b, "Ingresos totales: %s\nGastos totales: %s\nBalance: %s\nTransacciones: %d\n",
		overview.Currency.Format(financial.Summary.TotalIncome),
		overview.Currency.Format(financial.Summary.TotalExpenses),
		overview.Currency.Format(financial.Summary.CurrentBalance),
		financial.Summary.TransactionCount)
	for _, p := range patterns {
		fmt.Fprintf(&b, "- %s: %s (%d gastos, %.0f%%)\n", p.Category, overview.Currency.Format(p.Total), p.Count, p.Share*100)
	}
	prompt := "Analiza la situación financiera de este usuario y dale 3 recomendaciones concretas y breves en español:\n" + b.String()

	now := s.clock.Now()
	insight := models.Insight{Timestamp: now, Summary: financial.Summary}
	text, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt})
	if err == nil && strings.TrimSpace(text) != "" {
		insight.Analysis = strings.TrimSpace(text)
		insight.Generated = true
	} else {
		insight.Analysis = "📊 Resumen de tus finanzas:\n" + b.String() + strings.Join(recommendations, "\n")
	}

	analytics.SpendingPatterns = patterns
	analytics.Recommendations = recommendations
	analytics.AIInsights = append(analytics.AIInsights, insight)
	analytics.LastAnalysis = &now
	if err := s.store.SaveAnalytics(ctx, userID, analytics); err != nil {
		return nil, err
	}
	return &insight, nil
}

func spendingPatterns(expenses []models.Transaction) []models.SpendingPattern {
	totals := make(map[string]*models.SpendingPattern)
	var grand float64
	for _, e := range expenses {
		cat := firstNonEmpty(e.Category, models.DefaultCategory)
		p, ok := totals[cat]
		if !ok {
			p = &models.SpendingPattern{Category: cat}
			totals[cat] = p
		}
		p.Total += e.Amount
		p.Count++
		grand += e.Amount
	}
	out := make([]models.SpendingPattern, 0, len(totals))
	for _, p := range totals {
		if grand > 0 {
			p.Share = p.Total / grand
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func recommend(summary models.FinancialSummary, patterns []models.SpendingPattern, cur models.Currency) []string {
	var out []string
	if summary.TransactionCount == 0 {
		return []string{"💡 Empieza registrando tus ingresos y gastos para recibir recomendaciones."}
	}
	if summary.TotalExpenses > summary.TotalIncome {
		out = append(out, fmt.Sprintf("⚠️ Tus gastos superan tus ingresos por %s. Revisa tus gastos no esenciales.",
			cur.Format(summary.TotalExpenses-summary.TotalIncome)))
	} else if summary.TotalIncome > 0 {
		rate := summary.CurrentBalance / summary.TotalIncome
		if rate < 0.2 {
			out = append(out, "💡 Intenta ahorrar al menos el 20% de tus ingresos.")
		} else {
			out = append(out, fmt.Sprintf("🎉 Estás ahorrando el %.0f%% de tus ingresos. ¡Sigue así!", rate*100))
		}
	}
	if len(patterns) > 0 && patterns[0].Share >= 0.5 {
		out = append(out, fmt.Sprintf("🔍 La mitad o más de tus gastos va a %s.", patterns[0].Category))
	}
	return out
}
