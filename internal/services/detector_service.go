package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sofia/internal/ai"
	apperrors "sofia/internal/errors"
	"sofia/internal/lexicon"
	"sofia/internal/logger"
	"sofia/internal/models"
	"sofia/internal/validator"
)

// DetectionKind classifies an inbound message.
type DetectionKind string

const (
	DetectionNone        DetectionKind = "none"
	DetectionTransaction DetectionKind = "transaction"
	DetectionEdit        DetectionKind = "edit"
)

// TransactionExtraction is a new transaction read out of a message.
type TransactionExtraction struct {
	HasTransaction bool                   `json:"has_transaction"`
	Type           models.TransactionType `json:"type" validate:"required,txn_type"`
	Amount         float64                `json:"amount" validate:"gt=0"`
	Currency       models.Currency        `json:"currency" validate:"required,currency_code"`
	Source         string                 `json:"source,omitempty" validate:"max=100"`
	Category       string                 `json:"category,omitempty" validate:"max=100"`
	Description    string                 `json:"description" validate:"max=200"`
	Confidence     float64                `json:"confidence" validate:"gte=0,lte=1"`
}

// EditRequest is a request to change an existing transaction.
type EditRequest struct {
	Description     string                 `json:"description"`
	TransactionType models.TransactionType `json:"transaction_type,omitempty" validate:"omitempty,txn_type"`
	Changes         models.ChangeSet       `json:"changes"`
}

// Detection is the outcome of Analyze.
type Detection struct {
	Kind        DetectionKind          `json:"kind"`
	Transaction *TransactionExtraction `json:"transaction,omitempty"`
	Edit        *EditRequest           `json:"edit,omitempty"`
	Method      string                 `json:"method,omitempty"`
}

// aiExtraction is the raw model reply for a transaction. Amount may come
// back as a number or a string.
type aiExtraction struct {
	HasTransaction bool    `json:"hasTransaction"`
	Type           string  `json:"type"`
	Amount         any     `json:"amount"`
	Currency       string  `json:"currency"`
	Source         string  `json:"source"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	Confidence     float64 `json:"confidence"`
}

type aiChangeSet struct {
	Amount      any     `json:"amount"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Source      *string `json:"source"`
	Currency    *string `json:"currency"`
}

type aiEdit struct {
	IsEdit          bool        `json:"isEdit"`
	Description     string      `json:"description"`
	TransactionType string      `json:"transactionType"`
	Changes         aiChangeSet `json:"changes"`
}

const (
	fallbackConfidence      = 0.6
	fallbackIncomeSource    = "trabajo"
	fallbackExpenseCategory = "varios"
	maxFallbackDescription  = 100
)

// detectorService reads transactions and edit requests out of messages.
type detectorService struct {
	ai  ai.Completer
	lex *lexicon.Lexicon
}

// NewDetectorService creates a new DetectorServicer.
func NewDetectorService(completer ai.Completer, lex *lexicon.Lexicon) DetectorServicer {
	if completer == nil {
		completer = ai.Disabled{}
	}
	if lex == nil {
		lex = lexicon.Default()
	}
	return &detectorService{ai: completer, lex: lex}
}

// Analyze decides whether message records a transaction, asks for an edit,
// or is neither.
func (s *detectorService) Analyze(ctx context.Context, message string) Detection {
	if strings.TrimSpace(message) == "" {
		return Detection{Kind: DetectionNone}
	}

	if lexicon.ContainsAny(message, s.lex.Edit) {
		if edit, method := s.analyzeEdit(ctx, message); edit != nil {
			return Detection{Kind: DetectionEdit, Edit: edit, Method: method}
		}
	}

	if !lexicon.ContainsAny(message, s.lex.Financial) {
		return Detection{Kind: DetectionNone}
	}

	if ext, method := s.extractTransaction(ctx, message); ext != nil {
		return Detection{Kind: DetectionTransaction, Transaction: ext, Method: method}
	}
	return Detection{Kind: DetectionNone}
}

func (s *detectorService) extractTransaction(ctx context.Context, message string) (*TransactionExtraction, string) {
	prompt := fmt.Sprintf(`Analiza este mensaje y determina si registra un ingreso o un gasto.
Mensaje: "%s"

Responde SOLO con JSON:
{"hasTransaction": true|false, "type": "income"|"expense", "amount": número, "currency": "soles"|"dolares"|"pesos", "source": "fuente del ingreso", "category": "categoría del gasto", "description": "descripción breve", "confidence": 0.0-1.0}
Si no se menciona moneda usa "soles".`, message)

	raw, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 200})
	if err == nil {
		ext, decodeErr := s.decodeExtraction(raw)
		if decodeErr == nil {
			return ext, "ai"
		}
		logger.Named("detector").Debugw("Discarding AI extraction", "error", decodeErr)
	}

	ext := s.fallbackExtraction(message)
	if ext == nil {
		return nil, ""
	}
	return ext, "keywords"
}

// decodeExtraction returns (nil, nil) when the model says there is no
// transaction.
func (s *detectorService) decodeExtraction(raw string) (*TransactionExtraction, error) {
	var out aiExtraction
	if err := decodeLoose(raw, &out); err != nil {
		return nil, err
	}
	if !out.HasTransaction {
		return nil, nil
	}
	amount, err := ParseAmount(out.Amount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrAIMalformed, err)
	}
	currency := models.DefaultCurrency
	if out.Currency != "" {
		currency = models.ParseCurrency(out.Currency)
	}
	ext := &TransactionExtraction{
		HasTransaction: true,
		Type:           models.TransactionType(strings.ToLower(out.Type)),
		Amount:         amount,
		Currency:       currency,
		Source:         strings.TrimSpace(out.Source),
		Category:       strings.TrimSpace(out.Category),
		Description:    models.TruncateRunes(strings.TrimSpace(out.Description), models.MaxDescriptionLength),
		Confidence:     out.Confidence,
	}
	if err := validator.Struct(ext); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrAIMalformed, err)
	}
	return ext, nil
}

// fallbackExtraction reads the first number as the amount. Income
// keywords make it income, anything else is an expense.
func (s *detectorService) fallbackExtraction(message string) *TransactionExtraction {
	amounts := numberPattern.FindAllString(message, -1)
	if len(amounts) == 0 {
		return nil
	}
	amount, err := ParseAmount(amounts[0])
	if err != nil {
		return nil
	}

	ext := &TransactionExtraction{
		HasTransaction: true,
		Amount:         amount,
		Currency:       s.currencyCue(message),
		Description:    models.TruncateRunes(strings.TrimSpace(message), maxFallbackDescription),
		Confidence:     fallbackConfidence,
	}
	if lexicon.ContainsAny(message, s.lex.Income) {
		ext.Type = models.TransactionTypeIncome
		ext.Source = fallbackIncomeSource
	} else {
		ext.Type = models.TransactionTypeExpense
		ext.Category = fallbackExpenseCategory
	}
	return ext
}

var dollarCue = regexp.MustCompile(`\$|\bdolar(es)?\b|\busd\b`)

// currencyCue defaults to soles unless the text names pesos or dollars.
func (s *detectorService) currencyCue(message string) models.Currency {
	n := lexicon.Normalize(message)
	switch {
	case strings.Contains(n, "peso"):
		return models.CurrencyPesos
	case dollarCue.MatchString(n):
		return models.CurrencyDolares
	default:
		return models.CurrencySoles
	}
}

// explicitCurrency is currencyCue without the default.
func (s *detectorService) explicitCurrency(message string) *models.Currency {
	n := lexicon.Normalize(message)
	var c models.Currency
	switch {
	case strings.Contains(n, "peso"):
		c = models.CurrencyPesos
	case dollarCue.MatchString(n):
		c = models.CurrencyDolares
	case lexicon.HasPhrase(n, []string{"soles", "sol"}) || strings.Contains(n, "s/"):
		c = models.CurrencySoles
	default:
		return nil
	}
	return &c
}

func (s *detectorService) analyzeEdit(ctx context.Context, message string) (*EditRequest, string) {
	prompt := fmt.Sprintf(`El usuario podría querer editar una transacción ya registrada.
Mensaje: "%s"

Responde SOLO con JSON:
{"isEdit": true|false, "description": "cómo identifica la transacción", "transactionType": "income"|"expense"|"", "changes": {"amount": número, "category": "...", "source": "...", "description": "...", "currency": "soles"|"dolares"|"pesos"}}
Incluye en "changes" solo los campos que el usuario quiere cambiar.`, message)

	raw, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 200})
	if err == nil {
		var out aiEdit
		if decodeErr := decodeLoose(raw, &out); decodeErr == nil {
			if !out.IsEdit {
				return nil, ""
			}
			changes, chErr := toChangeSet(out.Changes)
			req := &EditRequest{
				Description:     firstNonEmpty(strings.TrimSpace(out.Description), message),
				TransactionType: models.TransactionType(strings.ToLower(out.TransactionType)),
				Changes:         changes,
			}
			if chErr == nil && validator.Struct(req) == nil {
				return req, "ai"
			}
		}
	}

	return s.fallbackEdit(message), "keywords"
}

var editMarker = regexp.MustCompile(`(?:^|\s)(?:a|por|era|eran|sea|sean|es|son|ahora)\s+`)

// fallbackEdit guesses the ledger from keywords. New values are read from
// the text after the last marker word ("a", "por", "son"...). Without a
// marker a lone number is the new amount, and of several numbers the last
// one is.
func (s *detectorService) fallbackEdit(message string) *EditRequest {
	req := &EditRequest{Description: message}

	income := lexicon.ContainsAny(message, s.lex.EditIncome)
	expense := lexicon.ContainsAny(message, s.lex.EditExpense)
	switch {
	case expense && !income:
		req.TransactionType = models.TransactionTypeExpense
	case income && !expense:
		req.TransactionType = models.TransactionTypeIncome
	}

	n := lexicon.Normalize(message)
	if locs := editMarker.FindAllStringIndex(n, -1); len(locs) > 0 {
		tail := n[locs[len(locs)-1][1]:]
		req.Changes = s.fallbackChanges(tail, req.TransactionType)
		return req
	}

	if nums := numberPattern.FindAllString(n, -1); len(nums) > 0 {
		if amount, err := ParseAmount(nums[len(nums)-1]); err == nil {
			req.Changes.Amount = &amount
		}
	}
	return req
}

// ExtractChanges reads the requested new values for target out of a reply.
func (s *detectorService) ExtractChanges(ctx context.Context, message string, target models.Candidate) models.ChangeSet {
	prompt := fmt.Sprintf(`El usuario quiere modificar este %s: %s - %s.
Su mensaje: "%s"

Responde SOLO con JSON que contenga únicamente los campos que cambian:
{"amount": número, "category": "...", "source": "...", "description": "...", "currency": "soles"|"dolares"|"pesos"}
Si no pide ningún cambio responde {}.`, target.Type.Label(), target.Details, target.Description, message)

	raw, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 150})
	if err == nil {
		var out aiChangeSet
		if decodeErr := decodeLoose(raw, &out); decodeErr == nil {
			if changes, chErr := toChangeSet(out); chErr == nil && !changes.IsEmpty() {
				return changes
			}
		}
	}
	return s.fallbackChanges(message, target.Type)
}

// fallbackChanges takes the first number as the amount and known category,
// source and currency words as the new labels.
func (s *detectorService) fallbackChanges(text string, t models.TransactionType) models.ChangeSet {
	var cs models.ChangeSet
	if nums := numberPattern.FindAllString(text, -1); len(nums) > 0 {
		if amount, err := ParseAmount(nums[0]); err == nil {
			cs.Amount = &amount
		}
	}

	labels := s.lex.Categories
	if t == models.TransactionTypeIncome {
		labels = append(append([]string(nil), s.lex.Sources...), s.lex.Categories...)
	}
	if word := lexicon.FirstPhrase(text, labels); word != "" {
		label := word
		if t == models.TransactionTypeIncome {
			cs.Source = &label
		} else {
			cs.Category = &label
		}
	}

	cs.Currency = s.explicitCurrency(text)
	return cs
}

func toChangeSet(raw aiChangeSet) (models.ChangeSet, error) {
	var cs models.ChangeSet
	if raw.Amount != nil {
		amount, err := ParseAmount(raw.Amount)
		if err != nil {
			return cs, err
		}
		cs.Amount = &amount
	}
	cs.Description = nonEmpty(raw.Description)
	cs.Category = nonEmpty(raw.Category)
	cs.Source = nonEmpty(raw.Source)
	if c := nonEmpty(raw.Currency); c != nil {
		cur := models.ParseCurrency(*c)
		cs.Currency = &cur
	}
	if err := validator.Struct(cs); err != nil {
		return cs, err
	}
	return cs, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// nameExtraction is the model reply when asked for the user's name.
type nameExtraction struct {
	Name string `json:"name" validate:"max=40"`
}

const (
	minNameRunes = 2
	maxNameRunes = 40
)

// nameCue finds "me llamo X", "mi nombre es X", "llámame X" and "soy X".
var nameCue = regexp.MustCompile(`(?i)(?:^|[\s,.¡!])(me llamo|mi nombre es|ll[aá]mame|soy)\s+(\p{L}+)`)

// ExtractName returns the name the user introduces themselves with, or "".
// Only messages with an introduction cue reach the model; without one the
// cue's word is used, and after "soy" only when it is capitalised.
func (s *detectorService) ExtractName(ctx context.Context, message string) string {
	m := nameCue.FindStringSubmatch(message)
	if m == nil {
		return ""
	}

	prompt := fmt.Sprintf(`El usuario podría estar diciéndote cómo quiere que lo llames.
Mensaje: "%s"

Responde SOLO con JSON: {"name": "nombre"}, o {"name": ""} si no dice su nombre.`, message)
	raw, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 30})
	if err == nil {
		if out, decodeErr := ai.DecodeJSON[nameExtraction](raw); decodeErr == nil {
			return s.cleanName(out.Name)
		}
	}

	cue, word := strings.ToLower(m[1]), m[2]
	if cue == "soy" {
		if r, _ := utf8.DecodeRuneInString(word); !unicode.IsUpper(r) {
			return ""
		}
	}
	return s.cleanName(word)
}

func (s *detectorService) cleanName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	n := utf8.RuneCountInString(name)
	if n < minNameRunes || n > maxNameRunes || s.lex.IsStopword(lexicon.Normalize(name)) {
		return ""
	}
	return cases.Title(language.Spanish).String(name)
}

// ConfirmationMessage phrases the acknowledgement for a newly recorded
// transaction.
func (s *detectorService) ConfirmationMessage(ctx context.Context, txn *models.Transaction) string {
	prompt := fmt.Sprintf(`Confirma al usuario, en una o dos frases amables en español con emojis, que registraste su %s de %s (%s).`,
		txn.Type.Label(), txn.Currency.Format(txn.Amount), txn.Label())

	text, err := s.ai.Complete(ctx, ai.Request{Prompt: prompt, MaxTokens: 150})
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	return fmt.Sprintf("✅ Listo! Registré tu %s de %s correctamente 📊", txn.Type.Label(), txn.Currency.Format(txn.Amount))
}

// registrationFailedMessage is sent when a detected transaction could not
// be stored.
func registrationFailedMessage(t models.TransactionType) string {
	return fmt.Sprintf("❌ Ups, no pude registrar tu %s automáticamente. Inténtalo de nuevo.", t.Label())
}

// decodeLoose parses a model reply without struct validation.
func decodeLoose(raw string, out any) error {
	if err := json.Unmarshal([]byte(ai.CleanJSON(raw)), out); err != nil {
		return apperrors.Wrap(apperrors.ErrAIMalformed, err)
	}
	return nil
}
