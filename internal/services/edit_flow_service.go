package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"sofia/internal/clock"
	apperrors "sofia/internal/errors"
	"sofia/internal/lexicon"
	"sofia/internal/logger"
	"sofia/internal/models"
)

const (
	// DefaultPendingActionTTL is how long an unanswered edit prompt stays open.
	DefaultPendingActionTTL = 30 * time.Minute

	maxSelectCandidates = 5
)

const (
	msgNoTransactions  = "🤔 No encontré transacciones recientes para editar. Primero registra un ingreso o un gasto y luego podré ayudarte a modificarlo."
	msgEditCancelled   = "👌 Entendido, no hice ningún cambio."
	msgEditVanished    = "🤔 Ya no encuentro esa transacción, así que no hice ningún cambio."
	msgEditFailed      = "❌ Ups, no pude aplicar el cambio. Inténtalo de nuevo en un momento."
	msgSpecifyReprompt = "🤔 No logré entender qué quieres cambiar. Dime por ejemplo \"el monto es 300\" o \"la categoría es transporte\"."
)

// editFlowService drives the select → specify → confirm conversation used
// to edit a transaction. Its state lives in the user's profile as a
// PendingAction.
type editFlowService struct {
	store    UserDataServicer
	ledger   LedgerServicer
	detector DetectorServicer
	clock    clock.Clock
	ttl      time.Duration
	lex      *lexicon.Lexicon
}

// NewEditFlowService creates a new EditFlowServicer. A non-positive ttl
// falls back to DefaultPendingActionTTL.
func NewEditFlowService(store UserDataServicer, ledger LedgerServicer, detector DetectorServicer, clk clock.Clock, ttl time.Duration) EditFlowServicer {
	if ttl <= 0 {
		ttl = DefaultPendingActionTTL
	}
	return &editFlowService{
		store:    store,
		ledger:   ledger,
		detector: detector,
		clock:    clk,
		ttl:      ttl,
		lex:      lexicon.Default(),
	}
}

// Start identifies the transaction an edit request refers to and opens the
// matching state.
func (s *editFlowService) Start(ctx context.Context, userID string, req EditRequest) (string, error) {
	ident, err := s.ledger.IdentifyTransactionByDescription(ctx, userID, req.Description)
	if errors.Is(err, apperrors.ErrNoTransactions) {
		return msgNoTransactions, nil
	}
	if err != nil {
		return "", err
	}

	var changes *models.ChangeSet
	if !req.Changes.IsEmpty() {
		c := req.Changes
		changes = &c
	}

	if ident.Transaction != nil {
		changes = withoutIdentifyingAmount(req.Description, changes, []models.Candidate{*ident.Transaction})
		return s.target(ctx, userID, *ident.Transaction, changes)
	}

	candidates := ident.Candidates
	if req.TransactionType.Valid() {
		if filtered := filterByType(candidates, req.TransactionType); len(filtered) > 0 {
			candidates = filtered
		}
	}
	if len(candidates) > maxSelectCandidates {
		candidates = candidates[:maxSelectCandidates]
	}
	changes = withoutIdentifyingAmount(req.Description, changes, candidates)
	if len(candidates) == 1 {
		return s.target(ctx, userID, candidates[0], changes)
	}

	err = s.setPending(ctx, userID, &models.PendingAction{
		Type:        models.PendingEditSelect,
		Candidates:  candidates,
		Changes:     changes,
		Description: req.Description,
	})
	if err != nil {
		return "", err
	}
	return selectPrompt(candidates), nil
}

// target moves to EDIT_CONFIRM when the changes are already known and to
// EDIT_SPECIFY otherwise.
func (s *editFlowService) target(ctx context.Context, userID string, c models.Candidate, changes *models.ChangeSet) (string, error) {
	if changes != nil {
		if err := s.setPending(ctx, userID, &models.PendingAction{
			Type:    models.PendingEditConfirm,
			Target:  &c,
			Changes: changes,
		}); err != nil {
			return "", err
		}
		return confirmPrompt(c, *changes), nil
	}

	if err := s.setPending(ctx, userID, &models.PendingAction{
		Type:   models.PendingEditSpecify,
		Target: &c,
	}); err != nil {
		return "", err
	}
	return specifyPrompt(c), nil
}

// Resume continues a pending edit. handled is false when there is nothing
// pending or the pending action has expired.
func (s *editFlowService) Resume(ctx context.Context, userID, message string) (string, bool, error) {
	profile, err := s.store.LoadProfile(ctx, userID)
	if err != nil {
		return "", false, err
	}
	pending := profile.PendingAction
	if pending == nil {
		return "", false, nil
	}

	if pending.Expired(s.clock.Now(), s.ttl) {
		logger.ForUser(userID).Infow("Pending action expired", "type", pending.Type, "created_at", pending.CreatedAt)
		return "", false, s.Cancel(ctx, userID)
	}

	var reply string
	switch pending.Type {
	case models.PendingEditSelect:
		reply, err = s.resumeSelect(ctx, userID, message, pending)
	case models.PendingEditSpecify:
		reply, err = s.resumeSpecify(ctx, userID, message, pending)
	case models.PendingEditConfirm:
		reply, err = s.resumeConfirm(ctx, userID, message, pending)
	default:
		logger.ForUser(userID).Warnw("Dropping unknown pending action", "type", pending.Type)
		return "", false, s.Cancel(ctx, userID)
	}
	if err != nil {
		return "", true, err
	}
	return reply, true, nil
}

func (s *editFlowService) resumeSelect(ctx context.Context, userID, message string, pending *models.PendingAction) (string, error) {
	if lexicon.HasPhrase(message, s.lex.Cancel) {
		return msgEditCancelled, s.Cancel(ctx, userID)
	}

	chosen, ok := selectCandidate(message, pending.Candidates)
	if !ok {
		return fmt.Sprintf("🤔 No entendí cuál. Responde con el número de la transacción (1-%d) o escribe \"cancelar\".",
			len(pending.Candidates)), nil
	}
	return s.target(ctx, userID, chosen, pending.Changes)
}

func (s *editFlowService) resumeSpecify(ctx context.Context, userID, message string, pending *models.PendingAction) (string, error) {
	if lexicon.HasPhrase(message, s.lex.Cancel) {
		return msgEditCancelled, s.Cancel(ctx, userID)
	}
	if pending.Target == nil {
		return "", s.Cancel(ctx, userID)
	}

	changes := s.detector.ExtractChanges(ctx, message, *pending.Target)
	if changes.IsEmpty() {
		return msgSpecifyReprompt, nil
	}
	return s.target(ctx, userID, *pending.Target, &changes)
}

// resumeConfirm applies the edit only on an unambiguous yes. Anything else,
// including a reply that mixes yes and no, cancels.
func (s *editFlowService) resumeConfirm(ctx context.Context, userID, message string, pending *models.PendingAction) (string, error) {
	if err := s.Cancel(ctx, userID); err != nil {
		return "", err
	}
	if pending.Target == nil || pending.Changes == nil || !s.affirmative(message) {
		return msgEditCancelled, nil
	}

	result, err := s.ledger.EditTransaction(ctx, userID, pending.Target.ID, pending.Target.Type, *pending.Changes)
	switch {
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		return msgEditVanished, nil
	case err != nil:
		logger.ForUser(userID).Errorw("Failed to apply confirmed edit", "transaction_id", pending.Target.ID, "error", err)
		return msgEditFailed, nil
	}
	return result.Message, nil
}

func (s *editFlowService) affirmative(message string) bool {
	return lexicon.HasPhrase(message, s.lex.Affirmative) && !lexicon.HasPhrase(message, s.lex.Negative)
}

// Cancel drops any pending action.
func (s *editFlowService) Cancel(ctx context.Context, userID string) error {
	profile, err := s.store.LoadProfile(ctx, userID)
	if err != nil {
		return err
	}
	if profile.PendingAction == nil {
		return nil
	}
	profile.PendingAction = nil
	return s.store.SaveProfile(ctx, userID, profile)
}

// setPending stores action as the user's only pending action, stamped now.
func (s *editFlowService) setPending(ctx context.Context, userID string, action *models.PendingAction) error {
	profile, err := s.store.LoadProfile(ctx, userID)
	if err != nil {
		return err
	}
	action.CreatedAt = s.clock.Now()
	profile.PendingAction = action
	return s.store.SaveProfile(ctx, userID, profile)
}

// withoutIdentifyingAmount drops an amount that is the only number in the
// request and equals a candidate's amount: it names the transaction, not
// its new value.
func withoutIdentifyingAmount(description string, changes *models.ChangeSet, candidates []models.Candidate) *models.ChangeSet {
	if changes == nil || changes.Amount == nil || len(mentionedAmounts(description)) != 1 {
		return changes
	}
	for _, c := range candidates {
		if c.Amount != *changes.Amount {
			continue
		}
		cs := *changes
		cs.Amount = nil
		if cs.IsEmpty() {
			return nil
		}
		return &cs
	}
	return changes
}

func filterByType(cs []models.Candidate, t models.TransactionType) []models.Candidate {
	var out []models.Candidate
	for _, c := range cs {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// selectCandidate reads a 1-based index, or falls back to matching the
// reply against each candidate's description, label and amount.
func selectCandidate(message string, candidates []models.Candidate) (models.Candidate, bool) {
	if m := firstInteger.FindString(message); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= len(candidates) {
			return candidates[n-1], true
		}
	}

	reply := strings.TrimSpace(lexicon.Normalize(message))
	if reply == "" {
		return models.Candidate{}, false
	}
	amounts := mentionedAmounts(message)
	for _, c := range candidates {
		for _, field := range []string{c.Description, c.Category} {
			if fieldMatches(reply, field) {
				return c, true
			}
		}
		if amounts[c.Amount] {
			return c, true
		}
	}
	return models.Candidate{}, false
}

// minFragmentRunes is the shortest reply accepted as a fragment of a
// candidate field.
const minFragmentRunes = 3

// fieldMatches reports whether reply names field as whole words, either
// containing all of it or being a word run taken from it.
func fieldMatches(reply, field string) bool {
	if strings.TrimSpace(field) == "" {
		return false
	}
	if lexicon.HasPhrase(reply, []string{field}) {
		return true
	}
	return utf8.RuneCountInString(reply) >= minFragmentRunes && lexicon.HasPhrase(field, []string{reply})
}

func selectPrompt(candidates []models.Candidate) string {
	var b strings.Builder
	b.WriteString("🤔 Encontré varias transacciones que podrían coincidir:\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s: %s - %s (%s)\n", i+1, typeTitle(c.Type), c.Details, c.Description, c.Date.Format("02/01"))
	}
	b.WriteString("\n¿Cuál quieres editar? Responde con el número.")
	return b.String()
}

func specifyPrompt(c models.Candidate) string {
	return fmt.Sprintf("✏️ Encontré tu %s: %s - %s.\n¿Qué quieres cambiar? Puedes decirme el nuevo monto, la categoría o la descripción.",
		c.Type.Label(), c.Details, c.Description)
}

func confirmPrompt(c models.Candidate, changes models.ChangeSet) string {
	return fmt.Sprintf("📝 Voy a modificar tu %s (%s - %s):\n%s\n\n¿Confirmas el cambio? (sí/no)",
		c.Type.Label(), c.Details, c.Description, changes.Describe(c.Currency))
}
