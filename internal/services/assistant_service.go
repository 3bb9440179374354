package services

import (
	"context"
	"fmt"
	"strings"

	"sofia/internal/ai"
	"sofia/internal/lexicon"
	"sofia/internal/logger"
	"sofia/internal/models"
	"sofia/internal/userlock"
)

const (
	msgTechnicalIssue = "Ay, perdón! Tuve un problemita técnico 😅 ¿Me repites qué me decías?"
	msgImageFailed    = "📷 Ups, tuve un problema analizando tu imagen. ¿Podrías intentarlo de nuevo o contarme qué contiene?"
	msgEditLookup     = "❌ No pude buscar tus transacciones en este momento. Inténtalo de nuevo en un momento."
	msgFirstContact   = `¡Hola! 👋 Soy SofIA, tu asesora financiera personal. Me da mucho gusto conocerte 😊

Estoy aquí para ayudarte con tus finanzas de manera natural y práctica. Mi conexión avanzada de IA todavía no está configurada, pero mientras tanto puedo registrar tus ingresos y gastos.

¿Cómo te gusta que te llame? Y cuéntame, ¿en qué puedo ayudarte hoy? 💰`

	historyContextTurns   = 6
	maxLoggedMessage      = 200
	maxLoggedResponse     = 500
	defaultChatMaxTokens  = 1500
	defaultSearchContext  = "low"
	recentSummaryInPrompt = 3
)

var localReplies = []string{
	"%s, entiendo perfectamente lo que me dices 🤗 Aunque estoy en modo básico ahora, puedo ayudarte con el registro de tus finanzas. ¿Qué necesitas hacer hoy?",
	"Te escucho %s 😊 Mi modo de IA avanzada no está activo, pero puedo ayudarte con tus transacciones. ¿Quieres registrar algún ingreso o gasto?",
	"Perfecto %s 💙 Mientras me configuran la IA completa, sigamos trabajando en tus finanzas. ¿En qué te puedo apoyar?",
}

const sofiaSystemPrompt = `Eres SofIA, una asesora financiera personal cálida, cercana y práctica que conversa en español.
Respondes de forma natural y personalizada, con emojis cuando encajan, y das consejos concretos para la situación del usuario.

Reglas de moneda:
- Por defecto todas las cantidades están en soles peruanos (S/).
- Si mencionan una cantidad sin moneda, asume soles.
- Usa el símbolo S/ para soles en tus respuestas.
- Solo considera otras monedas si las mencionan explícitamente.`

// InboundMessage is one user message from any channel.
type InboundMessage struct {
	UserID    string
	Text      string
	Image     []byte
	ImageMIME string
	Platform  string
}

// AssistantStatus reports which collaborators are configured.
type AssistantStatus struct {
	AIConfigured            bool   `json:"ai_configured"`
	ImageAnalysisConfigured bool   `json:"image_analysis_configured"`
	Mode                    string `json:"mode"`
}

// AssistantOptions tunes the open-ended chat replies.
type AssistantOptions struct {
	AIConfigured     bool
	ImagesConfigured bool
	MaxTokens        int
	SearchContext    string
}

// assistantService is the entry point for every inbound message. It always
// produces a reply.
type assistantService struct {
	store    UserDataServicer
	ledger   LedgerServicer
	detector DetectorServicer
	editFlow EditFlowServicer
	ai       ai.Completer
	images   ai.ImageAnalyzer
	locks    *userlock.Locker
	opts     AssistantOptions
	lex      *lexicon.Lexicon
}

// NewAssistantService creates a new AssistantServicer.
func NewAssistantService(
	store UserDataServicer,
	ledger LedgerServicer,
	detector DetectorServicer,
	editFlow EditFlowServicer,
	completer ai.Completer,
	images ai.ImageAnalyzer,
	locks *userlock.Locker,
	opts AssistantOptions,
) AssistantServicer {
	if completer == nil {
		completer = ai.Disabled{}
	}
	if images == nil {
		images = ai.Disabled{}
	}
	if locks == nil {
		locks = userlock.New()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultChatMaxTokens
	}
	if opts.SearchContext == "" {
		opts.SearchContext = defaultSearchContext
	}
	return &assistantService{
		store:    store,
		ledger:   ledger,
		detector: detector,
		editFlow: editFlow,
		ai:       completer,
		images:   images,
		locks:    locks,
		opts:     opts,
		lex:      lexicon.Default(),
	}
}

// HandleMessage processes one message while holding the user's lock.
// Errors and panics become a friendly apology.
func (s *assistantService) HandleMessage(ctx context.Context, msg InboundMessage) (reply string) {
	log := logger.ForUser(msg.UserID)

	ns, err := s.store.EnsureUserNamespace(msg.UserID)
	if err != nil {
		log.Warnw("Rejected message without a usable user id", "error", err)
		return msgTechnicalIssue
	}
	unlock, err := s.locks.Lock(ctx, ns)
	if err != nil {
		log.Warnw("Gave up waiting for user lock", "error", err)
		return msgTechnicalIssue
	}
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Recovered from panic while handling message", "panic", r)
			reply = msgTechnicalIssue
		}
	}()

	reply = s.respond(ctx, msg)

	if err := s.store.AddToHistory(ctx, msg.UserID, "conversation", map[string]any{
		"user_message":       models.TruncateRunes(msg.Text, maxLoggedMessage),
		"assistant_response": models.TruncateRunes(reply, maxLoggedResponse),
		"platform":           msg.Platform,
	}); err != nil {
		log.Warnw("Failed to record conversation", "error", err)
	}
	return reply
}

func (s *assistantService) respond(ctx context.Context, msg InboundMessage) string {
	log := logger.ForUser(msg.UserID)

	profile, err := s.store.RecordActivity(ctx, msg.UserID, msg.Platform)
	if err != nil {
		log.Errorw("Failed to load user profile", "error", err)
		return msgTechnicalIssue
	}
	if err := s.store.AddToHistory(ctx, msg.UserID, "message_received", map[string]any{
		"message":   models.TruncateRunes(msg.Text, maxLoggedMessage),
		"platform":  msg.Platform,
		"has_image": len(msg.Image) > 0,
	}); err != nil {
		log.Warnw("Failed to record inbound message", "error", err)
	}

	if len(msg.Image) > 0 {
		return s.handleImage(ctx, msg)
	}

	reply, handled, err := s.editFlow.Resume(ctx, msg.UserID, msg.Text)
	if err != nil {
		log.Errorw("Failed to resume pending action", "error", err)
		return msgTechnicalIssue
	}
	if handled {
		return reply
	}

	if profile.Name == nil || *profile.Name == "" {
		profile = s.learnName(ctx, msg, profile)
	}

	detection := s.detector.Analyze(ctx, msg.Text)
	switch detection.Kind {
	case DetectionTransaction:
		return s.registerDetected(ctx, msg.UserID, detection.Transaction)
	case DetectionEdit:
		reply, err := s.editFlow.Start(ctx, msg.UserID, *detection.Edit)
		if err != nil {
			log.Errorw("Failed to start edit", "error", err)
			return msgEditLookup
		}
		return reply
	}

	return s.chat(ctx, msg, profile)
}

// learnName stores the name the user introduces themselves with.
func (s *assistantService) learnName(ctx context.Context, msg InboundMessage, profile *models.UserProfile) *models.UserProfile {
	name := s.detector.ExtractName(ctx, msg.Text)
	if name == "" {
		return profile
	}
	updated, err := s.store.UpdateProfile(ctx, msg.UserID, ProfileUpdate{Name: &name})
	if err != nil {
		logger.ForUser(msg.UserID).Warnw("Failed to store user name", "error", err)
		return profile
	}
	logger.ForUser(msg.UserID).Infow("Learned user name", "name", name)
	return updated
}

func (s *assistantService) registerDetected(ctx context.Context, userID string, ext *TransactionExtraction) string {
	var (
		txn *models.Transaction
		err error
	)
	if ext.Type == models.TransactionTypeIncome {
		txn, err = s.ledger.RegisterIncome(ctx, userID, IncomeInput{
			Amount:      ext.Amount,
			Source:      ext.Source,
			Description: ext.Description,
			Currency:    ext.Currency,
		})
	} else {
		txn, err = s.ledger.RegisterExpense(ctx, userID, ExpenseInput{
			Amount:      ext.Amount,
			Category:    ext.Category,
			Description: ext.Description,
			Currency:    ext.Currency,
		})
	}
	if err != nil {
		logger.ForUser(userID).Errorw("Failed to register detected transaction", "type", ext.Type, "error", err)
		return registrationFailedMessage(ext.Type)
	}
	return s.detector.ConfirmationMessage(ctx, txn)
}

// chat produces an open-ended reply with recent history and the financial
// summary as context.
func (s *assistantService) chat(ctx context.Context, msg InboundMessage, profile *models.UserProfile) string {
	log := logger.ForUser(msg.UserID)

	history, err := s.store.LoadHistory(ctx, msg.UserID)
	if err != nil {
		log.Warnw("Failed to load history for chat context", "error", err)
		history = models.NewHistoryRecord(profile.LastActiveAt)
	}

	if !s.opts.AIConfigured {
		return localReply(profile, history)
	}

	var prompt strings.Builder
	if profile.Name != nil {
		fmt.Fprintf(&prompt, "Usuario: %s\n", *profile.Name)
	}
	if overview, err := s.ledger.Summary(ctx, msg.UserID); err == nil {
		writeSummary(&prompt, overview)
	}
	writeRecentTurns(&prompt, history)
	fmt.Fprintf(&prompt, "\nMensaje actual del usuario: \"%s\"\n\nResponde como SofIA.", msg.Text)

	text, err := s.ai.Complete(ctx, ai.Request{
		System:        sofiaSystemPrompt,
		Prompt:        prompt.String(),
		MaxTokens:     s.opts.MaxTokens,
		SearchContext: s.opts.SearchContext,
	})
	if ai.IsUnavailable(err) {
		return localReply(profile, history)
	}
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warnw("Chat completion failed", "error", err)
		return msgTechnicalIssue
	}
	return strings.TrimSpace(text)
}

func writeSummary(b *strings.Builder, o *FinancialOverview) {
	if o.Summary.TransactionCount == 0 {
		b.WriteString("El usuario aún no tiene transacciones registradas.\n")
		return
	}
	cur := o.Currency
	fmt.Fprintf(b, "Situación financiera:\n- Ingresos totales: %s\n- Gastos totales: %s\n- Balance actual: %s\n",
		cur.Format(o.Summary.TotalIncome), cur.Format(o.Summary.TotalExpenses), cur.Format(o.Summary.CurrentBalance))
	for i, c := range o.RecentTransactions {
		if i == recentSummaryInPrompt {
			break
		}
		fmt.Fprintf(b, "  • %s: %s\n", typeTitle(c.Type), c.Details)
	}
}

func writeRecentTurns(b *strings.Builder, h *models.HistoryRecord) {
	var turns []models.HistoryEntry
	for i := len(h.Conversations) - 1; i >= 0 && len(turns) < historyContextTurns; i-- {
		if h.Conversations[i].ActionType == "conversation" {
			turns = append(turns, h.Conversations[i])
		}
	}
	if len(turns) == 0 {
		return
	}
	b.WriteString("\nConversación reciente:\n")
	for i := len(turns) - 1; i >= 0; i-- {
		fmt.Fprintf(b, "Usuario: %v\nSofIA: %v\n", turns[i].Data["user_message"], turns[i].Data["assistant_response"])
	}
}

// localReply is the canned reply used when no AI provider is configured.
func localReply(profile *models.UserProfile, history *models.HistoryRecord) string {
	// The current message was already logged.
	if history.TotalInteractions <= 1 {
		return msgFirstContact
	}
	name := "amigo/a"
	if profile.Name != nil && *profile.Name != "" {
		name = *profile.Name
	}
	return fmt.Sprintf(localReplies[history.TotalInteractions%len(localReplies)], name)
}

// Image kinds inferred from the caption.
const (
	ImageReceipt        = "receipt"
	ImageBankStatement  = "bank_statement"
	ImageFinancialChart = "financial_chart"
	ImageGeneral        = "general"
)

var imagePrompts = map[string]string{
	ImageReceipt: `Analiza esta boleta o recibo. Indica el comercio, la fecha, el monto total y la moneda (por defecto soles),
y sugiere una categoría de gasto. Responde en español, de forma breve y amable, como SofIA.`,
	ImageBankStatement: `Analiza este estado de cuenta o captura bancaria. Resume los ingresos y gastos visibles, el saldo y
cualquier cargo que llame la atención. Responde en español, de forma breve y amable, como SofIA.`,
	ImageFinancialChart: `Analiza este gráfico financiero. Explica la tendencia principal y qué significa para un inversionista
principiante. Responde en español, de forma breve y amable, como SofIA.`,
	ImageGeneral: `Describe el contenido financiero de esta imagen y cómo puede ayudar al usuario a organizar sus finanzas.
Responde en español, de forma breve y amable, como SofIA.`,
}

// ClassifyImage picks an image kind from the caption keywords.
func (s *assistantService) ClassifyImage(caption string) string {
	switch {
	case lexicon.ContainsAny(caption, s.lex.Receipt):
		return ImageReceipt
	case lexicon.ContainsAny(caption, s.lex.BankStatement):
		return ImageBankStatement
	case lexicon.ContainsAny(caption, s.lex.FinancialChart):
		return ImageFinancialChart
	default:
		return ImageGeneral
	}
}

func (s *assistantService) handleImage(ctx context.Context, msg InboundMessage) string {
	log := logger.ForUser(msg.UserID)
	kind := s.ClassifyImage(msg.Text)

	prompt := imagePrompts[kind]
	if caption := strings.TrimSpace(msg.Text); caption != "" {
		prompt += fmt.Sprintf("\nEl usuario escribió: \"%s\"", caption)
	}

	text, err := s.images.AnalyzeImage(ctx, ai.ImageRequest{
		Prompt:   prompt,
		Data:     msg.Image,
		MIMEType: msg.ImageMIME,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warnw("Image analysis failed", "image_type", kind, "error", err)
		return msgImageFailed
	}

	if err := s.store.AddToHistory(ctx, msg.UserID, "image_analyzed", map[string]any{
		"image_type": kind,
		"bytes":      len(msg.Image),
	}); err != nil {
		log.Warnw("Failed to record image analysis", "error", err)
	}
	return strings.TrimSpace(text)
}

// ClearConversation drops the user's history and any pending action.
func (s *assistantService) ClearConversation(ctx context.Context, userID string) error {
	ns, err := s.store.EnsureUserNamespace(userID)
	if err != nil {
		return err
	}
	return s.locks.WithLock(ctx, ns, func() error {
		if err := s.editFlow.Cancel(ctx, userID); err != nil {
			return err
		}
		return s.store.ClearHistory(ctx, userID)
	})
}

// Status reports collaborator configuration.
func (s *assistantService) Status() AssistantStatus {
	mode := "ai"
	if !s.opts.AIConfigured {
		mode = "local"
	}
	return AssistantStatus{
		AIConfigured:            s.opts.AIConfigured,
		ImageAnalysisConfigured: s.opts.ImagesConfigured,
		Mode:                    mode,
	}
}
