package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofia/internal/ai"
	apperrors "sofia/internal/errors"
	"sofia/internal/models"
	"sofia/internal/records"
	"sofia/internal/testutil"
	"sofia/internal/userlock"
)

type imageAnalyzerFunc func(ctx context.Context, req ai.ImageRequest) (string, error)

func (f imageAnalyzerFunc) AnalyzeImage(ctx context.Context, req ai.ImageRequest) (string, error) {
	return f(ctx, req)
}

type mockDetector struct {
	analyzeFn func(ctx context.Context, msg string) Detection
}

var _ DetectorServicer = (*mockDetector)(nil)

func (m *mockDetector) Analyze(ctx context.Context, msg string) Detection { return m.analyzeFn(ctx, msg) }
func (m *mockDetector) ExtractChanges(context.Context, string, models.Candidate) models.ChangeSet {
	return models.ChangeSet{}
}
func (m *mockDetector) ConfirmationMessage(context.Context, *models.Transaction) string { return "" }
func (m *mockDetector) ExtractName(context.Context, string) string { return "" }

type failingBackend struct{}

func (failingBackend) Load(context.Context, string, records.Kind) ([]byte, error) {
	return nil, errors.New("disk on fire")
}
func (failingBackend) Save(context.Context, string, records.Kind, []byte) error {
	return errors.New("disk on fire")
}
func (failingBackend) Delete(context.Context, string, records.Kind) error { return nil }

func newAssistant(f *fixture, images ai.ImageAnalyzer, aiConfigured bool) AssistantServicer {
	return NewAssistantService(f.store, f.ledger, f.detector, f.editFlow, f.ai, images, userlock.New(),
		AssistantOptions{AIConfigured: aiConfigured, ImagesConfigured: images != nil})
}

func msg(userID, text string) InboundMessage {
	return InboundMessage{UserID: userID, Text: text, Platform: "test"}
}

func TestHandleMessage_RegistersTransaction(t *testing.T) {
	f := newFixture(t)
	assistant := newAssistant(f, nil, false)
	ctx := context.Background()

	reply := assistant.HandleMessage(ctx, msg("u1", "Gasté 50 en almuerzo"))
	assert.Equal(t, "✅ Listo! Registré tu gasto de S/50 correctamente 📊", reply)

	financial, err := f.store.LoadFinancial(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, financial.Expenses, 1)
	assert.Equal(t, models.CurrencySoles, financial.Expenses[0].Currency)
	assert.Equal(t, -50.0, financial.Summary.CurrentBalance)

	history, err := f.store.LoadHistory(ctx, "u1")
	require.NoError(t, err)
	var actions []string
	for _, e := range history.Conversations {
		actions = append(actions, e.ActionType)
	}
	assert.Equal(t, []string{"message_received", "expense_registered", "conversation"}, actions)

	profile, err := f.store.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "test", profile.Platform)
}

func TestHandleMessage_AIConfirmation(t *testing.T) {
	f := newFixture(t)
	f.ai.On("Confirma al usuario", "¡Anotado! 🍔 Registré tu gasto de S/50.")
	assistant := newAssistant(f, nil, true)

	reply := assistant.HandleMessage(context.Background(), msg("u1", "Gasté 50 en almuerzo"))
	assert.Equal(t, "¡Anotado! 🍔 Registré tu gasto de S/50.", reply)
}

func TestHandleMessage_LocalMode(t *testing.T) {
	f := newFixture(t)
	assistant := newAssistant(f, nil, false)
	ctx := context.Background()

	first := assistant.HandleMessage(ctx, msg("u1", "hola"))
	assert.Equal(t, msgFirstContact, first)

	second := assistant.HandleMessage(ctx, msg("u1", "¿qué tal?"))
	assert.Contains(t, second, "amigo/a")
	assert.Empty(t, f.ai.Calls(), "local mode must not call the AI for chat")
}

func TestHandleMessage_LearnsName(t *testing.T) {
	t.Run("local_replies_use_the_name", func(t *testing.T) {
		f := newFixture(t)
		assistant := newAssistant(f, nil, false)
		ctx := context.Background()

		assistant.HandleMessage(ctx, msg("u1", "hola"))
		reply := assistant.HandleMessage(ctx, msg("u1", "me llamo ana"))
		assert.Contains(t, reply, "Ana")

		next := assistant.HandleMessage(ctx, msg("u1", "¿qué tal?"))
		assert.Contains(t, next, "Ana")
		assert.NotContains(t, next, "amigo/a")

		profile, err := f.store.LoadProfile(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, profile.Name)
		assert.Equal(t, "Ana", *profile.Name)
	})

	t.Run("known_name_is_kept", func(t *testing.T) {
		f := newFixture(t)
		assistant := newAssistant(f, nil, false)
		ctx := context.Background()
		name := "Lucía"
		_, err := f.store.UpdateProfile(ctx, "u1", ProfileUpdate{Name: &name})
		require.NoError(t, err)

		assistant.HandleMessage(ctx, msg("u1", "llámame Pepe"))

		profile, err := f.store.LoadProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Lucía", *profile.Name)
	})
}

func TestHandleMessage_Chat(t *testing.T) {
	t.Run("ai_reply_with_context", func(t *testing.T) {
		f := newFixture(t)
		f.ai.On("Mensaje actual del usuario", "¡Hola! Vas muy bien 💪")
		assistant := newAssistant(f, nil, true)
		ctx := context.Background()
		f.income(t, "u1", 1000, "salario")

		reply := assistant.HandleMessage(ctx, msg("u1", "¿cómo van mis finanzas?"))
		assert.Equal(t, "¡Hola! Vas muy bien 💪", reply)

		calls := f.ai.Calls()
		last := calls[len(calls)-1]
		assert.Equal(t, sofiaSystemPrompt, last.System)
		assert.Contains(t, last.Prompt, "Ingresos totales: S/1000")
		assert.Equal(t, defaultSearchContext, last.SearchContext)
	})

	t.Run("ai_failure_apologises", func(t *testing.T) {
		f := newFixture(t)
		f.ai.Fail("Mensaje actual del usuario", apperrors.ErrAIRequestFailed)
		assistant := newAssistant(f, nil, true)

		reply := assistant.HandleMessage(context.Background(), msg("u1", "cuéntame un chiste"))
		assert.Equal(t, msgTechnicalIssue, reply)
	})

	t.Run("ai_unavailable_uses_local_reply", func(t *testing.T) {
		f := newFixture(t)
		assistant := newAssistant(f, nil, true)

		reply := assistant.HandleMessage(context.Background(), msg("u1", "hola"))
		assert.Equal(t, msgFirstContact, reply)
	})
}

func TestHandleMessage_EditConversation(t *testing.T) {
	f := newFixture(t)
	assistant := newAssistant(f, nil, false)
	ctx := context.Background()
	f.expense(t, "u1", 500, "comida")
	f.expense(t, "u1", 200, "transporte")

	reply := assistant.HandleMessage(ctx, msg("u1", "quiero modificar mi gasto"))
	require.Contains(t, reply, "Encontré varias transacciones")

	reply = assistant.HandleMessage(ctx, msg("u1", "2"))
	require.Contains(t, reply, "¿Qué quieres cambiar?")

	reply = assistant.HandleMessage(ctx, msg("u1", "300"))
	require.Contains(t, reply, "¿Confirmas el cambio?")

	reply = assistant.HandleMessage(ctx, msg("u1", "sí"))
	assert.Equal(t, "✅ He actualizado tu gasto según lo solicitado 📊", reply)

	financial, err := f.store.LoadFinancial(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 300.0, financial.Expenses[0].Amount)
	assert.Len(t, financial.Expenses[0].EditHistory, 1)
	assert.Equal(t, 200.0, financial.Expenses[1].Amount)
}

func TestHandleMessage_ExpiredPendingAction(t *testing.T) {
	f := newFixture(t)
	assistant := newAssistant(f, nil, false)
	ctx := context.Background()
	f.expense(t, "u1", 500, "comida")
	f.expense(t, "u1", 200, "transporte")

	assistant.HandleMessage(ctx, msg("u1", "quiero modificar mi gasto"))
	f.clock.Advance(31 * time.Minute)

	reply := assistant.HandleMessage(ctx, msg("u1", "2"))
	assert.NotContains(t, reply, "¿Qué quieres cambiar?")

	profile, err := f.store.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, profile.PendingAction)
}

func TestHandleMessage_Image(t *testing.T) {
	t.Run("receipt", func(t *testing.T) {
		f := newFixture(t)
		var got ai.ImageRequest
		images := imageAnalyzerFunc(func(_ context.Context, req ai.ImageRequest) (string, error) {
			got = req
			return "🧾 Boleta de Tottus por S/85.40", nil
		})
		assistant := newAssistant(f, images, true)

		reply := assistant.HandleMessage(context.Background(), InboundMessage{
			UserID: "u1", Text: "mi boleta del súper", Image: []byte{0xff, 0xd8}, ImageMIME: "image/jpeg", Platform: "telegram",
		})

		assert.Equal(t, "🧾 Boleta de Tottus por S/85.40", reply)
		assert.Contains(t, got.Prompt, "boleta o recibo")
		assert.Equal(t, "image/jpeg", got.MIMEType)
	})

	t.Run("failure_apologises", func(t *testing.T) {
		f := newFixture(t)
		images := imageAnalyzerFunc(func(context.Context, ai.ImageRequest) (string, error) {
			return "", apperrors.ErrAIRequestFailed
		})
		assistant := newAssistant(f, images, true)

		reply := assistant.HandleMessage(context.Background(), InboundMessage{UserID: "u1", Image: []byte{1}})
		assert.Equal(t, msgImageFailed, reply)
	})
}

func TestClassifyImage(t *testing.T) {
	f := newFixture(t)
	svc := newAssistant(f, nil, false).(*assistantService)

	assert.Equal(t, ImageReceipt, svc.ClassifyImage("Te paso el recibo"))
	assert.Equal(t, ImageBankStatement, svc.ClassifyImage("mi estado de cuenta de octubre"))
	assert.Equal(t, ImageFinancialChart, svc.ClassifyImage("¿qué opinas de este gráfico?"))
	assert.Equal(t, ImageGeneral, svc.ClassifyImage(""))
}

func TestHandleMessage_NeverLeaksErrors(t *testing.T) {
	t.Run("panic", func(t *testing.T) {
		f := newFixture(t)
		detector := &mockDetector{analyzeFn: func(context.Context, string) Detection { panic("boom") }}
		assistant := NewAssistantService(f.store, f.ledger, detector, f.editFlow, f.ai, nil, userlock.New(), AssistantOptions{})

		assert.Equal(t, msgTechnicalIssue, assistant.HandleMessage(context.Background(), msg("u1", "hola")))
	})

	t.Run("storage_down", func(t *testing.T) {
		clk := testutil.NewClock()
		store := NewUserDataService(failingBackend{}, clk, 0)
		ledger := NewLedgerService(store, nil, clk)
		detector := NewDetectorService(nil, nil)
		editFlow := NewEditFlowService(store, ledger, detector, clk, 0)
		assistant := NewAssistantService(store, ledger, detector, editFlow, nil, nil, nil, AssistantOptions{})

		assert.Equal(t, msgTechnicalIssue, assistant.HandleMessage(context.Background(), msg("u1", "gasté 20")))
	})

	t.Run("cancelled_context", func(t *testing.T) {
		f := newFixture(t)
		locks := userlock.New()
		assistant := NewAssistantService(f.store, f.ledger, f.detector, f.editFlow, f.ai, nil, locks, AssistantOptions{})

		unlock, err := locks.Lock(context.Background(), "u1")
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, msgTechnicalIssue, assistant.HandleMessage(ctx, msg("u1", "hola")))
	})
}

func TestHandleMessage_LocksByNamespace(t *testing.T) {
	f := newFixture(t)
	locks := userlock.New()
	assistant := NewAssistantService(f.store, f.ledger, f.detector, f.editFlow, f.ai, nil, locks, AssistantOptions{})

	ns, err := f.store.EnsureUserNamespace("a b")
	require.NoError(t, err)
	require.Equal(t, "a_b", ns)

	unlock, err := locks.Lock(context.Background(), "a_b")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, msgTechnicalIssue, assistant.HandleMessage(ctx, msg("a b", "hola")))
	assert.ErrorIs(t, assistant.ClearConversation(ctx, "a b"), context.Canceled)
}

func TestHandleMessage_SerializesPerUser(t *testing.T) {
	f := newFixture(t)
	assistant := newAssistant(f, nil, false)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assistant.HandleMessage(ctx, msg("u1", "gasté 10 en café"))
		}()
	}
	wg.Wait()

	financial, err := f.store.LoadFinancial(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, financial.Expenses, n)
	assert.Equal(t, float64(10*n), financial.Summary.TotalExpenses)
}

func TestClearConversation(t *testing.T) {
	f := newFixture(t)
	assistant := newAssistant(f, nil, false)
	ctx := context.Background()
	f.expense(t, "u1", 500, "comida")
	f.expense(t, "u1", 200, "transporte")
	assistant.HandleMessage(ctx, msg("u1", "quiero modificar mi gasto"))

	require.NoError(t, assistant.ClearConversation(ctx, "u1"))

	history, _ := f.store.LoadHistory(ctx, "u1")
	assert.Empty(t, history.Conversations)
	profile, _ := f.store.LoadProfile(ctx, "u1")
	assert.Nil(t, profile.PendingAction)
	financial, _ := f.store.LoadFinancial(ctx, "u1")
	assert.Len(t, financial.Expenses, 2)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	local := newAssistant(f, nil, false).Status()
	assert.Equal(t, "local", local.Mode)
	assert.False(t, local.AIConfigured)

	images := imageAnalyzerFunc(func(context.Context, ai.ImageRequest) (string, error) { return "", nil })
	full := newAssistant(f, images, true).Status()
	assert.Equal(t, "ai", full.Mode)
	assert.True(t, full.ImageAnalysisConfigured)
}
