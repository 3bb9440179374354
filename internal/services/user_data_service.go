package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"sofia/internal/clock"
	apperrors "sofia/internal/errors"
	"sofia/internal/logger"
	"sofia/internal/models"
	"sofia/internal/records"
)

const (
	maxNamespaceLength      = 50
	DefaultHistoryRetention = 100
)

var unsafeNamespaceChars = regexp.MustCompile(`[^a-zA-Z0-9@._-]`)

// ProfileUpdate carries the profile fields a caller wants to change.
// Preferences and personalization are merged field by field.
type ProfileUpdate struct {
	Name              *string                  `json:"name"`
	Preferences       *PreferencesUpdate       `json:"preferences"`
	AIPersonalization *AIPersonalizationUpdate `json:"ai_personalization"`
}

// PreferencesUpdate is a partial models.Preferences.
type PreferencesUpdate struct {
	Currency *models.Currency `json:"currency" binding:"omitempty,currency_code"`
	Timezone *string          `json:"timezone"`
	Language *string          `json:"language"`
}

// AIPersonalizationUpdate is a partial models.AIPersonalization.
type AIPersonalizationUpdate struct {
	CommunicationStyle *string  `json:"communication_style"`
	FinancialGoals     []string `json:"financial_goals"`
	RiskTolerance      *string  `json:"risk_tolerance"`
}

// userDataService persists the four per-user records through a backend.
type userDataService struct {
	backend   records.Backend
	clock     clock.Clock
	retention int
}

// NewUserDataService creates a new UserDataServicer. A non-positive
// retention uses DefaultHistoryRetention.
func NewUserDataService(backend records.Backend, clk clock.Clock, retention int) UserDataServicer {
	if retention <= 0 {
		retention = DefaultHistoryRetention
	}
	return &userDataService{backend: backend, clock: clk, retention: retention}
}

// EnsureUserNamespace maps a raw user id to its storage namespace. Distinct
// ids may collide after sanitization.
func (s *userDataService) EnsureUserNamespace(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "user id is required")
	}
	ns := unsafeNamespaceChars.ReplaceAllString(userID, "_")
	if strings.Trim(ns, ".") == "" {
		ns = strings.ReplaceAll(ns, ".", "_")
	}
	if len(ns) > maxNamespaceLength {
		ns = ns[:maxNamespaceLength]
	}
	return ns, nil
}

// GetUserData loads all four records, creating any that are missing.
func (s *userDataService) GetUserData(ctx context.Context, userID string) (*models.UserData, error) {
	profile, err := s.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	financial, err := s.LoadFinancial(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.LoadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	analytics, err := s.LoadAnalytics(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.UserData{
		Profile:   profile,
		Financial: financial,
		History:   history,
		Analytics: analytics,
	}, nil
}

func (s *userDataService) LoadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return load(ctx, s, userID, records.KindProfile, func() *models.UserProfile {
		return models.NewUserProfile(userID, s.clock.Now())
	})
}

func (s *userDataService) LoadFinancial(ctx context.Context, userID string) (*models.FinancialRecord, error) {
	f, err := load(ctx, s, userID, records.KindFinancial, models.NewFinancialRecord)
	if err != nil {
		return nil, err
	}
	if f.Income == nil {
		f.Income = []models.Transaction{}
	}
	if f.Expenses == nil {
		f.Expenses = []models.Transaction{}
	}
	return f, nil
}

func (s *userDataService) LoadHistory(ctx context.Context, userID string) (*models.HistoryRecord, error) {
	return load(ctx, s, userID, records.KindHistory, func() *models.HistoryRecord {
		return models.NewHistoryRecord(s.clock.Now())
	})
}

func (s *userDataService) LoadAnalytics(ctx context.Context, userID string) (*models.AnalyticsRecord, error) {
	return load(ctx, s, userID, records.KindAnalytics, models.NewAnalyticsRecord)
}

func (s *userDataService) SaveProfile(ctx context.Context, userID string, profile *models.UserProfile) error {
	return s.save(ctx, userID, records.KindProfile, profile)
}

func (s *userDataService) SaveFinancial(ctx context.Context, userID string, financial *models.FinancialRecord) error {
	return s.save(ctx, userID, records.KindFinancial, financial)
}

func (s *userDataService) SaveHistory(ctx context.Context, userID string, history *models.HistoryRecord) error {
	return s.save(ctx, userID, records.KindHistory, history)
}

func (s *userDataService) SaveAnalytics(ctx context.Context, userID string, analytics *models.AnalyticsRecord) error {
	return s.save(ctx, userID, records.KindAnalytics, analytics)
}

// AddToHistory appends an entry and trims the log to the newest entries.
func (s *userDataService) AddToHistory(ctx context.Context, userID, actionType string, data map[string]any) error {
	history, err := s.LoadHistory(ctx, userID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	history.Conversations = append(history.Conversations, models.HistoryEntry{
		Timestamp:  now,
		ActionType: actionType,
		Data:       data,
	})
	history.TotalInteractions++
	history.LastInteraction = now

	if over := len(history.Conversations) - s.retention; over > 0 {
		history.Conversations = append([]models.HistoryEntry(nil), history.Conversations[over:]...)
	}

	return s.SaveHistory(ctx, userID, history)
}

// ClearHistory resets the interaction log. Ledgers are untouched.
func (s *userDataService) ClearHistory(ctx context.Context, userID string) error {
	return s.SaveHistory(ctx, userID, models.NewHistoryRecord(s.clock.Now()))
}

// RecordActivity stamps the profile with the current time and platform.
func (s *userDataService) RecordActivity(ctx context.Context, userID, platform string) (*models.UserProfile, error) {
	profile, err := s.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.LastActiveAt = s.clock.Now()
	if platform != "" {
		profile.Platform = platform
	}
	profile.IsNewUser = profile.Name == nil
	if err := s.SaveProfile(ctx, userID, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile merges update into the stored profile.
func (s *userDataService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.UserProfile, error) {
	profile, err := s.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			profile.Name = nil
		} else {
			profile.Name = &name
		}
		profile.IsNewUser = profile.Name == nil
	}
	if p := update.Preferences; p != nil {
		if p.Currency != nil {
			if !p.Currency.Valid() {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be soles, dolares or pesos")
			}
			profile.Preferences.Currency = *p.Currency
		}
		if p.Timezone != nil {
			profile.Preferences.Timezone = *p.Timezone
		}
		if p.Language != nil {
			profile.Preferences.Language = *p.Language
		}
	}
	if a := update.AIPersonalization; a != nil {
		if a.CommunicationStyle != nil {
			profile.AIPersonalization.CommunicationStyle = *a.CommunicationStyle
		}
		if a.FinancialGoals != nil {
			profile.AIPersonalization.FinancialGoals = a.FinancialGoals
		}
		if a.RiskTolerance != nil {
			profile.AIPersonalization.RiskTolerance = *a.RiskTolerance
		}
	}

	if err := s.SaveProfile(ctx, userID, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// AddTrainingExample stores a user-supplied correction in analytics.
func (s *userDataService) AddTrainingExample(ctx context.Context, userID string, example models.TrainingExample) error {
	if strings.TrimSpace(example.Input) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "training example input is required")
	}
	analytics, err := s.LoadAnalytics(ctx, userID)
	if err != nil {
		return err
	}
	if example.Timestamp.IsZero() {
		example.Timestamp = s.clock.Now()
	}
	analytics.TrainingExamples = append(analytics.TrainingExamples, example)
	return s.SaveAnalytics(ctx, userID, analytics)
}

// load reads one record, creating and persisting the default when it does
// not exist yet.
func load[T any](ctx context.Context, s *userDataService, userID string, kind records.Kind, def func() *T) (*T, error) {
	ns, err := s.EnsureUserNamespace(userID)
	if err != nil {
		return nil, err
	}

	payload, err := s.backend.Load(ctx, ns, kind)
	if errors.Is(err, records.ErrRecordMissing) {
		rec := def()
		if err := s.save(ctx, userID, kind, rec); err != nil {
			return nil, err
		}
		logger.ForUser(ns).Debugw("Created default record", "kind", kind)
		return rec, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	rec := new(T)
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return rec, nil
}

func (s *userDataService) save(ctx context.Context, userID string, kind records.Kind, rec any) error {
	ns, err := s.EnsureUserNamespace(userID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.backend.Save(ctx, ns, kind, payload); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}
