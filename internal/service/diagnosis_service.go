package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vehicle-bot/internal/advisor"
	"vehicle-bot/internal/domain/vehicle"
	"vehicle-bot/internal/repository"
	"vehicle-bot/internal/risk"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Store is the persistence surface the service needs.
// *repository.DiagnosisRepository satisfies it.
type Store interface {
	UpsertProfile(ctx context.Context, userID uuid.UUID, snapshot vehicle.Snapshot) (*repository.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*repository.Profile, error)
	SetProfilePhoto(ctx context.Context, userID uuid.UUID, photoKey string) error
	CreateAssessment(ctx context.Context, record *repository.AssessmentRecord) error
	ListAssessments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]repository.AssessmentRecord, error)
	DeleteOldAssessments(ctx context.Context, days int) (int64, error)
}

type DiagnosisService struct {
	store   Store
	engine  *risk.Engine
	advisor advisor.Generator
	log     zerolog.Logger
}

func NewDiagnosisService(store Store, engine *risk.Engine, gen advisor.Generator, log zerolog.Logger) *DiagnosisService {
	return &DiagnosisService{
		store:   store,
		engine:  engine,
		advisor: gen,
		log:     log,
	}
}

// DiagnosisResult is a completed diagnosis: the assessment plus the
// generated advisory and the persisted record's identity.
type DiagnosisResult struct {
	ID         string              `json:"id"`
	Assessment *vehicle.Assessment `json:"assessment"`
	Advisory   string              `json:"advisory,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type ProfileInfo struct {
	UserID    string           `json:"user_id"`
	Snapshot  vehicle.Snapshot `json:"snapshot"`
	PhotoKey  *string          `json:"photo_key,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type AssessmentInfo struct {
	ID                  string            `json:"id"`
	VehicleClass        string            `json:"vehicle_class"`
	RiskScore           int               `json:"risk_score"`
	RiskLevel           string            `json:"risk_level"`
	ContributingFactors []vehicle.Factor  `json:"contributing_factors,omitempty"`
	DueParts            []vehicle.DuePart `json:"due_parts,omitempty"`
	Flags               []vehicle.Flag    `json:"flags,omitempty"`
	Advisory            *string           `json:"advisory,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// RunDiagnosis scores the snapshot, asks the advisor for plain-language
// guidance and persists the whole thing. Advisor failure is not fatal;
// the diagnosis is stored and returned without advisory text.
func (s *DiagnosisService) RunDiagnosis(ctx context.Context, userID uuid.UUID, snapshot vehicle.Snapshot) (*DiagnosisResult, error) {
	assessment, err := s.engine.Assess(snapshot)
	if err != nil {
		return nil, mapEngineError(err)
	}

	advisory := ""
	if s.advisor != nil {
		advice, err := s.advisor.Generate(ctx, advisor.AdviceRequest{
			Snapshot:   snapshot,
			Assessment: *assessment,
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("advisory generation failed, returning assessment without it")
		} else {
			advisory = advice.Text
			s.log.Debug().
				Str("model", advice.Usage.Model).
				Int("input_tokens", advice.Usage.InputTokens).
				Int("output_tokens", advice.Usage.OutputTokens).
				Msg("advisory generated")
		}
	}

	record, err := buildAssessmentRecord(userID, snapshot, assessment, advisory)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateAssessment(ctx, record); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to persist assessment")
		return nil, fmt.Errorf("persist assessment: %w", err)
	}

	s.log.Info().
		Str("assessment_id", record.ID.String()).
		Str("user_id", userID.String()).
		Str("vehicle_class", record.VehicleClass).
		Int("risk_score", assessment.RiskScore).
		Str("risk_level", string(assessment.RiskLevel)).
		Int("due_parts", len(assessment.DueParts)).
		Msg("diagnosis completed")

	return &DiagnosisResult{
		ID:         record.ID.String(),
		Assessment: assessment,
		Advisory:   advisory,
		CreatedAt:  record.CreatedAt,
	}, nil
}

// PreviewDueParts evaluates the maintenance rules without persisting
// anything. Used for the quick "what is due" lookup.
func (s *DiagnosisService) PreviewDueParts(snapshot vehicle.Snapshot) ([]vehicle.DuePart, error) {
	parts, err := s.engine.DueParts(snapshot)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return parts, nil
}

func (s *DiagnosisService) SaveProfile(ctx context.Context, userID uuid.UUID, snapshot vehicle.Snapshot) (*ProfileInfo, error) {
	// Run the validation pass before persisting anything.
	if _, err := s.engine.DueParts(snapshot); err != nil {
		return nil, mapEngineError(err)
	}

	profile, err := s.store.UpsertProfile(ctx, userID, snapshot)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to upsert profile")
		return nil, fmt.Errorf("save profile: %w", err)
	}

	return profileInfo(profile)
}

func (s *DiagnosisService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileInfo, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: profile", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profileInfo(profile)
}

func (s *DiagnosisService) SetProfilePhoto(ctx context.Context, userID uuid.UUID, photoKey string) error {
	err := s.store.SetProfilePhoto(ctx, userID, photoKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: profile", ErrNotFound)
	}
	return err
}

func (s *DiagnosisService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]AssessmentInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.store.ListAssessments(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	result := make([]AssessmentInfo, 0, len(records))
	for _, r := range records {
		info, err := assessmentInfo(r)
		if err != nil {
			s.log.Error().Err(err).Str("assessment_id", r.ID.String()).Msg("skipping undecodable assessment record")
			continue
		}
		result = append(result, info)
	}
	return result, nil
}

// CleanupOldAssessments removes history older than the given number of days.
func (s *DiagnosisService) CleanupOldAssessments(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}
	deleted, err := s.store.DeleteOldAssessments(ctx, days)
	if err != nil {
		s.log.Error().Err(err).Int("days", days).Msg("failed to cleanup old assessments")
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted_count", deleted).Int("days", days).Msg("cleaned up old assessments")
	}
	return deleted, nil
}

func mapEngineError(err error) error {
	if errors.Is(err, risk.ErrInvalidSnapshot) || errors.Is(err, risk.ErrUnknownVehicleClass) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}

func buildAssessmentRecord(userID uuid.UUID, snapshot vehicle.Snapshot, assessment *vehicle.Assessment, advisory string) (*repository.AssessmentRecord, error) {
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	factorsJSON, err := json.Marshal(assessment.ContributingFactors)
	if err != nil {
		return nil, fmt.Errorf("marshal factors: %w", err)
	}
	partsJSON, err := json.Marshal(assessment.DueParts)
	if err != nil {
		return nil, fmt.Errorf("marshal due parts: %w", err)
	}
	flagsJSON, err := json.Marshal(assessment.Flags)
	if err != nil {
		return nil, fmt.Errorf("marshal flags: %w", err)
	}

	record := &repository.AssessmentRecord{
		ID:                  uuid.New(),
		UserID:              userID,
		VehicleClass:        string(snapshot.Class),
		RiskScore:           assessment.RiskScore,
		RiskLevel:           string(assessment.RiskLevel),
		Snapshot:            datatypes.JSON(snapJSON),
		ContributingFactors: datatypes.JSON(factorsJSON),
		DueParts:            datatypes.JSON(partsJSON),
		Flags:               datatypes.JSON(flagsJSON),
	}
	if advisory != "" {
		record.Advisory = &advisory
	}
	return record, nil
}

func profileInfo(p *repository.Profile) (*ProfileInfo, error) {
	var snapshot vehicle.Snapshot
	if err := json.Unmarshal(p.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("decode profile snapshot: %w", err)
	}
	return &ProfileInfo{
		UserID:    p.UserID.String(),
		Snapshot:  snapshot,
		PhotoKey:  p.PhotoKey,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func assessmentInfo(r repository.AssessmentRecord) (AssessmentInfo, error) {
	info := AssessmentInfo{
		ID:           r.ID.String(),
		VehicleClass: r.VehicleClass,
		RiskScore:    r.RiskScore,
		RiskLevel:    r.RiskLevel,
		Advisory:     r.Advisory,
		CreatedAt:    r.CreatedAt,
	}

	if len(r.ContributingFactors) > 0 {
		if err := json.Unmarshal(r.ContributingFactors, &info.ContributingFactors); err != nil {
			return AssessmentInfo{}, fmt.Errorf("decode factors: %w", err)
		}
	}
	if len(r.DueParts) > 0 {
		if err := json.Unmarshal(r.DueParts, &info.DueParts); err != nil {
			return AssessmentInfo{}, fmt.Errorf("decode due parts: %w", err)
		}
	}
	if len(r.Flags) > 0 {
		if err := json.Unmarshal(r.Flags, &info.Flags); err != nil {
			return AssessmentInfo{}, fmt.Errorf("decode flags: %w", err)
		}
	}
	return info, nil
}
