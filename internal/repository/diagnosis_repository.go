package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vehicle-bot/internal/domain/vehicle"
)

type DiagnosisRepository struct {
	db *gorm.DB
}

func NewDiagnosisRepository(db *gorm.DB) *DiagnosisRepository {
	return &DiagnosisRepository{db: db}
}

func (Profile) TableName() string {
	return "diag_profiles"
}

func (AssessmentRecord) TableName() string {
	return "diag_assessments"
}

type Profile struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Snapshot  datatypes.JSON `gorm:"type:jsonb;not null"`
	PhotoKey  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AssessmentRecord struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null"`
	VehicleClass        string         `gorm:"not null"`
	RiskScore           int            `gorm:"not null"`
	RiskLevel           string         `gorm:"not null"`
	Snapshot            datatypes.JSON `gorm:"type:jsonb;not null"`
	ContributingFactors datatypes.JSON `gorm:"type:jsonb"`
	DueParts            datatypes.JSON `gorm:"type:jsonb"`
	Flags               datatypes.JSON `gorm:"type:jsonb"`
	Advisory            *string
	CreatedAt           time.Time
}

// UpsertProfile stores the full snapshot for the user, replacing any
// previous one. The unique index on user_id makes this an insert or a
// whole-snapshot update.
func (r *DiagnosisRepository) UpsertProfile(ctx context.Context, userID uuid.UUID, snapshot vehicle.Snapshot) (*Profile, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	profile := Profile{
		ID:        uuid.New(),
		UserID:    userID,
		Snapshot:  datatypes.JSON(raw),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
		}).
		Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return r.GetProfile(ctx, userID)
}

func (r *DiagnosisRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var profile Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *DiagnosisRepository) SetProfilePhoto(ctx context.Context, userID uuid.UUID, photoKey string) error {
	result := r.db.WithContext(ctx).
		Model(&Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"photo_key": photoKey, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("set profile photo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DiagnosisRepository) CreateAssessment(ctx context.Context, record *AssessmentRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

func (r *DiagnosisRepository) ListAssessments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]AssessmentRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit)

	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []AssessmentRecord
	err := query.Find(&records).Error
	return records, err
}

func (r *DiagnosisRepository) GetAssessment(ctx context.Context, id uuid.UUID) (*AssessmentRecord, error) {
	var record AssessmentRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteOldAssessments removes assessments older than the given number
// of days and returns how many rows went away.
func (r *DiagnosisRepository) DeleteOldAssessments(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&AssessmentRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
