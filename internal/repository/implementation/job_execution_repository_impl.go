package implementation

import (
	"context"
	"errors"
	"time"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/mapper"
	"companion-game-be/internal/model"
	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobExecutionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.JobMapper
}

func NewJobExecutionRepository(db *gorm.DB) contract.JobExecutionRepository {
	return &JobExecutionRepositoryImpl{
		db:     db,
		mapper: mapper.NewJobMapper(),
	}
}

func (r *JobExecutionRepositoryImpl) StartExecution(ctx context.Context, name entity.JobName) (*entity.JobExecution, error) {
	m := &model.JobExecution{
		JobName:   string(name),
		Status:    string(entity.JobStatusRunning),
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(m), nil
}

func (r *JobExecutionRepositoryImpl) CompleteExecution(ctx context.Context, id uuid.UUID, result *entity.JobResult) (*entity.JobExecution, error) {
	return r.finalize(ctx, id, entity.JobStatusCompleted, result)
}

func (r *JobExecutionRepositoryImpl) FailExecution(ctx context.Context, id uuid.UUID, result *entity.JobResult) (*entity.JobExecution, error) {
	return r.finalize(ctx, id, entity.JobStatusFailed, result)
}

// finalize sets completed_at exactly once; a row that already left running is
// never re-opened or overwritten.
func (r *JobExecutionRepositoryImpl) finalize(ctx context.Context, id uuid.UUID, status entity.JobStatus, result *entity.JobResult) (*entity.JobExecution, error) {
	var m model.JobExecution
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrJobExecutionNotFound
		}
		return nil, err
	}
	if m.CompletedAt != nil {
		return r.mapper.ToEntity(&m), nil
	}

	now := time.Now().UTC()
	duration := now.Sub(m.StartedAt).Milliseconds()

	updated := r.mapper.ToModel(&entity.JobExecution{Result: result})
	m.Status = string(status)
	m.CompletedAt = &now
	m.DurationMS = &duration
	m.Result = updated.Result

	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *JobExecutionRepositoryImpl) AttachUser(ctx context.Context, id uuid.UUID, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.JobExecution{}).
		Where("id = ?", id).
		Update("user_id", userId).Error
}

func (r *JobExecutionRepositoryImpl) GetLatestByJobName(ctx context.Context, name entity.JobName) (*entity.JobExecution, error) {
	var m model.JobExecution
	err := r.db.WithContext(ctx).
		Where("job_name = ?", string(name)).
		Order("started_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *JobExecutionRepositoryImpl) GetRecentExecutions(ctx context.Context, name *entity.JobName, status *entity.JobStatus, limit int) ([]*entity.JobExecution, error) {
	if limit < 1 {
		limit = 20
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "started_at", Desc: true},
		specification.Pagination{Limit: limit},
	}
	if name != nil {
		specs = append(specs, specification.ByJobName{Name: string(*name)})
	}
	if status != nil {
		specs = append(specs, specification.ByJobStatus{Status: string(*status)})
	}

	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var models []*model.JobExecution
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *JobExecutionRepositoryImpl) GetUserExecutions(ctx context.Context, userId uuid.UUID, page, pageSize int) ([]*entity.JobExecution, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	err := r.db.WithContext(ctx).Model(&model.JobExecution{}).
		Where("user_id = ?", userId).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var models []*model.JobExecution
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("started_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	return r.mapper.ToEntities(models), total, nil
}

func (r *JobExecutionRepositoryImpl) HasRecentExecution(ctx context.Context, name entity.JobName, window time.Duration) (bool, error) {
	since := time.Now().UTC().Add(-window)

	var count int64
	query := r.db.WithContext(ctx).Model(&model.JobExecution{})
	query = specification.ByJobName{Name: string(name)}.Apply(query)
	query = specification.CompletedSince{Since: since}.Apply(query)
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *JobExecutionRepositoryImpl) HasRunning(ctx context.Context, name entity.JobName) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.JobExecution{}).
		Where("job_name = ? AND status = ?", string(name), string(entity.JobStatusRunning)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
