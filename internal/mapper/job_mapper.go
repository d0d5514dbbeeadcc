package mapper

import (
	"encoding/json"

	"companion-game-be/internal/entity"
	"companion-game-be/internal/model"

	"gorm.io/datatypes"
)

type JobMapper struct{}

func NewJobMapper() *JobMapper {
	return &JobMapper{}
}

func (m *JobMapper) ToEntity(j *model.JobExecution) *entity.JobExecution {
	if j == nil {
		return nil
	}

	var result *entity.JobResult
	if len(j.Result) > 0 {
		var r entity.JobResult
		if err := json.Unmarshal(j.Result, &r); err == nil {
			result = &r
		}
	}

	return &entity.JobExecution{
		Id:          j.Id,
		JobName:     entity.JobName(j.JobName),
		UserId:      j.UserId,
		Status:      entity.JobStatus(j.Status),
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		DurationMS:  j.DurationMS,
		Result:      result,
	}
}

func (m *JobMapper) ToModel(j *entity.JobExecution) *model.JobExecution {
	if j == nil {
		return nil
	}

	var result datatypes.JSON
	if j.Result != nil {
		raw, _ := json.Marshal(j.Result)
		result = datatypes.JSON(raw)
	}

	return &model.JobExecution{
		Id:          j.Id,
		JobName:     string(j.JobName),
		UserId:      j.UserId,
		Status:      string(j.Status),
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		DurationMS:  j.DurationMS,
		Result:      result,
	}
}

func (m *JobMapper) ToEntities(models []*model.JobExecution) []*entity.JobExecution {
	entities := make([]*entity.JobExecution, len(models))
	for i, j := range models {
		entities[i] = m.ToEntity(j)
	}
	return entities
}
