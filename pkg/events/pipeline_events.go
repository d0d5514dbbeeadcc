package events

import "time"

const (
	TypePipelineCompleted      = "PIPELINE_COMPLETED"
	TypePipelineFailed         = "PIPELINE_FAILED"
	TypeConversationsRecovered = "CONVERSATIONS_RECOVERED"
	TypeUserOnboarded          = "USER_ONBOARDED"
)

func NewPipelineCompleted(conversationId, userId string, durationMs int64) Event {
	return BaseEvent{
		Type: TypePipelineCompleted,
		Data: map[string]interface{}{
			"conversation_id": conversationId,
			"user_id":         userId,
			"duration_ms":     durationMs,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewPipelineFailed(conversationId, userId, stage, reason string) Event {
	return BaseEvent{
		Type: TypePipelineFailed,
		Data: map[string]interface{}{
			"conversation_id": conversationId,
			"user_id":         userId,
			"stage":           stage,
			"reason":          reason,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewConversationsRecovered(conversationIds []string) Event {
	return BaseEvent{
		Type: TypeConversationsRecovered,
		Data: map[string]interface{}{
			"conversation_ids": conversationIds,
			"count":            len(conversationIds),
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewUserOnboarded(userId string) Event {
	return BaseEvent{
		Type: TypeUserOnboarded,
		Data: map[string]interface{}{
			"user_id": userId,
		},
		OccurredAt: time.Now().UTC(),
	}
}
