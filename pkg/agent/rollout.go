package agent

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// InRollout deterministically buckets a user into [0,100) and admits them
// when their bucket falls under the rollout percentage. The same user always
// lands in the same bucket, so flipping the percentage up never ejects
// already-admitted users.
func InRollout(userId uuid.UUID, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}

	h := fnv.New32a()
	h.Write([]byte(userId.String()))
	return int(h.Sum32()%100) < percent
}
