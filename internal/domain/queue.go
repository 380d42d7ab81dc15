package domain

import (
	"strconv"
	"strings"
)

// QueueType names a workflow stage queue.
type QueueType string

const (
	QueueDownloadObject QueueType = "download_object"
	QueueCreateSIP      QueueType = "create_sip"
	QueueSubmitSIP      QueueType = "submit_sip"
	QueueConfirmSIP     QueueType = "confirm_sip"
)

// QueueTypes lists the workflow queues in pipeline order.
var QueueTypes = []QueueType{
	QueueDownloadObject,
	QueueCreateSIP,
	QueueSubmitSIP,
	QueueConfirmSIP,
}

// FailedQueueName is reported for objects whose job sits in a failed registry.
const FailedQueueName = "failed"

// JobID returns the job id the workflow uses for an object in a queue.
func JobID(queue QueueType, objectID int64) string {
	return string(queue) + "_" + strconv.FormatInt(objectID, 10)
}

// ObjectIDFromJobID extracts the object id from a workflow job id
// such as "create_sip_1234".
func ObjectIDFromJobID(jobID string) (int64, bool) {
	idx := strings.LastIndex(jobID, "_")
	if idx < 0 || idx == len(jobID)-1 {
		return 0, false
	}
	id, err := strconv.ParseInt(jobID[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
