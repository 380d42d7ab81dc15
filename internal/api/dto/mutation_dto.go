package dto

// ActionResponse is returned by the JSON workflow actions. Failures the user
// can act on are reported with Success false and a message instead of an
// error status.
type ActionResponse struct {
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
	Count   *int    `json:"count,omitempty"`
	Data    *string `json:"data,omitempty"`
}

// Succeeded builds a successful response.
func Succeeded() ActionResponse {
	return ActionResponse{Success: true}
}

// SucceededWithCount builds a successful response carrying a count.
func SucceededWithCount(count int) ActionResponse {
	return ActionResponse{Success: true, Count: &count}
}

// SucceededWithData builds a successful response carrying text.
func SucceededWithData(data string) ActionResponse {
	return ActionResponse{Success: true, Data: &data}
}

// Failed builds a failed response.
func Failed(message string) ActionResponse {
	return ActionResponse{Success: false, Error: &message}
}

// UnfreezeRequest is the form of POST /api/unfreeze-objects.
type UnfreezeRequest struct {
	ObjectIDs string `form:"object_ids"`
	Reason    string `form:"reason"`
	Enqueue   string `form:"enqueue"`
}
