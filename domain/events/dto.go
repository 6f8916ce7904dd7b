package events

type TrackEventRequest struct {
	EventName string `json:"eventName" binding:"required,max=100"`
	Metadata  string `json:"metadata" binding:"omitempty,max=2000"`
	Page      string `json:"page" binding:"omitempty,max=500"`
}

type TrackEventResponse struct {
	Accepted bool `json:"accepted"`
}
