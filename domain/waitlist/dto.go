package waitlist

import (
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// JoinWaitlistRequest is bound by gin for presence and size, then validated
// again by the service after normalization.
type JoinWaitlistRequest struct {
	Email    string `json:"email" binding:"required,max=254" validate:"required,email,max=254"`
	Username string `json:"username" binding:"required,max=100" validate:"required,max=100"`
	Project  string `json:"project" binding:"omitempty,max=200" validate:"omitempty,max=200"`
	Referrer string `json:"referrer" binding:"omitempty,max=500" validate:"omitempty,max=500"`
}

// JoinWaitlistResponse omits position when it could not be determined.
type JoinWaitlistResponse struct {
	Success  bool `json:"success"`
	Position int  `json:"position,omitempty"`
	Mock     bool `json:"mock,omitempty"`
}

func normalizeRequest(req *JoinWaitlistRequest) *JoinWaitlistRequest {
	return &JoinWaitlistRequest{
		Email:    cases.Lower(language.Und).String(strings.TrimSpace(req.Email)),
		Username: strings.TrimSpace(req.Username),
		Project:  strings.TrimSpace(req.Project),
		Referrer: strings.TrimSpace(req.Referrer),
	}
}

func ToWaitlistEntryModel(req *JoinWaitlistRequest, at time.Time) models.WaitlistEntry {
	return models.WaitlistEntry{
		Timestamp: constants.FormatTimestamp(at),
		Email:     req.Email,
		Project:   req.Project,
		Username:  req.Username,
		Referrer:  req.Referrer,
	}
}
