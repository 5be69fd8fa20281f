package authzhttp

import (
	"net/http"

	"github.com/meridian-sis/meridian/internal/authz"
	"github.com/meridian-sis/meridian/internal/platform/httpx"
)

// envelope is the uniform response body for every policy endpoint.
// Allowed and FilteredIDs are pointers so yes/no decisions and filter
// decisions each emit exactly the fields callers key off: a filter
// response always carries filteredIds (possibly empty) and omits
// allowed unless the action computed both.
type envelope struct {
	Success      bool      `json:"success"`
	Allowed      *bool     `json:"allowed,omitempty"`
	FilteredIDs  *[]string `json:"filteredIds,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Error        string    `json:"error,omitempty"`
	Details      string    `json:"details,omitempty"`
	ValidActions []string  `json:"validActions,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	httpx.JSON(w, status, env)
}

// writeDecision maps an engine Decision onto the response envelope.
// Computed decisions are always HTTP 200, allowed or not.
func writeDecision(w http.ResponseWriter, d authz.Decision) {
	env := envelope{
		Success: d.Success,
		Reason:  d.Reason,
	}
	if d.FilteredIDs != nil {
		ids := d.FilteredIDs
		env.FilteredIDs = &ids
	}
	if d.FilteredIDs == nil || d.Allowed {
		allowed := d.Allowed
		env.Allowed = &allowed
	}
	writeEnvelope(w, http.StatusOK, env)
}
