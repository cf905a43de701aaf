package auth

import (
	"encoding/json"
	"net/http"
)

// FailureType tags a terminal validation failure. Every tag except
// TypeDatabase is an expected, user-facing outcome; TypeDatabase is the
// only tag a caller should consider retry-worthy.
type FailureType string

const (
	TypeNotLoggedIn          FailureType = "notLoggedIn"
	TypeIncompleteAuth       FailureType = "incompleteAuth"
	TypeVerification         FailureType = "verification"
	TypeLoginSessionNotFound FailureType = "loginSessionNotFound"
	TypeCSRFSessionNotFound  FailureType = "csrfSessionNotFound"
	TypeSessionExpired       FailureType = "sessionExpired"
	TypeSessionCanceled      FailureType = "sessionCanceled"
	TypeDatabase             FailureType = "database"
)

// Failure is a terminal validation outcome. It ends the state machine
// and determines the HTTP response; no further checks run after one fires.
type Failure struct {
	Type    FailureType
	Message string
}

// Status returns the HTTP status code for the failure.
func (f *Failure) Status() int {
	if f.Type == TypeDatabase {
		return http.StatusInternalServerError
	}
	return http.StatusUnauthorized
}

// rejectedEnvelope is the JSON body the client uses to decide between
// "please log in", "your session expired", and a generic error.
type rejectedEnvelope struct {
	AuthRejected rejectedBody `json:"authRejected"`
}

type rejectedBody struct {
	ErrorType    FailureType `json:"errorType"`
	ErrorMessage string      `json:"errorMessage"`
}

// WriteResponse emits the failure envelope with the failure's status code.
func (f *Failure) WriteResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.Status())
	json.NewEncoder(w).Encode(rejectedEnvelope{
		AuthRejected: rejectedBody{
			ErrorType:    f.Type,
			ErrorMessage: f.Message,
		},
	})
}
