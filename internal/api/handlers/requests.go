package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DiscoverEventsRequest is the body of POST /api/events/discover-events
type DiscoverEventsRequest struct {
	Location string `json:"location" validate:"required,max=200"`
	Platform string `json:"platform" validate:"omitempty,max=50"`
	Month    *int   `json:"month" validate:"omitempty,min=1,max=12"`
	Year     *int   `json:"year" validate:"omitempty,min=1"`
}

// WatchEventRequest is the body of POST /api/events/events/watch
type WatchEventRequest struct {
	EventID     string `json:"event_id" validate:"required"`
	WatchStatus *bool  `json:"watch_status" validate:"required"`
}

// UpdatePreferencesRequest is the body of PUT /api/users/preferences.
// Absent fields are left unchanged.
type UpdatePreferencesRequest struct {
	Location          *string  `json:"location" validate:"omitempty,min=1,max=200"`
	Categories        []string `json:"categories" validate:"omitempty,dive,oneof=Conference Workshop Networking Talk Hackathon Other"`
	MinRelevanceScore *int     `json:"min_relevance_score" validate:"omitempty,min=1,max=10"`
	Platform          *string  `json:"platform" validate:"omitempty,oneof=luma meetup"`
	Notifications     *bool    `json:"notifications"`
	Theme             *string  `json:"theme" validate:"omitempty,max=50"`
}

// Preferences returns the fields that were supplied
func (r *UpdatePreferencesRequest) Preferences() entities.Preferences {
	prefs := entities.Preferences{}
	if r.Location != nil {
		prefs[entities.PrefLocation] = *r.Location
	}
	if r.Categories != nil {
		prefs[entities.PrefCategories] = r.Categories
	}
	if r.MinRelevanceScore != nil {
		prefs[entities.PrefMinRelevanceScore] = *r.MinRelevanceScore
	}
	if r.Platform != nil {
		prefs[entities.PrefPlatform] = *r.Platform
	}
	if r.Notifications != nil {
		prefs[entities.PrefNotifications] = *r.Notifications
	}
	if r.Theme != nil {
		prefs[entities.PrefTheme] = *r.Theme
	}
	return prefs
}

// decodeJSON decodes a size-limited body into dst. An empty body is an
// error unless allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return errors.New("invalid request payload")
	}
	return nil
}

// validateRequest validates a struct and returns a user-facing message
func validateRequest(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
