package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

var taskPatchKeys = map[string]struct{}{
	"title": {}, "description": {}, "instructions": {}, "difficulty": {}, "estimatedDuration": {},
	"goalId": {}, "status": {}, "progress": {}, "dueDate": {},
}

// taskPatchResult carries the fields whose application needs a lookup.
type taskPatchResult struct {
	goalChanged bool
}

// applyTaskPatch merges a raw field patch into task. Dates are re-parsed from
// RFC3339 or YYYY-MM-DD.
func applyTaskPatch(task *models.TherapyTask, patch dto.TaskPatch) (taskPatchResult, error) {
	var result taskPatchResult
	if len(patch) == 0 {
		return result, appErrors.Clone(appErrors.ErrValidation, "patch must not be empty")
	}
	unknown := make([]string, 0)
	for key := range patch {
		if _, ok := taskPatchKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return result, appErrors.Clone(appErrors.ErrValidation, "unsupported task fields: "+strings.Join(unknown, ", "))
	}

	if str, ok, err := readString(patch, "title"); err != nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "title must be a string")
	} else if ok {
		if *str == "" {
			return result, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
		}
		task.Title = *str
	}
	if str, ok, err := readString(patch, "description"); err != nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "description must be a string")
	} else if ok {
		task.Description = *str
	}
	if str, ok, err := readString(patch, "instructions"); err != nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "instructions must be a string")
	} else if ok {
		task.Instructions = *str
	}
	if str, ok, err := readString(patch, "difficulty"); err != nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "difficulty must be a string")
	} else if ok {
		d := models.Difficulty(strings.ToLower(*str))
		if d.Rank() == 0 {
			return result, appErrors.Clone(appErrors.ErrValidation, "difficulty must be beginner, intermediate or advanced")
		}
		task.Difficulty = d
	}
	if n, ok, err := readNumber(patch, "estimatedDuration"); err != nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "estimatedDuration must be a number")
	} else if ok {
		if n < 0 || n != math.Trunc(n) {
			return result, appErrors.Clone(appErrors.ErrValidation, "estimatedDuration must be a non-negative integer")
		}
		task.EstimatedDuration = int(n)
	}
	if raw, ok := patch["goalId"]; ok {
		if isNull(raw) {
			task.GoalID = nil
		} else {
			str, _, err := readString(patch, "goalId")
			if err != nil || *str == "" {
				return result, appErrors.Clone(appErrors.ErrValidation, "goalId must be a non-empty string or null")
			}
			task.GoalID = str
		}
		result.goalChanged = true
	}
	if str, ok, err := readString(patch, "status"); err != nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "status must be a string")
	} else if ok {
		status := models.TaskStatus(*str)
		if !status.Valid() {
			return result, appErrors.Clone(appErrors.ErrValidation, "unknown task status")
		}
		task.Status = status
	}
	if n, ok, err := readNumber(patch, "progress"); err != nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "progress must be a number")
	} else if ok {
		task.Progress = clampPercent(n)
	}
	if raw, ok := patch["dueDate"]; ok {
		if isNull(raw) {
			task.DueDate = nil
		} else {
			due, err := readDate(raw)
			if err != nil {
				return result, appErrors.Clone(appErrors.ErrValidation, "dueDate must be RFC3339 or YYYY-MM-DD")
			}
			task.DueDate = &due
		}
	}
	return result, nil
}

func readString(payload map[string]json.RawMessage, keys ...string) (*string, bool, error) {
	for _, key := range keys {
		if raw, ok := payload[key]; ok {
			var val string
			if err := json.Unmarshal(raw, &val); err != nil {
				return nil, false, err
			}
			val = strings.TrimSpace(val)
			return &val, true, nil
		}
	}
	return nil, false, nil
}

func readNumber(payload map[string]json.RawMessage, key string) (float64, bool, error) {
	raw, ok := payload[key]
	if !ok {
		return 0, false, nil
	}
	var val float64
	if err := json.Unmarshal(raw, &val); err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func readDate(raw json.RawMessage) (time.Time, error) {
	var val string
	if err := json.Unmarshal(raw, &val); err != nil {
		return time.Time{}, err
	}
	val = strings.TrimSpace(val)
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", val, err)
	}
	return t, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
