package api

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// hoursValue accepts manual hours as either a JSON string ("1:30", "1.5") or a number.
type hoursValue string

func (value *hoursValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*value = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*value = hoursValue(text)
		return nil
	}
	var number float64
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return err
	}
	*value = hoursValue(strconv.FormatFloat(number, 'f', -1, 64))
	return nil
}

// patchHours records whether "hours" was present in a patch body. An explicit null is
// present and clears the stored hours.
type patchHours struct {
	set   bool
	value hoursValue
}

func (hours *patchHours) UnmarshalJSON(data []byte) error {
	hours.set = true
	return hours.value.UnmarshalJSON(data)
}

type workUnitPayload struct {
	ProjectID  *uint      `json:"project_id"`
	Start      string     `json:"start"`
	Stop       string     `json:"stop"`
	TimeZone   int        `json:"time_zone"`
	Hours      hoursValue `json:"hours"`
	AutoStop   bool       `json:"auto_stop"`
	Billable   *bool      `json:"billable"`
	Notes      string     `json:"notes"`
	Annotation string     `json:"annotation"`
}

type workUnitPatchPayload struct {
	ProjectID *uint      `json:"project_id"`
	Start     *string    `json:"start"`
	Stop      *string    `json:"stop"`
	TimeZone  *int       `json:"time_zone"`
	Hours     patchHours `json:"hours"`
	AutoStop  bool       `json:"auto_stop"`
	Billable  *bool      `json:"billable"`
	Notes     *string    `json:"notes"`
}

type projectPayload struct {
	Name        string `json:"name"`
	ParentID    *uint  `json:"parent_id"`
	ClientID    *uint  `json:"client_id"`
	Account     string `json:"account"`
	Description string `json:"description"`
	Clockable   bool   `json:"clockable"`
	Billable    *bool  `json:"billable"`
	FlatRate    bool   `json:"flat_rate"`
	Archived    bool   `json:"archived"`
}

type projectPatchPayload struct {
	Name        *string `json:"name"`
	ParentID    *uint   `json:"parent_id"`
	ClientID    *uint   `json:"client_id"`
	Account     *string `json:"account"`
	Description *string `json:"description"`
	Clockable   *bool   `json:"clockable"`
	Billable    *bool   `json:"billable"`
	FlatRate    *bool   `json:"flat_rate"`
	Archived    *bool   `json:"archived"`
}

type rateItemPayload struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Delete bool   `json:"delete"`
}

type rateBatchPayload struct {
	Rates []rateItemPayload `json:"rates"`
}

type repositoryItemPayload struct {
	ID     uint   `json:"id"`
	URL    string `json:"url"`
	Delete bool   `json:"delete"`
}

type repositoryBatchPayload struct {
	Repositories []repositoryItemPayload `json:"repositories"`
}

type rateUsersPayload struct {
	UserIDs []uint `json:"user_ids"`
}

type billPayload struct {
	Notes           string `json:"notes"`
	DueOn           string `json:"due_on"`
	ReferenceNumber string `json:"reference_number"`
	WorkUnitIDs     []uint `json:"work_unit_ids"`
}

type billPaidPayload struct {
	PaidOn *string `json:"paid_on"`
}
