package formlogic

import (
	"github.com/google/uuid"
)

// FieldType identifies the kind of question a field asks.
type FieldType string

const (
	FieldTypeSection    FieldType = "section"
	FieldTypeStatement  FieldType = "statement"
	FieldTypeImage      FieldType = "image"
	FieldTypeShortText  FieldType = "textfield"
	FieldTypeLongText   FieldType = "textarea"
	FieldTypeNumber     FieldType = "number"
	FieldTypeDecimal    FieldType = "decimal"
	FieldTypeDropdown   FieldType = "dropdown"
	FieldTypeRadio      FieldType = "radiobutton"
	FieldTypeCheckbox   FieldType = "checkbox"
	FieldTypeYesNo      FieldType = "yes_no"
	FieldTypeDate       FieldType = "date"
	FieldTypeRating     FieldType = "rating"
	FieldTypeTable      FieldType = "table"
	FieldTypeAttachment FieldType = "attachment"
	FieldTypeEmail      FieldType = "email"
	FieldTypeMobile     FieldType = "mobile"
	FieldTypeNRIC       FieldType = "nric"
)

// OthersPrefix marks a free-text answer entered through the "Others" option
// of a radio or checkbox field.
const OthersPrefix = "Others: "

// FieldDefinition is one question on a form.
type FieldDefinition struct {
	ID        string    `json:"id"`
	FieldType FieldType `json:"fieldType"`
	Title     string    `json:"title"`
	Required  bool      `json:"required"`

	// Choice fields
	Options         []string         `json:"options,omitempty"`
	OthersOption    bool             `json:"othersOption,omitempty"`
	SelectionLimits *SelectionLimits `json:"selectionLimits,omitempty"`

	// Table fields
	Columns     []ColumnDefinition `json:"columns,omitempty"`
	MinimumRows int                `json:"minimumRows,omitempty"`
	MaximumRows int                `json:"maximumRows,omitempty"`

	// Attachment fields, limit in MiB
	AttachmentSizeMB int `json:"attachmentSizeMB,omitempty"`

	// Rating fields
	RatingSteps int `json:"ratingSteps,omitempty"`

	TextLength          *LengthConstraint `json:"textLength,omitempty"`
	NumberRange         *RangeConstraint  `json:"numberRange,omitempty"`
	AllowedEmailDomains []string          `json:"allowedEmailDomains,omitempty"`

	// Provenance flags consumed by question decoration
	MyInfo     bool `json:"myInfo,omitempty"`
	Verifiable bool `json:"verifiable,omitempty"`
}

// ColumnDefinition is one column of a table field.
type ColumnDefinition struct {
	ID         string    `json:"id"`
	ColumnType FieldType `json:"columnType"`
	Title      string    `json:"title"`
	Required   bool      `json:"required"`
	Options    []string  `json:"options,omitempty"`
}

// SelectionLimits bounds the number of options a checkbox answer may select.
type SelectionLimits struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// LengthConstraint bounds the character count of a text answer.
// A zero bound is not enforced.
type LengthConstraint struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// RangeConstraint bounds a numeric answer. Nil bounds are not enforced.
type RangeConstraint struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// LogicType is the effect a logic rule has when all its conditions hold.
type LogicType string

const (
	LogicTypeShowFields    LogicType = "showFields"
	LogicTypePreventSubmit LogicType = "preventSubmit"
)

// LogicRule is an administrator-authored conditional effect.
// Conditions are AND-ed; rules targeting the same field are OR-ed.
type LogicRule struct {
	ID                   string      `json:"id"`
	LogicType            LogicType   `json:"logicType"`
	Conditions           []Condition `json:"conditions"`
	Show                 []string    `json:"show,omitempty"`
	PreventSubmitMessage string      `json:"preventSubmitMessage,omitempty"`
}

// Form is a field and logic definition as loaded by a FormRegistry.
type Form struct {
	ID       string            `json:"id"`
	Metadata FormMetadata      `json:"metadata"`
	Fields   []FieldDefinition `json:"fields"`
	Logic    []LogicRule       `json:"logic,omitempty"`
}

// FieldByID returns the field with the given id.
func (f *Form) FieldByID(id string) (*FieldDefinition, bool) {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i], true
		}
	}
	return nil, false
}

// Attachment is the file payload of an attachment answer.
type Attachment struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// ResponseItem is one respondent answer as deserialized by the transport layer.
type ResponseItem struct {
	FieldID     string      `json:"fieldId"`
	FieldType   FieldType   `json:"fieldType"`
	Question    string      `json:"question,omitempty"`
	Answer      string      `json:"answer,omitempty"`
	AnswerArray []string    `json:"answerArray,omitempty"`
	TableRows   [][]string  `json:"tableRows,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
}

// Submission is the raw set of answers for one form.
type Submission struct {
	FormID    string         `json:"formId,omitempty"`
	Responses []ResponseItem `json:"responses"`
}

// FieldVisibility is the server-side visibility decision for one field.
type FieldVisibility struct {
	Visible bool `json:"visible"`
}

// VisibilityMap maps field id to its visibility decision.
type VisibilityMap map[string]FieldVisibility

// IsVisible reports whether the field was meant to be shown.
func (v VisibilityMap) IsVisible(fieldID string) bool {
	return v[fieldID].Visible
}

// VisibleFieldIDs returns the ids of visible fields in form order.
func (v VisibilityMap) VisibleFieldIDs(form *Form) []string {
	ids := make([]string, 0, len(v))
	for _, field := range form.Fields {
		if v.IsVisible(field.ID) {
			ids = append(ids, field.ID)
		}
	}
	return ids
}

// SolverState is the terminal state of a visibility resolution.
type SolverState string

const (
	SolverStateIterating   SolverState = "iterating"
	SolverStateConverged   SolverState = "converged"
	SolverStateCycleBroken SolverState = "cycle_broken"
	SolverStatePrevented   SolverState = "prevented"
)

// VisibilityResult is the outcome of resolving logic without validating answers.
type VisibilityResult struct {
	FormID               string        `json:"formId"`
	Visibility           VisibilityMap `json:"visibility"`
	State                SolverState   `json:"state"`
	Passes               int           `json:"passes"`
	PreventSubmitRuleID  string        `json:"preventSubmitRuleId,omitempty"`
	PreventSubmitMessage string        `json:"preventSubmitMessage,omitempty"`
}

// ValidatedResponse is an accepted answer annotated with its visibility.
type ValidatedResponse struct {
	Field     FieldDefinition `json:"field"`
	Response  ResponseItem    `json:"response"`
	IsVisible bool            `json:"isVisible"`
}

// ProjectedResponse is the display-ready form of a validated answer.
type ProjectedResponse struct {
	FieldID     string     `json:"fieldId"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	AnswerLines []string   `json:"answerLines"`
	TableRows   [][]string `json:"tableRows,omitempty"`
	FieldType   FieldType  `json:"fieldType"`
	IsVisible   bool       `json:"isVisible"`
	MyInfo      bool       `json:"myInfo,omitempty"`
	Verified    bool       `json:"verified,omitempty"`
}

// ProjectionRow is one line of an email or audit view.
type ProjectionRow struct {
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	AnswerLines []string  `json:"answerLines"`
	FieldType   FieldType `json:"fieldType"`
}

// EvaluationResult is everything the engine derives from an accepted submission.
type EvaluationResult struct {
	SubmissionID  uuid.UUID           `json:"submissionId"`
	FormID        string              `json:"formId"`
	Visibility    VisibilityMap       `json:"visibility"`
	Responses     []ProjectedResponse `json:"responses"`
	Validated     []ValidatedResponse `json:"-"`
	FormData      []ProjectionRow     `json:"formData"`
	JSONData      []ProjectionRow     `json:"jsonData"`
	AutoReplyData []ProjectionRow     `json:"autoReplyData"`
	SolverState   SolverState         `json:"solverState"`
	Passes        int                 `json:"passes"`
}
