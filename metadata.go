package formlogic

// ResponseMode is how a form hands accepted responses to downstream storage.
type ResponseMode string

const (
	ResponseModeEmail   ResponseMode = "email"
	ResponseModeEncrypt ResponseMode = "encrypt"
)

// FormMetadata carries descriptive attributes of a form that the engine
// passes through untouched.
type FormMetadata struct {
	Title        string       `json:"title"`
	ResponseMode ResponseMode `json:"responseMode,omitempty"`
	Version      int          `json:"version,omitempty"`
	// AdminEmails receive the admin notification rendered from formData.
	AdminEmails []string `json:"adminEmails,omitempty"`
}
