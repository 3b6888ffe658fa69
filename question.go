package formlogic

// Question prefixes applied by DecorateQuestion.
const (
	MyInfoQuestionPrefix     = "[MyInfo] "
	AttachmentQuestionPrefix = "[attachment] "
	VerifiedQuestionPrefix   = "[verified] "
)

// DecorateQuestion returns the question title marked with the provenance of
// the answer, for display in admin and respondent emails.
func DecorateQuestion(p ProjectedResponse) string {
	question := p.Question
	if p.Verified {
		question = VerifiedQuestionPrefix + question
	}
	if p.FieldType == FieldTypeAttachment {
		question = AttachmentQuestionPrefix + question
	}
	if p.MyInfo {
		question = MyInfoQuestionPrefix + question
	}
	return question
}
