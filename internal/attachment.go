package internal

import (
	"path/filepath"
	"strings"

	"github.com/lychee-technology/formlogic"
)

const bytesPerMB = 1024 * 1024

// validateAttachment checks presence, extension and size of one attachment
// and adds its size to the running submission total.
func (v *responseValidator) validateAttachment(field *formlogic.FieldDefinition, resp *formlogic.ResponseItem, visible bool, total *int64) *formlogic.EngineError {
	size := attachmentSize(resp)
	filename := resp.Answer
	if resp.Attachment != nil && resp.Attachment.Filename != "" {
		filename = resp.Attachment.Filename
	}
	named := strings.TrimSpace(filename) != ""

	if !visible {
		if named || size > 0 {
			return formlogic.NewInvalidAnswerError(formlogic.ErrCodeHiddenFieldAnswered, field.ID,
				"hidden attachment field must not carry a file").WithDetail("size", size)
		}
		return nil
	}

	if !named && size == 0 {
		if field.Required {
			return formlogic.NewInvalidAttachmentError(formlogic.ErrCodeAttachmentMissingFile, field.ID,
				"required attachment is missing", 0, 0)
		}
		return nil
	}
	if size == 0 {
		return formlogic.NewInvalidAttachmentError(formlogic.ErrCodeAttachmentMissingFile, field.ID,
			"attachment has no content", 0, 0).WithDetail("filename", filename)
	}

	ext := normalizeExtension(filepath.Ext(filename))
	if v.allowedExt.Size() > 0 && !v.allowedExt.Contains(ext) {
		return formlogic.NewInvalidAttachmentError(formlogic.ErrCodeAttachmentExtension, field.ID,
			"attachment file type is not allowed", 0, size).WithDetail("extension", ext)
	}

	limit := v.fieldLimitBytes(field)
	if size > limit {
		return formlogic.NewInvalidAttachmentError(formlogic.ErrCodeAttachmentTooLarge, field.ID,
			"attachment exceeds the field size limit", limit, size)
	}

	*total += size
	return nil
}

func (v *responseValidator) fieldLimitBytes(field *formlogic.FieldDefinition) int64 {
	mb := field.AttachmentSizeMB
	if mb <= 0 {
		mb = v.attachments.DefaultFieldSizeMB
	}
	return int64(mb) * bytesPerMB
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
