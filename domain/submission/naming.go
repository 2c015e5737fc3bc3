package submission

import (
	"strconv"
	"strings"
	"time"

	"nhbrcforms/domain/province"
)

const unknownBuilder = "unknown_builder"

// SanitizeBuilderName replaces every character outside [A-Za-z0-9] with an
// underscore and lower-cases the result.
func SanitizeBuilderName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return unknownBuilder
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StoredFileName is the name an attachment is uploaded under:
// {sanitizedBuilder}_{referenceNumber}_{unixMillis}.{ext}
func StoredFileName(sanitizedBuilder string, ref ReferenceNumber, uploadedAt time.Time, f File) string {
	name := sanitizedBuilder + "_" + ref.String() + "_" + strconv.FormatInt(uploadedAt.UnixMilli(), 10)
	if ext := f.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}

// List column internal names.
const (
	FieldTitle              = "Title"
	FieldReferenceNumber    = "ReferenceNumber"
	FieldProvince           = "Province"
	FieldCompetentPerson    = "CompetentPerson"
	FieldPropertyDetails    = "PropertyDetails"
	FieldRegistrationNumber = "RegistrationNumber"
	FieldCompanyName        = "CompanyName"
	FieldAttachments        = "Attachments"
)

// ListFields projects a submission onto the province list's columns.
// Attachments is a comma-joined string and is omitted when nothing was uploaded.
func ListFields(s *Submission, ref ReferenceNumber, p province.Province, uploadedURLs []string) map[string]any {
	title := strings.TrimSpace(s.BuilderName)
	if title == "" {
		title = ref.String()
	}
	fields := map[string]any{
		FieldTitle:              title,
		FieldReferenceNumber:    ref.String(),
		FieldProvince:           p.String(),
		FieldCompetentPerson:    s.CompetentPerson,
		FieldPropertyDetails:    s.PropertyDetails,
		FieldRegistrationNumber: s.RegistrationNumber,
		FieldCompanyName:        s.CompanyName,
	}
	if len(uploadedURLs) > 0 {
		fields[FieldAttachments] = strings.Join(uploadedURLs, ",")
	}
	return fields
}
