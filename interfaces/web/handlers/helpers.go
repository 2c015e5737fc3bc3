package handlers

import (
	"io"
	"mime/multipart"
	"sort"
	"strings"

	"nhbrcforms/domain/submission"
)

// fileFieldPrefix marks multipart parts that carry attachments.
const fileFieldPrefix = "fileUpload"

// Text fields read from the submission form.
var submissionTextFields = map[string]bool{
	"province":           true,
	"builderName":        true,
	"competentPerson":    true,
	"propertyDetails":    true,
	"registrationNumber": true,
	"companyName":        true,
}

// first returns the first value of a multipart text field.
func first(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// submissionFromForm builds the typed submission from a parsed multipart form.
// Attachment fields are taken in field-name order, which keeps fileUpload1..3
// in the order the form presents them. It also returns the text fields it ignored.
func submissionFromForm(form *multipart.Form) (*submission.Submission, []string) {
	in := &submission.Submission{
		Province:           strings.TrimSpace(first(form, "province")),
		BuilderName:        strings.TrimSpace(first(form, "builderName")),
		CompetentPerson:    first(form, "competentPerson"),
		PropertyDetails:    first(form, "propertyDetails"),
		RegistrationNumber: first(form, "registrationNumber"),
		CompanyName:        first(form, "companyName"),
	}

	var ignored []string
	for key := range form.Value {
		if !submissionTextFields[key] {
			ignored = append(ignored, key)
		}
	}
	sort.Strings(ignored)

	fields := make([]string, 0, len(form.File))
	for key := range form.File {
		if strings.HasPrefix(key, fileFieldPrefix) {
			fields = append(fields, key)
		} else {
			ignored = append(ignored, key)
		}
	}
	sort.Strings(fields)

	for _, key := range fields {
		for _, fh := range form.File[key] {
			in.Files = append(in.Files, fileFromHeader(key, fh))
		}
	}
	return in, ignored
}

func fileFromHeader(field string, fh *multipart.FileHeader) submission.File {
	return submission.File{
		FieldName:   field,
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
