package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/intake"
)

const defaultMaxUploadMB = 20

// readInput accepts either a JSON {type, content} body or a multipart form
// with a "file" part or a "text" field. Both paths go through intake.Draft.
func (rt *Router) readInput(w http.ResponseWriter, r *http.Request) (domain.AuditInput, error) {
	const op = "read audit input"

	maxMB := rt.cfg.AuditMaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	maxBytes := int64(maxMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var draft intake.Draft

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
		}
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
			}
			if err := draft.AttachFile(header.Filename, header.Header.Get("Content-Type"), data); err != nil {
				return nil, err
			}
		case errors.Is(err, http.ErrMissingFile):
			draft.SetText(r.FormValue("text"))
		default:
			return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
		}
		return draft.Build()
	}

	var payload domain.InputPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("invalid json: %w", err))
	}
	in, err := domain.DecodeInput(payload)
	if err != nil {
		return nil, err
	}
	switch v := in.(type) {
	case domain.TextInput:
		draft.SetText(v.Content)
	case domain.PDFInput:
		data, err := base64.StdEncoding.DecodeString(intake.StripDataURI(strings.TrimSpace(v.Data)))
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("pdf content is not base64: %w", err))
		}
		if err := draft.AttachFile("upload.pdf", "application/pdf", data); err != nil {
			return nil, err
		}
	}
	return draft.Build()
}

// sessionID binds the {id} path parameter as a UUID.
func sessionID(r *http.Request) (string, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &raw, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind session id", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind session id", err)
	}
	return id.String(), nil
}
