package controllers

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/api/responses"
	"github.com/greenbasket/greenbasket-backend/api/validators"
	categorysvc "github.com/greenbasket/greenbasket-backend/internal/categories"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

const maxCategoryImageBytes = 10 << 20

// ListCategories pages through categories; top-level rows arrive with their
// subcategories preloaded.
func ListCategories(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		parentID, err := validators.ParseQueryUUID(r, "parent_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeInactive, err := validators.ParseQueryBool(r, "include_inactive")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := categorysvc.ListFilters{ParentID: parentID, IncludeInactive: includeInactive}
		list, err := svc.List(r.Context(), filters, pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// GetCategory returns one category.
func GetCategory(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := validators.PathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.Get(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, category)
	}
}

// AdminCreateCategory records a category with an optional image. A JSON body
// carries the image base64-encoded; a multipart body carries it as the "file"
// field. The row is inserted first: an image failure does not undo it and is
// reported in the response instead.
func AdminCreateCategory(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		var input categorysvc.CreateInput
		var err error
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			input, err = createCategoryFromMultipart(r)
		} else {
			input, err = createCategoryFromJSON(r)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.Image != nil {
			defer closeIfCloser(input.Image.Body)
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func createCategoryFromJSON(r *http.Request) (categorysvc.CreateInput, error) {
	var payload createCategoryRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return categorysvc.CreateInput{}, err
	}

	input := categorysvc.CreateInput{
		Name:        strings.TrimSpace(payload.Name),
		Description: strings.TrimSpace(payload.Description),
		ParentID:    payload.ParentID,
	}
	if payload.Image != "" {
		data, err := decodeBase64Image(payload.Image)
		if err != nil {
			return categorysvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image is not valid base64")
		}
		filename := strings.TrimSpace(payload.ImageFilename)
		if filename == "" {
			filename = "image"
		}
		input.Image = &categorysvc.UploadImageInput{
			Filename:    filename,
			ContentType: http.DetectContentType(data),
			Body:        bytes.NewReader(data),
		}
	}
	return input, nil
}

func createCategoryFromMultipart(r *http.Request) (categorysvc.CreateInput, error) {
	if err := r.ParseMultipartForm(maxCategoryImageBytes); err != nil {
		return categorysvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	input := categorysvc.CreateInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if raw := strings.TrimSpace(r.FormValue("parent_id")); raw != "" {
		parentID, err := uuid.Parse(raw)
		if err != nil {
			return categorysvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid parent_id")
		}
		input.ParentID = &parentID
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == http.ErrMissingFile:
		// image is optional on create
	case err != nil:
		return categorysvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image file")
	default:
		input.Image = &categorysvc.UploadImageInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	}
	return input, nil
}

// decodeBase64Image accepts raw base64 or a data URI.
func decodeBase64Image(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.IndexByte(encoded, ','); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func closeIfCloser(body io.Reader) {
	if closer, ok := body.(io.Closer); ok {
		closer.Close()
	}
}

// AdminUpdateCategory patches category fields.
func AdminUpdateCategory(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := validators.PathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.Update(r.Context(), categoryID, categorysvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, category)
	}
}

// AdminUploadCategoryImage attaches an image to an existing category. The
// file arrives as a multipart form field named "file".
func AdminUploadCategoryImage(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := validators.PathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxCategoryImageBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file required"))
			return
		}
		defer file.Close()

		category, err := svc.UploadImage(r.Context(), categoryID, categorysvc.UploadImageInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, category)
	}
}

// AdminDeleteCategory removes a childless category and cleans up its storage.
func AdminDeleteCategory(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := validators.PathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createCategoryRequest struct {
	Name          string     `json:"name" validate:"required"`
	Description   string     `json:"description,omitempty"`
	ParentID      *uuid.UUID `json:"parent_id,omitempty"`
	Image         string     `json:"image,omitempty"`
	ImageFilename string     `json:"image_filename,omitempty"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
