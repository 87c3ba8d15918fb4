package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"drivebox/internal/http/middleware"
	"drivebox/internal/service"
	"drivebox/internal/storage"
)

// identityFromCtx rebuilds the caller identity stored by middleware.Identity.
// Returns nil for anonymous requests.
func identityFromCtx(c *fiber.Ctx) *service.Identity {
	userID, _ := c.Locals(middleware.IdentityUserIDKey).(string)
	email, _ := c.Locals(middleware.IdentityEmailKey).(string)
	if userID == "" && email == "" {
		return nil
	}
	return &service.Identity{UserID: userID, Email: email}
}

// mapServiceError translates service sentinels into the error envelope.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrNameRequired), errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "access denied")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
	case errors.Is(err, service.ErrFileTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload size limit")
	case errors.Is(err, storage.ErrInvalidRange):
		return writeError(c, fiber.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE", "requested range not satisfiable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// UploadFile handles POST /api/upload (multipart/form-data, field name: file).
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		id := identityFromCtx(c)
		if id == nil {
			// Form fields cover callers fronted by proxies that forward the
			// auth decision in the body instead of headers.
			if ownerID := c.FormValue("ownerId"); ownerID != "" {
				id = &service.Identity{UserID: ownerID}
			}
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		isPublic, _ := strconv.ParseBool(c.FormValue("isPublic"))

		var sharedWith []string
		if raw := c.FormValue("sharedWith"); raw != "" {
			sharedWith = strings.Split(raw, ",")
		}

		file, err := svc.Upload(c.UserContext(), id, service.UploadInput{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			AccountID:   c.FormValue("accountId"),
			Path:        c.FormValue("path"),
			IsPublic:    isPublic,
			SharedWith:  sharedWith,
		})
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(file)
	}
}

// DownloadFile handles GET /api/files/:id, streaming the blob with support
// for single byte ranges. Anonymous requests are allowed; the access gate
// decides.
func DownloadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileID := c.Params("id")
		id := identityFromCtx(c)

		off, end, partial, err := parseRange(c.Get(fiber.HeaderRange))
		if err != nil {
			return writeError(c, fiber.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE", "malformed range header")
		}
		if off < 0 {
			// Suffix range: resolve the start against the catalog size.
			meta, metaErr := svc.Get(c.UserContext(), id, fileID)
			if metaErr != nil {
				return mapServiceError(c, metaErr)
			}
			off = meta.Size + off
			if off < 0 {
				off = 0
			}
		}

		info, err := svc.Download(c.UserContext(), id, fileID, off, end)
		if err != nil {
			return mapServiceError(c, err)
		}

		file := info.File
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+strings.ReplaceAll(file.Name, `"`, "")+`"`)
		c.Set(fiber.HeaderAcceptRanges, "bytes")
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		// Last-Modified tracks the blob upload, not catalog edits; renames
		// and tag updates never change the bytes being served.
		lastMod := info.UploadedAt
		if lastMod.IsZero() {
			lastMod = time.Now()
		}
		c.Set(fiber.HeaderLastModified, lastMod.UTC().Format(time.RFC1123))

		if partial {
			c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", info.Offset, info.Offset+info.Length-1, file.Size))
			c.Status(fiber.StatusPartialContent)
		}
		return c.SendStream(info.Content, int(info.Length))
	}
}

// parseRange understands single "bytes=" ranges. It returns [off, end) with
// end < 0 for an open end, off < 0 meaning a suffix of -off bytes, and
// partial=false when no Range header is present.
func parseRange(header string) (off, end int64, partial bool, err error) {
	if header == "" {
		return 0, -1, false, nil
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, false, errors.New("unsupported range")
	}
	start, stop, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, false, errors.New("malformed range")
	}
	if start == "" {
		// bytes=-N, the last N bytes
		n, perr := strconv.ParseInt(stop, 10, 64)
		if perr != nil || n <= 0 {
			return 0, 0, false, errors.New("malformed range")
		}
		return -n, -1, true, nil
	}
	off, err = strconv.ParseInt(start, 10, 64)
	if err != nil || off < 0 {
		return 0, 0, false, errors.New("malformed range")
	}
	if stop == "" {
		return off, -1, true, nil
	}
	last, perr := strconv.ParseInt(stop, 10, 64)
	if perr != nil || last < off {
		return 0, 0, false, errors.New("malformed range")
	}
	return off, last + 1, true, nil
}

// ListFiles handles GET /api/files.
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := identityFromCtx(c)

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			var err error
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
		}

		var types []string
		if raw := c.Query("types"); raw != "" {
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					types = append(types, t)
				}
			}
		}

		res, err := svc.List(c.UserContext(), id, service.ListInput{
			Types:  types,
			Search: c.Query("search"),
			Sort:   c.Query("sort"),
			Limit:  limit,
		})
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// renameRequest is the PATCH /api/files/:id/rename body.
type renameRequest struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

// RenameFile handles PATCH /api/files/:id/rename.
func RenameFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req renameRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		name := strings.TrimSpace(req.Name)
		if ext := strings.TrimPrefix(strings.TrimSpace(req.Extension), "."); ext != "" && !strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(ext)) {
			name = name + "." + ext
		}

		file, err := svc.Rename(c.UserContext(), identityFromCtx(c), c.Params("id"), name)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(file)
	}
}

// shareRequest is the PATCH /api/files/:id/share body.
type shareRequest struct {
	Emails []string `json:"emails"`
}

// ShareFile handles PATCH /api/files/:id/share.
func ShareFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req shareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		file, err := svc.Share(c.UserContext(), identityFromCtx(c), c.Params("id"), req.Emails)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(file)
	}
}

// DeleteFile handles DELETE /api/files/:id.
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), identityFromCtx(c), c.Params("id")); err != nil {
			return mapServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Usage handles GET /api/usage.
func Usage(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.Usage(c.UserContext(), identityFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(report)
	}
}
