package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mendo-app/backend/internal/model"
	"github.com/mendo-app/backend/internal/service"
)

// allowedImageExts is the photo extension whitelist.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// RepairHandler exposes the marketplace endpoints: browsing, posting
// requests, quoting and photo upload.
type RepairHandler struct {
	repairs        *service.RepairService
	uploadDir      string
	maxUploadBytes int64
}

func NewRepairHandler(repairs *service.RepairService, uploadDir string, maxUploadBytes int64) *RepairHandler {
	return &RepairHandler{repairs: repairs, uploadDir: uploadDir, maxUploadBytes: maxUploadBytes}
}

// List serves the public browse page. Unauthenticated access is fine.
func (h *RepairHandler) List(c echo.Context) error {
	f := model.RequestFilter{
		Category: c.QueryParam("category"),
		City:     c.QueryParam("city"),
		Status:   c.QueryParam("status"),
		Search:   c.QueryParam("search"),
	}
	out, err := h.repairs.ListRequests(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"requests": toSummaryResponses(out)})
}

// Create posts a new repair request. The endpoint accepts either a JSON
// body or a multipart form; the multipart variant may carry photos that are
// stored alongside the request in one round trip.
func (h *RepairHandler) Create(c echo.Context) error {
	clientID, err := userID(c)
	if err != nil {
		return err
	}

	var in service.CreateRequestInput
	var photos []*multipart.FileHeader
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		in = requestInputFromForm(c)
		if form, err := c.MultipartForm(); err == nil {
			photos = form.File["photos"]
		}
	} else if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	req, err := h.repairs.CreateRequest(c.Request().Context(), clientID, in)
	if err != nil {
		return err
	}

	var images []model.RepairImage
	for _, fh := range photos {
		filename, url, err := h.saveUpload(fh)
		if err != nil {
			return err
		}
		img, err := h.repairs.AttachImage(c.Request().Context(), clientID, req.ID, filename, url)
		if err != nil {
			return err
		}
		images = append(images, img)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"request": toRequestResponse(req),
		"images":  toImageResponses(images),
	})
}

func requestInputFromForm(c echo.Context) service.CreateRequestInput {
	in := service.CreateRequestInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Subcategory: c.FormValue("subcategory"),
		City:        c.FormValue("city"),
		Address:     c.FormValue("address"),
		Visibility:  c.FormValue("visibility"),
	}
	if v := c.FormValue("latitude"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			in.Latitude = &f
		}
	}
	if v := c.FormValue("longitude"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			in.Longitude = &f
		}
	}
	if v := c.FormValue("budget_min"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			in.BudgetMin = &n
		}
	}
	if v := c.FormValue("budget_max"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			in.BudgetMax = &n
		}
	}
	return in
}

// Get returns one request with its quotes and photos.
func (h *RepairHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.repairs.GetRequest(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDetailResponse(detail))
}

// MyRequests lists the authenticated client's own requests.
func (h *RepairHandler) MyRequests(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	out, err := h.repairs.ListMyRequests(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"requests": toSummaryResponses(out)})
}

// UploadImage attaches a photo to an existing request.
func (h *RepairHandler) UploadImage(c echo.Context) error {
	clientID, err := userID(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo file is required")
	}
	filename, url, err := h.saveUpload(fh)
	if err != nil {
		return err
	}
	img, err := h.repairs.AttachImage(c.Request().Context(), clientID, requestID, filename, url)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"image": imageResponse{ID: img.ID, URL: img.URL, CreatedAt: img.CreatedAt},
	})
}

// saveUpload validates the extension and size, then writes the file under
// the upload directory with a random name. Returns the stored filename and
// its public URL path.
func (h *RepairHandler) saveUpload(fh *multipart.FileHeader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExts[ext] {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "unsupported image type, use jpg, jpeg, png or webp")
	}
	if fh.Size > h.maxUploadBytes {
		return "", "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}

	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", "", err
	}
	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.uploadDir, filename))
	if err != nil {
		return "", "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", "", err
	}
	return filename, "/static/uploads/" + filename, nil
}
