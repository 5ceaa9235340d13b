package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/middleware"
)

const maxAvatarSize = 5 << 20 // 5MB

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadAvatar handles POST /api/profile/avatar with the image in the "file"
// multipart field.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "File uploads are not available")
		return
	}
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize+(1<<20))
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	file.Close()

	if fileHeader.Size > maxAvatarSize {
		writeError(w, http.StatusBadRequest, "File must be at most 5MB")
		return
	}
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusBadRequest, "File must be an image")
		return
	}

	url, err := h.uploader.UploadAvatar(r.Context(), fileHeader, claims.StudentID)
	if err != nil {
		h.log.Error("avatar upload failed", zap.String("student_id", claims.StudentID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to upload file")
		return
	}

	if err := h.students.SetProfilePicture(r.Context(), claims.StudentID, url); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "Profile picture updated",
		URL:     url,
	})
}
