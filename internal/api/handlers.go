package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"studydrive/internal/apierr"
	"studydrive/internal/drive"
)

type uploadResponse struct {
	Message     string `json:"message"`
	Key         string `json:"key"`
	Folder      string `json:"folder"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request, info *requestInfo) error {
	if s.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return fmt.Errorf("%w: multipart field \"document\" is required: %v", apierr.InvalidRequest, err)
	}
	defer file.Close()

	folder := drive.NormalizeFolder(r.FormValue("folder"))
	// Sanitize before splitting so the extension is held to the same
	// character set as the base.
	base, ext := drive.SplitExt(drive.SanitizeBaseName(header.Filename))

	key, err := s.resolver().Resolve(r.Context(), folder, base, ext)
	if err != nil {
		return err
	}
	info.Key = key

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.Store.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		return err
	}
	s.Cache.Clear()

	url, err := s.issuer().SignedURL(r.Context(), key, drive.SignOptions{})
	if err != nil {
		return err
	}

	_, name, err := drive.ParseKey(key)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, uploadResponse{
		Message:     "file uploaded",
		Key:         key,
		Folder:      folder,
		Name:        name,
		Size:        header.Size,
		ContentType: contentType,
		URL:         url,
	})
}

type listResponse struct {
	Message               string           `json:"message"`
	Files                 []drive.FileInfo `json:"files"`
	NextContinuationToken string           `json:"nextContinuationToken,omitempty"`
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request, info *requestInfo) error {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return fmt.Errorf("%w: limit must be a non-negative integer, got %q", apierr.InvalidRequest, raw)
		}
		limit = parsed
	}

	withURLs := true
	if raw := q.Get("withUrls"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: withUrls must be a boolean, got %q", apierr.InvalidRequest, raw)
		}
		withURLs = parsed
	}

	req := drive.PageRequest{
		Folder:   q.Get("folder"),
		Limit:    limit,
		Cursor:   q.Get("continuationToken"),
		WithURLs: withURLs,
		Expiry:   s.DefaultSignExpiry,
	}

	cacheKey := drive.CacheKey(req)
	page, cached := s.Cache.Get(cacheKey)
	if !cached {
		var err error
		page, err = s.paginator().Page(r.Context(), req)
		if err != nil {
			return err
		}
		s.Cache.Put(cacheKey, page)
	}

	return writeJSON(w, http.StatusOK, listResponse{
		Message:               "files listed",
		Files:                 page.Files,
		NextContinuationToken: page.NextCursor,
	})
}

type deleteRequest struct {
	Key string `json:"key"`
}

type deleteResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request, info *requestInfo) error {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if _, _, err := drive.ParseKey(req.Key); err != nil {
		return err
	}
	info.Key = req.Key

	// The store's delete is silently idempotent; probe first so deleting a
	// missing key surfaces NotFound instead of succeeding.
	exists, err := s.Store.Exists(r.Context(), req.Key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("delete %q: %w", req.Key, drive.ErrNoSuchKey)
	}
	if err := s.Store.Delete(r.Context(), req.Key); err != nil {
		return err
	}
	s.Cache.Clear()

	return writeJSON(w, http.StatusOK, deleteResponse{Message: "file deleted", Key: req.Key})
}

type downloadResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
	URL     string `json:"url"`
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request, info *requestInfo) error {
	q := r.URL.Query()
	key := q.Get("key")
	if _, _, err := drive.ParseKey(key); err != nil {
		return err
	}
	info.Key = key

	var expiry time.Duration
	if raw := q.Get("expirySeconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("%w: expirySeconds must be a positive integer, got %q", apierr.InvalidRequest, raw)
		}
		expiry = time.Duration(seconds) * time.Second
	}
	inline := q.Get("inline") == "true"

	url, err := s.issuer().SignedURL(r.Context(), key, drive.SignOptions{
		Expiry:        expiry,
		ForceDownload: !inline,
	})
	if err != nil {
		return err
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return writeJSON(w, http.StatusOK, downloadResponse{Message: "download url issued", Key: key, URL: url})
	}
	http.Redirect(w, r, url, http.StatusFound)
	return nil
}

type renameRequest struct {
	Key     string `json:"key"`
	NewName string `json:"newName"`
}

type moveRequest struct {
	Key       string `json:"key"`
	NewFolder string `json:"newFolder"`
}

type relocateResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
	OldKey  string `json:"oldKey"`
	Folder  string `json:"folder"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

func (s *Service) handleRename(w http.ResponseWriter, r *http.Request, info *requestInfo) error {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.NewName) == "" {
		return fmt.Errorf("%w: newName is required", apierr.InvalidRequest)
	}
	info.Key = req.Key

	result, err := s.relocator().Rename(r.Context(), req.Key, req.NewName)
	if err != nil {
		return err
	}
	return s.writeRelocated(w, r, info, "file renamed", result)
}

func (s *Service) handleMove(w http.ResponseWriter, r *http.Request, info *requestInfo) error {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.NewFolder) == "" {
		return fmt.Errorf("%w: newFolder is required", apierr.InvalidRequest)
	}
	info.Key = req.Key

	result, err := s.relocator().Move(r.Context(), req.Key, req.NewFolder)
	if err != nil {
		return err
	}
	return s.writeRelocated(w, r, info, "file moved", result)
}

func (s *Service) writeRelocated(w http.ResponseWriter, r *http.Request, info *requestInfo, message string, result drive.RelocationResult) error {
	s.Cache.Clear()
	info.Key = result.Key

	url, err := s.issuer().SignedURL(r.Context(), result.Key, drive.SignOptions{})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, relocateResponse{
		Message: message,
		Key:     result.Key,
		OldKey:  result.OldKey,
		Folder:  result.Folder,
		Name:    result.Name,
		URL:     url,
	})
}
