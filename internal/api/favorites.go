package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

type itemResponse struct {
	Source   types.SourceKind `json:"source"`
	SourceID string           `json:"source_id"`
	URL      string           `json:"url"`
	ThumbURL string           `json:"thumb_url,omitempty"`
	Width    int              `json:"width,omitempty"`
	Height   int              `json:"height,omitempty"`
	FileSize int64            `json:"file_size,omitempty"`
	MimeType string           `json:"mime_type,omitempty"`
	Purity   string           `json:"purity,omitempty"`
	Uploader string           `json:"uploader,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
}

func toItemResponse(it types.Item) itemResponse {
	return itemResponse{
		Source:   it.Source,
		SourceID: it.SourceID,
		URL:      it.URL,
		ThumbURL: it.ThumbURL,
		Width:    it.Width,
		Height:   it.Height,
		FileSize: it.FileSize,
		MimeType: it.MimeType,
		Purity:   it.Purity,
		Uploader: it.Uploader,
		Tags:     it.Tags,
	}
}

type referenceResponse struct {
	Source   types.SourceKind `json:"source"`
	SourceID string           `json:"source_id"`
}

type pageResponse struct {
	Items      []itemResponse      `json:"items"`
	Dropped    []referenceResponse `json:"dropped"`
	Offset     int                 `json:"offset"`
	NextOffset int                 `json:"next_offset"`
	End        bool                `json:"end"`
}

func handleListFavorites(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, err := intParam(r, "offset", 0)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		limit, err := intParam(r, "limit", deps.Pager.Config().PageSize)
		if err != nil || limit == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a positive integer")
			return
		}

		page, err := deps.Pager.Load(r.Context(), offset, limit)
		if err != nil {
			deps.Logger.Error("loading favorites page", "offset", offset, "limit", limit, "error", err)
			httpError(w, http.StatusInternalServerError, "server_error", "loading favorites: %v", err)
			return
		}

		resp := pageResponse{
			Items:      make([]itemResponse, 0, len(page.Items)),
			Dropped:    make([]referenceResponse, 0, len(page.Dropped)),
			Offset:     page.Offset,
			NextOffset: page.NextOffset,
			End:        page.End,
		}
		for _, it := range page.Items {
			resp.Items = append(resp.Items, toItemResponse(it))
		}
		for _, d := range page.Dropped {
			resp.Dropped = append(resp.Dropped, referenceResponse{Source: d.Source, SourceID: d.SourceID})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleRandomFavorite(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := deps.Favorites.Random(r.Context())
		if errors.Is(err, types.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no resolvable favorite")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "picking favorite: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item))
	}
}

type toggleRequest struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
}

func handleToggleFavorite(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		source, err := types.ParseSourceKind(req.Source)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		on, err := deps.Favorites.Toggle(r.Context(), source, req.SourceID)
		if errors.Is(err, types.ErrInvalidSourceID) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "toggling favorite: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"favorited": on})
	}
}
