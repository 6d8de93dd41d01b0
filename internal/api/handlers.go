package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/store"
)

type listResponse[T any] struct {
	Items  []T `json:"items"`
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

func (h *handler) listWines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.WineFilter{
		Varietal: q.Get("varietal"),
		Country:  q.Get("country"),
		Region:   q.Get("region"),
		WineryID: q.Get("winery_id"),
		Search:   q.Get("q"),
		Sort:     q.Get("sort"),
	}

	var err error
	if filter.MinRating, err = floatParam(q, "min_rating"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit, filter.Offset, err = pageParams(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wines, err := h.catalog.ListWines(r.Context(), filter)
	if err != nil {
		h.log.Error("api: list wines", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list wines")
		return
	}
	if wines == nil {
		wines = []model.Wine{}
	}
	writeJSON(w, http.StatusOK, listResponse[model.Wine]{Items: wines, Count: len(wines), Offset: filter.Offset})
}

func (h *handler) listWineries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.WineryFilter{
		Region:  q.Get("region"),
		Country: q.Get("country"),
		Search:  q.Get("q"),
	}

	var err error
	if filter.Limit, filter.Offset, err = pageParams(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wineries, err := h.catalog.ListWineries(r.Context(), filter)
	if err != nil {
		h.log.Error("api: list wineries", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list wineries")
		return
	}
	if wineries == nil {
		wineries = []model.Winery{}
	}
	writeJSON(w, http.StatusOK, listResponse[model.Winery]{Items: wineries, Count: len(wineries), Offset: filter.Offset})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.log.Error("api: stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func pageParams(q url.Values) (limit, offset int, err error) {
	if limit, err = intParam(q, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(q, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func floatParam(q url.Values, key string) (float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Errorf("invalid %s %q", key, raw)
	}
	return f, nil
}
