// Package logs exposes the response log over HTTP.
package logs

import (
	"net/http"

	"github.com/deepgram/courier/internal/responselog"
	"github.com/deepgram/courier/pkg/httpext"
	"github.com/deepgram/courier/pkg/logger"
	"github.com/gorilla/mux"
)

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type EntriesResponse struct {
	Category string   `json:"category"`
	Entries  []string `json:"entries"`
}

type LatestResponse struct {
	Category string `json:"category"`
	Entry    string `json:"entry"`
}

func HandleList(log responselog.Log, w http.ResponseWriter, r *http.Request) {
	httpext.JsonResponse(w, http.StatusOK, CategoriesResponse{Categories: log.Categories()})
}

func HandleGet(log responselog.Log, w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	httpext.JsonResponse(w, http.StatusOK, EntriesResponse{Category: category, Entries: log.FetchAll(category)})
}

func HandleLatest(log responselog.Log, w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	entry, ok := log.FetchLatest(category)
	if !ok {
		httpext.JsonError(w, "No entries for category", http.StatusNotFound)
		return
	}
	httpext.JsonResponse(w, http.StatusOK, LatestResponse{Category: category, Entry: entry})
}

func HandleClear(log responselog.Log, w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	log.ClearCategory(category)
	logger.Info(logger.HANDLER, "Cleared response log category %s", category)
	w.WriteHeader(http.StatusNoContent)
}

func HandleClearAll(log responselog.Log, w http.ResponseWriter, r *http.Request) {
	log.ClearAll()
	logger.Info(logger.HANDLER, "Cleared response log")
	w.WriteHeader(http.StatusNoContent)
}
