package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tarungka/sift/pipeline"
	"github.com/tarungka/sift/queries"
)

// PipelineRouter exposes the configured pipelines read-only: the process is
// configured at startup, the HTTP surface only reports on it.
func PipelineRouter() chi.Router {
	router := chi.NewRouter()

	router.Get("/", listPipelines())
	router.Get("/{pipeline_key}", getPipeline())

	return router
}

// QueryRouter lists the query catalog.
func QueryRouter() chi.Router {
	router := chi.NewRouter()

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		SendResponse(w, true, queries.Names(), "")
	})

	return router
}

func listPipelines() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mapped, exists := pipeline.GetPipelineInstance().GetMappedPipelines()
		if !exists {
			SendResponse(w, true, []PipelineStatusModel{}, "")
			return
		}

		statuses := make([]PipelineStatusModel, 0, len(mapped))
		for key, dp := range mapped {
			statuses = append(statuses, pipelineStatus(key, dp))
		}
		SendResponse(w, true, statuses, "")
	}
}

func getPipeline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "pipeline_key")

		mapped, exists := pipeline.GetPipelineInstance().GetMappedPipelines()
		if !exists {
			SendResponseWithHeader(w, false, nil, "no pipelines configured", http.StatusNotFound, nil)
			return
		}
		dp, ok := mapped[key]
		if !ok {
			SendResponseWithHeader(w, false, nil, "unknown pipeline key", http.StatusNotFound, nil)
			return
		}
		SendResponse(w, true, pipelineStatus(key, dp), "")
	}
}

func pipelineStatus(key string, dp *pipeline.DataPipeline) PipelineStatusModel {
	status := PipelineStatusModel{
		Key:   key,
		ID:    dp.ID().String(),
		Query: dp.Query,
	}
	if dp.Source != nil {
		status.Source = dp.Source.Name()
	}
	if dp.Sink != nil {
		status.Sink = dp.Sink.Name()
	}
	running, runErr := dp.Running()
	status.Running = running
	if runErr != nil {
		status.Error = runErr.Error()
	}
	return status
}
