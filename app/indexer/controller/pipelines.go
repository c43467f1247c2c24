package controller

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandlePipelines lists the progress of every pipeline.
func (c *Controller) HandlePipelines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, c.Progress.Snapshot())
}

func (c *Controller) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	status, ok := c.Progress.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown pipeline " + name})
		return
	}
	writeJSON(w, http.StatusOK, status)
}
