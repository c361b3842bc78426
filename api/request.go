package api

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"text2phenotype.com/postagger/pipeline"
	"text2phenotype.com/postagger/pos"
	"text2phenotype.com/postagger/types"
)

const defaultTid = "api"

type Request struct {
	Pipeline       pipeline.Pipeline
	Configurations []types.Configuration
	Taggers        map[string]*pos.Tagger
}

func (req *Request) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", req.ProcessData)
	mux.HandleFunc("/tag", req.TagSentence)
	return mux
}

// ProcessData tags a whole document with every configuration.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		fail(w, logger, nil, http.StatusMethodNotAllowed, "Only 'POST' method is allowed here")
		return
	}
	if r.URL.Path != "/" {
		fail(w, logger, nil, http.StatusNotFound, "Unknown endpoint")
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		fail(w, logger, err, http.StatusBadRequest, "Could not read request body")
		return
	}

	request := pipeline.Request{
		Tid:  requestTid(r),
		Text: string(msg),
	}
	logger.Info().Str("tid", request.Tid).Msg("Starting pipeline for request from API")
	resp := <-req.Pipeline(request)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(resp))
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

// TagSentence tags the request body as a single sentence.
func (req *Request) TagSentence(w http.ResponseWriter, r *http.Request) {
	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		fail(w, logger, nil, http.StatusMethodNotAllowed, "Only 'POST' method is allowed here")
		return
	}

	cfgName := r.URL.Query().Get("config")
	cfg, ok := types.FindConfiguration(req.Configurations, cfgName)
	if !ok {
		fail(w, logger, nil, http.StatusNotFound, "Unknown configuration")
		return
	}
	tagger, ok := req.Taggers[cfg.Name]
	if !ok {
		fail(w, logger, nil, http.StatusNotFound, "Unknown configuration")
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		fail(w, logger, err, http.StatusBadRequest, "Could not read request body")
		return
	}

	buf, err := json.Marshal(tagger.Tag(string(msg)))
	if err != nil {
		fail(w, logger, err, http.StatusInternalServerError, "Failed to marshall response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
	logger.Info().
		Str("config_name", cfg.Name).
		Int("status", http.StatusOK).
		Msg("Finished tagging sentence")
}

func requestTid(r *http.Request) string {
	if tid := r.URL.Query().Get("tid"); len(tid) > 0 {
		return tid
	}
	return defaultTid
}
