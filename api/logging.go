package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"text2phenotype.com/postagger/logger"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method string `json:"method"`
	Url    string `json:"url"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(request *http.Request) zerolog.Logger {
	fields := endpointLoggerFields{
		Method: request.Method,
		Url:    request.URL.String(),
	}
	return defaultLogger.
		With().Interface(RequestInfoFieldsKey, fields).Logger()
}

func fail(w http.ResponseWriter, logger zerolog.Logger, err error, status int, msg string) {
	logger.Err(err).Int("status", status).Msg(msg)
	http.Error(w, msg, status)
}
