package handler

import (
	"net/http"
	"sync"

	"hallbook/config"
	"hallbook/di"
	"hallbook/shared/logger"
	httpTransport "hallbook/transport/http"
)

var (
	once    sync.Once
	service *httpTransport.HTTP
)

// Handler serves the API from a serverless function. The service graph is
// built on the first invocation and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	once.Do(func() {
		logger.InitLogger()

		logger.Configure(config.Get())

		service = di.InitializeService()
	})

	service.ServeHTTP(w, r)
}
