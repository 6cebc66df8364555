package main

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
)

func NewLoggingHandler(dst io.Writer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return handlers.LoggingHandler(dst, h)
	}
}
