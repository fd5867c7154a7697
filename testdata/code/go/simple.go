// Package server provides request handling.
package server

import (
	"fmt"
	"net/http"
)

const (
	DefaultPort    = 8080
	DefaultTimeout = 30
)

var globalConfig = Config{Port: DefaultPort}

// Config holds server settings.
type Config struct {
	Port    int
	Timeout int
}

// Handler serves HTTP requests.
type Handler struct {
	Config
	next http.Handler
}

// Responder answers requests.
type Responder interface {
	http.Handler
	Respond(msg string) error
}

// NewHandler creates a Handler.
func NewHandler(config Config) *Handler {
	return &Handler{Config: config}
}

// ServeHTTP writes a greeting.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Hello, World!")
}
