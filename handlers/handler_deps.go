package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"clipstudio/editor-gateway/session"
)

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Session  *session.Controller
	Logger   *logrus.Logger
	Validate *validator.Validate
}

// NewApplicationHandler creates an ApplicationHandler with the given
// dependencies.
func NewApplicationHandler(ctrl *session.Controller, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Session:  ctrl,
		Logger:   logger,
		Validate: validator.New(),
	}
}
