package controllers

import (
	"time"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("feedback.controllers")

// DefaultRequestTimeout applies when a controller is built with a zero timeout.
const DefaultRequestTimeout = 10 * time.Second

type base struct {
	timeout time.Duration
}

func newBase(timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return base{timeout: timeout}
}
