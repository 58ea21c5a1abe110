// Package gologger maps the shared glog logging stack onto go-job's logger
// contracts so queue workers log through the same sink as the rest of the
// process.
package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/vladracs/prismasase/core"
)

// ToJobProvider wraps a glog provider for go-job.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger wraps a glog logger for go-job.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the effective logger with the usual provider >
// logger > nop precedence and returns its go-job counterpart.
func ResolveForJob(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.Logger, job.Logger) {
	resolved := core.ResolveLogger(name, provider, logger)
	return resolved, ToJobLogger(resolved)
}
