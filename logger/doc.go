// Package logger provides structured logging for injectkit using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers carrying structured fields. The injection engine
// logs through the "inject" component and the container through "di".
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("inject")
//	log.Debug("plan built", logger.Fields("target", "*app.Service", "levels", 2))
package logger
