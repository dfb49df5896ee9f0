// Package logging provides structured logging for tutoradmin.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. Console output is reserved for command results, so
// logs go to a file in the configured log directory and are meant to be read
// after the fact when an API call misbehaves.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("request completed", "path", "/admin/students/", "status", 200)
//
// # Context Propagation
//
// Child loggers carry persistent attributes. A command scopes its logger
// with the command path; the API client adds the request id and endpoint of
// each call; the reconciler and the reviewer add the record they change:
//
//	cmdLogger := logger.WithCommand("tutoradmin assign students")
//	cmdLogger.WithRequest("0f8c...").WithCall("POST", "/admin/manage-students/").Warn("api request failed", "status", 502)
//	cmdLogger.WithAnchor("tutor", 7).Info("assignments saved", "requests", 2)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"api request failed","command":"tutoradmin assign students","request_id":"0f8c...","method":"POST","path":"/admin/manage-students/","status":502}
//	{"time":"...","level":"INFO","msg":"assignments saved","command":"tutoradmin assign students","anchor_kind":"tutor","anchor_id":7,"requests":2}
//
// # Testing
//
// Use [NopLogger] to discard all log output.
//
// # Log Levels
//
// [LevelDebug], [LevelInfo] (default), [LevelWarn] and [LevelError]. Use
// [ParseLevel] to normalize user-provided level strings.
package logging
