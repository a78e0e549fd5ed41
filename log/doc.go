// Package log provides the leveled logging interface used across the
// competitor analysis pipeline.
//
// The Logger interface has four printf-style methods (Debug, Info, Warn,
// Error). Two implementations ship with the package: DefaultLogger on top
// of the standard library, and GologLogger wrapping
// github.com/kataras/golog for colored terminal output.
//
//	logger := log.NewGologLogger(golog.New())
//	logger.Info("analyzing %s", domain)
//
// NewFileLogger mirrors the analyzer's --log-file flag: it tees output to
// stderr and a log file.
package log
