// Package fileutil holds small filesystem helpers shared by output sinks.
package fileutil
