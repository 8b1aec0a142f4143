/*
Package log provides loggers for graph components.

Level is configured through environment: AUDIOGRAPH_LOG_LEVEL takes any
logrus level name, AUDIOGRAPH_DEBUG set to a true value enables debug
level. A valid AUDIOGRAPH_LOG_LEVEL wins.
*/
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	// DebugEnv enables debug level.
	DebugEnv = "AUDIOGRAPH_DEBUG"
	// LevelEnv sets level by name.
	LevelEnv = "AUDIOGRAPH_LOG_LEVEL"
)

// ComponentField is the entry field holding the component name.
const ComponentField = "component"

// Logger is the interface graph components log through. Both
// *logrus.Logger and *logrus.Entry implement it.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

// Level returns level configured by environment.
func Level() logrus.Level {
	if l, err := logrus.ParseLevel(os.Getenv(LevelEnv)); err == nil {
		return l
	}
	if debug, _ := strconv.ParseBool(os.Getenv(DebugEnv)); debug {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// GetLogger returns a new logger at configured level.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(Level())
	return l
}

// For returns logger which tags entries with component name.
func For(component string) Logger {
	return GetLogger().WithField(ComponentField, component)
}

// Discard returns a logger that drops all entries.
func Discard() Logger {
	return discard{}
}

type discard struct{}

func (discard) Debug(...interface{}) {}
func (discard) Info(...interface{})  {}
