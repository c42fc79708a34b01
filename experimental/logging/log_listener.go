// Package logging provides an experimental.FunctionListenerFactory that
// traces function calls to a structured logger, for interactive debugging
// of a guest module's call graph.
package logging

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wasmforge/wasmforge/api"
	"github.com/wasmforge/wasmforge/experimental"
)

// Writer receives one formatted line per logged function call.
type Writer interface {
	Write(p []byte) (n int, err error)
}

// NewLoggingListenerFactory is an experimental.FunctionListenerFactory
// that logs every named function call, on entry and exit, to w.
func NewLoggingListenerFactory(w Writer) experimental.FunctionListenerFactory {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &loggingListenerFactory{logger: logger}
}

type loggingListenerFactory struct {
	logger *logrus.Logger
	depth  int
}

// NewListener implements experimental.FunctionListenerFactory.
func (f *loggingListenerFactory) NewListener(def api.FunctionDefinition) experimental.FunctionListener {
	if def.Name() == "" {
		return nil
	}
	return &loggingListener{factory: f, def: def}
}

type loggingListener struct {
	factory *loggingListenerFactory
	def     api.FunctionDefinition
}

// Before implements experimental.FunctionListener.
func (l *loggingListener) Before(ctx context.Context, def api.FunctionDefinition, params []uint64) context.Context {
	l.factory.logger.WithField("depth", l.factory.depth).
		Infof("==> %s.%s(%s)", def.ModuleName(), def.Name(), formatValues(def.ParamTypes(), params))
	l.factory.depth++
	return ctx
}

// After implements experimental.FunctionListener.
func (l *loggingListener) After(ctx context.Context, def api.FunctionDefinition, err error, results []uint64) {
	l.factory.depth--
	fields := logrus.Fields{"depth": l.factory.depth}
	if err != nil {
		l.factory.logger.WithFields(fields).Infof("<== %s.%s: error: %v", def.ModuleName(), def.Name(), err)
		return
	}
	l.factory.logger.WithFields(fields).
		Infof("<== %s.%s returns (%s)", def.ModuleName(), def.Name(), formatValues(def.ResultTypes(), results))
}

func formatValues(types []api.ValueType, raw []uint64) string {
	s := ""
	for i, v := range raw {
		if i > 0 {
			s += ", "
		}
		if i < len(types) {
			s += fmt.Sprintf("%s=%#x", api.ValueTypeName(types[i]), v)
		} else {
			s += fmt.Sprintf("%#x", v)
		}
	}
	return s
}
