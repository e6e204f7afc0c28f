package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// RootName is the logger name every twitterkit component logger hangs off.
const RootName = "twitterkit"

// ComponentName returns the dotted logger name for component, e.g.
// "twitterkit.monitor".
func ComponentName(component string) string {
	component = strings.Trim(strings.TrimSpace(component), ".")
	if component == "" {
		return RootName
	}
	if strings.HasPrefix(component, RootName+".") {
		return component
	}
	return RootName + "." + component
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// Component resolves the logger for one twitterkit component. It never
// returns nil.
func Component(provider glog.LoggerProvider, logger glog.Logger, component string) glog.Logger {
	name := ComponentName(component)
	resolvedProvider, resolved := Resolve(name, provider, logger)
	if resolvedProvider != nil {
		if named := resolvedProvider.GetLogger(name); named != nil {
			return glog.Ensure(named)
		}
	}
	return glog.Ensure(resolved)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves glog logger/provider then returns equivalent go-job adapters.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(ComponentName(name), provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
