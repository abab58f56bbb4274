package chartrunner

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/tyemirov/helmsmith/internal/bundle"
	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/internal/registry"
	"github.com/tyemirov/helmsmith/internal/render"
)

const (
	registryResolutionErrorTemplateConstant = "chartrunner.dependencies.registry: %w"
)

// Dependencies captures the collaborators required to execute a chart run.
// Nil fields are replaced with defaults derived from the resource plan.
type Dependencies struct {
	LoggerProvider func() *zap.Logger
	Registry       orchestrate.ProducerRegistry
	Assembler      orchestrate.BundleAssembler
	Output         io.Writer
	Errors         io.Writer
}

// resolvedDependencies holds fully constructed collaborators for one run.
type resolvedDependencies struct {
	logger    *zap.Logger
	registry  orchestrate.ProducerRegistry
	assembler orchestrate.BundleAssembler
	output    io.Writer
	errors    io.Writer
}

func resolveDependencies(resourcePlan plan.ResourcePlan, dependencies Dependencies) (resolvedDependencies, error) {
	logger := resolveLogger(dependencies.LoggerProvider)

	producerRegistry := dependencies.Registry
	if producerRegistry == nil {
		defaultRegistry, registryError := registry.New(render.BuildProducers(resourcePlan))
		if registryError != nil {
			return resolvedDependencies{}, fmt.Errorf(registryResolutionErrorTemplateConstant, registryError)
		}
		producerRegistry = defaultRegistry
	}

	assembler := dependencies.Assembler
	if assembler == nil {
		assembler = bundle.NewAggregator(resourcePlan.Chart)
	}

	return resolvedDependencies{
		logger:    logger,
		registry:  producerRegistry,
		assembler: assembler,
		output:    resolveWriter(dependencies.Output, os.Stdout),
		errors:    resolveWriter(dependencies.Errors, os.Stderr),
	}, nil
}

func resolveLogger(provider func() *zap.Logger) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveWriter(writer io.Writer, fallback io.Writer) io.Writer {
	if writer != nil {
		return writer
	}
	return fallback
}
