// Package bundle assembles the artifacts collected during an orchestration
// run into the final chart layout and writes it to disk.
package bundle

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/internal/render"
)

const (
	chartManifestFileNameConstant          = "Chart.yaml"
	chartTemplatesDirectoryPrefixConstant  = "templates/"
	chartAPIVersionConstant                = "v2"
	chartTypeConstant                      = "application"
	chartManifestMarshalTemplateConstant   = "failed to encode chart manifest: %w"
	missingCoreArtifactReasonTemplate      = "required artifact %q was not produced"
	unexpectedArtifactReasonTemplateConstant = "artifact %q does not map to a chart file"
)

// chartManifest is the Chart.yaml document synthesized at aggregation time.
type chartManifest struct {
	APIVersion  string `yaml:"apiVersion"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Type        string `yaml:"type"`
	Version     string `yaml:"version"`
}

// requiredArtifactNames derives the artifacts every run must carry at
// aggregation time: one per non-skipped core task, plus the values summary and
// documentation artifacts when their tasks were not skipped. A missing entry
// signals a resolver/runner contract violation, never a producer outage.
func requiredArtifactNames(state *orchestrate.State) []string {
	required := make([]string, 0, len(state.Tasks))
	for taskIdentifier, task := range state.Tasks {
		if task.Status == orchestrate.TaskStatusSkipped {
			continue
		}
		if task.Phase != orchestrate.TaskPhaseCore &&
			taskIdentifier != state.SummaryTaskID &&
			taskIdentifier != state.DocumentationTaskID {
			continue
		}
		artifactName, mappingKnown := artifactNamesByTaskIdentifier[taskIdentifier]
		if !mappingKnown {
			continue
		}
		required = append(required, artifactName)
	}
	sort.Strings(required)
	return required
}

// templateArtifactNames maps every template artifact to the templates/
// directory; values and documentation artifacts sit at the chart root.
var chartFilePathsByArtifactName = map[string]string{
	render.ArtifactNameHelpers:       chartTemplatesDirectoryPrefixConstant + render.ArtifactNameHelpers,
	render.ArtifactNameNamespace:     chartTemplatesDirectoryPrefixConstant + render.ArtifactNameNamespace,
	render.ArtifactNameDeployment:    chartTemplatesDirectoryPrefixConstant + render.ArtifactNameDeployment,
	render.ArtifactNameStatefulSet:   chartTemplatesDirectoryPrefixConstant + render.ArtifactNameStatefulSet,
	render.ArtifactNameService:       chartTemplatesDirectoryPrefixConstant + render.ArtifactNameService,
	render.ArtifactNameConfigMap:     chartTemplatesDirectoryPrefixConstant + render.ArtifactNameConfigMap,
	render.ArtifactNameSecret:        chartTemplatesDirectoryPrefixConstant + render.ArtifactNameSecret,
	render.ArtifactNameServiceAcct:   chartTemplatesDirectoryPrefixConstant + render.ArtifactNameServiceAcct,
	render.ArtifactNameRBAC:          chartTemplatesDirectoryPrefixConstant + render.ArtifactNameRBAC,
	render.ArtifactNameHPA:           chartTemplatesDirectoryPrefixConstant + render.ArtifactNameHPA,
	render.ArtifactNamePDB:           chartTemplatesDirectoryPrefixConstant + render.ArtifactNamePDB,
	render.ArtifactNameNetworkPolicy: chartTemplatesDirectoryPrefixConstant + render.ArtifactNameNetworkPolicy,
	render.ArtifactNameIngress:       chartTemplatesDirectoryPrefixConstant + render.ArtifactNameIngress,
	render.ArtifactNameValues:        render.ArtifactNameValues,
	render.ArtifactNameReadme:        render.ArtifactNameReadme,
}

// Aggregator folds the run's artifact snapshot into the chart bundle and
// synthesizes Chart.yaml from the plan metadata.
type Aggregator struct {
	Metadata plan.ChartMetadata
}

// NewAggregator returns an Aggregator for the supplied chart metadata.
func NewAggregator(metadata plan.ChartMetadata) *Aggregator {
	return &Aggregator{Metadata: metadata}
}

// Assemble implements orchestrate.BundleAssembler. The returned map keys are
// chart-relative file paths; running it twice over the same state yields the
// same bundle.
func (aggregator *Aggregator) Assemble(state *orchestrate.State) (map[string]string, error) {
	snapshot := state.ArtifactSnapshot()

	for _, requiredName := range requiredArtifactNames(state) {
		if _, artifactPresent := snapshot[requiredName]; !artifactPresent {
			return nil, orchestrate.InternalConsistencyError{
				Reason: fmt.Sprintf(missingCoreArtifactReasonTemplate, requiredName),
			}
		}
	}

	assembledBundle := make(map[string]string, len(snapshot)+1)

	artifactNames := make([]string, 0, len(snapshot))
	for artifactName := range snapshot {
		artifactNames = append(artifactNames, artifactName)
	}
	sort.Strings(artifactNames)

	for _, artifactName := range artifactNames {
		chartFilePath, pathKnown := chartFilePathsByArtifactName[artifactName]
		if !pathKnown {
			return nil, orchestrate.InternalConsistencyError{
				Reason: fmt.Sprintf(unexpectedArtifactReasonTemplateConstant, artifactName),
			}
		}
		assembledBundle[chartFilePath] = snapshot[artifactName]
	}

	manifestContent, manifestError := aggregator.renderChartManifest()
	if manifestError != nil {
		return nil, manifestError
	}
	assembledBundle[chartManifestFileNameConstant] = manifestContent

	return assembledBundle, nil
}

func (aggregator *Aggregator) renderChartManifest() (string, error) {
	manifest := chartManifest{
		APIVersion:  chartAPIVersionConstant,
		Name:        aggregator.Metadata.Name,
		Description: aggregator.Metadata.Description,
		Type:        chartTypeConstant,
		Version:     aggregator.Metadata.Version,
	}

	encodedManifest, marshalError := yaml.Marshal(manifest)
	if marshalError != nil {
		return "", fmt.Errorf(chartManifestMarshalTemplateConstant, marshalError)
	}
	return string(encodedManifest), nil
}

// artifactNamesByTaskIdentifier inverts the artifact ownership mapping so the
// aggregator can locate the artifact a given task was responsible for.
var artifactNamesByTaskIdentifier = invertTaskIdentifierMapping()

func invertTaskIdentifierMapping() map[string]string {
	inverted := make(map[string]string, len(taskIdentifiersByArtifactName))
	for artifactName, taskIdentifier := range taskIdentifiersByArtifactName {
		inverted[taskIdentifier] = artifactName
	}
	return inverted
}

var taskIdentifiersByArtifactName = map[string]string{
	render.ArtifactNameHelpers:       plan.TaskIDHelpers,
	render.ArtifactNameNamespace:     plan.TaskIDNamespace,
	render.ArtifactNameDeployment:    plan.TaskIDDeployment,
	render.ArtifactNameStatefulSet:   plan.TaskIDStatefulSet,
	render.ArtifactNameService:       plan.TaskIDService,
	render.ArtifactNameConfigMap:     plan.TaskIDConfigMap,
	render.ArtifactNameSecret:        plan.TaskIDSecret,
	render.ArtifactNameServiceAcct:   plan.TaskIDServiceAcct,
	render.ArtifactNameRBAC:          plan.TaskIDRBAC,
	render.ArtifactNameHPA:           plan.TaskIDHPA,
	render.ArtifactNamePDB:           plan.TaskIDPDB,
	render.ArtifactNameNetworkPolicy: plan.TaskIDNetworkPolicy,
	render.ArtifactNameIngress:       plan.TaskIDIngress,
	render.ArtifactNameValues:        plan.TaskIDValues,
	render.ArtifactNameReadme:        plan.TaskIDDocumentation,
}
