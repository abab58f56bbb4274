// Package render supplies the built-in artifact producers: one Helm template
// body per resolved task, the values summary, and the chart documentation.
package render

import (
	"context"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
)

// Artifact names contributed by the built-in producers.
const (
	ArtifactNameHelpers       = "_helpers.tpl"
	ArtifactNameNamespace     = "namespace.yaml"
	ArtifactNameDeployment    = "deployment.yaml"
	ArtifactNameStatefulSet   = "statefulset.yaml"
	ArtifactNameService       = "service.yaml"
	ArtifactNameConfigMap     = "configmap.yaml"
	ArtifactNameSecret        = "secret.yaml"
	ArtifactNameServiceAcct   = "serviceaccount.yaml"
	ArtifactNameRBAC          = "rbac.yaml"
	ArtifactNameHPA           = "hpa.yaml"
	ArtifactNamePDB           = "pdb.yaml"
	ArtifactNameNetworkPolicy = "networkpolicy.yaml"
	ArtifactNameIngress       = "ingress.yaml"
	ArtifactNameValues        = "values.yaml"
	ArtifactNameReadme        = "README.md"
)

// templateProducer renders a fixed artifact from plan data. The snapshot is
// ignored by plain template producers; only the values and documentation
// producers observe previously produced artifacts.
type templateProducer struct {
	artifactName string
	render       func() string
}

// Produce implements orchestrate.Producer.
func (producer templateProducer) Produce(_ context.Context, _ orchestrate.ArtifactSnapshot) (map[string]string, error) {
	return map[string]string{producer.artifactName: producer.render()}, nil
}

// BuildProducers assembles the producer set for every task the resolver can
// register from the supplied plan. Producers for tasks absent from the
// resolved graph are never invoked; registering them is harmless.
func BuildProducers(resourcePlan plan.ResourcePlan) map[string]orchestrate.Producer {
	inputs := newTemplateInputs(resourcePlan)

	producers := map[string]orchestrate.Producer{
		plan.TaskIDHelpers:       templateProducer{artifactName: ArtifactNameHelpers, render: inputs.renderHelpers},
		plan.TaskIDNamespace:     templateProducer{artifactName: ArtifactNameNamespace, render: inputs.renderNamespace},
		plan.TaskIDDeployment:    templateProducer{artifactName: ArtifactNameDeployment, render: inputs.renderDeployment},
		plan.TaskIDStatefulSet:   templateProducer{artifactName: ArtifactNameStatefulSet, render: inputs.renderStatefulSet},
		plan.TaskIDService:       templateProducer{artifactName: ArtifactNameService, render: inputs.renderService},
		plan.TaskIDConfigMap:     templateProducer{artifactName: ArtifactNameConfigMap, render: inputs.renderConfigMap},
		plan.TaskIDSecret:        templateProducer{artifactName: ArtifactNameSecret, render: inputs.renderSecret},
		plan.TaskIDServiceAcct:   templateProducer{artifactName: ArtifactNameServiceAcct, render: inputs.renderServiceAccount},
		plan.TaskIDRBAC:          templateProducer{artifactName: ArtifactNameRBAC, render: inputs.renderRBAC},
		plan.TaskIDHPA:           templateProducer{artifactName: ArtifactNameHPA, render: inputs.renderHPA},
		plan.TaskIDPDB:           templateProducer{artifactName: ArtifactNamePDB, render: inputs.renderPDB},
		plan.TaskIDNetworkPolicy: templateProducer{artifactName: ArtifactNameNetworkPolicy, render: inputs.renderNetworkPolicy},
		plan.TaskIDIngress:       templateProducer{artifactName: ArtifactNameIngress, render: inputs.renderIngress},
		plan.TaskIDValues:        valuesProducer{plan: resourcePlan},
		plan.TaskIDDocumentation: documentationProducer{plan: resourcePlan},
	}
	return producers
}
