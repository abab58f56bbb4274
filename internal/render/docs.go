package render

import (
	"context"
	"sort"
	"strings"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
)

// documentationProducer writes the chart README from the plan metadata and
// the set of templates the earlier phases produced.
type documentationProducer struct {
	plan plan.ResourcePlan
}

// Produce implements orchestrate.Producer.
func (producer documentationProducer) Produce(_ context.Context, snapshot orchestrate.ArtifactSnapshot) (map[string]string, error) {
	templateNames := make([]string, 0, len(snapshot))
	for artifactName := range snapshot {
		if artifactName == ArtifactNameValues {
			continue
		}
		templateNames = append(templateNames, artifactName)
	}
	sort.Strings(templateNames)

	var documentBuilder strings.Builder
	documentBuilder.WriteString("# ")
	documentBuilder.WriteString(producer.plan.Chart.Name)
	documentBuilder.WriteString("\n\n")

	description := strings.TrimSpace(producer.plan.Chart.Description)
	if len(description) > 0 {
		documentBuilder.WriteString(description)
		documentBuilder.WriteString("\n\n")
	}

	documentBuilder.WriteString("A Helm chart, version ")
	documentBuilder.WriteString(producer.plan.Chart.Version)
	documentBuilder.WriteString(".\n\n")

	documentBuilder.WriteString("## Templates\n\n")
	for _, templateName := range templateNames {
		documentBuilder.WriteString("- `templates/")
		documentBuilder.WriteString(templateName)
		documentBuilder.WriteString("`\n")
	}
	documentBuilder.WriteString("\n")

	documentBuilder.WriteString("## Installation\n\n")
	documentBuilder.WriteString("```shell\n")
	documentBuilder.WriteString("helm install ")
	documentBuilder.WriteString(producer.plan.Chart.Name)
	documentBuilder.WriteString(" ./")
	documentBuilder.WriteString(producer.plan.Chart.Name)
	documentBuilder.WriteString("\n```\n\n")

	documentBuilder.WriteString("## Configuration\n\n")
	documentBuilder.WriteString("See `values.yaml` for the configurable settings.\n")

	return map[string]string{ArtifactNameReadme: documentBuilder.String()}, nil
}
