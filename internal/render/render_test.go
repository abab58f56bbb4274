package render_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/internal/render"
)

func buildTestPlan() plan.ResourcePlan {
	return plan.ResourcePlan{
		Chart: plan.ChartMetadata{Name: "payments", Version: "1.2.3", Description: "Payment processing service."},
		Resources: plan.ResourceSections{
			Core: []plan.Resource{
				{Type: plan.ResourceKindDeployment, Name: "payments", Image: "registry.example.com/payments:1.2.3", Replicas: 3, Port: 9000},
				{Type: plan.ResourceKindService, Name: "payments", Port: 80, TargetPort: 9000},
			},
			Auxiliary: []plan.Resource{
				{Type: plan.ResourceKindIngress, Host: "payments.example.com"},
				{Type: plan.ResourceKindHPA, MinReplicas: 2, MaxReplicas: 8, TargetCPUUsage: 70},
				{Type: plan.ResourceKindConfigMap, Data: map[string]string{"LOG_LEVEL": "info"}},
			},
		},
	}
}

func TestBuildProducersCoversAllResolvableTasks(testInstance *testing.T) {
	producers := render.BuildProducers(buildTestPlan())

	expectedTaskIdentifiers := []string{
		plan.TaskIDHelpers,
		plan.TaskIDNamespace,
		plan.TaskIDDeployment,
		plan.TaskIDStatefulSet,
		plan.TaskIDService,
		plan.TaskIDConfigMap,
		plan.TaskIDSecret,
		plan.TaskIDServiceAcct,
		plan.TaskIDRBAC,
		plan.TaskIDHPA,
		plan.TaskIDPDB,
		plan.TaskIDNetworkPolicy,
		plan.TaskIDIngress,
		plan.TaskIDValues,
		plan.TaskIDDocumentation,
	}

	require.Len(testInstance, producers, len(expectedTaskIdentifiers))
	for _, taskIdentifier := range expectedTaskIdentifiers {
		require.Contains(testInstance, producers, taskIdentifier)
	}
}

func TestTemplateProducersRenderChartTemplates(testInstance *testing.T) {
	producers := render.BuildProducers(buildTestPlan())

	testCases := []struct {
		name              string
		taskIdentifier    string
		expectedArtifact  string
		expectedFragments []string
	}{
		{
			name:             "helpers_template_defines_chart_helpers",
			taskIdentifier:   plan.TaskIDHelpers,
			expectedArtifact: render.ArtifactNameHelpers,
			expectedFragments: []string{
				`{{- define "payments.name" -}}`,
				`{{- define "payments.fullname" -}}`,
				`{{- define "payments.labels" -}}`,
			},
		},
		{
			name:             "deployment_template_uses_workload_settings",
			taskIdentifier:   plan.TaskIDDeployment,
			expectedArtifact: render.ArtifactNameDeployment,
			expectedFragments: []string{
				"kind: Deployment",
				"containerPort: 9000",
				`include "payments.fullname"`,
			},
		},
		{
			name:             "service_template_references_values",
			taskIdentifier:   plan.TaskIDService,
			expectedArtifact: render.ArtifactNameService,
			expectedFragments: []string{
				"kind: Service",
				"port: {{ .Values.service.port }}",
			},
		},
		{
			name:             "ingress_template_carries_plan_host",
			taskIdentifier:   plan.TaskIDIngress,
			expectedArtifact: render.ArtifactNameIngress,
			expectedFragments: []string{
				"kind: Ingress",
				`default "payments.example.com"`,
			},
		},
		{
			name:             "hpa_template_is_gated_on_autoscaling",
			taskIdentifier:   plan.TaskIDHPA,
			expectedArtifact: render.ArtifactNameHPA,
			expectedFragments: []string{
				"kind: HorizontalPodAutoscaler",
				"{{- if .Values.autoscaling.enabled }}",
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			producer, producerFound := producers[testCase.taskIdentifier]
			require.True(subTest, producerFound)

			artifacts, produceError := producer.Produce(context.Background(), orchestrate.ArtifactSnapshot{})
			require.NoError(subTest, produceError)
			require.Len(subTest, artifacts, 1)

			artifactContent, artifactFound := artifacts[testCase.expectedArtifact]
			require.True(subTest, artifactFound)
			for _, expectedFragment := range testCase.expectedFragments {
				require.Contains(subTest, artifactContent, expectedFragment)
			}
		})
	}
}

func TestValuesProducerReflectsRenderedTemplates(testInstance *testing.T) {
	producers := render.BuildProducers(buildTestPlan())
	valuesProducer := producers[plan.TaskIDValues]

	snapshot := orchestrate.ArtifactSnapshot{
		render.ArtifactNameHelpers:    "helpers",
		render.ArtifactNameDeployment: "deployment",
		render.ArtifactNameService:    "service",
		render.ArtifactNameIngress:    "ingress",
		render.ArtifactNameHPA:        "hpa",
		render.ArtifactNameConfigMap:  "configmap",
	}

	artifacts, produceError := valuesProducer.Produce(context.Background(), snapshot)
	require.NoError(testInstance, produceError)

	valuesContent, valuesFound := artifacts[render.ArtifactNameValues]
	require.True(testInstance, valuesFound)
	require.Contains(testInstance, valuesContent, "replicaCount: 3")
	require.Contains(testInstance, valuesContent, "repository: registry.example.com/payments")
	require.Contains(testInstance, valuesContent, "tag: 1.2.3")
	require.Contains(testInstance, valuesContent, "port: 80")
	require.Contains(testInstance, valuesContent, "host: payments.example.com")
	require.Contains(testInstance, valuesContent, "minReplicas: 2")
	require.Contains(testInstance, valuesContent, "maxReplicas: 8")
	require.Contains(testInstance, valuesContent, "targetCPUUtilizationPercentage: 70")
	require.Contains(testInstance, valuesContent, "LOG_LEVEL: info")
}

func TestValuesProducerOmitsSectionsForAbsentTemplates(testInstance *testing.T) {
	producers := render.BuildProducers(buildTestPlan())
	valuesProducer := producers[plan.TaskIDValues]

	snapshot := orchestrate.ArtifactSnapshot{
		render.ArtifactNameHelpers:    "helpers",
		render.ArtifactNameDeployment: "deployment",
	}

	artifacts, produceError := valuesProducer.Produce(context.Background(), snapshot)
	require.NoError(testInstance, produceError)

	valuesContent := artifacts[render.ArtifactNameValues]
	require.NotContains(testInstance, valuesContent, "service:")
	require.NotContains(testInstance, valuesContent, "ingress:")
	require.NotContains(testInstance, valuesContent, "config:")
	require.Contains(testInstance, valuesContent, "autoscaling:")
	require.Contains(testInstance, valuesContent, "enabled: false")
}

func TestDocumentationProducerListsRenderedTemplates(testInstance *testing.T) {
	producers := render.BuildProducers(buildTestPlan())
	documentationProducer := producers[plan.TaskIDDocumentation]

	snapshot := orchestrate.ArtifactSnapshot{
		render.ArtifactNameHelpers:    "helpers",
		render.ArtifactNameDeployment: "deployment",
		render.ArtifactNameService:    "service",
		render.ArtifactNameValues:     "values",
	}

	artifacts, produceError := documentationProducer.Produce(context.Background(), snapshot)
	require.NoError(testInstance, produceError)

	readmeContent, readmeFound := artifacts[render.ArtifactNameReadme]
	require.True(testInstance, readmeFound)
	require.True(testInstance, strings.HasPrefix(readmeContent, "# payments\n"))
	require.Contains(testInstance, readmeContent, "Payment processing service.")
	require.Contains(testInstance, readmeContent, "- `templates/deployment.yaml`")
	require.Contains(testInstance, readmeContent, "- `templates/service.yaml`")
	require.NotContains(testInstance, readmeContent, "- `templates/values.yaml`")
	require.Contains(testInstance, readmeContent, "helm install payments")
}
