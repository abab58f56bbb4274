package render

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
)

const valuesMarshalErrorTemplateConstant = "failed to encode chart values: %w"

type imageValues struct {
	Repository string `yaml:"repository"`
	Tag        string `yaml:"tag"`
	PullPolicy string `yaml:"pullPolicy"`
}

type serviceValues struct {
	Type string `yaml:"type"`
	Port int    `yaml:"port"`
}

type ingressValues struct {
	Enabled   bool   `yaml:"enabled"`
	ClassName string `yaml:"className"`
	Host      string `yaml:"host"`
}

type autoscalingValues struct {
	Enabled                        bool `yaml:"enabled"`
	MinReplicas                    int  `yaml:"minReplicas"`
	MaxReplicas                    int  `yaml:"maxReplicas"`
	TargetCPUUtilizationPercentage int  `yaml:"targetCPUUtilizationPercentage"`
}

type chartValues struct {
	ReplicaCount     int                `yaml:"replicaCount"`
	Image            imageValues        `yaml:"image"`
	NameOverride     string             `yaml:"nameOverride"`
	FullnameOverride string             `yaml:"fullnameOverride"`
	Service          *serviceValues     `yaml:"service,omitempty"`
	Ingress          *ingressValues     `yaml:"ingress,omitempty"`
	Autoscaling      *autoscalingValues `yaml:"autoscaling,omitempty"`
	Config           map[string]string  `yaml:"config,omitempty"`
	Secrets          map[string]string  `yaml:"secrets,omitempty"`
	Resources        map[string]any     `yaml:"resources"`
}

// valuesProducer summarizes the rendered templates into the chart values
// document. It inspects the artifact snapshot so that sections appear only
// for templates that were actually produced.
type valuesProducer struct {
	plan plan.ResourcePlan
}

// Produce implements orchestrate.Producer.
func (producer valuesProducer) Produce(_ context.Context, snapshot orchestrate.ArtifactSnapshot) (map[string]string, error) {
	inputs := newTemplateInputs(producer.plan)

	document := chartValues{
		ReplicaCount: inputs.replicas,
		Image: imageValues{
			Repository: imageRepository(inputs.image),
			Tag:        imageTag(inputs.image),
			PullPolicy: "IfNotPresent",
		},
		Resources: map[string]any{},
	}

	if _, serviceRendered := snapshot[ArtifactNameService]; serviceRendered {
		document.Service = &serviceValues{Type: "ClusterIP", Port: inputs.servicePort}
	}
	if _, ingressRendered := snapshot[ArtifactNameIngress]; ingressRendered {
		document.Ingress = &ingressValues{Enabled: true, Host: inputs.ingressHost}
	}
	if _, hpaRendered := snapshot[ArtifactNameHPA]; hpaRendered {
		document.Autoscaling = &autoscalingValues{
			Enabled:                        true,
			MinReplicas:                    inputs.hpaMin,
			MaxReplicas:                    inputs.hpaMax,
			TargetCPUUtilizationPercentage: inputs.hpaTargetCPU,
		}
	} else {
		document.Autoscaling = &autoscalingValues{Enabled: false, MinReplicas: 1, MaxReplicas: inputs.hpaMax, TargetCPUUtilizationPercentage: inputs.hpaTargetCPU}
	}
	if _, configMapRendered := snapshot[ArtifactNameConfigMap]; configMapRendered {
		document.Config = copyStringMap(inputs.configData)
	}
	if _, secretRendered := snapshot[ArtifactNameSecret]; secretRendered {
		document.Secrets = map[string]string{}
		secretKeys := append([]string(nil), inputs.secretKeys...)
		sort.Strings(secretKeys)
		for _, secretKey := range secretKeys {
			document.Secrets[secretKey] = ""
		}
	}

	encodedValues, marshalError := yaml.Marshal(document)
	if marshalError != nil {
		return nil, fmt.Errorf(valuesMarshalErrorTemplateConstant, marshalError)
	}

	return map[string]string{ArtifactNameValues: string(encodedValues)}, nil
}

func copyStringMap(source map[string]string) map[string]string {
	duplicate := make(map[string]string, len(source))
	for entryKey, entryValue := range source {
		duplicate[entryKey] = entryValue
	}
	return duplicate
}

func imageRepository(imageReference string) string {
	for characterIndex := len(imageReference) - 1; characterIndex >= 0; characterIndex-- {
		switch imageReference[characterIndex] {
		case ':':
			return imageReference[:characterIndex]
		case '/':
			return imageReference
		}
	}
	return imageReference
}

func imageTag(imageReference string) string {
	for characterIndex := len(imageReference) - 1; characterIndex >= 0; characterIndex-- {
		switch imageReference[characterIndex] {
		case ':':
			return imageReference[characterIndex+1:]
		case '/':
			return ""
		}
	}
	return ""
}
