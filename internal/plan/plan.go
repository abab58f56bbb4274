// Package plan loads the declarative resource plan and resolves it into the
// task graph executed by the orchestration loop.
package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	planPathRequiredMessageConstant     = "resource plan path must be provided"
	planLoadErrorTemplateConstant       = "failed to load resource plan: %w"
	planParseErrorTemplateConstant      = "failed to parse resource plan: %w"
	planChartNameMissingMessageConstant = "resource plan must declare a chart name"
	planChartVersionTemplateConstant    = "chart version %q is not valid semver"

	semverComparisonPrefixConstant = "v"

	defaultChartVersionConstant = "0.1.0"
)

// ChartMetadata names the chart assembled from the orchestration run.
type ChartMetadata struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// Resource describes one requested Kubernetes resource.
type Resource struct {
	Type            string            `yaml:"type"`
	Name            string            `yaml:"name"`
	Image           string            `yaml:"image"`
	Replicas        int               `yaml:"replicas"`
	Port            int               `yaml:"port"`
	TargetPort      int               `yaml:"target_port"`
	Host            string            `yaml:"host"`
	Data            map[string]string `yaml:"data"`
	MinReplicas     int               `yaml:"min_replicas"`
	MaxReplicas     int               `yaml:"max_replicas"`
	TargetCPUUsage  int               `yaml:"target_cpu_percent"`
	MinAvailable    string            `yaml:"min_available"`
	TLSSecretName   string            `yaml:"tls_secret"`
	ClusterScoped   bool              `yaml:"cluster_scoped"`
	AnnotationsOnly bool              `yaml:"annotations_only"`
}

// ResourceSections partitions requested resources into core requirements and
// feature-flagged auxiliary extras.
type ResourceSections struct {
	Core      []Resource `yaml:"core"`
	Auxiliary []Resource `yaml:"auxiliary"`
}

// ResourcePlan is the planning input consumed exactly once before
// orchestration starts.
type ResourcePlan struct {
	Chart     ChartMetadata    `yaml:"chart"`
	Resources ResourceSections `yaml:"resources"`
}

// LoadPlan reads and validates a resource plan document from disk.
func LoadPlan(filePath string) (ResourcePlan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return ResourcePlan{}, errors.New(planPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return ResourcePlan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}

	return ParsePlan(contentBytes)
}

// ParsePlan decodes a resource plan document and applies defaults.
func ParsePlan(contentBytes []byte) (ResourcePlan, error) {
	var parsedPlan ResourcePlan
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedPlan); unmarshalError != nil {
		return ResourcePlan{}, fmt.Errorf(planParseErrorTemplateConstant, unmarshalError)
	}

	if validationError := parsedPlan.Validate(); validationError != nil {
		return ResourcePlan{}, validationError
	}
	return parsedPlan, nil
}

// Validate checks chart metadata and normalizes defaults. Resource-level
// validation belongs to the resolver, which is the component that interprets
// resource kinds.
func (resourcePlan *ResourcePlan) Validate() error {
	resourcePlan.Chart.Name = strings.TrimSpace(resourcePlan.Chart.Name)
	if len(resourcePlan.Chart.Name) == 0 {
		return errors.New(planChartNameMissingMessageConstant)
	}

	resourcePlan.Chart.Version = strings.TrimSpace(resourcePlan.Chart.Version)
	if len(resourcePlan.Chart.Version) == 0 {
		resourcePlan.Chart.Version = defaultChartVersionConstant
	}
	if !semver.IsValid(semverComparisonPrefixConstant + resourcePlan.Chart.Version) {
		return fmt.Errorf(planChartVersionTemplateConstant, resourcePlan.Chart.Version)
	}

	return nil
}
