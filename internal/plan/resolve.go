package plan

import (
	"fmt"
	"strings"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
)

// Task identifiers produced by the resolver. The core identifiers follow the
// fixed structural order the scheduler iterates within the core phase.
const (
	TaskIDHelpers       = "render-helpers"
	TaskIDNamespace     = "render-namespace"
	TaskIDDeployment    = "render-deployment"
	TaskIDStatefulSet   = "render-statefulset"
	TaskIDService       = "render-service"
	TaskIDConfigMap     = "render-configmap"
	TaskIDSecret        = "render-secret"
	TaskIDServiceAcct   = "render-serviceaccount"
	TaskIDRBAC          = "render-rbac"
	TaskIDHPA           = "render-hpa"
	TaskIDPDB           = "render-pdb"
	TaskIDNetworkPolicy = "render-networkpolicy"
	TaskIDIngress       = "render-ingress"
	TaskIDValues        = "summarize-values"
	TaskIDDocumentation = "render-docs"
)

// Resource kinds recognized by the resolver.
const (
	ResourceKindDeployment     = "deployment"
	ResourceKindStatefulSet    = "statefulset"
	ResourceKindService        = "service"
	ResourceKindNamespace      = "namespace"
	ResourceKindConfigMap      = "configmap"
	ResourceKindSecret         = "secret"
	ResourceKindServiceAccount = "serviceaccount"
	ResourceKindHPA            = "hpa"
	ResourceKindPDB            = "pdb"
	ResourceKindNetworkPolicy  = "networkpolicy"
	ResourceKindIngress        = "ingress"
)

const (
	resolveMissingWorkloadMessageConstant = "resource plan lacks a primary workload resource (deployment or statefulset)"
	resolveUnknownAuxiliaryLogTemplate    = "unrecognized auxiliary resource kind %q ignored"
)

// InvalidResourceDescriptionError reports planning input the resolver cannot
// turn into a task graph. It aborts the run before the loop starts.
type InvalidResourceDescriptionError struct {
	Reason string
}

// Error implements the error interface.
func (errorDetails InvalidResourceDescriptionError) Error() string {
	return fmt.Sprintf("invalid resource description: %s", errorDetails.Reason)
}

// conditionalDependencyRule selects the dependency set for a conditional task.
type conditionalDependencyRule int

const (
	conditionalDependsOnNothing conditionalDependencyRule = iota
	conditionalDependsOnWorkload
	conditionalDependsOnServiceAndHelpers
)

// conditionalTaskRegistration maps one auxiliary resource kind to the
// conditional tasks it registers. The table is fixed at compile time; new
// kinds extend it without touching the scheduler.
type conditionalTaskRegistration struct {
	TaskIDs        []string
	DependencyRule conditionalDependencyRule
}

var conditionalTaskTable = map[string]conditionalTaskRegistration{
	ResourceKindConfigMap: {TaskIDs: []string{TaskIDConfigMap}, DependencyRule: conditionalDependsOnNothing},
	ResourceKindSecret:    {TaskIDs: []string{TaskIDSecret}, DependencyRule: conditionalDependsOnNothing},
	// The service account kind carries its role/rolebinding pair alongside
	// the identity itself, so it registers two tasks.
	ResourceKindServiceAccount: {TaskIDs: []string{TaskIDServiceAcct, TaskIDRBAC}, DependencyRule: conditionalDependsOnNothing},
	ResourceKindHPA:            {TaskIDs: []string{TaskIDHPA}, DependencyRule: conditionalDependsOnWorkload},
	ResourceKindPDB:            {TaskIDs: []string{TaskIDPDB}, DependencyRule: conditionalDependsOnWorkload},
	ResourceKindNetworkPolicy:  {TaskIDs: []string{TaskIDNetworkPolicy}, DependencyRule: conditionalDependsOnWorkload},
	ResourceKindIngress:        {TaskIDs: []string{TaskIDIngress}, DependencyRule: conditionalDependsOnServiceAndHelpers},
}

// RecognizedAuxiliaryKinds lists the auxiliary resource kinds the resolver
// maps to conditional tasks.
func RecognizedAuxiliaryKinds() []string {
	kinds := make([]string, 0, len(conditionalTaskTable))
	for kind := range conditionalTaskTable {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Resolution pairs the resolved task graph with the structural facts the
// producers and aggregator need.
type Resolution struct {
	Graph          orchestrate.TaskGraph
	WorkloadTaskID string
	HasNamespace   bool
}

// Resolve turns the resource plan into the task set, dependency map, and
// phase assignment consumed by the orchestration loop. It is a pure function
// with no side effects.
func Resolve(resourcePlan ResourcePlan) (Resolution, error) {
	workloadResource, workloadFound := findWorkloadResource(resourcePlan.Resources.Core)
	if !workloadFound {
		return Resolution{}, InvalidResourceDescriptionError{Reason: resolveMissingWorkloadMessageConstant}
	}

	workloadTaskID := TaskIDDeployment
	if normalizeResourceKind(workloadResource.Type) == ResourceKindStatefulSet {
		workloadTaskID = TaskIDStatefulSet
	}

	hasNamespace := coreResourcesContainKind(resourcePlan.Resources.Core, ResourceKindNamespace)

	specs := make([]orchestrate.TaskSpec, 0, len(resourcePlan.Resources.Auxiliary)+6)

	specs = append(specs, orchestrate.TaskSpec{ID: TaskIDHelpers, Phase: orchestrate.TaskPhaseCore})

	workloadDependencies := []string{TaskIDHelpers}
	if hasNamespace {
		specs = append(specs, orchestrate.TaskSpec{
			ID:           TaskIDNamespace,
			Phase:        orchestrate.TaskPhaseCore,
			Dependencies: []string{TaskIDHelpers},
		})
		workloadDependencies = append(workloadDependencies, TaskIDNamespace)
	}

	specs = append(specs, orchestrate.TaskSpec{
		ID:           workloadTaskID,
		Phase:        orchestrate.TaskPhaseCore,
		Dependencies: workloadDependencies,
	})
	specs = append(specs, orchestrate.TaskSpec{
		ID:           TaskIDService,
		Phase:        orchestrate.TaskPhaseCore,
		Dependencies: []string{TaskIDHelpers, workloadTaskID},
	})

	registeredConditional := make(map[string]struct{})
	for auxiliaryIndex := range resourcePlan.Resources.Auxiliary {
		kind := normalizeResourceKind(resourcePlan.Resources.Auxiliary[auxiliaryIndex].Type)
		registration, recognized := conditionalTaskTable[kind]
		if !recognized {
			continue
		}
		for _, taskID := range registration.TaskIDs {
			if _, alreadyRegistered := registeredConditional[taskID]; alreadyRegistered {
				continue
			}
			registeredConditional[taskID] = struct{}{}
			specs = append(specs, orchestrate.TaskSpec{
				ID:           taskID,
				Phase:        orchestrate.TaskPhaseConditional,
				Dependencies: conditionalDependencies(registration.DependencyRule, workloadTaskID),
			})
		}
	}

	templateTaskIDs := make([]string, 0, len(specs))
	for specIndex := range specs {
		templateTaskIDs = append(templateTaskIDs, specs[specIndex].ID)
	}

	specs = append(specs, orchestrate.TaskSpec{
		ID:           TaskIDValues,
		Phase:        orchestrate.TaskPhaseConditional,
		Dependencies: append([]string(nil), templateTaskIDs...),
	})
	specs = append(specs, orchestrate.TaskSpec{
		ID:           TaskIDDocumentation,
		Phase:        orchestrate.TaskPhaseDocumentation,
		Dependencies: append(append([]string(nil), templateTaskIDs...), TaskIDValues),
	})

	return Resolution{
		Graph: orchestrate.TaskGraph{
			Specs:               specs,
			SummaryTaskID:       TaskIDValues,
			DocumentationTaskID: TaskIDDocumentation,
		},
		WorkloadTaskID: workloadTaskID,
		HasNamespace:   hasNamespace,
	}, nil
}

func conditionalDependencies(rule conditionalDependencyRule, workloadTaskID string) []string {
	switch rule {
	case conditionalDependsOnWorkload:
		return []string{workloadTaskID}
	case conditionalDependsOnServiceAndHelpers:
		return []string{TaskIDService, TaskIDHelpers}
	default:
		return nil
	}
}

func findWorkloadResource(coreResources []Resource) (Resource, bool) {
	for resourceIndex := range coreResources {
		kind := normalizeResourceKind(coreResources[resourceIndex].Type)
		if kind == ResourceKindDeployment || kind == ResourceKindStatefulSet {
			return coreResources[resourceIndex], true
		}
	}
	return Resource{}, false
}

func coreResourcesContainKind(coreResources []Resource, kind string) bool {
	for resourceIndex := range coreResources {
		if normalizeResourceKind(coreResources[resourceIndex].Type) == kind {
			return true
		}
	}
	return false
}

func normalizeResourceKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
