package render

import (
	"strconv"
	"strings"

	"github.com/tyemirov/helmsmith/internal/plan"
)

const (
	chartNamePlaceholderConstant      = "%%CHART_NAME%%"
	namespaceNamePlaceholderConstant  = "%%NAMESPACE_NAME%%"
	servicePortPlaceholderConstant    = "%%SERVICE_PORT%%"
	targetPortPlaceholderConstant     = "%%TARGET_PORT%%"
	workloadKindPlaceholderConstant   = "%%WORKLOAD_KIND%%"
	ingressHostPlaceholderConstant    = "%%INGRESS_HOST%%"
	hpaMinReplicasPlaceholderConstant = "%%HPA_MIN%%"
	hpaMaxReplicasPlaceholderConstant = "%%HPA_MAX%%"
	hpaTargetCPUPlaceholderConstant   = "%%HPA_CPU%%"
	pdbMinAvailablePlaceholderConstant = "%%PDB_MIN_AVAILABLE%%"

	defaultServicePortConstant   = 80
	defaultTargetPortConstant    = 8080
	defaultReplicasConstant      = 1
	defaultHPAMinReplicas        = 1
	defaultHPAMaxReplicas        = 5
	defaultHPATargetCPUConstant  = 80
	defaultPDBMinAvailable       = "1"
	defaultIngressHostConstant   = "chart.local"
	defaultContainerImageMessage = "nginx:stable"
)

// templateInputs carries the plan-derived values substituted into template
// bodies.
type templateInputs struct {
	chartName     string
	namespaceName string
	workloadKind  string
	image         string
	replicas      int
	servicePort   int
	targetPort    int
	ingressHost   string
	hpaMin        int
	hpaMax        int
	hpaTargetCPU  int
	pdbMinAvail   string
	configData    map[string]string
	secretKeys    []string
}

func newTemplateInputs(resourcePlan plan.ResourcePlan) templateInputs {
	inputs := templateInputs{
		chartName:    resourcePlan.Chart.Name,
		workloadKind: "Deployment",
		image:        defaultContainerImageMessage,
		replicas:     defaultReplicasConstant,
		servicePort:  defaultServicePortConstant,
		targetPort:   defaultTargetPortConstant,
		ingressHost:  defaultIngressHostConstant,
		hpaMin:       defaultHPAMinReplicas,
		hpaMax:       defaultHPAMaxReplicas,
		hpaTargetCPU: defaultHPATargetCPUConstant,
		pdbMinAvail:  defaultPDBMinAvailable,
	}

	for _, resource := range resourcePlan.Resources.Core {
		switch strings.ToLower(strings.TrimSpace(resource.Type)) {
		case plan.ResourceKindDeployment:
			inputs.applyWorkload(resource, "Deployment")
		case plan.ResourceKindStatefulSet:
			inputs.applyWorkload(resource, "StatefulSet")
		case plan.ResourceKindService:
			if resource.Port > 0 {
				inputs.servicePort = resource.Port
			}
			if resource.TargetPort > 0 {
				inputs.targetPort = resource.TargetPort
			}
		case plan.ResourceKindNamespace:
			inputs.namespaceName = strings.TrimSpace(resource.Name)
		}
	}

	for _, resource := range resourcePlan.Resources.Auxiliary {
		switch strings.ToLower(strings.TrimSpace(resource.Type)) {
		case plan.ResourceKindConfigMap:
			inputs.configData = resource.Data
		case plan.ResourceKindSecret:
			for dataKey := range resource.Data {
				inputs.secretKeys = append(inputs.secretKeys, dataKey)
			}
		case plan.ResourceKindHPA:
			if resource.MinReplicas > 0 {
				inputs.hpaMin = resource.MinReplicas
			}
			if resource.MaxReplicas > 0 {
				inputs.hpaMax = resource.MaxReplicas
			}
			if resource.TargetCPUUsage > 0 {
				inputs.hpaTargetCPU = resource.TargetCPUUsage
			}
		case plan.ResourceKindPDB:
			if len(strings.TrimSpace(resource.MinAvailable)) > 0 {
				inputs.pdbMinAvail = strings.TrimSpace(resource.MinAvailable)
			}
		case plan.ResourceKindIngress:
			if len(strings.TrimSpace(resource.Host)) > 0 {
				inputs.ingressHost = strings.TrimSpace(resource.Host)
			}
		}
	}

	if len(inputs.namespaceName) == 0 {
		inputs.namespaceName = inputs.chartName
	}
	return inputs
}

func (inputs *templateInputs) applyWorkload(resource plan.Resource, kind string) {
	inputs.workloadKind = kind
	if len(strings.TrimSpace(resource.Image)) > 0 {
		inputs.image = strings.TrimSpace(resource.Image)
	}
	if resource.Replicas > 0 {
		inputs.replicas = resource.Replicas
	}
	if resource.Port > 0 {
		inputs.targetPort = resource.Port
	}
}

func (inputs templateInputs) substitute(templateBody string) string {
	replacer := strings.NewReplacer(
		chartNamePlaceholderConstant, inputs.chartName,
		namespaceNamePlaceholderConstant, inputs.namespaceName,
		workloadKindPlaceholderConstant, inputs.workloadKind,
		servicePortPlaceholderConstant, strconv.Itoa(inputs.servicePort),
		targetPortPlaceholderConstant, strconv.Itoa(inputs.targetPort),
		ingressHostPlaceholderConstant, inputs.ingressHost,
		hpaMinReplicasPlaceholderConstant, strconv.Itoa(inputs.hpaMin),
		hpaMaxReplicasPlaceholderConstant, strconv.Itoa(inputs.hpaMax),
		hpaTargetCPUPlaceholderConstant, strconv.Itoa(inputs.hpaTargetCPU),
		pdbMinAvailablePlaceholderConstant, inputs.pdbMinAvail,
	)
	return replacer.Replace(templateBody)
}

const helpersTemplateBody = `{{/*
Expand the name of the chart.
*/}}
{{- define "%%CHART_NAME%%.name" -}}
{{- default .Chart.Name .Values.nameOverride | trunc 63 | trimSuffix "-" }}
{{- end }}

{{/*
Create a fully qualified app name, truncated at 63 characters.
*/}}
{{- define "%%CHART_NAME%%.fullname" -}}
{{- if .Values.fullnameOverride }}
{{- .Values.fullnameOverride | trunc 63 | trimSuffix "-" }}
{{- else }}
{{- $name := default .Chart.Name .Values.nameOverride }}
{{- if contains $name .Release.Name }}
{{- .Release.Name | trunc 63 | trimSuffix "-" }}
{{- else }}
{{- printf "%s-%s" .Release.Name $name | trunc 63 | trimSuffix "-" }}
{{- end }}
{{- end }}
{{- end }}

{{/*
Common labels.
*/}}
{{- define "%%CHART_NAME%%.labels" -}}
helm.sh/chart: {{ printf "%s-%s" .Chart.Name .Chart.Version }}
app.kubernetes.io/name: {{ include "%%CHART_NAME%%.name" . }}
app.kubernetes.io/instance: {{ .Release.Name }}
app.kubernetes.io/managed-by: {{ .Release.Service }}
{{- end }}

{{/*
Selector labels.
*/}}
{{- define "%%CHART_NAME%%.selectorLabels" -}}
app.kubernetes.io/name: {{ include "%%CHART_NAME%%.name" . }}
app.kubernetes.io/instance: {{ .Release.Name }}
{{- end }}
`

const namespaceTemplateBody = `apiVersion: v1
kind: Namespace
metadata:
  name: %%NAMESPACE_NAME%%
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
`

const workloadTemplateBody = `apiVersion: apps/v1
kind: %%WORKLOAD_KIND%%
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
spec:
  {{- if not .Values.autoscaling.enabled }}
  replicas: {{ .Values.replicaCount }}
  {{- end }}
  selector:
    matchLabels:
      {{- include "%%CHART_NAME%%.selectorLabels" . | nindent 6 }}
  template:
    metadata:
      labels:
        {{- include "%%CHART_NAME%%.selectorLabels" . | nindent 8 }}
    spec:
      containers:
        - name: {{ .Chart.Name }}
          image: "{{ .Values.image.repository }}:{{ .Values.image.tag | default .Chart.AppVersion }}"
          imagePullPolicy: {{ .Values.image.pullPolicy }}
          ports:
            - name: http
              containerPort: %%TARGET_PORT%%
              protocol: TCP
          resources:
            {{- toYaml .Values.resources | nindent 12 }}
`

const serviceTemplateBody = `apiVersion: v1
kind: Service
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
spec:
  type: {{ .Values.service.type }}
  ports:
    - port: {{ .Values.service.port }}
      targetPort: http
      protocol: TCP
      name: http
  selector:
    {{- include "%%CHART_NAME%%.selectorLabels" . | nindent 4 }}
`

const configMapTemplateBody = `apiVersion: v1
kind: ConfigMap
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}-config
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
data:
  {{- range $key, $value := .Values.config }}
  {{ $key }}: {{ $value | quote }}
  {{- end }}
`

const secretTemplateBody = `apiVersion: v1
kind: Secret
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}-secret
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
type: Opaque
data:
  {{- range $key, $value := .Values.secrets }}
  {{ $key }}: {{ $value | b64enc | quote }}
  {{- end }}
`

const serviceAccountTemplateBody = `apiVersion: v1
kind: ServiceAccount
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
`

const rbacTemplateBody = `apiVersion: rbac.authorization.k8s.io/v1
kind: Role
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
rules:
  - apiGroups: [""]
    resources: ["configmaps", "secrets"]
    verbs: ["get", "list", "watch"]
---
apiVersion: rbac.authorization.k8s.io/v1
kind: RoleBinding
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
roleRef:
  apiGroup: rbac.authorization.k8s.io
  kind: Role
  name: {{ include "%%CHART_NAME%%.fullname" . }}
subjects:
  - kind: ServiceAccount
    name: {{ include "%%CHART_NAME%%.fullname" . }}
`

const hpaTemplateBody = `{{- if .Values.autoscaling.enabled }}
apiVersion: autoscaling/v2
kind: HorizontalPodAutoscaler
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
spec:
  scaleTargetRef:
    apiVersion: apps/v1
    kind: %%WORKLOAD_KIND%%
    name: {{ include "%%CHART_NAME%%.fullname" . }}
  minReplicas: {{ .Values.autoscaling.minReplicas }}
  maxReplicas: {{ .Values.autoscaling.maxReplicas }}
  metrics:
    - type: Resource
      resource:
        name: cpu
        target:
          type: Utilization
          averageUtilization: {{ .Values.autoscaling.targetCPUUtilizationPercentage }}
{{- end }}
`

const pdbTemplateBody = `apiVersion: policy/v1
kind: PodDisruptionBudget
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
spec:
  minAvailable: %%PDB_MIN_AVAILABLE%%
  selector:
    matchLabels:
      {{- include "%%CHART_NAME%%.selectorLabels" . | nindent 6 }}
`

const networkPolicyTemplateBody = `apiVersion: networking.k8s.io/v1
kind: NetworkPolicy
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
spec:
  podSelector:
    matchLabels:
      {{- include "%%CHART_NAME%%.selectorLabels" . | nindent 6 }}
  policyTypes:
    - Ingress
  ingress:
    - ports:
        - protocol: TCP
          port: %%TARGET_PORT%%
`

const ingressTemplateBody = `{{- if .Values.ingress.enabled }}
apiVersion: networking.k8s.io/v1
kind: Ingress
metadata:
  name: {{ include "%%CHART_NAME%%.fullname" . }}
  labels:
    {{- include "%%CHART_NAME%%.labels" . | nindent 4 }}
spec:
  {{- with .Values.ingress.className }}
  ingressClassName: {{ . }}
  {{- end }}
  rules:
    - host: {{ .Values.ingress.host | default "%%INGRESS_HOST%%" }}
      http:
        paths:
          - path: /
            pathType: Prefix
            backend:
              service:
                name: {{ include "%%CHART_NAME%%.fullname" . }}
                port:
                  name: http
{{- end }}
`

func (inputs templateInputs) renderHelpers() string       { return inputs.substitute(helpersTemplateBody) }
func (inputs templateInputs) renderNamespace() string     { return inputs.substitute(namespaceTemplateBody) }
func (inputs templateInputs) renderDeployment() string    { return inputs.substitute(workloadTemplateBody) }
func (inputs templateInputs) renderStatefulSet() string   { return inputs.substitute(workloadTemplateBody) }
func (inputs templateInputs) renderService() string       { return inputs.substitute(serviceTemplateBody) }
func (inputs templateInputs) renderConfigMap() string     { return inputs.substitute(configMapTemplateBody) }
func (inputs templateInputs) renderSecret() string        { return inputs.substitute(secretTemplateBody) }
func (inputs templateInputs) renderServiceAccount() string { return inputs.substitute(serviceAccountTemplateBody) }
func (inputs templateInputs) renderRBAC() string          { return inputs.substitute(rbacTemplateBody) }
func (inputs templateInputs) renderHPA() string           { return inputs.substitute(hpaTemplateBody) }
func (inputs templateInputs) renderPDB() string           { return inputs.substitute(pdbTemplateBody) }
func (inputs templateInputs) renderNetworkPolicy() string { return inputs.substitute(networkPolicyTemplateBody) }
func (inputs templateInputs) renderIngress() string       { return inputs.substitute(ingressTemplateBody) }
