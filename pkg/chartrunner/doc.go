// Package chartrunner hosts the embeddable entry point for chart generation
// runs. It resolves producer registries, bundle assemblers, and loggers with
// sensible defaults so CLI packages can inject collaborators once and obtain
// a runner, while unit tests can swap in fakes. This keeps orchestration
// logic in `internal/orchestrate` reusable without wiring duplication.
package chartrunner
