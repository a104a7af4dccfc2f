package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ai-workflow-hub/backend/internal/capability"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/pkg/models"
)

// Formats of engine-produced artifacts.
const (
	ArtifactFormat = "text/plain"
	inputSeparator = "\n\n"
)

// WorkflowSource loads workflow definitions.
type WorkflowSource interface {
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
}

// CapabilitySource resolves capabilities bound to nodes.
type CapabilitySource interface {
	GetCapability(ctx context.Context, id string) (*models.Capability, error)
}

// ArtifactSink reads seed artifacts and stores node outputs.
type ArtifactSink interface {
	GetArtifact(ctx context.Context, id string) (*models.Artifact, error)
	CreateArtifact(ctx context.Context, artifact *models.Artifact) error
}

// ExecutionStateStore writes the execution record of a run.
type ExecutionStateStore interface {
	UpdateExecutionLogs(ctx context.Context, id string, logs []models.LogEntry) error
	FinishExecution(ctx context.Context, id string, status models.ExecutionStatus, completedAt time.Time) error
}

// Store is everything the executor persists to. repository.Repository
// satisfies it.
type Store interface {
	WorkflowSource
	CapabilitySource
	ArtifactSink
	ExecutionStateStore
}

// CapabilityInvoker runs one capability. *capability.Invoker satisfies it.
type CapabilityInvoker interface {
	Invoke(ctx context.Context, operationType, input string, params map[string]interface{}) (string, error)
}

type nodeState int

const (
	nodePending nodeState = iota
	nodeRunning
	nodeDone
)

// run is the state owned by a single execution. It is never shared.
type run struct {
	workflowID  string
	executionID string
	userID      string
	graph       *Graph
	results     map[string]string
	states      map[string]nodeState
	log         *ExecutionLog
}

// Executor walks workflow graphs. Runs share no mutable state, so one
// Executor can serve concurrent runs.
type Executor struct {
	store   Store
	invoker CapabilityInvoker
	logger  Logger
	inst    *instruments
}

// NewExecutor creates an Executor.
func NewExecutor(store Store, invoker CapabilityInvoker, logger Logger) *Executor {
	return &Executor{
		store:   store,
		invoker: invoker,
		logger:  logger,
		inst:    newInstruments(),
	}
}

// Execute runs workflowID under the existing execution record executionID on
// behalf of userID. The record always ends in a terminal status, and the
// error that failed the run, if any, is returned.
func (e *Executor) Execute(ctx context.Context, workflowID, executionID, userID string) error {
	ctx, span := e.inst.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String("workflow.id", workflowID),
		attribute.String("execution.id", executionID),
	))
	defer span.End()

	r := &run{
		workflowID:  workflowID,
		executionID: executionID,
		userID:      userID,
		results:     map[string]string{},
		states:      map[string]nodeState{},
		log:         NewExecutionLog(executionID, e.logger),
	}

	status := models.ExecutionStatusCompleted
	err := e.walk(ctx, r)
	if err != nil {
		status = models.ExecutionStatusFailed
		r.log.Append(models.RunLogNodeID, models.LogStatusFailed, "Workflow failed: "+err.Error(), nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		r.log.Append(models.RunLogNodeID, models.LogStatusCompleted, "Workflow completed successfully", nil)
	}

	if ferr := e.finish(context.WithoutCancel(ctx), r, status); ferr != nil {
		e.logger.Error("Failed to finalize execution", "execution_id", executionID, "error", ferr)
		if err == nil {
			err = ferr
		}
	}
	e.inst.run(ctx, string(status))
	return err
}

func (e *Executor) walk(ctx context.Context, r *run) error {
	wf, err := e.store.GetWorkflow(ctx, r.workflowID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && wf == nil) {
		return notFound(ErrWorkflowNotFound, r.workflowID)
	}
	if err != nil {
		return persistence("load workflow", err)
	}

	r.graph = NewGraph(wf.Nodes, wf.Edges)
	r.log.Append(models.RunLogNodeID, models.LogStatusStarted, "Starting workflow: "+wf.Name, nil)
	if err := e.flush(ctx, r); err != nil {
		return err
	}

	// Work-list in depth-first pre-order: a node runs to completion before
	// its successors are pushed, in reverse so the first edge is popped first.
	start := r.graph.StartNodes()
	stack := make([]string, 0, len(start))
	for i := len(start) - 1; i >= 0; i-- {
		stack = append(stack, start[i].ID)
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.states[id] != nodePending {
			continue
		}

		node, _ := r.graph.Node(id)
		if err := e.visit(ctx, r, node); err != nil {
			return err
		}

		succ := r.graph.Successors(id)
		for i := len(succ) - 1; i >= 0; i-- {
			target := succ[i].Target
			if _, ok := r.graph.Node(target); !ok {
				e.logger.Warn("Skipping edge to unknown node",
					"execution_id", r.executionID, "source", id, "target", target)
				continue
			}
			stack = append(stack, target)
		}
	}
	return nil
}

func (e *Executor) visit(ctx context.Context, r *run, node models.Node) error {
	ctx, span := e.inst.tracer.Start(ctx, "workflow.node", trace.WithAttributes(
		attribute.String("node.id", node.ID),
	))
	defer span.End()

	r.states[node.ID] = nodeRunning
	r.log.Append(node.ID, models.LogStatusStarted, "Executing node: "+node.Data.Label, nil)

	if node.Data.CapabilityID == "" {
		r.log.Append(node.ID, models.LogStatusCompleted, "No capability attached, skipping", nil)
		r.states[node.ID] = nodeDone
		e.inst.visit(ctx, outcomeSkipped)
		return nil
	}

	artifactID, output, err := e.runNode(ctx, r, node)
	if err != nil {
		r.log.Append(node.ID, models.LogStatusFailed, "Node execution failed: "+err.Error(), nil)
		e.inst.visit(ctx, outcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.log.Append(node.ID, models.LogStatusCompleted, "Node completed successfully", map[string]interface{}{
		"resultLength": len(output),
		"artifactId":   artifactID,
	})
	r.states[node.ID] = nodeDone
	e.inst.visit(ctx, outcomeCompleted)
	return e.flush(ctx, r)
}

// runNode invokes the node's capability and stores the output, returning the
// new artifact's id.
func (e *Executor) runNode(ctx context.Context, r *run, node models.Node) (string, string, error) {
	capID := node.Data.CapabilityID
	bound, err := e.store.GetCapability(ctx, capID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && bound == nil) {
		return "", "", notFound(ErrCapabilityNotFound, capID)
	}
	if err != nil {
		return "", "", persistence("load capability "+capID, err)
	}

	input, err := e.input(ctx, r, node)
	if err != nil {
		return "", "", err
	}

	params, err := mergeParameters(bound.Parameters, node.Data.Parameters)
	if err != nil {
		return "", "", fmt.Errorf("failed to merge parameters: %w", err)
	}

	started := time.Now()
	output, err := e.invoker.Invoke(ctx, bound.OperationType, input, params)
	e.inst.invoked(ctx, bound.OperationType, started, err)
	if err != nil {
		if !errors.Is(err, ErrRemoteCapability) {
			err = &capability.RemoteError{Operation: bound.OperationType, Err: err}
		}
		return "", "", err
	}
	r.results[node.ID] = output

	artifact := &models.Artifact{
		UserID:  r.userID,
		Type:    models.ArtifactTypeText,
		Format:  ArtifactFormat,
		Content: output,
		Metadata: map[string]interface{}{
			"workflowId":     r.workflowID,
			"executionId":    r.executionID,
			"nodeId":         node.ID,
			"capabilityName": bound.Name,
		},
	}
	if err := e.store.CreateArtifact(ctx, artifact); err != nil {
		return "", "", persistence("create artifact", err)
	}
	return artifact.ID, output, nil
}

// input joins the non-empty outputs of the node's predecessors. A node with no
// incoming edge reads its bound artifact instead, if the run's user owns it.
func (e *Executor) input(ctx context.Context, r *run, node models.Node) (string, error) {
	if preds := r.graph.Predecessors(node.ID); len(preds) > 0 {
		var parts []string
		for _, edge := range preds {
			if out := r.results[edge.Source]; out != "" {
				parts = append(parts, out)
			}
		}
		return strings.Join(parts, inputSeparator), nil
	}

	if node.Data.ArtifactID == "" {
		return "", nil
	}
	artifact, err := e.store.GetArtifact(ctx, node.Data.ArtifactID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", persistence("load artifact "+node.Data.ArtifactID, err)
	}
	// Another user's artifact reads as missing.
	if err != nil || artifact == nil || artifact.UserID != r.userID {
		e.logger.Warn("Bound artifact not found, using empty input",
			"execution_id", r.executionID, "node_id", node.ID, "artifact_id", node.Data.ArtifactID)
		return "", nil
	}
	return artifact.Content, nil
}

func (e *Executor) flush(ctx context.Context, r *run) error {
	if err := e.store.UpdateExecutionLogs(ctx, r.executionID, r.log.Entries()); err != nil {
		return persistence("update execution logs", err)
	}
	return nil
}

func (e *Executor) finish(ctx context.Context, r *run, status models.ExecutionStatus) error {
	flushErr := e.flush(ctx, r)
	if err := e.store.FinishExecution(ctx, r.executionID, status, time.Now().UTC()); err != nil {
		return errors.Join(flushErr, persistence("finish execution", err))
	}
	return flushErr
}

// mergeParameters overlays node parameters on capability defaults. Node
// values win; null node values leave the default in place.
func mergeParameters(defaults, node map[string]interface{}) (map[string]interface{}, error) {
	merged := map[string]interface{}{}
	if len(defaults) > 0 {
		if err := mergo.Merge(&merged, defaults); err != nil {
			return nil, err
		}
	}
	overrides := make(map[string]interface{}, len(node))
	for k, v := range node {
		if v != nil {
			overrides[k] = v
		}
	}
	if len(overrides) > 0 {
		if err := mergo.Merge(&merged, overrides, mergo.WithOverride); err != nil {
			return nil, err
		}
	}
	return merged, nil
}
