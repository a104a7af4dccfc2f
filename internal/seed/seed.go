// Package seed loads the default capability catalogue and optional sample
// workflows into a repository.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"ai-workflow-hub/backend/internal/capability"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/pkg/models"
)

// Logger is the logging surface the seeder needs.
type Logger interface {
	Info(msg string, args ...interface{})
}

// Capabilities returns the default catalogue, one capability per operation
// type. Its parameters restate the invoker's defaults, so a node without
// parameters behaves the same with or without the catalogue entry.
func Capabilities() []*models.Capability {
	return []*models.Capability{
		{
			Name:          "GPT-4 Chat",
			Description:   "Conversational AI using GPT-4 model for natural language understanding and generation",
			Category:      models.CategoryNLP,
			OperationType: string(capability.Chat),
			InputFormats:  []string{"text/plain", "application/json"},
			OutputFormats: []string{"text/plain"},
			Parameters:    map[string]interface{}{"model": capability.DefaultChatModel},
			IsActive: true,
		},
		{
			Name:          "Text Summarization",
			Description:   "Automatically summarize long texts into concise summaries",
			Category:      models.CategoryNLP,
			OperationType: string(capability.Summarization),
			InputFormats:  []string{"text/plain", "text/markdown"},
			OutputFormats: []string{"text/plain"},
			Parameters:    map[string]interface{}{"length": "medium"},
			IsActive:      true,
		},
		{
			Name:          "Language Translation",
			Description:   "Translate text between multiple languages",
			Category:      models.CategoryNLP,
			OperationType: string(capability.Translation),
			InputFormats:  []string{"text/plain"},
			OutputFormats: []string{"text/plain"},
			Parameters:    map[string]interface{}{"targetLanguage": capability.DefaultTargetLanguage},
			IsActive:      true,
		},
		{
			Name:          "Text Analysis",
			Description:   "Analyze text for sentiment, entities, topics, and other insights",
			Category:      models.CategoryAnalytics,
			OperationType: string(capability.Analysis),
			InputFormats:  []string{"text/plain"},
			OutputFormats: []string{"application/json", "text/plain"},
			Parameters:    map[string]interface{}{"analysisType": capability.DefaultAnalysisType},
			IsActive:      true,
		},
		{
			Name:          "Code Generator",
			Description:   "Generate code in various programming languages from natural language descriptions",
			Category:      models.CategoryGeneration,
			OperationType: string(capability.CodeGeneration),
			InputFormats:  []string{"text/plain"},
			OutputFormats: []string{"text/plain", "application/javascript", "application/python"},
			Parameters:    map[string]interface{}{"language": capability.DefaultCodeLanguage},
			IsActive:      true,
		},
		{
			Name:          "Text Generator",
			Description:   "Generate creative and informative text content",
			Category:      models.CategoryGeneration,
			OperationType: string(capability.TextGeneration),
			InputFormats:  []string{"text/plain"},
			OutputFormats: []string{"text/plain"},
			Parameters:    map[string]interface{}{"creativity": 0.8},
			IsActive:      true,
		},
	}
}

type workflowFile struct {
	Workflows []models.Workflow `json:"workflows"`
}

// LoadWorkflows reads a JSON document of the form {"workflows": [...]}. A
// node's capabilityId may name a capability by ID, name or operation type;
// Run resolves it.
func LoadWorkflows(path string) ([]models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflows: %w", err)
	}
	var file workflowFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return file.Workflows, nil
}

// Result summarises a seeding run.
type Result struct {
	User                *models.User
	CapabilitiesCreated int
	WorkflowsCreated    int
	Skipped             int
}

// Run seeds repo. It is idempotent: capabilities are matched by name and
// workflows by owner and name, and existing ones are left untouched.
func Run(ctx context.Context, repo repository.Repository, email string, workflows []models.Workflow, logger Logger) (*Result, error) {
	user, err := ensureUser(ctx, repo, email, logger)
	if err != nil {
		return nil, err
	}
	result := &Result{User: user}

	existing, err := repo.ListCapabilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list capabilities: %w", err)
	}
	byName := make(map[string]*models.Capability, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}

	catalogue := make([]*models.Capability, 0, len(existing)+len(Capabilities()))
	catalogue = append(catalogue, existing...)
	for _, c := range Capabilities() {
		if _, ok := byName[c.Name]; ok {
			logger.Info("Skipping existing capability", "name", c.Name)
			result.Skipped++
			continue
		}
		if err := repo.CreateCapability(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to create capability %s: %w", c.Name, err)
		}
		logger.Info("Seeded capability", "name", c.Name, "id", c.ID)
		catalogue = append(catalogue, c)
		result.CapabilitiesCreated++
	}

	owned, err := repo.ListWorkflows(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	existingMap := make(map[string]bool, len(owned))
	for _, w := range owned {
		existingMap[w.Name] = true
	}

	for i := range workflows {
		wf := workflows[i]
		if existingMap[wf.Name] {
			logger.Info("Skipping existing workflow", "name", wf.Name)
			result.Skipped++
			continue
		}
		wf.ID = ""
		wf.UserID = user.ID
		if wf.Status == "" {
			wf.Status = models.WorkflowStatusActive
		}
		wf.Nodes = resolveCapabilities(wf.Nodes, catalogue)
		if err := repo.CreateWorkflow(ctx, &wf); err != nil {
			return nil, fmt.Errorf("failed to create workflow %s: %w", wf.Name, err)
		}
		logger.Info("Seeded workflow", "name", wf.Name, "id", wf.ID)
		existingMap[wf.Name] = true
		result.WorkflowsCreated++
	}

	return result, nil
}

func ensureUser(ctx context.Context, repo repository.UserStore, email string, logger Logger) (*models.User, error) {
	user, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		logger.Info("Found existing user", "id", user.ID)
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &models.User{Email: email, Role: models.UserRoleDeveloper}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	logger.Info("Created user", "email", email, "id", user.ID)
	return user, nil
}

// resolveCapabilities rewrites capability references given by name or
// operation type to IDs. References that match nothing are kept as is.
func resolveCapabilities(nodes []models.Node, catalogue []*models.Capability) []models.Node {
	out := make([]models.Node, len(nodes))
	for i, n := range nodes {
		ref := n.Data.CapabilityID
		if ref != "" {
			for _, c := range catalogue {
				if c.ID == ref {
					break
				}
				if c.Name == ref || c.OperationType == ref {
					n.Data.CapabilityID = c.ID
					break
				}
			}
		}
		out[i] = n
	}
	return out
}
