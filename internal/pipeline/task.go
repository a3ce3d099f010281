// ABOUTME: Direct single-prompt tasks that bypass classification and history
// ABOUTME: Draft tasks (rephrase, extract customer) and report tasks over saved submissions

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/prompts"
)

// Task names a direct task.
type Task string

const (
	TaskRephrase        Task = "rephrase"
	TaskExtractCustomer Task = "extract_customer"
	TaskRecommend       Task = "recommend_submissions"
	TaskCombine         Task = "combine_submissions"
)

// ParseTask validates a task name.
func ParseTask(name string) (Task, error) {
	switch t := Task(name); t {
	case TaskRephrase, TaskExtractCustomer, TaskRecommend, TaskCombine:
		return t, nil
	default:
		return "", fmt.Errorf("unknown task %q", name)
	}
}

// UsesItems reports whether the task reads Request.Items rather than Text.
func (t Task) UsesItems() bool {
	return t == TaskRecommend || t == TaskCombine
}

// Direct runs one task with a single rendered prompt.
type Direct struct {
	task   Task
	client llm.Client
	config llm.ModelConfig
	now    func() time.Time
}

// NewDirect creates a Direct pipeline for task.
func NewDirect(task Task, client llm.Client, cfg llm.ModelConfig) *Direct {
	return &Direct{task: task, client: client, config: cfg, now: time.Now}
}

// Run renders the task prompt for req.Text, or req.Items for report tasks,
// and generates the result.
func (d *Direct) Run(ctx context.Context, req *Request, mode Mode) (*Generation, error) {
	var (
		p   llm.Prompt
		err error
	)
	switch d.task {
	case TaskRephrase:
		p, err = prompts.Rephrase(req.Text, d.now())
	case TaskExtractCustomer:
		p, err = prompts.ExtractCustomer(req.Text)
	case TaskRecommend:
		p, err = prompts.Recommend(req.Items)
	case TaskCombine:
		p, err = prompts.Combine(req.Items)
	default:
		err = fmt.Errorf("unknown task %q", d.task)
	}
	if err != nil {
		return nil, fmt.Errorf("building %s prompt: %w", d.task, err)
	}
	return generate(ctx, d.client, p, d.config, mode)
}
