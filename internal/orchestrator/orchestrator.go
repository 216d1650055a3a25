// Package orchestrator runs the top-level bounded retry loop: select a
// template, fill it, package the artifact, validate it, and retry from
// scratch on failure up to a fixed attempt ceiling.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dashweave/internal/logging"
	"dashweave/internal/merge"
	"dashweave/internal/schema"
	"dashweave/internal/selector"
)

// State names one phase of request processing.
type State string

const (
	StateSelectTemplate   State = "select_template"
	StateFillContent      State = "fill_content"
	StatePackageArtifact  State = "package_artifact"
	StateValidatePackaged State = "validate_packaged"
	StateDone             State = "done"
)

// DefaultMaxAttempts bounds the retry loop.
const DefaultMaxAttempts = 3

// Sentinel errors surfaced through Result.Err.
var (
	ErrNoTemplates      = errors.New("no templates available")
	ErrTemplateMissing  = errors.New("selected template not in store")
	ErrValidationFailed = errors.New("packaged artifact failed validation")
	ErrMaxAttempts      = errors.New("max attempts exceeded")
)

// Tab is one open browser tab of the requesting user.
type Tab struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// maxHistoryEntries bounds how many recent history entries feed the
// fill context.
const maxHistoryEntries = 5

// Request is one orchestration request.
type Request struct {
	Domain     string
	UserPrompt string
	Tabs       []Tab
	// History carries the user's recent search queries, most recent
	// first. At most maxHistoryEntries of them reach the fill context.
	History []string
	// FieldContext optionally carries per-field fill guidance.
	FieldContext string
}

// AgentState is the request-scoped state the machine mutates. It is
// never shared across concurrent requests.
type AgentState struct {
	RequestID  string
	UserPrompt string
	Tabs       []Tab
	Domain     string
	History    []string
	TemplateID string
	// TemplateDoc is the template as selected this attempt. It stays
	// untouched while TemplateData is rewritten by filling, so
	// validation always checks against the version that was filled.
	TemplateDoc  string
	TemplateData string
	AttemptCount int
	LastError    error
	IsValid      bool
}

// Transition records one state change for diagnostics.
type Transition struct {
	From    State
	To      State
	Attempt int
	At      time.Time
}

// Artifact is the packaged output of one successful fill.
type Artifact struct {
	TemplateID string          `json:"templateId"`
	Attempt    int             `json:"attempt"`
	Document   json.RawMessage `json:"document"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Result is the structured outcome of a run. Err is nil exactly when
// Success is true.
type Result struct {
	Success        bool
	TemplateID     string
	FilledDocument string
	Attempts       int
	Err            error
	History        []Transition
}

// Filler is the content filling engine surface the orchestrator uses.
type Filler interface {
	FillTemplate(ctx context.Context, content, pageContext, fieldContext string) string
}

// Options wires an Orchestrator.
type Options struct {
	Store    *selector.Store
	Selector *selector.Selector
	Filler   Filler
	Merger   *merge.Merger
	// MaxAttempts defaults to 3.
	MaxAttempts int
	// MaxPlaceholderRatio fails validation when the filled document
	// still has more than this share of placeholder leaves. Zero
	// disables the check.
	MaxPlaceholderRatio float64
}

// Orchestrator is the top-level state machine. Safe for concurrent
// use; all per-request state lives in AgentState.
type Orchestrator struct {
	store       *selector.Store
	selector    *selector.Selector
	filler      Filler
	merger      *merge.Merger
	maxAttempts int
	maxRatio    float64
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	merger := opts.Merger
	if merger == nil {
		merger = merge.New(nil)
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{
		store:       opts.Store,
		selector:    opts.Selector,
		filler:      opts.Filler,
		merger:      merger,
		maxAttempts: maxAttempts,
		maxRatio:    opts.MaxPlaceholderRatio,
	}
}

// Run processes one request to completion. It always returns a
// structured Result and never panics across this boundary.
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	state := &AgentState{
		RequestID:  uuid.NewString(),
		UserPrompt: req.UserPrompt,
		Tabs:       req.Tabs,
		Domain:     req.Domain,
		History:    req.History,
	}
	var history []Transition
	current := StateSelectTemplate

	transition := func(to State) {
		history = append(history, Transition{
			From:    current,
			To:      to,
			Attempt: state.AttemptCount,
			At:      time.Now(),
		})
		logging.OrchestratorDebug("[%s] %s -> %s (attempt %d)",
			state.RequestID, current, to, state.AttemptCount)
		current = to
	}

	logging.Orchestrator("[%s] Run started: domain=%s tabs=%d",
		state.RequestID, req.Domain, len(req.Tabs))

	var artifact Artifact
	for current != StateDone {
		if err := ctx.Err(); err != nil {
			state.LastError = err
			transition(StateDone)
			break
		}

		switch current {
		case StateSelectTemplate:
			state.AttemptCount++
			if err := o.selectTemplate(state); err != nil {
				state.LastError = err
				transition(StateDone)
				continue
			}
			transition(StateFillContent)

		case StateFillContent:
			o.fillContent(ctx, state, req.FieldContext)
			transition(StatePackageArtifact)

		case StatePackageArtifact:
			artifact = Artifact{
				TemplateID: state.TemplateID,
				Attempt:    state.AttemptCount,
				Document:   json.RawMessage(state.TemplateData),
				CreatedAt:  time.Now(),
			}
			transition(StateValidatePackaged)

		case StateValidatePackaged:
			if err := o.validate(state, artifact); err != nil {
				state.LastError = err
				state.IsValid = false
				if state.AttemptCount >= o.maxAttempts {
					transition(StateDone)
					continue
				}
				logging.OrchestratorWarn("[%s] Attempt %d failed, retrying: %v",
					state.RequestID, state.AttemptCount, err)
				transition(StateSelectTemplate)
				continue
			}
			state.IsValid = true
			state.LastError = nil
			transition(StateDone)
		}
	}

	result := Result{
		Success:    state.IsValid,
		TemplateID: state.TemplateID,
		Attempts:   state.AttemptCount,
		History:    history,
	}
	if state.IsValid {
		result.FilledDocument = state.TemplateData
		logging.Orchestrator("[%s] Run succeeded with %s after %d attempt(s)",
			state.RequestID, state.TemplateID, state.AttemptCount)
	} else {
		err := state.LastError
		if err == nil {
			err = ErrValidationFailed
		}
		if state.AttemptCount >= o.maxAttempts && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %v", ErrMaxAttempts, err)
		}
		result.Err = err
		logging.OrchestratorError("[%s] Run failed after %d attempt(s): %v",
			state.RequestID, state.AttemptCount, err)
	}
	return result
}

// selectTemplate runs the scoring pass and loads the winner's example
// document into the agent state.
func (o *Orchestrator) selectTemplate(state *AgentState) error {
	templates := o.store.Templates()
	if len(templates) == 0 {
		return ErrNoTemplates
	}

	tabTitles := make([]string, 0, len(state.Tabs))
	tabURLs := make([]string, 0, len(state.Tabs))
	for _, tab := range state.Tabs {
		tabTitles = append(tabTitles, tab.Title)
		tabURLs = append(tabURLs, tab.URL)
	}

	chosen := o.selector.SelectBest(templates, selector.Query{
		Domain:     state.Domain,
		Keywords:   selector.ExtractKeywords(state.UserPrompt, tabTitles),
		UserPrompt: state.UserPrompt,
		TabCount:   len(state.Tabs),
		TabURLs:    tabURLs,
	})

	doc, ok := o.store.Document(chosen.TemplateID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTemplateMissing, chosen.TemplateID)
	}
	state.TemplateID = chosen.TemplateID
	state.TemplateDoc = doc
	state.TemplateData = doc
	return nil
}

// fillContent hands the template to the filling engine. The engine
// never fails outright; at worst it returns the template unchanged.
func (o *Orchestrator) fillContent(ctx context.Context, state *AgentState, fieldContext string) {
	pageContext := state.UserPrompt
	for _, tab := range state.Tabs {
		pageContext += "\n" + tab.Title
	}
	recent := state.History
	if len(recent) > maxHistoryEntries {
		recent = recent[:maxHistoryEntries]
	}
	if len(recent) > 0 {
		pageContext += "\nRecent searches: " + strings.Join(recent, ", ")
	}
	state.TemplateData = o.filler.FillTemplate(ctx, state.TemplateData, pageContext, fieldContext)
}

// validate checks the packaged artifact: the filled document must keep
// the template's shape and be filled past the placeholder threshold.
func (o *Orchestrator) validate(state *AgentState, artifact Artifact) error {
	var template, filled any
	if err := json.Unmarshal([]byte(state.TemplateDoc), &template); err != nil {
		return fmt.Errorf("%w: template does not parse: %v", ErrValidationFailed, err)
	}
	if err := json.Unmarshal(artifact.Document, &filled); err != nil {
		return fmt.Errorf("%w: filled document does not parse: %v", ErrValidationFailed, err)
	}

	if violations := schema.Validate(filled, schema.Derive(template)); len(violations) > 0 {
		return fmt.Errorf("%w: %d shape violations, first: %s",
			ErrValidationFailed, len(violations), violations[0])
	}

	if o.maxRatio > 0 {
		if ratio := o.merger.PlaceholderRatio(filled); ratio > o.maxRatio {
			return fmt.Errorf("%w: placeholder ratio %.2f above %.2f",
				ErrValidationFailed, ratio, o.maxRatio)
		}
	}
	return nil
}
