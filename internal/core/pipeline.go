package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"playforge.com/cs-triage/internal/store"
)

const defaultClassifyWorkers = 4

// RecordStore is the pipeline's boundary to the inquiry record store.
type RecordStore interface {
	ReadAll(ctx context.Context, path string) ([]store.Inquiry, error)
	UpdateByID(ctx context.Context, path string, updates map[int]store.InquiryUpdate) error
}

// RunReport summarizes one pipeline run. Every ingested inquiry that a
// stage started yields exactly one entry at that stage, failures included.
type RunReport struct {
	RunID           string                   `json:"run_id"`
	StartedAt       time.Time                `json:"started_at"`
	FinishedAt      time.Time                `json:"finished_at"`
	Ingested        int                      `json:"ingested"`
	Resolved        int                      `json:"resolved"`
	OnHold          int                      `json:"on_hold"`
	Classifications []ClassificationResult   `json:"classifications"`
	Responses       []CategoryActionResponse `json:"responses,omitempty"`
}

// Pipeline runs the four-stage inquiry flow: ingest, classify, resolve,
// persist. Dependencies are passed directly to the constructor; there is no
// runtime service lookup. Each stage runs to completion over the whole
// batch before the next starts, and a per-item failure never aborts the
// stage for the remaining items.
type Pipeline struct {
	records         RecordStore
	storePath       string
	classifier      Classifier
	rewardResolver  *RewardStatusResolver
	ruleResolver    *RuleLookupResolver
	classifyWorkers int
}

func NewPipeline(records RecordStore, storePath string, classifier Classifier, reward *RewardStatusResolver, rule *RuleLookupResolver) *Pipeline {
	return &Pipeline{
		records:         records,
		storePath:       storePath,
		classifier:      classifier,
		rewardResolver:  reward,
		ruleResolver:    rule,
		classifyWorkers: defaultClassifyWorkers,
	}
}

// SetClassifyWorkers bounds the classify-stage parallelism. Values below 1
// mean sequential.
func (p *Pipeline) SetClassifyWorkers(n int) {
	if n < 1 {
		n = 1
	}
	p.classifyWorkers = n
}

// Run executes the full pipeline over the current store contents. A
// persist failure is returned to the caller together with the report of
// what was produced; already-classified results are not rolled back.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log.Printf("[pipeline %s] run started", report.RunID)

	inquiries, err := p.records.ReadAll(ctx, p.storePath)
	if err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	report.Ingested = len(inquiries)

	report.Classifications = p.classifyAll(ctx, inquiries)
	report.Responses = p.resolveAll(ctx, report.Classifications)

	for _, resp := range report.Responses {
		if resp.Success {
			report.Resolved++
		} else {
			report.OnHold++
		}
	}

	if err := p.persist(ctx, report.Responses); err != nil {
		report.FinishedAt = time.Now()
		return report, fmt.Errorf("persist failed: %w", err)
	}

	report.FinishedAt = time.Now()
	log.Printf("[pipeline %s] run finished: %d ingested, %d resolved, %d on hold",
		report.RunID, report.Ingested, report.Resolved, report.OnHold)
	return report, nil
}

// Preview runs ingest and classify only, leaving the store untouched.
func (p *Pipeline) Preview(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log.Printf("[pipeline %s] preview started", report.RunID)

	inquiries, err := p.records.ReadAll(ctx, p.storePath)
	if err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	report.Ingested = len(inquiries)
	report.Classifications = p.classifyAll(ctx, inquiries)
	report.FinishedAt = time.Now()

	log.Printf("[pipeline %s] preview finished: %d inquiries classified", report.RunID, len(report.Classifications))
	return report, nil
}

// classifyAll classifies the batch with bounded parallelism. Results are
// written by index and sorted by inquiry id afterwards, so output order
// never depends on completion order. A classifier failure becomes a
// fallback-category result for that item only. Cancellation stops new items
// from starting; items never started are absent from the output.
func (p *Pipeline) classifyAll(ctx context.Context, inquiries []store.Inquiry) []ClassificationResult {
	results := make([]ClassificationResult, len(inquiries))
	started := make([]bool, len(inquiries))

	var g errgroup.Group
	g.SetLimit(p.classifyWorkers)

	for i, inquiry := range inquiries {
		if ctx.Err() != nil {
			log.Printf("Classification cancelled after starting %d of %d inquiries", i, len(inquiries))
			break
		}
		started[i] = true
		g.Go(func() error {
			result, err := p.classifier.Classify(ctx, inquiry)
			if err != nil {
				log.Printf("[classify] inquiry %d failed: %v", inquiry.ID, err)
				result = fallbackResult(inquiry, err)
			} else {
				log.Printf("[classify] inquiry %d -> category %d (%s)", inquiry.ID, result.CategoryID, result.CategoryName)
			}
			results[i] = result
			return nil
		})
	}
	g.Wait()

	out := make([]ClassificationResult, 0, len(inquiries))
	for i := range results {
		if started[i] {
			out = append(out, results[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InquiryID < out[j].InquiryID })
	return out
}

func fallbackResult(inquiry store.Inquiry, cause error) ClassificationResult {
	return ClassificationResult{
		InquiryID:          inquiry.ID,
		UserID:             inquiry.UserID,
		InquiryDescription: inquiry.Description,
		CategoryID:         CategoryFallback,
		CategoryName:       "Unclassifiable",
		Confidence:         0.0,
		Reason:             fmt.Sprintf("classification failed: %v", cause),
		Keywords:           []string{},
	}
}

// resolveAll dispatches each classification to its resolution strategy.
// Exactly one response is produced per started classification.
func (p *Pipeline) resolveAll(ctx context.Context, results []ClassificationResult) []CategoryActionResponse {
	responses := make([]CategoryActionResponse, 0, len(results))
	for i, result := range results {
		if ctx.Err() != nil {
			log.Printf("Resolution cancelled after %d of %d classifications", i, len(results))
			break
		}
		switch Dispatch(result) {
		case ResolverRewardStatus:
			responses = append(responses, p.rewardResolver.Resolve(ctx, result))
		default:
			responses = append(responses, p.ruleResolver.Resolve(result))
		}
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].InquiryID < responses[j].InquiryID })
	return responses
}

// persist writes every response back to the record store in one call:
// resolved inquiries go to RESOLVED, failures to ONHOLD for manual
// follow-up.
func (p *Pipeline) persist(ctx context.Context, responses []CategoryActionResponse) error {
	if len(responses) == 0 {
		return nil
	}
	updates := make(map[int]store.InquiryUpdate, len(responses))
	for _, resp := range responses {
		status := store.StatusOnHold
		if resp.Success {
			status = store.StatusResolved
		}
		updates[resp.InquiryID] = store.InquiryUpdate{
			Status:          status,
			ResponseMessage: resp.Message,
		}
	}
	return p.records.UpdateByID(ctx, p.storePath, updates)
}
