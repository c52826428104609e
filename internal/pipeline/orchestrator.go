package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fieldlens/fieldlens/internal/extract"
	"github.com/fieldlens/fieldlens/internal/llm"
	"github.com/fieldlens/fieldlens/internal/overlay"
	"github.com/fieldlens/fieldlens/internal/parser"
)

// ErrUnsupportedFile is returned by Process for files that are neither
// images nor a parseable document format.
var ErrUnsupportedFile = errors.New("unsupported file type")

const (
	opGround   = "ground"
	opRefine   = "refine"
	opFallback = "fallback"
	opText     = "text"
	opChat     = "chat"
)

// Extraction stages. The image pipeline is a small state machine: grounding
// feeds refinement, a transport failure in either vision call diverts to the
// single-shot fallback, and everything funnels through validation. Parse
// failures never change the route; they degrade the payload in place.
type stage int

const (
	stageGround stage = iota
	stageRefine
	stageFallback
	stageValidate
	stageError
	stageDone
)

// Orchestrator runs documents through the extraction pipeline and records
// results in the store.
type Orchestrator struct {
	llm           llm.Completer
	store         *ResultStore
	log           *slog.Logger
	maxConcurrent int
}

func NewOrchestrator(completer llm.Completer, store *ResultStore, log *slog.Logger, maxConcurrent int) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		llm:           completer,
		store:         store,
		log:           log,
		maxConcurrent: maxConcurrent,
	}
}

// Process routes a file to the image or text branch, stores the result and
// returns its id. Image extraction never fails: model and parse problems
// surface inside the stored result. The text branch can fail before a result
// exists (unparseable document, model unreachable) and returns an error
// instead.
func (o *Orchestrator) Process(ctx context.Context, data []byte, mimeType, fileName string) (string, *extract.ExtractionResult, error) {
	var res *extract.ExtractionResult

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		res = o.ExtractImage(ctx, data, mimeType, fileName)
	case parser.IsSupportedExtension(fileName):
		p, err := parser.ForFile(fileName)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
		}
		doc, err := p.Parse(bytes.NewReader(data), fileName)
		if err != nil {
			return "", nil, fmt.Errorf("parse %s: %w", fileName, err)
		}
		res, err = o.ExtractText(ctx, doc)
		if err != nil {
			return "", nil, err
		}
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, mimeType)
	}

	id := NewExtractionID()
	o.store.Put(id, res)
	return id, res, nil
}

// ExtractImage runs the three-stage vision pipeline. It always returns a
// usable result: the worst case is a terminal result carrying a synthetic
// error field, never a panic or an error return.
func (o *Orchestrator) ExtractImage(ctx context.Context, data []byte, mimeType, fileName string) *extract.ExtractionResult {
	log := o.log.With("file", fileName)

	var payload *extract.Payload
	var result *extract.ExtractionResult

	st := stageGround
	for st != stageDone {
		switch st {
		case stageGround:
			payload, st = o.ground(ctx, log, data, mimeType)
		case stageRefine:
			payload, st = o.refine(ctx, log, data, mimeType, payload)
		case stageFallback:
			payload, st = o.fallback(ctx, log, data, mimeType)
		case stageValidate:
			result = extract.ValidateResult(payload)
			st = stageDone
		case stageError:
			log.Error("all extraction stages failed", "file", fileName)
			result = extract.ErrorResult(fileName)
			st = stageDone
		}
	}
	return result
}

// ground sends the grid-overlaid image with the coordinate-teaching prompt.
// A transport failure diverts to the fallback; an unparseable reply degrades
// to validation with nothing; an empty field list skips refinement but keeps
// whatever else the model returned.
func (o *Orchestrator) ground(ctx context.Context, log *slog.Logger, data []byte, mimeType string) (*extract.Payload, stage) {
	gridded, gridMime := overlay.Apply(data, mimeType)

	text, err := o.llm.Complete(ctx, llm.Request{
		Op:          opGround,
		Prompt:      extract.GroundingPrompt,
		ImageURL:    dataURL(gridMime, gridded),
		MaxTokens:   4000,
		Temperature: 0.05,
	})
	if err != nil {
		log.Warn("grounding call failed, trying single-shot fallback", "error", err)
		return nil, stageFallback
	}
	if err := extract.CheckStageShape(text); err != nil {
		log.Debug("grounding reply shape", "issue", err)
	}

	p, err := extract.ParsePayload(text)
	if err != nil {
		log.Warn("grounding reply unparseable, keeping empty result", "error", err)
		return nil, stageValidate
	}
	if len(p.Fields) == 0 {
		log.Info("grounding found no fields, skipping refinement")
		return p, stageValidate
	}
	log.Info("grounding complete", "fields", len(p.Fields))
	return p, stageRefine
}

// refine re-reads the original image alongside the stage-one JSON. Parse
// failures and empty refinements silently keep the stage-one payload; only a
// transport failure diverts to the fallback.
func (o *Orchestrator) refine(ctx context.Context, log *slog.Logger, data []byte, mimeType string, prev *extract.Payload) (*extract.Payload, stage) {
	stageOne, err := json.Marshal(prev)
	if err != nil {
		return prev, stageValidate
	}

	text, err := o.llm.Complete(ctx, llm.Request{
		Op:          opRefine,
		Prompt:      extract.BuildRefinementPrompt(string(stageOne)),
		ImageURL:    dataURL(mimeType, data),
		MaxTokens:   3000,
		Temperature: 0.05,
	})
	if err != nil {
		log.Warn("refinement call failed, trying single-shot fallback", "error", err)
		return nil, stageFallback
	}
	if err := extract.CheckStageShape(text); err != nil {
		log.Debug("refinement reply shape", "issue", err)
	}

	refined, err := extract.ParsePayload(text)
	if err != nil || len(refined.Fields) == 0 {
		return prev, stageValidate
	}
	log.Info("refinement complete", "fields", len(refined.Fields))
	return refined, stageValidate
}

// fallback is the last resort after a vision call failed: one plain request
// on the original image. If this call fails too the pipeline emits the
// terminal error result.
func (o *Orchestrator) fallback(ctx context.Context, log *slog.Logger, data []byte, mimeType string) (*extract.Payload, stage) {
	text, err := o.llm.Complete(ctx, llm.Request{
		Op:          opFallback,
		Prompt:      extract.FallbackPrompt,
		ImageURL:    dataURL(mimeType, data),
		MaxTokens:   2000,
		Temperature: 0.1,
	})
	if err != nil {
		log.Error("fallback call failed", "error", err)
		return nil, stageError
	}

	p, err := extract.ParsePayload(text)
	if err != nil {
		log.Warn("fallback reply unparseable, keeping empty result", "error", err)
		return nil, stageValidate
	}
	log.Info("fallback complete", "fields", len(p.Fields))
	return p, stageValidate
}

// ExtractText runs the single-call text branch for parsed documents. Unlike
// the image branch a transport failure here is returned to the caller; a
// malformed reply still degrades to an empty field list with the source text
// preserved as content.
func (o *Orchestrator) ExtractText(ctx context.Context, doc *parser.Document) (*extract.ExtractionResult, error) {
	text, err := o.llm.Complete(ctx, llm.Request{
		Op:          opText,
		System:      extract.TextPrompt,
		Prompt:      extract.BuildTextPrompt(doc.Title, doc.Text),
		MaxTokens:   3000,
		Temperature: 0.1,
		ForceJSON:   true,
	})
	if err != nil {
		return nil, err
	}

	p, perr := extract.ParsePayload(text)
	if perr != nil {
		o.log.Warn("text extraction reply unparseable, keeping empty result", "title", doc.Title, "error", perr)
		p = nil
	}
	res := extract.ValidateResult(p)
	res.Content = doc.Text
	return res, nil
}

// BatchItem is one uploaded file in a batch request.
type BatchItem struct {
	FileName string
	MimeType string
	Data     []byte
}

// BatchResult pairs a batch item with its outcome. Exactly one of ID/Result
// or Error is set.
type BatchResult struct {
	FileName string                    `json:"filename"`
	ID       string                    `json:"id,omitempty"`
	Result   *extract.ExtractionResult `json:"data,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// ProcessBatch extracts several files concurrently, at most maxConcurrent at
// a time. Per-file failures are recorded in the corresponding slot; one bad
// file never aborts the rest.
func (o *Orchestrator) ProcessBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))

	g := new(errgroup.Group)
	g.SetLimit(o.maxConcurrent)
	for i, item := range items {
		g.Go(func() error {
			id, res, err := o.Process(ctx, item.Data, item.MimeType, item.FileName)
			if err != nil {
				results[i] = BatchResult{FileName: item.FileName, Error: err.Error()}
				return nil
			}
			results[i] = BatchResult{FileName: item.FileName, ID: id, Result: res}
			return nil
		})
	}
	g.Wait()
	return results
}

func dataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
