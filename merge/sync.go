package merge

import (
	"context"
	"fmt"

	"github.com/dealdesk/sheets-merge/log"
)

// Loader retrieves a complete table snapshot for an identifier (a worksheet range, a file
// path, ...).
type Loader interface {
	Load(ctx context.Context, id string) (*Table, error)
}

// Writer applies reconciliation batches to a target table. Each call is expected to apply the
// whole batch or fail with an error wrapping ErrWriteFailure.
type Writer interface {
	ResetStatus(ctx context.Context, id string, resets []StatusUpdate) error
	Update(ctx context.Context, id string, updates []RowUpdate) error
	Insert(ctx context.Context, id string, inserts []RowInsert) error
}

type Target interface {
	Loader
	Writer
}

type Job struct {
	Source   Loader
	SourceID string
	Target   Target
	TargetID string
	Options  Options
	DryRun   bool

	// BeforeWrite is invoked with the loaded target snapshot and the computed plan, after
	// reconciliation succeeds and before anything is written. An error aborts the run.
	BeforeWrite func(ctx context.Context, target *Table, plan *Plan) error
}

// Sync loads the source and target tables, reconciles them and, unless the job is a dry run,
// writes the status resets, updates and inserts to the target in that order. Updates address
// rows by their load-time identifiers, so they are always applied before any row is inserted.
func Sync(ctx context.Context, job Job) (*Plan, error) {
	source, err := job.Source.Load(ctx, job.SourceID)
	if err != nil {
		return nil, fmt.Errorf("error loading source table %v (%w)", job.SourceID, err)
	}

	log.Infof("Loaded %v rows from %v", len(source.Rows), source.Name)

	target, err := job.Target.Load(ctx, job.TargetID)
	if err != nil {
		return nil, fmt.Errorf("error loading target table %v (%w)", job.TargetID, err)
	}

	log.Infof("Loaded %v rows from %v", len(target.Rows), target.Name)

	plan, warnings, err := Reconcile(source, target, job.Options)
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		log.Warnf("%v", w)
	}

	for _, u := range plan.Updates {
		if u.Changes > 0 {
			log.Debugf("row %-5v %v  %v changes", u.Number, u.Key, u.Changes)
		}
	}

	for _, i := range plan.Inserts {
		log.Debugf("new   %-5v %v", i.Source, i.Key)
	}

	if job.BeforeWrite != nil {
		if err := job.BeforeWrite(ctx, target, plan); err != nil {
			return nil, err
		}
	}

	if job.DryRun {
		log.Infof("Dry run - no changes written to %v", target.Name)
		return plan, nil
	}

	if err := apply(ctx, job.Target, job.TargetID, plan); err != nil {
		return plan, err
	}

	return plan, nil
}

func apply(ctx context.Context, w Writer, id string, plan *Plan) error {
	if len(plan.StatusResets) > 0 {
		log.Infof("Resetting status of %v rows", len(plan.StatusResets))
		if err := w.ResetStatus(ctx, id, plan.StatusResets); err != nil {
			return err
		}
	}

	if len(plan.Updates) > 0 {
		log.Infof("Writing %v rows back to %v", len(plan.Updates), id)
		if err := w.Update(ctx, id, plan.Updates); err != nil {
			return err
		}
	}

	if len(plan.Inserts) > 0 {
		log.Infof("Adding %v rows to %v", len(plan.Inserts), id)
		if err := w.Insert(ctx, id, plan.Inserts); err != nil {
			return err
		}
	}

	return nil
}
