// Package revsched is an adaptive review scheduler for vocabulary learning.
//
// It decides, per learner and item, when the item should next be reviewed,
// how difficult it currently is, and which items to surface next. The core
// is a pure decision engine: a leveled interval calculator, an adaptive
// difficulty tier, a mastery aggregator and a recommendation generator,
// tied together by a session orchestrator that folds answer outcomes back
// into the progress store.
//
// Persistence is a collaborator concern; see internal/store for the store
// contracts and the reference sqlx implementation.
package revsched
